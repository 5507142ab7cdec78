// internal/handlers/web/trip.go
package web

import (
	"net/http"

	"trailhub/internal/repositories"
	"trailhub/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// TripHandler serves the trip write endpoints.
type TripHandler struct {
	trips    *services.TripService
	reader   repositories.TripRepository
	validate *validator.Validate
}

// NewTripHandler creates a trip handler.
func NewTripHandler(trips *services.TripService, reader repositories.TripRepository, validate *validator.Validate) *TripHandler {
	return &TripHandler{
		trips:    trips,
		reader:   reader,
		validate: validate,
	}
}

// CreateTrip handles POST /api/v1/trips.
func (h *TripHandler) CreateTrip(w http.ResponseWriter, r *http.Request) {
	var req services.CreateTripRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(w, r, err)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeValidationError(w, r, err)
		return
	}

	trip, err := h.trips.CreateTrip(r.Context(), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, trip)
}

// GetTrip handles GET /api/v1/trips/{tripID}.
func (h *TripHandler) GetTrip(w http.ResponseWriter, r *http.Request) {
	tripID, err := uuid.Parse(chi.URLParam(r, "tripID"))
	if err != nil {
		writeValidationError(w, r, err)
		return
	}

	trip, err := h.reader.GetByID(r.Context(), tripID)
	if err != nil {
		writeError(w, r, services.NewNotFoundError("trip not found"))
		return
	}

	writeJSON(w, http.StatusOK, trip)
}

// AddUpdate handles POST /api/v1/trips/{tripID}/updates.
func (h *TripHandler) AddUpdate(w http.ResponseWriter, r *http.Request) {
	tripID, err := uuid.Parse(chi.URLParam(r, "tripID"))
	if err != nil {
		writeValidationError(w, r, err)
		return
	}

	var req services.AddUpdateRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(w, r, err)
		return
	}
	req.TripID = tripID
	if err := h.validate.Struct(&req); err != nil {
		writeValidationError(w, r, err)
		return
	}

	update, err := h.trips.AddLocationUpdate(r.Context(), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, update)
}

// RecomputePolyline handles POST /api/v1/trips/{tripID}/polyline/recompute.
// Operator escape hatch for corrupt or stale polylines.
func (h *TripHandler) RecomputePolyline(w http.ResponseWriter, r *http.Request) {
	tripID, err := uuid.Parse(chi.URLParam(r, "tripID"))
	if err != nil {
		writeValidationError(w, r, err)
		return
	}

	if err := h.trips.RecomputePolyline(r.Context(), tripID); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "recomputed"})
}
