// internal/handlers/web/respond.go
package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"trailhub/internal/middleware"
	"trailhub/internal/services"

	"go.uber.org/zap"
)

// writeJSON serializes payload with the given status.
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// writeError maps service errors to their HTTP status; anything
// unclassified becomes an opaque 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var svcErr *services.ServiceError
	if errors.As(err, &svcErr) {
		writeJSON(w, svcErr.GetStatusCode(), map[string]interface{}{
			"error":      svcErr.Message,
			"type":       svcErr.Type,
			"request_id": middleware.GetRequestID(r.Context()),
		})
		return
	}

	middleware.GetRequestLogger(r.Context()).Error("Unclassified handler error", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
		"error":      "internal server error",
		"request_id": middleware.GetRequestID(r.Context()),
	})
}

// writeValidationError reports a failed request body validation.
func writeValidationError(w http.ResponseWriter, r *http.Request, err error) {
	writeJSON(w, http.StatusBadRequest, map[string]interface{}{
		"error":      "validation failed",
		"details":    err.Error(),
		"request_id": middleware.GetRequestID(r.Context()),
	})
}

// decodeBody decodes a JSON request body into dst.
func decodeBody(r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}
