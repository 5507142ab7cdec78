// internal/handlers/web/social.go
package web

import (
	"net/http"

	"trailhub/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// SocialHandler serves the social-graph write endpoints.
type SocialHandler struct {
	social   *services.SocialService
	validate *validator.Validate
}

// NewSocialHandler creates a social handler.
func NewSocialHandler(social *services.SocialService, validate *validator.Validate) *SocialHandler {
	return &SocialHandler{
		social:   social,
		validate: validate,
	}
}

// AcceptFriendRequest handles POST /api/v1/friend-requests/{requestID}/accept.
func (h *SocialHandler) AcceptFriendRequest(w http.ResponseWriter, r *http.Request) {
	requestID, err := uuid.Parse(chi.URLParam(r, "requestID"))
	if err != nil {
		writeValidationError(w, r, err)
		return
	}

	if err := h.social.AcceptFriendRequest(r.Context(), requestID); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}

// Follow handles POST /api/v1/follows.
func (h *SocialHandler) Follow(w http.ResponseWriter, r *http.Request) {
	var req services.FollowRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(w, r, err)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeValidationError(w, r, err)
		return
	}

	if err := h.social.Follow(r.Context(), &req); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"status": "following"})
}
