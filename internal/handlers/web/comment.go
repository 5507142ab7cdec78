// internal/handlers/web/comment.go
package web

import (
	"net/http"

	"trailhub/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// CommentHandler serves the comment write endpoint.
type CommentHandler struct {
	comments *services.CommentService
	validate *validator.Validate
}

// NewCommentHandler creates a comment handler.
func NewCommentHandler(comments *services.CommentService, validate *validator.Validate) *CommentHandler {
	return &CommentHandler{
		comments: comments,
		validate: validate,
	}
}

// AddComment handles POST /api/v1/trips/{tripID}/comments.
func (h *CommentHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	tripID, err := uuid.Parse(chi.URLParam(r, "tripID"))
	if err != nil {
		writeValidationError(w, r, err)
		return
	}

	var req services.AddCommentRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(w, r, err)
		return
	}
	req.TripID = tripID
	if err := h.validate.Struct(&req); err != nil {
		writeValidationError(w, r, err)
		return
	}

	comment, err := h.comments.AddComment(r.Context(), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, comment)
}
