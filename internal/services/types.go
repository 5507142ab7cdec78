package services

import (
	"time"

	"github.com/google/uuid"
)

// ===============================
// REQUEST TYPES
// ===============================

// CreateTripRequest starts a new trip for a user.
type CreateTripRequest struct {
	UserID      uuid.UUID  `json:"user_id" validate:"required"`
	Title       string     `json:"title" validate:"required,min=1,max=200"`
	Description string     `json:"description" validate:"max=2000"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
}

// AddUpdateRequest records a new position on a trip.
type AddUpdateRequest struct {
	TripID     uuid.UUID  `json:"trip_id" validate:"required"`
	Lat        float64    `json:"lat" validate:"gte=-90,lte=90"`
	Lng        float64    `json:"lng" validate:"gte=-180,lte=180"`
	Note       string     `json:"note" validate:"max=500"`
	RecordedAt *time.Time `json:"recorded_at,omitempty"`
}

// AddCommentRequest leaves a comment on a trip.
type AddCommentRequest struct {
	TripID  uuid.UUID `json:"trip_id" validate:"required"`
	UserID  uuid.UUID `json:"user_id" validate:"required"`
	Content string    `json:"content" validate:"required,min=1,max=1000"`
}

// FollowRequest subscribes one user to another's activity.
type FollowRequest struct {
	FollowerID uuid.UUID `json:"follower_id" validate:"required"`
	FolloweeID uuid.UUID `json:"followee_id" validate:"required"`
}
