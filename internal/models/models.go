package models

import (
	"time"

	"github.com/google/uuid"
)

// Coordinate is a WGS84 point.
type Coordinate struct {
	Lat float64 `json:"lat" db:"lat"`
	Lng float64 `json:"lng" db:"lng"`
}

// User represents a registered traveller. Authentication and profile
// management live outside this service; only the fields the write
// pipeline reads are modelled here.
type User struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Username    string    `json:"username" db:"username"`
	DisplayName string    `json:"display_name" db:"display_name"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Trip represents one long-distance journey owned by a single user.
type Trip struct {
	ID                uuid.UUID  `json:"id" db:"id"`
	UserID            uuid.UUID  `json:"user_id" db:"user_id"`
	Title             string     `json:"title" db:"title"`
	Description       string     `json:"description" db:"description"`
	StartedAt         time.Time  `json:"started_at" db:"started_at"`
	EncodedPolyline   *string    `json:"encoded_polyline,omitempty" db:"encoded_polyline"`
	PolylineUpdatedAt *time.Time `json:"polyline_updated_at,omitempty" db:"polyline_updated_at"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
}

// TripSettings holds per-trip preferences, created together with the trip.
type TripSettings struct {
	TripID            uuid.UUID `json:"trip_id" db:"trip_id"`
	Visibility        string    `json:"visibility" db:"visibility"` // "public", "friends", "private"
	CommentsEnabled   bool      `json:"comments_enabled" db:"comments_enabled"`
	AutoRouteSnapping bool      `json:"auto_route_snapping" db:"auto_route_snapping"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}

// LocationUpdate is one recorded position on a trip.
type LocationUpdate struct {
	ID         uuid.UUID `json:"id" db:"id"`
	TripID     uuid.UUID `json:"trip_id" db:"trip_id"`
	Lat        float64   `json:"lat" db:"lat"`
	Lng        float64   `json:"lng" db:"lng"`
	Note       string    `json:"note,omitempty" db:"note"`
	RecordedAt time.Time `json:"recorded_at" db:"recorded_at"`
}

// Coordinate returns the update's position as a Coordinate.
func (u *LocationUpdate) Coordinate() Coordinate {
	return Coordinate{Lat: u.Lat, Lng: u.Lng}
}

// Comment is a remark left on a trip by a user.
type Comment struct {
	ID        uuid.UUID `json:"id" db:"id"`
	TripID    uuid.UUID `json:"trip_id" db:"trip_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// FriendRequest tracks a pending friendship between two users.
type FriendRequest struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	RequesterID uuid.UUID  `json:"requester_id" db:"requester_id"`
	AddresseeID uuid.UUID  `json:"addressee_id" db:"addressee_id"`
	Status      string     `json:"status" db:"status"` // "pending", "accepted", "rejected"
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	RespondedAt *time.Time `json:"responded_at,omitempty" db:"responded_at"`
}

// Friendship is one direction of an accepted friendship. Accepting a
// request creates two rows, one per direction.
type Friendship struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	FriendID  uuid.UUID `json:"friend_id" db:"friend_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Follow is a one-way subscription to another user's activity.
type Follow struct {
	FollowerID uuid.UUID `json:"follower_id" db:"follower_id"`
	FolloweeID uuid.UUID `json:"followee_id" db:"followee_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
