package events

import (
	"time"

	"trailhub/internal/models"

	"github.com/google/uuid"
)

// ===============================
// EVENT ENVELOPE
// ===============================

// EventType tags every domain event with its concrete kind. Handlers are
// registered against these tags, never against Go types discovered at
// runtime.
type EventType string

const (
	TripCreated             EventType = "trip.created"
	TripSettingsInitialized EventType = "trip.settings_initialized"
	TripMetadataRefreshed   EventType = "trip.metadata_refreshed"
	LocationUpdateRecorded  EventType = "trip.update_recorded"
	CommentAdded            EventType = "trip.comment_added"
	FriendRequestAccepted   EventType = "social.friend_request_accepted"
	FriendshipCreated       EventType = "social.friendship_created"
	FollowCreated           EventType = "social.follow_created"
	AchievementUnlocked     EventType = "achievement.unlocked"
)

// Broadcast topics. Delivery to the same topic follows commit order.
const (
	TopicTrips        = "trips"
	TopicUpdates      = "updates"
	TopicComments     = "comments"
	TopicSocial       = "social"
	TopicAchievements = "achievements"
)

// BroadcastPayload is the public projection of an event, attached at
// construction time. An event without one is persistence-only and never
// leaves the process. The payload must not carry internal identifiers
// that subscribers are not meant to see.
type BroadcastPayload struct {
	EventType string                 `json:"event_type"`
	Topic     string                 `json:"-"`
	TargetID  string                 `json:"target_id"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// Event is an immutable record of one state-changing fact.
type Event interface {
	GetEventID() uuid.UUID
	GetEventType() EventType
	GetTimestamp() time.Time
	GetBroadcast() *BroadcastPayload
}

// BaseEvent provides common envelope fields for all domain events.
type BaseEvent struct {
	EventID   uuid.UUID         `json:"event_id"`
	EventType EventType         `json:"event_type"`
	Timestamp time.Time         `json:"timestamp"`
	Broadcast *BroadcastPayload `json:"broadcast,omitempty"`
}

// GetEventID returns the event ID.
func (e *BaseEvent) GetEventID() uuid.UUID { return e.EventID }

// GetEventType returns the event type tag.
func (e *BaseEvent) GetEventType() EventType { return e.EventType }

// GetTimestamp returns the event timestamp.
func (e *BaseEvent) GetTimestamp() time.Time { return e.Timestamp }

// GetBroadcast returns the public projection, or nil for
// persistence-only events.
func (e *BaseEvent) GetBroadcast() *BroadcastPayload { return e.Broadcast }

// Clock is the timestamp source for events and unlock records. Mockable
// in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time { return time.Now() }

// ===============================
// DOMAIN EVENTS
// ===============================

// TripCreatedEvent is published when a user starts a new trip.
type TripCreatedEvent struct {
	BaseEvent
	Trip models.Trip `json:"trip"`
}

// NewTripCreatedEvent creates a trip created event with a public
// projection for trip subscribers.
func NewTripCreatedEvent(trip models.Trip, clock Clock) *TripCreatedEvent {
	return &TripCreatedEvent{
		BaseEvent: BaseEvent{
			EventID:   uuid.New(),
			EventType: TripCreated,
			Timestamp: clock.Now(),
			Broadcast: &BroadcastPayload{
				EventType: string(TripCreated),
				Topic:     TopicTrips,
				TargetID:  trip.ID.String(),
				Data: map[string]interface{}{
					"trip_id": trip.ID.String(),
					"user_id": trip.UserID.String(),
					"title":   trip.Title,
				},
			},
		},
		Trip: trip,
	}
}

// TripSettingsInitializedEvent creates the settings row for a new trip.
// Persistence-only.
type TripSettingsInitializedEvent struct {
	BaseEvent
	Settings models.TripSettings `json:"settings"`
}

// NewTripSettingsInitializedEvent creates a settings initialization event.
func NewTripSettingsInitializedEvent(settings models.TripSettings, clock Clock) *TripSettingsInitializedEvent {
	return &TripSettingsInitializedEvent{
		BaseEvent: BaseEvent{
			EventID:   uuid.New(),
			EventType: TripSettingsInitialized,
			Timestamp: clock.Now(),
		},
		Settings: settings,
	}
}

// TripMetadataRefreshedEvent refreshes trip bookkeeping columns. Its
// handler runs deferred before commit because it reads state written by
// sibling handlers in the same transaction.
type TripMetadataRefreshedEvent struct {
	BaseEvent
	TripID uuid.UUID `json:"trip_id"`
}

// NewTripMetadataRefreshedEvent creates a metadata refresh event.
func NewTripMetadataRefreshedEvent(tripID uuid.UUID, clock Clock) *TripMetadataRefreshedEvent {
	return &TripMetadataRefreshedEvent{
		BaseEvent: BaseEvent{
			EventID:   uuid.New(),
			EventType: TripMetadataRefreshed,
			Timestamp: clock.Now(),
		},
		TripID: tripID,
	}
}

// LocationUpdateRecordedEvent is published when a new position is
// recorded on a trip.
type LocationUpdateRecordedEvent struct {
	BaseEvent
	Update models.LocationUpdate `json:"update"`
}

// NewLocationUpdateRecordedEvent creates a location update event with a
// public projection carrying only the position and trip reference.
func NewLocationUpdateRecordedEvent(update models.LocationUpdate, clock Clock) *LocationUpdateRecordedEvent {
	return &LocationUpdateRecordedEvent{
		BaseEvent: BaseEvent{
			EventID:   uuid.New(),
			EventType: LocationUpdateRecorded,
			Timestamp: clock.Now(),
			Broadcast: &BroadcastPayload{
				EventType: string(LocationUpdateRecorded),
				Topic:     TopicUpdates,
				TargetID:  update.TripID.String(),
				Data: map[string]interface{}{
					"trip_id":     update.TripID.String(),
					"lat":         update.Lat,
					"lng":         update.Lng,
					"recorded_at": update.RecordedAt,
				},
			},
		},
		Update: update,
	}
}

// CommentAddedEvent is published when a comment is left on a trip.
type CommentAddedEvent struct {
	BaseEvent
	Comment models.Comment `json:"comment"`
}

// NewCommentAddedEvent creates a comment event with a public projection.
func NewCommentAddedEvent(comment models.Comment, clock Clock) *CommentAddedEvent {
	return &CommentAddedEvent{
		BaseEvent: BaseEvent{
			EventID:   uuid.New(),
			EventType: CommentAdded,
			Timestamp: clock.Now(),
			Broadcast: &BroadcastPayload{
				EventType: string(CommentAdded),
				Topic:     TopicComments,
				TargetID:  comment.TripID.String(),
				Data: map[string]interface{}{
					"trip_id": comment.TripID.String(),
					"user_id": comment.UserID.String(),
					"content": comment.Content,
				},
			},
		},
		Comment: comment,
	}
}

// FriendRequestAcceptedEvent marks a friend request as accepted.
type FriendRequestAcceptedEvent struct {
	BaseEvent
	RequestID   uuid.UUID `json:"request_id"`
	RequesterID uuid.UUID `json:"requester_id"`
	AddresseeID uuid.UUID `json:"addressee_id"`
}

// NewFriendRequestAcceptedEvent creates an acceptance event with a
// public projection notifying both parties' subscribers.
func NewFriendRequestAcceptedEvent(req models.FriendRequest, clock Clock) *FriendRequestAcceptedEvent {
	return &FriendRequestAcceptedEvent{
		BaseEvent: BaseEvent{
			EventID:   uuid.New(),
			EventType: FriendRequestAccepted,
			Timestamp: clock.Now(),
			Broadcast: &BroadcastPayload{
				EventType: string(FriendRequestAccepted),
				Topic:     TopicSocial,
				TargetID:  req.AddresseeID.String(),
				Data: map[string]interface{}{
					"requester_id": req.RequesterID.String(),
					"addressee_id": req.AddresseeID.String(),
				},
			},
		},
		RequestID:   req.ID,
		RequesterID: req.RequesterID,
		AddresseeID: req.AddresseeID,
	}
}

// FriendshipCreatedEvent creates one direction of an accepted
// friendship. Persistence-only: the bidirectional link is an internal
// representation detail and is never broadcast.
type FriendshipCreatedEvent struct {
	BaseEvent
	Friendship models.Friendship `json:"friendship"`
}

// NewFriendshipCreatedEvent creates a friendship link event.
func NewFriendshipCreatedEvent(friendship models.Friendship, clock Clock) *FriendshipCreatedEvent {
	return &FriendshipCreatedEvent{
		BaseEvent: BaseEvent{
			EventID:   uuid.New(),
			EventType: FriendshipCreated,
			Timestamp: clock.Now(),
		},
		Friendship: friendship,
	}
}

// FollowCreatedEvent records a new follower. Persistence-only.
type FollowCreatedEvent struct {
	BaseEvent
	Follow models.Follow `json:"follow"`
}

// NewFollowCreatedEvent creates a follow event.
func NewFollowCreatedEvent(follow models.Follow, clock Clock) *FollowCreatedEvent {
	return &FollowCreatedEvent{
		BaseEvent: BaseEvent{
			EventID:   uuid.New(),
			EventType: FollowCreated,
			Timestamp: clock.Now(),
		},
		Follow: follow,
	}
}

// AchievementUnlockedEvent is published by the achievement engine when a
// threshold is crossed for the first time. The unlock record ID is
// generated here so the persistence handler is idempotent by
// construction.
type AchievementUnlockedEvent struct {
	BaseEvent
	Unlock models.UnlockedAchievement `json:"unlock"`
	Type   models.AchievementType     `json:"achievement_type"`
}

// NewAchievementUnlockedEvent creates an unlock event with a fresh
// record ID and a public projection for achievement subscribers.
func NewAchievementUnlockedEvent(unlock models.UnlockedAchievement, achType models.AchievementType, clock Clock) *AchievementUnlockedEvent {
	return &AchievementUnlockedEvent{
		BaseEvent: BaseEvent{
			EventID:   uuid.New(),
			EventType: AchievementUnlocked,
			Timestamp: clock.Now(),
			Broadcast: &BroadcastPayload{
				EventType: string(AchievementUnlocked),
				Topic:     TopicAchievements,
				TargetID:  unlock.UserID.String(),
				Data: map[string]interface{}{
					"user_id":        unlock.UserID.String(),
					"type":           string(achType),
					"value_achieved": unlock.ValueAchieved,
				},
			},
		},
		Unlock: unlock,
		Type:   achType,
	}
}
