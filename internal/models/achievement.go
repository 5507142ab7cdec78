package models

import (
	"time"

	"github.com/google/uuid"
)

// AchievementCategory scopes an achievement to a single trip or to a
// user's whole account. The category is fixed by the achievement type
// and never changes once the catalog row exists.
type AchievementCategory string

const (
	CategoryTrip AchievementCategory = "TRIP"
	CategoryUser AchievementCategory = "USER"
)

// AchievementType identifies one entry of the fixed achievement catalog.
type AchievementType string

const (
	// Trip-scoped
	TypeUpdates10     AchievementType = "UPDATES_10"
	TypeUpdates50     AchievementType = "UPDATES_50"
	TypeUpdates100    AchievementType = "UPDATES_100"
	TypeDistance100Km AchievementType = "DISTANCE_100KM"
	TypeDistance500Km AchievementType = "DISTANCE_500KM"
	TypeDistance1MKm  AchievementType = "DISTANCE_1000KM"
	TypeDuration7D    AchievementType = "DURATION_7_DAYS"
	TypeDuration30D   AchievementType = "DURATION_30_DAYS"

	// User-scoped
	TypeFollowers10 AchievementType = "FOLLOWERS_10"
	TypeFollowers50 AchievementType = "FOLLOWERS_50"
	TypeFriends5    AchievementType = "FRIENDS_5"
	TypeFriends25   AchievementType = "FRIENDS_25"
)

// AchievementSpec is the immutable catalog definition for one type:
// display data, the numeric threshold, and the category.
type AchievementSpec struct {
	Type        AchievementType
	Name        string
	Description string
	Threshold   float64
	Category    AchievementCategory
}

// Catalog maps every achievement type to its fixed definition.
// Thresholds live here, not in the checkers.
var Catalog = map[AchievementType]AchievementSpec{
	TypeUpdates10:     {TypeUpdates10, "On the Road", "Record 10 location updates on a single trip", 10, CategoryTrip},
	TypeUpdates50:     {TypeUpdates50, "Seasoned Traveller", "Record 50 location updates on a single trip", 50, CategoryTrip},
	TypeUpdates100:    {TypeUpdates100, "Chronicler", "Record 100 location updates on a single trip", 100, CategoryTrip},
	TypeDistance100Km: {TypeDistance100Km, "First Century", "Cover 100 km on a single trip", 100, CategoryTrip},
	TypeDistance500Km: {TypeDistance500Km, "Long Hauler", "Cover 500 km on a single trip", 500, CategoryTrip},
	TypeDistance1MKm:  {TypeDistance1MKm, "Continental", "Cover 1000 km on a single trip", 1000, CategoryTrip},
	TypeDuration7D:    {TypeDuration7D, "One Week Out", "Keep a trip going for 7 days", 7, CategoryTrip},
	TypeDuration30D:   {TypeDuration30D, "A Month Away", "Keep a trip going for 30 days", 30, CategoryTrip},
	TypeFollowers10:   {TypeFollowers10, "Small Crowd", "Reach 10 followers", 10, CategoryUser},
	TypeFollowers50:   {TypeFollowers50, "Local Celebrity", "Reach 50 followers", 50, CategoryUser},
	TypeFriends5:      {TypeFriends5, "Travel Buddies", "Make 5 friends", 5, CategoryUser},
	TypeFriends25:     {TypeFriends25, "Caravan", "Make 25 friends", 25, CategoryUser},
}

// Achievement is a durable catalog row, created lazily on first unlock.
type Achievement struct {
	ID             uuid.UUID           `json:"id" db:"id"`
	Type           AchievementType     `json:"type" db:"type"`
	Name           string              `json:"name" db:"name"`
	Description    string              `json:"description" db:"description"`
	ThresholdValue float64             `json:"threshold_value" db:"threshold_value"`
	Category       AchievementCategory `json:"category" db:"category"`
	Enabled        bool                `json:"enabled" db:"enabled"`
	CreatedAt      time.Time           `json:"created_at" db:"created_at"`
}

// UnlockedAchievement is an insert-only fact row. At most one exists per
// (UserID, AchievementID, TripID-or-null); TripID is nil for user-scoped
// achievements.
type UnlockedAchievement struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	UserID        uuid.UUID  `json:"user_id" db:"user_id"`
	AchievementID uuid.UUID  `json:"achievement_id" db:"achievement_id"`
	TripID        *uuid.UUID `json:"trip_id,omitempty" db:"trip_id"`
	ValueAchieved float64    `json:"value_achieved" db:"value_achieved"`
	UnlockedAt    time.Time  `json:"unlocked_at" db:"unlocked_at"`
}
