package achievements

import (
	"math"

	"trailhub/internal/models"
	"trailhub/internal/routing"

	"github.com/google/uuid"
)

// TripContext is a snapshot of the trip state a trip-scoped checker
// evaluates against, fetched once per evaluation.
type TripContext struct {
	Trip    *models.Trip
	Updates []models.LocationUpdate // timestamp order
}

// UserContext is the social-graph snapshot a user-scoped checker
// evaluates against.
type UserContext struct {
	UserID        uuid.UUID
	FollowerCount int
	FriendCount   int
}

// TripChecker computes one scalar metric for a trip and owns an ordered
// list of achievement types. Thresholds live in the catalog, not here.
type TripChecker interface {
	CheckerID() string
	Types() []models.AchievementType
	Metric(trip *TripContext) float64
}

// UserChecker is the user-scoped counterpart of TripChecker.
type UserChecker interface {
	CheckerID() string
	Types() []models.AchievementType
	Metric(user *UserContext) float64
}

// ===============================
// TRIP CHECKERS
// ===============================

// updateCountChecker counts recorded location updates.
type updateCountChecker struct{}

func (updateCountChecker) CheckerID() string { return "trip-update-count" }

func (updateCountChecker) Types() []models.AchievementType {
	return []models.AchievementType{models.TypeUpdates10, models.TypeUpdates50, models.TypeUpdates100}
}

func (updateCountChecker) Metric(trip *TripContext) float64 {
	return float64(len(trip.Updates))
}

// distanceChecker sums haversine distance over consecutive updates.
// Approximate by design: a strict underestimate of road distance.
type distanceChecker struct{}

func (distanceChecker) CheckerID() string { return "trip-distance" }

func (distanceChecker) Types() []models.AchievementType {
	return []models.AchievementType{models.TypeDistance100Km, models.TypeDistance500Km, models.TypeDistance1MKm}
}

func (distanceChecker) Metric(trip *TripContext) float64 {
	points := make([]models.Coordinate, len(trip.Updates))
	for i, u := range trip.Updates {
		points[i] = u.Coordinate()
	}
	return routing.ApproximateDistance(points)
}

// durationChecker measures whole days between the first and latest
// update.
type durationChecker struct{}

func (durationChecker) CheckerID() string { return "trip-duration" }

func (durationChecker) Types() []models.AchievementType {
	return []models.AchievementType{models.TypeDuration7D, models.TypeDuration30D}
}

func (durationChecker) Metric(trip *TripContext) float64 {
	if len(trip.Updates) < 2 {
		return 0
	}
	first := trip.Updates[0].RecordedAt
	last := trip.Updates[len(trip.Updates)-1].RecordedAt
	return math.Floor(last.Sub(first).Hours() / 24)
}

// ===============================
// USER CHECKERS
// ===============================

type followerCountChecker struct{}

func (followerCountChecker) CheckerID() string { return "user-follower-count" }

func (followerCountChecker) Types() []models.AchievementType {
	return []models.AchievementType{models.TypeFollowers10, models.TypeFollowers50}
}

func (followerCountChecker) Metric(user *UserContext) float64 {
	return float64(user.FollowerCount)
}

type friendCountChecker struct{}

func (friendCountChecker) CheckerID() string { return "user-friend-count" }

func (friendCountChecker) Types() []models.AchievementType {
	return []models.AchievementType{models.TypeFriends5, models.TypeFriends25}
}

func (friendCountChecker) Metric(user *UserContext) float64 {
	return float64(user.FriendCount)
}

// DefaultTripCheckers returns the production set of trip-scoped checkers.
func DefaultTripCheckers() []TripChecker {
	return []TripChecker{updateCountChecker{}, distanceChecker{}, durationChecker{}}
}

// DefaultUserCheckers returns the production set of user-scoped checkers.
func DefaultUserCheckers() []UserChecker {
	return []UserChecker{followerCountChecker{}, friendCountChecker{}}
}
