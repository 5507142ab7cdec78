package routing

import (
	"math"

	"trailhub/internal/models"
)

// earthRadiusKm is the mean Earth radius used for great-circle math.
const earthRadiusKm = 6371.0

// Haversine returns the great-circle distance between two coordinates
// in kilometres.
func Haversine(a, b models.Coordinate) float64 {
	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// ApproximateDistance sums the haversine distance between consecutive
// points, in kilometres. Fewer than two points yields 0.
//
// This is a strict underestimate of road distance and is a placeholder
// until routed distances are wired in; callers must not treat it as
// authoritative.
func ApproximateDistance(points []models.Coordinate) float64 {
	if len(points) < 2 {
		return 0
	}

	var total float64
	for i := 1; i < len(points); i++ {
		total += Haversine(points[i-1], points[i])
	}
	return total
}
