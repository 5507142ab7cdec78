package routing

import (
	"testing"

	"trailhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodePolylineReferenceVector(t *testing.T) {
	points := []models.Coordinate{
		{Lat: 38.5, Lng: -120.2},
		{Lat: 40.7, Lng: -120.95},
		{Lat: 43.252, Lng: -126.453},
	}

	assert.Equal(t, "_p~iF~ps|U_ulLnnqC_mqNvxq`@", EncodePolyline(points))
}

func TestDecodePolylineReferenceVector(t *testing.T) {
	points, err := DecodePolyline("_p~iF~ps|U_ulLnnqC_mqNvxq`@")
	require.NoError(t, err)
	require.Len(t, points, 3)

	assert.InDelta(t, 38.5, points[0].Lat, 1e-5)
	assert.InDelta(t, -120.2, points[0].Lng, 1e-5)
	assert.InDelta(t, 43.252, points[2].Lat, 1e-5)
	assert.InDelta(t, -126.453, points[2].Lng, 1e-5)
}

func TestPolylineRoundTrip(t *testing.T) {
	points := []models.Coordinate{
		{Lat: 42.8805, Lng: -8.5457},
		{Lat: 42.9000, Lng: -9.2615},
		{Lat: -33.8675, Lng: 151.2070},
		{Lat: 0, Lng: 0},
	}

	decoded, err := DecodePolyline(EncodePolyline(points))
	require.NoError(t, err)
	require.Len(t, decoded, len(points))

	for i := range points {
		assert.InDelta(t, points[i].Lat, decoded[i].Lat, 1e-5)
		assert.InDelta(t, points[i].Lng, decoded[i].Lng, 1e-5)
	}
}

func TestDecodePolylineEmptyString(t *testing.T) {
	points, err := DecodePolyline("")
	require.NoError(t, err)
	assert.Empty(t, points)
}

func TestDecodePolylineTruncatedInput(t *testing.T) {
	// A continuation byte with nothing after it.
	_, err := DecodePolyline("_")
	assert.Error(t, err)
}
