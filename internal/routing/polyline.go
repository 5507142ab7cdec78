package routing

import (
	"fmt"
	"math"
	"strings"

	"trailhub/internal/models"
)

// Encoded polyline codec (Google polyline algorithm, 1e-5 precision).

// EncodePolyline encodes an ordered sequence of coordinates into a
// compact string.
func EncodePolyline(points []models.Coordinate) string {
	var buf strings.Builder
	var prevLat, prevLng int64

	for _, p := range points {
		lat := int64(math.Round(p.Lat * 1e5))
		lng := int64(math.Round(p.Lng * 1e5))
		encodeValue(&buf, lat-prevLat)
		encodeValue(&buf, lng-prevLng)
		prevLat, prevLng = lat, lng
	}

	return buf.String()
}

func encodeValue(buf *strings.Builder, v int64) {
	u := uint64(v << 1)
	if v < 0 {
		u = ^u
	}
	for u >= 0x20 {
		buf.WriteByte(byte(0x20|(u&0x1f)) + 63)
		u >>= 5
	}
	buf.WriteByte(byte(u) + 63)
}

// DecodePolyline decodes an encoded polyline back into coordinates.
func DecodePolyline(encoded string) ([]models.Coordinate, error) {
	var points []models.Coordinate
	var lat, lng int64

	i := 0
	for i < len(encoded) {
		dLat, n, err := decodeValue(encoded[i:])
		if err != nil {
			return nil, fmt.Errorf("decode polyline at %d: %w", i, err)
		}
		i += n
		lat += dLat

		dLng, n, err := decodeValue(encoded[i:])
		if err != nil {
			return nil, fmt.Errorf("decode polyline at %d: %w", i, err)
		}
		i += n
		lng += dLng

		points = append(points, models.Coordinate{
			Lat: float64(lat) / 1e5,
			Lng: float64(lng) / 1e5,
		})
	}

	return points, nil
}

func decodeValue(s string) (int64, int, error) {
	var result uint64
	var shift uint
	i := 0

	for {
		if i >= len(s) {
			return 0, 0, fmt.Errorf("truncated value")
		}
		b := int64(s[i]) - 63
		if b < 0 {
			return 0, 0, fmt.Errorf("invalid character %q", s[i])
		}
		result |= uint64(b&0x1f) << shift
		i++
		if b < 0x20 {
			break
		}
		shift += 5
	}

	v := int64(result >> 1)
	if result&1 != 0 {
		v = ^v
	}
	return v, i, nil
}
