package routing

import (
	"fmt"
	"math"
	"time"

	"github.com/FACorreiaa/loci-planner/internal/app/models"
)

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between two WGS-84 points in
// kilometers.
func HaversineKm(a, b models.GeoPoint) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// ValidateCoordinates rejects points outside the WGS-84 domain.
func ValidateCoordinates(p models.GeoPoint) error {
	if p.Latitude < -90 || p.Latitude > 90 || p.Longitude < -180 || p.Longitude > 180 {
		return fmt.Errorf("invalid coordinates: lat=%f, lon=%f", p.Latitude, p.Longitude)
	}
	return nil
}

// TravelEstimator converts a pair of points into a travel duration. The
// contract: non-negative, symmetric, and positive for distinct coordinates.
type TravelEstimator interface {
	TravelTime(a, b models.GeoPoint) time.Duration
}

// SpeedEstimator derives travel time from great-circle distance at a fixed
// mean ground speed.
type SpeedEstimator struct {
	SpeedKmh float64
}

var _ TravelEstimator = SpeedEstimator{}

func (e SpeedEstimator) TravelTime(a, b models.GeoPoint) time.Duration {
	speed := e.SpeedKmh
	if speed <= 0 {
		speed = 40
	}
	hours := HaversineKm(a, b) / speed
	return time.Duration(hours * float64(time.Hour))
}
