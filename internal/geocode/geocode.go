package geocode

import (
	"context"
	"errors"

	"github.com/dasper/backend/internal/utils"
)

var ErrNotFound = errors.New("geocode not found")

// Geocoder resolves a coordinate pin to a city name, used to pick the right
// regional cost profile when the caller only supplies a pin.
type Geocoder interface {
	ReverseCity(ctx context.Context, lat, lon float64) (string, error)
}

// cityCenter anchors the offline nearest-city fallback.
type cityCenter struct {
	Name     string
	Lat, Lon float64
}

var referenceCities = []cityCenter{
	{"Karachi", 24.8607, 67.0011},
	{"Lahore", 31.5204, 74.3587},
	{"Islamabad", 33.6844, 73.0479},
	{"Rawalpindi", 33.5651, 73.0169},
	{"Faisalabad", 31.4504, 73.1350},
	{"Multan", 30.1575, 71.5249},
	{"Peshawar", 34.0151, 71.5249},
	{"Quetta", 30.1798, 66.9750},
}

// maxNearestCityKm bounds the offline match; pins further than this from
// every reference city resolve to nothing.
const maxNearestCityKm = 60.0

// NearestCity matches a pin against the reference city centers without any
// network call.
func NearestCity(lat, lon float64) (string, bool) {
	best := ""
	bestKm := maxNearestCityKm
	for _, c := range referenceCities {
		if d := utils.HaversineKm(lat, lon, c.Lat, c.Lon); d < bestKm {
			best, bestKm = c.Name, d
		}
	}
	return best, best != ""
}
