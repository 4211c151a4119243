package geo

import (
	"fmt"
	"math"
)

// EarthRadiusMeters is the mean radius of Earth used for Haversine distance.
const EarthRadiusMeters = 6_371_000.0

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Unit is a distance unit accepted by radius queries.
type Unit string

// Supported distance units.
const (
	Centimeters Unit = "cm"
	Meters      Unit = "m"
	Kilometers  Unit = "km"
	Feet        Unit = "ft"
	Yards       Unit = "yd"
	Miles       Unit = "mi"
)

var unitToMeters = map[Unit]float64{
	Centimeters: 0.01,
	Meters:      1,
	Kilometers:  1000,
	Feet:        0.3048,
	Yards:       0.9144,
	Miles:       1609.344,
}

// ToMeters converts a distance in the given unit to meters. Empty unit means meters.
func ToMeters(value float64, unit Unit) (float64, error) {
	if unit == "" {
		unit = Meters
	}
	f, ok := unitToMeters[unit]
	if !ok {
		return 0, fmt.Errorf("unknown distance unit %q", unit)
	}
	return value * f, nil
}

// Haversine returns the great-circle distance in meters between two points
// specified by latitude and longitude in degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1r := lat1 * math.Pi / 180
	lat2r := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1r)*math.Cos(lat2r)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// Distance returns the Haversine distance between two points in meters.
func Distance(a, b Point) float64 {
	return Haversine(a.Lat, a.Lon, b.Lat, b.Lon)
}

// ValidateCoordinates checks that latitude is in [-90,90] and longitude in [-180,180].
func ValidateCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
