package model

import (
	"errors"
	"strconv"
	"strings"
)

// Earth mean radius used to turn a distance into radians for $centerSphere.
const (
	EarthRadiusMiles      = 3963.2
	EarthRadiusKilometers = 6378.1
)

// Multipliers converting meters (as returned by $geoNear) into a unit.
const (
	MetersToMiles      = 0.000621371
	MetersToKilometers = 0.001
)

// Unit is a distance unit.
type Unit string

const (
	Miles      Unit = "mi"
	Kilometers Unit = "km"
)

// ParseUnit returns Miles for "mi" and Kilometers for anything else.
func ParseUnit(s string) Unit {
	if s == string(Miles) {
		return Miles
	}
	return Kilometers
}

// RadiusInRadians converts distance into the angular radius of a spherical
// cap by dividing by the Earth's radius in unit.
func RadiusInRadians(distance float64, unit Unit) float64 {
	if unit == Miles {
		return distance / EarthRadiusMiles
	}
	return distance / EarthRadiusKilometers
}

// DistanceMultiplier returns the factor turning meters into unit.
func DistanceMultiplier(unit Unit) float64 {
	if unit == Miles {
		return MetersToMiles
	}
	return MetersToKilometers
}

// ErrInvalidLatLng is returned when a "lat,lng" pair cannot be parsed.
var ErrInvalidLatLng = errors.New("please provide latitude and longitude in the format lat,lng")

// LatLng is a point given as latitude then longitude, the order clients use
// in URLs.
type LatLng struct {
	Lat float64
	Lng float64
}

// ParseLatLng parses "lat,lng". Either part missing or not a number is an
// ErrInvalidLatLng.
func ParseLatLng(s string) (LatLng, error) {
	parts := strings.Split(s, ",")
	if len(parts) < 2 {
		return LatLng{}, ErrInvalidLatLng
	}

	latPart, lngPart := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if latPart == "" || lngPart == "" {
		return LatLng{}, ErrInvalidLatLng
	}

	lat, err := strconv.ParseFloat(latPart, 64)
	if err != nil {
		return LatLng{}, ErrInvalidLatLng
	}
	lng, err := strconv.ParseFloat(lngPart, 64)
	if err != nil {
		return LatLng{}, ErrInvalidLatLng
	}

	return LatLng{Lat: lat, Lng: lng}, nil
}
