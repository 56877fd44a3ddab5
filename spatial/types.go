// Copyright 2026 The Locator Authors
//
// SPDX-License-Identifier: Apache-2.0
package spatial

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/uber/h3-go/v4"
)

const earthRadius = 6371e3 // meters

// DefaultH3Resolution is roughly a city block (~0.1 km²).
const DefaultH3Resolution = 9

// ErrInvalidCoordinates is wrapped by every coordinate validation failure.
var ErrInvalidCoordinates = errors.New("invalid coordinates")

// Point represents a geographical point with latitude and longitude.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// String returns a string representation of the Point.
func (p Point) String() string {
	return fmt.Sprintf("POINT(%f %f)", p.Lng, p.Lat)
}

// Coordinates converts the point to GeoJSON order.
func (p Point) Coordinates() Coordinates {
	return Coordinates{p.Lng, p.Lat}
}

// HaversineDistance calculates the distance between two points on Earth in meters.
func (p *Point) HaversineDistance(other *Point) float64 {
	lat1 := p.Lat * math.Pi / 180
	lat2 := other.Lat * math.Pi / 180
	dLat := (other.Lat - p.Lat) * math.Pi / 180
	dLng := (other.Lng - p.Lng) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c
}

// Coordinates is a position in GeoJSON order: longitude first, latitude second.
// It serializes as a two element JSON array.
type Coordinates [2]float64

// NewCoordinates builds Coordinates from a longitude and a latitude.
func NewCoordinates(lon, lat float64) Coordinates {
	return Coordinates{lon, lat}
}

// Lon returns the longitude.
func (c Coordinates) Lon() float64 { return c[0] }

// Lat returns the latitude.
func (c Coordinates) Lat() float64 { return c[1] }

// Point converts the coordinates to a lat/lng Point.
func (c Coordinates) Point() Point {
	return Point{Lat: c[1], Lng: c[0]}
}

// Validate reports whether both components are finite and within range.
func (c Coordinates) Validate() error {
	return ValidateCoordinates(c[0], c[1])
}

// UnmarshalJSON accepts only a two element numeric array.
func (c *Coordinates) UnmarshalJSON(data []byte) error {
	var raw []float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("spatial: decoding coordinates: %w", err)
	}

	if len(raw) != 2 {
		return fmt.Errorf("spatial: coordinates must have 2 elements, got %d", len(raw))
	}

	c[0], c[1] = raw[0], raw[1]

	return nil
}

// ValidateCoordinates checks a longitude/latitude pair. Values are never clamped.
func ValidateCoordinates(lon, lat float64) error {
	if math.IsNaN(lon) || math.IsInf(lon, 0) || math.IsNaN(lat) || math.IsInf(lat, 0) {
		return fmt.Errorf("%w: non numeric value (lon=%v, lat=%v)", ErrInvalidCoordinates, lon, lat)
	}

	if lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude must be between -90 and 90 (got %f)", ErrInvalidCoordinates, lat)
	}

	if lon < -180 || lon > 180 {
		return fmt.Errorf("%w: longitude must be between -180 and 180 (got %f)", ErrInvalidCoordinates, lon)
	}

	return nil
}

// CellAt returns the H3 index of the coordinates at the given resolution.
func CellAt(c Coordinates, res int) (string, error) {
	cell, err := h3.LatLngToCell(h3.NewLatLng(c.Lat(), c.Lon()), res)
	if err != nil {
		return "", fmt.Errorf("error converting to h3 cell at res %d: %w", res, err)
	}

	return cell.String(), nil
}
