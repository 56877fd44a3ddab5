// Copyright 2026 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"context"

	"github.com/eventloc/locator/spatial"
)

// GeocodingResult represents a geocoding result from any provider.
type GeocodingResult struct {
	Coordinates      spatial.Coordinates
	FormattedAddress string // clean address built from Components when possible
	Components       AddressComponents
	LocationType     string // ROOFTOP, RANGE_INTERPOLATED, GEOMETRIC_CENTER, APPROXIMATE
	PlaceID          string
	IsPartialMatch   bool
	Provider         string
}

// Geocoder converts between address text and coordinates. Only the most
// relevant match is returned.
type Geocoder interface {
	Geocode(ctx context.Context, query, contextText string) (*GeocodingResult, error)
	Reverse(ctx context.Context, coords spatial.Coordinates) (*GeocodingResult, error)
}
