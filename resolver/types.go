// Copyright 2026 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

// Package resolver turns free-text location clues about an event into a
// geocoded location with a confidence score and a timezone.
package resolver

import (
	"strings"
	"time"

	"github.com/eventloc/locator/spatial"
)

// Query is the input of a resolution.
type Query struct {
	Clues           []string       `json:"clues"`
	UserLocation    string         `json:"user_location,omitempty"`    // "City, ST"
	UserCoordinates *spatial.Point `json:"user_coordinates,omitempty"` // lat/lng
}

// Tier identifies which evidence produced a resolution.
type Tier string

const (
	TierVerifiedAddress Tier = "verified_address"
	TierAddress         Tier = "address"
	TierNotes           Tier = "notes"
	TierUserCoordinates Tier = "user_coordinates"
)

// Confidence returns the fixed confidence assigned to the tier.
func (t Tier) Confidence() float64 {
	switch t {
	case TierVerifiedAddress:
		return 0.8
	case TierAddress:
		return 0.5
	case TierNotes:
		return 0.4
	case TierUserCoordinates:
		return 0.3
	default:
		return 0
	}
}

// ResolvedLocation is the result of a resolution. It is what the cache stores.
type ResolvedLocation struct {
	Address       string              `json:"address"`
	Coordinates   spatial.Coordinates `json:"coordinates"` // [lon, lat]
	Confidence    float64             `json:"confidence"`
	Timezone      string              `json:"timezone"`
	LocationNotes string              `json:"location_notes,omitempty"`
	Tier          Tier                `json:"tier"`
	H3Cell        string              `json:"h3_cell,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

// AddressComponents are the parts of a geocoder answer used to build a clean address.
type AddressComponents struct {
	StreetNumber string `json:"street_number,omitempty"`
	Street       string `json:"street,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	Zip          string `json:"zip,omitempty"`
}

// Format joins the present components as "number street, city, state, zip".
// Street number and street share a segment.
func (a AddressComponents) Format() string {
	var parts []string

	if line := strings.TrimSpace(a.StreetNumber + " " + a.Street); line != "" {
		parts = append(parts, line)
	}

	for _, p := range []string{a.City, a.State, a.Zip} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}

	return strings.Join(parts, ", ")
}

// IsZero reports whether no component is set.
func (a AddressComponents) IsZero() bool {
	return a == AddressComponents{}
}
