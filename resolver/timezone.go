// Copyright 2026 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"fmt"

	"github.com/ringsaturn/tzf"
)

// DefaultTimezone is used when no timezone can be found.
const DefaultTimezone = "UTC"

// TimezoneLookup returns the IANA zones containing a point.
type TimezoneLookup interface {
	Lookup(lat, lon float64) ([]string, error)
}

// TimezoneLookupFunc adapts a function to TimezoneLookup.
type TimezoneLookupFunc func(lat, lon float64) ([]string, error)

// Lookup implements TimezoneLookup.
func (f TimezoneLookupFunc) Lookup(lat, lon float64) ([]string, error) { return f(lat, lon) }

// TZFLookup answers offline from the polygons embedded in tzf.
type TZFLookup struct {
	finder tzf.F
}

// NewTZFLookup loads the default tzf finder.
func NewTZFLookup() (*TZFLookup, error) {
	finder, err := tzf.NewDefaultFinder()
	if err != nil {
		return nil, fmt.Errorf("loading timezone finder: %w", err)
	}

	return &TZFLookup{finder: finder}, nil
}

// Lookup implements TimezoneLookup.
func (l *TZFLookup) Lookup(lat, lon float64) ([]string, error) {
	names, err := l.finder.GetTimezoneNames(lon, lat)
	if err != nil {
		return nil, fmt.Errorf("looking up timezone at %f,%f: %w", lat, lon, err)
	}

	return names, nil
}

// timezoneAt returns the first zone for the point, or DefaultTimezone when the
// lookup fails, panics or finds nothing.
func timezoneAt(lookup TimezoneLookup, lat, lon float64) (tz string, err error) {
	defer func() {
		if r := recover(); r != nil {
			tz, err = DefaultTimezone, fmt.Errorf("timezone lookup panicked: %v", r)
		}
	}()

	if lookup == nil {
		return DefaultTimezone, nil
	}

	names, err := lookup.Lookup(lat, lon)
	if err != nil {
		return DefaultTimezone, err
	}

	for _, n := range names {
		if n != "" {
			return n, nil
		}
	}

	return DefaultTimezone, nil
}
