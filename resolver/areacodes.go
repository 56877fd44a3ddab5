// Copyright 2026 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"regexp"
	"sort"
	"sync"
)

// AreaCodeRegion describes where a North American area code is in use.
type AreaCodeRegion struct {
	Region string // e.g. "Washington, DC"
	State  string // two letter postal code
}

var (
	areaCodesMu sync.RWMutex
	areaCodes   = map[string]AreaCodeRegion{
		"202": {"Washington, DC", "DC"},
		"206": {"Seattle, WA", "WA"},
		"212": {"Manhattan, New York, NY", "NY"},
		"213": {"Los Angeles, CA", "CA"},
		"214": {"Dallas, TX", "TX"},
		"215": {"Philadelphia, PA", "PA"},
		"217": {"Springfield, IL", "IL"},
		"303": {"Denver, CO", "CO"},
		"305": {"Miami, FL", "FL"},
		"310": {"West Los Angeles, CA", "CA"},
		"312": {"Chicago, IL", "IL"},
		"313": {"Detroit, MI", "MI"},
		"404": {"Atlanta, GA", "GA"},
		"412": {"Pittsburgh, PA", "PA"},
		"415": {"San Francisco, CA", "CA"},
		"417": {"Springfield, MO", "MO"},
		"503": {"Portland, OR", "OR"},
		"504": {"New Orleans, LA", "LA"},
		"512": {"Austin, TX", "TX"},
		"602": {"Phoenix, AZ", "AZ"},
		"612": {"Minneapolis, MN", "MN"},
		"615": {"Nashville, TN", "TN"},
		"617": {"Boston, MA", "MA"},
		"702": {"Las Vegas, NV", "NV"},
		"713": {"Houston, TX", "TX"},
		"718": {"Brooklyn / Queens / Bronx, New York, NY", "NY"},
		"801": {"Salt Lake City, UT", "UT"},
		"808": {"Hawaii", "HI"},
		"813": {"Tampa, FL", "FL"},
		"816": {"Kansas City, MO", "MO"},
		"832": {"Houston, TX", "TX"},
		"901": {"Memphis, TN", "TN"},
		"907": {"Alaska", "AK"},
		"919": {"Raleigh, NC", "NC"},
	}
)

// RegisterAreaCode adds or replaces an entry of the area code table.
func RegisterAreaCode(code string, region AreaCodeRegion) {
	areaCodesMu.Lock()
	defer areaCodesMu.Unlock()

	areaCodes[code] = region
}

// LookupAreaCode returns the region of a three digit area code.
func LookupAreaCode(code string) (AreaCodeRegion, bool) {
	areaCodesMu.RLock()
	defer areaCodesMu.RUnlock()

	r, ok := areaCodes[code]

	return r, ok
}

// (212) 555-0100, 212-555-0100, 212.555.0100, +1 212 555 0100
var phoneRegex = regexp.MustCompile(`(?:\+?1[\s.-]?)?\(?\b([2-9]\d{2})\)?[\s.-]?\d{3}[\s.-]?\d{4}\b`)

// AreaCodeHint is a known area code found in clue text.
type AreaCodeHint struct {
	Code string
	AreaCodeRegion
}

// DetectAreaCodes finds phone numbers in text and returns the known regions
// of their area codes, sorted by code.
func DetectAreaCodes(text string) []AreaCodeHint {
	seen := make(map[string]bool)

	var hints []AreaCodeHint

	for _, m := range phoneRegex.FindAllStringSubmatch(text, -1) {
		code := m[1]
		if seen[code] {
			continue
		}

		seen[code] = true

		if region, ok := LookupAreaCode(code); ok {
			hints = append(hints, AreaCodeHint{Code: code, AreaCodeRegion: region})
		}
	}

	sort.Slice(hints, func(i, j int) bool { return hints[i].Code < hints[j].Code })

	return hints
}
