// Copyright 2026 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// NoAddress is the value the model uses to say that no address was found.
const NoAddress = "NO_ADDRESS"

// ExtractionSource tags which parser stage produced an Extraction.
type ExtractionSource string

const (
	SourceJSON    ExtractionSource = "json"
	SourceLabel   ExtractionSource = "label"
	SourcePattern ExtractionSource = "pattern"
)

// Extraction is the address extraction result.
type Extraction struct {
	Address       string           `json:"address"`
	LocationNotes string           `json:"locationNotes"`
	Confidence    float64          `json:"confidence"`
	Source        ExtractionSource `json:"-"`
}

// HasAddress reports whether the model found an address. The NO_ADDRESS
// sentinel counts as none.
func (e Extraction) HasAddress() bool {
	return isPresent(e.Address)
}

// HasNotes reports whether the model returned usable location notes.
func (e Extraction) HasNotes() bool {
	return isPresent(e.LocationNotes)
}

func isPresent(s string) bool {
	s = strings.TrimSpace(s)

	return s != "" && !strings.EqualFold(s, NoAddress)
}

// rawExtraction keeps every field raw so a wrongly typed value only loses
// that field, not the whole answer.
type rawExtraction struct {
	Address            json.RawMessage `json:"address"`
	LocationNotes      json.RawMessage `json:"locationNotes"`
	LocationNotesSnake json.RawMessage `json:"location_notes"`
	Confidence         json.RawMessage `json:"confidence"`
}

var (
	fenceRegex = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")
	labelRegex = regexp.MustCompile(`(?im)^\s*(?:ADDRESS|EXTRACTED LOCATION)\s*:\s*(.+?)\s*$`)
	// "<number> <street...>, <city>, <ST>[ zip]"
	addressRegex = regexp.MustCompile(`\b\d+[A-Za-z]?\s+[^,\n]+,\s*[A-Za-z][A-Za-z .'-]*,\s*[A-Z]{2}\b(?:\s+\d{5}(?:-\d{4})?)?`)
)

// ParseExtraction decodes a completion. It first tries a strict JSON decode;
// when that fails it looks for an "ADDRESS:" or "EXTRACTED LOCATION:" label
// line and then for an address shaped substring. If nothing matches it
// returns an *ExtractionError wrapping ErrUnparseableExtraction.
func ParseExtraction(content string) (Extraction, error) {
	if ext, ok := parseStrict(content); ok {
		return ext, nil
	}

	if ext, ok := parseLenient(content); ok {
		return ext, nil
	}

	return Extraction{}, &ExtractionError{Content: content, Err: ErrUnparseableExtraction}
}

func parseStrict(content string) (Extraction, bool) {
	body := strings.TrimSpace(content)
	if m := fenceRegex.FindStringSubmatch(body); m != nil {
		body = m[1]
	}

	if !strings.HasPrefix(body, "{") {
		return Extraction{}, false
	}

	var raw rawExtraction
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return Extraction{}, false
	}

	ext := Extraction{
		Address:       parseText(raw.Address),
		LocationNotes: parseText(raw.LocationNotes),
		Confidence:    parseConfidence(raw.Confidence),
		Source:        SourceJSON,
	}

	if ext.LocationNotes == "" {
		ext.LocationNotes = parseText(raw.LocationNotesSnake)
	}

	return ext, true
}

func parseLenient(content string) (Extraction, bool) {
	if m := labelRegex.FindStringSubmatch(content); m != nil {
		return Extraction{Address: strings.Trim(m[1], `"'`), Source: SourceLabel}, true
	}

	if m := addressRegex.FindString(content); m != "" {
		return Extraction{Address: strings.TrimSpace(m), Source: SourcePattern}, true
	}

	return Extraction{}, false
}

// parseText accepts a string or a number. Anything else reads as empty.
func parseText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}

	return ""
}

// parseConfidence accepts a number or a numeric string and clamps it to [0, 1].
func parseConfidence(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0
		}

		if f, err = strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
			return 0
		}
	}

	return min(max(f, 0), 1)
}
