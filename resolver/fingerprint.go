// Copyright 2026 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"crypto/md5" //nolint:gosec // content key, not a security boundary
	"encoding/hex"
	"slices"
	"strings"

	"github.com/eventloc/locator/utils/htmlutils"
)

const (
	clueSeparator     = "|"
	locationSeparator = "||"
	// ClueTextSeparator joins deduplicated clues into the text sent to the model.
	ClueTextSeparator = " | "
)

// Fingerprint returns the cache key of a query. Clue order, case and
// repetitions do not matter; the user location does.
func Fingerprint(clues []string, userLocation string) string {
	normalized := make([]string, 0, len(clues))

	for _, c := range clues {
		if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
			normalized = append(normalized, c)
		}
	}

	slices.Sort(normalized)
	normalized = slices.Compact(normalized)

	key := strings.Join(normalized, clueSeparator)
	if userLocation != "" {
		key += locationSeparator + userLocation
	}

	sum := md5.Sum([]byte(key)) //nolint:gosec

	return hex.EncodeToString(sum[:])
}

// DedupeClues strips markup from every clue, drops empty ones and removes
// exact duplicates keeping the first occurrence.
func DedupeClues(clues []string) []string {
	seen := make(map[string]bool, len(clues))
	out := make([]string, 0, len(clues))

	for _, c := range clues {
		c = htmlutils.Text(c)
		if c == "" || seen[c] {
			continue
		}

		seen[c] = true

		out = append(out, c)
	}

	return out
}
