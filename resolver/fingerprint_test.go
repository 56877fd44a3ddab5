// Copyright 2026 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint(t *testing.T) {
	t.Run("order and case independent", func(t *testing.T) {
		assert.Equal(t, Fingerprint([]string{"B", "a"}, "X"), Fingerprint([]string{"a", "B"}, "X"))
	})

	t.Run("context sensitive", func(t *testing.T) {
		assert.NotEqual(t, Fingerprint([]string{"a"}, "X"), Fingerprint([]string{"a"}, "Y"))
		assert.NotEqual(t, Fingerprint([]string{"a"}, ""), Fingerprint([]string{"a"}, "X"))
	})

	t.Run("whitespace and empty clues ignored", func(t *testing.T) {
		assert.Equal(t,
			Fingerprint([]string{"  Central Park ", "", "Fountain"}, ""),
			Fingerprint([]string{"fountain", "central park"}, ""))
	})

	t.Run("repeated clues collapse", func(t *testing.T) {
		assert.Equal(t, Fingerprint([]string{"a"}, "X"), Fingerprint([]string{"a", "A"}, "X"))
		assert.Equal(t,
			Fingerprint([]string{"Fountain", "central park"}, ""),
			Fingerprint([]string{"fountain ", "Central Park", "FOUNTAIN", "central park"}, ""))
	})

	t.Run("hex md5", func(t *testing.T) {
		fp := Fingerprint([]string{"a"}, "")
		assert.Len(t, fp, 32)
		// md5("a")
		assert.Equal(t, "0cc175b9c0f1b6a831c399e269772661", fp)
	})

	t.Run("delimiter matters", func(t *testing.T) {
		assert.NotEqual(t, Fingerprint([]string{"a b"}, ""), Fingerprint([]string{"a", "b"}, ""))
	})
}

func TestDedupeClues(t *testing.T) {
	got := DedupeClues([]string{
		"Joe's Pizza",
		"",
		"  Joe's Pizza ",
		"<b>call 212-555-0100</b>",
		"call 212-555-0100",
		"   ",
		"joe's pizza",
	})

	assert.Equal(t, []string{"Joe's Pizza", "call 212-555-0100", "joe's pizza"}, got)
	assert.Empty(t, DedupeClues(nil))
}
