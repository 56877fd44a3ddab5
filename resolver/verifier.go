// Copyright 2026 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"context"

	"go.uber.org/zap"

	"github.com/eventloc/locator/logging"
	"github.com/eventloc/locator/spatial"
)

// ReverseVerifier checks a geocoded address by geocoding its coordinates back.
// It never fails: any error counts as an unverified address.
type ReverseVerifier struct {
	geocoder   Geocoder
	similarity Similarity
	threshold  float64
	logger     *zap.Logger
}

// NewReverseVerifier creates a verifier. A nil similarity means JaccardSimilarity.
func NewReverseVerifier(geocoder Geocoder, similarity Similarity, threshold float64, logger *zap.Logger) *ReverseVerifier {
	if similarity == nil {
		similarity = JaccardSimilarity{}
	}

	return &ReverseVerifier{
		geocoder:   geocoder,
		similarity: similarity,
		threshold:  threshold,
		logger:     logging.OrNop(logger).Named("verifier"),
	}
}

// Verify reports whether the address found at coords is similar enough to expected.
func (v *ReverseVerifier) Verify(ctx context.Context, coords spatial.Coordinates, expected string) bool {
	res, err := v.geocoder.Reverse(ctx, coords)
	if err != nil {
		v.logger.Debug("reverse geocoding failed", zap.Error(err))

		return false
	}

	score := v.similarity.Similarity(expected, res.FormattedAddress)

	v.logger.Debug("reverse geocoding compared",
		zap.String("expected", expected),
		zap.String("reverse", res.FormattedAddress),
		zap.Float64("similarity", score))

	return score > v.threshold
}
