// Copyright 2026 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"math"
	"strings"

	"github.com/eventloc/locator/resolver/utils"
)

// Similarity scores how alike two address strings are, from 0 to 1.
type Similarity interface {
	Similarity(a, b string) float64
}

// SimilarityFunc adapts a function to Similarity.
type SimilarityFunc func(a, b string) float64

// Similarity implements Similarity.
func (f SimilarityFunc) Similarity(a, b string) float64 { return f(a, b) }

// JaccardSimilarity compares the sets of lower-cased words of both strings:
// |A ∩ B| / |A ∪ B|. Order and repetitions are ignored.
type JaccardSimilarity struct{}

// Similarity implements Similarity.
func (JaccardSimilarity) Similarity(a, b string) float64 {
	setA, setB := wordSet(a), wordSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 0
	}

	intersection := 0

	for w := range setA {
		if setB[w] {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection

	return float64(intersection) / float64(union)
}

// wordSet splits on whitespace and strips surrounding punctuation so "Ave,"
// and "Ave" are the same word.
func wordSet(s string) map[string]bool {
	set := make(map[string]bool)

	for _, w := range strings.Fields(strings.ToLower(s)) {
		if w = strings.Trim(w, ",.;:()\"'"); w != "" {
			set[w] = true
		}
	}

	return set
}

// CosineSimilarity compares accent-folded bag-of-words vectors. Unlike
// JaccardSimilarity it weighs repeated words.
type CosineSimilarity struct{}

// Similarity implements Similarity.
func (CosineSimilarity) Similarity(a, b string) float64 {
	return cosineSimilarity(vectorize(a), vectorize(b))
}

// vectorize converts a given text into a bag-of-words frequency map (vector).
func vectorize(text string) map[string]int {
	vector := make(map[string]int)

	for _, word := range utils.Words(text) {
		vector[word]++
	}

	return vector
}

// cosineSimilarity calculates the cosine similarity between two word vectors (frequency maps).
func cosineSimilarity(v1, v2 map[string]int) float64 {
	dotProduct := 0

	for k, v := range v1 {
		if v2[k] > 0 {
			dotProduct += v * v2[k]
		}
	}

	mag1 := 0
	for _, v := range v1 {
		mag1 += v * v
	}

	mag2 := 0
	for _, v := range v2 {
		mag2 += v * v
	}

	if mag1 == 0 || mag2 == 0 {
		return 0
	}

	return float64(dotProduct) / (math.Sqrt(float64(mag1)) * math.Sqrt(float64(mag2)))
}

// SimilarityByName returns the strategy registered under name: "jaccard" or "cosine".
func SimilarityByName(name string) (Similarity, bool) {
	switch strings.ToLower(name) {
	case "", "jaccard":
		return JaccardSimilarity{}, true
	case "cosine":
		return CosineSimilarity{}, true
	default:
		return nil, false
	}
}
