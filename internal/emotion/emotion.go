// Package emotion converts raw classifier scores into a probability
// distribution over the closed emotion vocabulary.
package emotion

import (
	"fmt"
	"math"
	"sort"

	"github.com/oneiriclabs/reverie/internal/domain"
)

// temperature scales raw scores before exponentiation. Classifier scores
// live in [-1, 1]; the factor spreads them out so the dominant emotion
// clearly wins the distribution.
const temperature = 10

// Normalize applies a temperature softmax to a non-empty mapping of raw
// scores and rounds each probability to 4 decimal digits. The outputs are in
// [0, 1] and sum to 1 within floating-point tolerance.
func Normalize(scores map[string]float64) map[string]float64 {
	var total float64
	for _, v := range scores {
		total += math.Exp(v * temperature)
	}

	out := make(map[string]float64, len(scores))
	for label, v := range scores {
		out[label] = round4(math.Exp(v*temperature) / total)
	}
	return out
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// Dominant returns the label with the maximum probability. Ties break
// lexicographically so the result is deterministic regardless of map
// iteration order. Returns "" for an empty mapping.
func Dominant(probs map[string]float64) string {
	labels := make([]string, 0, len(probs))
	for label := range probs {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	var dominant string
	best := math.Inf(-1)
	for _, label := range labels {
		if probs[label] > best {
			best = probs[label]
			dominant = label
		}
	}
	return dominant
}

// ValidateScores enforces the classifier's schema: exactly the closed label
// set, with every value a real number in [-1, 1]. A structurally invalid
// response is a parse error, not silently-wrong data.
func ValidateScores(raw map[string]float64) error {
	if len(raw) != len(domain.EmotionLabels) {
		return fmt.Errorf("expected %d emotion labels, got %d", len(domain.EmotionLabels), len(raw))
	}
	for _, label := range domain.EmotionLabels {
		v, ok := raw[label]
		if !ok {
			return fmt.Errorf("missing emotion label %q", label)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("emotion %q has non-finite score", label)
		}
		if v < -1 || v > 1 {
			return fmt.Errorf("emotion %q score %v outside [-1, 1]", label, v)
		}
	}
	return nil
}
