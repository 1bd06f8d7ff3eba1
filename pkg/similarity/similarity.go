// Package similarity provides the vector and string distance primitives used
// by tag matching and memory deduplication.
package similarity

import (
	"math"

	"github.com/agnivade/levenshtein"
	"github.com/m-mizutani/goerr/v2"
)

// ErrDimensionMismatch is returned when two vectors of different length are compared
var ErrDimensionMismatch = goerr.New("vector dimension mismatch")

// Cosine returns the cosine similarity of a and b in [-1, 1]. A zero-magnitude
// vector yields 0.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, goerr.Wrap(ErrDimensionMismatch, "cannot compare vectors",
			goerr.V("len_a", len(a)),
			goerr.V("len_b", len(b)),
		)
	}

	var dot, normA, normB float64
	for i := range a {
		ai, bi := float64(a[i]), float64(b[i])
		dot += ai * bi
		normA += ai * ai
		normB += bi * bi
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0, nil
	}

	// clamp rounding noise
	return math.Max(-1, math.Min(1, dot/denom)), nil
}

// Levenshtein returns the edit distance between a and b, counted in runes.
// Comparison is case-sensitive.
func Levenshtein(a, b string) int {
	return levenshtein.ComputeDistance(a, b)
}
