package facerec

import (
	"encoding/json"
	"fmt"
	"math"
)

// EncodingSize is the dimensionality of the dlib-style face descriptor the
// engine emits.
const EncodingSize = 128

// DefaultTolerance is the engine's default distance criterion: two encodings
// closer than this are considered the same person.
const DefaultTolerance = 0.6

// Encoding is a fixed-length face descriptor.
type Encoding []float64

// ParseEncoding decodes a JSON-serialized vector as stored in the students
// table and validates its shape.
func ParseEncoding(raw string) (Encoding, error) {
	var enc Encoding
	if err := json.Unmarshal([]byte(raw), &enc); err != nil {
		return nil, fmt.Errorf("decode face encoding: %w", err)
	}
	if len(enc) != EncodingSize {
		return nil, fmt.Errorf("face encoding has %d components, want %d", len(enc), EncodingSize)
	}
	return enc, nil
}

// Distance returns the Euclidean distance between two encodings.
func Distance(a, b Encoding) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// CompareFaces reports, per known encoding, whether the probe lies within
// tolerance of it.
func CompareFaces(known []Encoding, probe Encoding, tolerance float64) []bool {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	matches := make([]bool, len(known))
	for i, enc := range known {
		matches[i] = Distance(enc, probe) <= tolerance
	}
	return matches
}

// FirstMatch returns the index of the first known encoding (in slice order)
// within tolerance of the probe, or -1. The first entry wins even when a
// later one is closer; attendance results must stay reproducible across runs
// with the same roster order.
func FirstMatch(known []Encoding, probe Encoding, tolerance float64) int {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	for i, enc := range known {
		if Distance(enc, probe) <= tolerance {
			return i
		}
	}
	return -1
}
