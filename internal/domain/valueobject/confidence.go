package valueobject

import "fmt"

// Confidence is a [0,1] score expressing classification or strategy
// reliability.
type Confidence float64

// NewConfidence creates a new Confidence with range validation.
func NewConfidence(value float64) (Confidence, error) {
	if value < 0 || value > 1 {
		return 0, fmt.Errorf("confidence must be in [0,1], got %f", value)
	}
	return Confidence(value), nil
}

// ClampConfidence clamps an arbitrary score into the valid [0,1] range.
func ClampConfidence(value float64) Confidence {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return Confidence(value)
}

// Float returns the underlying float value.
func (c Confidence) Float() float64 {
	return float64(c)
}

// Meets returns true if the confidence satisfies the given threshold.
func (c Confidence) Meets(threshold float64) bool {
	return float64(c) >= threshold
}
