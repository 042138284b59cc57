package core

import (
	"math"
)

// Confidence is a detection confidence constrained to [0.0, 1.0].
// Construct through NewConfidence (rejecting) or ClampConfidence (coercing);
// a zero Confidence is valid and means "no confidence".
type Confidence float64

// NewConfidence validates v and returns it as a Confidence. NaN and
// out-of-range values are rejected with ErrConfidenceRange.
func NewConfidence(v float64) (Confidence, error) {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return 0, &ConfidenceRangeError{Value: v}
	}
	return Confidence(v), nil
}

// ClampConfidence coerces v into [0.0, 1.0]. NaN clamps to zero. This is the
// documented lossy variant for derived scores and producer-supplied values.
func ClampConfidence(v float64) Confidence {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return Confidence(v)
}

// Float64 returns the confidence as a plain float64.
func (c Confidence) Float64() float64 { return float64(c) }

// Valid reports whether the confidence is in range and not NaN. Stored
// confidences failing this check indicate state corruption.
func (c Confidence) Valid() bool {
	f := float64(c)
	return !math.IsNaN(f) && f >= 0 && f <= 1
}
