package stats

import (
	"math"
	"strconv"
)

// Scalar is a float64 result value where NaN is first-class: it means
// "undefined at these inputs", not an error. It serializes to JSON
// null so reports stay machine-readable.
type Scalar float64

// NaN returns the undefined scalar.
func NaN() Scalar {
	return Scalar(math.NaN())
}

// IsNaN reports whether the scalar is undefined.
func (s Scalar) IsNaN() bool {
	return math.IsNaN(float64(s))
}

// MarshalJSON encodes NaN and infinities as null.
func (s Scalar) MarshalJSON() ([]byte, error) {
	f := float64(s)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, f, 'g', -1, 64), nil
}

// UnmarshalJSON decodes null back to NaN.
func (s *Scalar) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*s = NaN()
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	*s = Scalar(f)
	return nil
}
