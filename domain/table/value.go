package table

import (
	"math"
	"strconv"
	"strings"
)

// ValueType defines the storage type for cell values
type ValueType string

const (
	TypeNumeric ValueType = "numeric"
	TypeString  ValueType = "string"
	TypeBoolean ValueType = "boolean"
	TypeMissing ValueType = "missing"
)

// Value is a typed table cell. Missing is an explicit state rather than
// a sentinel inside one of the payload fields.
type Value struct {
	Type ValueType `json:"type"`
	Num  float64   `json:"num,omitempty"`
	Str  string    `json:"str,omitempty"`
	Bool bool      `json:"bool,omitempty"`
}

// Numeric creates a numeric value
func Numeric(n float64) Value {
	if math.IsNaN(n) {
		return Missing()
	}
	return Value{Type: TypeNumeric, Num: n}
}

// String creates a string value; empty strings are treated as missing
func String(s string) Value {
	if strings.TrimSpace(s) == "" {
		return Missing()
	}
	return Value{Type: TypeString, Str: s}
}

// Boolean creates a boolean value
func Boolean(b bool) Value {
	return Value{Type: TypeBoolean, Bool: b}
}

// Missing creates a missing value
func Missing() Value {
	return Value{Type: TypeMissing}
}

// IsMissing reports whether the cell carries no usable value.
func (v Value) IsMissing() bool {
	return v.Type == TypeMissing
}

// AsNumeric coerces the value to a float64. Booleans map to 0/1 and
// strings are parsed after trimming. The second return is false when
// the value is missing or not coercible.
func (v Value) AsNumeric() (float64, bool) {
	switch v.Type {
	case TypeNumeric:
		return v.Num, true
	case TypeBoolean:
		if v.Bool {
			return 1, true
		}
		return 0, true
	case TypeString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return math.NaN(), false
		}
		return f, true
	}
	return math.NaN(), false
}

// Label returns the categorical label for the value. Numerics format
// without trailing zeros so that 3 and 3.0 land in the same category.
func (v Value) Label() string {
	switch v.Type {
	case TypeString:
		return v.Str
	case TypeNumeric:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case TypeBoolean:
		return strconv.FormatBool(v.Bool)
	}
	return ""
}

// Parse coerces a raw cell string into a typed Value: numeric when it
// parses as a float, otherwise a string; blank cells are missing.
func Parse(raw string) Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Missing()
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return Numeric(f)
	}
	return Value{Type: TypeString, Str: s}
}
