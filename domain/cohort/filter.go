package cohort

import (
	"fmt"

	"gobias/domain/core"
	"gobias/domain/table"
)

// FilterOp enumerates supported row-filter operators.
type FilterOp string

const (
	OpEq  FilterOp = "eq"
	OpNeq FilterOp = "neq"
	OpIn  FilterOp = "in"
)

// Filter selects rows where a column matches a predicate. The value is
// a scalar for eq/neq and a list for in.
type Filter struct {
	Col   string      `json:"col" yaml:"col"`
	Op    FilterOp    `json:"op" yaml:"op"`
	Value interface{} `json:"value" yaml:"value"`
}

// ApplyFilters returns the subset of rows matching every filter, in the
// original row order. Unknown columns and operators are fatal.
func ApplyFilters(f *table.Frame, filters []Filter) (*table.Frame, error) {
	out := f
	for _, flt := range filters {
		col, err := out.Column(flt.Col)
		if err != nil {
			return nil, core.NewMissingColumnError("filter", flt.Col)
		}

		var keep []int
		switch flt.Op {
		case OpEq:
			for i, v := range col {
				if matches(v, flt.Value) {
					keep = append(keep, i)
				}
			}
		case OpNeq:
			for i, v := range col {
				if !matches(v, flt.Value) {
					keep = append(keep, i)
				}
			}
		case OpIn:
			wanted, err := valueList(flt)
			if err != nil {
				return nil, err
			}
			for i, v := range col {
				for _, w := range wanted {
					if matches(v, w) {
						keep = append(keep, i)
						break
					}
				}
			}
		default:
			return nil, core.NewInvalidOptionError("filter op", string(flt.Op))
		}
		out = out.Select(keep)
	}
	return out, nil
}

// matches compares a cell to a filter operand. Numeric operands compare
// numerically when the cell coerces; everything else compares labels.
func matches(v table.Value, want interface{}) bool {
	if v.IsMissing() {
		return false
	}
	switch w := want.(type) {
	case float64:
		if n, ok := v.AsNumeric(); ok {
			return n == w
		}
		return false
	case int:
		if n, ok := v.AsNumeric(); ok {
			return n == float64(w)
		}
		return false
	case bool:
		return v.Label() == fmt.Sprintf("%t", w)
	case string:
		return v.Label() == w
	default:
		return v.Label() == fmt.Sprintf("%v", w)
	}
}

func valueList(flt Filter) ([]interface{}, error) {
	switch vs := flt.Value.(type) {
	case []interface{}:
		return vs, nil
	case []string:
		out := make([]interface{}, len(vs))
		for i, s := range vs {
			out[i] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: filter op 'in' requires a list value for %q", core.ErrInvalidOption, flt.Col)
	}
}
