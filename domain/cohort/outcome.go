package cohort

import (
	"gobias/domain/core"
	"gobias/domain/table"
)

// ThresholdOp enumerates numeric comparison operators for threshold
// outcomes.
type ThresholdOp string

const (
	ThresholdGE ThresholdOp = "ge"
	ThresholdGT ThresholdOp = "gt"
	ThresholdLE ThresholdOp = "le"
	ThresholdLT ThresholdOp = "lt"
	ThresholdEQ ThresholdOp = "eq"
	ThresholdNE ThresholdOp = "ne"
)

// OutcomeRule derives a 0/1 outcome column from a source column, either
// by categorical match (Positive set) or by numeric threshold
// (Threshold and Op set). Exactly one mode must be configured.
type OutcomeRule struct {
	Col       string      `json:"col" yaml:"col"`
	Positive  string      `json:"positive,omitempty" yaml:"positive,omitempty"`
	Threshold *float64    `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	Op        ThresholdOp `json:"op,omitempty" yaml:"op,omitempty"`
}

// Apply evaluates the rule against a frame and returns the outcome
// column. Missing source values stay missing so that downstream drop
// policies see them.
func (r OutcomeRule) Apply(f *table.Frame) ([]table.Value, error) {
	col, err := f.Column(r.Col)
	if err != nil {
		return nil, core.NewMissingColumnError("outcome", r.Col)
	}

	categorical := r.Positive != ""
	numeric := r.Threshold != nil
	if categorical == numeric {
		return nil, core.NewInvalidOptionError("outcome rule", "set either positive or threshold+op")
	}

	out := make([]table.Value, len(col))
	for i, v := range col {
		if v.IsMissing() {
			out[i] = table.Missing()
			continue
		}
		if categorical {
			out[i] = indicator(v.Label() == r.Positive)
			continue
		}
		x, ok := v.AsNumeric()
		if !ok {
			out[i] = table.Missing()
			continue
		}
		hit, err := compare(x, *r.Threshold, r.Op)
		if err != nil {
			return nil, err
		}
		out[i] = indicator(hit)
	}
	return out, nil
}

func compare(x, thr float64, op ThresholdOp) (bool, error) {
	switch op {
	case ThresholdGE:
		return x >= thr, nil
	case ThresholdGT:
		return x > thr, nil
	case ThresholdLE:
		return x <= thr, nil
	case ThresholdLT:
		return x < thr, nil
	case ThresholdEQ:
		return x == thr, nil
	case ThresholdNE:
		return x != thr, nil
	default:
		return false, core.NewInvalidOptionError("threshold op", string(op))
	}
}

func indicator(b bool) table.Value {
	if b {
		return table.Numeric(1)
	}
	return table.Numeric(0)
}
