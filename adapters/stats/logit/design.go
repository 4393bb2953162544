package logit

import (
	"math"

	"gobias/domain/core"
	"gobias/domain/table"
	"gobias/internal/profiling"
)

// numericShare is the fraction of non-missing values that must coerce
// to numbers for an un-forced covariate to be treated as numeric.
const numericShare = 0.90

// interceptTerm is the column name of the constant term.
const interceptTerm = "const"

// DropPolicy governs missing-row removal after matrix assembly.
type DropPolicy string

const (
	DropAny        DropPolicy = "any"        // outcome or any feature missing
	DropOutcome    DropPolicy = "outcome"    // only outcome-missing rows
	DropCovariates DropPolicy = "covariates" // only feature-missing rows
	DropNone       DropPolicy = "none"       // keep everything
)

// ParseDropPolicy validates a drop-policy token.
func ParseDropPolicy(s string) (DropPolicy, error) {
	switch DropPolicy(s) {
	case DropAny, DropOutcome, DropCovariates, DropNone:
		return DropPolicy(s), nil
	}
	return "", core.NewInvalidOptionError("drop_missing", s)
}

// Options configures design-matrix construction.
type Options struct {
	OutcomeCol       string     `json:"outcome_col" yaml:"outcome_col"`
	GroupCol         string     `json:"group_col" yaml:"group_col"`
	Covariates       []string   `json:"covariates" yaml:"covariates"`
	DropMissing      DropPolicy `json:"drop_missing" yaml:"drop_missing"`
	AddIntercept     bool       `json:"add_intercept" yaml:"add_intercept"`
	ForceNumeric     []string   `json:"force_numeric,omitempty" yaml:"force_numeric,omitempty"`
	ForceCategorical []string   `json:"force_categorical,omitempty" yaml:"force_categorical,omitempty"`
}

// Meta records how the design matrix was assembled; it is required for
// audit trails.
type Meta struct {
	NBefore               int                          `json:"n_before"`
	NUsed                 int                          `json:"n_used"`
	NDropped              int                          `json:"n_dropped"`
	NumericCovariates     []string                     `json:"numeric_covariates"`
	CategoricalCovariates []string                     `json:"categorical_covariates"`
	Terms                 []string                     `json:"terms"`
	AddIntercept          bool                         `json:"add_intercept"`
	DropMissing           DropPolicy                   `json:"drop_missing"`
	NumericProfiles       map[string]profiling.Summary `json:"numeric_profiles,omitempty"`
}

// Design is a row-aligned numeric feature matrix plus its outcome
// column. NaN marks a missing cell; whether any survive depends on the
// drop policy. A Design is built fresh per fit and never reused.
type Design struct {
	Y     []float64
	X     [][]float64 // row-major, one slice per observation
	Terms []string
	Meta  Meta
}

// covariateKind is the two-variant tag produced by type inference and
// consumed uniformly by the encoding step.
type covariateKind int

const (
	kindNumeric covariateKind = iota
	kindCategorical
)

// BuildDesign assembles the feature matrix in column order: group
// indicator, numeric covariates, one-hot columns (reference coding,
// first observed level dropped), then the intercept if enabled. The
// drop policy is applied after assembly.
func BuildDesign(f *table.Frame, opts Options) (*Design, error) {
	if _, err := ParseDropPolicy(string(opts.DropMissing)); err != nil {
		return nil, err
	}
	if !f.HasColumn(opts.OutcomeCol) {
		return nil, core.NewMissingColumnError("outcome", opts.OutcomeCol)
	}
	if !f.HasColumn(opts.GroupCol) {
		return nil, core.NewMissingColumnError("group", opts.GroupCol)
	}
	for _, c := range opts.Covariates {
		if !f.HasColumn(c) {
			return nil, core.NewMissingColumnError("covariate", c)
		}
	}

	n := f.Len()
	y := numericColumn(f, opts.OutcomeCol)
	group := numericColumn(f, opts.GroupCol)

	kinds, err := inferKinds(f, opts)
	if err != nil {
		return nil, err
	}

	var numericCovs, catCovs []string
	for _, c := range opts.Covariates {
		if kinds[c] == kindNumeric {
			numericCovs = append(numericCovs, c)
		} else {
			catCovs = append(catCovs, c)
		}
	}

	terms := []string{opts.GroupCol}
	features := [][]float64{group}
	for _, c := range numericCovs {
		terms = append(terms, c)
		features = append(features, numericColumn(f, c))
	}
	for _, c := range catCovs {
		names, cols := encodeOneHot(f, c)
		terms = append(terms, names...)
		features = append(features, cols...)
	}
	if opts.AddIntercept {
		constant := make([]float64, n)
		for i := range constant {
			constant[i] = 1
		}
		terms = append(terms, interceptTerm)
		features = append(features, constant)
	}

	keep := applyDropPolicy(y, features, opts.DropMissing)

	design := &Design{
		Y:     make([]float64, 0, len(keep)),
		X:     make([][]float64, 0, len(keep)),
		Terms: terms,
	}
	for _, r := range keep {
		design.Y = append(design.Y, y[r])
		row := make([]float64, len(features))
		for j, col := range features {
			row[j] = col[r]
		}
		design.X = append(design.X, row)
	}

	design.Meta = Meta{
		NBefore:               n,
		NUsed:                 len(keep),
		NDropped:              n - len(keep),
		NumericCovariates:     numericCovs,
		CategoricalCovariates: catCovs,
		Terms:                 terms,
		AddIntercept:          opts.AddIntercept,
		DropMissing:           opts.DropMissing,
		NumericProfiles:       profileNumerics(design, numericCovs),
	}
	return design, nil
}

// inferKinds classifies each covariate as numeric or categorical.
// Forced assignments win; a covariate forced both ways is fatal. An
// un-forced column is numeric when it is already numeric-typed, or
// when at least 90% of its non-missing values coerce to numbers.
func inferKinds(f *table.Frame, opts Options) (map[string]covariateKind, error) {
	forceNum := toSet(opts.ForceNumeric)
	forceCat := toSet(opts.ForceCategorical)

	kinds := make(map[string]covariateKind, len(opts.Covariates))
	for _, c := range opts.Covariates {
		_, num := forceNum[c]
		_, cat := forceCat[c]
		if num && cat {
			return nil, core.NewCovariateConflictError(c)
		}
		if num {
			kinds[c] = kindNumeric
			continue
		}
		if cat {
			kinds[c] = kindCategorical
			continue
		}

		col, _ := f.Column(c)
		nonMissing, alreadyNumeric, coercible := 0, 0, 0
		for _, v := range col {
			if v.IsMissing() {
				continue
			}
			nonMissing++
			if v.Type == table.TypeNumeric {
				alreadyNumeric++
			}
			if _, ok := v.AsNumeric(); ok {
				coercible++
			}
		}
		switch {
		case nonMissing > 0 && alreadyNumeric == nonMissing:
			kinds[c] = kindNumeric
		case nonMissing > 0 && float64(coercible)/float64(nonMissing) >= numericShare:
			kinds[c] = kindNumeric
		default:
			kinds[c] = kindCategorical
		}
	}
	return kinds, nil
}

// encodeOneHot builds indicator columns for a categorical covariate
// with the first observed level as the reference (no column). Missing
// source cells stay missing across all indicators; they never get a
// level of their own.
func encodeOneHot(f *table.Frame, col string) ([]string, [][]float64) {
	values, _ := f.Column(col)

	var levels []string
	seen := make(map[string]struct{})
	for _, v := range values {
		if v.IsMissing() {
			continue
		}
		l := v.Label()
		if _, ok := seen[l]; !ok {
			seen[l] = struct{}{}
			levels = append(levels, l)
		}
	}
	if len(levels) <= 1 {
		return nil, nil
	}

	names := make([]string, 0, len(levels)-1)
	cols := make([][]float64, 0, len(levels)-1)
	for _, level := range levels[1:] {
		names = append(names, col+"_"+level)
		indicator := make([]float64, len(values))
		for i, v := range values {
			switch {
			case v.IsMissing():
				indicator[i] = math.NaN()
			case v.Label() == level:
				indicator[i] = 1
			default:
				indicator[i] = 0
			}
		}
		cols = append(cols, indicator)
	}
	return names, cols
}

func applyDropPolicy(y []float64, features [][]float64, policy DropPolicy) []int {
	keep := make([]int, 0, len(y))
	for i := range y {
		outcomeMissing := math.IsNaN(y[i])
		featureMissing := false
		for _, col := range features {
			if math.IsNaN(col[i]) {
				featureMissing = true
				break
			}
		}

		drop := false
		switch policy {
		case DropAny:
			drop = outcomeMissing || featureMissing
		case DropOutcome:
			drop = outcomeMissing
		case DropCovariates:
			drop = featureMissing
		case DropNone:
		}
		if !drop {
			keep = append(keep, i)
		}
	}
	return keep
}

func profileNumerics(d *Design, numericCovs []string) map[string]profiling.Summary {
	if len(numericCovs) == 0 || len(d.X) == 0 {
		return nil
	}
	index := make(map[string]int, len(d.Terms))
	for j, t := range d.Terms {
		index[t] = j
	}
	out := make(map[string]profiling.Summary, len(numericCovs))
	for _, c := range numericCovs {
		j := index[c]
		col := make([]float64, len(d.X))
		for i, row := range d.X {
			col[i] = row[j]
		}
		if s, err := profiling.Summarize(col); err == nil {
			out[c] = s
		}
	}
	return out
}

// numericColumn coerces a column to float64 with NaN for missing or
// non-coercible values.
func numericColumn(f *table.Frame, name string) []float64 {
	col, _ := f.Column(name)
	out := make([]float64, len(col))
	for i, v := range col {
		if x, ok := v.AsNumeric(); ok {
			out[i] = x
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

func toSet(in []string) map[string]struct{} {
	out := make(map[string]struct{}, len(in))
	for _, s := range in {
		out[s] = struct{}{}
	}
	return out
}
