package cohort

import (
	"fmt"

	"gobias/domain/core"
	"gobias/domain/table"
)

// Spec names the identity, group and outcome columns of a cohort table.
type Spec struct {
	IDCol      string `json:"id_col" yaml:"id_col"`
	GroupCol   string `json:"group_col" yaml:"group_col"`
	OutcomeCol string `json:"outcome_col" yaml:"outcome_col"`
}

// DefaultSpec returns the conventional cohort column names.
func DefaultSpec() Spec {
	return Spec{IDCol: "id", GroupCol: "group", OutcomeCol: "outcome"}
}

// BuildInput carries the caller-side choices for cohort assembly.
type BuildInput struct {
	IDs       []string // optional: restrict to these IDs
	Exposed   string
	Unexposed string
	Rule      OutcomeRule
	KeepCols  []string // covariates and other columns carried through
}

// Build assembles a cohort frame with the spec's id, group and outcome
// columns plus any keep-columns, restricted to the two compared groups.
// Both group values must be present in the result.
func Build(demo *table.Frame, spec Spec, in BuildInput) (*table.Frame, error) {
	if !demo.HasColumn(spec.IDCol) {
		return nil, core.NewMissingColumnError("id", spec.IDCol)
	}
	groupCol, err := demo.Column(spec.GroupCol)
	if err != nil {
		return nil, core.NewMissingColumnError("group", spec.GroupCol)
	}

	work := demo
	if len(in.IDs) > 0 {
		wanted := make(map[string]struct{}, len(in.IDs))
		for _, id := range in.IDs {
			wanted[id] = struct{}{}
		}
		idCol, _ := demo.Column(spec.IDCol)
		var keep []int
		for i, v := range idCol {
			if _, ok := wanted[v.Label()]; ok {
				keep = append(keep, i)
			}
		}
		work = demo.Select(keep)
		groupCol, _ = work.Column(spec.GroupCol)
	}

	outcome, err := in.Rule.Apply(work)
	if err != nil {
		return nil, err
	}

	cols := []string{spec.IDCol, spec.GroupCol, spec.OutcomeCol}
	for _, c := range dedupe(in.KeepCols) {
		if c == spec.IDCol || c == spec.GroupCol || c == spec.OutcomeCol {
			continue
		}
		if !work.HasColumn(c) {
			return nil, core.NewMissingColumnError("keep", c)
		}
		cols = append(cols, c)
	}

	out, err := table.NewFrame(cols)
	if err != nil {
		return nil, err
	}
	idCol, _ := work.Column(spec.IDCol)
	for i := 0; i < work.Len(); i++ {
		g := groupCol[i]
		if g.IsMissing() {
			continue
		}
		label := g.Label()
		if label != in.Exposed && label != in.Unexposed {
			continue
		}
		row := []table.Value{idCol[i], g, outcome[i]}
		for _, c := range cols[3:] {
			row = append(row, work.Value(c, i))
		}
		if err := out.AppendRow(row); err != nil {
			return nil, err
		}
	}

	if out.Len() == 0 {
		return nil, fmt.Errorf("%w: no rows left after selecting groups [%s, %s]",
			core.ErrEmptyCohort, in.Exposed, in.Unexposed)
	}
	if err := requireGroups(out, spec.GroupCol, in.Exposed, in.Unexposed); err != nil {
		return nil, err
	}
	return out, nil
}

func requireGroups(cohort *table.Frame, groupCol, exposed, unexposed string) error {
	col, err := cohort.Column(groupCol)
	if err != nil {
		return err
	}
	present := make(map[string]bool, 2)
	for _, v := range col {
		if !v.IsMissing() {
			present[v.Label()] = true
		}
	}
	for _, g := range []string{exposed, unexposed} {
		if !present[g] {
			return fmt.Errorf("%w: %q", core.ErrGroupAbsent, g)
		}
	}
	return nil
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	var out []string
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
