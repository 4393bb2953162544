package app

import (
	"context"

	"gobias/adapters/stats/estimators"
	"gobias/adapters/stats/logit"
	"gobias/domain/cohort"
	"gobias/domain/contingency"
	"gobias/domain/core"
	"gobias/domain/table"
)

// Mode selects the analysis performed on a cohort. The two modes are
// mutually exclusive per invocation.
type Mode string

const (
	Mode2x2   Mode = "2x2"
	ModeLogit Mode = "logit"
)

// Request carries everything one analysis run needs. Zero values fall
// back to the conventional defaults (alpha 0.05, min cases 15,
// intercept on).
type Request struct {
	Mode Mode `json:"mode" yaml:"mode"`

	IDCol     string `json:"id_col" yaml:"id_col"`
	GroupCol  string `json:"group_col" yaml:"group_col"`
	Exposed   string `json:"exposed" yaml:"exposed"`
	Unexposed string `json:"unexposed" yaml:"unexposed"`

	Outcome cohort.OutcomeRule `json:"outcome" yaml:"outcome"`
	Filters []cohort.Filter    `json:"filters,omitempty" yaml:"filters,omitempty"`
	IDs     []string           `json:"ids,omitempty" yaml:"ids,omitempty"`

	Alpha                float64  `json:"alpha" yaml:"alpha"`
	MinCases             int      `json:"min_cases" yaml:"min_cases"`
	ContinuityCorrection *float64 `json:"continuity_correction" yaml:"continuity_correction"`
	Yates                bool     `json:"yates" yaml:"yates"`

	Covariates       []string `json:"covariates,omitempty" yaml:"covariates,omitempty"`
	ForceNumeric     []string `json:"force_numeric,omitempty" yaml:"force_numeric,omitempty"`
	ForceCategorical []string `json:"force_categorical,omitempty" yaml:"force_categorical,omitempty"`
	DropMissing      string   `json:"drop_missing" yaml:"drop_missing"`
	NoIntercept      bool     `json:"no_intercept" yaml:"no_intercept"`
	RobustSE         bool     `json:"robust_se" yaml:"robust_se"`
}

// Inputs echoes the resolved request back into the report so every
// number can be traced to the choices that produced it.
type Inputs struct {
	Mode                 Mode     `json:"mode"`
	IDCol                string   `json:"id_col"`
	GroupCol             string   `json:"group_col"`
	Exposed              string   `json:"exposed"`
	Unexposed            string   `json:"unexposed"`
	OutcomeCol           string   `json:"outcome_col"`
	Alpha                float64  `json:"alpha"`
	MinCases             int      `json:"min_cases"`
	ContinuityCorrection *float64 `json:"continuity_correction"`
	Yates                bool     `json:"yates"`
	NFiltered            int      `json:"n_filtered_rows"`
	NCohort              int      `json:"n_cohort_rows"`
	FilterCount          int      `json:"filter_count"`
	IDRestricted         bool     `json:"id_restricted"`
	DropMissing          string   `json:"drop_missing,omitempty"`
	RobustSE             bool     `json:"robust_se,omitempty"`
}

// Report is the output bundle of one analysis run. Exactly one of
// Metrics and Fit is set, matching the mode.
type Report struct {
	RunID   core.RunID              `json:"run_id"`
	Inputs  Inputs                  `json:"inputs"`
	Table   *contingency.Table2x2   `json:"table,omitempty"`
	Metrics *estimators.BiasMetrics `json:"metrics,omitempty"`
	Fit     *logit.FitResult        `json:"fit,omitempty"`
}

// AnalysisService runs a single bias analysis against an in-memory
// table. It holds no state; concurrent use needs no synchronization.
type AnalysisService struct{}

// NewAnalysisService creates an analysis service.
func NewAnalysisService() *AnalysisService {
	return &AnalysisService{}
}

const outcomeColName = "outcome"

// Run filters the table, assembles the cohort, and dispatches to the
// requested mode.
func (s *AnalysisService) Run(ctx context.Context, frame *table.Frame, req Request) (*Report, error) {
	req = withDefaults(req)
	if req.Mode != Mode2x2 && req.Mode != ModeLogit {
		return nil, core.NewInvalidOptionError("mode", string(req.Mode))
	}

	filtered, err := cohort.ApplyFilters(frame, req.Filters)
	if err != nil {
		return nil, err
	}
	if filtered.Len() < req.MinCases {
		return nil, core.ErrTooFewCases
	}

	spec := cohort.Spec{IDCol: req.IDCol, GroupCol: req.GroupCol, OutcomeCol: outcomeColName}
	keep := append([]string{req.Outcome.Col}, req.Covariates...)
	c, err := cohort.Build(filtered, spec, cohort.BuildInput{
		IDs:       req.IDs,
		Exposed:   req.Exposed,
		Unexposed: req.Unexposed,
		Rule:      req.Outcome,
		KeepCols:  keep,
	})
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := &Report{
		RunID:  core.NewRunID(),
		Inputs: echoInputs(req, filtered.Len(), c.Len()),
	}

	switch req.Mode {
	case Mode2x2:
		t, err := contingency.Build(c, spec.GroupCol, spec.OutcomeCol, req.Exposed, req.Unexposed, 1.0)
		if err != nil {
			return nil, err
		}
		metrics := estimators.Aggregate(t, req.Alpha, req.ContinuityCorrection, req.Yates)
		report.Table = &t
		report.Metrics = &metrics

	case ModeLogit:
		indicator, err := groupIndicator(c, spec.GroupCol, req.Exposed)
		if err != nil {
			return nil, err
		}
		withGroup, err := c.WithColumn("group_indicator", indicator)
		if err != nil {
			return nil, err
		}
		fit, err := logit.Fit(withGroup, logit.Options{
			OutcomeCol:       spec.OutcomeCol,
			GroupCol:         "group_indicator",
			Covariates:       req.Covariates,
			DropMissing:      logit.DropPolicy(req.DropMissing),
			AddIntercept:     !req.NoIntercept,
			ForceNumeric:     req.ForceNumeric,
			ForceCategorical: req.ForceCategorical,
		}, logit.FitOptions{RobustSE: req.RobustSE, Alpha: req.Alpha})
		if err != nil {
			return nil, err
		}
		report.Fit = fit
	}

	return report, nil
}

// groupIndicator encodes group membership as 1 for the exposed label
// and 0 for the unexposed one; anything else stays missing.
func groupIndicator(c *table.Frame, groupCol, exposed string) ([]table.Value, error) {
	col, err := c.Column(groupCol)
	if err != nil {
		return nil, err
	}
	out := make([]table.Value, len(col))
	for i, v := range col {
		switch {
		case v.IsMissing():
			out[i] = table.Missing()
		case v.Label() == exposed:
			out[i] = table.Numeric(1)
		default:
			out[i] = table.Numeric(0)
		}
	}
	return out, nil
}

func withDefaults(req Request) Request {
	if req.Mode == "" {
		req.Mode = Mode2x2
	}
	if req.IDCol == "" {
		req.IDCol = "id"
	}
	if req.GroupCol == "" {
		req.GroupCol = "group"
	}
	if req.Alpha == 0 {
		req.Alpha = 0.05
	}
	if req.MinCases == 0 {
		req.MinCases = 15
	}
	if req.DropMissing == "" {
		req.DropMissing = string(logit.DropAny)
	}
	return req
}

func echoInputs(req Request, nFiltered, nCohort int) Inputs {
	return Inputs{
		Mode:                 req.Mode,
		IDCol:                req.IDCol,
		GroupCol:             req.GroupCol,
		Exposed:              req.Exposed,
		Unexposed:            req.Unexposed,
		OutcomeCol:           req.Outcome.Col,
		Alpha:                req.Alpha,
		MinCases:             req.MinCases,
		ContinuityCorrection: req.ContinuityCorrection,
		Yates:                req.Yates,
		NFiltered:            nFiltered,
		NCohort:              nCohort,
		FilterCount:          len(req.Filters),
		IDRestricted:         len(req.IDs) > 0,
		DropMissing:          req.DropMissing,
		RobustSE:             req.RobustSE,
	}
}
