package estimators

import (
	"gobias/domain/contingency"
)

// BiasMetrics bundles the 2x2-mode estimators into one result keyed by
// metric family, with the raw table counts retained for audit. The
// rate ratio is excluded: it needs person-time denominators that a
// 2x2 cohort does not carry.
type BiasMetrics struct {
	Table        contingency.Table2x2 `json:"table"`
	OddsRatio    RatioResult          `json:"odds_ratio"`
	RelativeRisk RatioResult          `json:"relative_risk"`
	ChiSquare    ChiSquareResult      `json:"chi_square"`
}

// Aggregate computes all 2x2 metrics for a table. It is a pure
// function of its inputs; repeated calls share no state.
func Aggregate(t contingency.Table2x2, alpha float64, cc *float64, yates bool) BiasMetrics {
	return BiasMetrics{
		Table:        t,
		OddsRatio:    OddsRatio(t, alpha, cc),
		RelativeRisk: RelativeRisk(t, alpha, cc),
		ChiSquare:    ChiSquare(t, yates),
	}
}
