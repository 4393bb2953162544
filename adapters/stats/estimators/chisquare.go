package estimators

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"gobias/domain/contingency"
	"gobias/domain/stats"
)

// ChiSquareResult holds the Pearson independence test on a 2x2 table.
// Degrees of freedom is always 1.
type ChiSquareResult struct {
	Statistic stats.Scalar `json:"statistic"`
	PValue    stats.Scalar `json:"p_value"`
	DF        int          `json:"df"`
	Yates     bool         `json:"yates"`
}

// ChiSquare computes Pearson's chi-square statistic for independence
// on a 2x2 table. With yates enabled, 0.5 is subtracted from each
// cell's absolute discrepancy (floored at zero) before squaring. A
// degenerate table (any zero margin) yields NaN statistic and p-value.
func ChiSquare(t contingency.Table2x2, yates bool) ChiSquareResult {
	m := t.AsMatrix()
	total := float64(t.Total())
	rowTotals := [2]float64{float64(m[0][0] + m[0][1]), float64(m[1][0] + m[1][1])}
	colTotals := [2]float64{float64(m[0][0] + m[1][0]), float64(m[0][1] + m[1][1])}

	if total == 0 || rowTotals[0] == 0 || rowTotals[1] == 0 || colTotals[0] == 0 || colTotals[1] == 0 {
		return ChiSquareResult{Statistic: stats.NaN(), PValue: stats.NaN(), DF: 1, Yates: yates}
	}

	statistic := 0.0
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			expected := rowTotals[i] * colTotals[j] / total
			diff := math.Abs(float64(m[i][j]) - expected)
			if yates {
				diff = math.Max(0, diff-0.5)
			}
			statistic += diff * diff / expected
		}
	}

	chi := distuv.ChiSquared{K: 1}
	return ChiSquareResult{
		Statistic: stats.Scalar(statistic),
		PValue:    stats.Scalar(1 - chi.CDF(statistic)),
		DF:        1,
		Yates:     yates,
	}
}
