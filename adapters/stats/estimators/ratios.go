package estimators

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"gobias/domain/contingency"
	"gobias/domain/core"
	"gobias/domain/stats"
)

// RatioResult is the common output shape of the ratio estimators: a
// point estimate with a two-sided Wald interval on the log scale. The
// alpha and correction used are always echoed for provenance, even
// when the estimate is undefined.
type RatioResult struct {
	Estimate             stats.Scalar `json:"estimate"`
	CILow                stats.Scalar `json:"ci_low"`
	CIHigh               stats.Scalar `json:"ci_high"`
	Alpha                float64      `json:"alpha"`
	ContinuityCorrection *float64     `json:"continuity_correction"`
}

// zQuantile returns the standard-normal quantile for 1 - alpha/2.
func zQuantile(alpha float64) float64 {
	return distuv.UnitNormal.Quantile(1 - alpha/2)
}

func undefined(alpha float64, cc *float64) RatioResult {
	return RatioResult{
		Estimate:             stats.NaN(),
		CILow:                stats.NaN(),
		CIHigh:               stats.NaN(),
		Alpha:                alpha,
		ContinuityCorrection: cc,
	}
}

// applyCorrection implements the shared zero-cell policy: with any
// zero cell and no correction the ratio is undefined; with a
// correction, it is added uniformly to all four cells; otherwise the
// raw counts pass through.
func applyCorrection(t contingency.Table2x2, cc *float64) (a, b, c, d float64, ok bool) {
	if t.Min() == 0 {
		if cc == nil {
			return 0, 0, 0, 0, false
		}
		k := *cc
		return float64(t.A) + k, float64(t.B) + k, float64(t.C) + k, float64(t.D) + k, true
	}
	return float64(t.A), float64(t.B), float64(t.C), float64(t.D), true
}

// OddsRatio estimates OR = (a*d)/(b*c) with a log-scale Wald interval,
// SE = sqrt(1/a + 1/b + 1/c + 1/d).
func OddsRatio(t contingency.Table2x2, alpha float64, cc *float64) RatioResult {
	a, b, c, d, ok := applyCorrection(t, cc)
	if !ok || b == 0 || c == 0 {
		return undefined(alpha, cc)
	}

	or := (a * d) / (b * c)
	se := math.Sqrt(1/a + 1/b + 1/c + 1/d)
	z := zQuantile(alpha)

	return RatioResult{
		Estimate:             stats.Scalar(or),
		CILow:                stats.Scalar(math.Exp(math.Log(or) - z*se)),
		CIHigh:               stats.Scalar(math.Exp(math.Log(or) + z*se)),
		Alpha:                alpha,
		ContinuityCorrection: cc,
	}
}

// RelativeRisk estimates RR = [a/(a+b)] / [c/(c+d)] with the Katz
// log-scale SE = sqrt(1/a - 1/(a+b) + 1/c - 1/(c+d)).
func RelativeRisk(t contingency.Table2x2, alpha float64, cc *float64) RatioResult {
	a, b, c, d, ok := applyCorrection(t, cc)
	if !ok || a+b <= 0 || c+d <= 0 {
		return undefined(alpha, cc)
	}

	riskExp := a / (a + b)
	riskUnexp := c / (c + d)
	if riskUnexp <= 0 {
		return undefined(alpha, cc)
	}

	rr := riskExp / riskUnexp
	se := math.Sqrt(1/a - 1/(a+b) + 1/c - 1/(c+d))
	z := zQuantile(alpha)

	return RatioResult{
		Estimate:             stats.Scalar(rr),
		CILow:                stats.Scalar(math.Exp(math.Log(rr) - z*se)),
		CIHigh:               stats.Scalar(math.Exp(math.Log(rr) + z*se)),
		Alpha:                alpha,
		ContinuityCorrection: cc,
	}
}

// RateRatio estimates the incidence rate ratio for Poisson events with
// person-time denominators:
//
//	RR = (eventsExposed/timeExposed) / (eventsUnexposed/timeUnexposed)
//
// with SE(log RR) = sqrt(1/e1 + 1/e0) on the (possibly corrected)
// event counts. Non-positive person-time or negative event counts are
// fatal input errors, not NaN results.
func RateRatio(eventsExposed int, timeExposed float64, eventsUnexposed int, timeUnexposed float64, alpha float64, cc *float64) (RatioResult, error) {
	if timeExposed <= 0 || timeUnexposed <= 0 {
		return RatioResult{}, core.ErrNonPositiveTime
	}
	if eventsExposed < 0 || eventsUnexposed < 0 {
		return RatioResult{}, core.ErrNegativeEvents
	}

	e1 := float64(eventsExposed)
	e0 := float64(eventsUnexposed)
	if eventsExposed == 0 || eventsUnexposed == 0 {
		if cc == nil {
			return undefined(alpha, cc), nil
		}
		e1 += *cc
		e0 += *cc
	}

	r1 := e1 / timeExposed
	r0 := e0 / timeUnexposed
	if r0 <= 0 {
		return undefined(alpha, cc), nil
	}

	rr := r1 / r0
	se := math.Sqrt(1/e1 + 1/e0)
	z := zQuantile(alpha)

	return RatioResult{
		Estimate:             stats.Scalar(rr),
		CILow:                stats.Scalar(math.Exp(math.Log(rr) - z*se)),
		CIHigh:               stats.Scalar(math.Exp(math.Log(rr) + z*se)),
		Alpha:                alpha,
		ContinuityCorrection: cc,
	}, nil
}
