package profiling

import (
	"math"

	"github.com/montanaflynn/stats"

	"gobias/domain/core"
)

// Summary captures the distribution of one numeric covariate on the
// rows a fit actually used. It rides along in design-matrix metadata
// for audit.
type Summary struct {
	N      int     `json:"n"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
}

// Summarize computes the summary over the finite values of data.
// An input with no finite values is an error.
func Summarize(data []float64) (Summary, error) {
	finite := make([]float64, 0, len(data))
	for _, v := range data {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return Summary{}, core.ErrEmptyCohort
	}

	mean, err := stats.Mean(finite)
	if err != nil {
		return Summary{}, err
	}
	stdDev, err := stats.StandardDeviation(finite)
	if err != nil {
		return Summary{}, err
	}
	min, err := stats.Min(finite)
	if err != nil {
		return Summary{}, err
	}
	max, err := stats.Max(finite)
	if err != nil {
		return Summary{}, err
	}
	median, err := stats.Median(finite)
	if err != nil {
		return Summary{}, err
	}

	return Summary{
		N:      len(finite),
		Mean:   mean,
		StdDev: stdDev,
		Min:    min,
		Max:    max,
		Median: median,
	}, nil
}
