package testkit

import (
	"fmt"
	"math"
	"math/rand"

	"gobias/domain/table"
)

// CohortConfig parameterizes a synthetic cohort drawn from a logistic
// data-generating process with a known group effect on the log-odds.
type CohortConfig struct {
	Rows      int
	Seed      int64
	Intercept float64
	GroupCoef float64
	AgeCoef   float64
	// CountyBCoef shifts log-odds for the "B" level of the county
	// covariate, leaving "A" as the natural reference.
	CountyBCoef float64
}

// DefaultCohortConfig mirrors the canonical fixture: ~2000 rows with a
// +0.7 group effect.
func DefaultCohortConfig() CohortConfig {
	return CohortConfig{
		Rows:        2000,
		Seed:        42,
		Intercept:   -2.0,
		GroupCoef:   0.7,
		AgeCoef:     0.02,
		CountyBCoef: 0.3,
	}
}

// GenerateCohort builds a frame with id, group (0/1), outcome (0/1),
// age (numeric) and county (categorical A/B/C) columns. Deterministic
// for a fixed seed.
func GenerateCohort(cfg CohortConfig) (*table.Frame, error) {
	rng := rand.New(rand.NewSource(cfg.Seed))

	f, err := table.NewFrame([]string{"id", "group", "outcome", "age", "county"})
	if err != nil {
		return nil, err
	}

	counties := []string{"A", "B", "C"}
	for i := 0; i < cfg.Rows; i++ {
		group := float64(rng.Intn(2))
		age := 40 + 10*rng.NormFloat64()

		county := counties[2]
		switch r := rng.Float64(); {
		case r < 0.4:
			county = counties[0]
		case r < 0.7:
			county = counties[1]
		}

		lin := cfg.Intercept + cfg.GroupCoef*group + cfg.AgeCoef*age
		if county == "B" {
			lin += cfg.CountyBCoef
		}
		p := 1 / (1 + math.Exp(-lin))
		outcome := 0.0
		if rng.Float64() < p {
			outcome = 1
		}

		row := []table.Value{
			table.String(fmt.Sprintf("id-%05d", i)),
			table.Numeric(group),
			table.Numeric(outcome),
			table.Numeric(age),
			table.String(county),
		}
		if err := f.AppendRow(row); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// GenerateSeparable builds a frame where the group column perfectly
// predicts the outcome, so unregularized logistic estimation diverges.
func GenerateSeparable(rows int) (*table.Frame, error) {
	f, err := table.NewFrame([]string{"id", "group", "outcome"})
	if err != nil {
		return nil, err
	}
	for i := 0; i < rows; i++ {
		g := float64(i % 2)
		row := []table.Value{
			table.String(fmt.Sprintf("id-%05d", i)),
			table.Numeric(g),
			table.Numeric(g),
		}
		if err := f.AppendRow(row); err != nil {
			return nil, err
		}
	}
	return f, nil
}
