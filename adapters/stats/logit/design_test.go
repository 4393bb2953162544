package logit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gobias/domain/core"
	"gobias/domain/table"
)

func designFrame(t *testing.T) *table.Frame {
	t.Helper()
	f, err := table.NewFrame([]string{"outcome", "group", "age", "county"})
	require.NoError(t, err)
	rows := [][]table.Value{
		{table.Numeric(1), table.Numeric(1), table.Numeric(30), table.String("A")},
		{table.Numeric(0), table.Numeric(1), table.Numeric(40), table.String("A")},
		{table.Numeric(1), table.Numeric(1), table.Numeric(50), table.String("B")},
		{table.Numeric(0), table.Numeric(0), table.Numeric(35), table.String("B")},
		{table.Numeric(1), table.Numeric(0), table.Numeric(45), table.String("C")},
		{table.Numeric(0), table.Numeric(0), table.Numeric(55), table.String("C")},
	}
	for _, row := range rows {
		require.NoError(t, f.AppendRow(row))
	}
	return f
}

func TestBuildDesignColumnOrder(t *testing.T) {
	f := designFrame(t)

	d, err := BuildDesign(f, Options{
		OutcomeCol:   "outcome",
		GroupCol:     "group",
		Covariates:   []string{"age", "county"},
		DropMissing:  DropAny,
		AddIntercept: true,
	})
	require.NoError(t, err)

	// Group first, numerics next, one-hots with the first observed
	// level as reference, intercept last.
	assert.Equal(t, []string{"group", "age", "county_B", "county_C", "const"}, d.Terms)
	assert.Equal(t, []string{"age"}, d.Meta.NumericCovariates)
	assert.Equal(t, []string{"county"}, d.Meta.CategoricalCovariates)
	assert.Equal(t, 6, d.Meta.NUsed)
	assert.Equal(t, 0, d.Meta.NDropped)

	require.Len(t, d.X, 6)
	assert.Equal(t, []float64{1, 30, 0, 0, 1}, d.X[0])
	assert.Equal(t, []float64{0, 45, 0, 1, 1}, d.X[4])
	assert.Equal(t, []float64{1, 0, 1, 0, 1, 0}, d.Y)

	prof, ok := d.Meta.NumericProfiles["age"]
	require.True(t, ok)
	assert.Equal(t, 6, prof.N)
	assert.InDelta(t, 42.5, prof.Mean, 1e-9)
}

func TestBuildDesignNoIntercept(t *testing.T) {
	f := designFrame(t)

	d, err := BuildDesign(f, Options{
		OutcomeCol:  "outcome",
		GroupCol:    "group",
		DropMissing: DropAny,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"group"}, d.Terms)
}

func TestBuildDesignDropPolicies(t *testing.T) {
	f := designFrame(t)
	require.NoError(t, f.AppendRow([]table.Value{
		table.Numeric(1), table.Numeric(1), table.Missing(), table.String("A"),
	}))
	require.NoError(t, f.AppendRow([]table.Value{
		table.Missing(), table.Numeric(0), table.Numeric(60), table.String("B"),
	}))

	opts := Options{
		OutcomeCol:   "outcome",
		GroupCol:     "group",
		Covariates:   []string{"age", "county"},
		AddIntercept: true,
	}

	opts.DropMissing = DropAny
	d, err := BuildDesign(f, opts)
	require.NoError(t, err)
	assert.Equal(t, 8, d.Meta.NBefore)
	assert.Equal(t, 6, d.Meta.NUsed)
	for _, row := range d.X {
		for _, v := range row {
			assert.False(t, math.IsNaN(v))
		}
	}

	opts.DropMissing = DropOutcome
	d, err = BuildDesign(f, opts)
	require.NoError(t, err)
	assert.Equal(t, 7, d.Meta.NUsed)

	opts.DropMissing = DropCovariates
	d, err = BuildDesign(f, opts)
	require.NoError(t, err)
	assert.Equal(t, 7, d.Meta.NUsed)

	opts.DropMissing = DropNone
	d, err = BuildDesign(f, opts)
	require.NoError(t, err)
	assert.Equal(t, 8, d.Meta.NUsed)
	assert.True(t, math.IsNaN(d.X[6][1])) // missing age survives
}

func TestBuildDesignOneHotMissingPropagates(t *testing.T) {
	f := designFrame(t)
	require.NoError(t, f.AppendRow([]table.Value{
		table.Numeric(0), table.Numeric(1), table.Numeric(20), table.Missing(),
	}))

	d, err := BuildDesign(f, Options{
		OutcomeCol:  "outcome",
		GroupCol:    "group",
		Covariates:  []string{"county"},
		DropMissing: DropNone,
	})
	require.NoError(t, err)

	// Missing county is missing in every indicator, not its own level.
	assert.Equal(t, []string{"group", "county_B", "county_C"}, d.Terms)
	assert.True(t, math.IsNaN(d.X[6][1]))
	assert.True(t, math.IsNaN(d.X[6][2]))
}

func TestInferKindsCoercionShare(t *testing.T) {
	f, err := table.NewFrame([]string{"outcome", "group", "mostly", "mixed"})
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		mostly := table.String("7")
		if i == 9 {
			mostly = table.String("oops") // 9/10 coercible
		}
		mixed := table.String("7")
		if i >= 8 {
			mixed = table.String("oops") // 8/10 coercible
		}
		require.NoError(t, f.AppendRow([]table.Value{
			table.Numeric(float64(i % 2)), table.Numeric(float64(i % 2)), mostly, mixed,
		}))
	}

	d, err := BuildDesign(f, Options{
		OutcomeCol:  "outcome",
		GroupCol:    "group",
		Covariates:  []string{"mostly", "mixed"},
		DropMissing: DropNone,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"mostly"}, d.Meta.NumericCovariates)
	assert.Equal(t, []string{"mixed"}, d.Meta.CategoricalCovariates)
}

func TestBuildDesignForceOverridesInference(t *testing.T) {
	f := designFrame(t)

	d, err := BuildDesign(f, Options{
		OutcomeCol:       "outcome",
		GroupCol:         "group",
		Covariates:       []string{"age"},
		DropMissing:      DropAny,
		ForceCategorical: []string{"age"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"age"}, d.Meta.CategoricalCovariates)
	assert.Empty(t, d.Meta.NumericCovariates)
}

func TestBuildDesignErrors(t *testing.T) {
	f := designFrame(t)

	_, err := BuildDesign(f, Options{
		OutcomeCol:       "outcome",
		GroupCol:         "group",
		Covariates:       []string{"age"},
		DropMissing:      DropAny,
		ForceNumeric:     []string{"age"},
		ForceCategorical: []string{"age"},
	})
	assert.ErrorIs(t, err, core.ErrCovariateConflict)

	_, err = BuildDesign(f, Options{
		OutcomeCol:  "outcome",
		GroupCol:    "group",
		DropMissing: "sometimes",
	})
	assert.ErrorIs(t, err, core.ErrInvalidOption)

	_, err = BuildDesign(f, Options{
		OutcomeCol:  "outcome",
		GroupCol:    "group",
		Covariates:  []string{"nope"},
		DropMissing: DropAny,
	})
	assert.ErrorIs(t, err, core.ErrMissingColumn)

	_, err = BuildDesign(f, Options{
		OutcomeCol:  "nope",
		GroupCol:    "group",
		DropMissing: DropAny,
	})
	assert.ErrorIs(t, err, core.ErrMissingColumn)
}
