package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gobias/domain/cohort"
	"gobias/domain/core"
	"gobias/domain/table"
)

func sweepTable(t *testing.T) *table.Frame {
	t.Helper()
	f, err := table.NewFrame([]string{"id", "ethnicity", "result"})
	require.NoError(t, err)

	groups := map[string][2]int{ // group -> [positives, negatives]
		"A": {12, 8},
		"B": {5, 15},
		"C": {9, 11},
	}
	for group, counts := range groups {
		for i := 0; i < counts[0]; i++ {
			require.NoError(t, f.AppendRow([]table.Value{
				table.String(group + "y" + string(rune('a'+i))),
				table.String(group), table.String("yes"),
			}))
		}
		for i := 0; i < counts[1]; i++ {
			require.NoError(t, f.AppendRow([]table.Value{
				table.String(group + "n" + string(rune('a'+i))),
				table.String(group), table.String("no"),
			}))
		}
	}
	return f
}

func TestSweepRunsAllPairsInOrder(t *testing.T) {
	svc := NewSweepService(NewAnalysisService())

	result, err := svc.Run(context.Background(), sweepTable(t), SweepRequest{
		Base: Request{
			Mode:     Mode2x2,
			GroupCol: "ethnicity",
			Outcome:  cohort.OutcomeRule{Col: "result", Positive: "yes"},
		},
		Pairs: []GroupPair{
			{Exposed: "A", Unexposed: "B"},
			{Exposed: "C", Unexposed: "B"},
		},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.SweepID)
	require.Len(t, result.Reports, 2)

	assert.Equal(t, "A", result.Reports[0].Inputs.Exposed)
	assert.Equal(t, "C", result.Reports[1].Inputs.Exposed)
	assert.NotEqual(t, result.Reports[0].RunID, result.Reports[1].RunID)
	for _, rep := range result.Reports {
		require.NotNil(t, rep.Table)
		assert.Equal(t, "B", rep.Inputs.Unexposed)
	}
}

func TestSweepRequiresPairs(t *testing.T) {
	svc := NewSweepService(NewAnalysisService())

	_, err := svc.Run(context.Background(), sweepTable(t), SweepRequest{
		Base: Request{Mode: Mode2x2, GroupCol: "ethnicity"},
	})
	assert.ErrorIs(t, err, core.ErrInvalidOption)
}

func TestSweepFailsFastOnBadPair(t *testing.T) {
	svc := NewSweepService(NewAnalysisService())

	_, err := svc.Run(context.Background(), sweepTable(t), SweepRequest{
		Base: Request{
			Mode:     Mode2x2,
			GroupCol: "ethnicity",
			Outcome:  cohort.OutcomeRule{Col: "result", Positive: "yes"},
		},
		Pairs: []GroupPair{
			{Exposed: "A", Unexposed: "B"},
			{Exposed: "Z", Unexposed: "B"},
		},
	})
	assert.ErrorIs(t, err, core.ErrGroupAbsent)
}
