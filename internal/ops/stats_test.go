package ops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStats_Empty(t *testing.T) {
	env, _ := newTestEnv(t)

	out, err := Stats(context.Background(), env)
	require.NoError(t, err)
	require.NotNil(t, out.Subjects)
	require.Empty(t, out.Subjects)
	require.Zero(t, out.OverallAccuracy)
	require.Zero(t, out.WeightedAccuracy)
	require.Equal(t, 3, out.DeckSize)
	require.Equal(t, 3, out.DueCount)
	require.Len(t, out.Categories, 3)
}

func TestStats_UnweightedOverall(t *testing.T) {
	env, _ := newTestEnv(t)
	ctx := context.Background()

	// Surgery: 1 of 2 correct (50%). Internal Medicine: 1 of 1 (100%).
	for _, a := range []AnswerInput{
		{ID: "SURG-101", Option: "B"},
		{ID: "SURG-101", Option: "A"},
		{ID: "MED-202", Option: "B"},
	} {
		_, err := Answer(ctx, env, a)
		require.NoError(t, err)
	}
	_, err := Review(ctx, env, ReviewInput{ID: "FC-3", Rating: "good"})
	require.NoError(t, err)

	out, err := Stats(ctx, env)
	require.NoError(t, err)
	require.Len(t, out.Subjects, 2)
	require.Equal(t, 50, out.Subjects[0].Accuracy)
	require.Equal(t, 100, out.Subjects[1].Accuracy)
	require.Equal(t, 75, out.OverallAccuracy)
	require.Equal(t, 67, out.WeightedAccuracy)
	require.Equal(t, 3, out.TotalAttempted)
	require.Equal(t, 2, out.DueCount)
	require.Equal(t, CategoryStats{Category: "Surgery", Cards: 1, Due: 0}, out.Categories[2])
}
