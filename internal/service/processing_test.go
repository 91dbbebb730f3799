package service

import (
	"fmt"
	"testing"

	"ideaboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ticksPerIdea() int {
	n := 0
	for _, st := range DefaultStages {
		n += st.Ticks
	}
	return n
}

func advanceN(run *ProcessingRun, n int) {
	for range n {
		run.Advance()
	}
}

func sampleResults(n int) []models.IdeaResult {
	results := make([]models.IdeaResult, n)
	for i := range results {
		results[i] = models.IdeaResult{
			Identifier:  fmt.Sprintf("idea_%02d", i),
			MetricValue: 0.9 - float64(i)*0.01,
		}
	}
	return results
}

func TestIdeaCountBounds(t *testing.T) {
	assert.Equal(t, 0, MaxIdeas(0))
	assert.Equal(t, 3, MaxIdeas(3))
	assert.Equal(t, 25, MaxIdeas(40))

	assert.Equal(t, 0, DefaultIdeaCount(0))
	assert.Equal(t, 3, DefaultIdeaCount(3))
	assert.Equal(t, 5, DefaultIdeaCount(40))
}

func TestNewProcessingRun_ClampsCount(t *testing.T) {
	results := sampleResults(30)

	assert.Equal(t, 1, NewProcessingRun(results, 0, nil, 0.51).Snapshot().Total)
	assert.Equal(t, 1, NewProcessingRun(results, -4, nil, 0.51).Snapshot().Total)
	assert.Equal(t, 7, NewProcessingRun(results, 7, nil, 0.51).Snapshot().Total)
	assert.Equal(t, 25, NewProcessingRun(results, 99, nil, 0.51).Snapshot().Total)
	assert.Equal(t, 2, NewProcessingRun(results[:2], 5, nil, 0.51).Snapshot().Total)

	empty := NewProcessingRun(nil, 5, nil, 0.51)
	assert.True(t, empty.Complete())
	assert.False(t, empty.Advance())
	snap := empty.Snapshot()
	assert.Equal(t, 0, snap.Total)
	assert.NotNil(t, snap.Ideas)
}

func TestProcessingRun_StagesAndCompletion(t *testing.T) {
	results := []models.IdeaResult{
		{Identifier: "slow_idea", MetricValue: 0.4},
		{Identifier: "fast_idea", MetricValue: 0.7},
		{Identifier: "never_reached", MetricValue: 0.99},
	}
	run := NewProcessingRun(results, 2, nil, 0.51)

	snap := run.Snapshot()
	assert.Empty(t, snap.CurrentIdea, "nothing is shown before the first tick")
	assert.Equal(t, "active", snap.Stages[0].State)
	assert.Equal(t, "pending", snap.Stages[1].State)

	// Finish the first stage.
	advanceN(run, DefaultStages[0].Ticks)
	snap = run.Snapshot()
	assert.Equal(t, "done", snap.Stages[0].State)
	assert.Equal(t, "active", snap.Stages[1].State)
	assert.Equal(t, "Slow Idea", snap.CurrentIdea)

	advanceN(run, 1)
	snap = run.Snapshot()
	assert.InDelta(t, 1.0/float64(DefaultStages[1].Ticks), snap.Stages[1].Progress, 1e-9)

	advanceN(run, ticksPerIdea()-DefaultStages[0].Ticks-1)
	snap = run.Snapshot()
	require.Equal(t, 1, snap.ProcessedCount)
	assert.InDelta(t, 0.5, snap.OverallProgress, 1e-9)
	assert.Equal(t, "slow_idea", snap.Selected)
	assert.False(t, snap.Complete)
	// Only one idea so far, so it is the best of the processed set.
	assert.Equal(t, models.ClassBest, snap.Ideas[0].Classification)

	advanceN(run, ticksPerIdea())
	snap = run.Snapshot()
	assert.True(t, snap.Complete)
	assert.Equal(t, 2, snap.ProcessedCount)
	assert.Equal(t, 1.0, snap.OverallProgress)
	assert.Equal(t, "fast_idea", snap.Selected)
	assert.Empty(t, snap.CurrentIdea)
	for _, st := range snap.Stages {
		assert.Equal(t, "done", st.State)
	}

	// Sorted by metric over the processed subset; the unprocessed 0.99 does not count.
	require.Len(t, snap.Ideas, 2)
	assert.Equal(t, "fast_idea", snap.Ideas[0].Name)
	assert.Equal(t, models.ClassBest, snap.Ideas[0].Classification)
	assert.Equal(t, "⭐", snap.Ideas[0].Marker)
	assert.Equal(t, models.ClassBelowThreshold, snap.Ideas[1].Classification)

	assert.False(t, run.Advance())
	assert.Equal(t, 2, run.Snapshot().ProcessedCount)
}

func TestProcessingRun_SelectAndRestart(t *testing.T) {
	index := LoadIdeaIndex(writeIdeasFile(t, `[{"Name":"idea_00","Title":"Zero","Idea":"The first one."}]`), nil)
	run := NewProcessingRun(sampleResults(3), 2, index, 0.51)

	assert.ErrorIs(t, run.Select("idea_00"), ErrUnknownIdea)

	advanceN(run, ticksPerIdea())
	require.NoError(t, run.Select("idea_00"))
	assert.ErrorIs(t, run.Select("idea_01"), ErrUnknownIdea)

	idea, ok := run.Processed("idea_00")
	require.True(t, ok)
	assert.Equal(t, "Zero", idea.Title)
	assert.Equal(t, "The first one.", idea.Description)
	assert.Equal(t, "Idea 00", idea.DisplayName)

	run.Restart()
	snap := run.Snapshot()
	assert.Equal(t, 0, snap.ProcessedCount)
	assert.Equal(t, 2, snap.Total)
	assert.Empty(t, snap.Selected)
	assert.False(t, snap.Complete)
	_, ok = run.Processed("idea_00")
	assert.False(t, ok)
}

func TestProcessingRun_LabelTruncates(t *testing.T) {
	results := []models.IdeaResult{{Identifier: "an_extremely_long_idea_identifier_name", MetricValue: 0.6}}
	run := NewProcessingRun(results, 1, nil, 0.51)
	advanceN(run, ticksPerIdea())

	idea, ok := run.Processed(results[0].Identifier)
	require.True(t, ok)
	assert.Equal(t, "An Extremely Long Idea Id...", idea.Label)
}
