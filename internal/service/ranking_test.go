package service

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"ideaboard/internal/models"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		results   []models.IdeaResult
		threshold float64
		want      map[string]models.Classification
	}{
		{
			name: "ties share best",
			results: []models.IdeaResult{
				{Identifier: "ideaA", MetricValue: 0.80},
				{Identifier: "ideaB", MetricValue: 0.80},
				{Identifier: "ideaC", MetricValue: 0.60},
			},
			threshold: 0.51,
			want: map[string]models.Classification{
				"ideaA": models.ClassBest,
				"ideaB": models.ClassBest,
				"ideaC": models.ClassAboveThreshold,
			},
		},
		{
			name: "best wins even below threshold",
			results: []models.IdeaResult{
				{Identifier: "x", MetricValue: 0.4},
				{Identifier: "y", MetricValue: 0.3},
			},
			threshold: 0.51,
			want: map[string]models.Classification{
				"x": models.ClassBest,
				"y": models.ClassBelowThreshold,
			},
		},
		{
			name: "threshold is inclusive",
			results: []models.IdeaResult{
				{Identifier: "top", MetricValue: 0.9},
				{Identifier: "edge", MetricValue: 0.51},
				{Identifier: "under", MetricValue: 0.5099},
			},
			threshold: 0.51,
			want: map[string]models.Classification{
				"top":   models.ClassBest,
				"edge":  models.ClassAboveThreshold,
				"under": models.ClassBelowThreshold,
			},
		},
		{
			name:      "empty",
			results:   nil,
			threshold: 0.51,
			want:      map[string]models.Classification{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.results, tt.threshold))
		})
	}
}

func TestBestValue(t *testing.T) {
	assert.Equal(t, 0.0, BestValue(nil))
	assert.Equal(t, 0.7, BestValue([]models.IdeaResult{{MetricValue: 0.2}, {MetricValue: 0.7}, {MetricValue: 0.5}}))
	assert.Equal(t, -0.1, BestValue([]models.IdeaResult{{MetricValue: -0.3}, {MetricValue: -0.1}}))
}

func TestRank(t *testing.T) {
	results := []models.IdeaResult{
		{Identifier: "mean_reversion", MetricValue: 0.8},
		{Identifier: "momentum", MetricValue: 0.6},
		{Identifier: "noise", MetricValue: 0.2},
	}

	want := []models.RankedIdea{
		{Rank: 1, Identifier: "mean_reversion", DisplayName: "Mean Reversion", MetricValue: 0.8, Classification: models.ClassBest, Marker: "⭐"},
		{Rank: 2, Identifier: "momentum", DisplayName: "Momentum", MetricValue: 0.6, Classification: models.ClassAboveThreshold, Marker: "🟢"},
		{Rank: 3, Identifier: "noise", DisplayName: "Noise", MetricValue: 0.2, Classification: models.ClassBelowThreshold, Marker: "🔴"},
	}
	if diff := cmp.Diff(want, Rank(results, 0.51)); diff != "" {
		t.Errorf("Rank() mismatch (-want +got):\n%s", diff)
	}

	assert.Empty(t, Rank(nil, 0.51))
}

func TestRankingResponse(t *testing.T) {
	catalog := &Catalog{
		Config: models.CatalogConfig{BaseDirectory: "/ideas", MetricName: "F1", SyntheticMode: true},
		Results: []models.IdeaResult{
			{Identifier: "wide_net", MetricValue: 0.7},
			{Identifier: "narrow", MetricValue: 0.4},
		},
		Warnings: []models.ScanWarning{{Identifier: "broken", Kind: models.WarningMalformed}},
	}

	resp := RankingResponse(catalog, "Ideas", 0.5)
	assert.Equal(t, "Ideas", resp.PageTitle)
	assert.Equal(t, "F1", resp.MetricName)
	assert.True(t, resp.Synthetic)
	assert.Equal(t, 0.5, resp.ThresholdScore)
	assert.Equal(t, 0.7, resp.BestValue)
	require.Len(t, resp.Ideas, 2)
	assert.Equal(t, models.ClassBest, resp.Ideas[0].Classification)
	assert.Equal(t, models.ClassBelowThreshold, resp.Ideas[1].Classification)
	assert.Equal(t, catalog.Warnings, resp.Warnings)
}

func TestPrepareDiff(t *testing.T) {
	dir := t.TempDir()
	baseline := filepath.Join(dir, "baseline.py")
	candidate := filepath.Join(dir, "idea", "final_candidate.py")
	require.NoError(t, os.MkdirAll(filepath.Dir(candidate), 0o755))

	t.Run("baseline checked first", func(t *testing.T) {
		_, err := PrepareDiff(baseline, candidate)
		var missing *MissingArtifactError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, "baseline", missing.Role)
		assert.Equal(t, baseline, missing.Path)
		assert.ErrorIs(t, err, ErrMissingArtifact)
		assert.Equal(t, "baseline file not found: "+baseline, err.Error())
	})

	require.NoError(t, os.WriteFile(baseline, []byte("a\nb\n"), 0o644))

	t.Run("missing candidate", func(t *testing.T) {
		_, err := PrepareDiff(baseline, candidate)
		var missing *MissingArtifactError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, "candidate", missing.Role)
		assert.Equal(t, candidate, missing.Path)
	})

	t.Run("directory is not a file", func(t *testing.T) {
		_, err := PrepareDiff(baseline, filepath.Dir(candidate))
		var missing *MissingArtifactError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, "candidate", missing.Role)
		assert.NotNil(t, missing.Err)
	})

	require.NoError(t, os.WriteFile(candidate, []byte("a\nc\n"), 0o644))

	t.Run("both present", func(t *testing.T) {
		in, err := PrepareDiff(baseline, candidate)
		require.NoError(t, err)
		assert.Equal(t, models.DiffInput{BaselineText: "a\nb\n", CandidateText: "a\nc\n"}, in)
		assert.True(t, ArtifactExists(candidate))
		assert.False(t, ArtifactExists(filepath.Join(dir, "nope.py")))
	})

	t.Run("read candidate", func(t *testing.T) {
		data, err := ReadCandidate(candidate)
		require.NoError(t, err)
		assert.Equal(t, "a\nc\n", string(data))

		_, err = ReadCandidate(filepath.Join(dir, "nope.py"))
		assert.True(t, errors.Is(err, ErrMissingArtifact))
	})
}
