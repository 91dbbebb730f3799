package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnQuality(t *testing.T) {
	t.Run("identifier column", func(t *testing.T) {
		q := columnQuality("id", []string{"1", "2", "3", "4"}, 4)
		assert.Equal(t, 4, q.DistinctCount)
		assert.Equal(t, 0.0, q.NullRate)
		assert.Equal(t, 1.0, q.UniquenessRatio)
		assert.InDelta(t, 2.0, q.Entropy, 1e-9)
		assert.True(t, q.LikelyID)
		assert.InDelta(t, 0.8, q.Score, 1e-9)
	})

	t.Run("nulls and repeats", func(t *testing.T) {
		q := columnQuality("flag", []string{"yes", "yes", "NULL", "", "None", "no"}, 8)
		assert.Equal(t, 2, q.DistinctCount)
		assert.InDelta(t, 5.0/8.0, q.NullRate, 1e-9)
		assert.InDelta(t, 2.0/3.0, q.UniquenessRatio, 1e-9)
		assert.False(t, q.LikelyID)
		assert.Greater(t, q.Score, 0.0)
		assert.Less(t, q.Score, 0.5)
	})

	t.Run("all empty", func(t *testing.T) {
		q := columnQuality("blank", []string{"", ""}, 2)
		assert.Equal(t, 1.0, q.NullRate)
		assert.Equal(t, 0.0, q.Entropy)
		assert.Equal(t, 0.0, q.Score)
	})
}

func TestProfile_IncludesQuality(t *testing.T) {
	svc := NewDatasetService()

	p, err := svc.Profile("d.csv", strings.NewReader("id,group\n1,a\n2,a\n3\n"))
	require.NoError(t, err)
	require.Len(t, p.Quality, 2)
	assert.Equal(t, "id", p.Quality[0].Column)
	assert.True(t, p.Quality[0].LikelyID)
	assert.Equal(t, "group", p.Quality[1].Column)
	assert.InDelta(t, 1.0/3.0, p.Quality[1].NullRate, 1e-9)

	p, err = svc.Profile("d.json", strings.NewReader(`[{"n": 1}, {"n": 1}, {"n": null}]`))
	require.NoError(t, err)
	require.Len(t, p.Quality, 1)
	assert.Equal(t, 1, p.Quality[0].DistinctCount)
	assert.InDelta(t, 1.0/3.0, p.Quality[0].NullRate, 1e-9)
}
