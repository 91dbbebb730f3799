package state

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStore_Lifecycle(t *testing.T) {
	store := NewSessionStore(0)

	sess := store.Create("algo_trading")
	require.NotEmpty(t, sess.ID)
	assert.Equal(t, PageSetup, sess.Page)
	assert.Equal(t, 1, store.Len())

	updated, err := store.Update(sess.ID, func(s *Session) {
		s.Page = PageProcessing
		s.SelectedIdea = "ideaA"
	})
	require.NoError(t, err)
	assert.Equal(t, PageProcessing, updated.Page)

	got, ok := store.Get(sess.ID)
	require.True(t, ok)
	assert.Equal(t, "ideaA", got.SelectedIdea)

	// Get hands out copies.
	got.SelectedIdea = "changed"
	again, _ := store.Get(sess.ID)
	assert.Equal(t, "ideaA", again.SelectedIdea)

	store.Delete(sess.ID)
	_, ok = store.Get(sess.ID)
	assert.False(t, ok)

	_, err = store.Update(sess.ID, func(*Session) {})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionStore_ConcurrentUpdates(t *testing.T) {
	store := NewSessionStore(0)
	sess := store.Create("u")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.Update(sess.ID, func(s *Session) { s.IdeaCount++ })
		}()
	}
	wg.Wait()

	got, _ := store.Get(sess.ID)
	assert.Equal(t, 50, got.IdeaCount)
}

func TestSessionStore_Expiry(t *testing.T) {
	store := NewSessionStore(time.Hour)
	clock := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	old := store.Create("early")
	clock = clock.Add(30 * time.Minute)
	recent := store.Create("late")
	assert.Equal(t, 2, store.Len())

	clock = clock.Add(45 * time.Minute)
	_, ok := store.Get(old.ID)
	assert.False(t, ok, "expired session is gone")
	_, err := store.Update(old.ID, func(*Session) {})
	assert.ErrorIs(t, err, ErrSessionNotFound)

	got, ok := store.Get(recent.ID)
	require.True(t, ok)
	assert.Equal(t, "late", got.Username)
	assert.Equal(t, 1, store.Len())

	// Creating a session sweeps everything that has expired, read or not.
	clock = clock.Add(time.Hour)
	fresh := store.Create("next")
	assert.Equal(t, 1, store.Len())
	_, ok = store.Get(fresh.ID)
	assert.True(t, ok)
}
