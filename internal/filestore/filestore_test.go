package filestore

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"animevault/internal/http-api/repository"
	"animevault/internal/sources"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "catalog.json"))
	require.NoError(t, err)
	return store
}

func sampleCandidate() sources.Candidate {
	episodes := 26
	score := 82.32
	year := 1998
	return sources.Candidate{
		ExternalID:  "1",
		Title:       "Cowboy Bebop",
		Synopsis:    "Bounty hunters drift through the solar system.",
		Episodes:    &episodes,
		Score:       &score,
		ReleaseYear: &year,
		Source:      "kitsu",
	}
}

func TestUpsert_Idempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, created, err := store.Upsert(ctx, sampleCandidate())
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := store.Upsert(ctx, sampleCandidate())
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
}

func TestUpsert_ExistingRecordUnchanged(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, _, err := store.Upsert(ctx, sampleCandidate())
	require.NoError(t, err)

	fresh := sampleCandidate()
	fresh.Title = "Cowboy Bebop (remaster)"
	got, created, err := store.Upsert(ctx, fresh)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "Cowboy Bebop", got.Title)
}

func TestFindByExternalID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, _, err := store.Upsert(ctx, sampleCandidate())
	require.NoError(t, err)

	found, err := store.FindByExternalID(ctx, "kitsu", "1")
	require.NoError(t, err)
	assert.Equal(t, "Cowboy Bebop", found.Title)

	_, err = store.FindByExternalID(ctx, "anilist", "1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestListPagination(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"1", "2", "3"} {
		cand := sampleCandidate()
		cand.ExternalID = id
		cand.Title = "Anime " + id
		_, _, err := store.Upsert(ctx, cand)
		require.NoError(t, err)
	}

	list, total, err := store.List(ctx, 1, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, list, 1)
	assert.Equal(t, "Anime 2", list[0].Title)

	list, total, err = store.List(ctx, 10, 5)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Empty(t, list)
}

func TestUpdateAndDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, _, err := store.Upsert(ctx, sampleCandidate())
	require.NoError(t, err)

	updated, err := store.Update(ctx, created.ID, map[string]interface{}{"title": "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)

	removed, err := store.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, removed.ID)

	_, err = store.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = store.Delete(ctx, created.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestConcurrentUpserts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := store.Upsert(ctx, sampleCandidate())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	_, total, err := store.List(ctx, 0, 100)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")

	store, err := New(path)
	require.NoError(t, err)
	created, _, err := store.Upsert(context.Background(), sampleCandidate())
	require.NoError(t, err)

	reopened, err := New(path)
	require.NoError(t, err)
	got, err := reopened.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cowboy Bebop", got.Title)
}
