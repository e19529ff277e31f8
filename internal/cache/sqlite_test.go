package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devscholar/reference-engine/internal/domain"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	ctx := context.Background()
	s, err := NewSQLite(ctx, filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLitePutGet(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	entry := Entry{Metadata: &domain.Metadata{
		Title:   "Deep Learning",
		Authors: []string{"Yann LeCun", "Yoshua Bengio", "Geoffrey Hinton"},
		Venue:   "Nature",
		Year:    2015,
	}}
	require.NoError(t, s.Put(ctx, "doi:10.1038/nature14539", entry, time.Hour))

	got, ok, err := s.Get(ctx, "doi:10.1038/nature14539")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Deep Learning", got.Metadata.Title)
	assert.Equal(t, []string{"Yann LeCun", "Yoshua Bengio", "Geoffrey Hinton"}, got.Metadata.Authors)
	assert.Equal(t, 2015, got.Metadata.Year)
}

func TestSQLiteMiss(t *testing.T) {
	s := newTestSQLite(t)

	_, ok, err := s.Get(context.Background(), "arxiv:0000.00000")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	s, err := NewSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "ieee:726791", Entry{Metadata: &domain.Metadata{Title: "LeNet-5"}}, time.Hour))
	require.NoError(t, s.Close())

	reopened, err := NewSQLite(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	got, ok, err := reopened.Get(ctx, "ieee:726791")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "LeNet-5", got.Metadata.Title)
}

func TestSQLiteLazyExpiry(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	clock := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s.WithNow(func() time.Time { return clock })

	require.NoError(t, s.Put(ctx, "k", Entry{Failure: &domain.ResolutionFailure{Kind: domain.FailureNetwork}}, 15*time.Minute))

	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	clock = clock.Add(16 * time.Minute)
	_, ok, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	// The expired row is gone even with expiry checking disabled again.
	clock = clock.Add(-16 * time.Minute)
	_, ok, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLitePutReplaces(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "k", Entry{Failure: &domain.ResolutionFailure{Kind: domain.FailureTimeout}}, time.Minute))
	require.NoError(t, s.Put(ctx, "k", Entry{Metadata: &domain.Metadata{Title: "resolved"}}, time.Hour))

	got, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Nil(t, got.Failure)
	assert.Equal(t, "resolved", got.Metadata.Title)
}

func TestSQLiteInvalidate(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "k", Entry{Metadata: &domain.Metadata{}}, time.Hour))
	require.NoError(t, s.Invalidate(ctx, "k"))

	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLitePurgeExpired(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	clock := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s.WithNow(func() time.Time { return clock })

	require.NoError(t, s.Put(ctx, "old", Entry{Metadata: &domain.Metadata{}}, time.Minute))
	require.NoError(t, s.Put(ctx, "fresh", Entry{Metadata: &domain.Metadata{}}, time.Hour))

	clock = clock.Add(10 * time.Minute)
	purged, err := s.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	_, ok, err := s.Get(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, ok)
}
