package rediscache

import (
	"context"
	"testing"
	"time"

	"curator-bot/internal/entity"
	"curator-bot/pkg/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T, ttl time.Duration) (*SessionRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := NewClient("redis://" + mr.Addr())
	t.Cleanup(func() { _ = rdb.Close() })
	return NewSessionRepository(rdb, ttl), mr
}

func TestSessionRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo, mr := newRepo(t, time.Hour)

	s := &store.AuthoringSession{
		ID:           "gen-1",
		ChatID:       42,
		RawText:      []string{"first", "second"},
		Photos:       []string{"p1"},
		Draft:        &entity.Draft{Title: "T", Tags: []string{"a"}},
		EditingField: entity.DraftFieldTitle,
	}
	require.NoError(t, repo.Save(ctx, s))
	assert.True(t, mr.Exists("authoring:session:42"))

	got, err := repo.Get(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, s.RawText, got.RawText)
	assert.Equal(t, s.Photos, got.Photos)
	assert.Equal(t, "T", got.Draft.Title)
	assert.Equal(t, entity.DraftFieldTitle, got.EditingField)

	require.NoError(t, repo.Delete(ctx, 42))
	got, err = repo.Get(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionRepository_TTL(t *testing.T) {
	ctx := context.Background()
	repo, mr := newRepo(t, time.Minute)

	require.NoError(t, repo.Save(ctx, &store.AuthoringSession{ID: "gen-1", ChatID: 7}))
	assert.Equal(t, time.Minute, mr.TTL("authoring:session:7"))

	mr.FastForward(2 * time.Minute)

	got, err := repo.Get(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionRepository_GetBackendError(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := NewClient(mr.Addr())
	t.Cleanup(func() { _ = rdb.Close() })
	repo := NewSessionRepository(rdb, time.Minute)
	mr.Close()

	_, err = repo.Get(ctx, 1)
	assert.Error(t, err)
}
