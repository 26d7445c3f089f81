package memory

import (
	"context"
	"testing"
	"time"

	"curator-bot/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRepository_SaveGetDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository(time.Hour)

	got, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, got)

	s := &store.AuthoringSession{ID: "gen-1", ChatID: 1, RawText: []string{"a"}}
	require.NoError(t, repo.Save(ctx, s))

	// stored copy is isolated from later caller mutation
	s.RawText = append(s.RawText, "b")

	got, err = repo.Get(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{"a"}, got.RawText)

	require.NoError(t, repo.Delete(ctx, 1))
	got, err = repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionRepository_Expiry(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository(20 * time.Millisecond)

	require.NoError(t, repo.Save(ctx, &store.AuthoringSession{ID: "gen-1", ChatID: 9}))
	time.Sleep(40 * time.Millisecond)

	got, err := repo.Get(ctx, 9)
	require.NoError(t, err)
	assert.Nil(t, got)
}
