package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"curator-bot/internal/entity"
	"curator-bot/internal/repository/memory"
	"curator-bot/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager() *Manager {
	return NewManager(memory.NewSessionRepository(time.Hour))
}

func TestManager_AppendWithoutSessionIsNoop(t *testing.T) {
	ctx := context.Background()
	m := newManager()

	ok, err := m.AppendText(ctx, 1, "hello")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = m.AppendPhoto(ctx, 1, "photo")
	require.NoError(t, err)
	assert.False(t, ok)

	s, err := m.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestManager_AppendPreservesOrderPerKind(t *testing.T) {
	ctx := context.Background()
	m := newManager()
	_, err := m.Start(ctx, 1)
	require.NoError(t, err)

	for _, step := range []func() (bool, error){
		func() (bool, error) { return m.AppendText(ctx, 1, "t1") },
		func() (bool, error) { return m.AppendPhoto(ctx, 1, "p1") },
		func() (bool, error) { return m.AppendVoiceTranscript(ctx, 1, "v1") },
		func() (bool, error) { return m.AppendPhoto(ctx, 1, "p2") },
		func() (bool, error) { return m.AppendText(ctx, 1, "t2") },
		func() (bool, error) { return m.AppendVideo(ctx, 1, "vid1") },
		func() (bool, error) { return m.AppendDocument(ctx, 1, "doc1") },
	} {
		ok, err := step()
		require.NoError(t, err)
		require.True(t, ok)
	}

	s, err := m.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2"}, s.RawText)
	assert.Equal(t, []string{"p1", "p2"}, s.Photos)
	assert.Equal(t, []string{"vid1"}, s.Videos)
	assert.Equal(t, []string{"doc1"}, s.Documents)
	assert.Equal(t, []string{"v1"}, s.VoiceTranscripts)
}

func TestManager_StartReplacesPriorSession(t *testing.T) {
	ctx := context.Background()
	m := newManager()

	first, err := m.Start(ctx, 1)
	require.NoError(t, err)
	_, err = m.AppendText(ctx, 1, "lost")
	require.NoError(t, err)

	second, err := m.Start(ctx, 1)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	s, err := m.Get(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, s.RawText)
}

func TestManager_ChatsAreIndependent(t *testing.T) {
	ctx := context.Background()
	m := newManager()
	_, _ = m.Start(ctx, 1)
	_, _ = m.Start(ctx, 2)

	_, err := m.AppendText(ctx, 1, "one")
	require.NoError(t, err)

	require.NoError(t, m.End(ctx, 2))

	s1, _ := m.Get(ctx, 1)
	s2, _ := m.Get(ctx, 2)
	assert.Equal(t, []string{"one"}, s1.RawText)
	assert.Nil(t, s2)
}

func TestManager_MutateIfCurrentDropsStaleResult(t *testing.T) {
	ctx := context.Background()
	m := newManager()

	old, err := m.Start(ctx, 1)
	require.NoError(t, err)

	// operator cancels and restarts while a slow call is in flight
	_, err = m.Start(ctx, 1)
	require.NoError(t, err)

	_, err = m.MutateIfCurrent(ctx, 1, old.ID, func(s *store.AuthoringSession) {
		s.Draft = &entity.Draft{Title: "late"}
	})
	assert.True(t, errors.Is(err, entity.ErrSessionMissing))

	s, _ := m.Get(ctx, 1)
	assert.Nil(t, s.Draft)

	require.NoError(t, m.End(ctx, 1))
	_, err = m.MutateIfCurrent(ctx, 1, old.ID, func(s *store.AuthoringSession) {})
	assert.ErrorIs(t, err, entity.ErrSessionMissing)
}

func TestManager_Setters(t *testing.T) {
	ctx := context.Background()
	m := newManager()

	_, err := m.SetDate(ctx, 1, "2024-05-01")
	assert.ErrorIs(t, err, entity.ErrSessionMissing)

	_, _ = m.Start(ctx, 1)
	_, err = m.SetDate(ctx, 1, "2024-05-01")
	require.NoError(t, err)
	_, err = m.SetLocation(ctx, 1, "Lisbon")
	require.NoError(t, err)
	_, err = m.SetEditingField(ctx, 1, entity.DraftFieldTitle)
	require.NoError(t, err)
	s, err := m.SetDraft(ctx, 1, &entity.Draft{Title: "T"})
	require.NoError(t, err)

	assert.Equal(t, entity.RecordMetadata{Date: "2024-05-01", Location: "Lisbon"}, s.Metadata())
	assert.Equal(t, entity.DraftFieldTitle, s.EditingField)
	assert.Equal(t, "T", s.Draft.Title)
}
