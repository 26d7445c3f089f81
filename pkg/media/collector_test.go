package media

import (
	"context"
	"errors"
	"testing"
	"time"

	"curator-bot/internal/entity"
	"curator-bot/internal/pkg/logger"
	"curator-bot/internal/repository/memory"
	"curator-bot/pkg/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	data map[string][]byte
	err  error
}

func (f *fakeFetcher) Fetch(_ context.Context, ref string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.data[ref], nil
}

type fakeTranscriber struct {
	text   string
	err    error
	called int
	onCall func()
}

func (f *fakeTranscriber) Transcribe(_ context.Context, audio []byte, _ string) (string, error) {
	f.called++
	if f.onCall != nil {
		f.onCall()
	}
	if f.err != nil {
		return "", f.err
	}
	return f.text + ":" + string(audio), nil
}

func setup(t *testing.T, tr *fakeTranscriber, fe *fakeFetcher) (*Collector, *session.Manager) {
	t.Helper()
	sessions := session.NewManager(memory.NewSessionRepository(time.Hour))
	return NewCollector(sessions, fe, tr, logger.NewNopLogger()), sessions
}

func TestCollector_MediaKeepsArrivalOrder(t *testing.T) {
	ctx := context.Background()
	c, sessions := setup(t, &fakeTranscriber{}, &fakeFetcher{})

	ok, err := c.AddPhoto(ctx, 1, "p0")
	require.NoError(t, err)
	assert.False(t, ok, "no session yet")

	_, err = sessions.Start(ctx, 1)
	require.NoError(t, err)

	for _, ref := range []string{"p1", "p2", "p3"} {
		ok, err := c.AddPhoto(ctx, 1, ref)
		require.NoError(t, err)
		require.True(t, ok)
	}
	_, _ = c.AddVideo(ctx, 1, "v1")
	_, _ = c.AddDocument(ctx, 1, "d1")

	s, err := sessions.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2", "p3"}, s.Photos)
	assert.Equal(t, []string{"v1"}, s.Videos)
	assert.Equal(t, []string{"d1"}, s.Documents)
}

func TestCollector_VoiceIsTranscribedSeparately(t *testing.T) {
	ctx := context.Background()
	tr := &fakeTranscriber{text: "heard"}
	c, sessions := setup(t, tr, &fakeFetcher{data: map[string][]byte{"voice-1": []byte("ogg")}})

	_, _ = sessions.Start(ctx, 1)
	_, _ = sessions.AppendText(ctx, 1, "typed")

	text, err := c.AddVoice(ctx, 1, "voice-1")
	require.NoError(t, err)
	assert.Equal(t, "heard:ogg", text)

	s, _ := sessions.Get(ctx, 1)
	assert.Equal(t, []string{"typed"}, s.RawText)
	assert.Equal(t, []string{"heard:ogg"}, s.VoiceTranscripts)
}

func TestCollector_VoiceFailureLeavesSessionIntact(t *testing.T) {
	ctx := context.Background()

	t.Run("transcription error", func(t *testing.T) {
		c, sessions := setup(t, &fakeTranscriber{err: errors.New("rate limited")}, &fakeFetcher{})
		_, _ = sessions.Start(ctx, 1)
		_, _ = sessions.AppendText(ctx, 1, "keep me")

		_, err := c.AddVoice(ctx, 1, "voice-1")
		assert.ErrorIs(t, err, entity.ErrGenerationFailed)

		s, err := sessions.Get(ctx, 1)
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, []string{"keep me"}, s.RawText)
		assert.Empty(t, s.VoiceTranscripts)
	})

	t.Run("download error", func(t *testing.T) {
		tr := &fakeTranscriber{}
		c, sessions := setup(t, tr, &fakeFetcher{err: errors.New("404")})
		_, _ = sessions.Start(ctx, 1)

		_, err := c.AddVoice(ctx, 1, "voice-1")
		assert.ErrorIs(t, err, entity.ErrGenerationFailed)
		assert.Zero(t, tr.called)
	})
}

func TestCollector_VoiceWithoutSession(t *testing.T) {
	tr := &fakeTranscriber{}
	c, _ := setup(t, tr, &fakeFetcher{})

	_, err := c.AddVoice(context.Background(), 1, "voice-1")
	assert.ErrorIs(t, err, entity.ErrSessionMissing)
	assert.Zero(t, tr.called)
}

func TestCollector_LateTranscriptDiscardedAfterCancel(t *testing.T) {
	ctx := context.Background()
	var sessions *session.Manager
	tr := &fakeTranscriber{text: "late"}
	tr.onCall = func() { _ = sessions.End(ctx, 1) }

	c, m := setup(t, tr, &fakeFetcher{})
	sessions = m
	_, _ = sessions.Start(ctx, 1)

	_, err := c.AddVoice(ctx, 1, "voice-1")
	assert.ErrorIs(t, err, entity.ErrSessionMissing)

	s, _ := sessions.Get(ctx, 1)
	assert.Nil(t, s)
}
