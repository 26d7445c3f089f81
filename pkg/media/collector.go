package media

import (
	"context"
	"fmt"

	"curator-bot/internal/entity"
	"curator-bot/internal/pkg/logger"
	"curator-bot/pkg/session"
	"curator-bot/pkg/store"
)

// Fetcher downloads the bytes behind a transport file reference.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// Collector files inbound media into the chat's authoring session. Photos,
// videos and documents are kept by reference; voice is transcribed first.
type Collector struct {
	sessions    *session.Manager
	fetcher     Fetcher
	transcriber Transcriber
	logger      logger.ILogger
}

func NewCollector(sessions *session.Manager, fetcher Fetcher, transcriber Transcriber, log logger.ILogger) *Collector {
	return &Collector{
		sessions:    sessions,
		fetcher:     fetcher,
		transcriber: transcriber,
		logger:      log,
	}
}

// AddPhoto reports false when chatID has no session.
func (c *Collector) AddPhoto(ctx context.Context, chatID int64, ref string) (bool, error) {
	return c.sessions.AppendPhoto(ctx, chatID, ref)
}

func (c *Collector) AddVideo(ctx context.Context, chatID int64, ref string) (bool, error) {
	return c.sessions.AppendVideo(ctx, chatID, ref)
}

func (c *Collector) AddDocument(ctx context.Context, chatID int64, ref string) (bool, error) {
	return c.sessions.AppendDocument(ctx, chatID, ref)
}

// AddVoice transcribes ref and appends the transcript. A failed download or
// transcription drops the voice note and leaves the session as it was.
// A session cancelled or restarted meanwhile discards the transcript.
func (c *Collector) AddVoice(ctx context.Context, chatID int64, ref string) (string, error) {
	s, err := c.sessions.Get(ctx, chatID)
	if err != nil {
		return "", err
	}
	if s == nil {
		return "", entity.ErrSessionMissing
	}
	if c.transcriber == nil {
		return "", fmt.Errorf("%w: transcription is not configured", entity.ErrGenerationFailed)
	}

	audio, err := c.fetcher.Fetch(ctx, ref)
	if err != nil {
		c.logger.Error("MediaCollector", "Failed to download voice note", map[string]interface{}{
			"chat_id": chatID,
			"error":   err,
		})
		return "", fmt.Errorf("%w: download voice: %w", entity.ErrGenerationFailed, err)
	}

	text, err := c.transcriber.Transcribe(ctx, audio, "voice.ogg")
	if err != nil {
		c.logger.Error("MediaCollector", "Transcription failed", map[string]interface{}{
			"chat_id": chatID,
			"error":   err,
		})
		return "", fmt.Errorf("%w: transcribe: %w", entity.ErrGenerationFailed, err)
	}
	if text == "" {
		return "", fmt.Errorf("%w: empty transcript", entity.ErrGenerationFailed)
	}

	if _, err := c.sessions.MutateIfCurrent(ctx, chatID, s.ID, func(cur *store.AuthoringSession) {
		cur.VoiceTranscripts = append(cur.VoiceTranscripts, text)
	}); err != nil {
		return "", err
	}
	return text, nil
}
