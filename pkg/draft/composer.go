package draft

import (
	"context"
	"fmt"
	"strings"

	"curator-bot/internal/entity"
	"curator-bot/internal/pkg/logger"
	"curator-bot/pkg/llm"
	"curator-bot/pkg/session"
	"curator-bot/pkg/store"

	"github.com/go-playground/validator/v10"
)

// Composer drafts records from session material through a generative model.
type Composer struct {
	provider llm.LLMProvider
	sessions *session.Manager
	validate *validator.Validate
	logger   logger.ILogger
}

func NewComposer(provider llm.LLMProvider, sessions *session.Manager, log logger.ILogger) *Composer {
	return &Composer{
		provider: provider,
		sessions: sessions,
		validate: validator.New(),
		logger:   log,
	}
}

// Compose drafts a record from the session's typed text and transcripts.
// It performs one model call and does not modify the session.
func (c *Composer) Compose(ctx context.Context, s *store.AuthoringSession) (*entity.Draft, error) {
	if !s.HasInput() {
		return nil, fmt.Errorf("%w: nothing to compose from", entity.ErrValidation)
	}
	return c.generate(ctx, s, nil, 0.4)
}

// Regenerate asks for an alternative to the session's current draft.
// Like Compose it makes exactly one model call and leaves the session alone.
func (c *Composer) Regenerate(ctx context.Context, s *store.AuthoringSession) (*entity.Draft, error) {
	if !s.HasInput() {
		return nil, fmt.Errorf("%w: nothing to compose from", entity.ErrValidation)
	}
	return c.generate(ctx, s, s.Draft, 0.9)
}

func (c *Composer) generate(ctx context.Context, s *store.AuthoringSession, previous *entity.Draft, temperature float64) (*entity.Draft, error) {
	answer, err := c.provider.Chat(ctx, buildMessages(s, previous), llm.WithJSON(), llm.WithTemperature(temperature))
	if err != nil {
		c.logger.Error("DraftComposer", "Model call failed", map[string]interface{}{
			"chat_id": s.ChatID,
			"error":   err,
		})
		return nil, fmt.Errorf("%w: %w", entity.ErrGenerationFailed, err)
	}

	d, err := Parse(answer)
	if err == nil {
		err = c.validate.Struct(d)
	}
	if err != nil {
		c.logger.Warn("DraftComposer", "Unusable model answer", map[string]interface{}{
			"chat_id": s.ChatID,
			"error":   err.Error(),
			"answer":  truncate(answer, 500),
		})
		return nil, fmt.Errorf("%w: %w", entity.ErrGenerationFailed, err)
	}
	return d, nil
}

// EditField overrides one field with operator input and clears the pending
// edit. Date and location live on the session; the rest on its draft.
func (c *Composer) EditField(ctx context.Context, chatID int64, field entity.DraftField, value string) (*store.AuthoringSession, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("%w: empty value", entity.ErrValidation)
	}

	s, err := c.sessions.Get(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, entity.ErrSessionMissing
	}

	needsDraft := field == entity.DraftFieldTitle || field == entity.DraftFieldShortSummary || field == entity.DraftFieldFullSummary
	if needsDraft && s.Draft == nil {
		return nil, fmt.Errorf("%w: no draft to edit", entity.ErrValidation)
	}
	if field == entity.DraftFieldTitle {
		if err := c.validate.Var(value, "max=255"); err != nil {
			return nil, fmt.Errorf("%w: %w", entity.ErrValidation, err)
		}
	}

	return c.sessions.Mutate(ctx, chatID, func(s *store.AuthoringSession) {
		switch field {
		case entity.DraftFieldTitle:
			s.Draft.Title = value
		case entity.DraftFieldShortSummary:
			s.Draft.ShortSummary = value
		case entity.DraftFieldFullSummary:
			s.Draft.FullSummary = value
		case entity.DraftFieldDate:
			s.Date = value
		case entity.DraftFieldLocation:
			s.Location = value
		}
		s.EditingField = ""
	})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
