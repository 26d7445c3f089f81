package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"curator-bot/internal/entity"
	"curator-bot/internal/repository/contract"
	"curator-bot/pkg/store"

	"github.com/google/uuid"
)

// Manager owns authoring sessions. Calls for one chat are serialized by the
// dispatcher, so a read-modify-save cycle never races with itself.
type Manager struct {
	sessionRepo contract.SessionRepository
	now         func() time.Time
}

func NewManager(sessionRepo contract.SessionRepository) *Manager {
	return &Manager{sessionRepo: sessionRepo, now: time.Now}
}

// Start creates a fresh session, replacing and discarding any prior one for chatID.
func (m *Manager) Start(ctx context.Context, chatID int64) (*store.AuthoringSession, error) {
	s := &store.AuthoringSession{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		StartedAt: m.now(),
	}
	if err := m.sessionRepo.Save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Get returns nil when chatID has no session.
func (m *Manager) Get(ctx context.Context, chatID int64) (*store.AuthoringSession, error) {
	return m.sessionRepo.Get(ctx, chatID)
}

func (m *Manager) End(ctx context.Context, chatID int64) error {
	return m.sessionRepo.Delete(ctx, chatID)
}

// Mutate applies fn to the current session and saves it.
// It returns entity.ErrSessionMissing when there is none.
func (m *Manager) Mutate(ctx context.Context, chatID int64, fn func(s *store.AuthoringSession)) (*store.AuthoringSession, error) {
	return m.mutate(ctx, chatID, "", fn)
}

// MutateIfCurrent is Mutate restricted to the session generation that
// started a slow operation; results for a cancelled or restarted session
// are dropped with entity.ErrSessionMissing.
func (m *Manager) MutateIfCurrent(ctx context.Context, chatID int64, generation string, fn func(s *store.AuthoringSession)) (*store.AuthoringSession, error) {
	return m.mutate(ctx, chatID, generation, fn)
}

func (m *Manager) mutate(ctx context.Context, chatID int64, generation string, fn func(s *store.AuthoringSession)) (*store.AuthoringSession, error) {
	s, err := m.sessionRepo.Get(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, entity.ErrSessionMissing
	}
	if generation != "" && s.ID != generation {
		return nil, fmt.Errorf("%w: session %s superseded", entity.ErrSessionMissing, generation)
	}

	fn(s)

	if err := m.sessionRepo.Save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// appendTo is a no-op without a session; the returned bool reports whether anything was stored.
func (m *Manager) appendTo(ctx context.Context, chatID int64, fn func(s *store.AuthoringSession)) (bool, error) {
	_, err := m.Mutate(ctx, chatID, fn)
	if errors.Is(err, entity.ErrSessionMissing) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (m *Manager) AppendText(ctx context.Context, chatID int64, text string) (bool, error) {
	return m.appendTo(ctx, chatID, func(s *store.AuthoringSession) {
		s.RawText = append(s.RawText, text)
	})
}

func (m *Manager) AppendPhoto(ctx context.Context, chatID int64, ref string) (bool, error) {
	return m.appendTo(ctx, chatID, func(s *store.AuthoringSession) {
		s.Photos = append(s.Photos, ref)
	})
}

func (m *Manager) AppendVideo(ctx context.Context, chatID int64, ref string) (bool, error) {
	return m.appendTo(ctx, chatID, func(s *store.AuthoringSession) {
		s.Videos = append(s.Videos, ref)
	})
}

func (m *Manager) AppendDocument(ctx context.Context, chatID int64, ref string) (bool, error) {
	return m.appendTo(ctx, chatID, func(s *store.AuthoringSession) {
		s.Documents = append(s.Documents, ref)
	})
}

func (m *Manager) AppendVoiceTranscript(ctx context.Context, chatID int64, transcript string) (bool, error) {
	return m.appendTo(ctx, chatID, func(s *store.AuthoringSession) {
		s.VoiceTranscripts = append(s.VoiceTranscripts, transcript)
	})
}

func (m *Manager) SetDraft(ctx context.Context, chatID int64, draft *entity.Draft) (*store.AuthoringSession, error) {
	return m.Mutate(ctx, chatID, func(s *store.AuthoringSession) {
		s.Draft = draft
	})
}

func (m *Manager) SetEditingField(ctx context.Context, chatID int64, field entity.DraftField) (*store.AuthoringSession, error) {
	return m.Mutate(ctx, chatID, func(s *store.AuthoringSession) {
		s.EditingField = field
	})
}

func (m *Manager) SetDate(ctx context.Context, chatID int64, date string) (*store.AuthoringSession, error) {
	return m.Mutate(ctx, chatID, func(s *store.AuthoringSession) {
		s.Date = date
	})
}

func (m *Manager) SetLocation(ctx context.Context, chatID int64, location string) (*store.AuthoringSession, error) {
	return m.Mutate(ctx, chatID, func(s *store.AuthoringSession) {
		s.Location = location
	})
}
