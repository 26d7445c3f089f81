package contract

import (
	"context"

	"curator-bot/pkg/store"
)

// SessionRepository keeps at most one authoring session per chat.
// Get returns (nil, nil) when the chat has none.
type SessionRepository interface {
	Get(ctx context.Context, chatID int64) (*store.AuthoringSession, error)
	Save(ctx context.Context, session *store.AuthoringSession) error
	Delete(ctx context.Context, chatID int64) error
}
