package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"curator-bot/pkg/store"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "authoring:session:"

// SessionRepository shares authoring sessions between bot instances.
type SessionRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSessionRepository(rdb *redis.Client, ttl time.Duration) *SessionRepository {
	return &SessionRepository{rdb: rdb, ttl: ttl}
}

// NewClient parses a redis:// URL, falling back to a bare host:port address.
func NewClient(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		opt = &redis.Options{Addr: url}
	}
	return redis.NewClient(opt)
}

func (r *SessionRepository) Save(ctx context.Context, session *store.AuthoringSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := r.rdb.Set(ctx, key(session.ChatID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session %d: %w", session.ChatID, err)
	}
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, chatID int64) (*store.AuthoringSession, error) {
	data, err := r.rdb.Get(ctx, key(chatID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load session %d: %w", chatID, err)
	}

	var session store.AuthoringSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session %d: %w", chatID, err)
	}
	return &session, nil
}

func (r *SessionRepository) Delete(ctx context.Context, chatID int64) error {
	return r.rdb.Del(ctx, key(chatID)).Err()
}

func key(chatID int64) string {
	return fmt.Sprintf("%s%d", keyPrefix, chatID)
}
