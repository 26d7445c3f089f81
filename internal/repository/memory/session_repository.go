package memory

import (
	"context"
	"strconv"
	"time"

	"curator-bot/pkg/store"

	"github.com/patrickmn/go-cache"
)

type SessionRepository struct {
	cache *cache.Cache
}

// NewSessionRepository expires idle sessions after ttl, purging every ttl/6.
func NewSessionRepository(ttl time.Duration) *SessionRepository {
	c := cache.New(ttl, ttl/6)
	return &SessionRepository{
		cache: c,
	}
}

func (r *SessionRepository) Save(_ context.Context, session *store.AuthoringSession) error {
	r.cache.Set(key(session.ChatID), session.Clone(), cache.DefaultExpiration)
	return nil
}

func (r *SessionRepository) Get(_ context.Context, chatID int64) (*store.AuthoringSession, error) {
	if x, found := r.cache.Get(key(chatID)); found {
		return x.(*store.AuthoringSession).Clone(), nil
	}
	return nil, nil
}

func (r *SessionRepository) Delete(_ context.Context, chatID int64) error {
	r.cache.Delete(key(chatID))
	return nil
}

func key(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}
