package session

import (
	"context"
	"log/slog"
	"time"

	"finsight/internal/cache"
)

// MemoryStore keeps sessions in an LRU cache. Sessions idle longer than the
// TTL, or pushed out by newer ones beyond the size limit, are dropped.
type MemoryStore struct {
	cache *cache.LRUCache[*Session]
}

// NewMemoryStore creates a store holding at most maxSessions sessions.
func NewMemoryStore(maxSessions int, ttl time.Duration, logger *slog.Logger) *MemoryStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryStore{
		cache: cache.NewLRUCache[*Session](maxSessions, ttl,
			cache.WithEvictCallback(func(id string, s *Session) {
				logger.Debug("Session evicted", "session_id", id, "batches", len(s.Batches))
			}),
		),
	}
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	s, ok := m.cache.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return s.Clone(), nil
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	m.cache.Set(s.ID, s.Clone())
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.cache.Delete(id)
	return nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }

// CleanExpired drops idle sessions; it lets the cache manager janitor the store.
func (m *MemoryStore) CleanExpired() int {
	return m.cache.CleanExpired()
}

// Len returns the number of live sessions.
func (m *MemoryStore) Len() int {
	return m.cache.Size()
}
