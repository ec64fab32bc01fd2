package session

import (
	"context"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Store keeps sessions for the lifetime of the process.
type Store interface {
	// Get returns a copy of the session, or ErrNotFound.
	Get(ctx context.Context, id string) (*Session, error)
	// Save stores a copy of the session, replacing any previous state.
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
	Close() error
}

const lockStripes = 64

// Registry serializes read-modify-write cycles per session on top of a Store.
type Registry struct {
	store       Store
	defaultGoal decimal.Decimal
	locks       [lockStripes]sync.Mutex
	now         func() time.Time
	logger      *slog.Logger
}

// NewRegistry creates a registry. New sessions start with defaultGoal.
func NewRegistry(store Store, defaultGoal decimal.Decimal, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{store: store, defaultGoal: defaultGoal, now: time.Now, logger: logger}
}

func (r *Registry) lock(id string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return &r.locks[h.Sum32()%lockStripes]
}

// Load returns the session for id, creating and saving an empty one when it
// does not exist yet.
func (r *Registry) Load(ctx context.Context, id string) (*Session, error) {
	mu := r.lock(id)
	mu.Lock()
	defer mu.Unlock()
	return r.loadLocked(ctx, id)
}

func (r *Registry) loadLocked(ctx context.Context, id string) (*Session, error) {
	s, err := r.store.Get(ctx, id)
	if err == nil {
		return s, nil
	}
	if err != ErrNotFound {
		return nil, err
	}
	s = New(id, r.defaultGoal, r.now())
	if err := r.store.Save(ctx, s); err != nil {
		return nil, err
	}
	r.logger.DebugContext(ctx, "Session created", "session_id", id)
	return s, nil
}

// Update applies fn to the session and saves the result. If fn returns an
// error nothing is saved.
func (r *Registry) Update(ctx context.Context, id string, fn func(*Session) error) (*Session, error) {
	mu := r.lock(id)
	mu.Lock()
	defer mu.Unlock()

	s, err := r.loadLocked(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(s); err != nil {
		return nil, err
	}
	if err := r.store.Save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Delete discards the session.
func (r *Registry) Delete(ctx context.Context, id string) error {
	mu := r.lock(id)
	mu.Lock()
	defer mu.Unlock()
	return r.store.Delete(ctx, id)
}

// Ping checks the underlying store.
func (r *Registry) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}

// Now is the registry's clock, shared with handlers that stamp edits.
func (r *Registry) Now() time.Time {
	return r.now()
}
