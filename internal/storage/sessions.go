// Package storage persists dashboard sessions in SQLite. It is an
// alternative to the in-memory session store for deployments that want
// sessions to survive a restart of a single process.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"finsight/internal/core"
	"finsight/internal/session"

	_ "modernc.org/sqlite"
)

// SessionStore implements session.Store on SQLite.
type SessionStore struct {
	db     *sql.DB
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewSessionStore opens dsn, runs migrations and returns a ready store.
// Sessions not updated within ttl are removed by CleanExpired; a zero ttl
// keeps them forever.
func NewSessionStore(dsn string, ttl time.Duration, logger *slog.Logger) (*SessionStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if isFilePath(dsn) {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; also keeps a shared in-memory database alive.
	db.SetMaxOpenConns(1)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dsn)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Debug("Session schema ready", "schema_version", version)

	return &SessionStore{db: db, ttl: ttl, now: time.Now, logger: logger}, nil
}

func isFilePath(dsn string) bool {
	return !strings.HasPrefix(dsn, "file:") && dsn != ":memory:"
}

func (s *SessionStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SessionStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Get loads a session with its batches and items.
func (s *SessionStore) Get(ctx context.Context, id string) (*session.Session, error) {
	var (
		goal             string
		created, updated int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT budget_goal, created_at, updated_at FROM sessions WHERE id = ?`, id,
	).Scan(&goal, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	budget, err := decimal.NewFromString(goal)
	if err != nil {
		return nil, fmt.Errorf("parse budget goal %q: %w", goal, err)
	}

	sess := &session.Session{
		ID:         id,
		BudgetGoal: budget,
		CreatedAt:  time.Unix(0, created),
		UpdatedAt:  time.Unix(0, updated),
	}

	if sess.Batches, err = s.loadBatches(ctx, id); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *SessionStore) loadBatches(ctx context.Context, id string) ([]session.Batch, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT position, batch_key, created_at FROM batches WHERE session_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	var (
		batches   []session.Batch
		positions = map[int64]int{}
	)
	for rows.Next() {
		var (
			pos     int64
			b       session.Batch
			created int64
		)
		if err := rows.Scan(&pos, &b.Key, &created); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		b.CreatedAt = time.Unix(0, created)
		positions[pos] = len(batches)
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate batches: %w", err)
	}

	items, err := s.db.QueryContext(ctx,
		`SELECT batch_position, name, price, purchase_date, category, want_or_need
		   FROM items WHERE session_id = ? ORDER BY batch_position, position`, id)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer items.Close()

	for items.Next() {
		var (
			bpos                         int64
			name, price, date, cat, want string
		)
		if err := items.Scan(&bpos, &name, &price, &date, &cat, &want); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		it, err := decodeItem(name, price, date, cat, want)
		if err != nil {
			return nil, err
		}
		idx, ok := positions[bpos]
		if !ok {
			s.logger.WarnContext(ctx, "Item without batch skipped", "session_id", id, "batch_position", bpos)
			continue
		}
		batches[idx].Items = append(batches[idx].Items, it)
	}
	if err := items.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return batches, nil
}

func decodeItem(name, price, date, cat, want string) (core.Item, error) {
	p, err := decimal.NewFromString(price)
	if err != nil {
		return core.Item{}, fmt.Errorf("parse price %q: %w", price, err)
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Item{}, err
	}
	return core.Item{
		Name:       name,
		Price:      p,
		Date:       d,
		Category:   core.Category(cat),
		WantOrNeed: core.WantOrNeed(want),
	}, nil
}

// Save replaces the stored state of the session in one transaction.
func (s *SessionStore) Save(ctx context.Context, sess *session.Session) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (id, budget_goal, created_at, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET budget_goal = excluded.budget_goal, updated_at = excluded.updated_at`,
		sess.ID, sess.BudgetGoal.String(), sess.CreatedAt.UnixNano(), sess.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}

	if err := deleteContents(ctx, tx, sess.ID); err != nil {
		return err
	}

	for bi, b := range sess.Batches {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO batches (session_id, position, batch_key, created_at) VALUES (?, ?, ?, ?)`,
			sess.ID, bi, b.Key, b.CreatedAt.UnixNano()); err != nil {
			return fmt.Errorf("insert batch %s: %w", b.Key, err)
		}
		for ii, it := range b.Items {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO items (session_id, batch_position, position, name, price, purchase_date, category, want_or_need)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				sess.ID, bi, ii, it.Name, it.Price.String(), it.Date.String(),
				string(it.Category), string(it.WantOrNeed)); err != nil {
				return fmt.Errorf("insert item %q: %w", it.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit session: %w", err)
	}
	return nil
}

func deleteContents(ctx context.Context, tx *sql.Tx, id string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("delete items: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM batches WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("delete batches: %w", err)
	}
	return nil
}

// Delete removes the session and everything it owns.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := deleteContents(ctx, tx, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return tx.Commit()
}

// CleanExpired removes sessions idle for longer than the store's TTL and
// returns how many were removed.
func (s *SessionStore) CleanExpired() int {
	if s.ttl <= 0 {
		return 0
	}
	ctx := context.Background()
	cutoff := s.now().Add(-s.ttl).UnixNano()

	rows, err := s.db.QueryContext(ctx, `SELECT id FROM sessions WHERE updated_at < ?`, cutoff)
	if err != nil {
		s.logger.Error("List expired sessions failed", "error", err)
		return 0
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			s.logger.Error("Scan expired session failed", "error", err)
			continue
		}
		ids = append(ids, id)
	}
	rows.Close()

	removed := 0
	for _, id := range ids {
		if err := s.Delete(ctx, id); err != nil {
			s.logger.Error("Delete expired session failed", "session_id", id, "error", err)
			continue
		}
		removed++
	}
	return removed
}
