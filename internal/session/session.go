// Package session holds the per-visitor dashboard state: uploaded receipt
// batches, their items and the monthly budget goal.
package session

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finsight/internal/core"
)

// DefaultBudgetGoal is the monthly goal a new session starts with.
var DefaultBudgetGoal = decimal.NewFromInt(4000)

var (
	ErrNotFound         = errors.New("session not found")
	ErrItemIndex        = errors.New("item index out of range")
	ErrNegativeBudget   = errors.New("budget goal cannot be negative")
	ErrInvalidSessionID = errors.New("invalid session id")
)

const (
	receiptBatchPrefix = "receipt_batch_"
	manualBatchPrefix  = "manual_batch_"
)

// Batch is the set of items produced by one receipt upload, or by rows the
// user added by hand.
type Batch struct {
	Key       string
	CreatedAt time.Time
	Items     []core.Item
}

// Session is the state owned by one visitor. It is never shared: stores hand
// out copies.
type Session struct {
	ID         string
	Batches    []Batch
	BudgetGoal decimal.Decimal
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewID returns a fresh random session identifier.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id looks like an identifier produced by NewID.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil && len(id) == 36
}

// New creates an empty session.
func New(id string, goal decimal.Decimal, now time.Time) *Session {
	return &Session{
		ID:         id,
		BudgetGoal: goal,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// ReceiptBatchKey derives a batch key from the processing time.
func ReceiptBatchKey(t time.Time) string {
	return receiptBatchPrefix + strconv.FormatInt(t.UnixNano(), 10)
}

// Items returns the flattened union of all batches, oldest batch first. The
// dashboard treats this list as authoritative.
func (s *Session) Items() []core.Item {
	n := 0
	for _, b := range s.Batches {
		n += len(b.Items)
	}
	out := make([]core.Item, 0, n)
	for _, b := range s.Batches {
		out = append(out, b.Items...)
	}
	return out
}

// ReceiptBatches returns the batches created from uploads.
func (s *Session) ReceiptBatches() []Batch {
	var out []Batch
	for _, b := range s.Batches {
		if len(b.Key) > len(receiptBatchPrefix) && b.Key[:len(receiptBatchPrefix)] == receiptBatchPrefix {
			out = append(out, b)
		}
	}
	return out
}

// AppendBatch records the items of one processed receipt. Empty batches are
// not recorded.
func (s *Session) AppendBatch(key string, items []core.Item, now time.Time) {
	if len(items) == 0 {
		return
	}
	cp := make([]core.Item, len(items))
	copy(cp, items)
	s.Batches = append(s.Batches, Batch{Key: key, CreatedAt: now, Items: cp})
	s.UpdatedAt = now
}

// AddItem appends a hand-entered row as its own batch.
func (s *Session) AddItem(item core.Item, now time.Time) error {
	if err := item.Validate(); err != nil {
		return err
	}
	key := manualBatchPrefix + strconv.FormatInt(now.UnixNano(), 10)
	s.Batches = append(s.Batches, Batch{Key: key, CreatedAt: now, Items: []core.Item{item}})
	s.UpdatedAt = now
	return nil
}

// locate maps an index into Items() to its batch and position.
func (s *Session) locate(index int) (batch, pos int, err error) {
	if index < 0 {
		return 0, 0, fmt.Errorf("%w: %d", ErrItemIndex, index)
	}
	for bi, b := range s.Batches {
		if index < len(b.Items) {
			return bi, index, nil
		}
		index -= len(b.Items)
	}
	return 0, 0, fmt.Errorf("%w", ErrItemIndex)
}

// UpdateItem replaces the item at index in the flattened list.
func (s *Session) UpdateItem(index int, item core.Item, now time.Time) error {
	if err := item.Validate(); err != nil {
		return err
	}
	bi, pos, err := s.locate(index)
	if err != nil {
		return err
	}
	s.Batches[bi].Items[pos] = item
	s.UpdatedAt = now
	return nil
}

// DeleteItem removes the item at index in the flattened list. A batch left
// without items is dropped.
func (s *Session) DeleteItem(index int, now time.Time) error {
	bi, pos, err := s.locate(index)
	if err != nil {
		return err
	}
	items := s.Batches[bi].Items
	s.Batches[bi].Items = append(items[:pos:pos], items[pos+1:]...)
	if len(s.Batches[bi].Items) == 0 {
		s.Batches = append(s.Batches[:bi:bi], s.Batches[bi+1:]...)
	}
	s.UpdatedAt = now
	return nil
}

// SetBudgetGoal sets the monthly budget goal.
func (s *Session) SetBudgetGoal(goal decimal.Decimal, now time.Time) error {
	if goal.IsNegative() {
		return ErrNegativeBudget
	}
	s.BudgetGoal = goal
	s.UpdatedAt = now
	return nil
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	cp := *s
	cp.Batches = make([]Batch, len(s.Batches))
	for i, b := range s.Batches {
		cp.Batches[i] = Batch{Key: b.Key, CreatedAt: b.CreatedAt, Items: append([]core.Item(nil), b.Items...)}
	}
	return &cp
}
