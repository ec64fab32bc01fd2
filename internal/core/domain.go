package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the ISO-8601 calendar date layout used on the wire and in prompts.
const DateLayout = "2006-01-02"

type (
	// Date is a calendar date stored as UTC midnight.
	Date struct {
		time.Time
	}

	// Category is one of the fixed spending classifications.
	Category string

	// WantOrNeed tags an item as discretionary or essential.
	WantOrNeed string

	// Item is a single purchased line item. Items have no identity beyond
	// their position in the owning list.
	Item struct {
		Name       string          `json:"Name"`
		Price      decimal.Decimal `json:"Price"`
		Date       Date            `json:"Date"`
		Category   Category        `json:"Category"`
		WantOrNeed WantOrNeed      `json:"Want or Need"`
	}
)

const (
	Groceries     Category = "Groceries"
	Snacks        Category = "Snacks"
	Household     Category = "Household"
	Subscriptions Category = "Subscriptions"
	Other         Category = "Other"
)

const (
	Want WantOrNeed = "Want"
	Need WantOrNeed = "Need"
)

var (
	ErrInvalidCategory   = errors.New("invalid category")
	ErrInvalidWantOrNeed = errors.New("invalid want or need")
	ErrInvalidPrice      = errors.New("invalid price")
	ErrNegativePrice     = errors.New("price cannot be negative")
	ErrEmptyName         = errors.New("empty item name")
	ErrInvalidDate       = errors.New("invalid date")
)

// Categories returns the fixed category set in display order.
func Categories() []Category {
	return []Category{Groceries, Snacks, Household, Subscriptions, Other}
}

// WantOrNeedValues returns both want/need tags in display order.
func WantOrNeedValues() []WantOrNeed {
	return []WantOrNeed{Want, Need}
}

// Valid reports whether c is a member of the fixed category set.
func (c Category) Valid() bool {
	switch c {
	case Groceries, Snacks, Household, Subscriptions, Other:
		return true
	}
	return false
}

func (c Category) String() string { return string(c) }

// ParseCategory matches s against the fixed set, ignoring case and
// surrounding whitespace or punctuation.
func ParseCategory(s string) (Category, error) {
	s = strings.Trim(strings.TrimSpace(s), ".!\"'`*")
	for _, c := range Categories() {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

func (w WantOrNeed) Valid() bool {
	return w == Want || w == Need
}

func (w WantOrNeed) String() string { return string(w) }

// ParseWantOrNeed accepts "Want" or "Need" in any case, optionally followed by
// trailing text ("Need." or "Want - it's a treat").
func ParseWantOrNeed(s string) (WantOrNeed, error) {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	for _, w := range WantOrNeedValues() {
		tag := strings.ToLower(string(w))
		if lower == tag {
			return w, nil
		}
		if strings.HasPrefix(lower, tag) {
			rest := lower[len(tag):]
			if rest[0] < 'a' || rest[0] > 'z' {
				return w, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidWantOrNeed, s)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// Today returns the current calendar date.
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// AddDays returns the date n days after d (n may be negative).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// Before reports whether d is strictly before other.
func (d Date) Before(other Date) bool { return d.Time.Before(other.Time) }

// MarshalJSON encodes the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts "YYYY-MM-DD" or a full RFC 3339 timestamp.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, string(b))
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	if parsed, err := ParseDate(s); err == nil {
		*d = parsed
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	*d = DateOf(t)
	return nil
}

// NewItem builds an item with the extractor defaults: dated today,
// category Other, tagged Need.
func NewItem(name string, price decimal.Decimal, date Date) Item {
	return Item{
		Name:       name,
		Price:      price,
		Date:       date,
		Category:   Other,
		WantOrNeed: Need,
	}
}

func (it Item) Validate() error {
	if strings.TrimSpace(it.Name) == "" {
		return ErrEmptyName
	}
	if len(it.Name) > 200 {
		return errors.New("item name too long (max 200 characters)")
	}
	if it.Price.IsNegative() {
		return ErrNegativePrice
	}
	if it.Date.IsZero() {
		return ErrInvalidDate
	}
	if !it.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, it.Category)
	}
	if !it.WantOrNeed.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidWantOrNeed, it.WantOrNeed)
	}
	return nil
}
