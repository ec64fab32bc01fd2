// Package stats aggregates spending over item lists.
package stats

import (
	"sort"

	"github.com/shopspring/decimal"

	"finsight/internal/core"
)

// Summary holds spend totals relative to a processing date.
type Summary struct {
	CurrentMonth decimal.Decimal
	LastMonth    decimal.Decimal
	ThisWeek     decimal.Decimal
}

// Periods are the boundaries Compute uses for a given day.
type Periods struct {
	CurrentMonthStart core.Date
	LastMonthStart    core.Date
	WeekStart         core.Date
}

// PeriodsFor returns the month and week boundaries for today. Weeks start on Monday.
func PeriodsFor(today core.Date) Periods {
	currentMonthStart := core.NewDate(today.Year(), int(today.Month()), 1)
	offset := (int(today.Weekday()) + 6) % 7
	return Periods{
		CurrentMonthStart: currentMonthStart,
		LastMonthStart:    core.Date{Time: currentMonthStart.AddDate(0, -1, 0)},
		WeekStart:         today.AddDays(-offset),
	}
}

// Compute sums item prices into current month, last month and current week
// buckets. Items dated in the future count toward the current month and week.
func Compute(items []core.Item, today core.Date) Summary {
	p := PeriodsFor(today)
	s := Summary{
		CurrentMonth: decimal.Zero,
		LastMonth:    decimal.Zero,
		ThisWeek:     decimal.Zero,
	}
	for _, it := range items {
		d := it.Date
		if !d.Before(p.CurrentMonthStart) {
			s.CurrentMonth = s.CurrentMonth.Add(it.Price)
		} else if !d.Before(p.LastMonthStart) {
			s.LastMonth = s.LastMonth.Add(it.Price)
		}
		if !d.Before(p.WeekStart) {
			s.ThisWeek = s.ThisWeek.Add(it.Price)
		}
	}
	return s
}

// BudgetProgress returns spent as a percentage of goal, capped at 100. ok is
// false when no goal is set.
func BudgetProgress(spent, goal decimal.Decimal) (percent decimal.Decimal, ok bool) {
	if !goal.IsPositive() {
		return decimal.Zero, false
	}
	pct := spent.Div(goal).Mul(decimal.NewFromInt(100))
	hundred := decimal.NewFromInt(100)
	if pct.GreaterThan(hundred) {
		pct = hundred
	}
	return pct, true
}

// CategoryTotal is the spend in one category.
type CategoryTotal struct {
	Category core.Category
	Total    decimal.Decimal
	Count    int
}

// ByCategory totals items per category, largest first. Categories with no
// items are omitted.
func ByCategory(items []core.Item) []CategoryTotal {
	totals := make(map[core.Category]*CategoryTotal)
	for _, it := range items {
		ct, ok := totals[it.Category]
		if !ok {
			ct = &CategoryTotal{Category: it.Category, Total: decimal.Zero}
			totals[it.Category] = ct
		}
		ct.Total = ct.Total.Add(it.Price)
		ct.Count++
	}

	out := make([]CategoryTotal, 0, len(totals))
	for _, ct := range totals {
		out = append(out, *ct)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Total.Cmp(out[j].Total); c != 0 {
			return c > 0
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// WantNeedSplit totals discretionary and essential spend.
func WantNeedSplit(items []core.Item) (want, need decimal.Decimal) {
	want, need = decimal.Zero, decimal.Zero
	for _, it := range items {
		if it.WantOrNeed == core.Want {
			want = want.Add(it.Price)
		} else {
			need = need.Add(it.Price)
		}
	}
	return want, need
}

// Filter keeps items whose category and want/need tag are in the given sets.
// An empty set means no restriction.
func Filter(items []core.Item, categories []core.Category, wantOrNeed []core.WantOrNeed) []core.Item {
	idx := Indexes(items, categories, wantOrNeed)
	out := make([]core.Item, 0, len(idx))
	for _, i := range idx {
		out = append(out, items[i])
	}
	return out
}

// Indexes returns the positions of the items Filter keeps, in order. Editable
// views use them to address rows in the unfiltered list.
func Indexes(items []core.Item, categories []core.Category, wantOrNeed []core.WantOrNeed) []int {
	catOK := make(map[core.Category]bool, len(categories))
	for _, c := range categories {
		catOK[c] = true
	}
	wonOK := make(map[core.WantOrNeed]bool, len(wantOrNeed))
	for _, w := range wantOrNeed {
		wonOK[w] = true
	}

	out := make([]int, 0, len(items))
	for i, it := range items {
		if len(catOK) > 0 && !catOK[it.Category] {
			continue
		}
		if len(wonOK) > 0 && !wonOK[it.WantOrNeed] {
			continue
		}
		out = append(out, i)
	}
	return out
}
