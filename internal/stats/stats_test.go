package stats

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/internal/core"
)

func item(y, m, d int, price string, cat core.Category, won core.WantOrNeed) core.Item {
	return core.Item{
		Name:       "x",
		Price:      decimal.RequireFromString(price),
		Date:       core.NewDate(y, m, d),
		Category:   cat,
		WantOrNeed: won,
	}
}

func TestComputeEmpty(t *testing.T) {
	s := Compute(nil, core.NewDate(2024, 2, 28))
	assert.True(t, s.CurrentMonth.IsZero())
	assert.True(t, s.LastMonth.IsZero())
	assert.True(t, s.ThisWeek.IsZero())
}

func TestComputeMonthAndWeekBuckets(t *testing.T) {
	items := []core.Item{
		item(2024, 1, 15, "10", core.Other, core.Need),
		item(2024, 2, 15, "20", core.Other, core.Need),
		item(2024, 2, 20, "5", core.Other, core.Need),
	}
	s := Compute(items, core.NewDate(2024, 2, 28))
	assert.Equal(t, "25", s.CurrentMonth.String())
	assert.Equal(t, "10", s.LastMonth.String())
	assert.Equal(t, "0", s.ThisWeek.String())
}

func TestComputeWeekSpansMonthBoundary(t *testing.T) {
	// 2024-03-01 is a Friday; the week started Monday 2024-02-26.
	items := []core.Item{
		item(2024, 2, 25, "1", core.Other, core.Need), // Sunday before
		item(2024, 2, 26, "2", core.Other, core.Need),
		item(2024, 3, 1, "4", core.Other, core.Need),
	}
	s := Compute(items, core.NewDate(2024, 3, 1))
	assert.Equal(t, "4", s.CurrentMonth.String())
	assert.Equal(t, "3", s.LastMonth.String())
	assert.Equal(t, "6", s.ThisWeek.String())
}

func TestComputeJanuaryLooksBackToDecember(t *testing.T) {
	items := []core.Item{
		item(2023, 12, 31, "7", core.Other, core.Need),
		item(2023, 11, 30, "100", core.Other, core.Need),
	}
	s := Compute(items, core.NewDate(2024, 1, 10))
	assert.Equal(t, "7", s.LastMonth.String())
	assert.True(t, s.CurrentMonth.IsZero())
}

func TestPeriodsForMonday(t *testing.T) {
	p := PeriodsFor(core.NewDate(2024, 2, 26))
	assert.Equal(t, "2024-02-26", p.WeekStart.String())
	assert.Equal(t, "2024-02-01", p.CurrentMonthStart.String())
	assert.Equal(t, "2024-01-01", p.LastMonthStart.String())

	sunday := PeriodsFor(core.NewDate(2024, 3, 3))
	assert.Equal(t, "2024-02-26", sunday.WeekStart.String())
}

func TestBudgetProgress(t *testing.T) {
	pct, ok := BudgetProgress(decimal.NewFromInt(1000), decimal.NewFromInt(4000))
	require.True(t, ok)
	assert.Equal(t, "25", pct.String())

	pct, ok = BudgetProgress(decimal.NewFromInt(5000), decimal.NewFromInt(4000))
	require.True(t, ok)
	assert.Equal(t, "100", pct.String())

	_, ok = BudgetProgress(decimal.NewFromInt(10), decimal.Zero)
	assert.False(t, ok)
}

func TestByCategory(t *testing.T) {
	items := []core.Item{
		item(2024, 2, 1, "3", core.Snacks, core.Want),
		item(2024, 2, 1, "10", core.Groceries, core.Need),
		item(2024, 2, 1, "2", core.Snacks, core.Want),
	}
	got := ByCategory(items)
	require.Len(t, got, 2)
	assert.Equal(t, core.Groceries, got[0].Category)
	assert.Equal(t, core.Snacks, got[1].Category)
	assert.Equal(t, "5", got[1].Total.String())
	assert.Equal(t, 2, got[1].Count)
}

func TestWantNeedSplit(t *testing.T) {
	want, need := WantNeedSplit([]core.Item{
		item(2024, 2, 1, "3", core.Snacks, core.Want),
		item(2024, 2, 1, "10", core.Groceries, core.Need),
	})
	assert.Equal(t, "3", want.String())
	assert.Equal(t, "10", need.String())
}

func TestFilter(t *testing.T) {
	items := []core.Item{
		item(2024, 2, 1, "3", core.Snacks, core.Want),
		item(2024, 2, 1, "10", core.Groceries, core.Need),
		item(2024, 2, 1, "4", core.Household, core.Need),
	}
	assert.Len(t, Filter(items, nil, nil), 3)
	assert.Len(t, Filter(items, []core.Category{core.Snacks, core.Household}, nil), 2)
	assert.Len(t, Filter(items, nil, []core.WantOrNeed{core.Need}), 2)
	assert.Len(t, Filter(items, []core.Category{core.Snacks}, []core.WantOrNeed{core.Need}), 0)
}

func TestIndexesKeepsPositions(t *testing.T) {
	items := []core.Item{
		item(2024, 2, 1, "1", core.Groceries, core.Need),
		item(2024, 2, 1, "2", core.Snacks, core.Want),
		item(2024, 2, 1, "3", core.Groceries, core.Want),
	}

	assert.Equal(t, []int{0, 1, 2}, Indexes(items, nil, nil))
	assert.Equal(t, []int{1, 2}, Indexes(items, nil, []core.WantOrNeed{core.Want}))
	assert.Equal(t, []int{2}, Indexes(items, []core.Category{core.Groceries}, []core.WantOrNeed{core.Want}))
	assert.Empty(t, Indexes(items, []core.Category{core.Household}, nil))
}
