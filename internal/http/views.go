package http

import (
	"net/url"

	"github.com/shopspring/decimal"

	"finsight/internal/core"
	"finsight/internal/insights"
	"finsight/internal/session"
	"finsight/internal/stats"
)

const (
	emptyDashboardText = "No spending data available. Upload receipts to see your dashboard."
	emptyInsightsText  = "Upload some receipts to get personalized spending insights and learn how to save money!"
	noBudgetText       = "Set a budget goal to track your progress"
)

// page wraps a view with the layout fields every full page needs.
type page struct {
	Title  string
	Active string
	View   any
}

type metricCard struct {
	Label string
	Value string
}

type budgetView struct {
	HasGoal bool
	Goal    string
	Spent   string
	Target  string
	Percent string
	Hint    string
}

type filterOption struct {
	Value   string
	Checked bool
}

type filterView struct {
	Categories []filterOption
	WantOrNeed []filterOption
}

type itemRow struct {
	Index int
	Item  core.Item
}

type categoryBar struct {
	Category core.Category
	Total    string
	Count    int
	Percent  string
}

type dashboardView struct {
	Empty     bool
	EmptyText string
	Metrics   []metricCard
	Budget    budgetView
	Filters   filterView
	Rows      []itemRow
	Shown     int
	Total     int
	ShownSum  string
	Want      string
	Need      string
	Bars      []categoryBar
}

// Filter checkbox names. They differ from the item form fields so an edit
// or add posted together with #filters does not leak into the selection.
const (
	filterCategoryField = "f_category"
	filterWantField     = "f_want"
)

// filters are the dashboard's category and want/need selections. Unknown
// values are dropped; an empty selection means everything.
type filters struct {
	categories []core.Category
	wantOrNeed []core.WantOrNeed
}

func parseFilters(values url.Values) filters {
	var f filters
	for _, v := range values[filterCategoryField] {
		if c, err := core.ParseCategory(v); err == nil {
			f.categories = append(f.categories, c)
		}
	}
	for _, v := range values[filterWantField] {
		if w, err := core.ParseWantOrNeed(v); err == nil {
			f.wantOrNeed = append(f.wantOrNeed, w)
		}
	}
	return f
}

func (f filters) view() filterView {
	var v filterView
	for _, c := range core.Categories() {
		v.Categories = append(v.Categories, filterOption{Value: string(c), Checked: containsOrEmpty(f.categories, c)})
	}
	for _, w := range core.WantOrNeedValues() {
		v.WantOrNeed = append(v.WantOrNeed, filterOption{Value: string(w), Checked: containsOrEmpty(f.wantOrNeed, w)})
	}
	return v
}

func containsOrEmpty[T comparable](set []T, v T) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// buildDashboard computes the dashboard for a session. Metrics and budget
// cover every item; rows, breakdowns and the want/need split follow the filters.
func buildDashboard(s *session.Session, f filters, today core.Date) dashboardView {
	items := s.Items()
	v := dashboardView{
		Filters: f.view(),
		Total:   len(items),
		Budget:  budgetFor(decimal.Zero, s.BudgetGoal),
	}
	if len(items) == 0 {
		v.Empty = true
		v.EmptyText = emptyDashboardText
		return v
	}

	sum := stats.Compute(items, today)
	v.Metrics = []metricCard{
		{Label: "Current Month", Value: core.FormatDollars(sum.CurrentMonth)},
		{Label: "Last Month", Value: core.FormatDollars(sum.LastMonth)},
		{Label: "This Week", Value: core.FormatDollars(sum.ThisWeek)},
	}
	v.Budget = budgetFor(sum.CurrentMonth, s.BudgetGoal)

	idx := stats.Indexes(items, f.categories, f.wantOrNeed)
	shown := make([]core.Item, 0, len(idx))
	for _, i := range idx {
		v.Rows = append(v.Rows, itemRow{Index: i, Item: items[i]})
		shown = append(shown, items[i])
	}
	v.Shown = len(shown)
	shownSum := core.Sum(shown)
	v.ShownSum = core.FormatDollars(shownSum)

	want, need := stats.WantNeedSplit(shown)
	v.Want = core.FormatDollars(want)
	v.Need = core.FormatDollars(need)

	for _, ct := range stats.ByCategory(shown) {
		bar := categoryBar{Category: ct.Category, Total: core.FormatDollars(ct.Total), Count: ct.Count, Percent: "0"}
		if shownSum.IsPositive() {
			bar.Percent = ct.Total.Div(shownSum).Mul(decimal.NewFromInt(100)).StringFixed(1)
		}
		v.Bars = append(v.Bars, bar)
	}
	return v
}

func budgetFor(spent, goal decimal.Decimal) budgetView {
	b := budgetView{Goal: goal.StringFixed(2)}
	pct, ok := stats.BudgetProgress(spent, goal)
	if !ok {
		b.Hint = noBudgetText
		return b
	}
	b.HasGoal = true
	b.Spent = core.FormatDollars(spent)
	b.Target = core.FormatDollars(goal)
	b.Percent = pct.StringFixed(1)
	return b
}

type uploadView struct {
	Notices  []core.Notice
	BatchKey string
	Items    []core.Item
	Total    string
	Batches  []batchView
	All      []core.Item
	AllTotal string
}

type batchView struct {
	Key   string
	Items []core.Item
	Total string
}

// buildUploadResult shows the batch just added, every receipt batch of the
// session and, when there is more than one, all items together.
func buildUploadResult(s *session.Session, notices []core.Notice, batchKey string, added []core.Item) uploadView {
	v := uploadView{Notices: notices, BatchKey: batchKey, Items: added, Total: core.FormatDollars(core.Sum(added))}
	if s == nil {
		return v
	}
	for _, b := range s.ReceiptBatches() {
		v.Batches = append(v.Batches, batchView{Key: b.Key, Items: b.Items, Total: core.FormatDollars(core.Sum(b.Items))})
	}
	if len(v.Batches) > 1 {
		v.All = s.Items()
		v.AllTotal = core.FormatDollars(core.Sum(v.All))
	}
	return v
}

type insightsView struct {
	Empty     bool
	EmptyText string
	ItemCount int
	Cards     []insights.Card
	Tips      []insights.Tip
	Error     string
	Summary   string
}
