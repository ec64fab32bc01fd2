package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/schollz/progressbar/v3"

	"finsight/internal/core"
	"finsight/internal/stats"
)

// Progress draws a terminal progress bar for item classification. The bar is
// created on the first report, when the batch size is known.
type Progress struct {
	writer io.Writer
	bar    *progressbar.ProgressBar
}

// NewProgress creates a progress bar that writes to w.
func NewProgress(w io.Writer) *Progress {
	return &Progress{writer: w}
}

// Report matches classify.ProgressFunc.
func (p *Progress) Report(done, total int) {
	if p.bar == nil {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(p.writer),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetDescription("[cyan][bold]Categorizing items...[reset]"),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
			progressbar.OptionOnCompletion(func() {
				if _, err := fmt.Fprintln(p.writer); err != nil {
					slog.Warn("Failed to write newline after progress bar", "error", err)
				}
			}),
		)
	}
	if err := p.bar.Set(done); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
}

// ItemsTable renders items as a bordered table with the row index the web
// dashboard uses for editing.
func ItemsTable(items []core.Item) string {
	rows := make([][]string, 0, len(items))
	for i, it := range items {
		rows = append(rows, []string{
			strconv.Itoa(i),
			it.Name,
			core.FormatDollars(it.Price),
			it.Date.String(),
			it.Category.String(),
			it.WantOrNeed.String(),
		})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(SubtleStyle).
		Headers("#", "Item", "Price", "Date", "Category", "Want/Need").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return HeaderStyle
			case col == 2:
				return AmountStyle
			case col == 5 && row >= 0 && row < len(items) && items[row].WantOrNeed == core.Want:
				return WantStyle
			default:
				return CellStyle
			}
		}).
		String()
}

// Totals renders the receipt total, the want/need split and the per-category
// breakdown.
func Totals(items []core.Item) string {
	want, need := stats.WantNeedSplit(items)
	out := BoldStyle.Render("Total: "+core.FormatDollars(core.Sum(items))) + "\n" +
		WarningStyle.Render("Want:  "+core.FormatDollars(want)) + "\n" +
		SuccessStyle.Render("Need:  "+core.FormatDollars(need)) + "\n"

	for _, ct := range stats.ByCategory(items) {
		out += SubtleStyle.Render(fmt.Sprintf("  %-16s %10s  (%d)", ct.Category, core.FormatDollars(ct.Total), ct.Count)) + "\n"
	}
	return out
}

// WriteNotices prints notices one per line, styled by level.
func WriteNotices(w io.Writer, notices []core.Notice) error {
	for _, n := range notices {
		if _, err := fmt.Fprintln(w, NoticeStyle(n.Level).Render(n.Message)); err != nil {
			return err
		}
	}
	return nil
}
