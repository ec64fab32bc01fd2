package cli

import (
	"github.com/charmbracelet/lipgloss"

	"finsight/internal/core"
)

var (
	// PrimaryColor is the main theme color.
	PrimaryColor = lipgloss.Color("#5B8DEF")
	// SuccessColor indicates successful operations.
	SuccessColor = lipgloss.Color("#4ECDC4")
	// WarningColor indicates warnings or caution messages.
	WarningColor = lipgloss.Color("#FFE66D")
	// ErrorColor indicates errors or failure messages.
	ErrorColor = lipgloss.Color("#FF6B6B")
	// SubtleColor indicates less prominent UI elements.
	SubtleColor = lipgloss.Color("#666666")

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			MarginBottom(1)

	SuccessStyle = lipgloss.NewStyle().Foreground(SuccessColor)
	WarningStyle = lipgloss.NewStyle().Foreground(WarningColor)
	ErrorStyle   = lipgloss.NewStyle().Foreground(ErrorColor)
	SubtleStyle  = lipgloss.NewStyle().Foreground(SubtleColor)
	BoldStyle    = lipgloss.NewStyle().Bold(true)

	// HeaderStyle is used for table header cells.
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			Padding(0, 1)

	// CellStyle is used for table body cells.
	CellStyle = lipgloss.NewStyle().Padding(0, 1)

	// AmountStyle right-aligns money columns.
	AmountStyle = CellStyle.Align(lipgloss.Right)

	// WantStyle marks discretionary purchases.
	WantStyle = CellStyle.Foreground(WarningColor)
)

// NoticeStyle returns the style matching a notice level.
func NoticeStyle(level core.NoticeLevel) lipgloss.Style {
	switch level {
	case core.NoticeSuccess:
		return SuccessStyle
	case core.NoticeWarning:
		return WarningStyle
	case core.NoticeError:
		return ErrorStyle
	default:
		return SubtleStyle
	}
}
