// Package insights asks a language model for commentary on spending.
package insights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"finsight/internal/core"
	"finsight/internal/llm"
)

// FallbackText replaces free-text insights when the model call fails.
const FallbackText = "Unable to generate insights at this time."

const (
	KeyInsights       = "Key Insights"
	SpendingPatterns  = "Spending Patterns"
	PotentialSavings  = "Potential Savings"
	SmartSpendingTips = "Smart Spending Tips"
)

var (
	ErrInsightsUnavailable = errors.New("insights unavailable")
	ErrNoItems             = errors.New("no items to analyze")
)

// Card is one of the fixed insight sections ready for display.
type Card struct {
	Icon  string
	Title string
	Body  string
}

var cardIcons = []struct{ icon, title string }{
	{"🔑", KeyInsights},
	{"📊", SpendingPatterns},
	{"💰", PotentialSavings},
	{"📚", SmartSpendingTips},
}

const summaryPrompt = `Analyze these spending items and provide small, categorized, bulleted insights.
Keep the whole answer under two short paragraphs combined.

Items (JSON):
%s

Provide short bulleted points on:
1. Potential Savings
2. Educational Tips`

const structuredPrompt = `You are a friendly personal finance coach. Analyze these purchases and answer in
markdown using exactly these four headings, in this order:

# 🔑 Key Insights
# 📊 Spending Patterns
# 💰 Potential Savings
# 📚 Smart Spending Tips

Under each heading write 2-4 concise bullet points. The whole answer must take
less than 2.5 minutes to read. Do not add any other headings.

Items (JSON):
%s`

// Generator produces spending insights from an item list.
type Generator struct {
	client llm.Client
	logger *slog.Logger
}

// NewGenerator creates a generator backed by client.
func NewGenerator(client llm.Client, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{client: client, logger: logger}
}

// Summarize returns the model's free-text insights verbatim. On failure the
// returned text is FallbackText and the error wraps ErrInsightsUnavailable.
func (g *Generator) Summarize(ctx context.Context, items []core.Item) (string, error) {
	if len(items) == 0 {
		return FallbackText, ErrNoItems
	}
	payload, err := EncodeItems(items)
	if err != nil {
		return FallbackText, fmt.Errorf("%w: %w", ErrInsightsUnavailable, err)
	}

	text, err := g.client.Generate(ctx, fmt.Sprintf(summaryPrompt, payload))
	if err != nil {
		g.logger.WarnContext(ctx, "Insight generation failed", "error", err, "item_count", len(items))
		return FallbackText, fmt.Errorf("%w: %w", ErrInsightsUnavailable, err)
	}
	return text, nil
}

// SummarizeStructured requests the four-section markdown report and parses
// it. Sections the model leaves out are absent from the result.
func (g *Generator) SummarizeStructured(ctx context.Context, items []core.Item) (Sections, error) {
	if len(items) == 0 {
		return Sections{}, ErrNoItems
	}
	payload, err := EncodeItems(items)
	if err != nil {
		return Sections{}, fmt.Errorf("%w: %w", ErrInsightsUnavailable, err)
	}

	text, err := g.client.Generate(ctx, fmt.Sprintf(structuredPrompt, payload))
	if err != nil {
		g.logger.WarnContext(ctx, "Structured insight generation failed", "error", err, "item_count", len(items))
		return Sections{}, fmt.Errorf("%w: %w", ErrInsightsUnavailable, err)
	}

	sections := ParseSections(text)
	g.logger.DebugContext(ctx, "Structured insights parsed", "sections", len(sections))
	return sections, nil
}

// Cards lays out the fixed sections in display order. Missing sections
// produce a card with an empty body.
func Cards(s Sections) []Card {
	cards := make([]Card, 0, len(cardIcons))
	for _, c := range cardIcons {
		cards = append(cards, Card{Icon: c.icon, Title: c.title, Body: s.Lookup(c.title)})
	}
	return cards
}

// EncodeItems renders items as the JSON array embedded in prompts. Dates are
// ISO-8601 calendar dates.
func EncodeItems(items []core.Item) ([]byte, error) {
	return json.MarshalIndent(items, "", "  ")
}

// DecodeItems parses the JSON produced by EncodeItems.
func DecodeItems(b []byte) ([]core.Item, error) {
	var items []core.Item
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, err
	}
	return items, nil
}
