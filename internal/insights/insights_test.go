package insights

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/internal/core"
)

type fakeLLM struct {
	reply  string
	err    error
	prompt string
}

func (f *fakeLLM) Generate(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.reply, f.err
}

func sampleItems() []core.Item {
	return []core.Item{
		{
			Name:       "Oat milk",
			Price:      decimal.RequireFromString("4.25"),
			Date:       core.NewDate(2024, 2, 15),
			Category:   core.Groceries,
			WantOrNeed: core.Need,
		},
		{
			Name:       "Spotify",
			Price:      decimal.RequireFromString("10.99"),
			Date:       core.NewDate(2024, 2, 1),
			Category:   core.Subscriptions,
			WantOrNeed: core.Want,
		},
	}
}

func TestSummarizeReturnsTextVerbatim(t *testing.T) {
	llm := &fakeLLM{reply: "  - Cut subscriptions\n"}
	g := NewGenerator(llm, nil)

	text, err := g.Summarize(context.Background(), sampleItems())
	require.NoError(t, err)
	assert.Equal(t, "  - Cut subscriptions\n", text)
	assert.Contains(t, llm.prompt, `"Date": "2024-02-15"`)
	assert.Contains(t, llm.prompt, "Potential Savings")
}

func TestSummarizeFallback(t *testing.T) {
	g := NewGenerator(&fakeLLM{err: errors.New("timeout")}, nil)

	text, err := g.Summarize(context.Background(), sampleItems())
	require.ErrorIs(t, err, ErrInsightsUnavailable)
	assert.Equal(t, FallbackText, text)
}

func TestSummarizeNoItemsSkipsModel(t *testing.T) {
	llm := &fakeLLM{reply: "unused"}
	text, err := NewGenerator(llm, nil).Summarize(context.Background(), nil)
	require.ErrorIs(t, err, ErrNoItems)
	assert.Equal(t, FallbackText, text)
	assert.Empty(t, llm.prompt)
}

func TestSummarizeStructured(t *testing.T) {
	llm := &fakeLLM{reply: "# 🔑 Key Insights\n- subscriptions are 70%\n# 💰 Potential Savings\n- cancel one\n"}
	g := NewGenerator(llm, nil)

	sections, err := g.SummarizeStructured(context.Background(), sampleItems())
	require.NoError(t, err)
	assert.Len(t, sections, 2)
	assert.Equal(t, "- subscriptions are 70%", sections.Lookup(KeyInsights))
	assert.Equal(t, "", sections.Lookup(SpendingPatterns))
	assert.Contains(t, llm.prompt, "# 📚 Smart Spending Tips")
}

func TestSummarizeStructuredFailure(t *testing.T) {
	sections, err := NewGenerator(&fakeLLM{err: errors.New("boom")}, nil).
		SummarizeStructured(context.Background(), sampleItems())
	require.ErrorIs(t, err, ErrInsightsUnavailable)
	assert.Empty(t, sections)
}

func TestItemsPromptJSONRoundTrip(t *testing.T) {
	items := sampleItems()
	b, err := EncodeItems(items)
	require.NoError(t, err)

	back, err := DecodeItems(b)
	require.NoError(t, err)
	require.Len(t, back, len(items))
	for i := range items {
		assert.Equal(t, items[i].Name, back[i].Name)
		assert.True(t, items[i].Price.Equal(back[i].Price), "price %s != %s", items[i].Price, back[i].Price)
		assert.Equal(t, items[i].Date.String(), back[i].Date.String())
	}
}
