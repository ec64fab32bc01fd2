package classify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/internal/core"
)

// scriptedLLM answers want/need and category prompts from per-item tables.
type scriptedLLM struct {
	want     map[string]string
	category map[string]string
	failOn   string
	prompts  []string
}

func (s *scriptedLLM) Generate(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	name := itemName(prompt)
	if s.failOn != "" && name == s.failOn {
		return "", errors.New("quota exceeded")
	}
	if strings.HasPrefix(prompt, "Is this item a want or a need?") {
		return s.want[name], nil
	}
	return s.category[name], nil
}

func itemName(prompt string) string {
	for _, line := range strings.Split(prompt, "\n") {
		if strings.HasPrefix(line, "Item: ") {
			return strings.TrimPrefix(line, "Item: ")
		}
	}
	return ""
}

func testItems() []core.Item {
	day := core.NewDate(2024, 2, 20)
	return []core.Item{
		core.NewItem("Whole milk", decimal.RequireFromString("3.49"), day),
		core.NewItem("Caviar", decimal.RequireFromString("120"), day),
		core.NewItem("Chocolate bar", decimal.RequireFromString("2"), day),
	}
}

func TestClassifyAssignsAnswers(t *testing.T) {
	llm := &scriptedLLM{
		want:     map[string]string{"Whole milk": " Need\n", "Caviar": "Want", "Chocolate bar": "want"},
		category: map[string]string{"Whole milk": "Groceries", "Caviar": "Luxury", "Chocolate bar": "Snacks."},
	}
	var progress []int
	c := NewItemClassifier(llm, WithProgress(func(done, total int) {
		assert.Equal(t, 3, total)
		progress = append(progress, done)
	}))

	in := testItems()
	out, err := c.Classify(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Equal(t, core.Need, out[0].WantOrNeed)
	assert.Equal(t, core.Groceries, out[0].Category)

	// "Luxury" is outside the fixed set and "caviar" matches no keyword
	assert.Equal(t, core.Want, out[1].WantOrNeed)
	assert.Equal(t, core.Other, out[1].Category)

	assert.Equal(t, core.Snacks, out[2].Category)
	assert.Equal(t, []int{1, 2, 3}, progress)

	// two prompts per item, want/need first
	require.Len(t, llm.prompts, 6)
	assert.Equal(t, "Is this item a want or a need? Answer with just 'Want' or 'Need':\nItem: Whole milk\nPrice: $3.49", llm.prompts[0])
	assert.Contains(t, llm.prompts[1], "Groceries, Snacks, Household, Subscriptions, Other")

	// input untouched
	assert.Equal(t, core.Other, in[0].Category)
}

func TestClassifyCategoryAlwaysInFixedSet(t *testing.T) {
	llm := &scriptedLLM{
		want:     map[string]string{},
		category: map[string]string{"Whole milk": "Dairy & Eggs", "Caviar": "", "Chocolate bar": "I think Snacks"},
	}
	out, err := NewItemClassifier(llm).Classify(context.Background(), testItems())
	require.NoError(t, err)
	for _, it := range out {
		assert.True(t, it.Category.Valid(), it.Category)
		assert.True(t, it.WantOrNeed.Valid(), it.WantOrNeed)
	}
	assert.Equal(t, core.Groceries, out[0].Category) // keyword "milk"
	assert.Equal(t, core.Snacks, out[2].Category)    // keyword "chocolate"
}

func TestClassifyUnknownWantDefaultsToNeed(t *testing.T) {
	llm := &scriptedLLM{
		want:     map[string]string{"Caviar": "Definitely a luxury"},
		category: map[string]string{"Caviar": "Other"},
	}
	out, err := NewItemClassifier(llm).Classify(context.Background(), testItems()[1:2])
	require.NoError(t, err)
	assert.Equal(t, core.Need, out[0].WantOrNeed)
}

func TestClassifyFailureKeepsOriginalItems(t *testing.T) {
	llm := &scriptedLLM{
		want:     map[string]string{"Whole milk": "Need", "Caviar": "Want"},
		category: map[string]string{"Whole milk": "Groceries", "Caviar": "Other"},
		failOn:   "Chocolate bar",
	}
	in := testItems()
	out, err := NewItemClassifier(llm).Classify(context.Background(), in)
	require.ErrorIs(t, err, ErrClassificationFailed)
	assert.Equal(t, in, out)
	// earlier items are not partially classified either
	assert.Equal(t, core.Other, out[0].Category)
}

func TestClassifyEmpty(t *testing.T) {
	out, err := NewItemClassifier(&scriptedLLM{}).Classify(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}
