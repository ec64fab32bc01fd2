package insights

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSections(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Sections
	}{
		{
			name: "two headings",
			in:   "# A\nfoo\n# B\nbar\n",
			want: Sections{"A": "foo", "B": "bar"},
		},
		{
			name: "single heading leaves other keys absent",
			in:   "# A\nfoo\n",
			want: Sections{"A": "foo"},
		},
		{
			name: "preamble is dropped and bodies keep inner lines",
			in:   "Here you go:\n\n# 🔑 Key Insights\n- one\n- two\n\n# 📊 Spending Patterns\n  - weekly\n",
			want: Sections{"🔑 Key Insights": "- one\n- two", "📊 Spending Patterns": "- weekly"},
		},
		{
			name: "deeper headings and CRLF",
			in:   "## Tips\r\nsave\r\n### More\r\n",
			want: Sections{"Tips": "save", "More": ""},
		},
		{
			name: "last duplicate wins",
			in:   "# A\nfirst\n# A\nsecond",
			want: Sections{"A": "second"},
		},
		{
			name: "no headings",
			in:   "plain text",
			want: Sections{},
		},
		{
			name: "empty",
			in:   "",
			want: Sections{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSections(tt.in))
		})
	}
}

func TestSectionsLookup(t *testing.T) {
	s := ParseSections("# 💰 Potential Savings\nbuy in bulk\n# Key insights\nsnacks dominate")

	assert.Equal(t, "buy in bulk", s.Lookup(PotentialSavings))
	assert.Equal(t, "snacks dominate", s.Lookup(KeyInsights))
	assert.Equal(t, "", s.Lookup(SmartSpendingTips))

	_, present := s[SmartSpendingTips]
	assert.False(t, present)
}

func TestCardsKeepFixedOrder(t *testing.T) {
	cards := Cards(ParseSections("# 📚 Smart Spending Tips\nplan meals"))
	if assert.Len(t, cards, 4) {
		assert.Equal(t, KeyInsights, cards[0].Title)
		assert.Equal(t, "", cards[0].Body)
		assert.Equal(t, SmartSpendingTips, cards[3].Title)
		assert.Equal(t, "📚", cards[3].Icon)
		assert.Equal(t, "plan meals", cards[3].Body)
	}
}
