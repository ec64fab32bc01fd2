// Package classify assigns a category and a want/need tag to receipt items.
package classify

import (
	"strings"

	"finsight/internal/core"
)

type keywordRule struct {
	category core.Category
	keywords []string
}

// keywordRules is checked in order; the first rule with a matching keyword wins.
var keywordRules = []keywordRule{
	{core.Groceries, []string{"food", "grocery", "market", "produce", "meat", "dairy", "vegetable", "fruit", "bread", "milk", "eggs"}},
	{core.Snacks, []string{"snack", "candy", "chocolate", "chip", "soda", "drink", "beverage", "coffee", "tea"}},
	{core.Household, []string{"clean", "soap", "detergent", "paper", "towel", "shampoo", "toilet", "bath", "kitchen"}},
	{core.Subscriptions, []string{"netflix", "spotify", "prime", "subscription", "membership", "streaming"}},
}

// ByKeyword maps an item name to a category by case-insensitive substring
// match against fixed keyword lists. Names matching nothing are Other.
func ByKeyword(name string) core.Category {
	lower := strings.ToLower(name)
	for _, rule := range keywordRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.category
			}
		}
	}
	return core.Other
}
