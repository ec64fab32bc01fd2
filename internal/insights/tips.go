package insights

// Tip is a static piece of spending advice shown next to generated insights.
type Tip struct {
	Title string
	Body  string
}

// QuickTips is shown on the insights page regardless of model availability.
var QuickTips = []Tip{
	{"Track Every Dollar", "Upload every receipt, even small ones. Little purchases add up fastest."},
	{"Wait 24 Hours", "Before buying a Want, wait a day. Many impulse purchases lose their appeal."},
	{"Compare Prices", "Check unit prices and store brands for the Groceries and Household items you buy most."},
	{"Plan Meals", "A weekly meal plan and shopping list cuts both grocery waste and snack runs."},
	{"Review Subscriptions", "List every recurring charge once a month and cancel what you no longer use."},
}
