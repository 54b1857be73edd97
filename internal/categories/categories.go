// Package categories holds the static category taxonomy shared with the
// main backend. Transaction rows store numeric category ids; everything
// user-facing works with the display names below.
package categories

import (
	"fmt"
	"strconv"
)

var names = map[int]string{
	// Income
	1: "Salary",
	2: "Freelance",
	3: "Investment",
	4: "Bonus",
	5: "Rental Income",
	6: "Business Income",
	7: "Other Income",

	// Expense
	8:  "Food & Dining",
	9:  "Transportation",
	10: "Shopping",
	11: "Entertainment",
	12: "Bills & Utilities",
	13: "Healthcare",
	14: "Education",
	15: "Travel",
	16: "Insurance",
	17: "Home & Garden",
	18: "Gifts & Donations",
	19: "Personal Care",
	20: "Subscriptions",
	21: "Other Expense",
}

var types = map[int]string{
	1: "income", 2: "income", 3: "income", 4: "income",
	5: "income", 6: "income", 7: "income",

	8: "expense", 9: "expense", 10: "expense", 11: "expense",
	12: "expense", 13: "expense", 14: "expense", 15: "expense",
	16: "expense", 17: "expense", 18: "expense", 19: "expense",
	20: "expense", 21: "expense",
}

// Name resolves a category id to its display name. Unknown ids resolve to
// "Category N" so reports never show a bare number.
func Name(id int) string {
	if name, ok := names[id]; ok {
		return name
	}
	return fmt.Sprintf("Category %d", id)
}

// NameFromString resolves a category id carried as a string. Non-numeric
// input is assumed to already be a display name and is returned unchanged.
func NameFromString(id string) string {
	n, err := strconv.Atoi(id)
	if err != nil {
		return id
	}
	return Name(n)
}

// Type reports whether a category id is an income or expense category.
// Unknown ids are "unknown".
func Type(id int) string {
	if t, ok := types[id]; ok {
		return t
	}
	return "unknown"
}
