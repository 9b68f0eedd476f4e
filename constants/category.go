package constants

import (
	"strings"
)

type Category string

const (
	FoodAndDining  Category = "Food & Dining"
	Transportation Category = "Transportation"
	Shopping       Category = "Shopping"
	Entertainment  Category = "Entertainment"
	Utilities      Category = "Utilities"
	Healthcare     Category = "Healthcare"
	Education      Category = "Education"
	Travel         Category = "Travel"
	Other          Category = "Other"
)

var allCategories = []Category{
	FoodAndDining,
	Transportation,
	Shopping,
	Entertainment,
	Utilities,
	Healthcare,
	Education,
	Travel,
	Other,
}

func AsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

// Canonicalize maps free-form category text onto the fixed enum. The second
// return reports whether the input matched anything; unmatched input lands on
// Other.
func Canonicalize(input string) (Category, bool) {
	if input == "" {
		return Other, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	// synonyms map
	synonyms := map[string]Category{
		"food":        FoodAndDining,
		"dining":      FoodAndDining,
		"restaurant":  FoodAndDining,
		"groceries":   FoodAndDining,
		"grocery":     FoodAndDining,
		"transport":   Transportation,
		"gas":         Transportation,
		"fuel":        Transportation,
		"parking":     Transportation,
		"retail":      Shopping,
		"clothing":    Shopping,
		"movies":      Entertainment,
		"streaming":   Entertainment,
		"electricity": Utilities,
		"internet":    Utilities,
		"phone":       Utilities,
		"medical":     Healthcare,
		"pharmacy":    Healthcare,
		"doctor":      Healthcare,
		"tuition":     Education,
		"books":       Education,
		"hotel":       Travel,
		"airline":     Travel,
		"flight":      Travel,
		"misc":        Other,
	}

	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}

	// check if it matches any category string
	for _, cat := range allCategories {
		if normalized == strings.ToLower(string(cat)) {
			return cat, true
		}
	}

	return Other, false
}
