package extraction

import (
	"strings"
	"unicode"
)

// DefaultCategory is used when nothing else matches.
const DefaultCategory = "Main Course"

// CategoryRef is a category the caller already has on its menu.
type CategoryRef struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	IsBeverage bool   `json:"is_beverage"`
}

// CategoryPolicy guesses a category key from an item's text.
type CategoryPolicy interface {
	Infer(name, description string) (string, bool)
}

// KeywordRule maps any of Keywords to Category.
type KeywordRule struct {
	Category string
	Keywords []string
}

// KeywordPolicy checks rules in order against the name, then the description.
type KeywordPolicy []KeywordRule

// DefaultKeywordPolicy is the stock keyword table. Order matters: "chicken
// fried rice" is Rice, "chicken curry" is Curries.
var DefaultKeywordPolicy = KeywordPolicy{
	{Category: "Soups", Keywords: []string{"soup", "broth"}},
	{Category: "Salads", Keywords: []string{"salad"}},
	{Category: "Desserts", Keywords: []string{"ice cream", "cake", "pudding", "dessert", "watalappan", "brownie", "faluda"}},
	{Category: "Beverages", Keywords: []string{"juice", "tea", "coffee", "lassi", "milkshake", "soda", "smoothie", "mojito", "water"}},
	{Category: "Rice", Keywords: []string{"rice", "biryani", "buriyani", "lamprais"}},
	{Category: "Noodles", Keywords: []string{"noodle", "kottu", "pasta", "spaghetti"}},
	{Category: "Curries", Keywords: []string{"curry", "curries", "dhal", "dal", "masala", "devilled"}},
	{Category: "Seafood", Keywords: []string{"fish", "prawn", "shrimp", "crab", "cuttlefish", "calamari", "seafood"}},
	{Category: "Chicken", Keywords: []string{"chicken"}},
	{Category: "Appetizers", Keywords: []string{"starter", "appetizer", "spring roll", "samosa", "wings", "fries"}},
}

// Infer matches whole words (plural "s"/"es" allowed) so that "steak" is not tea.
func (p KeywordPolicy) Infer(name, description string) (string, bool) {
	for _, text := range []string{name, description} {
		words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if len(words) == 0 {
			continue
		}
		padded := " " + strings.Join(words, " ") + " "
		for _, rule := range p {
			for _, kw := range rule.Keywords {
				if containsKeyword(padded, words, kw) {
					return rule.Category, true
				}
			}
		}
	}
	return "", false
}

func containsKeyword(padded string, words []string, kw string) bool {
	if strings.Contains(kw, " ") {
		return strings.Contains(padded, " "+kw+" ") || strings.Contains(padded, " "+kw+"s ")
	}
	for _, w := range words {
		if w == kw || w == kw+"s" || w == kw+"es" {
			return true
		}
	}
	return false
}

// ResolveCategory maps key onto the caller's categories. The chain is: exact
// id or name match, a "main course" category, the first non-beverage
// category, the first category. Without categories the key itself (or
// DefaultCategory) is returned.
func ResolveCategory(key string, categories []CategoryRef) string {
	key = strings.TrimSpace(key)
	if len(categories) == 0 {
		if key == "" {
			return DefaultCategory
		}
		return key
	}

	if key != "" {
		for _, c := range categories {
			if c.ID == key || strings.EqualFold(c.Name, key) {
				return c.ID
			}
		}
	}
	for _, c := range categories {
		if strings.EqualFold(strings.TrimSpace(c.Name), "main course") {
			return c.ID
		}
	}
	for _, c := range categories {
		if !c.IsBeverage {
			return c.ID
		}
	}
	return categories[0].ID
}
