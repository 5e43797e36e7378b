// Package classify maps free-text category tags to the fixed category ids of
// the relational sink.
package classify

import "strings"

// DefaultCategoryID is the catch-all bucket (Épicerie & Sauces) used for
// empty or unmatched tag strings.
const DefaultCategoryID = 8

// categoryRule pairs a category id with the keywords that select it.
// Evaluation order is significant: a tag matching several groups gets the id
// of the first matching rule, and historical data depends on this exact
// ordering, so the table must not be resorted.
type categoryRule struct {
	id       int
	keywords []string
}

var categoryRules = []categoryRule{
	{1, []string{"beverage", "boisson", "eau", "water", "café"}},
	{2, []string{"dairies", "laitier", "cheese", "fromage", "yaourt"}},
	{3, []string{"biscuits", "chocolat", "snack sucré", "confiserie"}},
	{4, []string{"chips", "salé", "snack salé", "aperitivo"}},
	{5, []string{"tartiner", "spread", "confiture", "margarine"}},
	{6, []string{"bread", "pain", "brioche", "viennoiserie"}},
	{7, []string{"cereals", "céréales", "muesli", "avoine"}},
	{8, []string{"sauce", "condiment", "sel", "vinaigre", "ketchup"}},
	{9, []string{"plant-based", "végétal", "tofu"}},
	{10, []string{"fish", "poisson", "maquereau", "sardine", "mer"}},
}

// categoryNames holds the seeded French labels, indexed by id-1.
var categoryNames = []string{
	"Boissons", "Produits laitiers", "Snacks sucrés", "Snacks salés",
	"Produits à tartiner", "Boulangerie", "Céréales", "Épicerie & Sauces",
	"Alternatives végétales", "Produits de la mer",
}

// CategoryID maps a free-text tag string to a category id in [1,10] via
// case-insensitive substring matching, first rule wins.
func CategoryID(tags string) int {
	if tags == "" {
		return DefaultCategoryID
	}
	t := strings.ToLower(tags)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(t, kw) {
				return rule.id
			}
		}
	}
	return DefaultCategoryID
}

// CategoryName returns the seeded label for a category id, or "" when the id
// is out of range.
func CategoryName(id int) string {
	if id < 1 || id > len(categoryNames) {
		return ""
	}
	return categoryNames[id-1]
}

// CategoryCount is the number of seeded categories.
func CategoryCount() int { return len(categoryNames) }
