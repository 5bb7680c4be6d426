// Package shopping merges the ingredients of a set of recipes into one
// categorized shopping list.
package shopping

import (
	"errors"
	"math"
	"sort"
	"strconv"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"weekmenu/backend/internal/domain"
	"weekmenu/backend/internal/units"
)

type groupKey struct {
	name string
	unit string
}

type group struct {
	displayName string
	unit        string
	category    string
	recipes     []string
	seenRecipe  map[string]struct{}
	total       float64
	parsed      int
	unparseable bool
}

// Aggregate groups lines by normalized name and unit, sums the parseable
// quantities and returns items ordered by category, then by Dutch collation of
// the name.
func Aggregate(lines []domain.ShoppingLine) []domain.ShoppingItem {
	groups := make(map[groupKey]*group, len(lines))
	order := make([]groupKey, 0, len(lines))

	for _, line := range lines {
		key := groupKey{
			name: units.NormalizeName(line.Name),
			unit: units.NormalizeUnit(line.Unit),
		}

		g, ok := groups[key]
		if !ok {
			g = &group{
				displayName: line.Name,
				unit:        key.unit,
				category:    Categorize(key.name),
				seenRecipe:  make(map[string]struct{}),
			}
			groups[key] = g
			order = append(order, key)
		}

		if _, seen := g.seenRecipe[line.RecipeTitle]; !seen {
			g.seenRecipe[line.RecipeTitle] = struct{}{}
			g.recipes = append(g.recipes, line.RecipeTitle)
		}

		qty, err := units.ParseQuantity(line.Quantity)
		switch {
		case err == nil:
			g.total += qty
			g.parsed++
		case errors.Is(err, units.ErrUnparseable):
			g.unparseable = true
		}
	}

	items := make([]domain.ShoppingItem, 0, len(order))
	for _, key := range order {
		g := groups[key]
		items = append(items, domain.ShoppingItem{
			Name:          key.name,
			DisplayName:   g.displayName,
			TotalQuantity: formatTotal(g.total, g.parsed),
			Unit:          g.unit,
			Category:      g.category,
			FromRecipes:   g.recipes,

			PartialQuantity: g.unparseable,
		})
	}

	sortItems(items)
	return items
}

// formatTotal renders whole sums without decimals and everything else with
// one decimal. A group without any parseable quantity renders as "".
func formatTotal(total float64, parsed int) string {
	if parsed == 0 {
		return ""
	}
	if total == math.Trunc(total) {
		return strconv.FormatFloat(total, 'f', 0, 64)
	}
	return strconv.FormatFloat(total, 'f', 1, 64)
}

func sortItems(items []domain.ShoppingItem) {
	collator := collate.New(language.Dutch)
	sort.SliceStable(items, func(i, j int) bool {
		ri, rj := categoryRank(items[i].Category), categoryRank(items[j].Category)
		if ri != rj {
			return ri < rj
		}
		return collator.CompareString(items[i].Name, items[j].Name) < 0
	})
}
