package shopping

import "strings"

const CategoryOther = "other"

type category struct {
	name     string
	keywords []string
}

// categories is checked in order: the first category with a keyword contained
// in the ingredient name wins, so "paprikapoeder" lands in vegetables via
// "paprika" before spices is ever considered.
var categories = []category{
	{name: "vegetables", keywords: []string{"ui", "paprika", "tomaat", "wortel", "aardappel", "sla", "spinazie", "broccoli", "courgette", "aubergine", "bloemkool", "prei", "komkommer", "venkel", "champignon", "radijs", "knolselderij", "biet", "mais", "avocado", "bonen"}},
	{name: "fruit", keywords: []string{"appel", "citroen", "limoen", "sinaasappel", "banaan", "mango", "ananas"}},
	{name: "dairy", keywords: []string{"melk", "kaas", "yoghurt", "room", "boter", "crème", "mascarpone", "ricotta", "mozzarella", "parmezaan", "feta", "ei"}},
	{name: "meat", keywords: []string{"kip", "gehakt", "varken", "rund", "spek", "ham", "worst", "lam", "steak", "filet"}},
	{name: "fish", keywords: []string{"zalm", "kabeljauw", "garnaal", "tonijn", "vis", "scampi", "pangasius"}},
	{name: "dry-goods", keywords: []string{"rijst", "pasta", "couscous", "noedel", "spaghetti", "penne", "mie", "bulgur", "quinoa", "linzen", "bloem", "suiker", "brood"}},
	{name: "spices", keywords: []string{"peper", "zout", "komijn", "paprikapoeder", "kurkuma", "kaneel", "nootmuskaat", "oregano", "basilicum", "tijm", "rozemarijn", "dille", "peterselie", "koriander", "bieslook"}},
	{name: "sauces", keywords: []string{"sojasaus", "olijfolie", "olie", "azijn", "ketjap", "sriracha", "tabasco", "mosterd", "mayonaise", "pesto", "tomatenpuree", "passata", "sambal", "hoisin", "gochujang"}},
}

// Categorize maps a normalized ingredient name to its shopping category.
func Categorize(name string) string {
	lower := strings.ToLower(name)
	for _, c := range categories {
		for _, keyword := range c.keywords {
			if strings.Contains(lower, keyword) {
				return c.name
			}
		}
	}
	return CategoryOther
}

// categoryRank orders categories for display; "other" sorts last.
func categoryRank(name string) int {
	for i, c := range categories {
		if c.name == name {
			return i
		}
	}
	return len(categories)
}
