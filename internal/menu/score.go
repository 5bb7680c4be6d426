package menu

import (
	"strings"

	"weekmenu/backend/internal/domain"
)

const (
	affinityWeight = 0.5
	bonusWeight    = 0.3
	freshnessBonus = 0.1
	jitterRange    = 0.1

	// DefaultPrepTime is assumed for recipes without a preparation time.
	DefaultPrepTime = 30
)

const (
	ReasonFavorite = "Favorite"
	ReasonTaste    = "Matches your taste"
	reasonBonus    = "Bonus: "
)

var cuisineTags = map[string]struct{}{
	"aziatisch":      {},
	"italiaans":      {},
	"grieks":         {},
	"mexicaans":      {},
	"indiaas":        {},
	"thais":          {},
	"japans":         {},
	"koreaans":       {},
	"frans":          {},
	"marokkaans":     {},
	"midden-oosters": {},
	"amerikaans":     {},
	"mediterraan":    {},
}

// Scored is a candidate recipe with its composite ranking score.
type Scored struct {
	Recipe   domain.Recipe
	Score    float64
	Reason   string
	Cuisine  string
	PrepTime int
}

// RecentSet holds the recipe IDs used by the most recent stored menus.
type RecentSet map[int64]struct{}

// RecentFrom collects the recipes of the first limit weeks, which must be
// ordered newest first.
func RecentFrom(weeks []domain.MenuWeek, limit int) RecentSet {
	recent := make(RecentSet)
	for i, week := range weeks {
		if i >= limit {
			break
		}
		for _, slot := range week.Slots {
			recent[slot.RecipeID] = struct{}{}
		}
	}
	return recent
}

func (r RecentSet) Contains(id int64) bool {
	_, ok := r[id]
	return ok
}

// ScoreRecipes ranks every recipe against the taste profile and promotions.
// Jitter is drawn from rnd in [0, 0.1).
func ScoreRecipes(recipes []domain.Recipe, profile TasteProfile, bonuses []domain.Bonus, recent RecentSet, rnd RandSource) []Scored {
	promos := tokenizeBonuses(bonuses)
	scored := make([]Scored, 0, len(recipes))

	for _, r := range recipes {
		names := make([]string, 0, len(r.Ingredients))
		for _, ing := range r.Ingredients {
			names = append(names, strings.ToLower(ing.Name))
		}

		match := matchTokenized(names, promos)
		bonusScore := 0.0
		if len(names) > 0 {
			bonusScore = float64(match.Matched) / float64(len(names))
		}

		freshness := 0.0
		if !recent.Contains(r.ID) {
			freshness = freshnessBonus
		}

		score := affinityWeight*profile.Affinity(r.Tags) +
			bonusWeight*bonusScore +
			freshness +
			rnd.Float64()*jitterRange

		scored = append(scored, Scored{
			Recipe:   r,
			Score:    score,
			Reason:   reasonFor(r.IsFavorite, match),
			Cuisine:  cuisineOf(r.Tags),
			PrepTime: prepTimeOf(r),
		})
	}
	return scored
}

func reasonFor(favorite bool, match BonusMatch) string {
	if match.Matched > 0 {
		reason := reasonBonus + match.FirstLabel
		if favorite {
			return ReasonFavorite + " + " + reason
		}
		return reason
	}
	if favorite {
		return ReasonFavorite
	}
	return ReasonTaste
}

// cuisineOf returns the first tag that names a cuisine, or "".
func cuisineOf(tags []string) string {
	for _, tag := range tags {
		if _, ok := cuisineTags[tag]; ok {
			return tag
		}
	}
	return ""
}

func prepTimeOf(r domain.Recipe) int {
	if r.PrepTime == nil {
		return DefaultPrepTime
	}
	return *r.PrepTime
}
