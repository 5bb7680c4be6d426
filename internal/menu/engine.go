// Package menu builds a weekly dinner menu from the recipe collection: it
// scores recipes against the household's taste and the current promotions,
// picks a varied set of seven and spreads them over the week.
package menu

import (
	"math/rand/v2"
	"sync"

	"weekmenu/backend/internal/domain"
)

// RecentWeeks is how many stored menus count as "recent" for freshness and
// repeat exclusion.
const RecentWeeks = 2

// RandSource yields values in [0, 1).
type RandSource interface {
	Float64() float64
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }

// NoJitter removes the random term from scoring.
type NoJitter struct{}

func (NoJitter) Float64() float64 { return 0 }

type lockedSource struct {
	mu  sync.Mutex
	src RandSource
}

func (l *lockedSource) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Float64()
}

// Input is a read-only snapshot of everything menu generation looks at.
type Input struct {
	Recipes []domain.Recipe
	Bonuses []domain.Bonus
	// RecentWeeks are stored menus, newest first. Only the first RecentWeeks are used.
	RecentWeeks []domain.MenuWeek
}

type Engine struct {
	rnd RandSource
}

// NewEngine returns an engine drawing jitter from rnd. A nil rnd uses the
// process-wide generator. rnd is only called under a lock, so a plain
// *rand.Rand is fine.
func NewEngine(rnd RandSource) *Engine {
	if rnd == nil {
		return &Engine{rnd: globalRand{}}
	}
	return &Engine{rnd: &lockedSource{src: rnd}}
}

// Generate proposes a menu of up to seven dinners.
func (e *Engine) Generate(in Input) []domain.MenuSuggestion {
	if len(in.Recipes) < daysPerWeek {
		result := make([]domain.MenuSuggestion, 0, len(in.Recipes))
		for i, r := range in.Recipes {
			result = append(result, domain.MenuSuggestion{
				DayOfWeek: i,
				Recipe:    r.Summary(),
				Reason:    ReasonFavorite,
			})
		}
		return result
	}

	profile := BuildTasteProfile(in.Recipes)
	recent := RecentFrom(in.RecentWeeks, RecentWeeks)
	scored := ScoreRecipes(in.Recipes, profile, in.Bonuses, recent, e.rnd)
	return AssignDays(SelectDiverse(scored, recent))
}

// PickReplacement chooses a random recipe that is not yet on the given week.
func (e *Engine) PickReplacement(recipes []domain.Recipe, week domain.MenuWeek) (domain.Recipe, bool) {
	onMenu := make(map[int64]struct{}, len(week.Slots))
	for _, slot := range week.Slots {
		onMenu[slot.RecipeID] = struct{}{}
	}

	available := make([]domain.Recipe, 0, len(recipes))
	for _, r := range recipes {
		if _, ok := onMenu[r.ID]; !ok {
			available = append(available, r)
		}
	}
	if len(available) == 0 {
		return domain.Recipe{}, false
	}

	idx := int(e.rnd.Float64() * float64(len(available)))
	if idx >= len(available) {
		idx = len(available) - 1
	}
	return available[idx], true
}
