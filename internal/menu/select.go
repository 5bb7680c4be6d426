package menu

import "sort"

const (
	maxFavoritePicks = 4
	maxPerCuisine    = 2
)

// selection is the state carried between the greedy fill passes. fill never
// mutates the selection it receives.
type selection struct {
	picked   []Scored
	used     map[int64]struct{}
	cuisines map[string]int
}

func newSelection() selection {
	return selection{used: make(map[int64]struct{}), cuisines: make(map[string]int)}
}

func (s selection) clone() selection {
	next := selection{
		picked:   append([]Scored(nil), s.picked...),
		used:     make(map[int64]struct{}, len(s.used)),
		cuisines: make(map[string]int, len(s.cuisines)),
	}
	for id := range s.used {
		next.used[id] = struct{}{}
	}
	for c, n := range s.cuisines {
		next.cuisines[c] = n
	}
	return next
}

func (s selection) allows(item Scored, recent RecentSet) bool {
	if _, taken := s.used[item.Recipe.ID]; taken {
		return false
	}
	if recent.Contains(item.Recipe.ID) {
		return false
	}
	if item.Cuisine != "" && s.cuisines[item.Cuisine] >= maxPerCuisine {
		return false
	}
	return true
}

// fill picks from pool in order until the selection holds limit items.
func fill(s selection, pool []Scored, limit int, recent RecentSet) selection {
	next := s.clone()
	for _, item := range pool {
		if len(next.picked) >= limit {
			break
		}
		if !next.allows(item, recent) {
			continue
		}
		next.picked = append(next.picked, item)
		next.used[item.Recipe.ID] = struct{}{}
		if item.Cuisine != "" {
			next.cuisines[item.Cuisine]++
		}
	}
	return next
}

// SelectDiverse picks up to seven recipes: first up to four favorites, then
// the rest from non-favorites with favorites as fallback, always in
// descending score. Recipes from recent menus and a third recipe of the same
// cuisine are skipped. The result may hold fewer than seven recipes.
func SelectDiverse(scored []Scored, recent RecentSet) []Scored {
	ranked := append([]Scored(nil), scored...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	favorites := make([]Scored, 0, len(ranked))
	others := make([]Scored, 0, len(ranked))
	for _, item := range ranked {
		if item.Recipe.IsFavorite {
			favorites = append(favorites, item)
		} else {
			others = append(others, item)
		}
	}

	state := fill(newSelection(), favorites, maxFavoritePicks, recent)
	state = fill(state, append(others, favorites...), daysPerWeek, recent)
	return state.picked
}
