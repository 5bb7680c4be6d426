package menu

import (
	"sort"

	"weekmenu/backend/internal/domain"
)

const daysPerWeek = domain.DaysPerWeek

var (
	weekdays    = []int{0, 1, 2, 3, 4}
	weekendDays = []int{5, 6}
)

// AssignDays puts long recipes (more than DefaultPrepTime minutes) on the
// weekend and quick ones on weekdays, falling back to whatever day is free.
// The result is ordered Monday first.
func AssignDays(selected []Scored) []domain.MenuSuggestion {
	toAssign := append([]Scored(nil), selected...)
	sort.SliceStable(toAssign, func(i, j int) bool {
		return toAssign[i].PrepTime > toAssign[j].PrepTime
	})

	var used [daysPerWeek]bool
	firstFree := func(days []int) (int, bool) {
		for _, d := range days {
			if !used[d] {
				return d, true
			}
		}
		return 0, false
	}

	result := make([]domain.MenuSuggestion, 0, len(toAssign))
	for _, item := range toAssign {
		preferred, fallback := weekdays, weekendDays
		if item.PrepTime > DefaultPrepTime {
			preferred, fallback = weekendDays, weekdays
		}

		day, ok := firstFree(preferred)
		if !ok {
			day, ok = firstFree(fallback)
		}
		if !ok {
			break
		}
		used[day] = true
		result = append(result, domain.MenuSuggestion{
			DayOfWeek: day,
			Recipe:    item.Recipe.Summary(),
			Reason:    item.Reason,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].DayOfWeek < result[j].DayOfWeek
	})
	return result
}
