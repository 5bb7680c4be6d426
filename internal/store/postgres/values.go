package postgres

import (
	"database/sql"
	"slices"
	"strings"
	"time"

	"weekmenu/backend/internal/domain"
)

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time.UTC()
	return &t
}

func nullInt(val *int) any {
	if val == nil {
		return nil
	}
	return *val
}

func nullFloat(val *float64) any {
	if val == nil {
		return nil
	}
	return *val
}

func nullTime(val *time.Time) any {
	if val == nil {
		return nil
	}
	return *val
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func sortSlotsByDay(slots []domain.MenuSlot) {
	slices.SortFunc(slots, func(a, b domain.MenuSlot) int {
		return a.DayOfWeek - b.DayOfWeek
	})
}
