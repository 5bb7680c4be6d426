package store

import (
	"context"
	"errors"

	"weekmenu/backend/internal/domain"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

// Catalog is a full replacement of the scraped data. Recipes are unique by URL
// and tags are already normalized.
type Catalog struct {
	Recipes []domain.Recipe
	Bonuses []domain.Bonus
}

// CatalogStats reports what ReplaceCatalog wrote.
type CatalogStats struct {
	Recipes       int
	Tags          int
	Bonuses       int
	SlotsRemapped int
	SlotsDropped  int
}

type Repository interface {
	ListRecipes(ctx context.Context) ([]domain.Recipe, error)
	GetRecipe(ctx context.Context, id int64) (*domain.Recipe, error)
	GetRecipesByIDs(ctx context.Context, ids []int64) (map[int64]domain.Recipe, error)
	SetFavorite(ctx context.Context, id int64, favorite bool) error
	ListBonuses(ctx context.Context) ([]domain.Bonus, error)
	// ListRecentMenuWeeks returns up to limit weeks with their slots, newest first.
	ListRecentMenuWeeks(ctx context.Context, limit int) ([]domain.MenuWeek, error)
	GetMenuWeek(ctx context.Context, id int64) (*domain.MenuWeek, error)
	CreateMenuWeek(ctx context.Context, week domain.MenuWeek) (*domain.MenuWeek, error)
	GetMenuSlot(ctx context.Context, id int64) (*domain.MenuSlot, error)
	UpdateMenuSlotRecipe(ctx context.Context, slotID int64, recipeID int64) (*domain.MenuSlot, error)
	DeleteMenuSlot(ctx context.Context, id int64) error
	// ReplaceCatalog swaps out recipes, tags and bonuses. Menu weeks are kept and
	// their slots are pointed at the new recipe with the same URL, or dropped.
	ReplaceCatalog(ctx context.Context, catalog Catalog) (CatalogStats, error)
	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}

// ValidateMenuWeek checks that every slot is on a distinct day of the week.
func ValidateMenuWeek(week domain.MenuWeek) error {
	if week.WeekStart == "" {
		return ErrInvalidInput
	}
	var seen [domain.DaysPerWeek]bool
	for _, slot := range week.Slots {
		if slot.DayOfWeek < 0 || slot.DayOfWeek >= domain.DaysPerWeek || slot.RecipeID < 1 {
			return ErrInvalidInput
		}
		if seen[slot.DayOfWeek] {
			return ErrInvalidInput
		}
		seen[slot.DayOfWeek] = true
	}
	return nil
}

// CountTags returns the number of distinct tags across recipes.
func CountTags(recipes []domain.Recipe) int {
	seen := make(map[string]struct{})
	for _, r := range recipes {
		for _, tag := range r.Tags {
			seen[tag] = struct{}{}
		}
	}
	return len(seen)
}
