package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"weekmenu/backend/internal/domain"
	"weekmenu/backend/internal/store"
)

type Store struct {
	mu              sync.RWMutex
	recipes         map[int64]domain.Recipe
	bonuses         []domain.Bonus
	weeks           map[int64]domain.MenuWeek
	slots           map[int64]domain.MenuSlot
	usersByUsername map[string]domain.UserAccount
	nextRecipeID    int64
	nextBonusID     int64
	nextWeekID      int64
	nextSlotID      int64
}

// New returns an empty store with the seed user accounts.
func New() *Store {
	return &Store{
		recipes:         make(map[int64]domain.Recipe),
		weeks:           make(map[int64]domain.MenuWeek),
		slots:           make(map[int64]domain.MenuSlot),
		usersByUsername: seedUsers(),
	}
}

// NewSeeded returns a store holding a small demo catalog.
func NewSeeded() *Store {
	s := New()
	s.replaceCatalogLocked(store.Catalog{Recipes: seedRecipes(), Bonuses: seedBonuses()})
	return s
}

func (s *Store) ListRecipes(_ context.Context) ([]domain.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recipes := make([]domain.Recipe, 0, len(s.recipes))
	for _, r := range s.recipes {
		recipes = append(recipes, cloneRecipe(r))
	}
	slices.SortFunc(recipes, func(a, b domain.Recipe) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return recipes, nil
}

func (s *Store) GetRecipe(_ context.Context, id int64) (*domain.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.recipes[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copyRecipe := cloneRecipe(r)
	return &copyRecipe, nil
}

func (s *Store) GetRecipesByIDs(_ context.Context, ids []int64) (map[int64]domain.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[int64]domain.Recipe, len(ids))
	for _, id := range ids {
		if r, ok := s.recipes[id]; ok {
			result[id] = cloneRecipe(r)
		}
	}
	return result, nil
}

func (s *Store) SetFavorite(_ context.Context, id int64, favorite bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.recipes[id]
	if !ok {
		return store.ErrNotFound
	}
	r.IsFavorite = favorite
	s.recipes[id] = r
	return nil
}

func (s *Store) ListBonuses(_ context.Context) ([]domain.Bonus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bonuses := make([]domain.Bonus, len(s.bonuses))
	copy(bonuses, s.bonuses)
	return bonuses, nil
}

func (s *Store) ListRecentMenuWeeks(_ context.Context, limit int) ([]domain.MenuWeek, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	weeks := make([]domain.MenuWeek, 0, len(s.weeks))
	for _, w := range s.weeks {
		weeks = append(weeks, w)
	}
	slices.SortFunc(weeks, func(a, b domain.MenuWeek) int {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return b.CreatedAt.Compare(a.CreatedAt)
		}
		return cmp.Compare(b.ID, a.ID)
	})
	if limit > 0 && len(weeks) > limit {
		weeks = weeks[:limit]
	}
	for i := range weeks {
		weeks[i].Slots = s.slotsOfLocked(weeks[i].ID)
	}
	return weeks, nil
}

func (s *Store) GetMenuWeek(_ context.Context, id int64) (*domain.MenuWeek, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.weeks[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	w.Slots = s.slotsOfLocked(id)
	return &w, nil
}

func (s *Store) CreateMenuWeek(_ context.Context, week domain.MenuWeek) (*domain.MenuWeek, error) {
	if err := store.ValidateMenuWeek(week); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, slot := range week.Slots {
		if _, ok := s.recipes[slot.RecipeID]; !ok {
			return nil, store.ErrInvalidInput
		}
	}

	s.nextWeekID++
	week.ID = s.nextWeekID
	if week.CreatedAt.IsZero() {
		week.CreatedAt = time.Now().UTC()
	}

	slots := week.Slots
	week.Slots = nil
	s.weeks[week.ID] = week

	for _, slot := range slots {
		s.nextSlotID++
		s.slots[s.nextSlotID] = domain.MenuSlot{
			ID:         s.nextSlotID,
			MenuWeekID: week.ID,
			DayOfWeek:  slot.DayOfWeek,
			RecipeID:   slot.RecipeID,
		}
	}

	week.Slots = s.slotsOfLocked(week.ID)
	return &week, nil
}

func (s *Store) GetMenuSlot(_ context.Context, id int64) (*domain.MenuSlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	slot, ok := s.slots[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &slot, nil
}

func (s *Store) UpdateMenuSlotRecipe(_ context.Context, slotID int64, recipeID int64) (*domain.MenuSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.slots[slotID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if _, ok := s.recipes[recipeID]; !ok {
		return nil, store.ErrInvalidInput
	}
	slot.RecipeID = recipeID
	s.slots[slotID] = slot
	return &slot, nil
}

func (s *Store) DeleteMenuSlot(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.slots[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.slots, id)
	return nil
}

func (s *Store) ReplaceCatalog(_ context.Context, catalog store.Catalog) (store.CatalogStats, error) {
	seen := make(map[string]struct{}, len(catalog.Recipes))
	for _, r := range catalog.Recipes {
		if strings.TrimSpace(r.URL) == "" || strings.TrimSpace(r.Title) == "" {
			return store.CatalogStats{}, store.ErrInvalidInput
		}
		if _, dup := seen[r.URL]; dup {
			return store.CatalogStats{}, store.ErrInvalidInput
		}
		seen[r.URL] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replaceCatalogLocked(catalog), nil
}

func (s *Store) replaceCatalogLocked(catalog store.Catalog) store.CatalogStats {
	refs := make([]domain.SlotRef, 0, len(s.slots))
	for _, slot := range s.slots {
		refs = append(refs, domain.SlotRef{
			MenuWeekID: slot.MenuWeekID,
			DayOfWeek:  slot.DayOfWeek,
			RecipeURL:  s.recipes[slot.RecipeID].URL,
		})
	}
	slices.SortFunc(refs, func(a, b domain.SlotRef) int {
		if a.MenuWeekID != b.MenuWeekID {
			return cmp.Compare(a.MenuWeekID, b.MenuWeekID)
		}
		return cmp.Compare(a.DayOfWeek, b.DayOfWeek)
	})

	s.recipes = make(map[int64]domain.Recipe, len(catalog.Recipes))
	urlToID := make(map[string]int64, len(catalog.Recipes))
	for _, r := range catalog.Recipes {
		s.nextRecipeID++
		r = cloneRecipe(r)
		r.ID = s.nextRecipeID
		s.recipes[r.ID] = r
		urlToID[r.URL] = r.ID
	}

	s.bonuses = make([]domain.Bonus, 0, len(catalog.Bonuses))
	for _, b := range catalog.Bonuses {
		s.nextBonusID++
		b.ID = s.nextBonusID
		s.bonuses = append(s.bonuses, b)
	}

	stats := store.CatalogStats{
		Recipes: len(catalog.Recipes),
		Tags:    store.CountTags(catalog.Recipes),
		Bonuses: len(catalog.Bonuses),
	}

	s.slots = make(map[int64]domain.MenuSlot, len(refs))
	for _, ref := range refs {
		recipeID, ok := urlToID[ref.RecipeURL]
		if !ok {
			stats.SlotsDropped++
			continue
		}
		s.nextSlotID++
		s.slots[s.nextSlotID] = domain.MenuSlot{
			ID:         s.nextSlotID,
			MenuWeekID: ref.MenuWeekID,
			DayOfWeek:  ref.DayOfWeek,
			RecipeID:   recipeID,
		}
		stats.SlotsRemapped++
	}
	return stats
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrInvalidInput
	}
	if _, exists := s.usersByUsername[username]; exists {
		return store.ErrInvalidInput
	}
	user.Username = username
	if user.Role == "" {
		user.Role = domain.RoleMember
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Active = true
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		users = append(users, user)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return strings.Compare(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.ErrInvalidInput
	}
	user, exists := s.usersByUsername[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}

func (s *Store) slotsOfLocked(weekID int64) []domain.MenuSlot {
	slots := make([]domain.MenuSlot, 0, domain.DaysPerWeek)
	for _, slot := range s.slots {
		if slot.MenuWeekID == weekID {
			slots = append(slots, slot)
		}
	}
	slices.SortFunc(slots, func(a, b domain.MenuSlot) int {
		return cmp.Compare(a.DayOfWeek, b.DayOfWeek)
	})
	return slots
}

func cloneRecipe(src domain.Recipe) domain.Recipe {
	dst := src
	dst.Tags = slices.Clone(src.Tags)
	dst.Ingredients = slices.Clone(src.Ingredients)
	dst.Instructions = slices.Clone(src.Instructions)
	if src.PrepTime != nil {
		v := *src.PrepTime
		dst.PrepTime = &v
	}
	if src.Calories != nil {
		v := *src.Calories
		dst.Calories = &v
	}
	return dst
}
