package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"weekmenu/backend/internal/cache"
	"weekmenu/backend/internal/domain"
	"weekmenu/backend/internal/logging"
	"weekmenu/backend/internal/menu"
	"weekmenu/backend/internal/shopping"
	"weekmenu/backend/internal/store"
)

var ErrForbidden = errors.New("admin role required")

const weekStartLayout = "2006-01-02"

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Options struct {
	ShoppingCache cache.ShoppingListCache
	CacheTTL      time.Duration
	// Location decides which Monday a saved menu belongs to. Defaults to UTC.
	Location *time.Location
	Now      func() time.Time
}

type Service struct {
	repo     store.Repository
	engine   *menu.Engine
	cache    cache.ShoppingListCache
	cacheTTL time.Duration
	loc      *time.Location
	now      func() time.Time
}

func New(repo store.Repository, engine *menu.Engine, opts Options) *Service {
	if engine == nil {
		engine = menu.NewEngine(nil)
	}
	if opts.ShoppingCache == nil {
		opts.ShoppingCache = cache.NoopShoppingListCache{}
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Service{
		repo:     repo,
		engine:   engine,
		cache:    opts.ShoppingCache,
		cacheTTL: opts.CacheTTL,
		loc:      opts.Location,
		now:      opts.Now,
	}
}

func (s *Service) ListRecipes(ctx context.Context, favoritesOnly bool) ([]domain.Recipe, error) {
	recipes, err := s.repo.ListRecipes(ctx)
	if err != nil {
		return nil, err
	}
	if !favoritesOnly {
		return recipes, nil
	}

	favorites := make([]domain.Recipe, 0, len(recipes))
	for _, r := range recipes {
		if r.IsFavorite {
			favorites = append(favorites, r)
		}
	}
	return favorites, nil
}

func (s *Service) GetRecipe(ctx context.Context, id int64) (domain.Recipe, error) {
	r, err := s.repo.GetRecipe(ctx, id)
	if err != nil {
		return domain.Recipe{}, err
	}
	return *r, nil
}

func (s *Service) ToggleFavorite(ctx context.Context, id int64) (domain.FavoriteResponse, error) {
	r, err := s.repo.GetRecipe(ctx, id)
	if err != nil {
		return domain.FavoriteResponse{}, err
	}
	next := !r.IsFavorite
	if err := s.repo.SetFavorite(ctx, id, next); err != nil {
		return domain.FavoriteResponse{}, fmt.Errorf("set favorite: %w", err)
	}
	return domain.FavoriteResponse{RecipeID: id, IsFavorite: next}, nil
}

// PreviewMenu runs the engine without saving anything.
func (s *Service) PreviewMenu(ctx context.Context) ([]domain.MenuSuggestion, error) {
	in, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.engine.Generate(in), nil
}

// GenerateWeekMenu proposes a menu and stores it as a new week starting on
// the current Monday.
func (s *Service) GenerateWeekMenu(ctx context.Context) (domain.MenuResponse, error) {
	in, err := s.snapshot(ctx)
	if err != nil {
		return domain.MenuResponse{}, err
	}
	suggestions := s.engine.Generate(in)

	now := s.now()
	week := domain.MenuWeek{
		WeekStart: WeekStart(now.In(s.loc)),
		CreatedAt: now.UTC(),
		Slots:     make([]domain.MenuSlot, 0, len(suggestions)),
	}
	for _, suggestion := range suggestions {
		week.Slots = append(week.Slots, domain.MenuSlot{
			DayOfWeek: suggestion.DayOfWeek,
			RecipeID:  suggestion.Recipe.ID,
		})
	}

	saved, err := s.repo.CreateMenuWeek(ctx, week)
	if err != nil {
		return domain.MenuResponse{}, fmt.Errorf("save menu week: %w", err)
	}
	if err := s.attachSummaries(ctx, saved); err != nil {
		return domain.MenuResponse{}, err
	}

	logging.Ctx(ctx).Info().
		Int64("menu_week_id", saved.ID).
		Str("week_start", saved.WeekStart).
		Int("slots", len(saved.Slots)).
		Msg("menu generated")

	return domain.MenuResponse{Week: saved, Suggestions: suggestions}, nil
}

// CurrentMenu returns the most recently created week. Week is nil when no
// menu was ever saved.
func (s *Service) CurrentMenu(ctx context.Context) (domain.MenuResponse, error) {
	weeks, err := s.repo.ListRecentMenuWeeks(ctx, 1)
	if err != nil {
		return domain.MenuResponse{}, err
	}
	if len(weeks) == 0 {
		return domain.MenuResponse{}, nil
	}
	week := weeks[0]
	if err := s.attachSummaries(ctx, &week); err != nil {
		return domain.MenuResponse{}, err
	}
	return domain.MenuResponse{Week: &week}, nil
}

func (s *Service) GetMenuWeek(ctx context.Context, id int64) (domain.MenuWeek, error) {
	week, err := s.repo.GetMenuWeek(ctx, id)
	if err != nil {
		return domain.MenuWeek{}, err
	}
	if err := s.attachSummaries(ctx, week); err != nil {
		return domain.MenuWeek{}, err
	}
	return *week, nil
}

// SwapSlot puts a random recipe that is not yet on the slot's week into the
// slot. When no such recipe exists the slot is returned unchanged.
func (s *Service) SwapSlot(ctx context.Context, slotID int64) (domain.SlotSwapResponse, error) {
	slot, err := s.repo.GetMenuSlot(ctx, slotID)
	if err != nil {
		return domain.SlotSwapResponse{}, err
	}
	week, err := s.repo.GetMenuWeek(ctx, slot.MenuWeekID)
	if err != nil {
		return domain.SlotSwapResponse{}, err
	}
	recipes, err := s.repo.ListRecipes(ctx)
	if err != nil {
		return domain.SlotSwapResponse{}, err
	}

	replacement, ok := s.engine.PickReplacement(recipes, *week)
	if !ok {
		if err := s.attachSlotSummary(ctx, slot); err != nil {
			return domain.SlotSwapResponse{}, err
		}
		return domain.SlotSwapResponse{Slot: *slot, Swapped: false}, nil
	}

	updated, err := s.repo.UpdateMenuSlotRecipe(ctx, slotID, replacement.ID)
	if err != nil {
		return domain.SlotSwapResponse{}, fmt.Errorf("update slot: %w", err)
	}
	summary := replacement.Summary()
	updated.Recipe = &summary
	return domain.SlotSwapResponse{Slot: *updated, Swapped: true}, nil
}

func (s *Service) RemoveSlot(ctx context.Context, slotID int64) error {
	return s.repo.DeleteMenuSlot(ctx, slotID)
}

// snapshot gathers the read-only engine input: all recipes, promotions
// active right now and the most recent stored weeks.
func (s *Service) snapshot(ctx context.Context) (menu.Input, error) {
	recipes, err := s.repo.ListRecipes(ctx)
	if err != nil {
		return menu.Input{}, fmt.Errorf("list recipes: %w", err)
	}
	bonuses, err := s.repo.ListBonuses(ctx)
	if err != nil {
		return menu.Input{}, fmt.Errorf("list bonuses: %w", err)
	}
	weeks, err := s.repo.ListRecentMenuWeeks(ctx, menu.RecentWeeks)
	if err != nil {
		return menu.Input{}, fmt.Errorf("list recent menus: %w", err)
	}

	now := s.now()
	active := make([]domain.Bonus, 0, len(bonuses))
	for _, b := range bonuses {
		if b.ActiveAt(now) {
			active = append(active, b)
		}
	}

	return menu.Input{Recipes: recipes, Bonuses: active, RecentWeeks: weeks}, nil
}

func (s *Service) attachSummaries(ctx context.Context, week *domain.MenuWeek) error {
	ids := make([]int64, 0, len(week.Slots))
	for _, slot := range week.Slots {
		ids = append(ids, slot.RecipeID)
	}
	recipes, err := s.repo.GetRecipesByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("load slot recipes: %w", err)
	}
	for i := range week.Slots {
		if r, ok := recipes[week.Slots[i].RecipeID]; ok {
			summary := r.Summary()
			week.Slots[i].Recipe = &summary
		}
	}
	return nil
}

func (s *Service) attachSlotSummary(ctx context.Context, slot *domain.MenuSlot) error {
	r, err := s.repo.GetRecipe(ctx, slot.RecipeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	summary := r.Summary()
	slot.Recipe = &summary
	return nil
}

// WeekStart returns the ISO date of the Monday on or before t, in t's location.
func WeekStart(t time.Time) string {
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, t.Location()).Format(weekStartLayout)
}

// ShoppingListForWeek aggregates the ingredients of every recipe on the week.
func (s *Service) ShoppingListForWeek(ctx context.Context, weekID int64) (domain.ShoppingList, error) {
	week, err := s.repo.GetMenuWeek(ctx, weekID)
	if err != nil {
		return domain.ShoppingList{}, err
	}
	ids := make([]int64, 0, len(week.Slots))
	for _, slot := range week.Slots {
		ids = append(ids, slot.RecipeID)
	}

	list, err := s.shoppingList(ctx, ids)
	if err != nil {
		return domain.ShoppingList{}, err
	}
	list.MenuWeekID = week.ID
	return list, nil
}

// ShoppingListForRecipes aggregates the ingredients of the given recipes.
// Unknown IDs are skipped; ErrNotFound is returned when none exist.
func (s *Service) ShoppingListForRecipes(ctx context.Context, ids []int64) (domain.ShoppingList, error) {
	if len(ids) == 0 {
		return domain.ShoppingList{}, fmt.Errorf("%w: recipe ids required", store.ErrInvalidInput)
	}
	list, err := s.shoppingList(ctx, ids)
	if err != nil {
		return domain.ShoppingList{}, err
	}
	if len(list.RecipeIDs) == 0 {
		return domain.ShoppingList{}, store.ErrNotFound
	}
	return list, nil
}

func (s *Service) shoppingList(ctx context.Context, ids []int64) (domain.ShoppingList, error) {
	ordered := sortedUniqueIDs(ids)
	key := cache.ShoppingKey(ordered)

	if cached, ok, err := s.cache.Get(ctx, key); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("shopping list cache read failed")
	} else if ok {
		cached.Cached = true
		return *cached, nil
	}

	recipes, err := s.repo.GetRecipesByIDs(ctx, ordered)
	if err != nil {
		return domain.ShoppingList{}, fmt.Errorf("load recipes: %w", err)
	}

	found := make([]int64, 0, len(ordered))
	lines := make([]domain.ShoppingLine, 0, len(ordered)*8)
	for _, id := range ordered {
		r, ok := recipes[id]
		if !ok {
			continue
		}
		found = append(found, id)
		for _, ing := range r.Ingredients {
			lines = append(lines, domain.ShoppingLine{
				Name:        ing.Name,
				Quantity:    ing.Quantity,
				Unit:        ing.Unit,
				RecipeTitle: r.Title,
			})
		}
	}

	list := domain.ShoppingList{
		RecipeIDs: found,
		Items:     shopping.Aggregate(lines),
	}
	if len(found) > 0 {
		if err := s.cache.Set(ctx, key, &list, s.cacheTTL); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("shopping list cache write failed")
		}
	}
	return list, nil
}

// sortedUniqueIDs matches the order-insensitive cache key, so a cached list
// and a fresh one for the same recipes are identical.
func sortedUniqueIDs(ids []int64) []int64 {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

func requireAdmin(ctx context.Context) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return ErrForbidden
	}
	return nil
}
