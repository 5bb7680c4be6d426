package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"weekmenu/backend/internal/domain"
	"weekmenu/backend/internal/menu"
	"weekmenu/backend/internal/store"
	"weekmenu/backend/internal/store/memory"
)

var cet = time.FixedZone("CET", 3600)

type mapCache struct {
	mu      sync.Mutex
	entries map[string]domain.ShoppingList
	purged  int
}

func newMapCache() *mapCache {
	return &mapCache{entries: map[string]domain.ShoppingList{}}
}

func (c *mapCache) Get(_ context.Context, key string) (*domain.ShoppingList, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	list, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	return &list, true, nil
}

func (c *mapCache) Set(_ context.Context, key string, value *domain.ShoppingList, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = *value
	return nil
}

func (c *mapCache) Purge(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string]domain.ShoppingList{}
	c.purged++
	return nil
}

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestService(repo store.Repository, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = fixedNow(time.Date(2026, 2, 12, 18, 0, 0, 0, time.UTC))
	}
	if opts.Location == nil {
		opts.Location = cet
	}
	return New(repo, menu.NewEngine(rand.New(rand.NewPCG(1, 2))), opts)
}

func adminCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "admin", Role: domain.RoleAdmin})
}

func TestWeekStartUsesMonday(t *testing.T) {
	cases := map[time.Time]string{
		time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC):   "2026-02-09",
		time.Date(2026, 2, 12, 18, 0, 0, 0, time.UTC): "2026-02-09",
		time.Date(2026, 2, 15, 23, 59, 0, 0, time.UTC): "2026-02-09",
		time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC):  "2026-02-23",
	}
	for in, want := range cases {
		if got := WeekStart(in); got != want {
			t.Fatalf("WeekStart(%s) = %s, want %s", in, got, want)
		}
	}
}

func TestGenerateWeekMenuSavesWeekInLocalTime(t *testing.T) {
	// Sunday 23:30 UTC is already Monday in CET.
	now := time.Date(2026, 2, 15, 23, 30, 0, 0, time.UTC)
	svc := newTestService(memory.NewSeeded(), Options{Now: fixedNow(now)})

	resp, err := svc.GenerateWeekMenu(context.Background())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if resp.Week == nil {
		t.Fatalf("expected saved week")
	}
	if resp.Week.WeekStart != "2026-02-16" {
		t.Fatalf("expected week start 2026-02-16, got %s", resp.Week.WeekStart)
	}
	if len(resp.Week.Slots) != domain.DaysPerWeek || len(resp.Suggestions) != domain.DaysPerWeek {
		t.Fatalf("expected a full week, got %d slots and %d suggestions", len(resp.Week.Slots), len(resp.Suggestions))
	}

	days := map[int]bool{}
	recipes := map[int64]bool{}
	for _, slot := range resp.Week.Slots {
		if days[slot.DayOfWeek] {
			t.Fatalf("day %d used twice", slot.DayOfWeek)
		}
		days[slot.DayOfWeek] = true
		if recipes[slot.RecipeID] {
			t.Fatalf("recipe %d used twice", slot.RecipeID)
		}
		recipes[slot.RecipeID] = true
		if slot.Recipe == nil || slot.Recipe.ID != slot.RecipeID {
			t.Fatalf("expected slot summary for recipe %d", slot.RecipeID)
		}
	}
}

func TestGenerateWeekMenuAvoidsRecentRecipes(t *testing.T) {
	svc := newTestService(memory.NewSeeded(), Options{})
	ctx := context.Background()

	first, err := svc.GenerateWeekMenu(ctx)
	if err != nil {
		t.Fatalf("first generate: %v", err)
	}
	used := map[int64]bool{}
	for _, slot := range first.Week.Slots {
		used[slot.RecipeID] = true
	}

	second, err := svc.GenerateWeekMenu(ctx)
	if err != nil {
		t.Fatalf("second generate: %v", err)
	}
	if len(second.Week.Slots) > 12-len(first.Week.Slots) {
		t.Fatalf("expected at most %d slots, got %d", 12-len(first.Week.Slots), len(second.Week.Slots))
	}
	for _, slot := range second.Week.Slots {
		if used[slot.RecipeID] {
			t.Fatalf("recipe %d repeated from the previous week", slot.RecipeID)
		}
	}
}

func TestCurrentMenu(t *testing.T) {
	svc := newTestService(memory.NewSeeded(), Options{})
	ctx := context.Background()

	empty, err := svc.CurrentMenu(ctx)
	if err != nil {
		t.Fatalf("current menu: %v", err)
	}
	if empty.Week != nil {
		t.Fatalf("expected no week before generating")
	}

	generated, err := svc.GenerateWeekMenu(ctx)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	current, err := svc.CurrentMenu(ctx)
	if err != nil {
		t.Fatalf("current menu: %v", err)
	}
	if current.Week == nil || current.Week.ID != generated.Week.ID {
		t.Fatalf("expected current week %d, got %+v", generated.Week.ID, current.Week)
	}
	for _, slot := range current.Week.Slots {
		if slot.Recipe == nil {
			t.Fatalf("expected recipe summary on slot %d", slot.ID)
		}
	}
}

func TestSwapSlotPicksRecipeNotOnWeek(t *testing.T) {
	svc := newTestService(memory.NewSeeded(), Options{})
	ctx := context.Background()

	generated, err := svc.GenerateWeekMenu(ctx)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	onWeek := map[int64]bool{}
	for _, slot := range generated.Week.Slots {
		onWeek[slot.RecipeID] = true
	}
	target := generated.Week.Slots[0]

	resp, err := svc.SwapSlot(ctx, target.ID)
	if err != nil {
		t.Fatalf("swap: %v", err)
	}
	if !resp.Swapped {
		t.Fatalf("expected swap to happen")
	}
	if onWeek[resp.Slot.RecipeID] {
		t.Fatalf("swap introduced recipe %d already on the week", resp.Slot.RecipeID)
	}
	if resp.Slot.DayOfWeek != target.DayOfWeek || resp.Slot.Recipe == nil {
		t.Fatalf("unexpected swapped slot: %+v", resp.Slot)
	}
}

func sevenRecipeCatalog() store.Catalog {
	recipes := make([]domain.Recipe, 0, 7)
	for i := 1; i <= 7; i++ {
		recipes = append(recipes, domain.Recipe{
			Title:       fmt.Sprintf("Gerecht %d", i),
			URL:         fmt.Sprintf("https://example.test/gerecht-%d", i),
			IsFavorite:  true,
			Ingredients: []domain.Ingredient{{Name: "kipfilet", Quantity: "200", Unit: "g"}},
		})
	}
	return store.Catalog{Recipes: recipes}
}

func TestSwapSlotIsNoopWhenEveryRecipeIsUsed(t *testing.T) {
	repo := memory.New()
	if _, err := repo.ReplaceCatalog(context.Background(), sevenRecipeCatalog()); err != nil {
		t.Fatalf("seed catalog: %v", err)
	}
	svc := newTestService(repo, Options{})
	ctx := context.Background()

	generated, err := svc.GenerateWeekMenu(ctx)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(generated.Week.Slots) != 7 {
		t.Fatalf("expected 7 slots, got %d", len(generated.Week.Slots))
	}
	target := generated.Week.Slots[3]

	resp, err := svc.SwapSlot(ctx, target.ID)
	if err != nil {
		t.Fatalf("swap: %v", err)
	}
	if resp.Swapped || resp.Slot.RecipeID != target.RecipeID {
		t.Fatalf("expected unchanged slot, got %+v", resp)
	}
}

func TestSwapAndRemoveUnknownSlot(t *testing.T) {
	svc := newTestService(memory.NewSeeded(), Options{})
	ctx := context.Background()

	if _, err := svc.SwapSlot(ctx, 404); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := svc.RemoveSlot(ctx, 404); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRemoveSlot(t *testing.T) {
	svc := newTestService(memory.NewSeeded(), Options{})
	ctx := context.Background()

	generated, err := svc.GenerateWeekMenu(ctx)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if err := svc.RemoveSlot(ctx, generated.Week.Slots[0].ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	week, err := svc.GetMenuWeek(ctx, generated.Week.ID)
	if err != nil {
		t.Fatalf("get week: %v", err)
	}
	if len(week.Slots) != len(generated.Week.Slots)-1 {
		t.Fatalf("expected one slot fewer, got %d", len(week.Slots))
	}
}

func TestToggleFavorite(t *testing.T) {
	svc := newTestService(memory.NewSeeded(), Options{})
	ctx := context.Background()

	before, err := svc.GetRecipe(ctx, 6)
	if err != nil {
		t.Fatalf("get recipe: %v", err)
	}
	resp, err := svc.ToggleFavorite(ctx, 6)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if resp.IsFavorite == before.IsFavorite {
		t.Fatalf("expected favorite flag to flip")
	}

	favorites, err := svc.ListRecipes(ctx, true)
	if err != nil {
		t.Fatalf("list favorites: %v", err)
	}
	found := false
	for _, r := range favorites {
		if !r.IsFavorite {
			t.Fatalf("non-favorite %d in favorites list", r.ID)
		}
		if r.ID == 6 {
			found = true
		}
	}
	if found != resp.IsFavorite {
		t.Fatalf("favorites list out of sync with toggle")
	}

	if _, err := svc.ToggleFavorite(ctx, 999); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestShoppingListForRecipesAggregatesAndCaches(t *testing.T) {
	c := newMapCache()
	svc := newTestService(memory.NewSeeded(), Options{ShoppingCache: c})
	ctx := context.Background()

	// spaghetti bolognese and chili con carne both use ui and rundergehakt
	list, err := svc.ShoppingListForRecipes(ctx, []int64{5, 1, 5, 999})
	if err != nil {
		t.Fatalf("shopping list: %v", err)
	}
	if list.Cached {
		t.Fatalf("expected first build to be uncached")
	}
	if len(list.RecipeIDs) != 2 {
		t.Fatalf("expected two known recipes, got %v", list.RecipeIDs)
	}

	byKey := map[string]domain.ShoppingItem{}
	for _, item := range list.Items {
		byKey[item.Name+"|"+item.Unit] = item
	}
	if got := byKey["ui|"].TotalQuantity; got != "2" {
		t.Fatalf("expected 2 onions, got %q", got)
	}
	if got := byKey["rundergehakt|g"]; got.TotalQuantity != "1000" || len(got.FromRecipes) != 2 {
		t.Fatalf("expected 1000 g minced beef from two recipes, got %+v", got)
	}

	again, err := svc.ShoppingListForRecipes(ctx, []int64{999, 1, 5})
	if err != nil {
		t.Fatalf("second shopping list: %v", err)
	}
	if !again.Cached {
		t.Fatalf("expected second request for the same recipes to hit the cache")
	}
}

func TestShoppingListIgnoresRecipeOrder(t *testing.T) {
	cases := []struct {
		name   string
		cached bool
	}{
		{name: "uncached", cached: false},
		{name: "cached", cached: true},
	}
	for _, tc := range cases {
		opts := Options{}
		if tc.cached {
			opts.ShoppingCache = newMapCache()
		}
		svc := newTestService(memory.NewSeeded(), opts)
		ctx := context.Background()

		forward, err := svc.ShoppingListForRecipes(ctx, []int64{1, 5})
		if err != nil {
			t.Fatalf("%s: shopping list: %v", tc.name, err)
		}
		reverse, err := svc.ShoppingListForRecipes(ctx, []int64{5, 1})
		if err != nil {
			t.Fatalf("%s: reversed shopping list: %v", tc.name, err)
		}
		if reverse.Cached != tc.cached {
			t.Fatalf("%s: expected cached=%v on the reversed request", tc.name, tc.cached)
		}
		reverse.Cached = forward.Cached

		if !reflect.DeepEqual(forward, reverse) {
			t.Fatalf("%s: expected identical lists regardless of order:\n%+v\n%+v", tc.name, forward, reverse)
		}
		if forward.RecipeIDs[0] != 1 || forward.RecipeIDs[1] != 5 {
			t.Fatalf("%s: expected ascending recipe ids, got %v", tc.name, forward.RecipeIDs)
		}
	}
}

func TestShoppingListForRecipesValidation(t *testing.T) {
	svc := newTestService(memory.NewSeeded(), Options{})
	ctx := context.Background()

	if _, err := svc.ShoppingListForRecipes(ctx, nil); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.ShoppingListForRecipes(ctx, []int64{998, 999}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestShoppingListForWeek(t *testing.T) {
	svc := newTestService(memory.NewSeeded(), Options{})
	ctx := context.Background()

	generated, err := svc.GenerateWeekMenu(ctx)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	list, err := svc.ShoppingListForWeek(ctx, generated.Week.ID)
	if err != nil {
		t.Fatalf("shopping list: %v", err)
	}
	if list.MenuWeekID != generated.Week.ID {
		t.Fatalf("expected menu week id %d, got %d", generated.Week.ID, list.MenuWeekID)
	}
	if len(list.RecipeIDs) != len(generated.Week.Slots) || len(list.Items) == 0 {
		t.Fatalf("unexpected list: %+v", list)
	}

	if _, err := svc.ShoppingListForWeek(ctx, 404); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPreviewMenuIgnoresExpiredBonuses(t *testing.T) {
	now := time.Date(2026, 2, 12, 18, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)
	tomorrow := now.Add(24 * time.Hour)

	for _, tc := range []struct {
		name      string
		until     time.Time
		wantBonus bool
	}{
		{"expired", yesterday, false},
		{"active", tomorrow, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			catalog := sevenRecipeCatalog()
			until := tc.until
			catalog.Bonuses = []domain.Bonus{{ProductName: "AH Kipfilet", DiscountLabel: "2e halve prijs", ValidUntil: &until}}
			// An eighth recipe makes the engine score instead of returning everything.
			catalog.Recipes = append(catalog.Recipes, domain.Recipe{Title: "Extra", URL: "https://example.test/extra", IsFavorite: true})
			repo := memory.New()
			if _, err := repo.ReplaceCatalog(context.Background(), catalog); err != nil {
				t.Fatalf("seed catalog: %v", err)
			}

			svc := newTestService(repo, Options{Now: fixedNow(now)})
			suggestions, err := svc.PreviewMenu(context.Background())
			if err != nil {
				t.Fatalf("preview: %v", err)
			}
			sawBonus := false
			for _, s := range suggestions {
				if strings.Contains(s.Reason, "Bonus: 2e halve prijs") {
					sawBonus = true
				}
			}
			if sawBonus != tc.wantBonus {
				t.Fatalf("expected bonus reasons=%t, got suggestions %+v", tc.wantBonus, suggestions)
			}
		})
	}
}

func TestImportRequiresAdmin(t *testing.T) {
	svc := newTestService(memory.NewSeeded(), Options{})
	ctx := WithActor(context.Background(), domain.Actor{Username: "thuis", Role: domain.RoleMember})

	if _, err := svc.Import(ctx, domain.ImportRequest{}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestImportReplacesCatalog(t *testing.T) {
	c := newMapCache()
	repo := memory.NewSeeded()
	svc := newTestService(repo, Options{ShoppingCache: c})
	ctx := adminCtx()

	generated, err := svc.GenerateWeekMenu(ctx)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	keptSlot := generated.Week.Slots[0]
	keptRecipe, err := svc.GetRecipe(ctx, keptSlot.RecipeID)
	if err != nil {
		t.Fatalf("get recipe: %v", err)
	}
	if _, err := svc.ShoppingListForRecipes(ctx, []int64{1}); err != nil {
		t.Fatalf("warm cache: %v", err)
	}

	result, err := svc.Import(ctx, domain.ImportRequest{
		Favorites: []domain.ImportRecipe{
			{
				Title: keptRecipe.Title, URL: keptRecipe.URL, Source: "ah.be",
				Tags:        []string{" Italiaans ", "italiaans", "", "Pasta"},
				Ingredients: []domain.ImportIngredient{{Name: "spaghetti", Quantity: "400", Unit: "g", Raw: "400 g spaghetti"}},
				ScrapedAt:   "2026-02-10T09:00:00Z",
			},
		},
		Discover: []domain.ImportRecipe{
			{Title: "Dubbel", URL: keptRecipe.URL, Source: "ah.be"},
			{Title: "Nieuw", URL: "https://example.test/nieuw", Source: "koken.demorgen", Servings: 2},
		},
		Bonuses: []domain.ImportBonus{
			{ProductName: "Spaghetti", DiscountLabel: "1+1 gratis", ValidFrom: "2026-02-09", ValidUntil: "2026-02-15"},
		},
	})
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	if result.Recipes != 2 || result.Favorites != 1 || result.SkippedDupes != 1 || result.Tags != 2 || result.Bonuses != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.SlotsRemapped != 1 || result.SlotsDropped != len(generated.Week.Slots)-1 {
		t.Fatalf("unexpected slot remap: %+v", result)
	}
	if c.purged != 1 {
		t.Fatalf("expected cache purge after import")
	}

	recipes, err := svc.ListRecipes(ctx, false)
	if err != nil {
		t.Fatalf("list recipes: %v", err)
	}
	if len(recipes) != 2 {
		t.Fatalf("expected 2 recipes, got %d", len(recipes))
	}
	first, second := recipes[0], recipes[1]
	if !first.IsFavorite || first.URL != keptRecipe.URL {
		t.Fatalf("expected favorite copy to win, got %+v", first)
	}
	if strings.Join(first.Tags, ",") != "italiaans,pasta" {
		t.Fatalf("expected normalized tags, got %v", first.Tags)
	}
	if first.Ingredients[0].RawText != "400 g spaghetti" {
		t.Fatalf("expected raw text to be kept, got %+v", first.Ingredients[0])
	}
	if second.IsFavorite || second.Servings != 2 {
		t.Fatalf("unexpected discover recipe: %+v", second)
	}

	bonuses, err := repo.ListBonuses(ctx)
	if err != nil {
		t.Fatalf("list bonuses: %v", err)
	}
	sundayEvening := time.Date(2026, 2, 15, 21, 0, 0, 0, time.UTC)
	if !bonuses[0].ActiveAt(sundayEvening) {
		t.Fatalf("expected a date-only end bound to cover the whole day")
	}
	if bonuses[0].ActiveAt(sundayEvening.Add(6 * time.Hour)) {
		t.Fatalf("expected bonus to expire after its last day")
	}

	current, err := svc.CurrentMenu(ctx)
	if err != nil {
		t.Fatalf("current menu: %v", err)
	}
	if len(current.Week.Slots) != 1 || current.Week.Slots[0].DayOfWeek != keptSlot.DayOfWeek {
		t.Fatalf("expected only the reimported slot to remain, got %+v", current.Week.Slots)
	}
}

func TestImportRejectsRecipeWithoutURL(t *testing.T) {
	svc := newTestService(memory.NewSeeded(), Options{})
	_, err := svc.Import(adminCtx(), domain.ImportRequest{
		Favorites: []domain.ImportRecipe{{Title: "Zonder link"}},
	})
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestDateOnlyBonusBoundsFollowLocalDays(t *testing.T) {
	b, err := toBonus(domain.ImportBonus{
		ProductName: "AH Spaghetti",
		ValidFrom:   "2026-02-09",
		ValidUntil:  "2026-02-15",
	}, time.Now(), cet)
	if err != nil {
		t.Fatalf("to bonus: %v", err)
	}

	cases := []struct {
		name string
		at   time.Time
		want bool
	}{
		{name: "before first local midnight", at: time.Date(2026, 2, 8, 23, 59, 59, 0, cet), want: false},
		{name: "first local midnight", at: time.Date(2026, 2, 9, 0, 0, 0, 0, cet), want: true},
		{name: "last local second", at: time.Date(2026, 2, 15, 23, 59, 59, 0, cet), want: true},
		{name: "inside the last second", at: time.Date(2026, 2, 15, 23, 59, 59, 500_000_000, cet), want: true},
		{name: "next local midnight", at: time.Date(2026, 2, 16, 0, 0, 0, 0, cet), want: false},
	}
	for _, tc := range cases {
		if got := b.ActiveAt(tc.at); got != tc.want {
			t.Fatalf("%s: ActiveAt(%s) = %v, want %v", tc.name, tc.at, got, tc.want)
		}
	}
}

func TestParseBoundReadsDatesAndTimestamps(t *testing.T) {
	cases := []struct {
		raw   string
		upper bool
		want  time.Time
	}{
		{raw: "2026-02-15T18:00:00+01:00", upper: true, want: time.Date(2026, 2, 15, 17, 0, 0, 0, time.UTC)},
		{raw: "2026-02-09", upper: false, want: time.Date(2026, 2, 8, 23, 0, 0, 0, time.UTC)},
		{raw: "2026-02-15", upper: true, want: time.Date(2026, 2, 15, 23, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		got, err := parseBound(tc.raw, tc.upper, cet)
		if err != nil {
			t.Fatalf("parseBound(%q): %v", tc.raw, err)
		}
		if got == nil || !got.Equal(tc.want) {
			t.Fatalf("parseBound(%q, %v) = %v, want %v", tc.raw, tc.upper, got, tc.want)
		}
	}

	if _, err := parseBound("15/02/2026", true, cet); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for a malformed date, got %v", err)
	}
	if got, err := parseBound("  ", true, cet); err != nil || got != nil {
		t.Fatalf("expected an empty bound to stay open, got %v, %v", got, err)
	}
}
