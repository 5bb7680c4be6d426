package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"weekmenu/backend/internal/domain"
	"weekmenu/backend/internal/store"
)

func TestReplaceCatalogKeepsMenuSlots(t *testing.T) {
	databaseURL := os.Getenv("WEEKMENU_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set WEEKMENU_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	stamp := time.Now().UnixNano()
	keptURL := fmt.Sprintf("https://example.test/it/kept-%d", stamp)
	goneURL := fmt.Sprintf("https://example.test/it/gone-%d", stamp)
	prep := 45

	_, err = s.ReplaceCatalog(ctx, store.Catalog{Recipes: []domain.Recipe{
		{
			Title: "Blijft", URL: keptURL, Source: "ah.be", Servings: 4, PrepTime: &prep, IsFavorite: true,
			Tags:         []string{"thais", "curry"},
			Ingredients:  []domain.Ingredient{{Name: "kipfilet", Quantity: "400", Unit: "g"}, {Name: "rijst", Quantity: "300", Unit: "g"}},
			Instructions: []string{"Kook de rijst.", "Bak de kip."},
		},
		{Title: "Verdwijnt", URL: goneURL, Source: "ah.be", Servings: 2},
	}})
	if err != nil {
		t.Fatalf("seed catalog: %v", err)
	}

	recipes, err := s.ListRecipes(ctx)
	if err != nil {
		t.Fatalf("list recipes: %v", err)
	}
	byURL := map[string]domain.Recipe{}
	for _, r := range recipes {
		byURL[r.URL] = r
	}
	kept := byURL[keptURL]
	if len(kept.Ingredients) != 2 || kept.Ingredients[0].Name != "kipfilet" || len(kept.Instructions) != 2 {
		t.Fatalf("expected ordered details, got %+v", kept)
	}
	if len(kept.Tags) != 2 || kept.Tags[0] != "thais" {
		t.Fatalf("expected tag order preserved, got %v", kept.Tags)
	}
	if kept.PrepTime == nil || *kept.PrepTime != 45 {
		t.Fatalf("expected prep time 45, got %v", kept.PrepTime)
	}

	week, err := s.CreateMenuWeek(ctx, domain.MenuWeek{
		WeekStart: "2026-02-09",
		Slots: []domain.MenuSlot{
			{DayOfWeek: 5, RecipeID: kept.ID},
			{DayOfWeek: 1, RecipeID: byURL[goneURL].ID},
		},
	})
	if err != nil {
		t.Fatalf("create week: %v", err)
	}
	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM menu_weeks WHERE id = $1`, week.ID)
	})

	stats, err := s.ReplaceCatalog(ctx, store.Catalog{Recipes: []domain.Recipe{
		{Title: "Blijft", URL: keptURL, Source: "ah.be", Servings: 4},
	}})
	if err != nil {
		t.Fatalf("replace catalog: %v", err)
	}
	if stats.SlotsDropped < 1 || stats.SlotsRemapped < 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	got, err := s.GetMenuWeek(ctx, week.ID)
	if err != nil {
		t.Fatalf("get week: %v", err)
	}
	if got.WeekStart != "2026-02-09" {
		t.Fatalf("expected week start 2026-02-09, got %s", got.WeekStart)
	}
	if len(got.Slots) != 1 || got.Slots[0].DayOfWeek != 5 {
		t.Fatalf("expected saturday slot to survive, got %+v", got.Slots)
	}
}
