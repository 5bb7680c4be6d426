package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"weekmenu/backend/internal/domain"
	"weekmenu/backend/internal/logging"
	"weekmenu/backend/internal/store"
)

const defaultServings = 4

// Import replaces the recipe catalog and promotions with scraper output.
// Favorites go first so that a recipe present in both lists stays a favorite.
// Saved menus are kept and follow their recipes by URL.
func (s *Service) Import(ctx context.Context, req domain.ImportRequest) (domain.ImportResult, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.ImportResult{}, err
	}
	return s.importCatalog(ctx, req)
}

// ImportAsSystem runs an import outside of any request, for the importer CLI.
func (s *Service) ImportAsSystem(ctx context.Context, req domain.ImportRequest) (domain.ImportResult, error) {
	return s.importCatalog(WithActor(ctx, domain.Actor{Username: "system", Role: domain.RoleAdmin}), req)
}

func (s *Service) importCatalog(ctx context.Context, req domain.ImportRequest) (domain.ImportResult, error) {
	now := s.now().UTC()
	var result domain.ImportResult

	seen := make(map[string]struct{}, len(req.Favorites)+len(req.Discover))
	recipes := make([]domain.Recipe, 0, len(req.Favorites)+len(req.Discover))
	add := func(items []domain.ImportRecipe, favorite bool) error {
		for _, item := range items {
			url := strings.TrimSpace(item.URL)
			if url == "" || strings.TrimSpace(item.Title) == "" {
				return fmt.Errorf("%w: recipe without title or url", store.ErrInvalidInput)
			}
			if _, dup := seen[url]; dup {
				result.SkippedDupes++
				continue
			}
			seen[url] = struct{}{}
			recipes = append(recipes, toRecipe(item, url, favorite, now))
			if favorite {
				result.Favorites++
			}
		}
		return nil
	}
	if err := add(req.Favorites, true); err != nil {
		return domain.ImportResult{}, err
	}
	if err := add(req.Discover, false); err != nil {
		return domain.ImportResult{}, err
	}

	bonuses := make([]domain.Bonus, 0, len(req.Bonuses))
	for _, item := range req.Bonuses {
		b, err := toBonus(item, now, s.loc)
		if err != nil {
			return domain.ImportResult{}, err
		}
		bonuses = append(bonuses, b)
	}

	stats, err := s.repo.ReplaceCatalog(ctx, store.Catalog{Recipes: recipes, Bonuses: bonuses})
	if err != nil {
		return domain.ImportResult{}, fmt.Errorf("replace catalog: %w", err)
	}

	if err := s.cache.Purge(ctx); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("shopping list cache purge failed")
	}

	result.Recipes = stats.Recipes
	result.Tags = stats.Tags
	result.Bonuses = stats.Bonuses
	result.SlotsRemapped = stats.SlotsRemapped
	result.SlotsDropped = stats.SlotsDropped

	logging.Ctx(ctx).Info().
		Int("recipes", result.Recipes).
		Int("favorites", result.Favorites).
		Int("skipped_duplicates", result.SkippedDupes).
		Int("bonuses", result.Bonuses).
		Int("slots_remapped", result.SlotsRemapped).
		Int("slots_dropped", result.SlotsDropped).
		Msg("catalog imported")

	return result, nil
}

func toRecipe(item domain.ImportRecipe, url string, favorite bool, now time.Time) domain.Recipe {
	servings := item.Servings
	if servings < 1 {
		servings = defaultServings
	}

	ingredients := make([]domain.Ingredient, 0, len(item.Ingredients))
	for _, ing := range item.Ingredients {
		ingredients = append(ingredients, domain.Ingredient{
			Name:     ing.Name,
			Quantity: ing.Quantity,
			Unit:     ing.Unit,
			RawText:  ing.Raw,
		})
	}

	return domain.Recipe{
		Title:        strings.TrimSpace(item.Title),
		URL:          url,
		ImageURL:     item.ImageURL,
		Source:       item.Source,
		Servings:     servings,
		PrepTime:     item.PrepTime,
		Calories:     item.Calories,
		IsFavorite:   favorite,
		Tags:         normalizeTags(item.Tags),
		Ingredients:  ingredients,
		Instructions: append([]string(nil), item.Instructions...),
		ScrapedAt:    parseTimestamp(item.ScrapedAt, now),
	}
}

// normalizeTags lowercases and trims tags, dropping empties and repeats.
func normalizeTags(raw []string) []string {
	tags := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, tag := range raw {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

func toBonus(item domain.ImportBonus, now time.Time, loc *time.Location) (domain.Bonus, error) {
	if strings.TrimSpace(item.ProductName) == "" {
		return domain.Bonus{}, fmt.Errorf("%w: bonus without product name", store.ErrInvalidInput)
	}
	validFrom, err := parseBound(item.ValidFrom, false, loc)
	if err != nil {
		return domain.Bonus{}, err
	}
	validUntil, err := parseBound(item.ValidUntil, true, loc)
	if err != nil {
		return domain.Bonus{}, err
	}

	return domain.Bonus{
		ProductName:   strings.TrimSpace(item.ProductName),
		DiscountLabel: strings.TrimSpace(item.DiscountLabel),
		Category:      item.Category,
		OriginalPrice: item.OriginalPrice,
		BonusPrice:    item.BonusPrice,
		ValidFrom:     validFrom,
		ValidUntil:    validUntil,
		ScrapedAt:     parseTimestamp(item.ScrapedAt, now),
	}, nil
}

// parseBound reads a promotion bound. A bare date is midnight in loc; as an
// upper bound it becomes the following midnight, which ActiveAt excludes.
func parseBound(raw string, upper bool, loc *time.Location) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.ParseInLocation(weekStartLayout, raw, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid promotion date %q", store.ErrInvalidInput, raw)
	}
	if upper {
		t = t.AddDate(0, 0, 1)
	}
	return &t, nil
}

func parseTimestamp(raw string, fallback time.Time) time.Time {
	if t, err := time.Parse(time.RFC3339, strings.TrimSpace(raw)); err == nil {
		return t.UTC()
	}
	return fallback
}
