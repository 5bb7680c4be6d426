package domain

import "time"

type Ingredient struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Unit     string `json:"unit"`
	RawText  string `json:"raw_text,omitempty"`
}

type Recipe struct {
	ID           int64        `json:"id"`
	Title        string       `json:"title"`
	URL          string       `json:"url"`
	ImageURL     string       `json:"image_url"`
	Source       string       `json:"source"`
	Servings     int          `json:"servings"`
	PrepTime     *int         `json:"prep_time,omitempty"`
	Calories     *int         `json:"calories,omitempty"`
	IsFavorite   bool         `json:"is_favorite"`
	Tags         []string     `json:"tags"`
	Ingredients  []Ingredient `json:"ingredients"`
	Instructions []string     `json:"instructions,omitempty"`
	ScrapedAt    time.Time    `json:"scraped_at"`
}

// RecipeSummary is the subset of a recipe shown on a menu card.
type RecipeSummary struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	ImageURL string `json:"image_url"`
	PrepTime *int   `json:"prep_time,omitempty"`
	Servings int    `json:"servings"`
	Source   string `json:"source"`
}

func (r Recipe) Summary() RecipeSummary {
	return RecipeSummary{
		ID:       r.ID,
		Title:    r.Title,
		ImageURL: r.ImageURL,
		PrepTime: r.PrepTime,
		Servings: r.Servings,
		Source:   r.Source,
	}
}

type Bonus struct {
	ID            int64      `json:"id"`
	ProductName   string     `json:"product_name"`
	DiscountLabel string     `json:"discount_label"`
	Category      string     `json:"category"`
	OriginalPrice *float64   `json:"original_price,omitempty"`
	BonusPrice    *float64   `json:"bonus_price,omitempty"`
	ValidFrom     *time.Time `json:"valid_from,omitempty"`
	ValidUntil    *time.Time `json:"valid_until,omitempty"`
	ScrapedAt     time.Time  `json:"scraped_at"`
}

// ActiveAt reports whether the promotion is valid at t. ValidFrom is
// inclusive, ValidUntil exclusive. Missing bounds are open.
func (b Bonus) ActiveAt(t time.Time) bool {
	if b.ValidFrom != nil && t.Before(*b.ValidFrom) {
		return false
	}
	if b.ValidUntil != nil && !t.Before(*b.ValidUntil) {
		return false
	}
	return true
}

const DaysPerWeek = 7

type MenuWeek struct {
	ID        int64      `json:"id"`
	WeekStart string     `json:"week_start"`
	CreatedAt time.Time  `json:"created_at"`
	Slots     []MenuSlot `json:"slots"`
}

type MenuSlot struct {
	ID         int64          `json:"id"`
	MenuWeekID int64          `json:"menu_week_id"`
	DayOfWeek  int            `json:"day_of_week"`
	RecipeID   int64          `json:"recipe_id"`
	Recipe     *RecipeSummary `json:"recipe,omitempty"`
}

type MenuSuggestion struct {
	DayOfWeek int           `json:"day_of_week"`
	Recipe    RecipeSummary `json:"recipe"`
	Reason    string        `json:"reason"`
}

type MenuResponse struct {
	Week        *MenuWeek        `json:"week,omitempty"`
	Suggestions []MenuSuggestion `json:"suggestions,omitempty"`
}

// SlotSwapResponse carries the slot after a swap. Swapped is false when every
// recipe was already on the week and the slot was left alone.
type SlotSwapResponse struct {
	Slot    MenuSlot `json:"slot"`
	Swapped bool     `json:"swapped"`
}

// ShoppingLine is one ingredient occurrence fed to the shopping aggregator.
type ShoppingLine struct {
	Name        string `json:"name"`
	Quantity    string `json:"quantity"`
	Unit        string `json:"unit"`
	RecipeTitle string `json:"recipe_title"`
}

type ShoppingItem struct {
	Name          string   `json:"name"`
	DisplayName   string   `json:"display_name"`
	TotalQuantity string   `json:"total_quantity"`
	Unit          string   `json:"unit"`
	Category      string   `json:"category"`
	FromRecipes   []string `json:"from_recipes"`

	// PartialQuantity is set when some contributing quantity could not be parsed
	// and is therefore missing from TotalQuantity.
	PartialQuantity bool `json:"partial_quantity,omitempty"`
}

type ShoppingList struct {
	MenuWeekID int64          `json:"menu_week_id,omitempty"`
	RecipeIDs  []int64        `json:"recipe_ids"`
	Items      []ShoppingItem `json:"items"`
	Cached     bool           `json:"cached"`
}

type FavoriteResponse struct {
	RecipeID   int64 `json:"recipe_id"`
	IsFavorite bool  `json:"is_favorite"`
}

type ImportIngredient struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Unit     string `json:"unit"`
	Raw      string `json:"raw"`
}

// ImportRecipe mirrors the JSON the scrapers write to disk.
type ImportRecipe struct {
	Title        string             `json:"title"`
	URL          string             `json:"url"`
	ImageURL     string             `json:"imageUrl"`
	Ingredients  []ImportIngredient `json:"ingredients"`
	Instructions []string           `json:"instructions"`
	Servings     int                `json:"servings"`
	PrepTime     *int               `json:"prepTime"`
	Calories     *int               `json:"calories"`
	Tags         []string           `json:"tags"`
	Source       string             `json:"source"`
	ScrapedAt    string             `json:"scrapedAt"`
}

type ImportBonus struct {
	ProductName   string   `json:"productName"`
	DiscountLabel string   `json:"discountLabel"`
	OriginalPrice *float64 `json:"originalPrice"`
	BonusPrice    *float64 `json:"bonusPrice"`
	Category      string   `json:"category"`
	ValidFrom     string   `json:"validFrom"`
	ValidUntil    string   `json:"validUntil"`
	ScrapedAt     string   `json:"scrapedAt"`
}

type ImportRequest struct {
	Favorites []ImportRecipe `json:"favorites"`
	Discover  []ImportRecipe `json:"discover"`
	Bonuses   []ImportBonus  `json:"bonuses"`
}

type ImportResult struct {
	Recipes       int `json:"recipes"`
	Favorites     int `json:"favorites"`
	SkippedDupes  int `json:"skipped_duplicates"`
	Tags          int `json:"tags"`
	Bonuses       int `json:"bonuses"`
	SlotsRemapped int `json:"slots_remapped"`
	SlotsDropped  int `json:"slots_dropped"`
}

// SlotRef ties a persisted menu slot to its recipe's URL so slots survive a reimport.
type SlotRef struct {
	MenuWeekID int64
	DayOfWeek  int
	RecipeURL  string
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

type Actor struct {
	Username string
	Role     string
}

type UserCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// UserView is an account as shown to admins, without the password hash.
type UserView struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}
