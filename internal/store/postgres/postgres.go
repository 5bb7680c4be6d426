package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"weekmenu/backend/internal/domain"
	"weekmenu/backend/internal/store"
)

//go:embed schema.sql
var schemaSQL string

const weekStartLayout = "2006-01-02"

type Store struct {
	db *sql.DB
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(4)
	db.SetMaxOpenConns(16)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Migrate creates any missing tables. It is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListRecipes(ctx context.Context) ([]domain.Recipe, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, url, image_url, servings, prep_time, calories, source, scraped_at, is_favorite
		FROM recipes
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	recipes, err := scanRecipes(rows)
	if err != nil {
		return nil, err
	}
	if err := s.attachDetails(ctx, recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

func (s *Store) GetRecipe(ctx context.Context, id int64) (*domain.Recipe, error) {
	byID, err := s.GetRecipesByIDs(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	r, ok := byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &r, nil
}

func (s *Store) GetRecipesByIDs(ctx context.Context, ids []int64) (map[int64]domain.Recipe, error) {
	result := make(map[int64]domain.Recipe, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, url, image_url, servings, prep_time, calories, source, scraped_at, is_favorite
		FROM recipes
		WHERE id = ANY($1)
		ORDER BY id
	`, ids)
	if err != nil {
		return nil, err
	}
	recipes, err := scanRecipes(rows)
	if err != nil {
		return nil, err
	}
	if err := s.attachDetails(ctx, recipes); err != nil {
		return nil, err
	}
	for _, r := range recipes {
		result[r.ID] = r
	}
	return result, nil
}

func scanRecipes(rows *sql.Rows) ([]domain.Recipe, error) {
	defer rows.Close()

	recipes := make([]domain.Recipe, 0, 64)
	for rows.Next() {
		var r domain.Recipe
		var prepTime, calories sql.NullInt64
		if err := rows.Scan(&r.ID, &r.Title, &r.URL, &r.ImageURL, &r.Servings, &prepTime, &calories, &r.Source, &r.ScrapedAt, &r.IsFavorite); err != nil {
			return nil, err
		}
		r.PrepTime = intPtr(prepTime)
		r.Calories = intPtr(calories)
		r.ScrapedAt = r.ScrapedAt.UTC()
		r.Tags = []string{}
		r.Ingredients = []domain.Ingredient{}
		recipes = append(recipes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return recipes, nil
}

// attachDetails fills ingredients, instructions and tags in place.
func (s *Store) attachDetails(ctx context.Context, recipes []domain.Recipe) error {
	if len(recipes) == 0 {
		return nil
	}
	ids := make([]int64, len(recipes))
	index := make(map[int64]int, len(recipes))
	for i, r := range recipes {
		ids[i] = r.ID
		index[r.ID] = i
	}

	if err := eachRow(ctx, s.db, `
		SELECT recipe_id, name, quantity, unit, raw_text
		FROM ingredients
		WHERE recipe_id = ANY($1)
		ORDER BY recipe_id, sort_order, id
	`, ids, func(rows *sql.Rows) error {
		var recipeID int64
		var ing domain.Ingredient
		if err := rows.Scan(&recipeID, &ing.Name, &ing.Quantity, &ing.Unit, &ing.RawText); err != nil {
			return err
		}
		r := &recipes[index[recipeID]]
		r.Ingredients = append(r.Ingredients, ing)
		return nil
	}); err != nil {
		return fmt.Errorf("load ingredients: %w", err)
	}

	if err := eachRow(ctx, s.db, `
		SELECT recipe_id, text
		FROM instructions
		WHERE recipe_id = ANY($1)
		ORDER BY recipe_id, step_number
	`, ids, func(rows *sql.Rows) error {
		var recipeID int64
		var text string
		if err := rows.Scan(&recipeID, &text); err != nil {
			return err
		}
		r := &recipes[index[recipeID]]
		r.Instructions = append(r.Instructions, text)
		return nil
	}); err != nil {
		return fmt.Errorf("load instructions: %w", err)
	}

	if err := eachRow(ctx, s.db, `
		SELECT rt.recipe_id, t.name
		FROM recipe_tags rt
		JOIN tags t ON t.id = rt.tag_id
		WHERE rt.recipe_id = ANY($1)
		ORDER BY rt.recipe_id, rt.position
	`, ids, func(rows *sql.Rows) error {
		var recipeID int64
		var name string
		if err := rows.Scan(&recipeID, &name); err != nil {
			return err
		}
		r := &recipes[index[recipeID]]
		r.Tags = append(r.Tags, name)
		return nil
	}); err != nil {
		return fmt.Errorf("load tags: %w", err)
	}
	return nil
}

func eachRow(ctx context.Context, q queryer, query string, ids []int64, fn func(*sql.Rows) error) error {
	rows, err := q.QueryContext(ctx, query, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *Store) SetFavorite(ctx context.Context, id int64, favorite bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE recipes SET is_favorite = $2 WHERE id = $1`, id, favorite)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (s *Store) ListBonuses(ctx context.Context) ([]domain.Bonus, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, product_name, discount_label, original_price, bonus_price, category, valid_from, valid_until, scraped_at
		FROM bonuses
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bonuses := make([]domain.Bonus, 0, 64)
	for rows.Next() {
		var b domain.Bonus
		var originalPrice, bonusPrice sql.NullFloat64
		var validFrom, validUntil sql.NullTime
		if err := rows.Scan(&b.ID, &b.ProductName, &b.DiscountLabel, &originalPrice, &bonusPrice, &b.Category, &validFrom, &validUntil, &b.ScrapedAt); err != nil {
			return nil, err
		}
		b.OriginalPrice = floatPtr(originalPrice)
		b.BonusPrice = floatPtr(bonusPrice)
		b.ValidFrom = timePtr(validFrom)
		b.ValidUntil = timePtr(validUntil)
		b.ScrapedAt = b.ScrapedAt.UTC()
		bonuses = append(bonuses, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bonuses, nil
}

func (s *Store) ListRecentMenuWeeks(ctx context.Context, limit int) ([]domain.MenuWeek, error) {
	if limit < 1 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, week_start, created_at
		FROM menu_weeks
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	weeks, err := scanWeeks(rows)
	if err != nil {
		return nil, err
	}
	if err := s.attachSlots(ctx, weeks); err != nil {
		return nil, err
	}
	return weeks, nil
}

func (s *Store) GetMenuWeek(ctx context.Context, id int64) (*domain.MenuWeek, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, week_start, created_at
		FROM menu_weeks
		WHERE id = $1
	`, id)
	if err != nil {
		return nil, err
	}
	weeks, err := scanWeeks(rows)
	if err != nil {
		return nil, err
	}
	if len(weeks) == 0 {
		return nil, store.ErrNotFound
	}
	if err := s.attachSlots(ctx, weeks); err != nil {
		return nil, err
	}
	return &weeks[0], nil
}

func scanWeeks(rows *sql.Rows) ([]domain.MenuWeek, error) {
	defer rows.Close()

	weeks := make([]domain.MenuWeek, 0, 4)
	for rows.Next() {
		var w domain.MenuWeek
		var weekStart time.Time
		if err := rows.Scan(&w.ID, &weekStart, &w.CreatedAt); err != nil {
			return nil, err
		}
		w.WeekStart = weekStart.Format(weekStartLayout)
		w.CreatedAt = w.CreatedAt.UTC()
		w.Slots = []domain.MenuSlot{}
		weeks = append(weeks, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return weeks, nil
}

func (s *Store) attachSlots(ctx context.Context, weeks []domain.MenuWeek) error {
	if len(weeks) == 0 {
		return nil
	}
	ids := make([]int64, len(weeks))
	index := make(map[int64]int, len(weeks))
	for i, w := range weeks {
		ids[i] = w.ID
		index[w.ID] = i
	}

	return eachRow(ctx, s.db, `
		SELECT id, menu_week_id, day_of_week, recipe_id
		FROM menu_slots
		WHERE menu_week_id = ANY($1)
		ORDER BY menu_week_id, day_of_week
	`, ids, func(rows *sql.Rows) error {
		var slot domain.MenuSlot
		if err := rows.Scan(&slot.ID, &slot.MenuWeekID, &slot.DayOfWeek, &slot.RecipeID); err != nil {
			return err
		}
		w := &weeks[index[slot.MenuWeekID]]
		w.Slots = append(w.Slots, slot)
		return nil
	})
}

func (s *Store) CreateMenuWeek(ctx context.Context, week domain.MenuWeek) (*domain.MenuWeek, error) {
	if err := store.ValidateMenuWeek(week); err != nil {
		return nil, err
	}
	if _, err := time.Parse(weekStartLayout, week.WeekStart); err != nil {
		return nil, store.ErrInvalidInput
	}
	if week.CreatedAt.IsZero() {
		week.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := tx.QueryRowContext(ctx, `
		INSERT INTO menu_weeks (week_start, created_at)
		VALUES ($1::date, $2)
		RETURNING id
	`, week.WeekStart, week.CreatedAt).Scan(&week.ID); err != nil {
		return nil, err
	}

	slots := make([]domain.MenuSlot, 0, len(week.Slots))
	for _, slot := range week.Slots {
		slot.MenuWeekID = week.ID
		if err := tx.QueryRowContext(ctx, `
			INSERT INTO menu_slots (menu_week_id, day_of_week, recipe_id)
			VALUES ($1,$2,$3)
			RETURNING id
		`, slot.MenuWeekID, slot.DayOfWeek, slot.RecipeID).Scan(&slot.ID); err != nil {
			if isForeignKeyViolation(err) || isUniqueViolation(err) {
				return nil, store.ErrInvalidInput
			}
			return nil, err
		}
		slots = append(slots, slot)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	week.CreatedAt = week.CreatedAt.UTC()
	week.Slots = slots
	sortSlotsByDay(week.Slots)
	return &week, nil
}

func (s *Store) GetMenuSlot(ctx context.Context, id int64) (*domain.MenuSlot, error) {
	var slot domain.MenuSlot
	err := s.db.QueryRowContext(ctx, `
		SELECT id, menu_week_id, day_of_week, recipe_id
		FROM menu_slots
		WHERE id = $1
	`, id).Scan(&slot.ID, &slot.MenuWeekID, &slot.DayOfWeek, &slot.RecipeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &slot, nil
}

func (s *Store) UpdateMenuSlotRecipe(ctx context.Context, slotID int64, recipeID int64) (*domain.MenuSlot, error) {
	var slot domain.MenuSlot
	err := s.db.QueryRowContext(ctx, `
		UPDATE menu_slots
		SET recipe_id = $2
		WHERE id = $1
		RETURNING id, menu_week_id, day_of_week, recipe_id
	`, slotID, recipeID).Scan(&slot.ID, &slot.MenuWeekID, &slot.DayOfWeek, &slot.RecipeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		if isForeignKeyViolation(err) {
			return nil, store.ErrInvalidInput
		}
		return nil, err
	}
	return &slot, nil
}

func (s *Store) DeleteMenuSlot(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM menu_slots WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (s *Store) ReplaceCatalog(ctx context.Context, catalog store.Catalog) (store.CatalogStats, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return store.CatalogStats{}, err
	}
	defer func() { _ = tx.Rollback() }()

	refs, err := collectSlotRefs(ctx, tx)
	if err != nil {
		return store.CatalogStats{}, fmt.Errorf("collect menu slots: %w", err)
	}

	for _, stmt := range []string{
		`DELETE FROM menu_slots`,
		`DELETE FROM recipe_tags`,
		`DELETE FROM tags`,
		`DELETE FROM instructions`,
		`DELETE FROM ingredients`,
		`DELETE FROM bonuses`,
		`DELETE FROM recipes`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return store.CatalogStats{}, err
		}
	}

	urlToID, err := insertRecipes(ctx, tx, catalog.Recipes)
	if err != nil {
		return store.CatalogStats{}, err
	}
	if err := insertBonuses(ctx, tx, catalog.Bonuses); err != nil {
		return store.CatalogStats{}, err
	}

	stats := store.CatalogStats{
		Recipes: len(catalog.Recipes),
		Tags:    store.CountTags(catalog.Recipes),
		Bonuses: len(catalog.Bonuses),
	}
	for _, ref := range refs {
		recipeID, ok := urlToID[ref.RecipeURL]
		if !ok {
			stats.SlotsDropped++
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO menu_slots (menu_week_id, day_of_week, recipe_id)
			VALUES ($1,$2,$3)
		`, ref.MenuWeekID, ref.DayOfWeek, recipeID); err != nil {
			return store.CatalogStats{}, err
		}
		stats.SlotsRemapped++
	}

	if err := tx.Commit(); err != nil {
		return store.CatalogStats{}, err
	}
	return stats, nil
}

func collectSlotRefs(ctx context.Context, tx *sql.Tx) ([]domain.SlotRef, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT ms.menu_week_id, ms.day_of_week, r.url
		FROM menu_slots ms
		JOIN recipes r ON r.id = ms.recipe_id
		ORDER BY ms.menu_week_id, ms.day_of_week
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	refs := make([]domain.SlotRef, 0, 32)
	for rows.Next() {
		var ref domain.SlotRef
		if err := rows.Scan(&ref.MenuWeekID, &ref.DayOfWeek, &ref.RecipeURL); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func insertRecipes(ctx context.Context, tx *sql.Tx, recipes []domain.Recipe) (map[string]int64, error) {
	ingredientStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ingredients (recipe_id, name, quantity, unit, raw_text, sort_order)
		VALUES ($1,$2,$3,$4,$5,$6)
	`)
	if err != nil {
		return nil, err
	}
	defer ingredientStmt.Close()

	instructionStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO instructions (recipe_id, step_number, text)
		VALUES ($1,$2,$3)
	`)
	if err != nil {
		return nil, err
	}
	defer instructionStmt.Close()

	tagIDs := make(map[string]int64)
	urlToID := make(map[string]int64, len(recipes))

	for _, r := range recipes {
		scrapedAt := r.ScrapedAt
		if scrapedAt.IsZero() {
			scrapedAt = time.Now().UTC()
		}

		var id int64
		err := tx.QueryRowContext(ctx, `
			INSERT INTO recipes (title, url, image_url, servings, prep_time, calories, source, scraped_at, is_favorite)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
			RETURNING id
		`, r.Title, r.URL, r.ImageURL, r.Servings, nullInt(r.PrepTime), nullInt(r.Calories), r.Source, scrapedAt, r.IsFavorite).Scan(&id)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, store.ErrInvalidInput
			}
			return nil, fmt.Errorf("insert recipe %q: %w", r.URL, err)
		}
		urlToID[r.URL] = id

		for i, ing := range r.Ingredients {
			if _, err := ingredientStmt.ExecContext(ctx, id, ing.Name, ing.Quantity, ing.Unit, ing.RawText, i); err != nil {
				return nil, fmt.Errorf("insert ingredient: %w", err)
			}
		}
		for i, text := range r.Instructions {
			if _, err := instructionStmt.ExecContext(ctx, id, i+1, text); err != nil {
				return nil, fmt.Errorf("insert instruction: %w", err)
			}
		}
		for i, name := range r.Tags {
			tagID, ok := tagIDs[name]
			if !ok {
				if err := tx.QueryRowContext(ctx, `
					INSERT INTO tags (name) VALUES ($1)
					ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
					RETURNING id
				`, name).Scan(&tagID); err != nil {
					return nil, fmt.Errorf("insert tag: %w", err)
				}
				tagIDs[name] = tagID
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO recipe_tags (recipe_id, tag_id, position)
				VALUES ($1,$2,$3)
				ON CONFLICT DO NOTHING
			`, id, tagID, i); err != nil {
				return nil, fmt.Errorf("link tag: %w", err)
			}
		}
	}
	return urlToID, nil
}

func insertBonuses(ctx context.Context, tx *sql.Tx, bonuses []domain.Bonus) error {
	for _, b := range bonuses {
		scrapedAt := b.ScrapedAt
		if scrapedAt.IsZero() {
			scrapedAt = time.Now().UTC()
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO bonuses (product_name, discount_label, original_price, bonus_price, category, valid_from, valid_until, scraped_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`, b.ProductName, b.DiscountLabel, nullFloat(b.OriginalPrice), nullFloat(b.BonusPrice), b.Category, nullTime(b.ValidFrom), nullTime(b.ValidUntil), scrapedAt); err != nil {
			return fmt.Errorf("insert bonus: %w", err)
		}
	}
	return nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	user.Username = normalizeUsername(user.Username)
	if user.Username == "" || user.Password == "" {
		return store.ErrInvalidInput
	}
	if user.Role == "" {
		user.Role = domain.RoleMember
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_users (username, password, role, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,now())
	`, user.Username, user.Password, user.Role, user.Active, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrInvalidInput
		}
		return err
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM app_users
		ORDER BY username ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 4)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		user.CreatedAt = user.CreatedAt.UTC()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	username = normalizeUsername(username)
	if username == "" || password == "" {
		return store.ErrInvalidInput
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE app_users
		SET password = $2, updated_at = now()
		WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func expectAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return hasCode(err, "23505")
}

func isForeignKeyViolation(err error) bool {
	return hasCode(err, "23503")
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return false
}
