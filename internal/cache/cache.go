package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
	"time"

	"weekmenu/backend/internal/domain"
)

const shoppingKeyPrefix = "weekmenu:shopping:"

type ShoppingListCache interface {
	Get(ctx context.Context, key string) (*domain.ShoppingList, bool, error)
	Set(ctx context.Context, key string, value *domain.ShoppingList, ttl time.Duration) error
	// Purge drops every cached shopping list. Called after the catalog changes.
	Purge(ctx context.Context) error
}

type NoopShoppingListCache struct{}

func (NoopShoppingListCache) Get(_ context.Context, _ string) (*domain.ShoppingList, bool, error) {
	return nil, false, nil
}

func (NoopShoppingListCache) Set(_ context.Context, _ string, _ *domain.ShoppingList, _ time.Duration) error {
	return nil
}

func (NoopShoppingListCache) Purge(_ context.Context) error {
	return nil
}

// ShoppingKey identifies a shopping list by the set of recipes it was built
// from. Order and duplicates do not change the key.
func ShoppingKey(recipeIDs []int64) string {
	ids := append([]int64(nil), recipeIDs...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	parts := make([]string, 0, len(ids))
	for i, id := range ids {
		if i > 0 && ids[i-1] == id {
			continue
		}
		parts = append(parts, strconv.FormatInt(id, 10))
	}

	hash := sha1.Sum([]byte(strings.Join(parts, "|")))
	return shoppingKeyPrefix + hex.EncodeToString(hash[:])
}
