package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"

	"weekmenu/backend/internal/domain"
)

const purgeBatch = 200

type RedisShoppingListCache struct {
	client *redis.Client
}

func NewRedisShoppingListCache(addr string, password string, db int) *RedisShoppingListCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisShoppingListCache{client: client}
}

func (c *RedisShoppingListCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisShoppingListCache) Close() error {
	return c.client.Close()
}

func (c *RedisShoppingListCache) Get(ctx context.Context, key string) (*domain.ShoppingList, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var list domain.ShoppingList
	if err := json.Unmarshal([]byte(val), &list); err != nil {
		return nil, false, err
	}
	return &list, true, nil
}

func (c *RedisShoppingListCache) Set(ctx context.Context, key string, value *domain.ShoppingList, ttl time.Duration) error {
	if value == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, ttl).Err()
}

func (c *RedisShoppingListCache) Purge(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, shoppingKeyPrefix+"*", purgeBatch).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
