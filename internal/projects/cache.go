package projects

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache wraps Redis based caching for the document overview.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper. A nil client disables caching.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// FetchJSON loads a cached value or populates it using the loader.
func (c *Cache) FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	if c == nil || c.client == nil {
		value, err := loader(ctx)
		if err != nil {
			return err
		}
		data, err := json.Marshal(value)
		if err != nil {
			return err
		}
		return json.Unmarshal(data, dest)
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		return json.Unmarshal(data, dest)
	}
	if !errors.Is(err, redis.Nil) {
		return err
	}

	value, err := loader(ctx)
	if err != nil {
		return err
	}
	data, err = json.Marshal(value)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

// Invalidate drops the overview entry for a project.
func (c *Cache) Invalidate(ctx context.Context, projectID int64) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, overviewKey(projectID)).Err()
}

func overviewKey(projectID int64) string {
	return fmt.Sprintf("projects:overview:%d", projectID)
}
