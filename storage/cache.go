package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"strata-api/domain"
)

type backend interface {
	SaveItemPlacement(ctx context.Context, it *domain.Item, statusID string, weight *int) error
	SaveSettings(ctx context.Context, settings domain.Settings) error
}

// Cache wraps a Storage instance with Redis-backed caching of assembled
// board views. Every cached view is indexed under its cache tags, and a
// write to any tagged entity evicts the dependent views. This keeps cached
// output correct across item mutations, not merely fresh-ish.
type Cache struct {
	*Storage
	base  backend
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching Storage wrapper using the provided Redis
// client and TTL.
func NewCache(base backend, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base storage is nil")
	}
	if ttl < 0 {
		ttl = 0
	}

	c := &Cache{
		base:  base,
		redis: client,
		ttl:   ttl,
	}
	if s, ok := base.(*Storage); ok {
		c.Storage = s
	}
	return c
}

// LoadBoardView returns a cached board view, if present and decodable.
func (c *Cache) LoadBoardView(ctx context.Context, boardID string) (*domain.BoardView, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, boardViewKey(boardID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to assembly without failing.
			_ = c.redis.Del(ctx, boardViewKey(boardID)).Err()
		}
		return nil, false
	}
	var view domain.BoardView
	if err := json.Unmarshal(data, &view); err != nil {
		_ = c.redis.Del(ctx, boardViewKey(boardID)).Err()
		return nil, false
	}
	return &view, true
}

// StoreBoardView caches an assembled view and registers it under each of
// its cache tags. Best effort: cache failures never surface to callers.
func (c *Cache) StoreBoardView(ctx context.Context, view domain.BoardView) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(view)
	if err != nil {
		return
	}
	key := boardViewKey(view.ID)
	_ = c.redis.Set(ctx, key, data, c.ttl).Err()
	for _, tag := range view.CacheTags {
		_ = c.redis.SAdd(ctx, tagKey(tag), key).Err()
		_ = c.redis.Expire(ctx, tagKey(tag), c.ttl).Err()
	}
}

// EvictTags deletes every cached view registered under any of the tags.
func (c *Cache) EvictTags(ctx context.Context, tags ...string) {
	if c.redis == nil {
		return
	}
	for _, tag := range tags {
		keys, err := c.redis.SMembers(ctx, tagKey(tag)).Result()
		if err != nil {
			continue
		}
		if len(keys) > 0 {
			_ = c.redis.Del(ctx, keys...).Err()
		}
		_ = c.redis.Del(ctx, tagKey(tag)).Err()
	}
}

// SaveItemPlacement persists through the base store and evicts every view
// depending on the item or its board.
func (c *Cache) SaveItemPlacement(ctx context.Context, it *domain.Item, statusID string, weight *int) error {
	if err := c.base.SaveItemPlacement(ctx, it, statusID, weight); err != nil {
		return err
	}
	c.EvictTags(ctx, "item:"+it.ID, "board:"+it.BoardID)
	return nil
}

// SaveSettings persists through the base store. Settings are not cached,
// so there is nothing to evict.
func (c *Cache) SaveSettings(ctx context.Context, settings domain.Settings) error {
	return c.base.SaveSettings(ctx, settings)
}

func boardViewKey(boardID string) string {
	return "boardview:" + boardID
}

func tagKey(tag string) string {
	return "tag:" + tag
}
