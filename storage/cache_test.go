package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"strata-api/domain"
)

type stubBackend struct {
	saveItemPlacementFn func(ctx context.Context, it *domain.Item, statusID string, weight *int) error
	saveSettingsFn      func(ctx context.Context, settings domain.Settings) error
}

func (s *stubBackend) SaveItemPlacement(ctx context.Context, it *domain.Item, statusID string, weight *int) error {
	if s.saveItemPlacementFn == nil {
		return errors.New("unexpected SaveItemPlacement call")
	}
	return s.saveItemPlacementFn(ctx, it, statusID, weight)
}

func (s *stubBackend) SaveSettings(ctx context.Context, settings domain.Settings) error {
	if s.saveSettingsFn == nil {
		return errors.New("unexpected SaveSettings call")
	}
	return s.saveSettingsFn(ctx, settings)
}

func newTestCache(t *testing.T, base backend) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewCache(base, client, time.Minute), mr
}

func testView() domain.BoardView {
	return domain.BoardView{
		ID:    "b1",
		Title: "Sprint",
		Columns: []domain.ColumnView{
			{ID: "c1", Name: "To do", Cards: []domain.Card{{ID: "i1", Title: "Fix lift"}}},
		},
		CacheTags: []string{"board:b1", "item:i1"},
	}
}

func TestCacheStoreAndLoadBoardView(t *testing.T) {
	cache, mr := newTestCache(t, &stubBackend{})
	ctx := context.Background()

	if _, ok := cache.LoadBoardView(ctx, "b1"); ok {
		t.Fatal("expected cache miss before store")
	}

	cache.StoreBoardView(ctx, testView())

	view, ok := cache.LoadBoardView(ctx, "b1")
	if !ok {
		t.Fatal("expected cache hit after store")
	}
	if view.ID != "b1" || len(view.Columns) != 1 || view.Columns[0].Cards[0].ID != "i1" {
		t.Fatalf("unexpected cached view: %#v", view)
	}
	if ttl := mr.TTL(boardViewKey("b1")); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("unexpected TTL: %v", ttl)
	}
}

func TestCacheSaveItemPlacementEvictsTaggedViews(t *testing.T) {
	var saved bool
	cache, _ := newTestCache(t, &stubBackend{
		saveItemPlacementFn: func(ctx context.Context, it *domain.Item, statusID string, weight *int) error {
			saved = true
			return nil
		},
	})
	ctx := context.Background()
	cache.StoreBoardView(ctx, testView())

	it := &domain.Item{ID: "i1", BoardID: "b1"}
	if err := cache.SaveItemPlacement(ctx, it, "c2", nil); err != nil {
		t.Fatalf("save placement: %v", err)
	}
	if !saved {
		t.Fatal("expected write to reach the base store")
	}
	if _, ok := cache.LoadBoardView(ctx, "b1"); ok {
		t.Fatal("expected dependent view to be evicted")
	}
}

func TestCacheSaveItemPlacementFailureKeepsCache(t *testing.T) {
	cache, _ := newTestCache(t, &stubBackend{
		saveItemPlacementFn: func(ctx context.Context, it *domain.Item, statusID string, weight *int) error {
			return errors.New("storage down")
		},
	})
	ctx := context.Background()
	cache.StoreBoardView(ctx, testView())

	it := &domain.Item{ID: "i1", BoardID: "b1"}
	if err := cache.SaveItemPlacement(ctx, it, "c2", nil); err == nil {
		t.Fatal("expected error from base store")
	}
	if _, ok := cache.LoadBoardView(ctx, "b1"); !ok {
		t.Fatal("failed write must not evict the cached view")
	}
}

func TestCacheEvictTagsByItemTag(t *testing.T) {
	cache, _ := newTestCache(t, &stubBackend{})
	ctx := context.Background()
	cache.StoreBoardView(ctx, testView())

	cache.EvictTags(ctx, "item:i1")

	if _, ok := cache.LoadBoardView(ctx, "b1"); ok {
		t.Fatal("expected view evicted via item tag")
	}
}

func TestCacheFallsBackOnCorruptEntry(t *testing.T) {
	cache, mr := newTestCache(t, &stubBackend{})
	ctx := context.Background()

	mr.Set(boardViewKey("b1"), "{not json")

	if _, ok := cache.LoadBoardView(ctx, "b1"); ok {
		t.Fatal("expected miss for corrupt entry")
	}
	if mr.Exists(boardViewKey("b1")) {
		t.Fatal("corrupt entry should have been deleted")
	}
}

func TestCacheNilRedisIsPassthrough(t *testing.T) {
	cache := NewCache(&stubBackend{
		saveItemPlacementFn: func(ctx context.Context, it *domain.Item, statusID string, weight *int) error {
			return nil
		},
	}, nil, time.Minute)
	ctx := context.Background()

	cache.StoreBoardView(ctx, testView())
	if _, ok := cache.LoadBoardView(ctx, "b1"); ok {
		t.Fatal("nil redis must never hit")
	}
	if err := cache.SaveItemPlacement(ctx, &domain.Item{ID: "i1", BoardID: "b1"}, "c1", nil); err != nil {
		t.Fatalf("passthrough save: %v", err)
	}
}
