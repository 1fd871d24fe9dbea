package domain

import (
	"testing"
	"time"
)

func TestMonthBucketsGroupsAndOrders(t *testing.T) {
	mk := func(id string, created time.Time, status string, published bool) Item {
		return Item{ID: id, Kind: "notice", StatusID: status, Published: published, Created: created}
	}
	items := []Item{
		mk("a", time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), "pub", true),
		mk("b", time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC), "pub", true),
		mk("c", time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), "pub", true),
		mk("draft", time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), "draft", true),
		mk("unpub", time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), "pub", false),
	}

	buckets := MonthBuckets(items, "pub")
	if len(buckets) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(buckets))
	}
	if buckets[0].Key != "2026-03" || buckets[0].Count != 1 {
		t.Fatalf("expected newest month first, got %#v", buckets[0])
	}
	if buckets[0].Label != "March 2026 (1)" {
		t.Fatalf("unexpected label: %q", buckets[0].Label)
	}
	if buckets[1].Key != "2026-01" || buckets[1].Count != 2 {
		t.Fatalf("unexpected second bucket: %#v", buckets[1])
	}
}

func TestMonthBucketsEmpty(t *testing.T) {
	if got := MonthBuckets(nil, "pub"); len(got) != 0 {
		t.Fatalf("expected no buckets, got %#v", got)
	}
}
