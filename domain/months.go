package domain

import (
	"fmt"
	"sort"
)

// PublishedColumnName is the column term marking publicly listed notices.
const PublishedColumnName = "Published"

// MonthBucket is one month of published notices with its count.
type MonthBucket struct {
	// Key is the YYYY-MM month key.
	Key string `json:"key"`
	// Label is the display label including the count, e.g. "March 2026 (4)".
	Label string `json:"label"`
	Count int    `json:"count"`
}

// MonthBuckets groups published items carrying the given status into
// monthly buckets by creation time, newest month first.
func MonthBuckets(items []Item, statusID string) []MonthBucket {
	counts := make(map[string]int)
	labels := make(map[string]string)
	for _, it := range items {
		if !it.Published || it.StatusID != statusID {
			continue
		}
		key := it.Created.Format("2006-01")
		counts[key]++
		labels[key] = it.Created.Format("January 2006")
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	buckets := make([]MonthBucket, len(keys))
	for i, k := range keys {
		buckets[i] = MonthBucket{
			Key:   k,
			Label: fmt.Sprintf("%s (%d)", labels[k], counts[k]),
			Count: counts[k],
		}
	}
	return buckets
}
