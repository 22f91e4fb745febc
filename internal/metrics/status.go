package metrics

import (
	"sort"
	"strconv"
)

// StatusBucket counts "other" errors sharing a status code and failure kind.
type StatusBucket struct {
	Code  int
	Kind  string
	Count int
}

// Label renders the code, or "none" when no status was received.
func (b StatusBucket) Label() string {
	if b.Code == 0 {
		return "none"
	}
	return strconv.Itoa(b.Code)
}

// FlattenStatusBuckets groups error entries into StatusBucket rows.
// Rows are sorted by descending count, then by code/kind for stability.
func FlattenStatusBuckets(entries []ErrorEntry) []StatusBucket {
	if len(entries) == 0 {
		return nil
	}
	type bucketKey struct {
		code int
		kind string
	}
	counts := make(map[bucketKey]int)
	for _, e := range entries {
		counts[bucketKey{e.StatusCode, e.Kind}]++
	}
	rows := make([]StatusBucket, 0, len(counts))
	for k, count := range counts {
		rows = append(rows, StatusBucket{Code: k.code, Kind: k.kind, Count: count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count == rows[j].Count {
			if rows[i].Code == rows[j].Code {
				return rows[i].Kind < rows[j].Kind
			}
			return rows[i].Code < rows[j].Code
		}
		return rows[i].Count > rows[j].Count
	})
	return rows
}
