package locking

import (
	"context"
	"errors"
	"sort"
)

// ErrNotObtained is returned when a lock could not be acquired before the context ended
// or the retry budget ran out.
var ErrNotObtained = errors.New("lock not obtained")

// Locker serializes critical sections keyed by ingredient. Acquire blocks until every key
// is held and returns a release func that must be called exactly once.
type Locker interface {
	Acquire(ctx context.Context, keys ...string) (release func(), err error)
}

// normalizeKeys sorts and de-duplicates keys so multi-key acquisition has one global order.
func normalizeKeys(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
