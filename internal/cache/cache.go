// Package cache implements the read-through character cache: a keyed
// get-or-compute store with per-entry expiration, single-entry deletion, and
// bulk invalidation.
//
// Two backends implement the same Store contract: an in-process map
// (the default) and Redis (for shared deployments, selected by REDIS_ADDR).
// Values are opaque byte slices; callers serialize their own payloads so the
// two backends stay interchangeable.
//
// Concurrent misses for the same key are collapsed into one producer call
// via singleflight, so an expensive recomputation (an external API fetch)
// runs at most once per key at a time. Producer failures are never stored;
// the error propagates to every waiting caller and the next request
// recomputes.
//
// The cache is a projection of the database and the external catalog, never
// a source of truth: every entry can be dropped at any time without loss.
package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Producer computes the value for a cache key on a miss. It must honor ctx
// and return either a serialized value or an error; errors are not cached.
type Producer func(ctx context.Context) ([]byte, error)

// Store is the read-through cache contract shared by the memory and Redis
// backends.
type Store interface {
	// GetOrCompute returns the live value for key, or invokes produce,
	// stores the result with the given TTL, and returns it. Concurrent
	// misses for the same key share a single produce call.
	GetOrCompute(ctx context.Context, key string, ttl time.Duration, produce Producer) ([]byte, error)

	// Delete removes a single entry and reports whether it existed.
	Delete(ctx context.Context, key string) bool

	// Clear removes all entries unconditionally and reports success.
	Clear(ctx context.Context) bool
}

// Key derives a deterministic cache key from a logical action name
// ("search", "random", "daily", "all") and optional parameters. String and
// integer parameters are appended verbatim; anything else is content-hashed
// so that identical logical requests always map to the same key.
func Key(action string, params ...any) string {
	key := "character_" + action
	for _, p := range params {
		switch v := p.(type) {
		case nil:
			continue
		case string:
			key += "_" + v
		case int, int32, int64, uint, uint32, uint64:
			key += fmt.Sprintf("_%d", v)
		default:
			b, err := json.Marshal(v)
			if err != nil {
				// Fall back to the fmt representation; still deterministic
				// for the value types we cache.
				b = []byte(fmt.Sprintf("%v", v))
			}
			sum := md5.Sum(b)
			key += "_" + hex.EncodeToString(sum[:])
		}
	}
	return key
}
