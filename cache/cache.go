// Package cache provides a fail-open response cache over a string-keyed
// store with TTL. The cache is advisory infrastructure: every operation
// degrades to a miss or a no-op when the backend is unavailable, so cache
// failures can never turn into gateway failures. Backend errors are logged,
// never returned.
package cache

import (
	"context"
	"time"
)

// DefaultTTL is applied to Set calls that do not specify an expiration.
const DefaultTTL = time.Hour

// Cache is a generic get/set/remove/exists abstraction over a string-keyed
// store. Values are serialized to JSON on Set and decoded on Get.
//
// The signatures intentionally carry no error returns: fail-open is the
// contract, not an implementation detail. Get reports false on a miss, a
// backend failure, or a value that does not decode into dest. Exists shares
// Get's failure semantics rather than querying backend metadata.
type Cache interface {
	Get(ctx context.Context, key string, dest any) bool
	Set(ctx context.Context, key string, value any, ttl time.Duration)
	Remove(ctx context.Context, key string)
	Exists(ctx context.Context, key string) bool
}
