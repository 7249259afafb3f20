package discovery

import (
	"context"
	"encoding/json"
	"time"
)

// CacheEnvelope is the persisted shape of a cache entry: the payload plus its
// creation time in unix milliseconds. Entries that fail to parse as this
// envelope are treated as absent and removed.
type CacheEnvelope struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// Age returns how old the envelope is relative to now.
func (e CacheEnvelope) Age(now time.Time) time.Duration {
	return now.Sub(time.UnixMilli(e.Timestamp))
}

// ContentStore is a namespaced key-value store for cache envelopes. Expiry
// policy is owned by the service, not the store: Get returns whatever is
// stored (nil, nil on miss) and the service decides staleness against its
// injected clock. The ttl passed to Set is a backstop hint that backends with
// native expiry may apply; backends without one ignore it and entries live
// until read-expiry removes them.
type ContentStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
	Clear(ctx context.Context) error
	Ping(ctx context.Context) error
}

// Clock abstracts time so tests can control entry expiry.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// RefreshNotifier receives an event whenever a live fetch lands in the cache,
// so connected UI clients can re-render without polling.
type RefreshNotifier interface {
	ContentRefreshed(kind, key string, count int)
}
