package cache

import "context"

// EntryInfo describes one cached content list for the admin endpoints.
type EntryInfo struct {
	Key     string `json:"key"`
	Items   int    `json:"items"`
	Age     string `json:"age"` // humanized, e.g. "12 minutes ago"
	Expired bool   `json:"expired"`
}

// CacheStats is the admin view over the content cache.
type CacheStats struct {
	Backend string      `json:"backend"`
	TTL     string      `json:"ttl"`
	Entries int         `json:"entries"`
	Keys    []EntryInfo `json:"keys"`
}

type ICacheUsecase interface {
	Stats(ctx context.Context) (CacheStats, error)
	Clear(ctx context.Context) (int, error)
}
