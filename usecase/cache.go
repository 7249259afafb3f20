package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	domainCache "github.com/kavelar/moviemind/domains/cache"
	"github.com/kavelar/moviemind/domains/discovery"
)

type cacheService struct {
	store   discovery.ContentStore
	clock   discovery.Clock
	ttl     time.Duration
	backend string
}

// NewCacheService exposes the content store to the admin endpoints. It reads
// through the same envelopes the discovery service writes but never evicts:
// expiry stays a read-path concern of the content pipeline.
func NewCacheService(store discovery.ContentStore, clock discovery.Clock, ttl time.Duration, backend string) domainCache.ICacheUsecase {
	if clock == nil {
		clock = discovery.SystemClock{}
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &cacheService{store: store, clock: clock, ttl: ttl, backend: backend}
}

func (s *cacheService) Stats(ctx context.Context) (domainCache.CacheStats, error) {
	keys, err := s.store.Keys(ctx)
	if err != nil {
		return domainCache.CacheStats{}, err
	}

	stats := domainCache.CacheStats{
		Backend: s.backend,
		TTL:     s.ttl.String(),
		Entries: len(keys),
		Keys:    make([]domainCache.EntryInfo, 0, len(keys)),
	}

	now := s.clock.Now()
	for _, key := range keys {
		info := domainCache.EntryInfo{Key: key}

		raw, err := s.store.Get(ctx, key)
		if err != nil || raw == nil {
			stats.Keys = append(stats.Keys, info)
			continue
		}

		var envelope discovery.CacheEnvelope
		if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Timestamp == 0 {
			info.Expired = true
			stats.Keys = append(stats.Keys, info)
			continue
		}

		var items []discovery.ContentItem
		if err := json.Unmarshal(envelope.Data, &items); err == nil {
			info.Items = len(items)
		}
		info.Age = humanize.RelTime(time.UnixMilli(envelope.Timestamp), now, "ago", "from now")
		info.Expired = envelope.Age(now) > s.ttl
		stats.Keys = append(stats.Keys, info)
	}

	return stats, nil
}

func (s *cacheService) Clear(ctx context.Context) (int, error) {
	keys, err := s.store.Keys(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.store.Clear(ctx); err != nil {
		return 0, err
	}

	logrus.WithField("entries", len(keys)).Info("content cache cleared")
	return len(keys), nil
}
