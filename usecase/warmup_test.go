package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kavelar/moviemind/domains/discovery"
)

func TestWarmCacheDefaultTargets(t *testing.T) {
	provider := &fakeProvider{generate: staticItems("Dune", "Dark")}
	svc, _, store := newTestDiscovery(provider)

	results := WarmCache(context.Background(), svc, nil, 2)

	if len(results) != 5 {
		t.Fatalf("warmed %d targets, want 5 (trending + 4 categories)", len(results))
	}
	if provider.callCount() != 5 {
		t.Fatalf("backend called %d times, want 5", provider.callCount())
	}
	if results[0].Kind != discovery.KindTrending {
		t.Errorf("results out of target order: %+v", results[0])
	}
	for _, r := range results {
		if r.Err != nil || r.Degraded || r.Items != 2 {
			t.Errorf("warm result = %+v", r)
		}
	}

	keys, err := store.Keys(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 5 {
		t.Fatalf("store holds %d entries after warm, want 5: %v", len(keys), keys)
	}

	// Warmed entries serve follow-up traffic from cache.
	if result := svc.Trending(context.Background()); result.Source != discovery.SourceCache {
		t.Errorf("trending after warm came from %q, want cache", result.Source)
	}
}

func TestWarmCacheReportsDegradedTargets(t *testing.T) {
	provider := &fakeProvider{generate: func(discovery.ItemsRequest) ([]discovery.ContentItem, error) {
		return nil, errors.New("backend down")
	}}
	svc, _, store := newTestDiscovery(provider)

	results := WarmCache(context.Background(), svc, []WarmTarget{{Kind: discovery.KindTrending}}, 1)

	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if !results[0].Degraded {
		t.Errorf("failed warm target should report degraded: %+v", results[0])
	}

	if keys, _ := store.Keys(context.Background()); len(keys) != 0 {
		t.Errorf("failed warm must not populate the cache, found %v", keys)
	}
}
