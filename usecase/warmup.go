package usecase

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"

	"github.com/kavelar/moviemind/domains/discovery"
)

// WarmTarget is one prefetch unit for cache warming.
type WarmTarget struct {
	Kind  string
	Param string
}

// DefaultWarmTargets covers the feeds the SPA renders on first load:
// trending plus the four named category rows.
func DefaultWarmTargets() []WarmTarget {
	return []WarmTarget{
		{Kind: discovery.KindTrending},
		{Kind: discovery.KindCategory, Param: discovery.CategoryTV},
		{Kind: discovery.KindCategory, Param: discovery.CategoryMovies},
		{Kind: discovery.KindCategory, Param: discovery.CategoryNew},
		{Kind: discovery.KindCategory, Param: discovery.CategoryWeb},
	}
}

// WarmResult summarizes one warmed target.
type WarmResult struct {
	Kind     string
	Param    string
	Items    int
	Degraded bool
	Err      error
}

// WarmCache force-refreshes every target through the discovery service using
// a bounded worker pool, so a cold start or a cron job can fill the cache
// before users hit it. Results come back in target order.
func WarmCache(ctx context.Context, svc discovery.IDiscoveryUsecase, targets []WarmTarget, workers int) []WarmResult {
	if len(targets) == 0 {
		targets = DefaultWarmTargets()
	}
	if workers <= 0 {
		workers = 3
	}

	results := make([]WarmResult, len(targets))
	p := pool.New().WithMaxGoroutines(workers)
	for i, target := range targets {
		p.Go(func() {
			start := time.Now()
			res, err := svc.Refresh(ctx, target.Kind, target.Param)
			results[i] = WarmResult{
				Kind:     target.Kind,
				Param:    target.Param,
				Items:    len(res.Items),
				Degraded: res.Degraded,
				Err:      err,
			}

			entry := logrus.WithFields(logrus.Fields{
				"kind":     target.Kind,
				"param":    target.Param,
				"items":    len(res.Items),
				"duration": time.Since(start).Round(time.Millisecond).String(),
			})
			if err != nil || res.Degraded {
				entry.Warn("warm target failed")
				return
			}
			entry.Info("warmed content target")
		})
	}
	p.Wait()

	return results
}
