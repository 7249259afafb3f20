package cmd

import (
	"context"
	"os"

	"github.com/kavelar/moviemind/domains/discovery"
	"github.com/kavelar/moviemind/usecase"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	warmWorkers    int
	warmCategories []string
)

var warmCmd = &cobra.Command{
	Use:   "warm",
	Short: "Prefetch content into the cache and exit",
	Long:  `Fetches the trending feed and the category feeds once so the first page load after a deploy is served from cache. Intended for cron or post-deploy hooks; exits non-zero when any target stayed degraded.`,
	Run:   warmCache,
}

func init() {
	rootCmd.AddCommand(warmCmd)
	warmCmd.Flags().IntVar(&warmWorkers, "workers", 3, "number of concurrent prefetch workers")
	warmCmd.Flags().StringSliceVar(&warmCategories, "categories", nil, "category names to warm (default: tv, movies, new, web)")
}

func warmCache(_ *cobra.Command, _ []string) {
	targets := usecase.DefaultWarmTargets()
	if len(warmCategories) > 0 {
		targets = []usecase.WarmTarget{{Kind: discovery.KindTrending}}
		for _, name := range warmCategories {
			targets = append(targets, usecase.WarmTarget{Kind: discovery.KindCategory, Param: name})
		}
	}

	results := usecase.WarmCache(context.Background(), discoveryUsecase, targets, warmWorkers)

	failed := 0
	for _, result := range results {
		if result.Degraded || result.Err != nil {
			failed++
		}
	}

	StopApp()

	if failed > 0 {
		logrus.Warnf("Cache warm finished with %d of %d targets degraded", failed, len(results))
		os.Exit(1)
	}
	logrus.Infof("Cache warm finished, %d targets populated", len(results))
}
