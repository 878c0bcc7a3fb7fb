package main

import (
	"net/http"
	"time"

	"github.com/sells-group/gnis-cli/internal/cache"
	"github.com/sells-group/gnis-cli/internal/fetcher"
	"github.com/sells-group/gnis-cli/internal/gazetteer"
	"github.com/sells-group/gnis-cli/internal/gpkg"
	"github.com/sells-group/gnis-cli/internal/pipeline"
	"github.com/sells-group/gnis-cli/internal/resilience"
	"github.com/sells-group/gnis-cli/pkg/elevation"
)

// Collaborator wiring shared by the run commands. Everything hangs off cfg,
// which PersistentPreRunE has populated by the time a RunE fires.

func newCacheStore() *cache.Store {
	return cache.New(cfg.Cache.Dir)
}

func newResolver(store *cache.Store) *gazetteer.Resolver {
	f := &fetcher.SchemeFetcher{
		HTTP: fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			Timeout:      time.Duration(cfg.Download.TimeoutSecs) * time.Second,
			MaxRetries:   cfg.Download.MaxRetries,
			RateLimiters: fetcher.DefaultRateLimiters(),
		}),
		FTP: fetcher.NewFTPFetcher(fetcher.FTPOptions{
			Timeout: time.Duration(cfg.Download.TimeoutSecs) * time.Second,
		}),
	}
	return gazetteer.NewResolver(f, store, cfg.Gazetteer.BaseURL, "")
}

func newElevationClient(units elevation.Units) elevation.Client {
	return elevation.NewClient(
		elevation.WithEndpoint(cfg.Elevation.URL),
		elevation.WithUnits(units),
		elevation.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Elevation.TimeoutSecs) * time.Second}),
		elevation.WithRateLimit(cfg.Elevation.RatePerSec),
		elevation.WithRetry(resilience.FromRetryConfig(cfg.Elevation.MaxAttempts, cfg.Elevation.RetryDelaySec)),
	)
}

func newPipeline(units elevation.Units) (*pipeline.Pipeline, *cache.Store) {
	store := newCacheStore()
	breaker := resilience.NewCircuitBreaker(
		resilience.FromCircuitConfig(cfg.Elevation.BreakerThreshold, cfg.Elevation.BreakerResetSecs))
	p := pipeline.New(
		newResolver(store),
		gpkg.Loader{},
		store,
		newElevationClient(units),
		breaker,
		pipeline.Schema{
			JoinColumn:  cfg.Gazetteer.JoinColumn,
			ClassColumn: cfg.Gazetteer.ClassColumn,
			LatColumn:   cfg.Gazetteer.LatColumn,
			LonColumn:   cfg.Gazetteer.LonColumn,
		},
	)
	return p, store
}
