// Package pipeline joins gazetteer layers, filters them by feature class,
// and enriches rows with elevations looked up one coordinate at a time.
package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/gnis-cli/internal/cache"
	"github.com/sells-group/gnis-cli/internal/export"
	"github.com/sells-group/gnis-cli/internal/gazetteer"
	"github.com/sells-group/gnis-cli/internal/resilience"
	"github.com/sells-group/gnis-cli/internal/table"
	"github.com/sells-group/gnis-cli/pkg/elevation"
)

// ElevationColumn is the column Run appends when elevation is requested.
const ElevationColumn = "elevation"

// ArchiveResolver resolves a location code to a local GeoPackage path.
type ArchiveResolver interface {
	Fetch(ctx context.Context, location string, useCache bool) (string, error)
}

// LayerLoader reads one named layer out of a GeoPackage.
type LayerLoader interface {
	Load(ctx context.Context, path, layer string) (*table.Table, error)
}

// CacheKeeper is the eviction slice of the cache store.
type CacheKeeper interface {
	Evict(key string) error
}

// Schema names the gazetteer columns the pipeline reads. Zero fields fall
// back to the published GNIS schema.
type Schema struct {
	JoinColumn  string
	ClassColumn string
	LatColumn   string
	LonColumn   string
}

func (s Schema) withDefaults() Schema {
	if s.JoinColumn == "" {
		s.JoinColumn = "feature_id"
	}
	if s.ClassColumn == "" {
		s.ClassColumn = "feature_class"
	}
	if s.LatColumn == "" {
		s.LatColumn = "prim_lat_dec"
	}
	if s.LonColumn == "" {
		s.LonColumn = "prim_long_dec"
	}
	return s
}

// Request holds the knobs for one pipeline run.
type Request struct {
	Location       string
	PrimaryLayer   string
	SecondaryLayer string
	JoinColumn     string // overrides Schema.JoinColumn when set
	FeatureClasses []string

	AddElevation bool
	// MaxElevationRequests caps lookups per run. Zero means no lookups;
	// negative means no cap.
	MaxElevationRequests int

	OutputPath      string
	UseCache        bool
	Refresh         bool
	ClearCacheAfter bool
}

// Summary reports what a run did.
type Summary struct {
	RunID              string
	Location           string
	Rows               int
	ElevationAttempted int
	ElevationFailed    int
	Duration           time.Duration
}

// Pipeline wires the collaborators for enrichment runs. Runs are strictly
// sequential; the elevation service is rate-sensitive and never called
// concurrently.
type Pipeline struct {
	resolver ArchiveResolver
	loader   LayerLoader
	cache    CacheKeeper
	elev     elevation.Client
	breaker  *resilience.CircuitBreaker
	schema   Schema
}

// New builds a Pipeline. breaker may be nil to run lookups unguarded.
func New(resolver ArchiveResolver, loader LayerLoader, keeper CacheKeeper, elev elevation.Client, breaker *resilience.CircuitBreaker, schema Schema) *Pipeline {
	return &Pipeline{
		resolver: resolver,
		loader:   loader,
		cache:    keeper,
		elev:     elev,
		breaker:  breaker,
		schema:   schema.withDefaults(),
	}
}

// Run executes one enrichment pass and returns the result table.
//
// Resolution, layer-load, and join failures are fatal. A per-row elevation
// failure records a null cell and the run continues. An output write failure
// is returned together with the in-memory table, which stays valid.
func (p *Pipeline) Run(ctx context.Context, req Request) (*table.Table, *Summary, error) {
	start := time.Now()
	loc, err := gazetteer.NormalizeLocation(req.Location)
	if err != nil {
		return nil, nil, err
	}

	sum := &Summary{RunID: uuid.NewString(), Location: loc}
	log := zap.L().With(
		zap.String("component", "pipeline"),
		zap.String("run_id", sum.RunID),
		zap.String("location", loc),
	)

	if req.Refresh && req.UseCache {
		if err := p.cache.Evict(loc); err != nil {
			return nil, nil, eris.Wrap(err, "pipeline: refresh eviction")
		}
	}

	path, err := p.resolver.Fetch(ctx, loc, req.UseCache)
	if err != nil {
		// A failed cache store still yields a readable scratch copy; the
		// run proceeds on it.
		var we *cache.WriteError
		if !errors.As(err, &we) || path == "" {
			return nil, nil, err
		}
		log.Warn("archive not cached, using transient copy",
			zap.String("path", path), zap.Error(err))
	}
	if !req.UseCache || err != nil {
		// A scratch GeoPackage is only needed until the layers are in
		// memory; drop its directory when the run ends.
		scratch := filepath.Dir(path)
		defer func() {
			if rmErr := os.RemoveAll(scratch); rmErr != nil {
				log.Warn("failed to remove scratch archive",
					zap.String("path", scratch), zap.Error(rmErr))
			}
		}()
	}

	primary, err := p.loader.Load(ctx, path, req.PrimaryLayer)
	if err != nil {
		return nil, nil, err
	}
	secondary, err := p.loader.Load(ctx, path, req.SecondaryLayer)
	if err != nil {
		return nil, nil, err
	}

	joinCol := req.JoinColumn
	if joinCol == "" {
		joinCol = p.schema.JoinColumn
	}
	joined, err := table.LeftJoin(primary, secondary, joinCol)
	if err != nil {
		return nil, nil, err
	}

	result, err := joined.Filter(p.schema.ClassColumn, req.FeatureClasses)
	if err != nil {
		return nil, nil, err
	}
	log.Info("layers joined",
		zap.String("primary", req.PrimaryLayer),
		zap.String("secondary", req.SecondaryLayer),
		zap.Int("rows", result.NumRows()),
		zap.Strings("feature_classes", req.FeatureClasses),
	)

	if req.AddElevation {
		if err := p.addElevations(ctx, result, req.MaxElevationRequests, sum, log); err != nil {
			return nil, nil, err
		}
	}

	sum.Rows = result.NumRows()
	sum.Duration = time.Since(start)

	var runErr error
	if req.OutputPath != "" {
		if err := export.WriteTable(result, req.OutputPath); err != nil {
			// The table survives a sink failure.
			runErr = err
		}
	}
	if req.ClearCacheAfter && runErr == nil {
		if err := p.cache.Evict(loc); err != nil {
			runErr = eris.Wrap(err, "pipeline: clear cache after run")
		}
	}

	log.Info("run complete",
		zap.Int("rows", sum.Rows),
		zap.Int("elevation_attempted", sum.ElevationAttempted),
		zap.Int("elevation_failed", sum.ElevationFailed),
		zap.Duration("duration", sum.Duration),
	)
	return result, sum, runErr
}

// addElevations walks the table in row order and fills the elevation column
// for the first budget rows. Cells beyond the budget keep the Absent marker;
// attempted rows that fail hold nil.
func (p *Pipeline) addElevations(ctx context.Context, tbl *table.Table, budget int, sum *Summary, log *zap.Logger) error {
	if err := tbl.AddColumn(ElevationColumn, table.Absent); err != nil {
		return err
	}

	attempts := tbl.NumRows()
	if budget >= 0 && budget < attempts {
		attempts = budget
	}

	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "pipeline: elevation pass cancelled")
		}
		sum.ElevationAttempted++

		lat, lon, ok := p.rowCoords(tbl, i)
		if !ok {
			// No coordinates to query; the slot is spent either way.
			sum.ElevationFailed++
			if err := tbl.SetValue(i, ElevationColumn, nil); err != nil {
				return err
			}
			continue
		}

		elev, err := p.lookup(ctx, lat, lon)
		if err != nil || !elev.Valid {
			sum.ElevationFailed++
			if err != nil {
				log.Warn("elevation lookup failed",
					zap.Int("row", i),
					zap.Float64("lat", lat),
					zap.Float64("lon", lon),
					zap.String("class", resilience.ClassifyError(err)),
					zap.Error(err),
				)
			}
			if err := tbl.SetValue(i, ElevationColumn, nil); err != nil {
				return err
			}
			continue
		}

		if err := tbl.SetValue(i, ElevationColumn, elev.Rounded()); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) lookup(ctx context.Context, lat, lon float64) (*elevation.Elevation, error) {
	if p.breaker == nil {
		return p.elev.Lookup(ctx, lat, lon)
	}
	return resilience.ExecuteVal(ctx, p.breaker, func(ctx context.Context) (*elevation.Elevation, error) {
		return p.elev.Lookup(ctx, lat, lon)
	})
}

// rowCoords pulls a row's coordinates from the decimal-degree columns, then
// from a point geometry cell when the columns are missing or empty.
func (p *Pipeline) rowCoords(tbl *table.Table, row int) (lat, lon float64, ok bool) {
	lat, latOK := tbl.Float(row, p.schema.LatColumn)
	lon, lonOK := tbl.Float(row, p.schema.LonColumn)
	if latOK && lonOK {
		return lat, lon, true
	}

	for _, col := range tbl.Columns() {
		v, _ := tbl.Value(row, col)
		pt, isPoint := v.(*geom.Point)
		if isPoint && !pt.Empty() {
			return pt.Y(), pt.X(), true
		}
	}
	return 0, 0, false
}
