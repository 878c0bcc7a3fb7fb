package gazetteer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/gnis-cli/internal/cache"
	"github.com/sells-group/gnis-cli/internal/fetcher"
)

// DownloadError reports a failed archive download or a corrupt archive.
type DownloadError struct {
	Location string
	URL      string
	Err      error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("gazetteer: download %s from %s: %v", e.Location, e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// ArchiveName returns the staged-products ZIP name for a location.
func ArchiveName(location string) string {
	return fmt.Sprintf("Gazetteer_%s_GPKG.zip", location)
}

// GeoPackageName returns the GeoPackage file name inside a location's archive.
func GeoPackageName(location string) string {
	return fmt.Sprintf("Gazetteer_%s_GPKG.gpkg", location)
}

// Resolver turns location codes into local GeoPackage paths, downloading and
// extracting archives on cache misses.
type Resolver struct {
	fetcher fetcher.Fetcher
	cache   *cache.Store
	baseURL string
	workDir string
}

// NewResolver builds a Resolver. workDir holds scratch directories for
// in-flight downloads and for uncached fetches; "" means the OS temp dir.
func NewResolver(f fetcher.Fetcher, c *cache.Store, baseURL, workDir string) *Resolver {
	return &Resolver{fetcher: f, cache: c, baseURL: baseURL, workDir: workDir}
}

// ArchiveURL returns the download URL for a location's archive.
func (r *Resolver) ArchiveURL(location string) string {
	return strings.TrimSuffix(r.baseURL, "/") + "/" + ArchiveName(location)
}

// Fetch returns a local GeoPackage path for location.
//
// With useCache set, a cached GeoPackage is returned without touching the
// network, and a fresh download is stored in the cache before its cache path
// is returned. Without it, the download always happens and the returned path
// points into a scratch directory under workDir that the caller owns; the
// file sits at the scratch directory root, so removing its parent directory
// discards the transient copy.
//
// When the download succeeds but the cache store fails, Fetch returns the
// scratch path together with the *cache.WriteError so the caller can keep
// going on transient storage.
func (r *Resolver) Fetch(ctx context.Context, location string, useCache bool) (string, error) {
	loc, err := NormalizeLocation(location)
	if err != nil {
		return "", err
	}

	log := zap.L().With(
		zap.String("component", "gazetteer.resolver"),
		zap.String("location", loc),
	)

	if useCache && r.cache.Has(loc) {
		path := r.cache.Resolve(loc)
		log.Debug("cache hit", zap.String("path", path))
		return path, nil
	}

	scratch, err := os.MkdirTemp(r.workDir, "gazetteer-"+loc+"-*")
	if err != nil {
		return "", eris.Wrap(err, "gazetteer: create scratch dir")
	}

	url := r.ArchiveURL(loc)
	zipPath := filepath.Join(scratch, ArchiveName(loc))
	log.Info("downloading gazetteer archive", zap.String("url", url))
	if _, err := r.fetcher.DownloadToFile(ctx, url, zipPath); err != nil {
		os.RemoveAll(scratch) //nolint:errcheck
		return "", &DownloadError{Location: loc, URL: url, Err: err}
	}

	gpkgPath, err := fetcher.ExtractZIPFile(zipPath, GeoPackageName(loc), scratch)
	if err != nil {
		// Some archives nest the GeoPackage or vary its case.
		gpkgPath, err = fetcher.ExtractZIPByExt(zipPath, ".gpkg", scratch)
		if err != nil {
			os.RemoveAll(scratch) //nolint:errcheck
			return "", &DownloadError{Location: loc, URL: url, Err: err}
		}
	}
	os.Remove(zipPath) //nolint:errcheck

	// Keep the GeoPackage at the scratch root so a caller done with a
	// transient copy can drop the whole directory.
	if filepath.Dir(gpkgPath) != scratch {
		flat := filepath.Join(scratch, filepath.Base(gpkgPath))
		if err := os.Rename(gpkgPath, flat); err != nil {
			os.RemoveAll(scratch) //nolint:errcheck
			return "", eris.Wrap(err, "gazetteer: move geopackage to scratch root")
		}
		gpkgPath = flat
	}

	if !useCache {
		log.Debug("resolved to scratch path", zap.String("path", gpkgPath))
		return gpkgPath, nil
	}

	cachePath, err := r.cache.PutFile(loc, gpkgPath)
	if err != nil {
		log.Warn("cache store failed, continuing on scratch copy",
			zap.String("path", gpkgPath), zap.Error(err))
		return gpkgPath, err
	}
	os.RemoveAll(scratch) //nolint:errcheck

	log.Info("archive cached", zap.String("path", cachePath))
	return cachePath, nil
}
