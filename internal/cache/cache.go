// Package cache persists extracted gazetteer archives on disk, one file per
// location key.
package cache

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Managed files are named Gazetteer_<KEY>_GPKG.gpkg; anything else in the
// directory is left alone.
const (
	filePrefix = "Gazetteer_"
	fileSuffix = "_GPKG.gpkg"
)

// WriteError indicates local persistence failed for a key.
type WriteError struct {
	Key  string
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("cache: write %s (%s): %v", e.Key, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Entry describes one cached archive.
type Entry struct {
	Key        string    `json:"key"`
	Path       string    `json:"path"`
	SizeBytes  int64     `json:"size_bytes"`
	ModifiedAt time.Time `json:"modified_at"`
}

// Info summarizes the on-disk state of the cache directory.
type Info struct {
	Dir            string  `json:"dir"`
	Entries        []Entry `json:"entries"`
	TotalSizeBytes int64   `json:"total_size_bytes"`
}

// Store maps location keys to files under a single directory fixed at
// construction. All operations are synchronous filesystem calls; concurrent
// writers to the same key from separate processes race and the last writer
// wins.
type Store struct {
	dir string
}

// New returns a Store rooted at dir. The directory is created on first write.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the managed directory.
func (s *Store) Dir() string { return s.dir }

// Resolve returns the path the key's archive occupies when cached. The file
// may not exist.
func (s *Store) Resolve(key string) string {
	return filepath.Join(s.dir, filePrefix+key+fileSuffix)
}

// Has reports whether a non-empty cached file exists for key.
func (s *Store) Has(key string) bool {
	fi, err := os.Stat(s.Resolve(key))
	return err == nil && fi.Mode().IsRegular() && fi.Size() > 0
}

// Put writes data to the key's resolved path, overwriting any prior entry.
// The write goes through a temp file and rename so readers never observe a
// partial archive.
func (s *Store) Put(key string, data []byte) (string, error) {
	dest := s.Resolve(key)
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", &WriteError{Key: key, Path: dest, Err: err}
	}

	tmp, err := os.CreateTemp(s.dir, filePrefix+key+".tmp-*")
	if err != nil {
		return "", &WriteError{Key: key, Path: dest, Err: err}
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", &WriteError{Key: key, Path: dest, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", &WriteError{Key: key, Path: dest, Err: err}
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		os.Remove(tmp.Name())
		return "", &WriteError{Key: key, Path: dest, Err: err}
	}

	zap.L().Debug("cache: stored entry",
		zap.String("key", key),
		zap.String("path", dest),
		zap.Int("size_bytes", len(data)),
	)
	return dest, nil
}

// PutFile moves an existing file into the cache under key, overwriting any
// prior entry. Falls back to a copy when src sits on a different filesystem.
func (s *Store) PutFile(key, src string) (string, error) {
	dest := s.Resolve(key)
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", &WriteError{Key: key, Path: dest, Err: err}
	}

	if err := os.Rename(src, dest); err == nil {
		zap.L().Debug("cache: stored entry", zap.String("key", key), zap.String("path", dest))
		return dest, nil
	}

	in, err := os.Open(src)
	if err != nil {
		return "", &WriteError{Key: key, Path: dest, Err: err}
	}
	defer in.Close() //nolint:errcheck

	tmp, err := os.CreateTemp(s.dir, filePrefix+key+".tmp-*")
	if err != nil {
		return "", &WriteError{Key: key, Path: dest, Err: err}
	}
	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", &WriteError{Key: key, Path: dest, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", &WriteError{Key: key, Path: dest, Err: err}
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		os.Remove(tmp.Name())
		return "", &WriteError{Key: key, Path: dest, Err: err}
	}
	os.Remove(src)

	zap.L().Debug("cache: stored entry", zap.String("key", key), zap.String("path", dest))
	return dest, nil
}

// Evict removes the cached file for key. A missing entry is not an error.
func (s *Store) Evict(key string) error {
	err := os.Remove(s.Resolve(key))
	if err != nil && !os.IsNotExist(err) {
		return eris.Wrapf(err, "cache: evict %s", key)
	}
	if err == nil {
		zap.L().Debug("cache: evicted entry", zap.String("key", key))
	}
	return nil
}

// EvictAll removes every managed file. An absent or empty directory is a
// no-op.
func (s *Store) EvictAll() error {
	names, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return eris.Wrap(err, "cache: read dir")
	}
	for _, de := range names {
		key, ok := keyFromName(de.Name())
		if !ok {
			continue
		}
		if err := s.Evict(key); err != nil {
			return err
		}
	}
	return nil
}

// Info enumerates current entries by inspecting the managed directory only.
func (s *Store) Info() (Info, error) {
	info := Info{Dir: s.dir, Entries: []Entry{}}
	names, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return info, nil
		}
		return info, eris.Wrap(err, "cache: read dir")
	}
	for _, de := range names {
		key, ok := keyFromName(de.Name())
		if !ok {
			continue
		}
		fi, err := de.Info()
		if err != nil {
			continue
		}
		info.Entries = append(info.Entries, Entry{
			Key:        key,
			Path:       filepath.Join(s.dir, de.Name()),
			SizeBytes:  fi.Size(),
			ModifiedAt: fi.ModTime(),
		})
		info.TotalSizeBytes += fi.Size()
	}
	sort.Slice(info.Entries, func(i, j int) bool { return info.Entries[i].Key < info.Entries[j].Key })
	return info, nil
}

func keyFromName(name string) (string, bool) {
	if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
		return "", false
	}
	key := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
	if key == "" {
		return "", false
	}
	return key, true
}
