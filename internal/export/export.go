// Package export writes result tables to files, format chosen by path extension.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkt"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/gnis-cli/internal/table"
)

// WriteError reports a failed table write. The pipeline surfaces it without
// discarding the in-memory table.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("export: write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

var sinks = map[string]func(*table.Table, string) error{
	".csv":   writeCSV,
	".jsonl": writeJSONL,
	".xlsx":  writeXLSX,
	".shp":   writeShapefile,
}

// Formats returns the supported output extensions, sorted.
func Formats() []string {
	out := make([]string, 0, len(sinks))
	for ext := range sinks {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// WriteTable writes tbl to path in the format named by the path extension.
// All failures come back as a typed *WriteError.
func WriteTable(tbl *table.Table, path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	sink, ok := sinks[ext]
	if !ok {
		return &WriteError{Path: path,
			Err: eris.Errorf("unsupported format %q (supported: %s)", ext, strings.Join(Formats(), ", "))}
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &WriteError{Path: path, Err: eris.Wrap(err, "create output directory")}
		}
	}

	if err := sink(tbl, path); err != nil {
		return &WriteError{Path: path, Err: err}
	}

	zap.L().Info("wrote export",
		zap.String("component", "export"),
		zap.String("path", path),
		zap.Int("rows", tbl.NumRows()),
	)
	return nil
}

// cellString renders a cell for text-based sinks. Null and absent cells both
// render empty; geometry renders as WKT; name strings are NFC-normalized so
// accented feature names compare stably across systems.
func cellString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case table.AbsentValue:
		return ""
	case string:
		return norm.NFC.String(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case geom.T:
		s, err := wkt.Marshal(val)
		if err != nil {
			return ""
		}
		return s
	default:
		return fmt.Sprintf("%v", val)
	}
}
