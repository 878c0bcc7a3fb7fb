// Package gpkg reads layers out of GeoPackage files. A GeoPackage is a
// SQLite database whose gpkg_contents table registers the layers it holds.
package gpkg

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/sells-group/gnis-cli/internal/table"
)

// LayerNotFoundError reports a layer absent from a GeoPackage, listing the
// layers the file actually contains.
type LayerNotFoundError struct {
	Layer     string
	Available []string
}

func (e *LayerNotFoundError) Error() string {
	return fmt.Sprintf("gpkg: layer %q not found (available: %s)",
		e.Layer, strings.Join(e.Available, ", "))
}

// File is an open GeoPackage.
type File struct {
	db   *sql.DB
	path string
}

// Open opens the GeoPackage at path.
func Open(path string) (*File, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "gpkg: open")
	}
	return &File{db: db, path: path}, nil
}

// Close releases the underlying database handle.
func (f *File) Close() error {
	return f.db.Close()
}

// Path returns the file path the GeoPackage was opened from.
func (f *File) Path() string { return f.path }

// Layers lists the layers registered in gpkg_contents, sorted by name.
func (f *File) Layers(ctx context.Context) ([]string, error) {
	rows, err := f.db.QueryContext(ctx,
		`SELECT table_name FROM gpkg_contents ORDER BY table_name`)
	if err != nil {
		return nil, eris.Wrapf(err, "gpkg: read contents registry of %s", f.path)
	}
	defer rows.Close() //nolint:errcheck

	var layers []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, eris.Wrap(err, "gpkg: scan layer name")
		}
		layers = append(layers, name)
	}
	return layers, eris.Wrap(rows.Err(), "gpkg: iterate layers")
}

// ReadLayer loads every row of the named layer. Blob cells in the layer's
// registered geometry column are decoded into go-geom geometries; text,
// integer, real, and null cells pass through as string, int64, float64, and
// nil.
func (f *File) ReadLayer(ctx context.Context, layer string) (*table.Table, error) {
	layers, err := f.Layers(ctx)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(layers, layer) {
		return nil, &LayerNotFoundError{Layer: layer, Available: layers}
	}

	geomCol, err := f.geometryColumn(ctx, layer)
	if err != nil {
		return nil, err
	}

	log := zap.L().With(
		zap.String("component", "gpkg"),
		zap.String("layer", layer),
	)

	rows, err := f.db.QueryContext(ctx, `SELECT * FROM `+quoteIdent(layer))
	if err != nil {
		return nil, eris.Wrapf(err, "gpkg: read layer %s", layer)
	}
	defer rows.Close() //nolint:errcheck

	cols, err := rows.Columns()
	if err != nil {
		return nil, eris.Wrapf(err, "gpkg: columns of %s", layer)
	}

	geomIdx := -1
	for i, c := range cols {
		if geomCol != "" && c == geomCol {
			geomIdx = i
		}
	}

	tbl := table.New(cols)
	raw := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range raw {
		ptrs[i] = &raw[i]
	}

	rowNum := 0
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, eris.Wrapf(err, "gpkg: scan row of %s", layer)
		}

		vals := make([]any, len(cols))
		for i, v := range raw {
			switch x := v.(type) {
			case []byte:
				if i == geomIdx {
					g, err := DecodeGeometry(x)
					if err != nil {
						log.Warn("undecodable geometry, row keeps nil",
							zap.Int("row", rowNum), zap.Error(err))
						vals[i] = nil
						continue
					}
					vals[i] = g
				} else {
					vals[i] = string(x)
				}
			default:
				vals[i] = v
			}
		}

		if err := tbl.AppendRow(vals); err != nil {
			return nil, eris.Wrapf(err, "gpkg: append row of %s", layer)
		}
		rowNum++
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "gpkg: iterate %s", layer)
	}

	log.Debug("layer loaded", zap.Int("rows", tbl.NumRows()), zap.Int("cols", tbl.NumCols()))
	return tbl, nil
}

// geometryColumn returns the registered geometry column for a layer, or ""
// when the layer has none. Attribute-only GeoPackages may lack the registry
// table entirely.
func (f *File) geometryColumn(ctx context.Context, layer string) (string, error) {
	var col string
	err := f.db.QueryRowContext(ctx,
		`SELECT column_name FROM gpkg_geometry_columns WHERE table_name = ?`, layer).Scan(&col)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		if strings.Contains(err.Error(), "no such table") {
			return "", nil
		}
		return "", eris.Wrapf(err, "gpkg: geometry column of %s", layer)
	}
	return col, nil
}

// quoteIdent quotes a SQL identifier. Layer names come out of gpkg_contents
// but may still contain spaces or mixed case.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Loader reads one layer from a GeoPackage path per call. It satisfies the
// pipeline's layer loading dependency.
type Loader struct{}

// Load opens the GeoPackage at path and reads the named layer.
func (Loader) Load(ctx context.Context, path, layer string) (*table.Table, error) {
	f, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck
	return f.ReadLayer(ctx, layer)
}
