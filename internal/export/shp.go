package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	shp "github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/gnis-cli/internal/table"
)

// dbfStringLen is the widest DBF character field we emit.
const dbfStringLen = 254

// writeShapefile writes rows as a POINT shapefile with every non-geometry
// column as a DBF character attribute. A row needs a point: a decoded
// geometry cell, or numeric prim_lat_dec/prim_long_dec columns as fallback.
// Rows without one are skipped, not fatal.
func writeShapefile(tbl *table.Table, path string) error {
	geomCol := findGeometryColumn(tbl)

	var attrCols []string
	for _, c := range tbl.Columns() {
		if c != geomCol {
			attrCols = append(attrCols, c)
		}
	}

	fields := make([]shp.Field, len(attrCols))
	used := make(map[string]bool, len(attrCols))
	for i, c := range attrCols {
		fields[i] = shp.StringField(dbfFieldName(c, i, used), dbfStringLen)
	}

	w, err := shp.Create(path, shp.POINT)
	if err != nil {
		return eris.Wrap(err, "create shapefile")
	}

	if err := w.SetFields(fields); err != nil {
		w.Close()
		return eris.Wrap(err, "set dbf fields")
	}

	var written, skipped int
	for i := 0; i < tbl.NumRows(); i++ {
		lat, lon, ok := rowPoint(tbl, i, geomCol)
		if !ok {
			skipped++
			continue
		}

		w.Write(&shp.Point{X: lon, Y: lat})
		for j, c := range attrCols {
			v, _ := tbl.Value(i, c)
			val := cellString(v)
			if len(val) > dbfStringLen {
				val = val[:dbfStringLen]
			}
			if err := w.WriteAttribute(written, j, val); err != nil {
				w.Close()
				return eris.Wrapf(err, "write attribute %s of row %d", c, i)
			}
		}
		written++
	}

	if skipped > 0 {
		zap.L().Warn("skipped rows without point coordinates",
			zap.String("component", "export"),
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}
	w.Close()

	// go-shp drops the dot when it names the attribute sidecar ("outdbf"),
	// which readers then cannot find. Move it to the conventional name.
	base := strings.TrimSuffix(path, filepath.Ext(path))
	if _, statErr := os.Stat(base + "dbf"); statErr == nil {
		if err := os.Rename(base+"dbf", base+".dbf"); err != nil {
			return eris.Wrap(err, "rename dbf sidecar")
		}
	}
	return nil
}

// findGeometryColumn returns the first column whose first non-null cell holds
// a decoded geometry, or "" when the table has none.
func findGeometryColumn(tbl *table.Table) string {
	for _, c := range tbl.Columns() {
		for i := 0; i < tbl.NumRows(); i++ {
			v, _ := tbl.Value(i, c)
			if v == nil || table.IsAbsent(v) {
				continue
			}
			if _, ok := v.(geom.T); ok {
				return c
			}
			break
		}
	}
	return ""
}

func rowPoint(tbl *table.Table, row int, geomCol string) (lat, lon float64, ok bool) {
	if geomCol != "" {
		if v, _ := tbl.Value(row, geomCol); v != nil {
			if pt, isPt := v.(*geom.Point); isPt {
				return pt.Y(), pt.X(), true
			}
		}
	}
	lat, latOK := tbl.Float(row, "prim_lat_dec")
	lon, lonOK := tbl.Float(row, "prim_long_dec")
	if latOK && lonOK {
		return lat, lon, true
	}
	return 0, 0, false
}

// dbfFieldName squeezes a column name into the 10-character uppercase DBF
// field namespace, suffixing the column index on collisions.
func dbfFieldName(col string, idx int, used map[string]bool) string {
	upper := strings.ToUpper(col)
	var clean []rune
	for _, r := range upper {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			clean = append(clean, r)
		}
	}
	if len(clean) == 0 {
		clean = []rune(fmt.Sprintf("COL%d", idx))
	}
	if len(clean) > 10 {
		clean = clean[:10]
	}

	name := string(clean)
	if used[name] {
		suffix := fmt.Sprintf("%d", idx)
		if len(name)+len(suffix) > 10 {
			name = name[:10-len(suffix)]
		}
		name += suffix
	}
	used[name] = true
	return name
}
