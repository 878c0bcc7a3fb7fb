package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	shp "github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/gnis-cli/internal/table"
)

func readAttr(r *shp.Reader, n int) string {
	return strings.TrimSpace(strings.TrimRight(r.Attribute(n), "\x00"))
}

func TestWriteTable_Shapefile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.shp")
	require.NoError(t, WriteTable(resultTable(t), path))

	r, err := shp.Open(path)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	// Geometry column is excluded from the DBF attributes.
	fields := r.Fields()
	require.Len(t, fields, 7)
	assert.Equal(t, "FEATURE_ID", strings.TrimRight(fields[0].String(), "\x00"))

	require.True(t, r.Next())
	_, shape := r.Shape()
	pt, ok := shape.(*shp.Point)
	require.True(t, ok, "expected point shape, got %T", shape)
	assert.InDelta(t, -106.4454, pt.X, 0.0001)
	assert.InDelta(t, 39.1178, pt.Y, 0.0001)
	assert.Equal(t, "179", readAttr(r, 0))
	assert.Equal(t, "Mount Elbert", readAttr(r, 1))
	assert.Equal(t, "14438", readAttr(r, 6))

	// Second row has no geometry cell; coordinates come from the
	// prim_lat_dec/prim_long_dec fallback.
	require.True(t, r.Next())
	_, shape = r.Shape()
	pt, ok = shape.(*shp.Point)
	require.True(t, ok)
	assert.InDelta(t, -105.6536, pt.X, 0.0001)
	assert.InDelta(t, 39.7392, pt.Y, 0.0001)
	assert.Equal(t, "", readAttr(r, 6), "null elevation renders empty")

	require.True(t, r.Next())
	require.False(t, r.Next())
}

func TestWriteTable_ShapefileSidecarNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteTable(resultTable(t), filepath.Join(dir, "out.shp")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"out.shp", "out.shx", "out.dbf"}, names)
}

func TestWriteTable_ShapefileSkipsRowsWithoutCoordinates(t *testing.T) {
	tbl := table.New([]string{"feature_id", "feature_name", "geom"})
	pt := geom.NewPointFlat(geom.XY, []float64{-118.2923, 36.5785})
	require.NoError(t, tbl.AppendRow([]any{int64(1), "Mount Whitney", pt}))
	require.NoError(t, tbl.AppendRow([]any{int64(2), "Unlocated Place", nil}))

	path := filepath.Join(t.TempDir(), "out.shp")
	require.NoError(t, WriteTable(tbl, path))

	r, err := shp.Open(path)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	require.True(t, r.Next())
	assert.Equal(t, "Mount Whitney", readAttr(r, 1))
	assert.False(t, r.Next(), "the row without coordinates should be skipped")
}

func TestDBFFieldName(t *testing.T) {
	used := make(map[string]bool)
	assert.Equal(t, "FEATURE_ID", dbfFieldName("feature_id", 0, used))
	assert.Equal(t, "FEATURE_NA", dbfFieldName("feature_name", 1, used))
	assert.Equal(t, "FEATURE_CL", dbfFieldName("feature_class", 2, used))
	// Truncation collision gets an index suffix.
	assert.Equal(t, "FEATURE_N3", dbfFieldName("feature_names", 3, used))
	assert.Equal(t, "COL4", dbfFieldName("---", 4, used))
}
