package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/gnis-cli/internal/table"
)

// resultTable builds a small enriched table with every cell shape the
// pipeline produces: ints, floats, strings, geometry, null, and absent.
func resultTable(t *testing.T) *table.Table {
	t.Helper()
	tbl := table.New([]string{
		"feature_id", "feature_name", "feature_class",
		"prim_lat_dec", "prim_long_dec", "geom", "description", "elevation",
	})

	pt := geom.NewPointFlat(geom.XY, []float64{-106.4454, 39.1178})
	require.NoError(t, tbl.AppendRow([]any{
		int64(179), "Mount Elbert", "Summit", 39.1178, -106.4454, pt,
		"highest point in Colorado", int64(14438),
	}))
	require.NoError(t, tbl.AppendRow([]any{
		int64(401), "Clear Creek", "Stream", 39.7392, -105.6536, nil, nil, nil,
	}))
	require.NoError(t, tbl.AppendRow([]any{
		int64(777), "Gore Range", "Range", 39.6, -106.3, nil,
		"crest of the Gores", table.Absent,
	}))
	return tbl
}

func TestWriteTable_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, WriteTable(resultTable(t), path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(t, []string{
		"feature_id", "feature_name", "feature_class",
		"prim_lat_dec", "prim_long_dec", "geom", "description", "elevation",
	}, records[0])

	assert.Equal(t, "179", records[1][0])
	assert.Equal(t, "Mount Elbert", records[1][1])
	assert.Equal(t, "39.1178", records[1][3])
	assert.Equal(t, "POINT (-106.4454 39.1178)", records[1][5])
	assert.Equal(t, "14438", records[1][7])

	// Null geometry, null description, null elevation all render empty.
	assert.Equal(t, "", records[2][5])
	assert.Equal(t, "", records[2][6])
	assert.Equal(t, "", records[2][7])

	// Absent renders empty too; the distinction is in-memory only for CSV.
	assert.Equal(t, "", records[3][7])
}

func TestWriteTable_CSVNormalizesNames(t *testing.T) {
	tbl := table.New([]string{"feature_name"})
	// Decomposed n + combining tilde, as some source archives ship it.
	require.NoError(t, tbl.AppendRow([]any{"Cañon City"}))

	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, WriteTable(tbl, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Cañon City")
	assert.NotContains(t, string(data), "̃")
}

func TestWriteTable_JSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	require.NoError(t, WriteTable(resultTable(t), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, float64(179), first["feature_id"])
	assert.Equal(t, "Mount Elbert", first["feature_name"])
	assert.Equal(t, "POINT (-106.4454 39.1178)", first["geom"])
	assert.Equal(t, float64(14438), first["elevation"])

	// Null elevation stays in the object as JSON null.
	var second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	v, ok := second["elevation"]
	assert.True(t, ok)
	assert.Nil(t, v)

	// Absent elevation is omitted entirely.
	var third map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &third))
	_, ok = third["elevation"]
	assert.False(t, ok)
}

func TestWriteTable_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, WriteTable(resultTable(t), path))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)

	sheet, ok := f.Sheet[xlsxSheetName]
	require.True(t, ok, "expected sheet %q", xlsxSheetName)
	require.Len(t, sheet.Rows, 4)

	assert.Equal(t, "feature_id", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "Mount Elbert", sheet.Rows[1].Cells[1].String())
	assert.Equal(t, "Summit", sheet.Rows[1].Cells[2].String())
	assert.Equal(t, "14438", sheet.Rows[1].Cells[7].String())
	assert.Equal(t, "", sheet.Rows[2].Cells[6].String())
}

func TestWriteTable_UnsupportedExtension(t *testing.T) {
	err := WriteTable(resultTable(t), filepath.Join(t.TempDir(), "out.pdf"))
	require.Error(t, err)

	var writeErr *WriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Contains(t, err.Error(), "unsupported format")
}

func TestWriteTable_CreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "out.csv")
	require.NoError(t, WriteTable(resultTable(t), path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestWriteTable_DirectoryBlocked(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("file"), 0o644))

	err := WriteTable(resultTable(t), filepath.Join(blocker, "out.csv"))
	require.Error(t, err)

	var writeErr *WriteError
	require.ErrorAs(t, err, &writeErr)
}

func TestWriteTable_EmptyTable(t *testing.T) {
	tbl := table.New([]string{"feature_id", "feature_name"})

	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, WriteTable(tbl, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "feature_id,feature_name\n", string(data))
}

func TestFormats(t *testing.T) {
	assert.Equal(t, []string{".csv", ".jsonl", ".shp", ".xlsx"}, Formats())
}
