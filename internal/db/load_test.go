package db

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/gnis-cli/internal/table"
)

func loadFixture(t *testing.T) *table.Table {
	t.Helper()
	tbl := table.New([]string{"feature_id", "feature_name", "prim_lat_dec", "elevation"})
	require.NoError(t, tbl.AppendRow([]any{int64(179), "Mount Elbert", 39.1178, int64(14438)}))
	require.NoError(t, tbl.AppendRow([]any{int64(401), "Clear Creek", 39.7392, nil}))
	require.NoError(t, tbl.AppendRow([]any{int64(777), "Gore Range", 39.6, table.Absent}))
	return tbl
}

func TestLoadTable_CreatesAndCopies(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS "gnis_features"`).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"gnis_features"},
		[]string{"feature_id", "feature_name", "prim_lat_dec", "elevation"}).
		WillReturnResult(3)

	n, err := LoadTable(context.Background(), mock, "gnis_features", loadFixture(t), LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadTable_Replace(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS "gnis"\."features"`).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectExec(`DELETE FROM "gnis"\."features"`).
		WillReturnResult(pgxmock.NewResult("DELETE", 12))
	mock.ExpectCopyFrom(pgx.Identifier{"gnis", "features"},
		[]string{"feature_id", "feature_name", "prim_lat_dec", "elevation"}).
		WillReturnResult(3)

	n, err := LoadTable(context.Background(), mock, "gnis.features", loadFixture(t), LoadOptions{Replace: true})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadTable_CreateFails(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS`).
		WillReturnError(assert.AnError)

	_, err = LoadTable(context.Background(), mock, "gnis_features", loadFixture(t), LoadOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create gnis_features")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadTable_EmptyTargetName(t *testing.T) {
	_, err := LoadTable(context.Background(), nil, "", loadFixture(t), LoadOptions{})
	require.Error(t, err)
}

func TestColumnType(t *testing.T) {
	tbl := table.New([]string{"id", "lat", "name", "maybe", "empty"})
	require.NoError(t, tbl.AppendRow([]any{nil, nil, nil, nil, nil}))
	require.NoError(t, tbl.AppendRow([]any{int64(1), 39.5, "Summit", table.Absent, nil}))
	require.NoError(t, tbl.AppendRow([]any{int64(2), 40.1, "Stream", int64(7), nil}))

	assert.Equal(t, "BIGINT", columnType(tbl, "id"))
	assert.Equal(t, "DOUBLE PRECISION", columnType(tbl, "lat"))
	assert.Equal(t, "TEXT", columnType(tbl, "name"))
	// First typed cell wins, nulls and absent markers are skipped over.
	assert.Equal(t, "BIGINT", columnType(tbl, "maybe"))
	assert.Equal(t, "TEXT", columnType(tbl, "empty"))
}

func TestDBValue(t *testing.T) {
	assert.Nil(t, dbValue(table.Absent))
	assert.Nil(t, dbValue(nil))
	assert.Equal(t, int64(42), dbValue(int64(42)))
	assert.Equal(t, "Summit", dbValue("Summit"))

	pt := geom.NewPointFlat(geom.XY, []float64{-106.4454, 39.1178})
	assert.Equal(t, "POINT (-106.4454 39.1178)", dbValue(pt))
}
