package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkt"
	"go.uber.org/zap"

	"github.com/sells-group/gnis-cli/internal/table"
)

// LoadOptions controls how a result table is loaded.
type LoadOptions struct {
	// Replace deletes existing rows from the target before loading.
	Replace bool
}

// LoadTable creates the target table if needed and bulk-loads every row of
// tbl into it. Column types are inferred from cell values; geometry cells
// load as WKT text, absent cells as NULL.
func LoadTable(ctx context.Context, pool Pool, target string, tbl *table.Table, opts LoadOptions) (int64, error) {
	if target == "" {
		return 0, eris.New("db: target table name is empty")
	}
	cols := tbl.Columns()
	if len(cols) == 0 {
		return 0, eris.New("db: result table has no columns")
	}

	if err := ensureTable(ctx, pool, target, tbl); err != nil {
		return 0, err
	}

	if opts.Replace {
		if _, err := pool.Exec(ctx, "DELETE FROM "+sanitizeTable(target)); err != nil {
			return 0, eris.Wrapf(err, "db: clear %s", target)
		}
	}

	rows := make([][]any, tbl.NumRows())
	for i := range rows {
		src := tbl.Row(i)
		row := make([]any, len(src))
		for j, v := range src {
			row[j] = dbValue(v)
		}
		rows[i] = row
	}

	n, err := CopyFrom(ctx, pool, target, cols, rows)
	if err != nil {
		return 0, err
	}

	zap.L().Info("loaded table",
		zap.String("component", "db"),
		zap.String("table", target),
		zap.Int64("rows", n),
	)
	return n, nil
}

// ensureTable creates the target with inferred column types when it does not
// exist yet.
func ensureTable(ctx context.Context, pool Pool, target string, tbl *table.Table) error {
	defs := make([]string, 0, tbl.NumCols())
	for _, col := range tbl.Columns() {
		defs = append(defs, fmt.Sprintf("%s %s", pgx.Identifier{col}.Sanitize(), columnType(tbl, col)))
	}

	sql := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		sanitizeTable(target), strings.Join(defs, ", "))
	if _, err := pool.Exec(ctx, sql); err != nil {
		return eris.Wrapf(err, "db: create %s", target)
	}
	return nil
}

// columnType picks a Postgres type from the first typed cell in the column.
// Columns that never carry a typed value fall back to TEXT.
func columnType(tbl *table.Table, col string) string {
	for i := 0; i < tbl.NumRows(); i++ {
		v, _ := tbl.Value(i, col)
		switch v.(type) {
		case nil, table.AbsentValue:
			continue
		case int64:
			return "BIGINT"
		case float64:
			return "DOUBLE PRECISION"
		default:
			return "TEXT"
		}
	}
	return "TEXT"
}

// dbValue converts a table cell into a COPY-compatible value.
func dbValue(v any) any {
	switch val := v.(type) {
	case table.AbsentValue:
		return nil
	case geom.T:
		s, err := wkt.Marshal(val)
		if err != nil {
			return nil
		}
		return s
	default:
		return v
	}
}
