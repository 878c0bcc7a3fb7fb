package export

import (
	"encoding/csv"
	"os"

	"github.com/rotisserie/eris"

	"github.com/sells-group/gnis-cli/internal/table"
)

// writeCSV writes the table as comma-separated text with a header row.
func writeCSV(tbl *table.Table, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "create file")
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)

	if err := w.Write(tbl.Columns()); err != nil {
		return eris.Wrap(err, "write header")
	}

	record := make([]string, tbl.NumCols())
	for i := 0; i < tbl.NumRows(); i++ {
		row := tbl.Row(i)
		for j, v := range row {
			record[j] = cellString(v)
		}
		if err := w.Write(record); err != nil {
			return eris.Wrapf(err, "write row %d", i)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "flush")
	}
	return nil
}
