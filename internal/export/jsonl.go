package export

import (
	"bufio"
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkt"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/gnis-cli/internal/table"
)

// writeJSONL writes one JSON object per row. Absent cells are omitted from
// the object entirely; null cells are kept as JSON null, preserving the
// not-attempted vs attempted-and-failed distinction.
func writeJSONL(tbl *table.Table, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "create file")
	}
	defer f.Close() //nolint:errcheck

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)

	cols := tbl.Columns()
	for i := 0; i < tbl.NumRows(); i++ {
		obj := make(map[string]any, len(cols))
		for _, col := range cols {
			v, _ := tbl.Value(i, col)
			if table.IsAbsent(v) {
				continue
			}
			obj[col] = jsonValue(v)
		}
		if err := enc.Encode(obj); err != nil {
			return eris.Wrapf(err, "encode row %d", i)
		}
	}

	return eris.Wrap(w.Flush(), "flush")
}

func jsonValue(v any) any {
	switch val := v.(type) {
	case string:
		return norm.NFC.String(val)
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
