package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/gnis-cli/internal/table"
)

const xlsxSheetName = "Results"

// writeXLSX writes the table as a single-sheet workbook.
func writeXLSX(tbl *table.Table, path string) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(xlsxSheetName)
	if err != nil {
		return eris.Wrap(err, "add sheet")
	}

	header := sheet.AddRow()
	for _, col := range tbl.Columns() {
		header.AddCell().SetString(col)
	}

	for i := 0; i < tbl.NumRows(); i++ {
		row := sheet.AddRow()
		for _, v := range tbl.Row(i) {
			cell := row.AddCell()
			switch val := v.(type) {
			case nil, table.AbsentValue:
				// leave the cell empty
			case int64:
				cell.SetInt64(val)
			case float64:
				cell.SetFloat(val)
			default:
				cell.SetString(cellString(v))
			}
		}
	}

	return eris.Wrap(f.Save(path), "save workbook")
}
