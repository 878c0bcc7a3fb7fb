package table

import "fmt"

// LeftJoin joins primary to secondary on joinCol, keeping every primary row
// in order. For each primary row the first matching secondary row supplies
// the secondary columns; unmatched rows carry nil there. Column names shared
// by both tables keep the primary value and the secondary copy is dropped.
// A joinCol absent from either schema is a *ColumnNotFoundError.
func LeftJoin(primary, secondary *Table, joinCol string) (*Table, error) {
	pIdx, ok := primary.colIndex[joinCol]
	if !ok {
		return nil, &ColumnNotFoundError{Column: joinCol, Columns: primary.Columns()}
	}
	sIdx, ok := secondary.colIndex[joinCol]
	if !ok {
		return nil, &ColumnNotFoundError{Column: joinCol, Columns: secondary.Columns()}
	}

	// Secondary columns that survive into the result.
	var extraCols []string
	var extraIdx []int
	for i, c := range secondary.cols {
		if !primary.HasColumn(c) {
			extraCols = append(extraCols, c)
			extraIdx = append(extraIdx, i)
		}
	}

	// First occurrence of each key wins.
	matches := make(map[string]int, secondary.NumRows())
	for i, row := range secondary.rows {
		key, ok := joinKey(row[sIdx])
		if !ok {
			continue
		}
		if _, seen := matches[key]; !seen {
			matches[key] = i
		}
	}

	out := New(append(primary.Columns(), extraCols...))
	for _, row := range primary.rows {
		joined := make([]any, 0, len(out.cols))
		joined = append(joined, row...)

		sRow := -1
		if key, ok := joinKey(row[pIdx]); ok {
			if r, found := matches[key]; found {
				sRow = r
			}
		}
		for _, i := range extraIdx {
			if sRow >= 0 {
				joined = append(joined, secondary.rows[sRow][i])
			} else {
				joined = append(joined, nil)
			}
		}
		out.rows = append(out.rows, joined)
	}
	return out, nil
}

// joinKey normalizes a join cell to a comparable string. Nil and absent
// cells never match.
func joinKey(v any) (string, bool) {
	if v == nil || IsAbsent(v) {
		return "", false
	}
	return fmt.Sprintf("%v", v), true
}
