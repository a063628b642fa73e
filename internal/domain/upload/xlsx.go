package upload

import (
	"errors"
	"io"

	"github.com/xuri/excelize/v2"
)

// ParseXLSX reads the first sheet of an Excel workbook with the same header
// and blank-row rules as ParseCSV.
func ParseXLSX(r io.Reader) (Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Table{}, &ParseError{Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Table{}, &ParseError{Err: errors.New("workbook has no sheets")}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return Table{}, &ParseError{Err: err}
	}

	var builder tableBuilder
	for i, cells := range rows {
		builder.add(i+1, cells)
	}
	return builder.table, nil
}
