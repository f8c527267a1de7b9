package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// DefaultExcelRows is how many rows of each sheet are rendered.
const DefaultExcelRows = 50

// ExcelDecoder renders each sheet as a "=== name ===" header followed by
// up to MaxRows rows with cells joined by " | ". Units are sheets.
type ExcelDecoder struct {
	MaxRows int
}

// Decode implements Decoder.
func (d ExcelDecoder) Decode(data []byte) (string, int, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", 0, fmt.Errorf("extract: opening workbook: %w", err)
	}
	defer f.Close()

	maxRows := d.MaxRows
	if maxRows <= 0 {
		maxRows = DefaultExcelRows
	}

	sheets := f.GetSheetList()
	lines := make([]string, 0, len(sheets)*(maxRows+1))

	for _, sheet := range sheets {
		lines = append(lines, "=== "+sheet+" ===")

		rows, err := firstRows(f, sheet, maxRows)
		if err != nil {
			return "", 0, err
		}

		// Rows drop trailing empty cells; pad so columns line up.
		width := 0
		for _, row := range rows {
			width = max(width, len(row))
		}

		for _, row := range rows {
			cells := make([]string, width)
			copy(cells, row)
			lines = append(lines, strings.Join(cells, " | "))
		}
	}

	return strings.Join(lines, "\n"), len(sheets), nil
}

// firstRows streams at most n rows of sheet so a large workbook is never
// fully materialized. Empty rows between data rows are kept and trailing
// empty rows dropped.
func firstRows(f *excelize.File, sheet string, n int) ([][]string, error) {
	it, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("extract: reading sheet %q: %w", sheet, err)
	}
	defer it.Close()

	rows := make([][]string, 0, n)
	for len(rows) < n && it.Next() {
		row, err := it.Columns()
		if err != nil {
			return nil, fmt.Errorf("extract: reading sheet %q: %w", sheet, err)
		}

		rows = append(rows, row)
	}

	if err := it.Error(); err != nil {
		return nil, fmt.Errorf("extract: reading sheet %q: %w", sheet, err)
	}

	for len(rows) > 0 && len(rows[len(rows)-1]) == 0 {
		rows = rows[:len(rows)-1]
	}

	return rows, nil
}
