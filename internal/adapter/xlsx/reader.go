// Package xlsx reads spreadsheet plate reader exports. Every worksheet in
// the workbook becomes one independently scannable sheet.
package xlsx

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/plateworks/od600-etl/internal/domain"
)

// ReadFile loads all sheets of an XLSX workbook into the scanner's row
// shape. Cell values arrive as strings, exactly what the tolerant numeric
// parser expects.
func ReadFile(path string) ([]domain.Sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	var sheets []domain.Sheet
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}
		sheet := domain.Sheet{Name: name, Rows: make([]domain.Row, len(rows))}
		for i, cells := range rows {
			sheet.Rows[i] = domain.Row(cells)
		}
		sheets = append(sheets, sheet)
	}
	return sheets, nil
}
