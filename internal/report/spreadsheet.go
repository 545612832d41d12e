package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// SheetName is the name of the only worksheet in the spreadsheet report
const SheetName = "Tasks"

var spreadsheetColumnWidths = []float64{48, 28, 16, 16, 12}

// SpreadsheetRenderer writes the rows to an .xlsx workbook
type SpreadsheetRenderer struct{}

// NewSpreadsheetRenderer creates a spreadsheet renderer
func NewSpreadsheetRenderer() *SpreadsheetRenderer {
	return &SpreadsheetRenderer{}
}

// Format implements Renderer
func (r *SpreadsheetRenderer) Format() Format {
	return FormatExcel
}

// Render implements Renderer. The sheet holds the header row followed by one row per report row.
func (r *SpreadsheetRenderer) Render(rows []Row, _ Meta) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	defaultSheet := f.GetSheetName(0)
	if err := f.SetSheetName(defaultSheet, SheetName); err != nil {
		return nil, r.fail(err)
	}

	if err := f.SetSheetRow(SheetName, "A1", stringsToCells(Columns)); err != nil {
		return nil, r.fail(err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, r.fail(err)
		}
		if err := f.SetSheetRow(SheetName, cell, stringsToCells(row.Cells())); err != nil {
			return nil, r.fail(err)
		}
	}

	for i, width := range spreadsheetColumnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, r.fail(err)
		}
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return nil, r.fail(err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, r.fail(err)
	}
	return buf.Bytes(), nil
}

func (r *SpreadsheetRenderer) fail(err error) error {
	return &EncodingError{Format: FormatExcel, Err: fmt.Errorf("excelize: %w", err)}
}

// stringsToCells keeps every value a string cell so "40%" and "04/03/2024" are not reinterpreted
func stringsToCells(values []string) *[]interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return &cells
}
