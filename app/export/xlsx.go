// Package export writes query results out of the application: spreadsheet
// exports for review workflows and compressed TSV snapshots for offline
// reloading.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Annotations"

// WriteXLSX writes the header and records to a spreadsheet at path.
func WriteXLSX(path string, header []string, records [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}

	if err := writeRow(f, 1, header); err != nil {
		return err
	}
	for i, record := range records {
		if err := writeRow(f, i+2, record); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save spreadsheet: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("failed to compute cell name: %w", err)
	}
	// SetSheetRow wants a slice of any
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(sheetName, cell, &cells); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}
