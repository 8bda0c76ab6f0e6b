package sink

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/matzehuels/pngsquare/pkg/atlas"
)

const (
	xlsxSpritesSheet = "Sprites"
	xlsxSummarySheet = "Summary"
)

var xlsxHeader = []any{"Name", "X", "Y", "W", "H", "Unit X", "Unit Y"}

// RenderXLSX renders a workbook with one row per sprite on the "Sprites"
// sheet and the canvas totals on the "Summary" sheet.
func RenderXLSX(a *atlas.Atlas) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), xlsxSpritesSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(xlsxSpritesSheet, "A1", &xlsxHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}
	if err := f.SetRowStyle(xlsxSpritesSheet, 1, 1, bold); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}

	unit := max(a.Unit, 1)
	for i, s := range a.Sprites {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []any{s.Name, s.X, s.Y, s.W, s.H, s.X / unit, s.Y / unit}
		if err := f.SetSheetRow(xlsxSpritesSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write sprite %s: %w", s.Name, err)
		}
	}
	if err := f.SetColWidth(xlsxSpritesSheet, "A", "A", 24); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(xlsxSummarySheet); err != nil {
		return nil, fmt.Errorf("add summary: %w", err)
	}
	summary := [][]any{
		{"Name", a.Name},
		{"Unit", a.Unit},
		{"Width", a.Width},
		{"Height", a.Height},
		{"Sprites", len(a.Sprites)},
		{"Efficiency", a.Efficiency()},
	}
	for i, row := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(xlsxSummarySheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write summary: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
