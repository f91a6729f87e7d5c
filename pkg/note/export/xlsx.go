// Package export renders a user's notes as a spreadsheet.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"studynotes/entities"
	"studynotes/pkg/richtext"
)

const (
	SheetName   = "Notes"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var header = []any{"ID", "Title", "Content", "Created At", "Embedded"}

// WriteXLSX writes one row per note under a header row.
func WriteXLSX(w io.Writer, notes []entities.Note) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := range notes {
		n := &notes[i]
		row := []any{
			n.ID,
			n.Title,
			richtext.PlainText(n.Content),
			n.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
			embedded(n),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	_ = f.SetColWidth(SheetName, "A", "A", 38)
	_ = f.SetColWidth(SheetName, "B", "B", 30)
	_ = f.SetColWidth(SheetName, "C", "C", 80)
	_ = f.SetColWidth(SheetName, "D", "D", 20)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func embedded(n *entities.Note) string {
	if n.HasEmbedding() {
		return "yes"
	}
	return "no"
}
