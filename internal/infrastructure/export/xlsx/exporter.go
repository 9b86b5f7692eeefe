package xlsx

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/automation-dashboard/internal/core/domain"
)

const SheetName = "Processes"

var header = []any{
	"ID",
	"Name",
	"Department",
	"Impact",
	"Feasibility",
	"Automation Score",
	"Time Spent (h/week)",
	"Created At",
}

type Exporter struct{}

func NewExporter() *Exporter {
	return &Exporter{}
}

// Export writes one header row followed by one row per process, in the given order.
func (e *Exporter) Export(w io.Writer, processes []domain.Process) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, p := range processes {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("resolve row %d: %w", i+2, err)
		}
		row := []any{
			p.ID,
			p.Name,
			p.Department,
			p.Impact,
			p.Feasibility,
			p.AutomationScore,
			p.TimeSpent,
			p.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write process %s: %w", p.ID, err)
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
