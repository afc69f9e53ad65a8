// Package export writes dashboard data as spreadsheets.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"fnaterm/internal/fna"
)

const sessionsSheet = "Sessions"

// ContentType is the MIME type of the workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// WriteSessions writes sessions as an XLSX workbook, one row per session, in
// the order given. Dates are shown in loc.
func WriteSessions(w io.Writer, sessions []fna.Session, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sessionsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	header := []any{"ID", "Date", "Household Income", "Dependents"}
	if err := f.SetSheetRow(sessionsSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := f.SetCellStyle(sessionsSheet, "A1", "D1", bold); err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	currency := "$#,##0"
	money, err := f.NewStyle(&excelize.Style{CustomNumFmt: &currency})
	if err != nil {
		return fmt.Errorf("currency style: %w", err)
	}

	for i, s := range sessions {
		row := i + 2
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		values := []any{
			s.ID,
			s.CreatedAt.In(loc).Format("2006-01-02 15:04"),
			s.HouseholdIncome.InexactFloat64(),
			s.Dependents,
		}
		if err := f.SetSheetRow(sessionsSheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
		incomeCell := fmt.Sprintf("C%d", row)
		if err := f.SetCellStyle(sessionsSheet, incomeCell, incomeCell, money); err != nil {
			return fmt.Errorf("style row %d: %w", row, err)
		}
	}
	if err := f.SetColWidth(sessionsSheet, "A", "D", 22); err != nil {
		return fmt.Errorf("column width: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
