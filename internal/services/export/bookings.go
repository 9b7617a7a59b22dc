// Package export writes booking reports as spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/farmkit/agrorent/internal/booking"
)

const sheet = "Bookings"

var header = []interface{}{
	"Booking ID", "Created", "Farmer", "Machine", "Location",
	"From", "To", "Total", "Payment", "Paid", "Status",
}

// BookingsXLSX writes one row per booking, in the order given
func BookingsXLSX(w io.Writer, rows []booking.View) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}

	for i, v := range rows {
		paid := ""
		if v.PaymentConfirmedAt != nil {
			paid = v.PaymentConfirmedAt.Format("2006-01-02 15:04")
		}
		row := []interface{}{
			v.ID,
			v.CreatedAt.Format("2006-01-02 15:04"),
			v.FarmerName,
			v.MachineName,
			v.MachineLocation,
			v.From().Format("2006-01-02"),
			v.To().Format("2006-01-02"),
			v.TotalAmount,
			string(v.PaymentMethod),
			paid,
			string(v.Status),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 38)
	_ = f.SetColWidth(sheet, "B", "K", 16)
	if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
