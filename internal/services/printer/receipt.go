// Package printer renders printable booking documents.
package printer

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"
)

// Receipt holds what is printed on a booking receipt
type Receipt struct {
	BookingID       string
	MachineName     string
	MachineLocation string
	FarmerName      string
	From, To        time.Time
	Days            int
	PricePerDay     float64
	Total           float64
	PaymentMethod   string
	Status          string
	PaymentRef      string
	Currency        string

	// QRPayload is encoded on the receipt when set (online bookings awaiting payment)
	QRPayload string
	IssuedAt  time.Time
}

// ReceiptPDF renders a one-page A4 receipt
func ReceiptPDF(r Receipt) ([]byte, error) {
	if r.Currency == "" {
		r.Currency = "Rs."
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(170, 10, "Machine Rental Receipt", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(170, 5, "Booking "+r.BookingID, "", 1, "L", false, 0, "")
	pdf.CellFormat(170, 5, "Issued "+r.IssuedAt.Format("02 Jan 2006 15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	rows := [][2]string{
		{"Farmer", r.FarmerName},
		{"Machine", r.MachineName},
		{"Location", r.MachineLocation},
		{"From", r.From.Format("02 Jan 2006")},
		{"To", r.To.Format("02 Jan 2006")},
		{"Days", fmt.Sprintf("%d", r.Days)},
		{"Price per day", fmt.Sprintf("%s %.2f", r.Currency, r.PricePerDay)},
		{"Payment", r.PaymentMethod},
		{"Status", r.Status},
	}
	if r.PaymentRef != "" {
		rows = append(rows, [2]string{"Payment reference", r.PaymentRef})
	}

	pdf.SetFontSize(11)
	for _, row := range rows {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(50, 8, row[0], "B", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 11)
		pdf.CellFormat(120, 8, row[1], "B", 1, "L", false, 0, "")
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(50, 10, "Total", "", 0, "L", false, 0, "")
	pdf.CellFormat(120, 10, fmt.Sprintf("%s %.2f", r.Currency, r.Total), "", 1, "L", false, 0, "")

	if r.QRPayload != "" {
		qrPng, err := qrcode.Encode(r.QRPayload, qrcode.Medium, 256)
		if err != nil {
			return nil, err
		}

		imgOptions := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
		pdf.RegisterImageOptionsReader("payment_qr", imgOptions, bytes.NewReader(qrPng))

		y := pdf.GetY() + 8
		pdf.ImageOptions("payment_qr", 20, y, 50, 50, false, imgOptions, 0, "")
		pdf.SetXY(75, y+20)
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(115, 5, "Scan with any UPI app to pay, then press \"I have paid\" on your bookings page.", "", "L", false)
	}

	if err := pdf.Error(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
