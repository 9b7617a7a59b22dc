package printer

import (
	"bytes"
	"testing"
	"time"
)

func TestReceiptPDF(t *testing.T) {
	base := Receipt{
		BookingID:       "b-1",
		MachineName:     "Tractor",
		MachineLocation: "Mandya",
		FarmerName:      "Ravi Kumar",
		From:            time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		To:              time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		Days:            3,
		PricePerDay:     500,
		Total:           1500,
		PaymentMethod:   "cash",
		Status:          "Approved",
		IssuedAt:        time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
	}

	plain, err := ReceiptPDF(base)
	if err != nil {
		t.Fatalf("ReceiptPDF failed: %v", err)
	}
	if !bytes.HasPrefix(plain, []byte("%PDF")) {
		t.Fatal("Expected PDF header")
	}

	withQR := base
	withQR.PaymentMethod = "online"
	withQR.QRPayload = "upi://pay?pa=agrorent@upi&am=1500.00"
	qr, err := ReceiptPDF(withQR)
	if err != nil {
		t.Fatalf("ReceiptPDF with QR failed: %v", err)
	}
	if len(qr) <= len(plain) {
		t.Errorf("Expected embedded QR to grow the document (%d <= %d)", len(qr), len(plain))
	}
}
