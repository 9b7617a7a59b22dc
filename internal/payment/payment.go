// Package payment holds the simulated payment collaborator. Nothing here moves money: the
// confirmer always succeeds and the QR code only encodes a UPI deep link for display.
package payment

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
)

// Receipt is the outcome of a confirmation
type Receipt struct {
	Reference   string    `json:"reference"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

// Confirmer records that a farmer says they paid for a booking
type Confirmer interface {
	ConfirmPayment(ctx context.Context, bookingID string, amount float64) (Receipt, error)
}

// Simulated is the stub confirmer: it always succeeds and verifies nothing
type Simulated struct {
	Now func() time.Time
}

func (s Simulated) ConfirmPayment(ctx context.Context, bookingID string, amount float64) (Receipt, error) {
	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now()
	}
	ref := "SIM-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
	return Receipt{Reference: ref, ConfirmedAt: now}, nil
}

// Payee identifies who the QR code pays
type Payee struct {
	UPIID string
	Name  string
}

// QRPayload builds the UPI deep link shown to the farmer for an online booking
func QRPayload(payee Payee, bookingID string, amount float64) string {
	q := url.Values{}
	q.Set("pa", payee.UPIID)
	q.Set("pn", payee.Name)
	q.Set("am", fmt.Sprintf("%.2f", amount))
	q.Set("cu", "INR")
	q.Set("tn", "Booking "+bookingID)
	return "upi://pay?" + q.Encode()
}

// QRCode renders payload as a PNG of size x size pixels
func QRCode(payload string, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	return qrcode.Encode(payload, qrcode.Medium, size)
}
