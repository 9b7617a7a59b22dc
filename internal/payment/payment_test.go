package payment

import (
	"bytes"
	"context"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestSimulatedAlwaysSucceeds(t *testing.T) {
	fixed := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	s := Simulated{Now: func() time.Time { return fixed }}

	r, err := s.ConfirmPayment(context.Background(), "b1", 1500)
	if err != nil {
		t.Fatalf("Simulated confirmation should not fail: %v", err)
	}
	if !strings.HasPrefix(r.Reference, "SIM-") || len(r.Reference) != 16 {
		t.Errorf("Unexpected reference %q", r.Reference)
	}
	if !r.ConfirmedAt.Equal(fixed) {
		t.Errorf("Expected confirmation time %v, got %v", fixed, r.ConfirmedAt)
	}

	r2, _ := s.ConfirmPayment(context.Background(), "b1", 1500)
	if r2.Reference == r.Reference {
		t.Error("References should be unique per confirmation")
	}
}

func TestQRPayload(t *testing.T) {
	payload := QRPayload(Payee{UPIID: "agrorent@upi", Name: "Agro Rent"}, "b-42", 1500)
	if !strings.HasPrefix(payload, "upi://pay?") {
		t.Fatalf("Unexpected scheme: %s", payload)
	}

	q, err := url.ParseQuery(strings.TrimPrefix(payload, "upi://pay?"))
	if err != nil {
		t.Fatalf("Payload query does not parse: %v", err)
	}
	if q.Get("pa") != "agrorent@upi" || q.Get("pn") != "Agro Rent" {
		t.Errorf("Unexpected payee fields: %v", q)
	}
	if q.Get("am") != "1500.00" {
		t.Errorf("Expected amount 1500.00, got %s", q.Get("am"))
	}
	if q.Get("tn") != "Booking b-42" {
		t.Errorf("Unexpected note %q", q.Get("tn"))
	}
}

func TestQRCodeIsPNG(t *testing.T) {
	png, err := QRCode("upi://pay?pa=x@upi&am=1.00", 0)
	if err != nil {
		t.Fatalf("QRCode failed: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Error("Expected PNG signature")
	}
}
