package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/farmkit/agrorent/internal/apperr"
	"github.com/farmkit/agrorent/internal/booking"
	"github.com/farmkit/agrorent/internal/models"
	"github.com/farmkit/agrorent/internal/payment"
	"github.com/farmkit/agrorent/internal/services/export"
	"github.com/farmkit/agrorent/internal/services/printer"
)

// CreateBookingRequest is the booking form. Dates are YYYY-MM-DD.
type CreateBookingRequest struct {
	MachineID     string               `json:"machine_id"`
	FromDate      string               `json:"from_date"`
	ToDate        string               `json:"to_date"`
	PaymentMethod models.PaymentMethod `json:"payment_method"`
}

// DecisionRequest is the admin's approve/reject action
type DecisionRequest struct {
	Decision models.BookingStatus `json:"decision"`
}

func parseRange(from, to string) (time.Time, time.Time, error) {
	f, err := booking.ParseDate(from)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	t, err := booking.ParseDate(to)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return f, t, nil
}

// quoteMachine recomputes the estimate for the date inputs of the booking form
func (r *Router) quoteMachine(w http.ResponseWriter, req *http.Request) {
	m, err := r.machines.Get(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		r.respondAppError(w, req, err)
		return
	}

	q := req.URL.Query()
	from, to, err := parseRange(q.Get("from"), q.Get("to"))
	if err != nil {
		r.respondAppError(w, req, err)
		return
	}
	est, err := booking.Quote(*m, from, to)
	if err != nil {
		r.respondAppError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, est)
}

func (r *Router) createBooking(w http.ResponseWriter, req *http.Request) {
	var body CreateBookingRequest
	if !r.decodeJSON(w, req, &body) {
		return
	}
	from, to, err := parseRange(body.FromDate, body.ToDate)
	if err != nil {
		r.respondAppError(w, req, err)
		return
	}

	p := principal(req)
	b, err := r.bookings.Create(req.Context(), p, booking.CreateRequest{
		MachineID:     body.MachineID,
		FarmerID:      p.UserID,
		FromDate:      from,
		ToDate:        to,
		PaymentMethod: body.PaymentMethod,
	})
	if err != nil {
		r.respondAppError(w, req, err)
		return
	}
	respondJSON(w, http.StatusCreated, b)
}

func statusFilter(req *http.Request) models.BookingStatus {
	s := req.URL.Query().Get("status")
	if s == "" || s == "all" {
		return ""
	}
	return models.BookingStatus(s)
}

// myBookings lists the caller's bookings, optionally filtered by ?status=
func (r *Router) myBookings(w http.ResponseWriter, req *http.Request) {
	views, err := r.bookings.List(req.Context(), booking.Farmer(principal(req).UserID, statusFilter(req)))
	if err != nil {
		r.respondAppError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, views)
}

// confirmPayment is the farmer's "I have paid" button
func (r *Router) confirmPayment(w http.ResponseWriter, req *http.Request) {
	b, err := r.bookings.ConfirmPayment(req.Context(), principal(req), mux.Vars(req)["id"])
	if err != nil {
		r.respondAppError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, b)
}

// paymentQR serves the UPI QR code for an online booking
func (r *Router) paymentQR(w http.ResponseWriter, req *http.Request) {
	v, err := r.bookings.GetFor(req.Context(), principal(req), mux.Vars(req)["id"])
	if err != nil {
		r.respondAppError(w, req, err)
		return
	}
	if v.PaymentMethod != models.PaymentOnline {
		r.respondAppError(w, req, apperr.Validation("error.booking.not_online", "cash booking"))
		return
	}

	size, _ := strconv.Atoi(req.URL.Query().Get("size"))
	png, err := payment.QRCode(payment.QRPayload(r.payee, v.ID, v.TotalAmount), size)
	if err != nil {
		r.respondAppError(w, req, apperr.Store("failed to render QR code", err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(png)
}

// bookingReceipt renders a PDF receipt for the owning farmer or an admin
func (r *Router) bookingReceipt(w http.ResponseWriter, req *http.Request) {
	v, err := r.bookings.GetFor(req.Context(), principal(req), mux.Vars(req)["id"])
	if err != nil {
		r.respondAppError(w, req, err)
		return
	}

	days := booking.Days(v.From(), v.To())
	rec := printer.Receipt{
		BookingID:       v.ID,
		MachineName:     v.MachineName,
		MachineLocation: v.MachineLocation,
		FarmerName:      v.FarmerName,
		From:            v.From(),
		To:              v.To(),
		Days:            days,
		PricePerDay:     v.TotalAmount / float64(days),
		Total:           v.TotalAmount,
		PaymentMethod:   string(v.PaymentMethod),
		Status:          string(v.Status),
		Currency:        r.cfg.Payment.CurrencySymbol,
		IssuedAt:        time.Now().UTC(),
	}
	if v.PaymentReference != nil {
		rec.PaymentRef = *v.PaymentReference
	}
	if v.PaymentMethod == models.PaymentOnline && v.PaymentConfirmedAt == nil {
		rec.QRPayload = payment.QRPayload(r.payee, v.ID, v.TotalAmount)
	}

	pdf, err := printer.ReceiptPDF(rec)
	if err != nil {
		r.respondAppError(w, req, apperr.Store("failed to render receipt", err))
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=booking-%s.pdf", v.ID))
	w.Write(pdf)
}

// adminBookings lists every booking, optionally filtered by ?status=
func (r *Router) adminBookings(w http.ResponseWriter, req *http.Request) {
	views, err := r.bookings.List(req.Context(), booking.All(statusFilter(req)))
	if err != nil {
		r.respondAppError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, views)
}

func (r *Router) decideBooking(w http.ResponseWriter, req *http.Request) {
	var body DecisionRequest
	if !r.decodeJSON(w, req, &body) {
		return
	}
	b, err := r.bookings.Decide(req.Context(), principal(req), mux.Vars(req)["id"], body.Decision)
	if err != nil {
		r.respondAppError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, b)
}

// exportBookings downloads the filtered admin list as a spreadsheet
func (r *Router) exportBookings(w http.ResponseWriter, req *http.Request) {
	views, err := r.bookings.List(req.Context(), booking.All(statusFilter(req)))
	if err != nil {
		r.respondAppError(w, req, err)
		return
	}

	var buf bytes.Buffer
	if err := export.BookingsXLSX(&buf, views); err != nil {
		r.respondAppError(w, req, apperr.Store("failed to export bookings", err))
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=bookings-%s.xlsx", time.Now().UTC().Format("20060102")))
	w.Write(buf.Bytes())
}

// bookingCalendar returns approved bookings per day for ?year=&month=
func (r *Router) bookingCalendar(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	year, errY := strconv.Atoi(q.Get("year"))
	month, errM := strconv.Atoi(q.Get("month"))
	if errY != nil || errM != nil {
		r.respondAppError(w, req, apperr.Validation("error.calendar.invalid_month", "year and month are required"))
		return
	}

	days, err := r.bookings.Calendar(req.Context(), principal(req), year, time.Month(month))
	if err != nil {
		r.respondAppError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"year":  year,
		"month": month,
		"days":  days,
	})
}
