// Package booking prices machine rentals and moves bookings through
// Pending -> Approved | Rejected.
package booking

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/farmkit/agrorent/internal/apperr"
	"github.com/farmkit/agrorent/internal/identity"
	"github.com/farmkit/agrorent/internal/models"
	"github.com/farmkit/agrorent/internal/payment"
)

// Engine runs booking operations against the record store
type Engine struct {
	db       *gorm.DB
	payments payment.Confirmer
	now      func() time.Time
}

// NewEngine creates an engine. payments may be nil, in which case the simulated confirmer is used.
func NewEngine(db *gorm.DB, payments payment.Confirmer) *Engine {
	e := &Engine{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
	if payments == nil {
		payments = payment.Simulated{Now: func() time.Time { return e.now() }}
	}
	e.payments = payments
	return e
}

// WithClock replaces the time source
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// CreateRequest is a farmer's booking form
type CreateRequest struct {
	MachineID     string               `json:"machine_id"`
	FarmerID      string               `json:"-"`
	FromDate      time.Time            `json:"-"`
	ToDate        time.Time            `json:"-"`
	PaymentMethod models.PaymentMethod `json:"payment_method"`
}

// Create validates the request, prices it and stores a Pending booking. Nothing is written
// unless every check passes.
func (e *Engine) Create(ctx context.Context, p identity.Principal, req CreateRequest) (*models.Booking, error) {
	if req.FarmerID == "" {
		return nil, apperr.Validation("error.booking.farmer_required", "farmer id is required")
	}
	if err := checkRange(req.FromDate, req.ToDate); err != nil {
		return nil, err
	}
	if !req.PaymentMethod.Valid() {
		return nil, apperr.Validation("error.booking.payment_method", "payment method must be cash or online")
	}
	if err := p.Require(models.RoleFarmer); err != nil {
		return nil, err
	}
	if p.UserID != req.FarmerID {
		return nil, apperr.Forbidden("error.booking.not_owner", "cannot book on behalf of another farmer")
	}

	var created models.Booking
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var machine models.Machine
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", req.MachineID).First(&machine).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("error.machine.not_found", "machine not found")
		}
		if err != nil {
			return apperr.Store("failed to load machine", err)
		}
		if !machine.Bookable() {
			return apperr.Validation("error.booking.machine_unavailable", "machine is unavailable")
		}

		estimate, err := Quote(machine, req.FromDate, req.ToDate)
		if err != nil {
			return err
		}

		if err := checkApprovedOverlap(tx, machine.ID, "", req.FromDate, req.ToDate); err != nil {
			return err
		}

		created = models.Booking{
			MachineID:     machine.ID,
			FarmerID:      req.FarmerID,
			FromDate:      datatypes.Date(models.DayOf(req.FromDate)),
			ToDate:        datatypes.Date(models.DayOf(req.ToDate)),
			TotalAmount:   estimate.Total,
			PaymentMethod: req.PaymentMethod,
			Status:        models.BookingPending,
			CreatedAt:     e.now(),
		}
		if err := tx.Create(&created).Error; err != nil {
			if apperr.KindOf(err) != apperr.KindUnknown {
				return err
			}
			return apperr.Store("failed to create booking", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// Decide moves a Pending booking to Approved or Rejected. Only admins may decide, a decided
// booking cannot be decided again, and approval fails if it would overlap another approved
// booking of the same machine.
func (e *Engine) Decide(ctx context.Context, p identity.Principal, id string, decision models.BookingStatus) (*models.Booking, error) {
	if err := p.Require(models.RoleAdmin); err != nil {
		return nil, err
	}
	if !decision.Terminal() {
		return nil, apperr.Validation("error.booking.invalid_decision", "decision must be Approved or Rejected")
	}

	var decided models.Booking
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := loadBooking(tx, id)
		if err != nil {
			return err
		}
		if !models.CanTransition(current.Status, decision) {
			return apperr.Conflict("error.booking.already_decided", "booking is already "+string(current.Status))
		}
		if decision == models.BookingApproved {
			// Row lock serializes approvals per machine; SQLite already has a single writer
			var locked models.Machine
			err := tx.Unscoped().Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", current.MachineID).First(&locked).Error
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.Store("failed to lock machine", err)
			}
			if err := checkApprovedOverlap(tx, current.MachineID, current.ID, current.From(), current.To()); err != nil {
				return err
			}
		}

		now := e.now()
		res := tx.Model(&models.Booking{}).
			Where("id = ? AND status = ?", id, models.BookingPending).
			UpdateColumns(map[string]interface{}{
				"status":     decision,
				"decided_by": p.UserID,
				"decided_at": now,
				"updated_at": now,
			})
		if res.Error != nil {
			return apperr.Store("failed to update booking", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict("error.booking.already_decided", "booking was decided concurrently")
		}

		reloaded, err := loadBooking(tx, id)
		if err != nil {
			return err
		}
		decided = *reloaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &decided, nil
}

// ConfirmPayment records the farmer's "I have paid" for an online booking through the
// simulated confirmer. Confirming twice returns the booking unchanged.
func (e *Engine) ConfirmPayment(ctx context.Context, p identity.Principal, id string) (*models.Booking, error) {
	if err := p.Require(models.RoleFarmer); err != nil {
		return nil, err
	}

	b, err := loadBooking(e.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if b.FarmerID != p.UserID {
		return nil, apperr.Forbidden("error.booking.not_owner", "booking belongs to another farmer")
	}
	if b.PaymentMethod != models.PaymentOnline {
		return nil, apperr.Validation("error.booking.not_online", "cash bookings are paid at the shop")
	}
	if b.PaymentConfirmedAt != nil {
		return b, nil
	}

	receipt, err := e.payments.ConfirmPayment(ctx, b.ID, b.TotalAmount)
	if err != nil {
		return nil, apperr.Store("payment confirmation failed", err)
	}

	res := e.db.WithContext(ctx).Model(&models.Booking{}).
		Where("id = ? AND payment_confirmed_at IS NULL", b.ID).
		UpdateColumns(map[string]interface{}{
			"payment_confirmed_at": receipt.ConfirmedAt,
			"payment_reference":    receipt.Reference,
			"updated_at":           e.now(),
		})
	if res.Error != nil {
		return nil, apperr.Store("failed to record payment", res.Error)
	}
	return loadBooking(e.db.WithContext(ctx), b.ID)
}

func loadBooking(db *gorm.DB, id string) (*models.Booking, error) {
	var b models.Booking
	err := db.Where("id = ?", id).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("error.booking.not_found", "booking not found")
	}
	if err != nil {
		if apperr.KindOf(err) != apperr.KindUnknown {
			return nil, err
		}
		return nil, apperr.Store("failed to load booking", err)
	}
	return &b, nil
}

// checkApprovedOverlap fails with Conflict when an approved booking of the machine, other than
// exceptID, shares a day with [from, to].
func checkApprovedOverlap(tx *gorm.DB, machineID, exceptID string, from, to time.Time) error {
	var approved []models.Booking
	q := tx.Where("machine_id = ? AND status = ?", machineID, models.BookingApproved)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Find(&approved).Error; err != nil {
		return apperr.Store("failed to check availability", err)
	}
	for i := range approved {
		if approved[i].Overlaps(from, to) {
			return apperr.Conflict("error.booking.overlap", "machine already booked for these dates")
		}
	}
	return nil
}
