package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/farmkit/agrorent/internal/apperr"
)

// BookingStatus defines the lifecycle states of a booking
type BookingStatus string

const (
	BookingPending  BookingStatus = "Pending"  // Awaiting an admin decision
	BookingApproved BookingStatus = "Approved" // Terminal
	BookingRejected BookingStatus = "Rejected" // Terminal
)

// Valid reports whether s is a known status
func (s BookingStatus) Valid() bool {
	return s == BookingPending || s == BookingApproved || s == BookingRejected
}

// Terminal reports whether no transition leaves s
func (s BookingStatus) Terminal() bool {
	return s == BookingApproved || s == BookingRejected
}

// CanTransition reports whether from -> to is an edge of the booking state machine
func CanTransition(from, to BookingStatus) bool {
	return from == BookingPending && to.Terminal()
}

// PaymentMethod is how the farmer intends to pay
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentOnline PaymentMethod = "online"
)

// Valid reports whether m is a known payment method
func (m PaymentMethod) Valid() bool {
	return m == PaymentCash || m == PaymentOnline
}

// Booking is a farmer's request to rent a machine over an inclusive date range
type Booking struct {
	ID            string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	MachineID     string         `gorm:"type:varchar(36);not null;index" json:"machine_id"`
	FarmerID      string         `gorm:"type:varchar(36);not null;index" json:"farmer_id"`
	FromDate      datatypes.Date `gorm:"not null" json:"from_date"`
	ToDate        datatypes.Date `gorm:"not null" json:"to_date"`
	TotalAmount   float64        `gorm:"not null" json:"total_amount"`
	PaymentMethod PaymentMethod  `gorm:"type:varchar(16);not null" json:"payment_method"`
	Status        BookingStatus  `gorm:"type:varchar(16);not null;default:'Pending';index" json:"status"`

	PaymentConfirmedAt *time.Time `json:"payment_confirmed_at,omitempty"`
	PaymentReference   *string    `gorm:"type:varchar(64)" json:"payment_reference,omitempty"`
	DecidedBy          *string    `gorm:"type:varchar(36)" json:"decided_by,omitempty"`
	DecidedAt          *time.Time `json:"decided_at,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Booking model
func (Booking) TableName() string {
	return "bookings"
}

// From returns the first rental day
func (b *Booking) From() time.Time { return time.Time(b.FromDate) }

// To returns the last rental day
func (b *Booking) To() time.Time { return time.Time(b.ToDate) }

// Overlaps reports whether the inclusive ranges [b.From, b.To] and [from, to] share a day
func (b *Booking) Overlaps(from, to time.Time) bool {
	return !DayOf(b.To()).Before(DayOf(from)) && !DayOf(to).Before(DayOf(b.From()))
}

// Validate checks the record invariants
func (b *Booking) Validate() error {
	if b.MachineID == "" || b.FarmerID == "" {
		return apperr.Validation("error.booking.invalid", "booking must reference a machine and a farmer")
	}
	if DayOf(b.To()).Before(DayOf(b.From())) {
		return apperr.Validation("error.booking.invalid_range", "to_date is before from_date")
	}
	if !b.PaymentMethod.Valid() {
		return apperr.Validation("error.booking.payment_method", fmt.Sprintf("invalid payment method %q", b.PaymentMethod))
	}
	if !b.Status.Valid() {
		return apperr.Validation("error.booking.invalid", fmt.Sprintf("invalid booking status %q", b.Status))
	}
	if b.TotalAmount < 0 {
		return apperr.Validation("error.booking.invalid", "total amount is negative")
	}
	return nil
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.Status == "" {
		b.Status = BookingPending
	}
	return b.Validate()
}

func (b *Booking) AfterFind(tx *gorm.DB) error { return b.Validate() }

// DayOf truncates t to midnight UTC of its calendar day
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
