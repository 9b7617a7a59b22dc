package booking

import (
	"context"
	"sort"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/farmkit/agrorent/internal/apperr"
	"github.com/farmkit/agrorent/internal/identity"
	"github.com/farmkit/agrorent/internal/models"
)

// View is a booking joined with the machine and farmer details shown in lists
type View struct {
	models.Booking
	MachineName        string  `json:"machine_name"`
	MachineLocation    string  `json:"machine_location"`
	MachinePricePerDay float64 `json:"machine_price_per_day"`
	FarmerName         string  `json:"farmer_name"`
}

// Scope selects which bookings List returns. An empty FarmerID means all farmers.
type Scope struct {
	FarmerID string
	Status   models.BookingStatus
}

// All is the admin scope
func All(status models.BookingStatus) Scope { return Scope{Status: status} }

// Farmer restricts the scope to one farmer's bookings
func Farmer(id string, status models.BookingStatus) Scope {
	return Scope{FarmerID: id, Status: status}
}

const viewColumns = `bookings.*,
	COALESCE(machines.name, '') AS machine_name,
	COALESCE(machines.location, '') AS machine_location,
	COALESCE(machines.price_per_day, 0) AS machine_price_per_day,
	COALESCE(profiles.full_name, '') AS farmer_name`

// views also joins soft-deleted machines so history keeps their names
func views(db *gorm.DB) *gorm.DB {
	return db.Table("bookings").
		Select(viewColumns).
		Joins("LEFT JOIN machines ON machines.id = bookings.machine_id").
		Joins("LEFT JOIN profiles ON profiles.id = bookings.farmer_id")
}

// List returns the bookings in scope, newest first
func (e *Engine) List(ctx context.Context, scope Scope) ([]View, error) {
	if scope.Status != "" && !scope.Status.Valid() {
		return nil, apperr.Validation("error.booking.invalid", "unknown status filter "+string(scope.Status))
	}

	q := views(e.db.WithContext(ctx))
	if scope.FarmerID != "" {
		q = q.Where("bookings.farmer_id = ?", scope.FarmerID)
	}
	if scope.Status != "" {
		q = q.Where("bookings.status = ?", scope.Status)
	}

	var out []View
	if err := q.Order("bookings.created_at DESC, bookings.id DESC").Scan(&out).Error; err != nil {
		return nil, apperr.Store("failed to list bookings", err)
	}
	return out, validateViews(out)
}

// Get returns one booking with its joined details
func (e *Engine) Get(ctx context.Context, id string) (*View, error) {
	var out []View
	if err := views(e.db.WithContext(ctx)).Where("bookings.id = ?", id).Limit(1).Scan(&out).Error; err != nil {
		return nil, apperr.Store("failed to load booking", err)
	}
	if len(out) == 0 {
		return nil, apperr.NotFound("error.booking.not_found", "booking not found")
	}
	if err := validateViews(out); err != nil {
		return nil, err
	}
	return &out[0], nil
}

// GetFor returns a booking visible to p: the owning farmer or any admin
func (e *Engine) GetFor(ctx context.Context, p identity.Principal, id string) (*View, error) {
	if p.UserID == "" {
		return nil, apperr.Unauthenticated("error.auth.session_required", "authentication required")
	}
	v, err := e.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Role != models.RoleAdmin && v.FarmerID != p.UserID {
		return nil, apperr.Forbidden("error.booking.not_owner", "booking belongs to another farmer")
	}
	return v, nil
}

// Scan bypasses AfterFind, so joined rows are checked here
func validateViews(vs []View) error {
	for i := range vs {
		if err := vs[i].Booking.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// CalendarDay lists the approved bookings occupying one day
type CalendarDay struct {
	Date     string `json:"date"`
	Bookings []View `json:"bookings"`
}

// Calendar returns, for each day of the month that has any, the approved bookings covering it
func (e *Engine) Calendar(ctx context.Context, p identity.Principal, year int, month time.Month) ([]CalendarDay, error) {
	if err := p.Require(models.RoleAdmin); err != nil {
		return nil, err
	}
	if month < time.January || month > time.December {
		return nil, apperr.Validation("error.calendar.invalid_month", "month must be 1-12")
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	var approved []View
	err := views(e.db.WithContext(ctx)).
		Where("bookings.status = ?", models.BookingApproved).
		Where("bookings.from_date <= ? AND bookings.to_date >= ?", datatypes.Date(last), datatypes.Date(first)).
		Order("bookings.from_date ASC, bookings.id ASC").
		Scan(&approved).Error
	if err != nil {
		return nil, apperr.Store("failed to load calendar", err)
	}
	if err := validateViews(approved); err != nil {
		return nil, err
	}

	byDay := make(map[string][]View)
	for _, v := range approved {
		if !v.Overlaps(first, last) {
			continue
		}
		for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
			if v.Overlaps(d, d) {
				key := d.Format("2006-01-02")
				byDay[key] = append(byDay[key], v)
			}
		}
	}

	days := make([]CalendarDay, 0, len(byDay))
	for date, bs := range byDay {
		days = append(days, CalendarDay{Date: date, Bookings: bs})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days, nil
}
