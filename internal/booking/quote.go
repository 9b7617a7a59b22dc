package booking

import (
	"time"

	"github.com/farmkit/agrorent/internal/apperr"
	"github.com/farmkit/agrorent/internal/models"
)

const secondsPerDay = 24 * 60 * 60

// Estimate is the price of renting a machine over an inclusive date range
type Estimate struct {
	Days        int     `json:"days"`
	PricePerDay float64 `json:"price_per_day"`
	Total       float64 `json:"total"`
}

// Quote prices the inclusive range [from, to]. A zero time counts as missing. Same-day
// rentals are one day.
func Quote(m models.Machine, from, to time.Time) (Estimate, error) {
	if err := checkRange(from, to); err != nil {
		return Estimate{}, err
	}

	days := Days(from, to)
	return Estimate{
		Days:        days,
		PricePerDay: m.PricePerDay,
		Total:       float64(days) * m.PricePerDay,
	}, nil
}

// Days counts the calendar days of the inclusive range, at least one. Whole days are taken
// from Unix seconds since a time.Duration overflows past ~292 years.
func Days(from, to time.Time) int {
	days := int(unixDay(to)-unixDay(from)) + 1
	if days < 1 {
		days = 1
	}
	return days
}

// unixDay is exact because DayOf is midnight UTC
func unixDay(t time.Time) int64 {
	return models.DayOf(t).Unix() / secondsPerDay
}

func checkRange(from, to time.Time) error {
	if from.IsZero() || to.IsZero() {
		return apperr.Validation("error.booking.dates_required", "both dates are required")
	}
	if models.DayOf(to).Before(models.DayOf(from)) {
		return apperr.Validation("error.booking.invalid_range", "to_date is before from_date")
	}
	return nil
}

// ParseDate reads a YYYY-MM-DD form value. Empty input yields the zero time.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, apperr.Validation("error.booking.invalid_range", "dates must be YYYY-MM-DD")
	}
	return t, nil
}
