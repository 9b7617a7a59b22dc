// Package dashboard computes the counters shown on the admin and farmer home pages.
package dashboard

import (
	"context"

	"gorm.io/gorm"

	"github.com/farmkit/agrorent/internal/apperr"
	"github.com/farmkit/agrorent/internal/identity"
	"github.com/farmkit/agrorent/internal/models"
)

// AdminStats is the admin dashboard summary
type AdminStats struct {
	TotalMachines     int64 `json:"total_machines"`
	AvailableMachines int64 `json:"available_machines"`
	PendingBookings   int64 `json:"pending_bookings"`
	ApprovedBookings  int64 `json:"approved_bookings"`
	ActiveListings    int64 `json:"active_listings"`
}

// FarmerStats is the farmer dashboard summary
type FarmerStats struct {
	PendingBookings  int64 `json:"pending_bookings"`
	ApprovedBookings int64 `json:"approved_bookings"`
	ActiveListings   int64 `json:"active_listings"`
}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) Admin(ctx context.Context, p identity.Principal) (*AdminStats, error) {
	if err := p.Require(models.RoleAdmin); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	var out AdminStats
	counts := []struct {
		dest  *int64
		model interface{}
		where []interface{}
	}{
		{&out.TotalMachines, &models.Machine{}, nil},
		{&out.AvailableMachines, &models.Machine{}, []interface{}{"status = ?", models.MachineAvailable}},
		{&out.PendingBookings, &models.Booking{}, []interface{}{"status = ?", models.BookingPending}},
		{&out.ApprovedBookings, &models.Booking{}, []interface{}{"status = ?", models.BookingApproved}},
		{&out.ActiveListings, &models.Listing{}, []interface{}{"status = ?", models.ListingActive}},
	}
	for _, c := range counts {
		q := db.Model(c.model)
		if len(c.where) > 0 {
			q = q.Where(c.where[0], c.where[1:]...)
		}
		if err := q.Count(c.dest).Error; err != nil {
			return nil, apperr.Store("failed to count", err)
		}
	}
	return &out, nil
}

func (s *Service) Farmer(ctx context.Context, p identity.Principal) (*FarmerStats, error) {
	if err := p.Require(models.RoleFarmer); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	var out FarmerStats
	if err := db.Model(&models.Booking{}).
		Where("farmer_id = ? AND status = ?", p.UserID, models.BookingPending).
		Count(&out.PendingBookings).Error; err != nil {
		return nil, apperr.Store("failed to count bookings", err)
	}
	if err := db.Model(&models.Booking{}).
		Where("farmer_id = ? AND status = ?", p.UserID, models.BookingApproved).
		Count(&out.ApprovedBookings).Error; err != nil {
		return nil, apperr.Store("failed to count bookings", err)
	}
	if err := db.Model(&models.Listing{}).
		Where("farmer_id = ? AND status = ?", p.UserID, models.ListingActive).
		Count(&out.ActiveListings).Error; err != nil {
		return nil, apperr.Store("failed to count listings", err)
	}
	return &out, nil
}
