package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/datatypes"

	"github.com/farmkit/agrorent/internal/apperr"
	"github.com/farmkit/agrorent/internal/database/dbtest"
	"github.com/farmkit/agrorent/internal/identity"
	"github.com/farmkit/agrorent/internal/models"
)

func TestStats(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	admin := identity.Principal{UserID: "admin-1", Role: models.RoleAdmin}
	farmer := identity.Principal{UserID: "farmer-1", Role: models.RoleFarmer}

	on := &models.Machine{Name: "Tractor", PricePerDay: 500}
	off := &models.Machine{Name: "Harvester", PricePerDay: 2000, Status: models.MachineUnavailable}
	for _, m := range []*models.Machine{on, off} {
		if err := db.Create(m).Error; err != nil {
			t.Fatalf("Failed to seed machine: %v", err)
		}
	}

	day := datatypes.Date(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	bookings := []*models.Booking{
		{MachineID: on.ID, FarmerID: farmer.UserID, FromDate: day, ToDate: day, TotalAmount: 500, PaymentMethod: models.PaymentCash, Status: models.BookingPending},
		{MachineID: on.ID, FarmerID: farmer.UserID, FromDate: day, ToDate: day, TotalAmount: 500, PaymentMethod: models.PaymentCash, Status: models.BookingApproved},
		{MachineID: on.ID, FarmerID: "farmer-2", FromDate: day, ToDate: day, TotalAmount: 500, PaymentMethod: models.PaymentOnline, Status: models.BookingPending},
	}
	for _, b := range bookings {
		if err := db.Create(b).Error; err != nil {
			t.Fatalf("Failed to seed booking: %v", err)
		}
	}
	listing := &models.Listing{FarmerID: farmer.UserID, Name: "Ragi", Type: models.ListingCrop, Price: "40", Quantity: "2", Location: "Mandya"}
	if err := db.Create(listing).Error; err != nil {
		t.Fatalf("Failed to seed listing: %v", err)
	}

	s := NewService(db)

	a, err := s.Admin(ctx, admin)
	if err != nil {
		t.Fatalf("Admin stats failed: %v", err)
	}
	want := AdminStats{TotalMachines: 2, AvailableMachines: 1, PendingBookings: 2, ApprovedBookings: 1, ActiveListings: 1}
	if *a != want {
		t.Errorf("Expected %+v, got %+v", want, *a)
	}

	f, err := s.Farmer(ctx, farmer)
	if err != nil {
		t.Fatalf("Farmer stats failed: %v", err)
	}
	if f.PendingBookings != 1 || f.ApprovedBookings != 1 || f.ActiveListings != 1 {
		t.Errorf("Unexpected farmer stats %+v", *f)
	}

	if _, err := s.Admin(ctx, farmer); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("Expected farmer to be denied admin stats, got %v", err)
	}
}
