package machine

import (
	"context"
	"errors"
	"testing"

	"github.com/farmkit/agrorent/internal/apperr"
	"github.com/farmkit/agrorent/internal/database/dbtest"
	"github.com/farmkit/agrorent/internal/identity"
	"github.com/farmkit/agrorent/internal/models"
)

var (
	admin  = identity.Principal{UserID: "admin-1", Role: models.RoleAdmin}
	farmer = identity.Principal{UserID: "farmer-1", Role: models.RoleFarmer}
)

func TestToggleTwiceRestoresStatus(t *testing.T) {
	c := NewCatalog(dbtest.New(t))
	ctx := context.Background()

	m, err := c.Create(ctx, admin, Input{Name: "Tractor", Location: "Mandya", PricePerDay: 500})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if m.Status != models.MachineAvailable {
		t.Fatalf("Expected new machine to be Available, got %s", m.Status)
	}

	once, err := c.ToggleStatus(ctx, admin, m.ID)
	if err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	if once.Status != models.MachineUnavailable {
		t.Errorf("Expected Unavailable after one toggle, got %s", once.Status)
	}

	twice, err := c.ToggleStatus(ctx, admin, m.ID)
	if err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	if twice.Status != models.MachineAvailable {
		t.Errorf("Expected Available after two toggles, got %s", twice.Status)
	}
}

func TestNonAdminCannotEdit(t *testing.T) {
	c := NewCatalog(dbtest.New(t))
	ctx := context.Background()

	m, err := c.Create(ctx, admin, Input{Name: "Tractor", PricePerDay: 500})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := c.ToggleStatus(ctx, farmer, m.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("Expected farmer toggle to be forbidden, got %v", err)
	}
	if _, err := c.Create(ctx, farmer, Input{Name: "Plough", PricePerDay: 100}); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("Expected farmer create to be forbidden, got %v", err)
	}
	if err := c.Delete(ctx, identity.Principal{}, m.ID); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Errorf("Expected anonymous delete to be unauthenticated, got %v", err)
	}

	got, err := c.Get(ctx, m.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != models.MachineAvailable {
		t.Errorf("Rejected toggle changed the status to %s", got.Status)
	}
}

func TestCreateValidation(t *testing.T) {
	c := NewCatalog(dbtest.New(t))
	ctx := context.Background()

	tests := []struct {
		name string
		in   Input
	}{
		{"blank name", Input{Name: "  ", PricePerDay: 10}},
		{"zero price", Input{Name: "Tractor"}},
		{"bad status", Input{Name: "Tractor", PricePerDay: 10, Status: "Broken"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := c.Create(ctx, admin, tt.in); !errors.Is(err, apperr.ErrValidation) {
				t.Errorf("Expected validation error, got %v", err)
			}
		})
	}
}

func TestPatchAndDelete(t *testing.T) {
	c := NewCatalog(dbtest.New(t))
	ctx := context.Background()

	m, err := c.Create(ctx, admin, Input{Name: "Tractor", Location: "Mandya", PricePerDay: 500})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	price := 650.0
	loc := "Mysuru"
	patched, err := c.Patch(ctx, admin, m.ID, Patch{PricePerDay: &price, Location: &loc})
	if err != nil {
		t.Fatalf("Patch failed: %v", err)
	}
	if patched.PricePerDay != 650 || patched.Location != "Mysuru" || patched.Name != "Tractor" {
		t.Errorf("Unexpected patch result: %+v", patched)
	}

	bad := -1.0
	if _, err := c.Patch(ctx, admin, m.ID, Patch{PricePerDay: &bad}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("Expected negative price to be rejected, got %v", err)
	}

	if err := c.Delete(ctx, admin, m.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := c.Get(ctx, m.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Expected deleted machine to be not found, got %v", err)
	}
	if err := c.Delete(ctx, admin, m.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Expected second delete to be not found, got %v", err)
	}
	if _, err := c.ToggleStatus(ctx, admin, "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Expected toggle of unknown machine to be not found, got %v", err)
	}
}

func TestBrowseMarksUnavailable(t *testing.T) {
	c := NewCatalog(dbtest.New(t))
	ctx := context.Background()

	if _, err := c.Create(ctx, admin, Input{Name: "Tractor", PricePerDay: 500}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := c.Create(ctx, admin, Input{Name: "Harvester", PricePerDay: 2000, Status: models.MachineUnavailable}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	gone, err := c.Create(ctx, admin, Input{Name: "Old Seeder", PricePerDay: 300})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := c.Delete(ctx, admin, gone.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	list, err := c.Browse(ctx)
	if err != nil {
		t.Fatalf("Browse failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("Expected both live machines, got %+v", list)
	}
	// Ordered by name
	if list[0].Name != "Harvester" || list[0].Bookable {
		t.Errorf("Expected the harvester listed but not bookable, got %+v", list[0])
	}
	if list[1].Name != "Tractor" || !list[1].Bookable {
		t.Errorf("Expected the tractor to be bookable, got %+v", list[1])
	}

	all, err := c.List(ctx, admin)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Expected admin to see both machines, got %d", len(all))
	}
}
