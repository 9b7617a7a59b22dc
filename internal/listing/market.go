// Package listing is the farmer produce marketplace: farmers post crops, seeds and plants and
// anyone signed in can search the active offers.
package listing

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/farmkit/agrorent/internal/apperr"
	"github.com/farmkit/agrorent/internal/identity"
	"github.com/farmkit/agrorent/internal/models"
)

// Market reads and writes listings
type Market struct {
	db  *gorm.DB
	now func() time.Time
}

func NewMarket(db *gorm.DB) *Market {
	return &Market{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock replaces the time source
func (m *Market) WithClock(now func() time.Time) *Market {
	m.now = now
	return m
}

// Input is the "add listing" form
type Input struct {
	Name        string             `json:"name"`
	Type        models.ListingType `json:"type"`
	Price       string             `json:"price"`
	Quantity    string             `json:"quantity"`
	Location    string             `json:"location"`
	Description string             `json:"description,omitempty"`
}

// Add posts a new Active listing owned by the calling farmer
func (m *Market) Add(ctx context.Context, p identity.Principal, in Input) (*models.Listing, error) {
	if err := p.Require(models.RoleFarmer); err != nil {
		return nil, err
	}

	l := &models.Listing{
		FarmerID:  p.UserID,
		Name:      strings.TrimSpace(in.Name),
		Type:      in.Type,
		Price:     strings.TrimSpace(in.Price),
		Quantity:  strings.TrimSpace(in.Quantity),
		Location:  strings.TrimSpace(in.Location),
		Status:    models.ListingActive,
		CreatedAt: m.now(),
	}
	if d := strings.TrimSpace(in.Description); d != "" {
		l.Description = &d
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	if err := m.db.WithContext(ctx).Create(l).Error; err != nil {
		return nil, apperr.Store("failed to create listing", err)
	}
	return l, nil
}

// Remove hides an Active listing. Only the owner or an admin may remove it.
func (m *Market) Remove(ctx context.Context, p identity.Principal, id string) error {
	if p.UserID == "" {
		return apperr.Unauthenticated("error.auth.session_required", "authentication required")
	}

	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		l, err := get(tx, id)
		if err != nil {
			return err
		}
		if l.FarmerID != p.UserID && p.Role != models.RoleAdmin {
			return apperr.Forbidden("error.listing.not_owner", "listing belongs to another farmer")
		}

		res := tx.Model(&models.Listing{}).
			Where("id = ? AND status = ?", id, models.ListingActive).
			UpdateColumns(map[string]interface{}{
				"status":     models.ListingRemoved,
				"updated_at": m.now(),
			})
		if res.Error != nil {
			return apperr.Store("failed to remove listing", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict("error.listing.not_active", "listing is no longer active")
		}
		return nil
	})
}

// Search returns Active listings whose name and location contain the given substrings,
// ignoring case. Empty filters match everything. Newest first.
func (m *Market) Search(ctx context.Context, name, location string) ([]models.Listing, error) {
	q := m.db.WithContext(ctx).Where("status = ?", models.ListingActive)
	if name = strings.TrimSpace(name); name != "" {
		q = q.Where(`name_key LIKE ? ESCAPE '\'`, containsPattern(name))
	}
	if location = strings.TrimSpace(location); location != "" {
		q = q.Where(`location_key LIKE ? ESCAPE '\'`, containsPattern(location))
	}

	var out []models.Listing
	if err := q.Order("created_at DESC, id DESC").Find(&out).Error; err != nil {
		return nil, apperr.Store("failed to search listings", err)
	}
	return out, nil
}

// ByFarmer returns every listing the farmer posted, including removed ones
func (m *Market) ByFarmer(ctx context.Context, farmerID string) ([]models.Listing, error) {
	var out []models.Listing
	err := m.db.WithContext(ctx).
		Where("farmer_id = ?", farmerID).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	if err != nil {
		return nil, apperr.Store("failed to list listings", err)
	}
	return out, nil
}

// Get returns a listing for the detail page. Removed listings are visible only to their owner.
func (m *Market) Get(ctx context.Context, p identity.Principal, id string) (*models.Listing, error) {
	l, err := get(m.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if l.Status != models.ListingActive && l.FarmerID != p.UserID && p.Role != models.RoleAdmin {
		return nil, apperr.NotFound("error.listing.not_found", "listing not found")
	}
	return l, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(models.SearchKey(s)) + "%"
}

func get(db *gorm.DB, id string) (*models.Listing, error) {
	var l models.Listing
	err := db.Where("id = ?", id).First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("error.listing.not_found", "listing not found")
	}
	if err != nil {
		if apperr.KindOf(err) != apperr.KindUnknown {
			return nil, err
		}
		return nil, apperr.Store("failed to load listing", err)
	}
	return &l, nil
}
