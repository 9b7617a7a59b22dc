package identity

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/farmkit/agrorent/internal/apperr"
	"github.com/farmkit/agrorent/internal/models"
)

// ProfileStore reads and writes the one-per-user profile records
type ProfileStore struct {
	db *gorm.DB
}

func NewProfileStore(db *gorm.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

// Get returns the profile for userID or a NotFound error
func (s *ProfileStore) Get(ctx context.Context, userID string) (*models.Profile, error) {
	var p models.Profile
	err := s.db.WithContext(ctx).Where("id = ?", userID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("error.profile.not_found", "profile not found")
	}
	if err != nil {
		return nil, apperr.Store("failed to load profile", err)
	}
	return &p, nil
}

// Upsert inserts p or overwrites the stored profile with the same id
func (s *ProfileStore) Upsert(ctx context.Context, p *models.Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	p.UpdatedAt = s.db.NowFunc()
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role", "full_name", "phone", "location", "updated_at"}),
	}).Create(p).Error
	return apperr.Store("failed to save profile", err)
}

// Details are the self-editable profile fields. Nil fields are left alone; an empty string
// clears the field.
type Details struct {
	FullName *string `json:"full_name,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Location *string `json:"location,omitempty"`
}

// UpdateDetails applies d to the caller's own profile. The role is carried over from the
// stored record, never from the request.
func (s *ProfileStore) UpdateDetails(ctx context.Context, p Principal, d Details) (*models.Profile, error) {
	if p.UserID == "" {
		return nil, apperr.Unauthenticated("error.auth.session_required", "authentication required")
	}
	profile, err := s.Get(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	apply := func(dst **string, v *string) {
		if v == nil {
			return
		}
		if t := strings.TrimSpace(*v); t != "" {
			*dst = &t
		} else {
			*dst = nil
		}
	}
	apply(&profile.FullName, d.FullName)
	apply(&profile.Phone, d.Phone)
	apply(&profile.Location, d.Location)

	if err := s.Upsert(ctx, profile); err != nil {
		return nil, err
	}
	return s.Get(ctx, p.UserID)
}

// Ensure returns the profile for userID, creating a farmer profile when none exists yet
// (accounts created before profiles were provisioned at sign-up).
func (s *ProfileStore) Ensure(ctx context.Context, userID string) (*models.Profile, error) {
	p, err := s.Get(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	p = &models.Profile{ID: userID, Role: models.RoleFarmer}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(p).Error
	if err != nil {
		return nil, apperr.Store("failed to create profile", err)
	}
	// Re-read in case a concurrent sign-in created it first
	return s.Get(ctx, userID)
}
