// Package machine manages the rentable equipment catalogue.
package machine

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/farmkit/agrorent/internal/apperr"
	"github.com/farmkit/agrorent/internal/identity"
	"github.com/farmkit/agrorent/internal/models"
)

// Catalog reads and edits machines
type Catalog struct {
	db *gorm.DB
}

func NewCatalog(db *gorm.DB) *Catalog {
	return &Catalog{db: db}
}

// Input is the admin create form
type Input struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Location    string               `json:"location"`
	PricePerDay float64              `json:"price_per_day"`
	ImageURL    *string              `json:"image_url,omitempty"`
	Status      models.MachineStatus `json:"status,omitempty"`
}

// Patch carries the fields an admin edit may change. Nil fields are left alone.
type Patch struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Location    *string  `json:"location,omitempty"`
	PricePerDay *float64 `json:"price_per_day,omitempty"`
	ImageURL    *string  `json:"image_url,omitempty"`
}

// Offer is a catalogue entry as farmers see it. Unavailable machines stay listed with
// Bookable false so the page can hide the Book button.
type Offer struct {
	models.Machine
	Bookable bool `json:"bookable"`
}

// Browse lists every machine that has not been deleted, by name
func (c *Catalog) Browse(ctx context.Context) ([]Offer, error) {
	var machines []models.Machine
	err := c.db.WithContext(ctx).
		Order("name ASC, id ASC").
		Find(&machines).Error
	if err != nil {
		return nil, apperr.Store("failed to list machines", err)
	}
	out := make([]Offer, len(machines))
	for i := range machines {
		out[i] = Offer{Machine: machines[i], Bookable: machines[i].Bookable()}
	}
	return out, nil
}

// Get returns one machine. Deleted machines are not found.
func (c *Catalog) Get(ctx context.Context, id string) (*models.Machine, error) {
	return get(c.db.WithContext(ctx), id)
}

// List returns every machine for the admin table, newest first
func (c *Catalog) List(ctx context.Context, p identity.Principal) ([]models.Machine, error) {
	if err := p.Require(models.RoleAdmin); err != nil {
		return nil, err
	}
	var out []models.Machine
	if err := c.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&out).Error; err != nil {
		return nil, apperr.Store("failed to list machines", err)
	}
	return out, nil
}

func (c *Catalog) Create(ctx context.Context, p identity.Principal, in Input) (*models.Machine, error) {
	if err := p.Require(models.RoleAdmin); err != nil {
		return nil, err
	}
	m := &models.Machine{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Location:    strings.TrimSpace(in.Location),
		PricePerDay: in.PricePerDay,
		ImageURL:    in.ImageURL,
		Status:      in.Status,
	}
	if m.Status == "" {
		m.Status = models.MachineAvailable
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if err := c.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, apperr.Store("failed to create machine", err)
	}
	return m, nil
}

// Patch applies an admin edit. Status changes go through ToggleStatus.
func (c *Catalog) Patch(ctx context.Context, p identity.Principal, id string, in Patch) (*models.Machine, error) {
	if err := p.Require(models.RoleAdmin); err != nil {
		return nil, err
	}

	var out *models.Machine
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := get(tx, id)
		if err != nil {
			return err
		}
		if in.Name != nil {
			m.Name = strings.TrimSpace(*in.Name)
		}
		if in.Description != nil {
			m.Description = *in.Description
		}
		if in.Location != nil {
			m.Location = strings.TrimSpace(*in.Location)
		}
		if in.PricePerDay != nil {
			m.PricePerDay = *in.PricePerDay
		}
		if in.ImageURL != nil {
			m.ImageURL = in.ImageURL
		}
		if err := m.Validate(); err != nil {
			return err
		}
		if err := tx.Save(m).Error; err != nil {
			return apperr.Store("failed to update machine", err)
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete soft-deletes a machine. Its bookings keep resolving the name.
func (c *Catalog) Delete(ctx context.Context, p identity.Principal, id string) error {
	if err := p.Require(models.RoleAdmin); err != nil {
		return err
	}
	res := c.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Machine{})
	if res.Error != nil {
		return apperr.Store("failed to delete machine", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("error.machine.not_found", "machine not found")
	}
	return nil
}

// ToggleStatus flips Available and Unavailable. The update is conditional on the status that
// was read, so two concurrent toggles cannot both apply to the same value.
func (c *Catalog) ToggleStatus(ctx context.Context, p identity.Principal, id string) (*models.Machine, error) {
	if err := p.Require(models.RoleAdmin); err != nil {
		return nil, err
	}

	var out *models.Machine
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := get(tx, id)
		if err != nil {
			return err
		}
		next, err := m.Status.Toggled()
		if err != nil {
			return apperr.Validation("error.machine.invalid", err.Error())
		}

		res := tx.Model(&models.Machine{}).
			Where("id = ? AND status = ?", id, m.Status).
			UpdateColumn("status", next)
		if res.Error != nil {
			return apperr.Store("failed to toggle machine", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict("error.machine.invalid", "machine status changed concurrently")
		}

		out, err = get(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func get(db *gorm.DB, id string) (*models.Machine, error) {
	var m models.Machine
	err := db.Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("error.machine.not_found", "machine not found")
	}
	if err != nil {
		if apperr.KindOf(err) != apperr.KindUnknown {
			return nil, err
		}
		return nil, apperr.Store("failed to load machine", err)
	}
	return &m, nil
}
