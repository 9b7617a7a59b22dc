package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmkit/agrorent/internal/apperr"
)

// MachineStatus is a two-state availability flag
type MachineStatus string

const (
	MachineAvailable   MachineStatus = "Available"
	MachineUnavailable MachineStatus = "Unavailable"
)

// Valid reports whether s is one of the two availability values
func (s MachineStatus) Valid() bool {
	return s == MachineAvailable || s == MachineUnavailable
}

// Toggled returns the opposite status. Any other value is a defect.
func (s MachineStatus) Toggled() (MachineStatus, error) {
	switch s {
	case MachineAvailable:
		return MachineUnavailable, nil
	case MachineUnavailable:
		return MachineAvailable, nil
	default:
		return "", fmt.Errorf("machine status %q is neither Available nor Unavailable", s)
	}
}

// Machine is platform-owned equipment that farmers rent by the day
type Machine struct {
	ID          string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name        string         `gorm:"not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	Location    string         `gorm:"index" json:"location"`
	PricePerDay float64        `gorm:"not null" json:"price_per_day"`
	ImageURL    *string        `json:"image_url,omitempty"`
	Status      MachineStatus  `gorm:"type:varchar(16);not null;default:'Available';index" json:"status"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for Machine model
func (Machine) TableName() string {
	return "machines"
}

// Validate checks the record invariants
func (m *Machine) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return apperr.Validation("error.machine.invalid", "machine name is required")
	}
	if m.PricePerDay <= 0 {
		return apperr.Validation("error.machine.invalid", "price per day must be positive")
	}
	if !m.Status.Valid() {
		return apperr.Validation("error.machine.invalid", fmt.Sprintf("invalid machine status %q", m.Status))
	}
	return nil
}

// Bookable reports whether new bookings may reference this machine
func (m *Machine) Bookable() bool {
	return m.Status == MachineAvailable
}

func (m *Machine) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Status == "" {
		m.Status = MachineAvailable
	}
	return m.Validate()
}

func (m *Machine) BeforeUpdate(tx *gorm.DB) error { return m.Validate() }
func (m *Machine) AfterFind(tx *gorm.DB) error    { return m.Validate() }
