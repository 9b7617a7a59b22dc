package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"gorm.io/gorm"

	"github.com/farmkit/agrorent/internal/apperr"
)

// ListingType classifies marketplace produce
type ListingType string

const (
	ListingCrop  ListingType = "Crop"
	ListingSeed  ListingType = "Seed"
	ListingPlant ListingType = "Plant"
)

// Valid reports whether t is a known listing type
func (t ListingType) Valid() bool {
	return t == ListingCrop || t == ListingSeed || t == ListingPlant
}

// ListingStatus tracks a listing's visibility. Deletion is a flip to Removed.
type ListingStatus string

const (
	ListingActive  ListingStatus = "Active"
	ListingRemoved ListingStatus = "Removed"
	ListingSold    ListingStatus = "Sold" // reserved
)

// Valid reports whether s is a known listing status
func (s ListingStatus) Valid() bool {
	return s == ListingActive || s == ListingRemoved || s == ListingSold
}

// Listing is a farmer's marketplace offer. Price and quantity are free text ("Rs. 40/kg", "2 quintal").
type Listing struct {
	ID          string        `gorm:"primaryKey;type:varchar(36)" json:"id"`
	FarmerID    string        `gorm:"type:varchar(36);not null;index" json:"farmer_id"`
	Name        string        `gorm:"not null" json:"name"`
	Type        ListingType   `gorm:"type:varchar(16);not null" json:"type"`
	Price       string        `gorm:"not null" json:"price"`
	Quantity    string        `gorm:"not null" json:"quantity"`
	Location    string        `gorm:"not null" json:"location"`
	Description *string       `gorm:"type:text" json:"description,omitempty"`
	Status      ListingStatus `gorm:"type:varchar(16);not null;default:'Active';index" json:"status"`
	NameKey     string        `gorm:"type:text;not null;default:''" json:"-"`
	LocationKey string        `gorm:"type:text;not null;default:''" json:"-"`
	CreatedAt   time.Time     `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// TableName specifies the table name for Listing model
func (Listing) TableName() string {
	return "listings"
}

// Validate checks the record invariants
func (l *Listing) Validate() error {
	if l.FarmerID == "" {
		return apperr.Validation("error.listing.invalid", "listing must belong to a farmer")
	}
	for field, value := range map[string]string{
		"name":     l.Name,
		"price":    l.Price,
		"quantity": l.Quantity,
		"location": l.Location,
	} {
		if strings.TrimSpace(value) == "" {
			return apperr.Validation("error.listing.invalid", field+" is required")
		}
	}
	if !l.Type.Valid() {
		return apperr.Validation("error.listing.invalid", fmt.Sprintf("invalid listing type %q", l.Type))
	}
	if !l.Status.Valid() {
		return apperr.Validation("error.listing.invalid", fmt.Sprintf("invalid listing status %q", l.Status))
	}
	return nil
}

// SearchKey case-folds s for substring search. Folding happens here rather than in SQL so
// non-ASCII letters match the same way on every driver.
func SearchKey(s string) string {
	return cases.Fold().String(s)
}

// FillSearchKeys derives NameKey and LocationKey from the displayed values
func (l *Listing) FillSearchKeys() {
	l.NameKey = SearchKey(l.Name)
	l.LocationKey = SearchKey(l.Location)
}

func (l *Listing) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	l.FillSearchKeys()
	if l.Status == "" {
		l.Status = ListingActive
	}
	return l.Validate()
}

func (l *Listing) AfterFind(tx *gorm.DB) error { return l.Validate() }
