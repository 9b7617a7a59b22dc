package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmkit/agrorent/internal/apperr"
)

// Role is the single role claim carried by a profile
type Role string

const (
	RoleFarmer Role = "farmer"
	RoleAdmin  Role = "admin"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	return r == RoleFarmer || r == RoleAdmin
}

// UserAuth holds the credentials known to the identity provider.
// Standardized: Go (PascalCase) -> DB (snake_case) -> JSON (snake_case)
type UserAuth struct {
	ID             string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Email          string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash   string     `gorm:"not null" json:"-"`
	EmailConfirmed bool       `gorm:"default:false" json:"email_confirmed"`
	LastLogin      *time.Time `json:"last_login,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for UserAuth model
func (UserAuth) TableName() string {
	return "user_auths"
}

// BeforeCreate assigns the id and normalizes the email
func (u *UserAuth) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = NormalizeEmail(u.Email)
	return nil
}

// NormalizeEmail lower-cases and trims an address so lookups are case-insensitive
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Profile is the public face of a user: exactly one per user id, carrying the role claim
type Profile struct {
	ID       string  `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Role     Role    `gorm:"type:varchar(16);not null;default:'farmer'" json:"role"`
	FullName *string `json:"full_name,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Location *string `json:"location,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Profile model
func (Profile) TableName() string {
	return "profiles"
}

// Validate rejects profiles with no owner or an unknown role
func (p *Profile) Validate() error {
	if p.ID == "" {
		return apperr.Validation("error.profile.invalid", "profile id is required")
	}
	if !p.Role.Valid() {
		return apperr.Validation("error.auth.invalid_role", "unknown role "+string(p.Role))
	}
	return nil
}

// DisplayName returns the full name or an empty string
func (p *Profile) DisplayName() string {
	if p == nil || p.FullName == nil {
		return ""
	}
	return *p.FullName
}

func (p *Profile) BeforeSave(tx *gorm.DB) error { return p.Validate() }
func (p *Profile) AfterFind(tx *gorm.DB) error  { return p.Validate() }

// Session is a server-side record behind an access token. A session is current while it is
// neither revoked nor expired. RefreshID names the only refresh token the session still accepts.
type Session struct {
	ID        string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID    string     `gorm:"type:varchar(36);not null;index" json:"user_id"`
	RefreshID string     `gorm:"type:varchar(36);not null;default:''" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// TableName specifies the table name for Session model
func (Session) TableName() string {
	return "sessions"
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// Active reports whether the session can still authenticate requests at now
func (s *Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
