// Package identity authenticates credentials, issues and revokes sessions, owns the profile
// records and notifies subscribers whenever a user's session changes.
package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/farmkit/agrorent/internal/apperr"
	"github.com/farmkit/agrorent/internal/models"
	"github.com/farmkit/agrorent/internal/utils"
)

// Session is what a successful sign-in hands back to the client
type Session struct {
	ID           string      `json:"id"`
	UserID       string      `json:"user_id"`
	Role         models.Role `json:"role"`
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresAt    time.Time   `json:"expires_at"`
}

// SessionInfo identifies the viewer behind a valid access token
type SessionInfo struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Principal is a verified identity with the role read from its profile. Lifecycle operations
// take a Principal so they can enforce the role themselves.
type Principal struct {
	UserID    string
	SessionID string
	Role      models.Role
}

// Require fails unless the principal is authenticated and holds role
func (p Principal) Require(role models.Role) error {
	if p.UserID == "" {
		return apperr.Unauthenticated("error.auth.session_required", "authentication required")
	}
	if p.Role != role {
		key := "error.auth.farmer_only"
		if role == models.RoleAdmin {
			key = "error.auth.admin_only"
		}
		return apperr.Forbidden(key, "role "+string(role)+" required")
	}
	return nil
}

// SignUpRequest carries the self-service registration form
type SignUpRequest struct {
	Email    string
	Password string
	FullName string
	Phone    string
	Location string
}

// Options configures a Provider
type Options struct {
	Secret                   string
	AccessTTL                time.Duration
	RefreshTTL               time.Duration
	RequireEmailConfirmation bool
	Now                      func() time.Time
}

// Provider is the self-hosted identity service
type Provider struct {
	db       *gorm.DB
	profiles *ProfileStore
	broker   *Broker
	opts     Options
}

// NewProvider wires a provider. broker may be nil when nobody listens for session changes.
func NewProvider(db *gorm.DB, broker *Broker, opts Options) *Provider {
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.AccessTTL == 0 {
		opts.AccessTTL = time.Hour
	}
	if opts.RefreshTTL == 0 {
		opts.RefreshTTL = 30 * 24 * time.Hour
	}
	return &Provider{
		db:       db,
		profiles: NewProfileStore(db),
		broker:   broker,
		opts:     opts,
	}
}

// Profiles exposes the profile store backing this provider
func (p *Provider) Profiles() *ProfileStore { return p.profiles }

// Subscribe registers a session-change callback
func (p *Provider) Subscribe(fn func(Event)) func() {
	if p.broker == nil {
		return func() {}
	}
	return p.broker.Subscribe(fn)
}

// SignUp registers a farmer. The profile is created in the same transaction as the
// credentials. The returned session is nil when the email must be confirmed first.
func (p *Provider) SignUp(ctx context.Context, req SignUpRequest) (*Session, *models.Profile, error) {
	email := models.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, nil, apperr.Validation("error.auth.missing_fields", "email and password are required")
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, nil, apperr.Store("failed to hash password", err)
	}

	user := models.UserAuth{
		Email:          email,
		PasswordHash:   hash,
		EmailConfirmed: !p.opts.RequireEmailConfirmation,
	}
	profile := models.Profile{
		Role:     models.RoleFarmer,
		FullName: optional(req.FullName),
		Phone:    optional(req.Phone),
		Location: optional(req.Location),
	}

	err = p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.UserAuth{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return apperr.Store("failed to check email", err)
		}
		if count > 0 {
			return apperr.Conflict("error.auth.email_taken", "email already registered")
		}
		if err := tx.Create(&user).Error; err != nil {
			return apperr.Store("failed to create user", err)
		}
		profile.ID = user.ID
		if err := tx.Create(&profile).Error; err != nil {
			return apperr.Store("failed to create profile", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if !user.EmailConfirmed {
		return nil, &profile, nil
	}

	session, err := p.openSession(ctx, user.ID, profile.Role)
	if err != nil {
		return nil, &profile, err
	}
	return session, &profile, nil
}

// SignIn checks credentials and opens a new session
func (p *Provider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = models.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperr.Validation("error.auth.missing_fields", "email and password are required")
	}

	var user models.UserAuth
	err := p.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Unauthenticated("error.auth.invalid_credentials", "invalid credentials")
	}
	if err != nil {
		return nil, apperr.Store("failed to load user", err)
	}

	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		return nil, apperr.Unauthenticated("error.auth.invalid_credentials", "invalid credentials")
	}
	if !user.EmailConfirmed {
		return nil, apperr.Unauthenticated("error.auth.email_not_confirmed", "email not confirmed")
	}

	now := p.opts.Now()
	if err := p.db.WithContext(ctx).Model(&user).UpdateColumn("last_login", now).Error; err != nil {
		return nil, apperr.Store("failed to record login", err)
	}

	profile, err := p.profiles.Ensure(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return p.openSession(ctx, user.ID, profile.Role)
}

// SignOut revokes the session behind accessToken. Signing out twice is not an error.
func (p *Provider) SignOut(ctx context.Context, accessToken string) error {
	// An expired access token may still name a live session, so expiry is not checked here
	claims, err := utils.ValidateToken(accessToken, p.opts.Secret, jwt.WithoutClaimsValidation())
	if err != nil {
		return apperr.Unauthenticated("error.auth.session_expired", "invalid token")
	}

	now := p.opts.Now()
	res := p.db.WithContext(ctx).Model(&models.Session{}).
		Where("id = ? AND user_id = ? AND revoked_at IS NULL", claims.SessionID, claims.Subject).
		UpdateColumn("revoked_at", now)
	if res.Error != nil {
		return apperr.Store("failed to revoke session", res.Error)
	}
	if res.RowsAffected > 0 {
		p.publish(EventSignedOut, claims.Subject, claims.SessionID)
	}
	return nil
}

// CurrentSession resolves an access token to its live session
func (p *Provider) CurrentSession(ctx context.Context, accessToken string) (*SessionInfo, error) {
	if accessToken == "" {
		return nil, apperr.Unauthenticated("error.auth.session_required", "no session")
	}
	claims, err := utils.ValidateToken(accessToken, p.opts.Secret, jwt.WithTimeFunc(p.opts.Now))
	if err != nil || claims.Kind != utils.TokenAccess {
		return nil, apperr.Unauthenticated("error.auth.session_expired", "invalid or expired token")
	}

	session, err := p.loadSession(ctx, claims.SessionID, claims.Subject)
	if err != nil {
		return nil, err
	}
	return &SessionInfo{
		SessionID: session.ID,
		UserID:    session.UserID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Verify resolves an access token to a principal whose role comes from the stored profile
func (p *Provider) Verify(ctx context.Context, accessToken string) (Principal, error) {
	info, err := p.CurrentSession(ctx, accessToken)
	if err != nil {
		return Principal{}, err
	}
	profile, err := p.profiles.Get(ctx, info.UserID)
	if err != nil {
		return Principal{}, err
	}
	return Principal{UserID: info.UserID, SessionID: info.SessionID, Role: profile.Role}, nil
}

// Refresh exchanges a refresh token for a new token pair on the same session. Refresh tokens
// are single use: the session moves to a new refresh id and the presented one stops working.
func (p *Provider) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	claims, err := utils.ValidateToken(refreshToken, p.opts.Secret, jwt.WithTimeFunc(p.opts.Now))
	if err != nil || claims.Kind != utils.TokenRefresh || claims.ID == "" {
		return nil, apperr.Unauthenticated("error.auth.session_expired", "invalid or expired refresh token")
	}

	session, err := p.loadSession(ctx, claims.SessionID, claims.Subject)
	if err != nil {
		return nil, err
	}
	profile, err := p.profiles.Get(ctx, session.UserID)
	if err != nil {
		return nil, err
	}

	// Conditional on the presented id so two concurrent refreshes cannot both win
	next := uuid.NewString()
	res := p.db.WithContext(ctx).Model(&models.Session{}).
		Where("id = ? AND refresh_id = ?", session.ID, claims.ID).
		UpdateColumn("refresh_id", next)
	if res.Error != nil {
		return nil, apperr.Store("failed to rotate refresh token", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperr.Unauthenticated("error.auth.session_expired", "refresh token already used")
	}
	session.RefreshID = next

	issued, err := p.issue(session, profile.Role)
	if err != nil {
		return nil, err
	}
	p.publish(EventTokenRefreshed, session.UserID, session.ID)
	return issued, nil
}

// ConfirmEmail marks an account as confirmed so it can sign in
func (p *Provider) ConfirmEmail(ctx context.Context, email string) error {
	res := p.db.WithContext(ctx).Model(&models.UserAuth{}).
		Where("email = ?", models.NormalizeEmail(email)).
		UpdateColumn("email_confirmed", true)
	if res.Error != nil {
		return apperr.Store("failed to confirm email", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("error.auth.invalid_credentials", "no account for "+email)
	}
	return nil
}

// ProvisionAdmin creates a confirmed admin account, or promotes an existing one. This is the
// out-of-band path; self-service sign-up never yields an admin.
func (p *Provider) ProvisionAdmin(ctx context.Context, email, password, fullName string) (*models.Profile, error) {
	email = models.NormalizeEmail(email)
	if email == "" {
		return nil, apperr.Validation("error.auth.missing_fields", "email is required")
	}

	var profile models.Profile
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.UserAuth
		err := tx.Where("email = ?", email).First(&user).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if password == "" {
				return apperr.Validation("error.auth.missing_fields", "password is required for a new admin")
			}
			hash, err := utils.HashPassword(password)
			if err != nil {
				return apperr.Store("failed to hash password", err)
			}
			user = models.UserAuth{Email: email, PasswordHash: hash, EmailConfirmed: true}
			if err := tx.Create(&user).Error; err != nil {
				return apperr.Store("failed to create user", err)
			}
		case err != nil:
			return apperr.Store("failed to load user", err)
		}

		profile = models.Profile{ID: user.ID, Role: models.RoleAdmin, FullName: optional(fullName)}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"role", "updated_at"}),
		}).Create(&profile).Error
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.KindUnknown {
			return nil, apperr.Store("failed to provision admin", err)
		}
		return nil, err
	}
	return &profile, nil
}

func (p *Provider) openSession(ctx context.Context, userID string, role models.Role) (*Session, error) {
	now := p.opts.Now()
	row := models.Session{
		UserID:    userID,
		RefreshID: uuid.NewString(),
		ExpiresAt: now.Add(p.opts.RefreshTTL),
		CreatedAt: now,
	}
	if err := p.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, apperr.Store("failed to open session", err)
	}

	session, err := p.issue(&row, role)
	if err != nil {
		return nil, err
	}
	p.publish(EventSignedIn, userID, row.ID)
	return session, nil
}

func (p *Provider) issue(row *models.Session, role models.Role) (*Session, error) {
	pair, err := utils.GenerateTokens(row.UserID, row.ID, row.RefreshID, string(role), p.opts.Secret, p.opts.Now(), p.opts.AccessTTL, p.opts.RefreshTTL)
	if err != nil {
		return nil, apperr.Store("failed to sign tokens", err)
	}
	return &Session{
		ID:           row.ID,
		UserID:       row.UserID,
		Role:         role,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.AccessExpiresAt,
	}, nil
}

func (p *Provider) loadSession(ctx context.Context, sessionID, userID string) (*models.Session, error) {
	var row models.Session
	err := p.db.WithContext(ctx).Where("id = ? AND user_id = ?", sessionID, userID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Unauthenticated("error.auth.session_expired", "session not found")
	}
	if err != nil {
		return nil, apperr.Store("failed to load session", err)
	}
	if !row.Active(p.opts.Now()) {
		return nil, apperr.Unauthenticated("error.auth.session_expired", "session ended")
	}
	return &row, nil
}

func (p *Provider) publish(t EventType, userID, sessionID string) {
	if p.broker == nil {
		return
	}
	p.broker.Publish(Event{Type: t, UserID: userID, SessionID: sessionID, At: p.opts.Now()})
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
