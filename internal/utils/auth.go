package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Token kinds carried in the "typ" claim
const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

// TokenClaims is the payload of access and refresh tokens
type TokenClaims struct {
	SessionID string `json:"sid"`
	Role      string `json:"role,omitempty"`
	Kind      string `json:"typ"`
	jwt.RegisteredClaims
}

// TokenPair is a freshly issued access/refresh couple
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	return string(bytes), err
}

// CheckPasswordHash compares a password with a hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// GenerateTokens signs an access token (short-lived, carries the role) and a refresh token
// (session lifetime) for the same session. refreshID becomes the refresh token's jti.
func GenerateTokens(userID, sessionID, refreshID, role, secret string, now time.Time, accessTTL, refreshTTL time.Duration) (*TokenPair, error) {
	pair := &TokenPair{
		AccessExpiresAt:  now.Add(accessTTL),
		RefreshExpiresAt: now.Add(refreshTTL),
	}

	access := TokenClaims{
		SessionID: sessionID,
		Role:      role,
		Kind:      TokenAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(pair.AccessExpiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, access)
	accessToken, err := token.SignedString([]byte(secret))
	if err != nil {
		return nil, err
	}

	refresh := TokenClaims{
		SessionID: sessionID,
		Kind:      TokenRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        refreshID,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(pair.RefreshExpiresAt),
		},
	}
	refreshTokenObj := jwt.NewWithClaims(jwt.SigningMethodHS256, refresh)
	refreshToken, err := refreshTokenObj.SignedString([]byte(secret))
	if err != nil {
		return nil, err
	}

	pair.AccessToken = accessToken
	pair.RefreshToken = refreshToken
	return pair, nil
}

// ValidateToken parses and validates a token signed with secret
func ValidateToken(tokenString string, secret string, opts ...jwt.ParserOption) (*TokenClaims, error) {
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		return nil, err
	}

	if !token.Valid || claims.Subject == "" || claims.SessionID == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
