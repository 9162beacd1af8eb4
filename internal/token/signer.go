package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when a token fails signature or expiry checks.
var ErrInvalidToken = errors.New("invalid token")

// Claims embeds the registered claims plus the subject user id.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"user_id"`
}

// Signer issues and verifies HS256 tokens. Access and refresh tokens use
// independent secrets and independent lifetimes.
type Signer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewSigner(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *Signer {
	return &Signer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func (s *Signer) GenerateAccessToken(userID int64) (string, error) {
	return s.sign(userID, s.accessSecret, s.accessTTL)
}

func (s *Signer) GenerateRefreshToken(userID int64) (string, error) {
	return s.sign(userID, s.refreshSecret, s.refreshTTL)
}

// VerifyAccessToken returns the subject user id of a valid access token.
func (s *Signer) VerifyAccessToken(raw string) (int64, error) {
	return s.verify(raw, s.accessSecret)
}

// VerifyRefreshToken returns the subject user id of a valid refresh token.
func (s *Signer) VerifyRefreshToken(raw string) (int64, error) {
	return s.verify(raw, s.refreshSecret)
}

// AccessTokenTTL is exposed for cookie max-age computation.
func (s *Signer) AccessTokenTTL() time.Duration { return s.accessTTL }

// RefreshTokenTTL is exposed for cookie max-age computation.
func (s *Signer) RefreshTokenTTL() time.Duration { return s.refreshTTL }

func (s *Signer) sign(userID int64, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: userID,
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

func (s *Signer) verify(raw string, secret []byte) (int64, error) {
	claims := &Claims{}

	parsed, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return 0, ErrInvalidToken
	}

	return claims.UserID, nil
}
