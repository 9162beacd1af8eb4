package model

import "errors"

// Token errors. Refresh deliberately collapses every failure cause (bad
// signature, expired, unknown user, rotated-away slot) into
// ErrInvalidRefreshToken so callers cannot tell why a refresh was rejected.
var (
	ErrInvalidRefreshToken = errors.New("refresh token is expired, used or mismatched")

	// ErrTokenGeneration hides signing/persistence failures behind a generic
	// message. The underlying error is never surfaced to callers.
	ErrTokenGeneration = errors.New("something went wrong while generating tokens")
)

// Token API error codes (used in HTTP responses)
const (
	CodeTokenExpired = "TOKEN_EXPIRED"
	CodeTokenInvalid = "TOKEN_INVALID"
)

// TokenPair is returned after login and refresh. Only the refresh half is
// ever persisted, in the user's single refresh-token slot.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// LoginResponse is returned after successful login
type LoginResponse struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// RefreshRequest is the request body for POST /auth/refresh. The handler
// prefers the refreshToken cookie and falls back to this body.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}
