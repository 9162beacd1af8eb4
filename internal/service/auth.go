package service

import (
	"context"
	"fmt"

	"videotube/internal/model"
	"videotube/internal/repository"
	"videotube/internal/token"
)

// AuthService owns the token-issuance and rotation state machine. The only
// persisted credential is the refresh token, stored in the user's single
// slot: issuing a new one invalidates the previous one server-side.
type AuthService struct {
	userRepo repository.UserRepository
	signer   *token.Signer
}

func NewAuthService(userRepo repository.UserRepository, signer *token.Signer) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		signer:   signer,
	}
}

// GenerateTokenPair issues both tokens and persists the refresh half,
// overwriting whatever the slot held. Used by login, where replacing a
// previous session is the intended behavior. Failures are reduced to a
// generic error so signing and store internals never leak to callers.
func (s *AuthService) GenerateTokenPair(ctx context.Context, userID int64) (*model.TokenPair, error) {
	accessToken, err := s.signer.GenerateAccessToken(userID)
	if err != nil {
		return nil, model.ErrTokenGeneration
	}

	refreshToken, err := s.signer.GenerateRefreshToken(userID)
	if err != nil {
		return nil, model.ErrTokenGeneration
	}

	if err := s.userRepo.SetRefreshToken(ctx, userID, &refreshToken); err != nil {
		return nil, model.ErrTokenGeneration
	}

	return &model.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Refresh validates the incoming refresh token and rotates the pair. A
// refresh token is single-use: the stored slot must hold exactly this value,
// and the swap to the new value is guarded on it, so a concurrent refresh
// racing on the same token leaves at most one winner. Every failure in the
// path surfaces as ErrInvalidRefreshToken so the caller cannot tell whether
// the token was malformed, expired, replayed or orphaned.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*model.TokenPair, error) {
	if refreshToken == "" {
		return nil, model.ErrInvalidRefreshToken
	}

	userID, err := s.signer.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidRefreshToken, err)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, model.ErrInvalidRefreshToken
	}

	if user.RefreshToken == nil || *user.RefreshToken != refreshToken {
		return nil, model.ErrInvalidRefreshToken
	}

	newAccess, err := s.signer.GenerateAccessToken(userID)
	if err != nil {
		return nil, model.ErrInvalidRefreshToken
	}

	newRefresh, err := s.signer.GenerateRefreshToken(userID)
	if err != nil {
		return nil, model.ErrInvalidRefreshToken
	}

	rotated, err := s.userRepo.RotateRefreshToken(ctx, userID, refreshToken, newRefresh)
	if err != nil || !rotated {
		return nil, model.ErrInvalidRefreshToken
	}

	return &model.TokenPair{
		AccessToken:  newAccess,
		RefreshToken: newRefresh,
	}, nil
}

// Logout clears the refresh-token slot unconditionally. Idempotent: clearing
// an already-empty slot is the same success.
func (s *AuthService) Logout(ctx context.Context, userID int64) error {
	if err := s.userRepo.SetRefreshToken(ctx, userID, nil); err != nil {
		return fmt.Errorf("failed to clear refresh token: %w", err)
	}
	return nil
}
