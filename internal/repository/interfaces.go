package repository

import (
	"context"

	"videotube/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	// GetByEmailOrUsername matches either field, mirroring login by
	// whichever identifier the caller supplied.
	GetByEmailOrUsername(ctx context.Context, email, username string) (*model.User, error)
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error)

	// SetRefreshToken overwrites the single refresh-token slot. Pass nil to
	// clear it (logout). Login overwrites whatever was there before.
	SetRefreshToken(ctx context.Context, id int64, refreshToken *string) error

	// RotateRefreshToken replaces the slot only if it still holds current.
	// Returns false when another request rotated (or cleared) it first; the
	// caller must treat that exactly like a replayed token.
	RotateRefreshToken(ctx context.Context, id int64, current, next string) (bool, error)

	UpdatePassword(ctx context.Context, id int64, passwordHashed string) error
	UpdateAccountDetails(ctx context.Context, id int64, fullName, email string) error
	UpdateAvatar(ctx context.Context, id int64, avatarURL string) error
	UpdateCoverImage(ctx context.Context, id int64, coverImageURL string) error
}

type SubscriptionRepository interface {
	// Create inserts the edge; returns false if it already existed.
	Create(ctx context.Context, subscriberID, channelID int64) (bool, error)
	Delete(ctx context.Context, subscriberID, channelID int64) error
	Exists(ctx context.Context, subscriberID, channelID int64) (bool, error)
	CountSubscribers(ctx context.Context, channelID int64) (int, error)
	CountSubscriptions(ctx context.Context, subscriberID int64) (int, error)
}
