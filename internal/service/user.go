package service

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"videotube/internal/model"
	"videotube/internal/repository"
)

// UserService handles business logic for user accounts and the
// viewer-relative channel profile.
type UserService struct {
	repo     repository.UserRepository
	subsRepo repository.SubscriptionRepository
}

func NewUserService(repo repository.UserRepository, subsRepo repository.SubscriptionRepository) *UserService {
	return &UserService{
		repo:     repo,
		subsRepo: subsRepo,
	}
}

// Register creates a new user account. The avatar URL must already be
// uploaded by the caller; a missing cover image is fine. The created record
// is re-read so the returned value reflects exactly what was persisted.
func (s *UserService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	fullName := strings.TrimSpace(req.FullName)
	email := strings.TrimSpace(req.Email)
	username := strings.ToLower(strings.TrimSpace(req.Username))

	if fullName == "" || email == "" || username == "" || strings.TrimSpace(req.Password) == "" {
		return nil, model.ErrFieldsRequired
	}

	exists, err := s.repo.ExistsByEmailOrUsername(ctx, email, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check user existence: %w", err)
	}
	if exists {
		return nil, model.ErrUserExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:       username,
		Email:          email,
		FullName:       fullName,
		PasswordHashed: string(hashedPassword),
		AvatarURL:      req.AvatarURL,
		CoverImageURL:  req.CoverImageURL,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	created, err := s.repo.GetByID(ctx, user.ID)
	if err != nil {
		return nil, model.ErrRegistrationIncomplete
	}

	return created, nil
}

// Login resolves the identifier (email or username, whichever was given)
// and checks the password. Not-found and wrong-password stay distinct here;
// collapsing them for callers is a transport decision.
func (s *UserService) Login(ctx context.Context, req *model.LoginRequest) (*model.User, error) {
	email := strings.TrimSpace(req.Email)
	username := strings.ToLower(strings.TrimSpace(req.Username))

	if email == "" && username == "" {
		return nil, model.ErrIdentifierRequired
	}

	user, err := s.repo.GetByEmailOrUsername(ctx, email, username)
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHashed), []byte(req.Password)); err != nil {
		return nil, model.ErrInvalidCredentials
	}

	return user, nil
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return s.repo.GetByID(ctx, id)
}

// ChangePassword verifies the old password before storing a new hash. The
// refresh-token slot is left untouched: existing sessions survive a
// password change.
func (s *UserService) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	if strings.TrimSpace(oldPassword) == "" || strings.TrimSpace(newPassword) == "" {
		return model.ErrFieldsRequired
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHashed), []byte(oldPassword)); err != nil {
		return model.ErrWrongPassword
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.repo.UpdatePassword(ctx, userID, string(hashed)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

// UpdateAccount writes the two account detail fields and returns the
// refreshed record.
func (s *UserService) UpdateAccount(ctx context.Context, userID int64, fullName, email string) (*model.User, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.TrimSpace(email)
	if fullName == "" || email == "" {
		return nil, model.ErrFieldsRequired
	}

	if err := s.repo.UpdateAccountDetails(ctx, userID, fullName, email); err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, userID)
}

// UpdateAvatar writes only the avatar URL.
func (s *UserService) UpdateAvatar(ctx context.Context, userID int64, avatarURL string) (*model.User, error) {
	if err := s.repo.UpdateAvatar(ctx, userID, avatarURL); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, userID)
}

// UpdateCoverImage writes only the cover image URL.
func (s *UserService) UpdateCoverImage(ctx context.Context, userID int64, coverImageURL string) (*model.User, error) {
	if err := s.repo.UpdateCoverImage(ctx, userID, coverImageURL); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, userID)
}

// GetChannelProfile computes the public profile of a channel relative to an
// optional viewer.
//
// Two counts plus one existence check instead of a single aggregation join:
// the queries stay trivial and any of them failing fails the whole profile.
func (s *UserService) GetChannelProfile(ctx context.Context, username string, viewerID *int64) (*model.ChannelProfile, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, model.ErrUsernameRequired
	}

	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	subscribers, err := s.subsRepo.CountSubscribers(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count subscribers: %w", err)
	}

	subscribedTo, err := s.subsRepo.CountSubscriptions(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count subscriptions: %w", err)
	}

	profile := &model.ChannelProfile{
		FullName:                  user.FullName,
		Username:                  user.Username,
		Email:                     user.Email,
		AvatarURL:                 user.AvatarURL,
		CoverImageURL:             user.CoverImageURL,
		SubscribersCount:          subscribers,
		ChannelsSubscribedToCount: subscribedTo,
		IsSubscribed:              false,
	}

	if viewerID != nil {
		isSubscribed, err := s.subsRepo.Exists(ctx, *viewerID, user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check subscription: %w", err)
		}
		profile.IsSubscribed = isSubscribed
	}

	return profile, nil
}
