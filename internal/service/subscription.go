package service

import (
	"context"

	"videotube/internal/model"
	"videotube/internal/repository"
)

// SubscriptionService owns the subscriber→channel edge writes. The profile
// aggregation only ever reads these edges.
type SubscriptionService struct {
	subsRepo repository.SubscriptionRepository
	userRepo repository.UserRepository
}

func NewSubscriptionService(subsRepo repository.SubscriptionRepository, userRepo repository.UserRepository) *SubscriptionService {
	return &SubscriptionService{
		subsRepo: subsRepo,
		userRepo: userRepo,
	}
}

// Toggle subscribes the user to the channel if no edge exists, otherwise
// removes it. Returns the resulting state.
func (s *SubscriptionService) Toggle(ctx context.Context, subscriberID, channelID int64) (bool, error) {
	if subscriberID == channelID {
		return false, model.ErrCannotSubscribeSelf
	}

	if _, err := s.userRepo.GetByID(ctx, channelID); err != nil {
		return false, err
	}

	exists, err := s.subsRepo.Exists(ctx, subscriberID, channelID)
	if err != nil {
		return false, err
	}

	if exists {
		if err := s.subsRepo.Delete(ctx, subscriberID, channelID); err != nil {
			return false, err
		}
		return false, nil
	}

	if _, err := s.subsRepo.Create(ctx, subscriberID, channelID); err != nil {
		return false, err
	}
	return true, nil
}
