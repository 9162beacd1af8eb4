package service

import (
	"context"
	"sync"

	"videotube/internal/model"
)

// fakeUserRepo is an in-memory UserRepository. It keeps real state (so the
// refresh-slot rotation semantics can be exercised end to end) and lets
// individual tests override behavior through function fields, the same way
// the per-method mocks do.
type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*model.User

	getByIDFn  func(ctx context.Context, id int64) (*model.User, error)
	existsFn   func(ctx context.Context, email, username string) (bool, error)
	rotateFn   func(ctx context.Context, id int64, current, next string) (bool, error)
	setTokenFn func(ctx context.Context, id int64, refreshToken *string) error

	createCalls int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*model.User)}
}

func copyUser(u *model.User) *model.User {
	c := *u
	if u.RefreshToken != nil {
		token := *u.RefreshToken
		c.RefreshToken = &token
	}
	if u.CoverImageURL != nil {
		url := *u.CoverImageURL
		c.CoverImageURL = &url
	}
	return &c
}

func (f *fakeUserRepo) Create(ctx context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	f.nextID++
	u.ID = f.nextID
	f.users[u.ID] = copyUser(u)
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return copyUser(u), nil
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			return copyUser(u), nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (f *fakeUserRepo) GetByEmailOrUsername(ctx context.Context, email, username string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if (email != "" && u.Email == email) || (username != "" && u.Username == username) {
			return copyUser(u), nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (f *fakeUserRepo) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	if f.existsFn != nil {
		return f.existsFn(ctx, email, username)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email || u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserRepo) SetRefreshToken(ctx context.Context, id int64, refreshToken *string) error {
	if f.setTokenFn != nil {
		return f.setTokenFn(ctx, id, refreshToken)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return model.ErrUserNotFound
	}
	if refreshToken == nil {
		u.RefreshToken = nil
	} else {
		token := *refreshToken
		u.RefreshToken = &token
	}
	return nil
}

// RotateRefreshToken mirrors the guarded UPDATE: the swap only happens when
// the slot still holds current.
func (f *fakeUserRepo) RotateRefreshToken(ctx context.Context, id int64, current, next string) (bool, error) {
	if f.rotateFn != nil {
		return f.rotateFn(ctx, id, current, next)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return false, nil
	}
	if u.RefreshToken == nil || *u.RefreshToken != current {
		return false, nil
	}
	token := next
	u.RefreshToken = &token
	return true, nil
}

func (f *fakeUserRepo) UpdatePassword(ctx context.Context, id int64, passwordHashed string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return model.ErrUserNotFound
	}
	u.PasswordHashed = passwordHashed
	return nil
}

func (f *fakeUserRepo) UpdateAccountDetails(ctx context.Context, id int64, fullName, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return model.ErrUserNotFound
	}
	u.FullName = fullName
	u.Email = email
	return nil
}

func (f *fakeUserRepo) UpdateAvatar(ctx context.Context, id int64, avatarURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return model.ErrUserNotFound
	}
	u.AvatarURL = avatarURL
	return nil
}

func (f *fakeUserRepo) UpdateCoverImage(ctx context.Context, id int64, coverImageURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return model.ErrUserNotFound
	}
	u.CoverImageURL = &coverImageURL
	return nil
}

// storedRefreshToken reads the slot directly, for assertions.
func (f *fakeUserRepo) storedRefreshToken(id int64) *string {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok || u.RefreshToken == nil {
		return nil
	}
	token := *u.RefreshToken
	return &token
}

// fakeSubscriptionRepo is an in-memory edge set.
type fakeSubscriptionRepo struct {
	mu    sync.Mutex
	edges map[[2]int64]bool

	existsFn func(ctx context.Context, subscriberID, channelID int64) (bool, error)
}

func newFakeSubscriptionRepo() *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{edges: make(map[[2]int64]bool)}
}

func (f *fakeSubscriptionRepo) Create(ctx context.Context, subscriberID, channelID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := [2]int64{subscriberID, channelID}
	if f.edges[key] {
		return false, nil
	}
	f.edges[key] = true
	return true, nil
}

func (f *fakeSubscriptionRepo) Delete(ctx context.Context, subscriberID, channelID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.edges, [2]int64{subscriberID, channelID})
	return nil
}

func (f *fakeSubscriptionRepo) Exists(ctx context.Context, subscriberID, channelID int64) (bool, error) {
	if f.existsFn != nil {
		return f.existsFn(ctx, subscriberID, channelID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.edges[[2]int64{subscriberID, channelID}], nil
}

func (f *fakeSubscriptionRepo) CountSubscribers(ctx context.Context, channelID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for key := range f.edges {
		if key[1] == channelID {
			count++
		}
	}
	return count, nil
}

func (f *fakeSubscriptionRepo) CountSubscriptions(ctx context.Context, subscriberID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for key := range f.edges {
		if key[0] == subscriberID {
			count++
		}
	}
	return count, nil
}
