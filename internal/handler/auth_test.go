package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"videotube/internal/config"
	"videotube/internal/model"
	"videotube/internal/service"
	"videotube/internal/token"
	"videotube/internal/transport/http/middleware"
)

// memUserRepo is a minimal in-memory UserRepository for handler tests. The
// refresh-slot swap keeps the same conditional semantics as the SQL guard.
type memUserRepo struct {
	mu    sync.Mutex
	users map[int64]*model.User
	next  int64
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[int64]*model.User)}
}

func (m *memUserRepo) Create(ctx context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	u.ID = m.next
	clone := *u
	m.users[u.ID] = &clone
	return nil
}

func (m *memUserRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (m *memUserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return m.GetByEmailOrUsername(ctx, "", username)
}

func (m *memUserRepo) GetByEmailOrUsername(ctx context.Context, email, username string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if (email != "" && u.Email == email) || (username != "" && u.Username == username) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (m *memUserRepo) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	_, err := m.GetByEmailOrUsername(ctx, email, username)
	return err == nil, nil
}

func (m *memUserRepo) SetRefreshToken(ctx context.Context, id int64, refreshToken *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return model.ErrUserNotFound
	}
	u.RefreshToken = refreshToken
	return nil
}

func (m *memUserRepo) RotateRefreshToken(ctx context.Context, id int64, current, next string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok || u.RefreshToken == nil || *u.RefreshToken != current {
		return false, nil
	}
	u.RefreshToken = &next
	return true, nil
}

func (m *memUserRepo) UpdatePassword(ctx context.Context, id int64, passwordHashed string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		u.PasswordHashed = passwordHashed
	}
	return nil
}

func (m *memUserRepo) UpdateAccountDetails(ctx context.Context, id int64, fullName, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		u.FullName = fullName
		u.Email = email
	}
	return nil
}

func (m *memUserRepo) UpdateAvatar(ctx context.Context, id int64, avatarURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		u.AvatarURL = avatarURL
	}
	return nil
}

func (m *memUserRepo) UpdateCoverImage(ctx context.Context, id int64, coverImageURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		u.CoverImageURL = &coverImageURL
	}
	return nil
}

// memSubsRepo satisfies the SubscriptionRepository the user service needs;
// the auth endpoints never touch it.
type memSubsRepo struct{}

func (memSubsRepo) Create(ctx context.Context, subscriberID, channelID int64) (bool, error) {
	return true, nil
}
func (memSubsRepo) Delete(ctx context.Context, subscriberID, channelID int64) error { return nil }
func (memSubsRepo) Exists(ctx context.Context, subscriberID, channelID int64) (bool, error) {
	return false, nil
}
func (memSubsRepo) CountSubscribers(ctx context.Context, channelID int64) (int, error) { return 0, nil }
func (memSubsRepo) CountSubscriptions(ctx context.Context, subscriberID int64) (int, error) {
	return 0, nil
}

func newTestAuthHandler(t *testing.T) (*AuthHandler, *memUserRepo) {
	t.Helper()

	repo := newMemUserRepo()
	signer := token.NewSigner("access-secret", "refresh-secret", 15*time.Minute, 240*time.Hour)
	cfg := &config.Config{AccessTokenMaxAge: 900, RefreshTokenMaxAge: 864000}

	userSvc := service.NewUserService(repo, memSubsRepo{})
	authSvc := service.NewAuthService(repo, signer)

	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	if err := repo.Create(context.Background(), &model.User{
		Username:       "alice",
		Email:          "alice@example.com",
		FullName:       "Alice Example",
		PasswordHashed: string(hash),
		AvatarURL:      "https://cdn.example.com/avatars/a.jpg",
	}); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	return NewAuthHandler(userSvc, authSvc, nil, cfg), repo
}

func doLogin(t *testing.T, h *AuthHandler) *httptest.ResponseRecorder {
	t.Helper()

	body, _ := json.Marshal(model.LoginRequest{Username: "alice", Password: "secret123"})
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Login(rec, req)
	return rec
}

func cookieByName(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestAuthHandler_Login_SetsSecureCookies(t *testing.T) {
	h, _ := newTestAuthHandler(t)

	rec := doLogin(t, h)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	cookies := rec.Result().Cookies()
	for _, name := range []string{"accessToken", "refreshToken"} {
		c := cookieByName(cookies, name)
		if c == nil {
			t.Fatalf("cookie %q not set", name)
		}
		if c.Value == "" {
			t.Errorf("cookie %q is empty", name)
		}
		if !c.HttpOnly || !c.Secure {
			t.Errorf("cookie %q must be httpOnly and secure, got HttpOnly=%v Secure=%v", name, c.HttpOnly, c.Secure)
		}
	}

	var resp model.LoginResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" || resp.User == nil {
		t.Fatal("response should carry both tokens and the user projection")
	}
}

func TestAuthHandler_Login_NeverLeaksPasswordHash(t *testing.T) {
	h, _ := newTestAuthHandler(t)

	rec := doLogin(t, h)
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("response body leaks password material: %s", rec.Body.String())
	}
}

func TestAuthHandler_Login_Failures(t *testing.T) {
	tests := []struct {
		name       string
		body       model.LoginRequest
		wantStatus int
	}{
		{
			name:       "no identifier",
			body:       model.LoginRequest{Password: "secret123"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing password",
			body:       model.LoginRequest{Username: "alice"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown user",
			body:       model.LoginRequest{Username: "ghost", Password: "secret123"},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "wrong password",
			body:       model.LoginRequest{Username: "alice", Password: "nope"},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestAuthHandler(t)

			body, _ := json.Marshal(tt.body)
			req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
			rec := httptest.NewRecorder()
			h.Login(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d; body: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestAuthHandler_Refresh_FromCookie(t *testing.T) {
	h, _ := newTestAuthHandler(t)

	loginRec := doLogin(t, h)
	refreshCookie := cookieByName(loginRec.Result().Cookies(), "refreshToken")
	if refreshCookie == nil {
		t.Fatal("login did not set refreshToken cookie")
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(refreshCookie)
	rec := httptest.NewRecorder()
	h.Refresh(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	var pair model.TokenPair
	if err := json.NewDecoder(rec.Body).Decode(&pair); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if pair.RefreshToken == refreshCookie.Value {
		t.Fatal("refresh must rotate the refresh token")
	}

	// Replaying the pre-rotation cookie is rejected.
	replay := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	replay.AddCookie(refreshCookie)
	replayRec := httptest.NewRecorder()
	h.Refresh(replayRec, replay)

	if replayRec.Code != http.StatusUnauthorized {
		t.Fatalf("replay status = %d, want 401", replayRec.Code)
	}
}

func TestAuthHandler_Refresh_MissingToken(t *testing.T) {
	h, _ := newTestAuthHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", strings.NewReader("{}"))
	rec := httptest.NewRecorder()
	h.Refresh(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

// fakeUploader stands in for the media service and records calls.
type fakeUploader struct {
	avatarErr   error
	coverErr    error
	avatarCalls int
	coverCalls  int
}

func (f *fakeUploader) UploadAvatar(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*model.UploadResult, error) {
	f.avatarCalls++
	if f.avatarErr != nil {
		return nil, f.avatarErr
	}
	return &model.UploadResult{URL: "https://cdn.example.com/avatars/new.jpg", Key: "avatars/new.jpg"}, nil
}

func (f *fakeUploader) UploadCoverImage(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*model.UploadResult, error) {
	f.coverCalls++
	if f.coverErr != nil {
		return nil, f.coverErr
	}
	return &model.UploadResult{URL: "https://cdn.example.com/covers/new.jpg", Key: "covers/new.jpg"}, nil
}

func newRegisterTestHandler(t *testing.T, uploader MediaUploader) (*AuthHandler, *memUserRepo) {
	t.Helper()

	repo := newMemUserRepo()
	signer := token.NewSigner("access-secret", "refresh-secret", 15*time.Minute, 240*time.Hour)
	cfg := &config.Config{AccessTokenMaxAge: 900, RefreshTokenMaxAge: 864000}

	userSvc := service.NewUserService(repo, memSubsRepo{})
	authSvc := service.NewAuthService(repo, signer)

	return NewAuthHandler(userSvc, authSvc, uploader, cfg), repo
}

func registerForm() map[string]string {
	return map[string]string{
		"full_name": "Bob Example",
		"email":     "bob@example.com",
		"password":  "secret123",
		"username":  "Bob",
	}
}

func doRegister(t *testing.T, h *AuthHandler, fields map[string]string, files ...string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			t.Fatalf("write field %q: %v", name, err)
		}
	}
	for _, name := range files {
		fw, err := mw.CreateFormFile(name, name+".jpg")
		if err != nil {
			t.Fatalf("create file part %q: %v", name, err)
		}
		if _, err := fw.Write([]byte("image bytes")); err != nil {
			t.Fatalf("write file part %q: %v", name, err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/register", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.Register(rec, req)
	return rec
}

func TestAuthHandler_Register_CoverUploadFailureIsNonFatal(t *testing.T) {
	uploader := &fakeUploader{coverErr: errors.New("bucket unavailable")}
	h, _ := newRegisterTestHandler(t, uploader)

	rec := doRegister(t, h, registerForm(), "avatar", "cover_image")
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body: %s", rec.Code, rec.Body.String())
	}
	if uploader.coverCalls != 1 {
		t.Fatalf("cover upload called %d times, want 1", uploader.coverCalls)
	}

	var user model.User
	if err := json.NewDecoder(rec.Body).Decode(&user); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if user.CoverImageURL != nil {
		t.Errorf("cover image URL = %v, want nil when the cover upload fails", *user.CoverImageURL)
	}
	if user.AvatarURL == "" {
		t.Error("avatar URL should be set")
	}
}

func TestAuthHandler_Register_AvatarUploadFailureIsFatal(t *testing.T) {
	tests := []struct {
		name       string
		avatarErr  error
		wantStatus int
	}{
		{"storage failure", errors.New("bucket unavailable"), http.StatusInternalServerError},
		{"too large", model.ErrFileTooLarge, http.StatusBadRequest},
		{"wrong type", model.ErrInvalidImageType, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uploader := &fakeUploader{avatarErr: tt.avatarErr}
			h, repo := newRegisterTestHandler(t, uploader)

			rec := doRegister(t, h, registerForm(), "avatar")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d; body: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}

			if _, err := repo.GetByUsername(context.Background(), "bob"); !errors.Is(err, model.ErrUserNotFound) {
				t.Fatal("no account should be created when the avatar upload fails")
			}
		})
	}
}

func TestAuthHandler_Register_MissingAvatar(t *testing.T) {
	uploader := &fakeUploader{}
	h, _ := newRegisterTestHandler(t, uploader)

	rec := doRegister(t, h, registerForm())
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body: %s", rec.Code, rec.Body.String())
	}
	if uploader.avatarCalls != 0 {
		t.Error("uploader should not be called without an avatar part")
	}
}

func TestAuthHandler_Register_ValidatesFieldsBeforeUpload(t *testing.T) {
	uploader := &fakeUploader{}
	h, _ := newRegisterTestHandler(t, uploader)

	fields := registerForm()
	fields["full_name"] = "   "

	rec := doRegister(t, h, fields, "avatar", "cover_image")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body: %s", rec.Code, rec.Body.String())
	}
	if uploader.avatarCalls != 0 || uploader.coverCalls != 0 {
		t.Errorf("no upload should happen for an invalid form, got avatar=%d cover=%d",
			uploader.avatarCalls, uploader.coverCalls)
	}
}

func TestAuthHandler_Logout_ClearsCookies(t *testing.T) {
	h, repo := newTestAuthHandler(t)

	loginRec := doLogin(t, h)
	if loginRec.Code != http.StatusOK {
		t.Fatalf("login status = %d", loginRec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req = req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, int64(1)))
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	for _, name := range []string{"accessToken", "refreshToken"} {
		c := cookieByName(rec.Result().Cookies(), name)
		if c == nil {
			t.Fatalf("cookie %q not cleared", name)
		}
		if c.MaxAge >= 0 || c.Value != "" {
			t.Errorf("cookie %q should be expired and empty, got MaxAge=%d Value=%q", name, c.MaxAge, c.Value)
		}
		if !c.HttpOnly || !c.Secure {
			t.Errorf("clearing cookie %q must keep httpOnly and secure", name)
		}
	}

	user, err := repo.GetByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if user.RefreshToken != nil {
		t.Fatal("refresh slot should be cleared after logout")
	}
}
