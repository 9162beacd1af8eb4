package handler

import (
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"videotube/internal/config"
	"videotube/internal/httputil"
	"videotube/internal/model"
	"videotube/internal/service"
	"videotube/internal/transport/http/middleware"
)

// MediaUploader is the slice of the media service the handlers consume.
// Satisfied by *service.MediaService.
type MediaUploader interface {
	UploadAvatar(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*model.UploadResult, error)
	UploadCoverImage(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*model.UploadResult, error)
}

// AuthHandler groups session lifecycle endpoints and their dependencies.
type AuthHandler struct {
	userService  *service.UserService
	authService  *service.AuthService
	mediaService MediaUploader
	config       *config.Config
	validate     *validator.Validate
}

// NewAuthHandler wires dependencies for authentication endpoints.
func NewAuthHandler(userService *service.UserService, authService *service.AuthService, mediaService MediaUploader, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		userService:  userService,
		authService:  authService,
		mediaService: mediaService,
		config:       cfg,
		validate:     validator.New(),
	}
}

// Register handles multipart sign-up. The avatar is mandatory and its upload
// failure aborts registration; a cover image is optional and its upload
// failure is swallowed.
// POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	maxFormSize := int64(model.MaxAvatarSizeBytes+model.MaxCoverSizeBytes) + 1024*1024 // allow form overhead
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			httputil.WriteBadRequest(w, "Content-Type must be multipart/form-data")
			return
		}
		if strings.Contains(err.Error(), "request body too large") {
			httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Upload exceeds size limit")
			return
		}
		httputil.WriteBadRequest(w, "Invalid form data")
		return
	}

	req := model.RegisterRequest{
		FullName: r.FormValue("full_name"),
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
		Username: r.FormValue("username"),
	}

	// Field validation comes before any upload so a bad request never
	// leaves an orphaned object in the bucket.
	if strings.TrimSpace(req.FullName) == "" || strings.TrimSpace(req.Email) == "" ||
		strings.TrimSpace(req.Password) == "" || strings.TrimSpace(req.Username) == "" {
		httputil.WriteBadRequest(w, "All fields are required")
		return
	}

	avatarFile, avatarHeader, err := r.FormFile("avatar")
	if err != nil {
		httputil.WriteBadRequest(w, "Avatar is required")
		return
	}
	defer avatarFile.Close()

	avatar, err := h.mediaService.UploadAvatar(r.Context(), avatarFile, avatarHeader)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrFileTooLarge):
			httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Avatar exceeds 5MB limit")
		case errors.Is(err, model.ErrInvalidImageType):
			httputil.WriteBadRequestWithCode(w, model.CodeInvalidImageType, "Unsupported image type. Allowed: jpeg, png, gif, webp")
		default:
			httputil.WriteInternalError(w, "Could not upload avatar. Please try again later.")
		}
		return
	}
	req.AvatarURL = avatar.URL

	// Cover image upload failure is non-fatal: the account is simply
	// created without one.
	if coverFile, coverHeader, err := r.FormFile("cover_image"); err == nil {
		defer coverFile.Close()
		if cover, err := h.mediaService.UploadCoverImage(r.Context(), coverFile, coverHeader); err == nil {
			req.CoverImageURL = &cover.URL
		}
	}

	user, err := h.userService.Register(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrFieldsRequired):
			httputil.WriteBadRequest(w, "All fields are required")
		case errors.Is(err, model.ErrUserExists):
			httputil.WriteConflict(w, "User already exists with this email or username")
		case errors.Is(err, model.ErrRegistrationIncomplete):
			httputil.WriteInternalError(w, "Something went wrong while registering the user")
		default:
			httputil.WriteInternalError(w, "Failed to register user")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, user)
}

// Login authenticates by email or username and issues a fresh token pair.
// Tokens travel both in the body and as httpOnly secure cookies.
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := h.validate.Struct(&req); err != nil {
		httputil.WriteBadRequest(w, "Password is required")
		return
	}

	user, err := h.userService.Login(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrIdentifierRequired):
			httputil.WriteBadRequest(w, "Username or email is required")
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, "User not found")
		case errors.Is(err, model.ErrInvalidCredentials):
			httputil.WriteUnauthorized(w, "Invalid password")
		default:
			httputil.WriteInternalError(w, "Failed to login")
		}
		return
	}

	tokenPair, err := h.authService.GenerateTokenPair(r.Context(), user.ID)
	if err != nil {
		httputil.WriteInternalError(w, "Failed to generate tokens")
		return
	}

	h.setAuthCookies(w, tokenPair)
	httputil.WriteJSON(w, http.StatusOK, model.LoginResponse{
		User:         user,
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
	})
}

// Refresh rotates the token pair. The incoming refresh token is read from
// the cookie first, then the JSON body. All rejection causes surface as the
// same 401.
// POST /auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshToken := ""
	if cookie, err := r.Cookie("refreshToken"); err == nil {
		refreshToken = cookie.Value
	}
	if refreshToken == "" {
		var req model.RefreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			refreshToken = req.RefreshToken
		}
	}

	if refreshToken == "" {
		httputil.WriteUnauthorized(w, "Refresh token is required")
		return
	}

	tokenPair, err := h.authService.Refresh(r.Context(), refreshToken)
	if err != nil {
		if errors.Is(err, model.ErrInvalidRefreshToken) {
			httputil.WriteUnauthorizedWithCode(w, model.CodeTokenInvalid, "Refresh token is expired or used")
			return
		}
		httputil.WriteInternalError(w, "Failed to refresh tokens")
		return
	}

	h.setAuthCookies(w, tokenPair)
	httputil.WriteJSON(w, http.StatusOK, tokenPair)
}

// Logout clears the server-side refresh slot and both cookies. Safe to call
// repeatedly.
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	if err := h.authService.Logout(r.Context(), userID); err != nil {
		httputil.WriteInternalError(w, "Failed to logout")
		return
	}

	h.clearAuthCookies(w)
	httputil.WriteMessage(w, http.StatusOK, "Logged out successfully")
}

// ChangePassword verifies the current password before replacing it.
// Existing sessions are not invalidated.
// POST /auth/change-password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	var req model.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		httputil.WriteBadRequest(w, "Old and new passwords are required")
		return
	}

	err := h.userService.ChangePassword(r.Context(), userID, req.OldPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrFieldsRequired):
			httputil.WriteBadRequest(w, "Old and new passwords are required")
		case errors.Is(err, model.ErrWrongPassword):
			httputil.WriteBadRequest(w, "Invalid old password")
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, "User not found")
		default:
			httputil.WriteInternalError(w, "Failed to change password")
		}
		return
	}

	httputil.WriteMessage(w, http.StatusOK, "Password changed successfully")
}

// Me returns the currently authenticated user
// GET /me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "User not found")
			return
		}
		httputil.WriteInternalError(w, "Failed to get user")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}

// Cookie attributes are fixed: httpOnly and secure on every set and clear.

func (h *AuthHandler) setAuthCookies(w http.ResponseWriter, pair *model.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     "accessToken",
		Value:    pair.AccessToken,
		Path:     "/",
		MaxAge:   h.config.AccessTokenMaxAge,
		HttpOnly: true,
		Secure:   true,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     "refreshToken",
		Value:    pair.RefreshToken,
		Path:     "/",
		MaxAge:   h.config.RefreshTokenMaxAge,
		HttpOnly: true,
		Secure:   true,
	})
}

func (h *AuthHandler) clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{"accessToken", "refreshToken"} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   true,
		})
	}
}
