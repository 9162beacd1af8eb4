package handler

import (
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"videotube/internal/httputil"
	"videotube/internal/model"
	"videotube/internal/service"
	"videotube/internal/transport/http/middleware"
)

// UserHandler serves profile updates and the public channel profile.
type UserHandler struct {
	userService  *service.UserService
	mediaService MediaUploader
	validate     *validator.Validate
}

func NewUserHandler(userService *service.UserService, mediaService MediaUploader) *UserHandler {
	return &UserHandler{
		userService:  userService,
		mediaService: mediaService,
		validate:     validator.New(),
	}
}

// UpdateAccount updates full name and email together.
// PATCH /users/account
func (h *UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	var req model.UpdateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		httputil.WriteBadRequest(w, "Full name and a valid email are required")
		return
	}

	user, err := h.userService.UpdateAccount(r.Context(), userID, req.FullName, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrFieldsRequired):
			httputil.WriteBadRequest(w, "Full name and email are required")
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, "User not found")
		default:
			httputil.WriteInternalError(w, "Failed to update account details")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}

// UpdateAvatar replaces the avatar. Upload failure is fatal here, unlike the
// optional cover on registration.
// PATCH /users/avatar
func (h *UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "avatar", model.MaxAvatarSizeBytes,
		h.mediaService.UploadAvatar, h.userService.UpdateAvatar)
}

// UpdateCoverImage replaces the cover image.
// PATCH /users/cover-image
func (h *UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "cover_image", model.MaxCoverSizeBytes,
		h.mediaService.UploadCoverImage, h.userService.UpdateCoverImage)
}

func (h *UserHandler) updateImage(
	w http.ResponseWriter,
	r *http.Request,
	field string,
	maxSize int64,
	upload func(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*model.UploadResult, error),
	persist func(ctx context.Context, userID int64, url string) (*model.User, error),
) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	maxFormSize := maxSize + 1024*1024
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		httputil.WriteBadRequest(w, "Invalid form data")
		return
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		httputil.WriteBadRequest(w, "Image file is required")
		return
	}
	defer file.Close()

	result, err := upload(r.Context(), file, header)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrFileTooLarge):
			httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Image exceeds size limit")
		case errors.Is(err, model.ErrInvalidImageType):
			httputil.WriteBadRequestWithCode(w, model.CodeInvalidImageType, "Unsupported image type. Allowed: jpeg, png, gif, webp")
		default:
			httputil.WriteInternalError(w, "Could not upload image. Please try again later.")
		}
		return
	}

	user, err := persist(r.Context(), userID, result.URL)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "User not found")
			return
		}
		httputil.WriteInternalError(w, "Failed to update image")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}

// GetChannelProfile returns the viewer-relative public profile of a channel.
// GET /channels/{username}
func (h *UserHandler) GetChannelProfile(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	var viewerID *int64
	if id, ok := middleware.GetUserIDFromContext(r.Context()); ok {
		viewerID = &id
	}

	profile, err := h.userService.GetChannelProfile(r.Context(), username, viewerID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrUsernameRequired):
			httputil.WriteBadRequest(w, "Username is required")
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, "Channel not found")
		default:
			httputil.WriteInternalError(w, "Failed to get channel profile")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, profile)
}
