package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"videotube/internal/httputil"
	"videotube/internal/model"
	"videotube/internal/service"
	"videotube/internal/transport/http/middleware"
)

// SubscriptionHandler serves the subscribe/unsubscribe toggle.
type SubscriptionHandler struct {
	subscriptionService *service.SubscriptionService
}

func NewSubscriptionHandler(subscriptionService *service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: subscriptionService}
}

// Toggle flips the viewer's subscription to the channel.
// POST /channels/{id}/subscribe
func (h *SubscriptionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	channelID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid channel id")
		return
	}

	subscribed, err := h.subscriptionService.Toggle(r.Context(), userID, channelID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrCannotSubscribeSelf):
			httputil.WriteBadRequest(w, "Cannot subscribe to your own channel")
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, "Channel not found")
		default:
			httputil.WriteInternalError(w, "Failed to toggle subscription")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.ToggleSubscriptionResponse{Subscribed: subscribed})
}
