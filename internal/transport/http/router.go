package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"videotube/internal/handler"
	"videotube/internal/httputil"
	"videotube/internal/token"
	authmw "videotube/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler         *handler.AuthHandler
	UserHandler         *handler.UserHandler
	SubscriptionHandler *handler.SubscriptionHandler
	Signer              *token.Signer
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, 200, map[string]string{"status": "ok"})
	})

	// Public routes - no authentication required
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", cfg.AuthHandler.Register)
		r.Post("/login", cfg.AuthHandler.Login)
		r.Post("/refresh", cfg.AuthHandler.Refresh)
	})

	// Channel profile is public but viewer-relative
	r.With(authmw.OptionalAuthMiddleware(cfg.Signer)).Get("/channels/{username}", cfg.UserHandler.GetChannelProfile)

	// Protected routes - require authentication
	r.Group(func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(cfg.Signer))

		r.Get("/me", cfg.AuthHandler.Me)

		r.Post("/auth/logout", cfg.AuthHandler.Logout)
		r.Post("/auth/change-password", cfg.AuthHandler.ChangePassword)

		r.Patch("/users/account", cfg.UserHandler.UpdateAccount)
		r.Patch("/users/avatar", cfg.UserHandler.UpdateAvatar)
		r.Patch("/users/cover-image", cfg.UserHandler.UpdateCoverImage)

		r.Post("/channels/{id}/subscribe", cfg.SubscriptionHandler.Toggle)
	})

	return r
}
