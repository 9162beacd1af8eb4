package http

import (
	"context"
	"fmt"
	"log"
	stdhttp "net/http"
	"time"

	"videotube/internal/config"
	"videotube/internal/database"
	"videotube/internal/handler"
	"videotube/internal/repository"
	"videotube/internal/service"
	"videotube/internal/token"
)

func Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	mediaService, err := service.NewMediaService(context.Background(), cfg)
	if err != nil {
		return fmt.Errorf("failed to init media service: %w", err)
	}

	signer := token.NewSigner(
		cfg.AccessTokenSecret,
		cfg.RefreshTokenSecret,
		time.Duration(cfg.AccessTokenMaxAge)*time.Second,
		time.Duration(cfg.RefreshTokenMaxAge)*time.Second,
	)

	userRepo := repository.NewUserRepository(db)
	subsRepo := repository.NewSubscriptionRepository(db)

	userService := service.NewUserService(userRepo, subsRepo)
	authService := service.NewAuthService(userRepo, signer)
	subscriptionService := service.NewSubscriptionService(subsRepo, userRepo)

	router := NewRouter(RouterConfig{
		AuthHandler:         handler.NewAuthHandler(userService, authService, mediaService, cfg),
		UserHandler:         handler.NewUserHandler(userService, mediaService),
		SubscriptionHandler: handler.NewSubscriptionHandler(subscriptionService),
		Signer:              signer,
	})

	addr := ":" + cfg.ServerPort
	log.Printf("Starting server on %s", addr)
	return stdhttp.ListenAndServe(addr, router)
}
