package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avelar/taskboard-be/internal/api"
	"github.com/avelar/taskboard-be/internal/auth"
	"github.com/avelar/taskboard-be/internal/config"
	"github.com/avelar/taskboard-be/internal/database"
	"github.com/avelar/taskboard-be/internal/logger"
	"github.com/avelar/taskboard-be/internal/monitoring"
	"github.com/avelar/taskboard-be/internal/services"
	"github.com/avelar/taskboard-be/internal/storage"
	"github.com/avelar/taskboard-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

func main() {
	logger.Init()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Set up avatar storage (creates the directory if missing)
	avatars, err := storage.NewAvatarStore(cfg.AvatarPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize avatar storage")
	}

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up WebSocket Hub for the per-user event feed
	hub := websocket.NewHub()
	go hub.Run()

	// Set up services
	userService := services.NewUserService(db)
	taskService := services.NewTaskService(db)

	// The guard resolves session tokens to user records on every request.
	guard := auth.NewGuard(cfg.JWTSecret, userService)

	// Set up and run the nightly avatar sweep
	sweeper := monitoring.NewAvatarSweeper(db, avatars)
	if err := sweeper.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start avatar sweeper")
	}

	// Set up router
	router := api.NewRouter(cfg, guard, hub, userService, taskService, avatars)

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe()")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	sweeper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
