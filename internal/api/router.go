package api

import (
	"net/http"

	"github.com/avelar/taskboard-be/internal/api/handlers"
	"github.com/avelar/taskboard-be/internal/auth"
	"github.com/avelar/taskboard-be/internal/config"
	"github.com/avelar/taskboard-be/internal/services"
	"github.com/avelar/taskboard-be/internal/storage"
	"github.com/avelar/taskboard-be/internal/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(
	cfg *config.Config,
	guard *auth.Guard,
	hub *websocket.Hub,
	userService services.UserServiceProvider,
	taskService services.TaskServiceProvider,
	avatars *storage.AvatarStore,
) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration; the cookie only travels with AllowCredentials.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService, cfg.JWTSecret, cfg.TokenTTL, cfg.IsProduction())
	taskHandler := handlers.NewTaskHandler(taskService, hub)
	profileHandler := handlers.NewProfileHandler(userService, avatars, hub)
	wsHandler := handlers.NewWebSocketHandler(hub)

	// API versioning
	r.Route("/api/v1", func(r chi.Router) {
		// Public authentication endpoints
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)

		// Everything else requires a valid session.
		r.Group(func(r chi.Router) {
			r.Use(guard.Middleware)

			r.Get("/ws", wsHandler.Serve)

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", taskHandler.List)
				r.Post("/", taskHandler.Create)
				r.Patch("/{id}", taskHandler.SetCompleted)
				r.Delete("/{id}", taskHandler.Delete)
			})

			r.Get("/profile", profileHandler.Get)
			r.Put("/profile", profileHandler.Update)
		})
	})

	// Uploaded avatars are public, read-only static files.
	avatarServer := http.StripPrefix("/avatars/", http.FileServer(http.Dir(avatars.Dir())))
	r.Get("/avatars/*", avatarServer.ServeHTTP)

	return r
}
