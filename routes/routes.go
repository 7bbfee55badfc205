package routes

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/keyfront/keyfront/app"
	"github.com/keyfront/keyfront/handlers"
	"github.com/keyfront/keyfront/middleware"
)

// ServiceName identifies the gateway in version responses.
const ServiceName = "keyfront"

// Version is the gateway release, overridable at build time.
var Version = "dev"

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	accountHandler := handlers.NewAccountHandler(deps.Accounts, deps.LoginEvents, deps.Logger)
	healthHandler := handlers.NewHealthHandler(sqlDB(deps), deps.Redis, deps.Logger)
	infoHandler := handlers.NewInfoHandler(ServiceName, Version)

	// Health check endpoints
	r.Get("/healthz", healthHandler.HandleHealth)
	r.Get("/readyz", healthHandler.HandleReadiness)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/info/version", infoHandler.HandleVersion)

		r.Route("/accounts", func(r chi.Router) {
			if deps.LoginThrottle != nil {
				r.With(deps.LoginThrottle.Limit).Post("/login", accountHandler.HandleLogin)
			} else {
				r.Post("/login", accountHandler.HandleLogin)
			}
			r.Post("/refresh", accountHandler.HandleRefresh)

			r.Group(func(r chi.Router) {
				r.Use(deps.AuthMiddleware.RequireAuth)
				r.Post("/logout", accountHandler.HandleLogout)
				r.Get("/me", accountHandler.HandleMe)
				r.Get("/validate", accountHandler.HandleValidate)
			})
		})

		// Login-event audit trail (require admin role)
		if deps.LoginEvents != nil {
			eventHandler := handlers.NewEventHandler(deps.LoginEvents, deps.Logger)
			r.Route("/events", func(r chi.Router) {
				r.Use(deps.AuthMiddleware.RequireAuth)
				r.Use(deps.AuthMiddleware.RequireRoles("admin"))
				r.Get("/", eventHandler.HandleList)
				r.Get("/{id}", eventHandler.HandleGet)
				r.Delete("/{id}", eventHandler.HandleDelete)
			})
		}
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"endpoint not found"}`))
	})

	return r
}

func sqlDB(deps *app.Dependencies) *sql.DB {
	if deps.DB == nil {
		return nil
	}
	return deps.DB.DB
}
