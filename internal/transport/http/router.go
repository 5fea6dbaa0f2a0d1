package http

import (
	"net/http"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/profilehub/backend/internal/config"
	"github.com/profilehub/backend/internal/handler"
	"github.com/profilehub/backend/internal/httputil"
	authmw "github.com/profilehub/backend/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	ProfileHandler      *handler.ProfileHandler
	UsernameHandler     *handler.UsernameHandler
	MediaHandler        *handler.MediaHandler
	NotificationHandler *handler.NotificationHandler

	AuthMode       string
	JWTSecret      string
	FirebaseClient *fbauth.Client
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	// The profile page is browser-facing; the API lives on another origin.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, 200, map[string]string{"status": "ok"})
	})

	// Public profile pages - no authentication required
	r.Get("/users/{username}", cfg.ProfileHandler.GetPublic)

	// Protected routes - require authentication
	r.Group(func(r chi.Router) {
		if cfg.AuthMode == config.AuthModeFirebase && cfg.FirebaseClient != nil {
			r.Use(authmw.FirebaseAuth(cfg.FirebaseClient))
		} else {
			r.Use(authmw.LocalAuth(cfg.JWTSecret))
		}

		r.Route("/me", func(r chi.Router) {
			r.Get("/profile", cfg.ProfileHandler.GetMe)
			r.Put("/profile", cfg.ProfileHandler.UpdateMe)

			r.Get("/username/check", cfg.UsernameHandler.Check)

			r.Post("/avatar", cfg.MediaHandler.UploadAvatar)

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", cfg.NotificationHandler.List)
				r.Post("/read", cfg.NotificationHandler.MarkAllRead)
			})
		})
	})

	return r
}
