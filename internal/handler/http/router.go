package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chalkak/chalkak-server/internal/auth"
	"github.com/chalkak/chalkak-server/internal/domain"
	"github.com/chalkak/chalkak-server/internal/service"
	"github.com/chalkak/chalkak-server/pkg/health"
	"github.com/chalkak/chalkak-server/pkg/middleware"
)

// RouterConfig bundles the dependencies for the HTTP route tree.
type RouterConfig struct {
	AuthService     *service.AuthService
	BoothService    *service.BoothService
	ReviewService   *service.ReviewService
	FavoriteService *service.FavoriteService
	AdminService    *service.AdminService
	JWTManager      *auth.JWTManager
	HealthHandler   *health.Handler
	Logger          *slog.Logger
	CORS            CORSConfig
	AuthRPS         int
	AuthBurst       int
	PprofCIDRs      []string
}

// NewRouter creates a chi router with all chalkak routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Tracing("chalkak"))
	r.Use(middleware.RequestLogging(cfg.Logger))
	// Request-scoped logger with correlation/trace fields; must come after
	// RequestLogging, which seeds the correlation id.
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(middleware.PrometheusMetrics("chalkak"))

	// Health check endpoints
	r.Get("/health/live", cfg.HealthHandler.LivenessHandler())
	r.Get("/health/ready", cfg.HealthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Token validator that bridges to the internal JWTManager.
	tokenValidator := func(token string) (*middleware.Claims, error) {
		claims, err := cfg.JWTManager.ValidateAccessToken(token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{
			UserID: claims.Subject,
			Email:  claims.Email,
			Role:   claims.Role,
		}, nil
	}

	authHandler := NewAuthHandler(cfg.AuthService, cfg.Logger)
	boothHandler := NewBoothHandler(cfg.BoothService, cfg.Logger)
	reviewHandler := NewReviewHandler(cfg.ReviewService, cfg.Logger)
	favoriteHandler := NewFavoriteHandler(cfg.FavoriteService, cfg.Logger)
	adminHandler := NewAdminHandler(cfg.AdminService, cfg.Logger)

	// Auth endpoints (public, rate limited per client IP)
	r.Route("/api/auth", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.RateLimit(cfg.AuthRPS, cfg.AuthBurst, cfg.Logger))

		r.Post("/social", authHandler.SocialLogin)
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/refresh", authHandler.Refresh)
		r.Post("/logout", authHandler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(tokenValidator))
			r.Post("/logout-all", authHandler.LogoutAll)
		})
	})

	// Account endpoints (auth required)
	r.Route("/api/users", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.Auth(tokenValidator))

		r.Get("/me", authHandler.GetProfile)
		r.Put("/me", authHandler.UpdateProfile)
		r.Delete("/me", authHandler.DeleteAccount)
	})

	// Booth directory (public reads, cacheable for 60s)
	r.Route("/api/booths", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.CacheControl(60))
			r.Get("/", boothHandler.List)
			r.Get("/nearby", boothHandler.Nearby)
			r.Get("/{id}", boothHandler.Get)
			r.Get("/{id}/reviews", reviewHandler.ListByBooth)
		})

		r.Group(func(r chi.Router) {
			r.Use(ContentTypeJSON)
			r.Use(middleware.Auth(tokenValidator))
			r.Post("/{id}/reviews", reviewHandler.Create)
		})

		// Booth suggestions are open submissions, relayed to admins as events.
		r.Group(func(r chi.Router) {
			r.Use(ContentTypeJSON)
			r.Post("/report", boothHandler.Report)
		})
	})

	// Review edits (auth required)
	r.Route("/api/reviews", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.Auth(tokenValidator))

		r.Put("/{id}", reviewHandler.Update)
		r.Delete("/{id}", reviewHandler.Delete)
	})

	// Favorites (auth required)
	r.Route("/api/favorites", func(r chi.Router) {
		r.Use(middleware.Auth(tokenValidator))

		r.Get("/", favoriteHandler.List)
		r.Get("/{boothId}", favoriteHandler.Exists)
		r.Put("/{boothId}", favoriteHandler.Add)
		r.Delete("/{boothId}", favoriteHandler.Remove)
	})

	// Admin endpoints (admin role required)
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.Auth(tokenValidator))
		r.Use(middleware.RequireRole(domain.RoleAdmin))

		r.Get("/stats", adminHandler.Stats)
		r.Get("/users", adminHandler.ListUsers)
		r.Put("/users/{id}/role", adminHandler.UpdateUserRole)

		r.Post("/booths", boothHandler.Create)
		r.Put("/booths/{id}", boothHandler.Update)
		r.Delete("/booths/{id}", boothHandler.Delete)
	})

	// Profiling endpoints, restricted to the configured CIDRs.
	if len(cfg.PprofCIDRs) > 0 {
		middleware.RegisterPprof(r, cfg.PprofCIDRs, cfg.Logger)
	}

	return r
}
