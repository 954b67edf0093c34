package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/securecicd/backend/internal/api/handlers"
	"github.com/securecicd/backend/internal/api/middleware"
	"github.com/securecicd/backend/internal/auth"
	"github.com/securecicd/backend/internal/scans"
)

type Router struct {
	chi.Router
}

type RouterConfig struct {
	DB          *gorm.DB
	Redis       *redis.Client
	Logger      *slog.Logger
	JWTService  *auth.JWTService
	AuthService *auth.Service
	ScanService *scans.Service

	AnalyzerDir    string
	FrontendURL    string
	GoogleClientID string
	AllowedOrigins []string
	RateLimitReqs  int
	RateLimitSecs  int
}

func NewRouter(cfg RouterConfig) *Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	if cfg.RateLimitReqs > 0 {
		r.Use(middleware.RateLimit(cfg.RateLimitReqs, cfg.RateLimitSecs))
	}

	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Auth-Token"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Redis)
	authHandler := handlers.NewAuthHandler(cfg.AuthService, cfg.GoogleClientID)
	githubHandler := handlers.NewGitHubHandler(cfg.AuthService, cfg.FrontendURL)
	projectHandler := handlers.NewProjectHandler(cfg.DB, cfg.AuthService)
	scanHandler := handlers.NewScanHandler(cfg.DB, cfg.ScanService, cfg.AnalyzerDir)
	riskHandler := handlers.NewRiskHandler(cfg.DB)
	pipelineHandler := handlers.NewPipelineHandler(cfg.DB)
	dashboardHandler := handlers.NewDashboardHandler(cfg.DB)

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	r.Route("/api", func(r chi.Router) {
		// Public auth endpoints
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/google", authHandler.GoogleLogin)
		r.Post("/auth/logout", authHandler.Logout)
		r.Get("/auth/google/client-id", authHandler.GoogleClientID)
		r.Get("/auth/github/login", githubHandler.BeginLogin)
		r.Get("/auth/github/callback", githubHandler.LoginCallback)

		// The connect callback carries the user in the oauth state, not a
		// token, because the browser arrives straight from GitHub.
		r.Get("/github/auth/github/callback", githubHandler.ConnectCallback)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTService))

			r.Get("/auth/me", authHandler.Me)

			r.Route("/github", func(r chi.Router) {
				r.Get("/auth/github", githubHandler.BeginConnect)
				r.Get("/status", githubHandler.Status)
				r.Get("/repos", githubHandler.Repos)
			})

			r.Route("/projects", func(r chi.Router) {
				r.Get("/", projectHandler.List)
				r.Post("/", projectHandler.Create)
				r.Post("/import/github", projectHandler.ImportGitHub)
				r.Get("/{id}", projectHandler.Get)
				r.Patch("/{id}", projectHandler.Update)
				r.Delete("/{id}", projectHandler.Delete)
			})

			r.Route("/scans", func(r chi.Router) {
				r.Get("/", scanHandler.List)
				r.Post("/", scanHandler.Create)
				r.Delete("/failed", scanHandler.DeleteFailed)
				r.Get("/{id}", scanHandler.Get)
				r.Patch("/{id}", scanHandler.Update)
				r.Delete("/{id}", scanHandler.Delete)
				r.Post("/{id}/run", scanHandler.Run)
				r.Get("/{id}/report", scanHandler.Report)
			})

			r.Route("/risks", func(r chi.Router) {
				r.Get("/", riskHandler.List)
				r.Post("/", riskHandler.Create)
				r.Get("/{id}", riskHandler.Get)
				r.Patch("/{id}", riskHandler.Update)
				r.Delete("/{id}", riskHandler.Delete)
			})

			r.Route("/pipelines", func(r chi.Router) {
				r.Get("/", pipelineHandler.List)
				r.Post("/", pipelineHandler.Upsert)
				r.Get("/{id}", pipelineHandler.Get)
				r.Patch("/{id}", pipelineHandler.Update)
				r.Delete("/{id}", pipelineHandler.Delete)
			})

			r.Route("/dashboard", func(r chi.Router) {
				r.Get("/", dashboardHandler.Overview)
				r.Get("/risks/trend", dashboardHandler.RisksTrend)
				r.Get("/scans/stats", dashboardHandler.ScanStats)
				r.Get("/vulnerabilities/types", dashboardHandler.VulnerabilityTypes)
			})
		})
	})

	return &Router{r}
}
