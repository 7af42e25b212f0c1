package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"go_storereview_auth/internal/config"
	"go_storereview_auth/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

// RouterDeps はルーター構築に必要なハンドラと設定
type RouterDeps struct {
	Logger    *slog.Logger
	SignIn    *SignInHandler
	Health    *HealthHandler
	Metrics   http.Handler // nil の場合 /metrics を公開しない
	CORS      config.CORSConfig
	JWTIssuer string
	JWTSecret string
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.LoggingMiddleware(d.Logger))

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   d.CORS.AllowedOrigins,
		AllowedMethods:   d.CORS.AllowedMethods,
		AllowedHeaders:   d.CORS.AllowedHeaders,
		ExposedHeaders:   d.CORS.ExposedHeaders,
		AllowCredentials: d.CORS.AllowCredentials,
		MaxAge:           d.CORS.MaxAge,
	})
	r.Use(corsHandler.Handler)

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	r.Route("/api/v1", func(r chi.Router) {
		// --- Public routes ---
		r.Post("/auth/{provider}/signin", d.SignIn.SignIn)

		// --- Protected routes (セッションJWTが必要) ---
		r.Group(func(r chi.Router) {
			r.Use(middleware.JWTAuthMiddleware(d.JWTIssuer, d.JWTSecret))
			r.Get("/me", d.SignIn.GetMe)
		})
	})

	r.Get("/health", d.Health.Health)
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics)
	}

	return r
}
