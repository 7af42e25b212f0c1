package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"go_storereview_auth/internal/config"
	"go_storereview_auth/internal/handlers"
	"go_storereview_auth/internal/metrics"
	"go_storereview_auth/internal/provider"
	"go_storereview_auth/internal/repository"
	"go_storereview_auth/internal/service"
)

func main() {
	//　設定ファイル読み込み用の一時的なロガー設定
	tempLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(tempLogger)
	log.Println("Log Config Loading...")

	cfg, err := config.Load("configs")
	if err != nil {
		slog.Error("Error loading configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := newLogger(cfg.Log.Level, tempLogger)
	slog.SetDefault(logger)
	slog.Info("Application starting...", slog.String("version", config.AppVersion))

	// 1. Database
	db, err := repository.NewDB(cfg.Database, logger)
	if err != nil {
		slog.Error("Error initializing database", slog.Any("error", err))
		os.Exit(1)
	}
	sqlDB, err := db.DB()
	if err != nil {
		slog.Error("Error getting underlying sql.DB from GORM", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			slog.Error("Error closing database connection", slog.Any("error", err))
		} else {
			slog.Info("Database connection closed.")
		}
	}()

	if cfg.Database.AutoMigrate {
		if err := repository.AutoMigrate(db); err != nil {
			slog.Error("Error running migrations", slog.Any("error", err))
			os.Exit(1)
		}
		slog.Info("Database migrated")
	}

	// 2. Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics.RegisterCollectors(registry)

	// 3. Identity providers
	httpClient := provider.NewHTTPClient(cfg.Providers.HTTPTimeout)

	var tokenInfoCache provider.TokenInfoCache
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		tokenInfoCache = provider.NewRedisTokenInfoCache(rdb)
		slog.Info("Using Redis token info cache", slog.String("addr", cfg.Redis.Addr))
	} else {
		tokenInfoCache = provider.NewMemoryTokenInfoCache()
	}

	googleVerifier := provider.NewGoogleVerifier(provider.GoogleConfig{
		AllowedAudiences: cfg.Google.AllowedAudiences,
		TokenInfoURL:     cfg.Google.TokenInfoURL,
		CacheTTL:         cfg.Google.CacheTTL,
	}, httpClient, provider.WithTokenInfoCache(tokenInfoCache))

	appleKeys := provider.NewKeyCache(cfg.Apple.KeysURL, httpClient, cfg.Providers.HTTPTimeout)
	appleVerifier := provider.NewAppleVerifier(provider.AppleConfig{
		AllowedAudiences: cfg.Apple.AllowedAudiences,
		Issuer:           cfg.Apple.Issuer,
		ClockSkew:        cfg.Apple.ClockSkew,
	}, appleKeys)

	// 起動時に鍵を取得しておく。失敗しても最初のサインインで再取得される。
	if err := appleKeys.Refresh(context.Background()); err != nil {
		slog.Warn("Initial Apple signing key fetch failed", slog.Any("error", err))
	}

	verifiers := provider.NewRegistry(googleVerifier, appleVerifier)

	// 4. Dependency Injection
	mailer, err := service.NewMailer(context.Background(), cfg)
	if err != nil {
		slog.Error("Error initializing mailer", slog.Any("error", err))
		os.Exit(1)
	}

	userRepo := repository.NewGormUserRepository()
	linkRepo := repository.NewGormProviderLinkRepository()

	linker := service.NewAccountLinker(db, userRepo, linkRepo, cfg.Linking,
		service.WithLinkNotifier(service.NewLinkNotifier(mailer, cfg.App.Name)))
	sessions := service.NewJWTSessionIssuer(cfg.App.Name, cfg.JWT)
	signInService := service.NewSignInService(db, verifiers, linker, sessions, userRepo, linkRepo)

	// 5. Router
	r := handlers.NewRouter(handlers.RouterDeps{
		Logger:    logger,
		SignIn:    handlers.NewSignInHandler(signInService),
		Health:    handlers.NewHealthHandler(sqlDB),
		Metrics:   promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORS:      cfg.CORS,
		JWTIssuer: cfg.App.Name,
		JWTSecret: cfg.JWT.SecretKey,
	})

	// 6. Start Server
	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("Server listening", slog.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Could not listen on port", slog.String("port", cfg.Server.Port), slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", slog.Any("error", err))
	}

	log.Println("Server exiting")
}

// newLogger は設定のログレベルと APP_ENV からロガーを組み立てます
func newLogger(level string, tempLogger *slog.Logger) *slog.Logger {
	logLevel := new(slog.LevelVar)
	switch strings.ToLower(level) {
	case "debug":
		logLevel.Set(slog.LevelDebug)
	case "info":
		logLevel.Set(slog.LevelInfo)
	case "warn", "warning":
		logLevel.Set(slog.LevelWarn)
	case "error":
		logLevel.Set(slog.LevelError)
	default:
		logLevel.Set(slog.LevelInfo) // 不明な場合はInfo
		tempLogger.Warn("Unknown log level specified in config, defaulting to INFO", slog.String("level", level))
	}

	var handler slog.Handler
	appEnv := os.Getenv("APP_ENV")
	if strings.ToLower(appEnv) == "dev" {
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			Level:      logLevel,
			TimeFormat: time.RFC3339,
		})
		tempLogger.Info("Using TINT log handler", slog.String("APP_ENV", appEnv))
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		})
		tempLogger.Info("Using JSON log handler", slog.String("APP_ENV", appEnv))
	}
	return slog.New(handler)
}
