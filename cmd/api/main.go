package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fintrackable/fintrackable-backend/db"
	"github.com/fintrackable/fintrackable-backend/internal/config"
	"github.com/fintrackable/fintrackable-backend/internal/handler"
	"github.com/fintrackable/fintrackable-backend/internal/middleware"
	"github.com/fintrackable/fintrackable-backend/internal/repository/postgres"
	"github.com/fintrackable/fintrackable-backend/internal/repository/storage"
	"github.com/fintrackable/fintrackable-backend/internal/service"
	"github.com/fintrackable/fintrackable-backend/internal/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Apply database migrations
	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}

	// Connect to database
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	// Verify database connection
	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Connected to database")

	// Initialize repositories
	transactionRepo := postgres.NewTransactionRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	preferenceRepo := postgres.NewPreferenceRepository(pool)

	// Initialize WebSocket hub
	hub := websocket.NewHub()

	// Initialize services. Writes to an owner's ledger are serialized
	// through a single shared lock registry.
	ownerLock := service.NewOwnerLock()
	transactionService := service.NewTransactionService(transactionRepo, ownerLock)
	transactionService.SetEventPublisher(hub)
	categoryService := service.NewCategoryService(categoryRepo, ownerLock)
	preferenceService := service.NewPreferenceService(preferenceRepo)
	learningService := service.NewLearningService(transactionRepo, categoryRepo, ownerLock)
	learningService.SetEventPublisher(hub)
	analyticsService := service.NewAnalyticsService(transactionRepo, categoryRepo, preferenceRepo)
	importService := service.NewImportService(transactionRepo, categoryRepo, preferenceRepo, ownerLock, service.ImportServiceConfig{
		ReviewTTL:     cfg.Import.ReviewTTL,
		RetainDone:    cfg.Import.RetainDone,
		SweepInterval: cfg.Import.SweepInterval,
	})
	importService.SetEventPublisher(hub)

	// Every write path drops the owner's cached rollups so dashboards never
	// serve stale totals after an edit.
	importService.SetCacheInvalidator(analyticsService)
	transactionService.SetCacheInvalidator(analyticsService)
	categoryService.SetCacheInvalidator(analyticsService)
	learningService.SetCacheInvalidator(analyticsService)

	// Optional raw statement archive
	if cfg.S3.AccessKeyID != "" {
		archive, err := storage.NewS3StatementArchive(context.Background(), cfg.S3)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize statement archive")
		}
		importService.SetStatementArchive(archive)
		log.Info().Str("bucket", cfg.S3.Bucket).Msg("Statement archive enabled")
	}

	// Start the import job sweeper
	importService.Start(context.Background())
	defer importService.Stop()

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiterWithConfig(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	defer rateLimiter.Stop()

	// Initialize handlers
	importHandler := handler.NewImportHandler(importService)
	transactionHandler := handler.NewTransactionHandler(transactionService, learningService)
	categoryHandler := handler.NewCategoryHandler(categoryService)
	dashboardHandler := handler.NewDashboardHandler(analyticsService)
	preferenceHandler := handler.NewPreferenceHandler(preferenceService)
	wsHandler := handler.NewWebSocketHandler(hub, cfg.CORSOrigins)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Request ID middleware
	e.Use(echomiddleware.RequestID())

	// CORS middleware
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, middleware.OwnerIDHeader},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Security headers middleware (helmet-like)
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	// Request logging middleware with zerolog
	e.Use(zerologMiddleware())

	// Recovery middleware
	e.Use(echomiddleware.Recover())

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Register API routes
	handler.RegisterRoutes(e, rateLimiter, importHandler, transactionHandler, categoryHandler, dashboardHandler, preferenceHandler, wsHandler)

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// zerologMiddleware returns a middleware that logs requests using zerolog
func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			log.Info().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Msg("request")

			return nil
		}
	}
}
