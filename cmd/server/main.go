package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/joho/godotenv"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/kairanet/kairan-backend/internal/config"
	"github.com/kairanet/kairan-backend/internal/database"
	"github.com/kairanet/kairan-backend/internal/handlers"
	"github.com/kairanet/kairan-backend/internal/jobs"
	"github.com/kairanet/kairan-backend/internal/line"
	"github.com/kairanet/kairan-backend/internal/logging"
	"github.com/kairanet/kairan-backend/internal/middleware"
	"github.com/kairanet/kairan-backend/internal/repository"
	"github.com/kairanet/kairan-backend/internal/routes"
	"github.com/kairanet/kairan-backend/internal/services"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg := config.Load()

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}
	if cfg.LineChannelSecret == "" || cfg.LineChannelAccessToken == "" {
		slog.Error("LINE_CHANNEL_SECRET and LINE_CHANNEL_ACCESS_TOKEN are required")
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(database.DB)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		pgLogHandler,
	)))

	// Repositories
	accountRepo := repository.NewGormAccountRepository(database.DB)
	linkRepo := repository.NewGormLinkRepository(database.DB)
	linkCodeRepo := repository.NewGormLinkCodeRepository(database.DB)
	noticeRepo := repository.NewGormNoticeRepository(database.DB)
	receiptRepo := repository.NewGormReceiptRepository(database.DB)
	audienceRepo := repository.NewGormAudienceRepository(database.DB)
	householdRepo := repository.NewGormHouseholdRepository(database.DB)

	// Scheduled maintenance (code GC, log retention)
	scheduler := jobs.Start(database.DB, linkCodeRepo)

	// LINE platform client
	lineClient := line.NewHTTPClient(
		cfg.LineAPIBaseURL,
		cfg.LineLoginChannelID,
		cfg.LineLoginChannelSecret,
		cfg.LineChannelAccessToken,
		cfg.LineTimeout,
	)

	// Services
	sessionService := services.NewSessionService(database.DB, cfg)
	identityService := services.NewIdentityService(accountRepo, linkRepo, linkCodeRepo, lineClient)
	audienceService := services.NewAudienceService(audienceRepo)
	dispatchService := services.NewDispatchService(linkRepo, lineClient, cfg.PushPerSecond)
	noticeService := services.NewNoticeService(noticeRepo, audienceRepo, audienceService, dispatchService)
	receiptService := services.NewReceiptService(receiptRepo, noticeRepo, householdRepo)
	communityService := services.NewCommunityService(database.DB)
	householdService := services.NewHouseholdService(database.DB)
	missionService := services.NewMissionService(database.DB)

	// Handlers
	authHandler := handlers.NewAuthHandler(identityService, sessionService)
	healthHandler := handlers.NewHealthHandler()
	webhookHandler := handlers.NewWebhookHandler(identityService, cfg)
	noticeHandler := handlers.NewNoticeHandler(noticeService, receiptService, communityService, accountRepo)
	communityHandler := handlers.NewCommunityHandler(communityService)
	householdHandler := handlers.NewHouseholdHandler(householdService)
	missionHandler := handlers.NewMissionHandler(missionService)
	adminHandler := handlers.NewAdminHandler(audienceService, dispatchService)

	// Sentry error tracking
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      os.Getenv("APP_ENV"),
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    4 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	// Routes
	routes.Setup(app, cfg, database.DB,
		authHandler, healthHandler, webhookHandler, noticeHandler,
		communityHandler, householdHandler, missionHandler, adminHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	scheduler.Stop()
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := database.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
