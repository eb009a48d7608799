package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/kairanet/kairan-backend/internal/config"
	"github.com/kairanet/kairan-backend/internal/handlers"
	"github.com/kairanet/kairan-backend/internal/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	webhookHandler *handlers.WebhookHandler,
	noticeHandler *handlers.NoticeHandler,
	communityHandler *handlers.CommunityHandler,
	householdHandler *handlers.HouseholdHandler,
	missionHandler *handlers.MissionHandler,
	adminHandler *handlers.AdminHandler,
) {
	// Prometheus metrics (not under /api, not rate limited)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Auth — public, with a stricter rate limit
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)
	auth.Post("/line/callback", authHandler.LineCallback)
	auth.Post("/line/complete", authHandler.LineComplete)

	api.Post("/auth/logout", middleware.JWTProtected(cfg), authHandler.Logout)

	// LINE platform webhook — signature-verified, no JWT
	api.Post("/webhooks/line", webhookHandler.HandleLine)

	// Protected routes
	protected := api.Group("", middleware.JWTProtected(cfg))

	protected.Post("/link-codes/redeem", authHandler.RedeemLinkCode)
	protected.Get("/account/link", authHandler.LinkStatus)
	protected.Put("/account/notifications", authHandler.UpdateNotifications)

	protected.Post("/notices", noticeHandler.Create)
	protected.Get("/notices", noticeHandler.List)
	protected.Get("/notices/:id", noticeHandler.Get)
	protected.Post("/notices/:id/read", noticeHandler.MarkRead)
	protected.Get("/notices/:id/read-status", noticeHandler.ReadStatus)
	protected.Get("/notices/:id/read-count", noticeHandler.ReadCount)

	protected.Post("/communities", communityHandler.Create)
	protected.Get("/communities", communityHandler.List)
	protected.Post("/communities/:id/join", communityHandler.Join)
	protected.Delete("/communities/:id/join", communityHandler.Leave)

	protected.Post("/households", householdHandler.Create)
	protected.Get("/households/:id/members", householdHandler.Members)
	protected.Post("/households/:id/members", householdHandler.AddMember)
	protected.Delete("/households/:id/members/:member_id", householdHandler.RemoveMember)

	protected.Post("/missions", missionHandler.Create)
	protected.Get("/missions", missionHandler.List)
	protected.Post("/missions/:id/join", missionHandler.Join)
	protected.Delete("/missions/:id/join", missionHandler.Leave)

	// Admin tools (JWT + admin required)
	admin := api.Group("/admin", middleware.JWTProtected(cfg), middleware.AdminRequired(db, cfg))
	admin.Post("/broadcasts", adminHandler.Broadcast)
}
