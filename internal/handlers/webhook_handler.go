package handlers

import (
	"encoding/json"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/kairanet/kairan-backend/internal/config"
	"github.com/kairanet/kairan-backend/internal/dto"
	"github.com/kairanet/kairan-backend/internal/line"
	"github.com/kairanet/kairan-backend/internal/metrics"
	"github.com/kairanet/kairan-backend/internal/services"
)

type WebhookHandler struct {
	identity *services.IdentityService
	cfg      *config.Config
}

func NewWebhookHandler(identity *services.IdentityService, cfg *config.Config) *WebhookHandler {
	return &WebhookHandler{identity: identity, cfg: cfg}
}

// HandleLine processes the LINE platform webhook. The signature is checked
// against the raw body before anything else; processing is idempotent under
// at-least-once delivery, and per-event failures are logged but never
// surfaced to the platform (a non-200 would only trigger redelivery of
// events we already handled).
func (h *WebhookHandler) HandleLine(c *fiber.Ctx) error {
	body := c.Body()
	if !line.ValidSignature(h.cfg.LineChannelSecret, body, c.Get("X-Line-Signature")) {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid signature",
		})
	}

	var req line.WebhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return badRequest(c, "Invalid webhook payload")
	}

	for _, event := range req.Events {
		metrics.WebhookEvents.WithLabelValues(event.Type).Inc()

		if event.Source.UserID == "" {
			continue
		}
		ext := services.ExternalIdentity{UserID: event.Source.UserID}

		switch event.Type {
		case "follow":
			if err := h.identity.OnFollow(c.Context(), ext); err != nil {
				slog.Error("follow event failed", "action", "webhook_follow", "error", err.Error())
			}
		case "unfollow":
			if err := h.identity.Unlink(c.Context(), event.Source.UserID); err != nil {
				slog.Error("unfollow event failed", "action", "webhook_unfollow", "error", err.Error())
			}
		case "message":
			// No conversational features; messages are acknowledged and
			// dropped.
		default:
			slog.Info("webhook event ignored", "type", event.Type)
		}
	}

	return c.JSON(fiber.Map{"received": true})
}
