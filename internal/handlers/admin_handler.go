package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/kairanet/kairan-backend/internal/dto"
	"github.com/kairanet/kairan-backend/internal/models"
	"github.com/kairanet/kairan-backend/internal/services"
)

type AdminHandler struct {
	audience *services.AudienceService
	dispatch *services.DispatchService
}

func NewAdminHandler(audience *services.AudienceService, dispatch *services.DispatchService) *AdminHandler {
	return &AdminHandler{audience: audience, dispatch: dispatch}
}

// Broadcast pushes a message to every account matching the requested role
// ("all" for everyone). The response is returned once the audience is
// resolved; delivery proceeds asynchronously.
func (h *AdminHandler) Broadcast(c *fiber.Ctx) error {
	var req dto.BroadcastRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Message == "" {
		return badRequest(c, "Message is required")
	}
	if req.Role != services.RoleAll && !models.ValidRole(req.Role) {
		return badRequest(c, "Unknown role: "+req.Role)
	}

	audience, err := h.audience.ResolveByRole(c.Context(), req.Role)
	if err != nil {
		return internalError(c)
	}

	text := req.Message
	if req.Title != "" {
		text = "【お知らせ】" + req.Title + "\n" + req.Message
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		outcome := h.dispatch.Dispatch(ctx, "admin-broadcast", text, audience)
		slog.Info("admin broadcast finished",
			"role", req.Role,
			"sent", outcome.Sent,
			"skipped", outcome.Skipped,
			"failed", outcome.Failed)
	}()

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"recipients": len(audience),
	})
}
