package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/kairanet/kairan-backend/internal/dto"
	"github.com/kairanet/kairan-backend/internal/line"
	"github.com/kairanet/kairan-backend/internal/repository"
	"github.com/kairanet/kairan-backend/internal/services"
)

type AuthHandler struct {
	identity *services.IdentityService
	sessions *services.SessionService
}

func NewAuthHandler(identity *services.IdentityService, sessions *services.SessionService) *AuthHandler {
	return &AuthHandler{identity: identity, sessions: sessions}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	resp, err := h.sessions.Register(&req)
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return badRequest(c, err.Error())
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	resp, err := h.sessions.Login(&req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return unauthorized(c, err.Error())
		}
		return internalError(c)
	}

	return c.JSON(resp)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	resp, err := h.sessions.Refresh(&req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidToken) {
			return unauthorized(c, err.Error())
		}
		return internalError(c)
	}

	return c.JSON(resp)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var req dto.LogoutRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := h.sessions.Logout(&req); err != nil {
		return internalError(c)
	}

	return c.JSON(fiber.Map{"message": "Logged out successfully"})
}

// LineCallback handles the LINE Login redirect: code exchange, profile
// fetch, optional email verification, identity resolution. First-time
// users without a verified email get a needs-profile response instead of
// tokens.
func (h *AuthHandler) LineCallback(c *fiber.Ctx) error {
	var req dto.LineCallbackRequest
	if err := c.BodyParser(&req); err != nil || req.Code == "" {
		return badRequest(c, "Authorization code is required")
	}

	result, err := h.identity.LoginWithCode(c.Context(), req.Code, req.RedirectURI, nil)
	if err != nil {
		return h.resolutionError(c, err)
	}

	if result.NeedsProfile {
		return c.JSON(dto.NeedsProfileResponse{
			NeedsProfile: true,
			DisplayName:  result.DisplayName,
			PictureURL:   result.PictureURL,
		})
	}

	resp, err := h.sessions.TokenPair(result.Account)
	if err != nil {
		return internalError(c)
	}
	return c.JSON(resp)
}

// LineComplete finishes a first-time login with the collected nickname.
func (h *AuthHandler) LineComplete(c *fiber.Ctx) error {
	var req dto.LineCompleteRequest
	if err := c.BodyParser(&req); err != nil || req.Code == "" {
		return badRequest(c, "Authorization code is required")
	}
	if req.Nickname == "" {
		return badRequest(c, "Nickname is required")
	}

	result, err := h.identity.LoginWithCode(c.Context(), req.Code, req.RedirectURI, &services.NewProfile{
		Nickname:      req.Nickname,
		SelectedAreas: req.SelectedAreas,
	})
	if err != nil {
		return h.resolutionError(c, err)
	}

	resp, err := h.sessions.TokenPair(result.Account)
	if err != nil {
		return internalError(c)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *AuthHandler) RedeemLinkCode(c *fiber.Ctx) error {
	callerID, err := accountID(c)
	if err != nil {
		return unauthorized(c, "Unauthorized")
	}

	var req dto.RedeemLinkCodeRequest
	if err := c.BodyParser(&req); err != nil || req.Code == "" {
		return badRequest(c, "Link code is required")
	}

	if err := h.identity.RedeemLinkCode(c.Context(), req.Code, callerID); err != nil {
		switch {
		case errors.Is(err, services.ErrCodeNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Link code not found or expired. Request a new one.",
			})
		case errors.Is(err, services.ErrAlreadyLinked):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: "This LINE account is already linked elsewhere.",
			})
		default:
			return internalError(c)
		}
	}

	return c.JSON(fiber.Map{"linked": true})
}

// LinkStatus reports whether the caller's account is bound to a LINE
// identity and whether pushes are enabled for it.
func (h *AuthHandler) LinkStatus(c *fiber.Ctx) error {
	callerID, err := accountID(c)
	if err != nil {
		return unauthorized(c, "Unauthorized")
	}

	link, err := h.identity.LinkStatus(c.Context(), callerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(dto.LinkStatusResponse{Linked: false})
		}
		return internalError(c)
	}

	return c.JSON(dto.LinkStatusResponse{
		Linked:               true,
		DisplayName:          link.DisplayName,
		AvatarURL:            link.AvatarURL,
		NotificationsEnabled: link.NotificationsEnabled,
	})
}

// UpdateNotifications toggles LINE push delivery for the caller's link.
func (h *AuthHandler) UpdateNotifications(c *fiber.Ctx) error {
	callerID, err := accountID(c)
	if err != nil {
		return unauthorized(c, "Unauthorized")
	}

	var req dto.UpdateNotificationsRequest
	if err := c.BodyParser(&req); err != nil || req.Enabled == nil {
		return badRequest(c, "enabled is required")
	}

	if err := h.identity.SetNotifications(c.Context(), callerID, *req.Enabled); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "No LINE account is linked")
		}
		return internalError(c)
	}
	return c.JSON(fiber.Map{"notifications_enabled": *req.Enabled})
}

func (h *AuthHandler) resolutionError(c *fiber.Ctx, err error) error {
	if errors.Is(err, line.ErrAuthFailed) {
		return unauthorized(c, "LINE login failed. Please try again.")
	}
	if errors.Is(err, services.ErrIdentityInconsistency) {
		slog.Error("identity inconsistency on login", "action", "line_login", "error", err.Error())
		return internalError(c)
	}
	slog.Error("line login failed", "action", "line_login", "error", err.Error())
	return internalError(c)
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: msg})
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: true, Message: msg})
}

func internalError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: "Internal server error",
	})
}
