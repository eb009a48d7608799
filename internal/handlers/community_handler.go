package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/kairanet/kairan-backend/internal/dto"
	"github.com/kairanet/kairan-backend/internal/services"
)

type CommunityHandler struct {
	communities *services.CommunityService
}

func NewCommunityHandler(communities *services.CommunityService) *CommunityHandler {
	return &CommunityHandler{communities: communities}
}

func (h *CommunityHandler) Create(c *fiber.Ctx) error {
	callerID, err := accountID(c)
	if err != nil {
		return unauthorized(c, "Unauthorized")
	}

	var req dto.CreateCommunityRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	community, err := h.communities.Create(c.Context(), callerID, req.Name, req.Description, req.Area)
	if err != nil {
		return badRequest(c, err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(community)
}

func (h *CommunityHandler) Join(c *fiber.Ctx) error {
	callerID, err := accountID(c)
	if err != nil {
		return unauthorized(c, "Unauthorized")
	}

	communityID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid community id")
	}

	if err := h.communities.Join(c.Context(), communityID, callerID); err != nil {
		if errors.Is(err, services.ErrCommunityNotFound) {
			return notFound(c, "Community not found")
		}
		return internalError(c)
	}
	return c.JSON(fiber.Map{"joined": true})
}

func (h *CommunityHandler) Leave(c *fiber.Ctx) error {
	callerID, err := accountID(c)
	if err != nil {
		return unauthorized(c, "Unauthorized")
	}

	communityID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid community id")
	}

	if err := h.communities.Leave(c.Context(), communityID, callerID); err != nil {
		return internalError(c)
	}
	return c.JSON(fiber.Map{"left": true})
}

func (h *CommunityHandler) List(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)

	communities, total, err := h.communities.List(c.Context(), page, limit)
	if err != nil {
		return internalError(c)
	}
	return c.JSON(fiber.Map{
		"communities": communities,
		"total":       total,
		"page":        page,
	})
}
