package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/kairanet/kairan-backend/internal/dto"
	"github.com/kairanet/kairan-backend/internal/services"
)

type HouseholdHandler struct {
	households *services.HouseholdService
}

func NewHouseholdHandler(households *services.HouseholdService) *HouseholdHandler {
	return &HouseholdHandler{households: households}
}

func (h *HouseholdHandler) Create(c *fiber.Ctx) error {
	callerID, err := accountID(c)
	if err != nil {
		return unauthorized(c, "Unauthorized")
	}

	var req dto.CreateHouseholdRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	household, err := h.households.Create(c.Context(), callerID, req.Name, req.HeadNickname)
	if err != nil {
		return badRequest(c, err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(household)
}

func (h *HouseholdHandler) AddMember(c *fiber.Ctx) error {
	callerID, err := accountID(c)
	if err != nil {
		return unauthorized(c, "Unauthorized")
	}

	householdID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid household id")
	}

	var req dto.AddMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	member, err := h.households.AddMember(c.Context(), householdID, callerID, req.AccountID, req.Nickname, req.Role)
	if err != nil {
		if errors.Is(err, services.ErrNotAuthorized) {
			return forbidden(c, "Not a member of this household")
		}
		return badRequest(c, err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(member)
}

func (h *HouseholdHandler) RemoveMember(c *fiber.Ctx) error {
	callerID, err := accountID(c)
	if err != nil {
		return unauthorized(c, "Unauthorized")
	}

	householdID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid household id")
	}
	memberID, err := uuid.Parse(c.Params("member_id"))
	if err != nil {
		return badRequest(c, "Invalid member id")
	}

	if err := h.households.RemoveMember(c.Context(), householdID, memberID, callerID); err != nil {
		if errors.Is(err, services.ErrNotAuthorized) {
			return forbidden(c, "Not a member of this household")
		}
		return internalError(c)
	}
	return c.JSON(fiber.Map{"removed": true})
}

func (h *HouseholdHandler) Members(c *fiber.Ctx) error {
	callerID, err := accountID(c)
	if err != nil {
		return unauthorized(c, "Unauthorized")
	}

	householdID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid household id")
	}

	members, err := h.households.Members(c.Context(), householdID, callerID)
	if err != nil {
		if errors.Is(err, services.ErrNotAuthorized) {
			return forbidden(c, "Not a member of this household")
		}
		return internalError(c)
	}
	return c.JSON(fiber.Map{"members": members})
}
