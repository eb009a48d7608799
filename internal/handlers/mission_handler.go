package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/kairanet/kairan-backend/internal/dto"
	"github.com/kairanet/kairan-backend/internal/models"
	"github.com/kairanet/kairan-backend/internal/services"
)

type MissionHandler struct {
	missions *services.MissionService
}

func NewMissionHandler(missions *services.MissionService) *MissionHandler {
	return &MissionHandler{missions: missions}
}

func (h *MissionHandler) Create(c *fiber.Ctx) error {
	callerID, err := accountID(c)
	if err != nil {
		return unauthorized(c, "Unauthorized")
	}

	role := accountRole(c)
	if role != models.RoleChokaiLeader && role != models.RoleAdmin && role != models.RoleBusiness {
		return forbidden(c, "Leader, business, or admin access required")
	}

	var req dto.CreateMissionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		return badRequest(c, "starts_at must be RFC3339")
	}
	endsAt, err := time.Parse(time.RFC3339, req.EndsAt)
	if err != nil {
		return badRequest(c, "ends_at must be RFC3339")
	}

	mission, err := h.missions.Create(c.Context(), callerID, &models.Mission{
		Title:       req.Title,
		Description: req.Description,
		Area:        req.Area,
		Capacity:    req.Capacity,
		RewardScore: req.RewardScore,
		StartsAt:    startsAt,
		EndsAt:      endsAt,
	})
	if err != nil {
		return badRequest(c, err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(mission)
}

func (h *MissionHandler) List(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)

	missions, total, err := h.missions.List(c.Context(), c.Query("area"), page, limit)
	if err != nil {
		return internalError(c)
	}
	return c.JSON(fiber.Map{
		"missions": missions,
		"total":    total,
		"page":     page,
	})
}

func (h *MissionHandler) Join(c *fiber.Ctx) error {
	callerID, err := accountID(c)
	if err != nil {
		return unauthorized(c, "Unauthorized")
	}

	missionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid mission id")
	}

	if err := h.missions.Join(c.Context(), missionID, callerID); err != nil {
		switch {
		case errors.Is(err, services.ErrMissionNotFound):
			return notFound(c, "Mission not found")
		case errors.Is(err, services.ErrMissionFull):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: "Mission is at capacity",
			})
		case errors.Is(err, services.ErrAlreadyJoined):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: "Already joined this mission",
			})
		default:
			return internalError(c)
		}
	}
	return c.JSON(fiber.Map{"joined": true})
}

func (h *MissionHandler) Leave(c *fiber.Ctx) error {
	callerID, err := accountID(c)
	if err != nil {
		return unauthorized(c, "Unauthorized")
	}

	missionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid mission id")
	}

	if err := h.missions.Leave(c.Context(), missionID, callerID); err != nil {
		return internalError(c)
	}
	return c.JSON(fiber.Map{"left": true})
}
