package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/kairanet/kairan-backend/internal/dto"
	"github.com/kairanet/kairan-backend/internal/models"
	"github.com/kairanet/kairan-backend/internal/repository"
	"github.com/kairanet/kairan-backend/internal/services"
)

type NoticeHandler struct {
	notices     *services.NoticeService
	receipts    *services.ReceiptService
	communities *services.CommunityService
	accounts    repository.AccountRepository
}

func NewNoticeHandler(
	notices *services.NoticeService,
	receipts *services.ReceiptService,
	communities *services.CommunityService,
	accounts repository.AccountRepository,
) *NoticeHandler {
	return &NoticeHandler{
		notices:     notices,
		receipts:    receipts,
		communities: communities,
		accounts:    accounts,
	}
}

func (h *NoticeHandler) Create(c *fiber.Ctx) error {
	callerID, err := accountID(c)
	if err != nil {
		return unauthorized(c, "Unauthorized")
	}

	var req dto.CreateNoticeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := h.authorizeAuthor(c, callerID, &req); err != nil {
		return err
	}

	notice, err := h.notices.Create(c.Context(), callerID, services.CreateNoticeInput{
		Title:       req.Title,
		Content:     req.Content,
		Area:        req.Area,
		CommunityID: req.CommunityID,
	})
	if err != nil {
		if errors.Is(err, services.ErrNoticeInvalid) {
			return badRequest(c, err.Error())
		}
		return internalError(c)
	}

	return c.Status(fiber.StatusCreated).JSON(notice)
}

// authorizeAuthor enforces who may publish: area notices need a chokai
// leader or admin; community notices need a community admin or sub-admin.
func (h *NoticeHandler) authorizeAuthor(c *fiber.Ctx, callerID uuid.UUID, req *dto.CreateNoticeRequest) error {
	role := accountRole(c)

	if req.CommunityID != nil {
		memberRole, err := h.communities.MemberRole(c.Context(), *req.CommunityID, callerID)
		if err != nil {
			return internalError(c)
		}
		if memberRole == models.CommunityRoleAdmin || memberRole == models.CommunityRoleSubAdmin || role == models.RoleAdmin {
			return nil
		}
		return forbidden(c, "Community admin access required")
	}

	if role == models.RoleChokaiLeader || role == models.RoleAdmin {
		return nil
	}
	return forbidden(c, "Area leader access required")
}

func (h *NoticeHandler) List(c *fiber.Ctx) error {
	callerID, err := accountID(c)
	if err != nil {
		return unauthorized(c, "Unauthorized")
	}

	account, err := h.accounts.FindByID(c.Context(), callerID)
	if err != nil {
		return unauthorized(c, "Unauthorized")
	}

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)

	notices, total, err := h.notices.ListForViewer(c.Context(), account, page, limit)
	if err != nil {
		return internalError(c)
	}

	return c.JSON(fiber.Map{
		"notices": notices,
		"total":   total,
		"page":    page,
	})
}

func (h *NoticeHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid notice id")
	}

	notice, err := h.notices.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "Notice not found")
		}
		return internalError(c)
	}
	return c.JSON(notice)
}

func (h *NoticeHandler) MarkRead(c *fiber.Ctx) error {
	callerID, err := accountID(c)
	if err != nil {
		return unauthorized(c, "Unauthorized")
	}

	noticeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid notice id")
	}

	var req dto.MarkReadRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return badRequest(c, "Invalid request body")
	}

	if err := h.receipts.MarkRead(c.Context(), noticeID, callerID, req.MemberIDs); err != nil {
		switch {
		case errors.Is(err, services.ErrNotAuthorized):
			return forbidden(c, "Cannot mark read for members outside your household")
		case errors.Is(err, repository.ErrNotFound):
			return notFound(c, "Notice not found")
		default:
			return internalError(c)
		}
	}

	return c.JSON(fiber.Map{"marked": true})
}

// ReadCount returns the authoritative receipt count for a notice: distinct
// receipt rows across all viewers, independent of the denormalized
// aggregate on the notice row.
func (h *NoticeHandler) ReadCount(c *fiber.Ctx) error {
	noticeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid notice id")
	}

	if _, err := h.notices.Get(c.Context(), noticeID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "Notice not found")
		}
		return internalError(c)
	}

	count, err := h.receipts.Count(c.Context(), noticeID)
	if err != nil {
		return internalError(c)
	}
	return c.JSON(fiber.Map{"count": count})
}

func (h *NoticeHandler) ReadStatus(c *fiber.Ctx) error {
	callerID, err := accountID(c)
	if err != nil {
		return unauthorized(c, "Unauthorized")
	}

	noticeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid notice id")
	}

	status, err := h.receipts.Status(c.Context(), noticeID, callerID)
	if err != nil {
		return internalError(c)
	}
	return c.JSON(status)
}

func forbidden(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Error: true, Message: msg})
}

func notFound(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: true, Message: msg})
}
