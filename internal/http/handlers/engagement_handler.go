package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/influencer-marketplace/backend/internal/http/dto"
	"github.com/influencer-marketplace/backend/internal/middleware"
	"github.com/influencer-marketplace/backend/internal/models"
	"github.com/influencer-marketplace/backend/internal/services"
	"go.uber.org/zap"
)

type EngagementHandler struct {
	engagementService *services.EngagementService
	log               *zap.Logger
}

func NewEngagementHandler(engagementService *services.EngagementService, log *zap.Logger) *EngagementHandler {
	return &EngagementHandler{engagementService: engagementService, log: log}
}

func (h *EngagementHandler) Apply(c *fiber.Ctx) error {
	campaignID, valid := paramUUID(c, "id")
	if !valid {
		return badRequest(c, "invalid campaign id")
	}
	res, err := h.engagementService.Apply(c.UserContext(), middleware.GetActor(c), campaignID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	c.Status(fiber.StatusCreated)
	return ok(c, res.Engagement, res.Warnings)
}

func (h *EngagementHandler) ListForCampaign(c *fiber.Ctx) error {
	campaignID, valid := paramUUID(c, "id")
	if !valid {
		return badRequest(c, "invalid campaign id")
	}
	var status *models.EngagementStatus
	if v := c.Query("status"); v != "" {
		if !models.IsValidEngagementStatus(v) {
			return badRequest(c, "unknown status")
		}
		s := models.EngagementStatus(v)
		status = &s
	}
	rows, err := h.engagementService.ListForCampaign(c.UserContext(), middleware.GetActor(c), campaignID, status)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return ok(c, rows, nil)
}

func (h *EngagementHandler) ListMine(c *fiber.Ctx) error {
	rows, err := h.engagementService.ListMine(c.UserContext(), middleware.GetActor(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return ok(c, rows, nil)
}

// BulkSelect shortlists the listed applications and declines the other
// pending ones.
func (h *EngagementHandler) BulkSelect(c *fiber.Ctx) error {
	campaignID, valid := paramUUID(c, "id")
	if !valid {
		return badRequest(c, "invalid campaign id")
	}
	var req dto.BulkSelectRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	selected := make([]uuid.UUID, 0, len(req.SelectedIDs))
	for _, raw := range req.SelectedIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return badRequest(c, "invalid engagement id "+raw)
		}
		selected = append(selected, id)
	}

	res, err := h.engagementService.BulkSelect(c.UserContext(), middleware.GetActor(c), campaignID, selected)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return ok(c, dto.BulkSelectResponse{Shortlisted: res.Shortlisted, Declined: res.Declined}, res.Warnings)
}

func (h *EngagementHandler) ExportCSV(c *fiber.Ctx) error {
	campaignID, valid := paramUUID(c, "id")
	if !valid {
		return badRequest(c, "invalid campaign id")
	}
	csv, err := h.engagementService.ExportEngagementsCSV(c.UserContext(), middleware.GetActor(c), campaignID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="engagements-`+campaignID.String()+`.csv"`)
	return c.SendString(csv + "\n")
}

func (h *EngagementHandler) GetEngagement(c *fiber.Ctx) error {
	id, valid := paramUUID(c, "id")
	if !valid {
		return badRequest(c, "invalid engagement id")
	}
	e, err := h.engagementService.Get(c.UserContext(), middleware.GetActor(c), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return ok(c, e, nil)
}

func (h *EngagementHandler) Submissions(c *fiber.Ctx) error {
	id, valid := paramUUID(c, "id")
	if !valid {
		return badRequest(c, "invalid engagement id")
	}
	subs, err := h.engagementService.Submissions(c.UserContext(), middleware.GetActor(c), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return ok(c, subs, nil)
}

func (h *EngagementHandler) Events(c *fiber.Ctx) error {
	id, valid := paramUUID(c, "id")
	if !valid {
		return badRequest(c, "invalid engagement id")
	}
	logs, err := h.engagementService.History(c.UserContext(), middleware.GetActor(c), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return ok(c, logs, nil)
}

// Transition returns the handler for one workflow event on an engagement.
func (h *EngagementHandler) Transition(event models.Event) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, valid := paramUUID(c, "id")
		if !valid {
			return badRequest(c, "invalid engagement id")
		}
		var req dto.TransitionRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return badRequest(c, "invalid request")
			}
		}
		res, err := h.engagementService.Transition(c.UserContext(), middleware.GetActor(c), id, services.Action{
			Event:  event,
			Amount: req.Amount,
			Note:   req.Note,
			Links:  req.Links,
		})
		if err != nil {
			return writeError(c, h.log, err)
		}
		if res.Deleted {
			return ok(c, fiber.Map{"deleted": true, "id": res.Engagement.ID}, res.Warnings)
		}
		return ok(c, res.Engagement, res.Warnings)
	}
}
