package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/influencer-marketplace/backend/internal/http/dto"
	"github.com/influencer-marketplace/backend/internal/middleware"
	"github.com/influencer-marketplace/backend/internal/repositories"
	"github.com/influencer-marketplace/backend/internal/services"
	"go.uber.org/zap"
)

type CampaignHandler struct {
	campaignService *services.CampaignService
	log             *zap.Logger
}

func NewCampaignHandler(campaignService *services.CampaignService, log *zap.Logger) *CampaignHandler {
	return &CampaignHandler{campaignService: campaignService, log: log}
}

func (h *CampaignHandler) CreateCampaign(c *fiber.Ctx) error {
	var req dto.CreateCampaignRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	res, err := h.campaignService.Create(c.UserContext(), middleware.GetActor(c), services.CampaignInput{
		Name:                req.Name,
		Description:         req.Description,
		Niches:              req.Niches,
		Deliverables:        req.Deliverables,
		RequiredSubmissions: req.RequiredSubmissions,
		Timeline:            req.Timeline,
		BasePayout:          req.BasePayout,
		Currency:            req.Currency,
		CanNegotiate:        req.CanNegotiate,
		Eligibility:         req.Eligibility,
		Status:              req.Status,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}

	c.Status(fiber.StatusCreated)
	return ok(c, dto.CampaignCreatedResponse{Campaign: res.Campaign, Notified: res.Notified}, res.Warnings)
}

func (h *CampaignHandler) GetCampaign(c *fiber.Ctx) error {
	id, valid := paramUUID(c, "id")
	if !valid {
		return badRequest(c, "invalid campaign id")
	}
	campaign, err := h.campaignService.Get(c.UserContext(), middleware.GetActor(c), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return ok(c, campaign, nil)
}

// ListCampaigns: influencers get the active campaigns they can engage with,
// brands their own, admins everything.
func (h *CampaignHandler) ListCampaigns(c *fiber.Ctx) error {
	filter := repositories.CampaignFilter{
		Limit:  queryInt(c, "limit", 20),
		Offset: queryInt(c, "offset", 0),
	}
	if v := c.Query("status"); v != "" {
		filter.Status = &v
	}

	campaigns, err := h.campaignService.List(c.UserContext(), middleware.GetActor(c), filter)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return ok(c, campaigns, nil)
}

func (h *CampaignHandler) UpdateStatus(c *fiber.Ctx) error {
	id, valid := paramUUID(c, "id")
	if !valid {
		return badRequest(c, "invalid campaign id")
	}
	var req dto.UpdateCampaignStatusRequest
	if err := c.BodyParser(&req); err != nil || req.Status == "" {
		return badRequest(c, "status is required")
	}

	res, err := h.campaignService.UpdateStatus(c.UserContext(), middleware.GetActor(c), id, req.Status)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return ok(c, dto.CampaignCreatedResponse{Campaign: res.Campaign, Notified: res.Notified}, res.Warnings)
}

func (h *CampaignHandler) Eligibility(c *fiber.Ctx) error {
	id, valid := paramUUID(c, "id")
	if !valid {
		return badRequest(c, "invalid campaign id")
	}
	rep, err := h.campaignService.Eligibility(c.UserContext(), middleware.GetActor(c), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return ok(c, rep, nil)
}
