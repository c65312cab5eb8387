package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/influencer-marketplace/backend/internal/http/dto"
	"github.com/influencer-marketplace/backend/internal/models"
)

type MetaHandler struct{}

func NewMetaHandler() *MetaHandler {
	return &MetaHandler{}
}

type MetaNiche struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

var predefinedNiches = []MetaNiche{
	{ID: "fashion", Label: "Fashion & Style"},
	{ID: "beauty", Label: "Beauty & Skincare"},
	{ID: "food", Label: "Food & Cooking"},
	{ID: "travel", Label: "Travel"},
	{ID: "fitness", Label: "Health & Fitness"},
	{ID: "tech", Label: "Technology"},
	{ID: "gaming", Label: "Gaming"},
	{ID: "finance", Label: "Personal Finance"},
	{ID: "education", Label: "Education"},
	{ID: "parenting", Label: "Parenting"},
	{ID: "lifestyle", Label: "Lifestyle"},
	{ID: "music", Label: "Music"},
	{ID: "comedy", Label: "Comedy & Entertainment"},
	{ID: "sports", Label: "Sports"},
	{ID: "home", Label: "Home & Decor"},
	{ID: "automotive", Label: "Automotive"},
	{ID: "pets", Label: "Pets"},
	{ID: "other", Label: "Other"},
}

func (h *MetaHandler) GetNiches(c *fiber.Ctx) error {
	return c.JSON(dto.SuccessResponse{OK: true, Data: predefinedNiches})
}

type metaStatus struct {
	ID       string `json:"id"`
	Terminal bool   `json:"terminal"`
}

// GetEngagementStatuses lists workflow states for console filters.
func (h *MetaHandler) GetEngagementStatuses(c *fiber.Ctx) error {
	out := make([]metaStatus, 0, len(models.AllEngagementStatuses))
	for _, s := range models.AllEngagementStatuses {
		out = append(out, metaStatus{ID: string(s), Terminal: models.IsTerminal(s)})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: out})
}
