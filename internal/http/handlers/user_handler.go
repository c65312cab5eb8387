package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/influencer-marketplace/backend/internal/middleware"
	"github.com/influencer-marketplace/backend/internal/models"
	"github.com/influencer-marketplace/backend/internal/services"
	"go.uber.org/zap"
)

type UserHandler struct {
	users       services.UserStore
	influencers services.InfluencerStore
	log         *zap.Logger
}

func NewUserHandler(users services.UserStore, influencers services.InfluencerStore, log *zap.Logger) *UserHandler {
	return &UserHandler{users: users, influencers: influencers, log: log}
}

type meResponse struct {
	User    *models.User       `json:"user"`
	Profile *models.Influencer `json:"profile,omitempty"`
}

func (h *UserHandler) GetMe(c *fiber.Ctx) error {
	actor := middleware.GetActor(c)
	user, err := h.users.GetByID(c.UserContext(), actor.UserID)
	if err != nil {
		return writeError(c, h.log, services.ErrNotFound)
	}
	resp := meResponse{User: user}
	if actor.Role == models.RoleInfluencer {
		if p, err := h.influencers.GetByUserID(c.UserContext(), actor.UserID); err == nil {
			resp.Profile = p
		}
	}
	return ok(c, resp, nil)
}

func (h *UserHandler) Ping(c *fiber.Ctx) error {
	if err := h.users.UpdateLastActive(c.UserContext(), middleware.GetActor(c).UserID); err != nil {
		h.log.Error("failed to update last_active", zap.Error(err))
	}
	return ok(c, nil, nil)
}
