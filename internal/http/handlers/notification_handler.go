package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/influencer-marketplace/backend/internal/http/dto"
	"github.com/influencer-marketplace/backend/internal/middleware"
	"github.com/influencer-marketplace/backend/internal/services"
	"go.uber.org/zap"
)

type NotificationHandler struct {
	notificationService *services.NotificationService
	log                 *zap.Logger
}

func NewNotificationHandler(notificationService *services.NotificationService, log *zap.Logger) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService, log: log}
}

func (h *NotificationHandler) List(c *fiber.Ctx) error {
	ns, err := h.notificationService.Recent(c.UserContext(), middleware.GetActor(c), queryInt(c, "limit", 50))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return ok(c, ns, nil)
}

func (h *NotificationHandler) UnreadCount(c *fiber.Ctx) error {
	n, err := h.notificationService.UnreadCount(c.UserContext(), middleware.GetActor(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return ok(c, dto.UnreadCountResponse{Unread: n}, nil)
}

func (h *NotificationHandler) ReadAll(c *fiber.Ctx) error {
	n, err := h.notificationService.MarkAllRead(c.UserContext(), middleware.GetActor(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return ok(c, fiber.Map{"marked": n}, nil)
}
