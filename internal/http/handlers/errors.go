package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/influencer-marketplace/backend/internal/http/dto"
	"github.com/influencer-marketplace/backend/internal/middleware"
	"github.com/influencer-marketplace/backend/internal/services"
	"github.com/influencer-marketplace/backend/internal/workflow"
	"go.uber.org/zap"
)

// writeError maps service and workflow errors onto HTTP statuses.
// Invalid transitions get a generic message; the details are logged.
func writeError(c *fiber.Ctx, log *zap.Logger, err error) error {
	status, msg := fiber.StatusInternalServerError, "internal error"
	var pe *workflow.PreconditionError

	switch {
	case errors.As(err, &pe):
		status, msg = fiber.StatusConflict, pe.Reason
	case errors.Is(err, workflow.ErrPreconditionFailed):
		status, msg = fiber.StatusConflict, err.Error()
	case errors.Is(err, workflow.ErrInvalidTransition):
		status, msg = fiber.StatusUnprocessableEntity, "action not allowed in the current state"
	case errors.Is(err, services.ErrInvalidInput):
		status, msg = fiber.StatusBadRequest, err.Error()
	case errors.Is(err, services.ErrNotFound):
		status, msg = fiber.StatusNotFound, "not found"
	case errors.Is(err, services.ErrForbidden):
		status, msg = fiber.StatusForbidden, "forbidden"
	case errors.Is(err, workflow.ErrStoreUnavailable), errors.Is(err, context.DeadlineExceeded):
		status, msg = fiber.StatusServiceUnavailable, "temporarily unavailable, retry"
		c.Set("Retry-After", "1")
	}

	fields := []zap.Field{zap.String("request_id", middleware.GetRequestID(c)), zap.Int("status", status), zap.Error(err)}
	if status >= fiber.StatusInternalServerError {
		log.Error("request failed", fields...)
	} else {
		log.Debug("request rejected", fields...)
	}
	return c.Status(status).JSON(dto.ErrorResponse{Error: msg, RequestID: middleware.GetRequestID(c)})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: msg, RequestID: middleware.GetRequestID(c)})
}

func ok(c *fiber.Ctx, data any, warnings []error) error {
	resp := dto.SuccessResponse{OK: true, Data: data}
	for _, w := range warnings {
		resp.Warnings = append(resp.Warnings, w.Error())
	}
	return c.JSON(resp)
}

func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	return id, err == nil
}

func queryInt(c *fiber.Ctx, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
