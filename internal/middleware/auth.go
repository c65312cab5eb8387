package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/influencer-marketplace/backend/internal/auth"
	"github.com/influencer-marketplace/backend/internal/models"
	"github.com/influencer-marketplace/backend/internal/rbac"
	"go.uber.org/zap"
)

const CtxActor = "actor"

// AuthMiddleware turns the bearer token into the caller's models.Actor.
// Websocket upgrades cannot set headers from browsers, so a token query
// parameter is accepted there.
func AuthMiddleware(secret string, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := bearerToken(c)
		if tokenStr == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing authorization header"})
		}

		claims, err := auth.ParseJWT(secret, tokenStr)
		if err != nil {
			log.Debug("jwt parse error", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid or expired token"})
		}

		c.Locals(CtxActor, claims.Actor())
		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) string {
	if h := c.Get("Authorization"); h != "" {
		tok := strings.TrimPrefix(h, "Bearer ")
		if tok == h {
			return ""
		}
		return strings.TrimSpace(tok)
	}
	return c.Query("token")
}

func GetActor(c *fiber.Ctx) models.Actor {
	a, _ := c.Locals(CtxActor).(models.Actor)
	return a
}

// RequirePermission rejects callers whose role lacks perm.
func RequirePermission(perm string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !rbac.HasPermission(GetActor(c).Role, perm) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "permission denied"})
		}
		return c.Next()
	}
}
