package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/influencer-marketplace/backend/internal/auth"
	"github.com/influencer-marketplace/backend/internal/models"
	"github.com/influencer-marketplace/backend/internal/rbac"
	"go.uber.org/zap"
)

func newApp() *fiber.App {
	app := fiber.New()
	app.Use(RequestIDMiddleware())
	app.Use(AuthMiddleware("s3cret", zap.NewNop()))
	app.Get("/brand-only", RequirePermission(rbac.PermCreateCampaign), func(c *fiber.Ctx) error {
		return c.SendString(string(GetActor(c).Role))
	})
	app.Post("/review", RequirePermission(rbac.PermReviewContent), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func TestAuthMiddleware(t *testing.T) {
	brandTok, _ := auth.GenerateJWT("s3cret", uuid.New(), models.RoleBrand, time.Hour)
	inflTok, _ := auth.GenerateJWT("s3cret", uuid.New(), models.RoleInfluencer, time.Hour)

	tests := []struct {
		name   string
		header string
		query  string
		want   int
	}{
		{"no token", "", "", http.StatusUnauthorized},
		{"not bearer", "Token " + brandTok, "", http.StatusUnauthorized},
		{"bad token", "Bearer nope", "", http.StatusUnauthorized},
		{"brand", "Bearer " + brandTok, "", http.StatusOK},
		{"query token", "", "?token=" + brandTok, http.StatusOK},
		{"wrong role", "Bearer " + inflTok, "", http.StatusForbidden},
	}
	app := newApp()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/brand-only"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
			if resp.Header.Get("X-Request-ID") == "" {
				t.Errorf("missing X-Request-ID")
			}
		})
	}
}

func TestRequirePermission(t *testing.T) {
	app := newApp()
	tests := []struct {
		role models.Role
		want int
	}{
		{models.RoleAdmin, http.StatusNoContent},
		{models.RoleBrand, http.StatusForbidden},
		{models.RoleInfluencer, http.StatusForbidden},
	}
	for _, tt := range tests {
		tok, _ := auth.GenerateJWT("s3cret", uuid.New(), tt.role, time.Hour)
		req := httptest.NewRequest(http.MethodPost, "/review", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		if resp.StatusCode != tt.want {
			t.Errorf("%s review = %d, want %d", tt.role, resp.StatusCode, tt.want)
		}
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	app := fiber.New()
	app.Use(RequestIDMiddleware())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString(GetRequestID(c)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-42")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if got := resp.Header.Get("X-Request-ID"); got != "req-42" {
		t.Errorf("X-Request-ID = %q, want req-42", got)
	}
}
