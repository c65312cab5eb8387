package http

import (
	"context"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/influencer-marketplace/backend/internal/http/handlers"
	"github.com/influencer-marketplace/backend/internal/middleware"
	"github.com/influencer-marketplace/backend/internal/models"
	"github.com/influencer-marketplace/backend/internal/rbac"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type RouterConfig struct {
	JWTSecret          string
	AllowedOrigins     string
	RateLimitPerMinute int
	// Redis enables rate limiting; nil disables it.
	Redis *redis.Client
	// Health reports store readiness.
	Health func(ctx context.Context) error
}

type Handlers struct {
	Users         *handlers.UserHandler
	Campaigns     *handlers.CampaignHandler
	Engagements   *handlers.EngagementHandler
	Notifications *handlers.NotificationHandler
	WS            *handlers.WSHub
}

func SetupRouter(app *fiber.App, cfg RouterConfig, log *zap.Logger, h Handlers) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		if cfg.Health != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := cfg.Health(ctx); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "error": err.Error()})
			}
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")

	// Meta (public, no auth required)
	metaHandler := handlers.NewMetaHandler()
	api.Get("/meta/niches", metaHandler.GetNiches)
	api.Get("/meta/engagement-statuses", metaHandler.GetEngagementStatuses)

	// Protected endpoints
	protected := api.Group("", middleware.AuthMiddleware(cfg.JWTSecret, log))
	if cfg.Redis != nil {
		protected.Use(middleware.RateLimitMiddleware(cfg.Redis, cfg.RateLimitPerMinute, time.Minute))
	}

	perm := middleware.RequirePermission

	// User
	protected.Get("/me", h.Users.GetMe)
	protected.Post("/me/ping", h.Users.Ping)
	protected.Get("/me/engagements", perm(rbac.PermApply), h.Engagements.ListMine)

	// Campaigns
	protected.Post("/campaigns", perm(rbac.PermCreateCampaign), h.Campaigns.CreateCampaign)
	protected.Get("/campaigns", h.Campaigns.ListCampaigns)
	protected.Get("/campaigns/:id", h.Campaigns.GetCampaign)
	protected.Put("/campaigns/:id/status", perm(rbac.PermManageCampaign), h.Campaigns.UpdateStatus)
	protected.Get("/campaigns/:id/eligibility", perm(rbac.PermApply), h.Campaigns.Eligibility)

	// Engagements of a campaign
	protected.Post("/campaigns/:id/apply", perm(rbac.PermApply), h.Engagements.Apply)
	protected.Get("/campaigns/:id/engagements", perm(rbac.PermSelectApplicants), h.Engagements.ListForCampaign)
	protected.Get("/campaigns/:id/engagements/export.csv", perm(rbac.PermExport), h.Engagements.ExportCSV)
	protected.Post("/campaigns/:id/shortlist", perm(rbac.PermSelectApplicants), h.Engagements.BulkSelect)

	// Engagement workflow. The route permission is coarse; the transition
	// table still decides which role may fire the event from the row's status.
	protected.Get("/engagements/:id", h.Engagements.GetEngagement)
	protected.Get("/engagements/:id/submissions", h.Engagements.Submissions)
	protected.Get("/engagements/:id/events", h.Engagements.Events)
	protected.Delete("/engagements/:id", perm(rbac.PermApply), h.Engagements.Transition(models.EventLeave))
	for _, r := range []struct {
		path  string
		event models.Event
		perm  string
	}{
		{"shortlist", models.EventShortlist, rbac.PermSelectApplicants},
		{"decline", models.EventDecline, rbac.PermSelectApplicants},
		{"accept-base", models.EventAcceptBase, rbac.PermApply},
		{"negotiate", models.EventNegotiate, rbac.PermNegotiate},
		{"counter", models.EventCounter, rbac.PermNegotiate},
		{"accept-offer", models.EventAcceptOffer, rbac.PermNegotiate},
		{"reject-offer", models.EventRejectOffer, rbac.PermNegotiate},
		{"accept-counter", models.EventAcceptCounter, rbac.PermNegotiate},
		{"sign-contract", models.EventSignContract, rbac.PermApply},
		{"submit-content", models.EventSubmitContent, rbac.PermSubmitContent},
		{"approve-content", models.EventApproveContent, rbac.PermReviewContent},
		{"reject-content", models.EventRejectContent, rbac.PermReviewContent},
	} {
		protected.Post("/engagements/:id/"+r.path, perm(r.perm), h.Engagements.Transition(r.event))
	}

	// Notifications
	protected.Get("/notifications", h.Notifications.List)
	protected.Get("/notifications/unread-count", h.Notifications.UnreadCount)
	protected.Post("/notifications/read-all", h.Notifications.ReadAll)

	// WebSocket
	app.Use("/ws", handlers.WSUpgradeMiddleware(), middleware.AuthMiddleware(cfg.JWTSecret, log))
	app.Get("/ws", websocket.New(h.WS.HandleWS))
}
