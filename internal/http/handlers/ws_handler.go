package handlers

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/influencer-marketplace/backend/internal/events"
	"github.com/influencer-marketplace/backend/internal/middleware"
	"github.com/influencer-marketplace/backend/internal/models"
	"github.com/influencer-marketplace/backend/internal/services"
	"go.uber.org/zap"
)

// wsClient serializes writes; websocket connections allow one writer at a time.
type wsClient struct {
	conn  *websocket.Conn
	actor models.Actor
	mu    sync.Mutex
}

func (c *wsClient) send(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.WriteMessage(websocket.TextMessage, data)
}

// WSHub pushes notifications to their recipient and, when the client asks
// for a campaign, the engagement changes of that campaign.
type WSHub struct {
	subscriber  events.Subscriber
	engagements *services.EngagementService
	log         *zap.Logger
	mu          sync.RWMutex
	connections map[uuid.UUID][]*wsClient
}

func NewWSHub(subscriber events.Subscriber, engagements *services.EngagementService, log *zap.Logger) *WSHub {
	return &WSHub{
		subscriber:  subscriber,
		engagements: engagements,
		log:         log,
		connections: make(map[uuid.UUID][]*wsClient),
	}
}

func (h *WSHub) Start(ctx context.Context) error {
	return h.subscriber.Subscribe(ctx, events.StreamNotifications, h.deliverNotification)
}

func (h *WSHub) deliverNotification(event events.Event) {
	raw, _ := event.Payload["user_id"].(string)
	userID, err := uuid.Parse(raw)
	if err != nil {
		return
	}
	role, _ := event.Payload["role"].(string)

	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.connections[userID] {
		if string(client.actor.Role) == role {
			client.send(data)
		}
	}
}

// WSUpgradeMiddleware checks for websocket upgrade
func WSUpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

// HandleWS runs after AuthMiddleware, so the actor is in the connection locals.
func (h *WSHub) HandleWS(conn *websocket.Conn) {
	actor, _ := conn.Locals(middleware.CtxActor).(models.Actor)
	if actor.UserID == uuid.Nil {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
		conn.Close()
		return
	}
	client := &wsClient{conn: conn, actor: actor}

	ctx, cancel := context.WithCancel(context.Background())
	h.register(client)
	defer func() {
		cancel()
		h.unregister(client)
		conn.Close()
	}()

	if raw := conn.Query("campaign_id"); raw != "" {
		campaignID, err := uuid.Parse(raw)
		if err != nil {
			client.send([]byte(`{"error":"invalid campaign_id"}`))
			return
		}
		err = h.engagements.Subscribe(ctx, actor, campaignID, func(event events.Event) {
			if data, err := json.Marshal(event); err == nil {
				client.send(data)
			}
		})
		if err != nil {
			h.log.Debug("campaign subscription refused", zap.String("campaign_id", raw), zap.Error(err))
			client.send([]byte(`{"error":"subscription refused"}`))
			return
		}
	}

	// Read loop (keep alive / pings)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (h *WSHub) register(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[c.actor.UserID] = append(h.connections[c.actor.UserID], c)
}

func (h *WSHub) unregister(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := c.actor.UserID
	conns := h.connections[id]
	for i, existing := range conns {
		if existing == c {
			h.connections[id] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(h.connections[id]) == 0 {
		delete(h.connections, id)
	}
}
