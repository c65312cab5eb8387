package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/influencer-marketplace/backend/internal/models"
	"go.uber.org/zap"
)

// PushClient forwards notifications to the external push gateway
// (mobile push, email relay) behind PUSH_WEBHOOK_URL.
type PushClient struct {
	url        string
	httpClient *http.Client
	log        *zap.Logger
}

func NewPushClient(url string, log *zap.Logger) *PushClient {
	return &PushClient{
		url: strings.TrimRight(url, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: log,
	}
}

type pushRequest struct {
	NotificationID string         `json:"notification_id"`
	UserID         string         `json:"user_id"`
	Role           string         `json:"role"`
	Type           string         `json:"type"`
	Title          string         `json:"title"`
	Message        string         `json:"message"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// Send implements notify.Dispatcher, so the bridge and the redelivery worker
// can push directly when no broker sits in between.
func (c *PushClient) Send(ctx context.Context, n models.Notification) error {
	body, err := json.Marshal(pushRequest{
		NotificationID: n.ID.String(),
		UserID:         n.UserID.String(),
		Role:           string(n.Role),
		Type:           n.Type,
		Title:          n.Title,
		Message:        n.Message,
		Metadata:       n.Metadata,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("push gateway unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.log.Warn("push rejected", zap.Int("status", resp.StatusCode), zap.String("notification_id", n.ID.String()))
		return fmt.Errorf("push gateway returned %d: %s", resp.StatusCode, string(b))
	}
	return nil
}
