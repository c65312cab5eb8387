package services

import (
	"context"
	"time"

	"github.com/influencer-marketplace/backend/internal/models"
	"github.com/influencer-marketplace/backend/internal/notify"
	"github.com/influencer-marketplace/backend/internal/workflow"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// NotificationService is the read side shared by all three consoles plus the
// redelivery loop for notifications whose first delivery failed.
type NotificationService struct {
	store      NotificationStore
	dispatcher notify.Dispatcher
	now        func() time.Time
	log        *zap.Logger
}

func NewNotificationService(store NotificationStore, dispatcher notify.Dispatcher, log *zap.Logger) *NotificationService {
	return &NotificationService{
		store:      store,
		dispatcher: dispatcher,
		now:        func() time.Time { return time.Now().UTC() },
		log:        log,
	}
}

func (s *NotificationService) UnreadCount(ctx context.Context, actor models.Actor) (int, error) {
	n, err := s.store.UnreadCount(ctx, actor.UserID, actor.Role)
	return n, storeErr(err)
}

func (s *NotificationService) Recent(ctx context.Context, actor models.Actor, limit int) ([]models.Notification, error) {
	ns, err := s.store.Recent(ctx, actor.UserID, actor.Role, limit)
	if err != nil {
		return nil, storeErr(err)
	}
	return ns, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, actor models.Actor) (int64, error) {
	n, err := s.store.MarkAllRead(ctx, actor.UserID, actor.Role, s.now())
	return n, storeErr(err)
}

// Redeliver re-sends notifications older than minAge that were never
// confirmed delivered. It returns how many were delivered this pass.
func (s *NotificationService) Redeliver(ctx context.Context, minAge time.Duration, batch int) (int, error) {
	pending, err := s.store.ListUndelivered(ctx, s.now().Add(-minAge), batch)
	if err != nil {
		return 0, storeErr(err)
	}
	if len(pending) == 0 {
		return 0, nil
	}
	failed := deliverAll(ctx, s.dispatcher, s.store, pending, s.now, s.log)
	delivered := len(pending) - len(failed)
	s.log.Info("notification redelivery pass",
		zap.Int("pending", len(pending)),
		zap.Int("delivered", delivered))
	return delivered, nil
}

func renderNotification(catalog *notify.Catalog, n *models.Notification, c *models.Campaign, profile *models.Influencer, log *zap.Logger) {
	if catalog == nil {
		n.Title, n.Message = n.Type, n.Type
		return
	}
	if err := catalog.Render(n, c, profile); err != nil {
		log.Warn("notification copy not rendered", zap.String("type", n.Type), zap.Error(err))
		n.Title, n.Message = n.Type, n.Type
	}
}

// deliverAll sends each notification and marks the delivered ones. A failed
// send leaves the row pending and is returned as a warning.
func deliverAll(ctx context.Context, d notify.Dispatcher, store NotificationStore, ns []models.Notification, now func() time.Time, log *zap.Logger) []error {
	var warnings []error
	for _, n := range ns {
		if err := d.Send(ctx, n); err != nil {
			log.Warn("notification delivery failed",
				zap.String("notification_id", n.ID.String()),
				zap.String("user_id", n.UserID.String()),
				zap.String("type", n.Type),
				zap.Error(err))
			warnings = append(warnings, &workflow.DeliveryError{
				NotificationID: n.ID.String(),
				UserID:         n.UserID.String(),
				Type:           n.Type,
				Err:            err,
			})
			continue
		}
		if err := store.MarkDelivered(ctx, n.ID, now()); err != nil {
			log.Warn("notification delivered but not marked", zap.String("notification_id", n.ID.String()), zap.Error(err))
		}
	}
	return warnings
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
