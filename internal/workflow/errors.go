package workflow

import (
	"errors"
	"fmt"

	"github.com/influencer-marketplace/backend/internal/models"
)

// Error classes. Callers test with errors.Is.
var (
	// ErrPreconditionFailed: the engagement or campaign is not in a state that
	// permits the action. Safe to show to the user; never retried.
	ErrPreconditionFailed = errors.New("precondition failed")
	// ErrInvalidTransition: no table row for (status, event, role).
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrNotificationDeliveryFailed: the transition committed but a notification
	// could not be delivered. Reported as a warning.
	ErrNotificationDeliveryFailed = errors.New("notification delivery failed")
	// ErrStoreUnavailable: the store call failed; the transition was not applied
	// and the request may be retried as is.
	ErrStoreUnavailable = errors.New("store unavailable")
)

type TransitionError struct {
	From  models.EngagementStatus
	Event models.Event
	Role  models.Role
}

func (e *TransitionError) Error() string {
	from := string(e.From)
	if from == "" {
		from = "none"
	}
	return fmt.Sprintf("invalid transition: %s by %s from status %s", e.Event, e.Role, from)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return "precondition failed: " + e.Reason
}

func (e *PreconditionError) Unwrap() error { return ErrPreconditionFailed }

func Preconditionf(format string, args ...any) error {
	return &PreconditionError{Reason: fmt.Sprintf(format, args...)}
}

// DeliveryError carries the notification that could not be delivered.
type DeliveryError struct {
	NotificationID string
	UserID         string
	Type           string
	Err            error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("notification %s (%s) to user %s not delivered: %v", e.NotificationID, e.Type, e.UserID, e.Err)
}

func (e *DeliveryError) Unwrap() []error { return []error{ErrNotificationDeliveryFailed, e.Err} }

// StoreUnavailable tags a persistence failure as retryable.
func StoreUnavailable(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}
