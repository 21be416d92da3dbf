package fleet

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"school_bus_tracker/internal/models"
)

// FailedRecipient records one send that could not be persisted.
type FailedRecipient struct {
	UserID string `json:"user_id"`
	Reason string `json:"reason"`
}

// FanOutResult lists which recipients of one event got a notification.
type FanOutResult struct {
	Message   string            `json:"message"`
	Delivered []string          `json:"delivered"`
	Failed    []FailedRecipient `json:"failed,omitempty"`
}

// Err is nil when every send succeeded. Otherwise it wraps ErrPersistence
// and names the recipients that were missed.
func (r FanOutResult) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	ids := make([]string, 0, len(r.Failed))
	for _, f := range r.Failed {
		ids = append(ids, f.UserID)
	}
	return fmt.Errorf("%w: %d of %d notifications failed (recipients: %s)",
		ErrPersistence, len(r.Failed), len(r.Failed)+len(r.Delivered), strings.Join(ids, ", "))
}

// Notify persists a single unread notification for the recipient.
func (c *Coordinator) Notify(ctx context.Context, recipientUserID, message string) (*models.Notification, error) {
	n := &models.Notification{
		ID:        uuid.NewString(),
		UserID:    recipientUserID,
		Message:   message,
		Read:      false,
		CreatedAt: c.now(),
	}
	if err := c.notifications.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// FanOut sends message to each recipient in order, one independent write per
// recipient. A failed write is logged and recorded; the remaining recipients
// are still notified and nothing already written is rolled back.
func (c *Coordinator) FanOut(ctx context.Context, recipients []string, message string) FanOutResult {
	result := FanOutResult{Message: message, Delivered: []string{}}
	for _, userID := range recipients {
		if _, err := c.Notify(ctx, userID, message); err != nil {
			c.log.WithError(err).WithFields(logrus.Fields{
				"recipient_id": userID,
				"message":      message,
			}).Error("Failed to create notification.")
			result.Failed = append(result.Failed, FailedRecipient{UserID: userID, Reason: err.Error()})
			continue
		}
		result.Delivered = append(result.Delivered, userID)
	}
	return result
}

// parentRecipients collects parent user IDs of the students, first-seen
// order, each user at most once per event.
func parentRecipients(students ...models.Student) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range students {
		for _, p := range s.Parents {
			if p.UserID == "" || seen[p.UserID] {
				continue
			}
			seen[p.UserID] = true
			out = append(out, p.UserID)
		}
	}
	return out
}

// ListNotifications returns the caller's notifications, newest first.
func (c *Coordinator) ListNotifications(ctx context.Context, actor Actor) ([]models.Notification, error) {
	list, err := c.notifications.ListByUser(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("fleet.ListNotifications: %w", err)
	}
	if list == nil {
		return []models.Notification{}, nil
	}
	return list, nil
}

// MarkNotificationRead flags the notification as read. Only the recipient may
// do this; repeating the call is a no-op.
func (c *Coordinator) MarkNotificationRead(ctx context.Context, actor Actor, id string) (*models.Notification, error) {
	n, err := c.notifications.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fleet.MarkNotificationRead: %w", err)
	}
	if n.UserID != actor.UserID {
		return nil, fmt.Errorf("fleet.MarkNotificationRead: %w: notification %s belongs to another user", ErrForbidden, id)
	}
	if n.Read {
		return n, nil
	}
	if err := c.notifications.MarkRead(ctx, id); err != nil {
		return nil, fmt.Errorf("fleet.MarkNotificationRead: %w", err)
	}
	n.Read = true
	return n, nil
}
