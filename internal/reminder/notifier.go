package reminder

import (
	"context"
	"time"
)

// Notification is a reminder handed to a Notifier. ID is assigned by the
// Notifier on Schedule.
type Notification struct {
	ID         string    `json:"id"`
	ContractID string    `json:"contractId"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	FireAt     time.Time `json:"fireAt"`
}

// Notifier delivers notifications at a future time.
type Notifier interface {
	// RequestPermission asks whether notifications may be scheduled.
	RequestPermission(ctx context.Context) (bool, error)
	// Schedule registers n and returns its handle.
	Schedule(ctx context.Context, n Notification) (string, error)
	// Cancel removes a scheduled notification. Unknown handles are ignored.
	Cancel(ctx context.Context, id string) error
	// ListScheduled returns every outstanding notification.
	ListScheduled(ctx context.Context) ([]Notification, error)
}
