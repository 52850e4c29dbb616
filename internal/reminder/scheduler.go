package reminder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/theirongolddev/koshin/internal/model"
)

// Scheduler applies the reminder policy on top of a Notifier.
type Scheduler struct {
	notifier Notifier
	log      *zap.Logger
	now      func() time.Time

	mu         sync.Mutex
	permission *bool
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// NewScheduler returns a Scheduler over n. A nil logger discards output.
func NewScheduler(n Notifier, log *zap.Logger, opts ...Option) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Scheduler{notifier: n, log: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Permitted requests notification permission on first use and caches the
// answer for the life of the Scheduler.
func (s *Scheduler) Permitted(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.permission != nil {
		return *s.permission, nil
	}
	granted, err := s.notifier.RequestPermission(ctx)
	if err != nil {
		return false, fmt.Errorf("requesting notification permission: %w", err)
	}
	s.permission = &granted
	return granted, nil
}

// Schedule registers a reminder for c and returns its handle. The handle is
// empty when the fire time has already passed or permission was denied.
func (s *Scheduler) Schedule(ctx context.Context, c model.Contract) (string, error) {
	fire, ok := ComputeFireTime(c, s.now())
	if !ok {
		s.log.Debug("reminder time already passed, not scheduling",
			zap.String("op", "reminder.Schedule"),
			zap.String("contract_id", c.ID),
		)
		return "", nil
	}

	granted, err := s.Permitted(ctx)
	if err != nil {
		return "", err
	}
	if !granted {
		s.log.Debug("notifications not permitted, not scheduling",
			zap.String("op", "reminder.Schedule"),
			zap.String("contract_id", c.ID),
		)
		return "", nil
	}

	id, err := s.notifier.Schedule(ctx, Notification{
		ContractID: c.ID,
		Title:      Title,
		Body:       Body(c),
		FireAt:     fire,
	})
	if err != nil {
		return "", fmt.Errorf("scheduling reminder for %s: %w", c.ID, err)
	}

	s.log.Info("reminder scheduled",
		zap.String("op", "reminder.Schedule"),
		zap.String("contract_id", c.ID),
		zap.String("notification_id", id),
		zap.Time("fire_at", fire),
	)
	return id, nil
}

// Replace cancels the reminder c currently holds, then schedules a new one.
// A failed cancel is logged and does not stop scheduling; the returned handle
// always supersedes c.NotificationID.
func (s *Scheduler) Replace(ctx context.Context, c model.Contract) (string, error) {
	if err := s.Cancel(ctx, c.NotificationID); err != nil {
		s.log.Warn("could not cancel previous reminder",
			zap.String("op", "reminder.Replace"),
			zap.String("contract_id", c.ID),
			zap.String("notification_id", c.NotificationID),
			zap.Error(err),
		)
	}
	return s.Schedule(ctx, c)
}

// Cancel removes the reminder with handle id. An empty id is a no-op.
func (s *Scheduler) Cancel(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := s.notifier.Cancel(ctx, id); err != nil {
		return fmt.Errorf("canceling reminder %s: %w", id, err)
	}
	return nil
}

// CancelAll cancels every outstanding reminder one at a time. Failures do not
// stop the loop; they are returned joined.
func (s *Scheduler) CancelAll(ctx context.Context) error {
	pending, err := s.notifier.ListScheduled(ctx)
	if err != nil {
		return fmt.Errorf("listing reminders: %w", err)
	}

	var errs []error
	for _, n := range pending {
		if err := s.Cancel(ctx, n.ID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Pending returns every outstanding reminder.
func (s *Scheduler) Pending(ctx context.Context) ([]Notification, error) {
	return s.notifier.ListScheduled(ctx)
}
