package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/theirongolddev/koshin/internal/store"
)

// KV keys used by LocalNotifier.
const (
	NotificationsKey = "@notifications"
	PermissionKey    = "@notification-permission"
)

// Permission states reported by LocalNotifier.Permission.
const (
	PermissionGranted      = "granted"
	PermissionDenied       = "denied"
	PermissionUndetermined = "undetermined"
)

type permissionRecord struct {
	Granted   bool      `json:"granted"`
	DecidedAt time.Time `json:"decidedAt"`
}

// LocalNotifier keeps scheduled notifications in the KV store next to the
// contract list. Delivery is done by the daemon, which polls Due and Acks
// what it delivered.
type LocalNotifier struct {
	kv      store.KV
	enabled bool
	log     *zap.Logger
	newID   func() string

	mu sync.Mutex
}

// NewLocalNotifier returns a notifier over kv. Permission is granted only
// when enabled is true.
func NewLocalNotifier(kv store.KV, enabled bool, log *zap.Logger) *LocalNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &LocalNotifier{kv: kv, enabled: enabled, log: log, newID: uuid.NewString}
}

// RequestPermission records and returns whether notifications are enabled.
func (l *LocalNotifier) RequestPermission(ctx context.Context) (bool, error) {
	rec := permissionRecord{Granted: l.enabled, DecidedAt: time.Now().UTC()}
	data, err := json.Marshal(rec)
	if err != nil {
		return false, err
	}
	if err := l.kv.Set(ctx, PermissionKey, data); err != nil {
		return false, fmt.Errorf("recording permission: %w", err)
	}
	return l.enabled, nil
}

// Permission returns the last recorded decision and when it was made.
func (l *LocalNotifier) Permission(ctx context.Context) (string, time.Time, error) {
	data, err := l.kv.Get(ctx, PermissionKey)
	if errors.Is(err, store.ErrKeyNotFound) {
		return PermissionUndetermined, time.Time{}, nil
	}
	if err != nil {
		return "", time.Time{}, fmt.Errorf("reading permission: %w", err)
	}

	var rec permissionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return PermissionUndetermined, time.Time{}, nil
	}
	if rec.Granted {
		return PermissionGranted, rec.DecidedAt, nil
	}
	return PermissionDenied, rec.DecidedAt, nil
}

// Schedule stores n under a fresh id.
func (l *LocalNotifier) Schedule(ctx context.Context, n Notification) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	pending, err := l.load(ctx)
	if err != nil {
		return "", err
	}
	n.ID = l.newID()
	if err := l.save(ctx, append(pending, n)); err != nil {
		return "", err
	}
	return n.ID, nil
}

// Cancel drops the notification with id.
func (l *LocalNotifier) Cancel(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	pending, err := l.load(ctx)
	if err != nil {
		return err
	}
	kept := pending[:0]
	for _, n := range pending {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	return l.save(ctx, kept)
}

// ListScheduled returns outstanding notifications ordered by fire time.
func (l *LocalNotifier) ListScheduled(ctx context.Context) ([]Notification, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	pending, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].FireAt.Before(pending[j].FireAt)
	})
	return pending, nil
}

// Due returns notifications whose fire time is at or before now.
func (l *LocalNotifier) Due(ctx context.Context, now time.Time) ([]Notification, error) {
	pending, err := l.ListScheduled(ctx)
	if err != nil {
		return nil, err
	}
	var due []Notification
	for _, n := range pending {
		if n.FireAt.After(now) {
			break
		}
		due = append(due, n)
	}
	return due, nil
}

// Ack removes a delivered notification.
func (l *LocalNotifier) Ack(ctx context.Context, id string) error {
	return l.Cancel(ctx, id)
}

func (l *LocalNotifier) load(ctx context.Context) ([]Notification, error) {
	data, err := l.kv.Get(ctx, NotificationsKey)
	if errors.Is(err, store.ErrKeyNotFound) {
		return []Notification{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading notifications: %w", err)
	}

	var pending []Notification
	if err := json.Unmarshal(data, &pending); err != nil {
		l.log.Warn("stored notifications are malformed, treating as empty",
			zap.String("op", "reminder.load"),
			zap.Error(err),
		)
		return []Notification{}, nil
	}
	if pending == nil {
		pending = []Notification{}
	}
	return pending, nil
}

func (l *LocalNotifier) save(ctx context.Context, pending []Notification) error {
	data, err := json.Marshal(pending)
	if err != nil {
		return fmt.Errorf("encoding notifications: %w", err)
	}
	if err := l.kv.Set(ctx, NotificationsKey, data); err != nil {
		return fmt.Errorf("saving notifications: %w", err)
	}
	return nil
}
