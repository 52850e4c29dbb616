// Package daemon provides the long-running background reminder service.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/theirongolddev/koshin/internal/cli"
	"github.com/theirongolddev/koshin/internal/model"
	"github.com/theirongolddev/koshin/internal/pipeline"
	"github.com/theirongolddev/koshin/internal/reminder"
)

// Config controls the daemon runtime behavior.
type Config struct {
	StoragePath  string
	UpcomingDays int
	Interval     time.Duration
	Addr         string
	EventsBuffer int
}

// Contracts is the contract state the daemon reads and updates.
type Contracts interface {
	Refresh(ctx context.Context) error
	Contracts() []model.Contract
	MarkDelivered(ctx context.Context, contractID, notificationID string) error
}

// Reminders is the queue of scheduled notifications the daemon delivers.
type Reminders interface {
	ListScheduled(ctx context.Context) ([]reminder.Notification, error)
	Due(ctx context.Context, now time.Time) ([]reminder.Notification, error)
	Ack(ctx context.Context, id string) error
}

// Snapshot is a compact portfolio state for status/event payloads.
type Snapshot struct {
	At               time.Time `json:"at"`
	Contracts        int       `json:"contracts"`
	AnnualCostJPY    int64     `json:"annual_cost_jpy"`
	MonthlyCostJPY   int64     `json:"monthly_cost_jpy"`
	UpcomingCount    int       `json:"upcoming_count"`
	OverdueCount     int       `json:"overdue_count"`
	PendingReminders int       `json:"pending_reminders"`
}

// Delta captures snapshot deltas between polls.
type Delta struct {
	Contracts        int   `json:"contracts"`
	AnnualCostJPY    int64 `json:"annual_cost_jpy"`
	MonthlyCostJPY   int64 `json:"monthly_cost_jpy"`
	UpcomingCount    int   `json:"upcoming_count"`
	OverdueCount     int   `json:"overdue_count"`
	PendingReminders int   `json:"pending_reminders"`
}

func (d Delta) isZero() bool {
	return d == Delta{}
}

// Event types.
const (
	EventSnapshot = "snapshot"
	EventDelta    = "portfolio_delta"
	EventReminder = "reminder"
)

// Event is emitted whenever the snapshot changes or a reminder comes due.
type Event struct {
	ID        int64                  `json:"id"`
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Snapshot  Snapshot               `json:"snapshot"`
	Delta     Delta                  `json:"delta"`
	Reminder  *reminder.Notification `json:"reminder,omitempty"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	StoragePath     string    `json:"storage_path"`
	UpcomingDays    int       `json:"upcoming_days"`
	Summary         Snapshot  `json:"summary"`
	Delivered       int64     `json:"delivered"`
	LastDeliveredAt time.Time `json:"last_delivered_at,omitempty"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Upcoming is one entry served at /v1/upcoming.
type Upcoming struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Category    model.Category `json:"category"`
	RenewalDate time.Time      `json:"renewal_date"`
	DaysUntil   int            `json:"days_until"`
	Urgency     cli.Urgency    `json:"urgency"`
	Status      string         `json:"status"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg       Config
	contracts Contracts
	reminders Reminders
	log       *zap.Logger
	now       func() time.Time

	mu              sync.RWMutex
	startedAt       time.Time
	lastPollAt      time.Time
	pollCount       int64
	delivered       int64
	lastDeliveredAt time.Time
	lastError       string
	hasSnapshot     bool
	snapshot        Snapshot
	nextEventID     int64
	events          []Event

	nextSubID int
	subs      map[int]chan Event
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New returns a new daemon service with the provided config.
func New(cfg Config, contracts Contracts, reminders Reminders, log *zap.Logger, opts ...Option) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 60 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}
	if cfg.UpcomingDays <= 0 {
		cfg.UpcomingDays = pipeline.DefaultUpcomingDays
	}
	if log == nil {
		log = zap.NewNop()
	}

	s := &Service{
		cfg:       cfg,
		contracts: contracts,
		reminders: reminders,
		log:       log,
		now:       time.Now,
		subs:      make(map[int]chan Event),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startedAt = s.now()
	return s
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.HandleFunc("/v1/events", s.handleEvents)
	mux.HandleFunc("/v1/stream", s.handleStream)
	mux.HandleFunc("/v1/upcoming", s.handleUpcoming)
	return mux
}

// Run starts HTTP endpoints and polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Seed initial snapshot so status is useful immediately.
	s.pollOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.pollOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

func (s *Service) pollOnce(ctx context.Context) {
	now := s.now()

	if err := s.contracts.Refresh(ctx); err != nil {
		s.recordError(now, err)
		return
	}

	delivered, err := s.deliverDue(ctx, now)
	if err != nil {
		s.recordError(now, err)
		return
	}

	pending, err := s.reminders.ListScheduled(ctx)
	if err != nil {
		s.recordError(now, err)
		return
	}

	summary := pipeline.Summarize(s.contracts.Contracts(), s.cfg.UpcomingDays, now)
	snap := snapshotFromSummary(summary, len(pending), now)

	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.lastPollAt = now
	s.pollCount++
	s.lastError = ""

	if !prevExists {
		s.nextEventID++
		ev = Event{
			ID:        s.nextEventID,
			Type:      EventSnapshot,
			Timestamp: now,
			Snapshot:  snap,
		}
		publish = true
	} else {
		delta := diffSnapshots(prev, snap)
		if !delta.isZero() {
			s.nextEventID++
			ev = Event{
				ID:        s.nextEventID,
				Type:      EventDelta,
				Timestamp: now,
				Snapshot:  snap,
				Delta:     delta,
			}
			publish = true
		}
	}
	s.mu.Unlock()

	if publish {
		s.publishEvent(ev)
	}

	s.log.Debug("poll complete",
		zap.String("op", "daemon.pollOnce"),
		zap.Int("contracts", snap.Contracts),
		zap.Int("delivered", delivered),
		zap.Int("pending", snap.PendingReminders),
	)
}

// deliverDue publishes every reminder whose fire time has come, then removes
// it from the queue and clears the contract's stored handle.
func (s *Service) deliverDue(ctx context.Context, now time.Time) (int, error) {
	due, err := s.reminders.Due(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("listing due reminders: %w", err)
	}

	for i := range due {
		n := due[i]

		s.mu.Lock()
		s.nextEventID++
		ev := Event{
			ID:        s.nextEventID,
			Type:      EventReminder,
			Timestamp: now,
			Snapshot:  s.snapshot,
			Reminder:  &n,
		}
		s.delivered++
		s.lastDeliveredAt = now
		s.mu.Unlock()

		s.publishEvent(ev)
		s.log.Info("reminder delivered",
			zap.String("op", "daemon.deliverDue"),
			zap.String("contract_id", n.ContractID),
			zap.String("notification_id", n.ID),
			zap.String("body", n.Body),
		)

		if err := s.reminders.Ack(ctx, n.ID); err != nil {
			return i, fmt.Errorf("acknowledging reminder %s: %w", n.ID, err)
		}
		if err := s.contracts.MarkDelivered(ctx, n.ContractID, n.ID); err != nil {
			return i, fmt.Errorf("clearing reminder on %s: %w", n.ContractID, err)
		}
	}
	return len(due), nil
}

func (s *Service) recordError(now time.Time, err error) {
	s.mu.Lock()
	s.lastError = err.Error()
	s.lastPollAt = now
	s.pollCount++
	s.mu.Unlock()
	s.log.Error("poll failed", zap.String("op", "daemon.pollOnce"), zap.Error(err))
}

func snapshotFromSummary(sum model.Summary, pending int, at time.Time) Snapshot {
	return Snapshot{
		At:               at,
		Contracts:        sum.TotalContracts,
		AnnualCostJPY:    sum.AnnualCost,
		MonthlyCostJPY:   sum.MonthlyCost,
		UpcomingCount:    sum.UpcomingCount,
		OverdueCount:     sum.OverdueCount,
		PendingReminders: pending,
	}
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		Contracts:        curr.Contracts - prev.Contracts,
		AnnualCostJPY:    curr.AnnualCostJPY - prev.AnnualCostJPY,
		MonthlyCostJPY:   curr.MonthlyCostJPY - prev.MonthlyCostJPY,
		UpcomingCount:    curr.UpcomingCount - prev.UpcomingCount,
		OverdueCount:     curr.OverdueCount - prev.OverdueCount,
		PendingReminders: curr.PendingReminders - prev.PendingReminders,
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		StoragePath:     s.cfg.StoragePath,
		UpcomingDays:    s.cfg.UpcomingDays,
		Summary:         s.snapshot,
		Delivered:       s.delivered,
		LastDeliveredAt: s.lastDeliveredAt,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) upcoming() []Upcoming {
	now := s.now()
	list := pipeline.SortByRenewalDate(
		pipeline.UpcomingRenewals(s.contracts.Contracts(), s.cfg.UpcomingDays, now), true)

	out := make([]Upcoming, 0, len(list))
	for _, c := range list {
		days := pipeline.DaysUntilRenewal(c, now)
		out = append(out, Upcoming{
			ID:          c.ID,
			Name:        c.Name,
			Category:    c.Category,
			RenewalDate: c.RenewalDate,
			DaysUntil:   days,
			Urgency:     cli.UrgencyLevel(days),
			Status:      cli.FormatRenewalStatus(days, now),
		})
	}
	return out
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.snapshotStatus())
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(events)
}

func (s *Service) handleUpcoming(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.upcoming())
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	current := Event{
		Type:      EventSnapshot,
		Timestamp: s.now(),
		Snapshot:  s.snapshotStatus().Summary,
	}
	writeSSE(w, current)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
