// Package contracts owns the in-memory contract list and coordinates storage,
// reminders and validation for every mutation.
package contracts

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/theirongolddev/koshin/internal/model"
	"github.com/theirongolddev/koshin/internal/pipeline"
	"github.com/theirongolddev/koshin/internal/reminder"
	"github.com/theirongolddev/koshin/internal/store"
	"github.com/theirongolddev/koshin/internal/validation"
)

// Manager is the state container for the contract list. Each mutation runs
// in a fixed order: build the record, schedule or cancel its reminder,
// persist, then reload the list from storage.
//
// The mutex only guards the in-memory snapshot. Storage writes are not
// serialized, so overlapping mutations resolve as last write wins.
type Manager struct {
	store     *store.Contracts
	scheduler *reminder.Scheduler
	log       *zap.Logger
	now       func() time.Time
	newID     func() string

	mu        sync.RWMutex
	contracts []model.Contract
	loading   bool
	err       error
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithIDFunc replaces the contract id generator.
func WithIDFunc(fn func() string) Option {
	return func(m *Manager) { m.newID = fn }
}

// NewManager returns a Manager with an empty list. Call Refresh to load.
func NewManager(s *store.Contracts, sch *reminder.Scheduler, log *zap.Logger, opts ...Option) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Manager{
		store:     s,
		scheduler: sch,
		log:       log,
		now:       time.Now,
		newID:     uuid.NewString,
		contracts: []model.Contract{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Refresh reloads the list from storage. On failure the previous list is
// kept and the error is also available from Err.
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.Lock()
	m.loading = true
	m.err = nil
	m.mu.Unlock()

	list, err := m.store.GetAll(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.loading = false
	if err != nil {
		m.err = &Error{Op: "refresh", Msg: MsgLoadFailed, Err: err}
		m.log.Error("loading contracts failed",
			zap.String("op", "contracts.Refresh"),
			zap.Error(err),
		)
		return m.err
	}
	m.contracts = list
	return nil
}

// Add validates form, stores a new contract and schedules its reminder.
func (m *Manager) Add(ctx context.Context, form model.ContractForm) (model.Contract, error) {
	m.clearErr()

	if errs := validation.ValidateContractForm(form); !validation.IsValidForm(errs) {
		return model.Contract{}, m.fail("add", MsgAddFailed, errs)
	}

	now := m.now()
	c := applyForm(model.Contract{
		ID:        m.newID(),
		CreatedAt: now,
	}, form)
	c.UpdatedAt = now

	handle, err := m.scheduler.Schedule(ctx, c)
	if err != nil {
		return model.Contract{}, m.fail("add", MsgAddFailed, err)
	}
	c.NotificationID = handle

	if err := m.store.Add(ctx, c); err != nil {
		m.dropReminder(ctx, "contracts.Add", handle)
		return model.Contract{}, m.fail("add", MsgAddFailed, err)
	}

	m.log.Info("contract added",
		zap.String("op", "contracts.Add"),
		zap.String("contract_id", c.ID),
		zap.Bool("reminder", handle != ""),
	)
	return c, m.Refresh(ctx)
}

// Update replaces every user-editable field of contract id with form and
// reschedules its reminder.
func (m *Manager) Update(ctx context.Context, id string, form model.ContractForm) (model.Contract, error) {
	m.clearErr()

	existing, ok := m.Get(id)
	if !ok {
		return model.Contract{}, m.fail("update", MsgNotFound, store.NotFoundError(id))
	}

	if errs := validation.ValidateContractForm(form); !validation.IsValidForm(errs) {
		return model.Contract{}, m.fail("update", MsgUpdateFailed, errs)
	}

	updated := applyForm(existing, form)
	updated.UpdatedAt = m.now()
	if updated.UpdatedAt.Before(updated.CreatedAt) {
		updated.UpdatedAt = updated.CreatedAt
	}

	// Replace cancels existing.NotificationID, which updated still carries.
	handle, err := m.scheduler.Replace(ctx, updated)
	if err != nil {
		return model.Contract{}, m.fail("update", MsgUpdateFailed, err)
	}
	updated.NotificationID = handle

	if err := m.store.Update(ctx, updated); err != nil {
		m.dropReminder(ctx, "contracts.Update", handle)
		msg := MsgUpdateFailed
		if errors.Is(err, store.ErrNotFound) {
			msg = MsgNotFound
		}
		return model.Contract{}, m.fail("update", msg, err)
	}

	m.log.Info("contract updated",
		zap.String("op", "contracts.Update"),
		zap.String("contract_id", id),
		zap.Bool("reminder", handle != ""),
	)
	return updated, m.Refresh(ctx)
}

// Delete cancels the contract's reminder, if any, and removes it. Deleting an
// unknown id is not an error.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.clearErr()

	if c, ok := m.Get(id); ok {
		if err := m.scheduler.Cancel(ctx, c.NotificationID); err != nil {
			return m.fail("delete", MsgDeleteFailed, err)
		}
	}

	if err := m.store.Delete(ctx, id); err != nil {
		return m.fail("delete", MsgDeleteFailed, err)
	}

	m.log.Info("contract deleted",
		zap.String("op", "contracts.Delete"),
		zap.String("contract_id", id),
	)
	return m.Refresh(ctx)
}

// ResetAll cancels every scheduled reminder and removes all contracts.
func (m *Manager) ResetAll(ctx context.Context) error {
	m.clearErr()

	if err := m.scheduler.CancelAll(ctx); err != nil {
		return m.fail("reset", MsgResetFailed, err)
	}
	if err := m.store.Clear(ctx); err != nil {
		return m.fail("reset", MsgResetFailed, err)
	}

	m.log.Info("all contracts cleared", zap.String("op", "contracts.ResetAll"))
	return m.Refresh(ctx)
}

// Resync reschedules the reminder of every stored contract and returns how
// many now have one outstanding.
func (m *Manager) Resync(ctx context.Context) (int, error) {
	m.clearErr()

	list, err := m.store.GetAll(ctx)
	if err != nil {
		return 0, m.fail("resync", MsgResyncFailed, err)
	}

	scheduled := 0
	for i := range list {
		handle, err := m.scheduler.Replace(ctx, list[i])
		if err != nil {
			return 0, m.fail("resync", MsgResyncFailed, err)
		}
		list[i].NotificationID = handle
		if handle != "" {
			scheduled++
		}
	}

	if err := m.store.SaveAll(ctx, list); err != nil {
		return 0, m.fail("resync", MsgResyncFailed, err)
	}
	return scheduled, m.Refresh(ctx)
}

// CancelReminders cancels every outstanding reminder and clears the stored
// handles while keeping the contracts.
func (m *Manager) CancelReminders(ctx context.Context) error {
	m.clearErr()

	if err := m.scheduler.CancelAll(ctx); err != nil {
		return m.fail("cancel-reminders", MsgCancelRemindersFailed, err)
	}

	list, err := m.store.GetAll(ctx)
	if err != nil {
		return m.fail("cancel-reminders", MsgCancelRemindersFailed, err)
	}
	for i := range list {
		list[i].NotificationID = ""
	}
	if err := m.store.SaveAll(ctx, list); err != nil {
		return m.fail("cancel-reminders", MsgCancelRemindersFailed, err)
	}

	m.log.Info("all reminders canceled", zap.String("op", "contracts.CancelReminders"))
	return m.Refresh(ctx)
}

// MarkDelivered clears the stored handle of contractID once its reminder
// notificationID has fired. Stale pairs are ignored.
func (m *Manager) MarkDelivered(ctx context.Context, contractID, notificationID string) error {
	c, err := m.store.Get(ctx, contractID)
	if err != nil {
		return m.fail("deliver", MsgUpdateFailed, err)
	}
	if c == nil || c.NotificationID != notificationID {
		return nil
	}

	c.NotificationID = ""
	if err := m.store.Update(ctx, *c); err != nil {
		return m.fail("deliver", MsgUpdateFailed, err)
	}
	return m.Refresh(ctx)
}

// Contracts returns a copy of the current list.
func (m *Manager) Contracts() []model.Contract {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Contract, len(m.contracts))
	copy(out, m.contracts)
	return out
}

// Get returns the contract with id from the current list.
func (m *Manager) Get(id string) (model.Contract, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.contracts {
		if c.ID == id {
			return c, true
		}
	}
	return model.Contract{}, false
}

// Loading reports whether a Refresh is in flight.
func (m *Manager) Loading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loading
}

// Err returns the error of the last failed operation, or nil.
func (m *Manager) Err() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.err
}

// ByCategory returns the contracts in category.
func (m *Manager) ByCategory(category model.Category) []model.Contract {
	return pipeline.FilterByCategory(m.Contracts(), category)
}

// AnnualCost returns the total yearly cost of all contracts.
func (m *Manager) AnnualCost() int64 {
	return pipeline.TotalAnnualCost(m.Contracts())
}

// MonthlyCost returns the total monthly cost of all contracts.
func (m *Manager) MonthlyCost() int64 {
	return pipeline.TotalMonthlyCost(m.Contracts())
}

// CostByCategory returns the yearly cost per category.
func (m *Manager) CostByCategory() model.PerCategory[int64] {
	return pipeline.CostByCategory(m.Contracts())
}

// SortedByRenewal returns contracts with the nearest renewal first.
func (m *Manager) SortedByRenewal() []model.Contract {
	return pipeline.SortByRenewalDate(m.Contracts(), true)
}

// Upcoming returns contracts renewing within days from now. A non-positive
// days uses the default window.
func (m *Manager) Upcoming(days int) []model.Contract {
	if days <= 0 {
		days = pipeline.DefaultUpcomingDays
	}
	return pipeline.UpcomingRenewals(m.Contracts(), days, m.now())
}

// Summary aggregates the current list.
func (m *Manager) Summary(upcomingDays int) model.Summary {
	return pipeline.Summarize(m.Contracts(), upcomingDays, m.now())
}

// Now returns the Manager's clock reading.
func (m *Manager) Now() time.Time {
	return m.now()
}

// dropReminder cancels a reminder scheduled for a write that then failed, so
// no pending notification points at a contract storage does not hold.
func (m *Manager) dropReminder(ctx context.Context, op, handle string) {
	if handle == "" {
		return
	}
	if err := m.scheduler.Cancel(ctx, handle); err != nil {
		m.log.Warn("orphaned reminder not canceled",
			zap.String("op", op),
			zap.String("notification_id", handle),
			zap.Error(err),
		)
	}
}

func (m *Manager) clearErr() {
	m.mu.Lock()
	m.err = nil
	m.mu.Unlock()
}

func (m *Manager) fail(op, msg string, cause error) error {
	e := &Error{Op: op, Msg: msg, Err: cause}

	var verrs validation.Errors
	if errors.As(cause, &verrs) {
		m.log.Debug("contract form rejected",
			zap.String("op", "contracts."+op),
			zap.Strings("fields", fieldNames(verrs)),
		)
	} else {
		m.log.Error("contract operation failed",
			zap.String("op", "contracts."+op),
			zap.Error(cause),
		)
	}

	m.mu.Lock()
	m.err = e
	m.mu.Unlock()
	return e
}

// applyForm copies the user-editable fields of a validated form onto c.
func applyForm(c model.Contract, form model.ContractForm) model.Contract {
	amount, _ := validation.ParseInt(form.Amount)
	days, _ := validation.ParseInt(form.ReminderDays)

	c.Name = strings.TrimSpace(form.Name)
	c.Category = form.Category
	c.BillingCycle = form.BillingCycle
	c.Amount = amount
	c.RenewalDate = *form.RenewalDate
	c.ReminderDays = int(days)
	c.Notes = strings.TrimSpace(form.Notes)
	return c
}

func fieldNames(errs validation.Errors) []string {
	fields := errs.Fields()
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = string(f)
	}
	return out
}
