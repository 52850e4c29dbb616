package contracts

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/koshin/internal/model"
	"github.com/theirongolddev/koshin/internal/reminder"
	"github.com/theirongolddev/koshin/internal/store"
	"github.com/theirongolddev/koshin/internal/validation"
)

var (
	jst     = time.FixedZone("JST", 9*60*60)
	fixedAt = time.Date(2025, 6, 1, 12, 0, 0, 0, jst)
)

// journal records the order of side effects across the KV and notifier.
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(s string) {
	j.mu.Lock()
	j.entries = append(j.entries, s)
	j.mu.Unlock()
}

func (j *journal) reset() {
	j.mu.Lock()
	j.entries = nil
	j.mu.Unlock()
}

type journalKV struct {
	*store.Memory
	j       *journal
	failGet bool
	failSet bool
}

func (k *journalKV) Get(ctx context.Context, key string) ([]byte, error) {
	if k.failGet {
		return nil, errors.New("read failed")
	}
	return k.Memory.Get(ctx, key)
}

func (k *journalKV) Set(ctx context.Context, key string, v []byte) error {
	k.j.add("persist")
	if k.failSet {
		return errors.New("write failed")
	}
	return k.Memory.Set(ctx, key, v)
}

type journalNotifier struct {
	j       *journal
	mu      sync.Mutex
	pending map[string]reminder.Notification
	seq     int
}

func (n *journalNotifier) RequestPermission(context.Context) (bool, error) { return true, nil }

func (n *journalNotifier) Schedule(_ context.Context, note reminder.Notification) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.j.add("schedule")
	n.seq++
	note.ID = fmt.Sprintf("n-%d", n.seq)
	n.pending[note.ID] = note
	return note.ID, nil
}

func (n *journalNotifier) Cancel(_ context.Context, id string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.j.add("cancel")
	delete(n.pending, id)
	return nil
}

func (n *journalNotifier) ListScheduled(context.Context) ([]reminder.Notification, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]reminder.Notification, 0, len(n.pending))
	for _, note := range n.pending {
		out = append(out, note)
	}
	return out, nil
}

type fixture struct {
	m        *Manager
	kv       *journalKV
	notifier *journalNotifier
	j        *journal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	j := &journal{}
	kv := &journalKV{Memory: store.NewMemory(), j: j}
	n := &journalNotifier{j: j, pending: map[string]reminder.Notification{}}
	clock := func() time.Time { return fixedAt }

	seq := 0
	m := NewManager(
		store.NewContracts(kv, nil),
		reminder.NewScheduler(n, nil, reminder.WithClock(clock)),
		nil,
		WithClock(clock),
		WithIDFunc(func() string { seq++; return fmt.Sprintf("id-%d", seq) }),
	)
	require.NoError(t, m.Refresh(context.Background()))
	return &fixture{m: m, kv: kv, notifier: n, j: j}
}

func validForm(name string) model.ContractForm {
	renewal := time.Date(2025, 7, 1, 0, 0, 0, 0, jst)
	return model.ContractForm{
		Name:         name,
		Category:     model.CategorySubscription,
		BillingCycle: model.BillingMonthly,
		Amount:       "1490",
		RenewalDate:  &renewal,
		ReminderDays: "7",
		Notes:        "  family plan  ",
	}
}

func TestAdd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.m.Add(ctx, validForm("  Netflix "))
	require.NoError(t, err)

	assert.Equal(t, "id-1", c.ID)
	assert.Equal(t, "Netflix", c.Name)
	assert.Equal(t, "family plan", c.Notes)
	assert.Equal(t, int64(1490), c.Amount)
	assert.Equal(t, 7, c.ReminderDays)
	assert.True(t, c.CreatedAt.Equal(fixedAt))
	assert.True(t, c.UpdatedAt.Equal(fixedAt))
	assert.Equal(t, "n-1", c.NotificationID)

	list := f.m.Contracts()
	require.Len(t, list, 1)
	assert.Equal(t, c.ID, list[0].ID)
	assert.Equal(t, "n-1", list[0].NotificationID)
	assert.NoError(t, f.m.Err())
	assert.False(t, f.m.Loading())
}

func TestAddRejectsInvalidForm(t *testing.T) {
	f := newFixture(t)
	form := validForm("")
	form.Amount = "abc"

	_, err := f.m.Add(context.Background(), form)
	require.Error(t, err)

	var merr *Error
	require.True(t, errors.As(err, &merr))
	assert.Equal(t, MsgAddFailed, merr.Msg)

	var verrs validation.Errors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, []validation.Field{validation.FieldName, validation.FieldAmount}, verrs.Fields())

	assert.Empty(t, f.m.Contracts())
	assert.Empty(t, f.j.entries, "nothing scheduled or persisted")
	assert.Equal(t, err, f.m.Err())
}

func TestMutationOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.j.reset()
	c, err := f.m.Add(ctx, validForm("Netflix"))
	require.NoError(t, err)
	assert.Equal(t, []string{"schedule", "persist"}, f.j.entries)

	f.j.reset()
	_, err = f.m.Update(ctx, c.ID, validForm("Netflix Premium"))
	require.NoError(t, err)
	assert.Equal(t, []string{"cancel", "schedule", "persist"}, f.j.entries)

	f.j.reset()
	require.NoError(t, f.m.Delete(ctx, c.ID))
	assert.Equal(t, []string{"cancel", "persist"}, f.j.entries)
}

func TestUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.m.Add(ctx, validForm("Netflix"))
	require.NoError(t, err)

	form := validForm("Netflix Premium")
	form.Amount = "1980"
	form.Category = model.CategoryOther
	form.BillingCycle = model.BillingYearly

	updated, err := f.m.Update(ctx, c.ID, form)
	require.NoError(t, err)
	assert.Equal(t, c.ID, updated.ID)
	assert.True(t, updated.CreatedAt.Equal(c.CreatedAt))
	assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))
	assert.Equal(t, "n-2", updated.NotificationID)

	got, ok := f.m.Get(c.ID)
	require.True(t, ok)
	assert.Equal(t, "Netflix Premium", got.Name)
	assert.Equal(t, int64(1980), got.Amount)
	assert.Equal(t, model.BillingYearly, got.BillingCycle)

	pending, err := f.notifier.ListScheduled(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1, "old reminder is canceled")
	assert.Equal(t, "n-2", pending[0].ID)
}

func TestUpdateUnknownIDNamesIt(t *testing.T) {
	f := newFixture(t)

	_, err := f.m.Update(context.Background(), "missing-123", validForm("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing-123")
	assert.True(t, errors.Is(err, store.ErrNotFound))

	var merr *Error
	require.True(t, errors.As(err, &merr))
	assert.Equal(t, MsgNotFound, merr.Msg)
}

func TestUpdateRemovedFromStorageNamesID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.m.Add(ctx, validForm("Netflix"))
	require.NoError(t, err)

	// Another writer removes it after our last refresh.
	require.NoError(t, store.NewContracts(f.kv, nil).Delete(ctx, c.ID))

	_, err = f.m.Update(ctx, c.ID, validForm("Netflix"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), c.ID)
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestFailedUpdateLeavesNoReminderBehind(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.m.Add(ctx, validForm("Netflix"))
	require.NoError(t, err)
	require.NoError(t, store.NewContracts(f.kv, nil).Delete(ctx, c.ID))
	f.j.reset()

	_, err = f.m.Update(ctx, c.ID, validForm("Netflix"))
	require.Error(t, err)

	assert.Equal(t, []string{"cancel", "schedule", "cancel"}, f.j.entries)
	pending, err := f.notifier.ListScheduled(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestFailedAddLeavesNoReminderBehind(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.kv.failSet = true

	_, err := f.m.Add(ctx, validForm("Netflix"))
	require.Error(t, err)

	var cerr *Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, MsgAddFailed, cerr.Msg)
	pending, err := f.notifier.ListScheduled(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, err := f.m.Add(ctx, validForm("A"))
	require.NoError(t, err)
	_, err = f.m.Add(ctx, validForm("B"))
	require.NoError(t, err)

	require.NoError(t, f.m.Delete(ctx, a.ID))
	list := f.m.Contracts()
	require.Len(t, list, 1)
	assert.Equal(t, "B", list[0].Name)

	pending, err := f.notifier.ListScheduled(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, f.m.Delete(ctx, "no-such-id"))
	assert.Len(t, f.m.Contracts(), 1)
}

func TestRefreshFailureKeepsLastGoodList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.m.Add(ctx, validForm("Netflix"))
	require.NoError(t, err)

	f.kv.failGet = true
	err = f.m.Refresh(ctx)
	require.Error(t, err)

	var merr *Error
	require.True(t, errors.As(err, &merr))
	assert.Equal(t, MsgLoadFailed, merr.Msg)
	assert.Len(t, f.m.Contracts(), 1)
	assert.Equal(t, err, f.m.Err())
	assert.False(t, f.m.Loading())

	f.kv.failGet = false
	require.NoError(t, f.m.Refresh(ctx))
	assert.NoError(t, f.m.Err())
}

func TestResetAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, name := range []string{"A", "B", "C"} {
		_, err := f.m.Add(ctx, validForm(name))
		require.NoError(t, err)
	}

	require.NoError(t, f.m.ResetAll(ctx))
	assert.Empty(t, f.m.Contracts())
	pending, err := f.notifier.ListScheduled(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestCancelRemindersKeepsContracts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, name := range []string{"A", "B"} {
		_, err := f.m.Add(ctx, validForm(name))
		require.NoError(t, err)
	}

	require.NoError(t, f.m.CancelReminders(ctx))

	list := f.m.Contracts()
	require.Len(t, list, 2)
	for _, c := range list {
		assert.Empty(t, c.NotificationID, c.Name)
	}
	pending, err := f.notifier.ListScheduled(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestCancelRemindersFailureMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.m.Add(ctx, validForm("A"))
	require.NoError(t, err)
	f.kv.failSet = true

	err = f.m.CancelReminders(ctx)
	var cerr *Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, MsgCancelRemindersFailed, cerr.Msg)
}

func TestResyncAndMarkDelivered(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	contractStore := store.NewContracts(kv, nil)
	clock := func() time.Time { return fixedAt }

	// Notifications off: contracts are stored without handles.
	off := NewManager(contractStore,
		reminder.NewScheduler(reminder.NewLocalNotifier(kv, false, nil), nil, reminder.WithClock(clock)),
		nil, WithClock(clock))
	require.NoError(t, off.Refresh(ctx))
	c, err := off.Add(ctx, validForm("Netflix"))
	require.NoError(t, err)
	assert.Empty(t, c.NotificationID)

	past := validForm("Old")
	old := time.Date(2025, 6, 2, 0, 0, 0, 0, jst)
	past.RenewalDate = &old
	_, err = off.Add(ctx, past)
	require.NoError(t, err)

	// Notifications on: resync schedules what is still in the future.
	local := reminder.NewLocalNotifier(kv, true, nil)
	on := NewManager(contractStore,
		reminder.NewScheduler(local, nil, reminder.WithClock(clock)),
		nil, WithClock(clock))
	n, err := on.Resync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, ok := on.Get(c.ID)
	require.True(t, ok)
	require.NotEmpty(t, got.NotificationID)

	due, err := local.Due(ctx, time.Date(2025, 6, 24, 9, 0, 0, 0, jst))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, c.ID, due[0].ContractID)

	require.NoError(t, on.MarkDelivered(ctx, c.ID, "stale-id"))
	got, _ = on.Get(c.ID)
	assert.NotEmpty(t, got.NotificationID, "stale handle leaves contract alone")

	require.NoError(t, on.MarkDelivered(ctx, c.ID, due[0].ID))
	got, _ = on.Get(c.ID)
	assert.Empty(t, got.NotificationID)
}

func TestDerivedViews(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sub := validForm("Netflix")
	_, err := f.m.Add(ctx, sub)
	require.NoError(t, err)

	ins := validForm("自動車保険")
	ins.Category = model.CategoryInsurance
	ins.BillingCycle = model.BillingYearly
	ins.Amount = "60000"
	later := time.Date(2025, 12, 1, 0, 0, 0, 0, jst)
	ins.RenewalDate = &later
	_, err = f.m.Add(ctx, ins)
	require.NoError(t, err)

	assert.Equal(t, int64(1490*12+60000), f.m.AnnualCost())
	assert.Equal(t, int64(1490+5000), f.m.MonthlyCost())
	assert.Equal(t, int64(60000), f.m.CostByCategory().Of(model.CategoryInsurance))
	assert.Len(t, f.m.ByCategory(model.CategoryInsurance), 1)
	assert.Len(t, f.m.Upcoming(0), 1)
	assert.Equal(t, "Netflix", f.m.SortedByRenewal()[0].Name)

	s := f.m.Summary(30)
	assert.Equal(t, 2, s.TotalContracts)
	assert.Equal(t, 1, s.UpcomingCount)
}
