package reminder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/koshin/internal/model"
	"github.com/theirongolddev/koshin/internal/store"
)

var jst = time.FixedZone("JST", 9*60*60)

type recordingNotifier struct {
	granted     bool
	permAsks    int
	scheduled   []Notification
	canceled    []string
	cancelErr   error
	scheduleErr error
	seq         int
}

func (r *recordingNotifier) RequestPermission(context.Context) (bool, error) {
	r.permAsks++
	return r.granted, nil
}

func (r *recordingNotifier) Schedule(_ context.Context, n Notification) (string, error) {
	if r.scheduleErr != nil {
		return "", r.scheduleErr
	}
	r.seq++
	n.ID = fmt.Sprintf("n-%d", r.seq)
	r.scheduled = append(r.scheduled, n)
	return n.ID, nil
}

func (r *recordingNotifier) Cancel(_ context.Context, id string) error {
	if r.cancelErr != nil {
		return r.cancelErr
	}
	r.canceled = append(r.canceled, id)
	kept := r.scheduled[:0]
	for _, n := range r.scheduled {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	r.scheduled = kept
	return nil
}

func (r *recordingNotifier) ListScheduled(context.Context) ([]Notification, error) {
	return append([]Notification(nil), r.scheduled...), nil
}

func renewal(id string, at time.Time, days int) model.Contract {
	return model.Contract{
		ID:           id,
		Name:         "Netflix",
		Category:     model.CategorySubscription,
		BillingCycle: model.BillingMonthly,
		Amount:       1490,
		RenewalDate:  at,
		ReminderDays: days,
	}
}

func TestFireTime(t *testing.T) {
	tests := []struct {
		name    string
		renewal time.Time
		days    int
		want    time.Time
	}{
		{
			name:    "time of day ignored",
			renewal: time.Date(2025, 7, 10, 15, 30, 0, 0, jst),
			days:    7,
			want:    time.Date(2025, 7, 3, 9, 0, 0, 0, jst),
		},
		{
			name:    "crosses month boundary",
			renewal: time.Date(2025, 3, 3, 0, 0, 0, 0, jst),
			days:    5,
			want:    time.Date(2025, 2, 26, 9, 0, 0, 0, jst),
		},
		{
			name:    "same day",
			renewal: time.Date(2025, 7, 10, 23, 0, 0, 0, jst),
			days:    0,
			want:    time.Date(2025, 7, 10, 9, 0, 0, 0, jst),
		},
		{
			name:    "UTC instant read in local zone",
			renewal: time.Date(2025, 7, 9, 20, 0, 0, 0, time.UTC), // 7/10 05:00 JST
			days:    1,
			want:    time.Date(2025, 7, 9, 9, 0, 0, 0, jst),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FireTime(renewal("c", tt.renewal, tt.days), jst)
			assert.True(t, got.Equal(tt.want), "FireTime = %s, want %s", got, tt.want)
		})
	}
}

func TestComputeFireTimeMustBeStrictlyFuture(t *testing.T) {
	c := renewal("c", time.Date(2025, 7, 10, 0, 0, 0, 0, jst), 7)
	fire := time.Date(2025, 7, 3, 9, 0, 0, 0, jst)

	got, ok := ComputeFireTime(c, fire.Add(-time.Second))
	require.True(t, ok)
	assert.True(t, got.Equal(fire))

	_, ok = ComputeFireTime(c, fire)
	assert.False(t, ok, "fire time equal to now must not schedule")

	_, ok = ComputeFireTime(c, fire.Add(time.Hour))
	assert.False(t, ok)
}

func TestBodyNamesContractAndCategory(t *testing.T) {
	c := renewal("c", time.Now(), 3)
	c.Name = "自動車保険"
	c.Category = model.CategoryInsurance

	body := Body(c)
	assert.Contains(t, body, "自動車保険")
	assert.Contains(t, body, "保険")
	assert.Contains(t, body, "3日")

	c.ReminderDays = 0
	assert.Contains(t, Body(c), "自動車保険")
	assert.Contains(t, Body(c), "本日")
}

func TestSchedulerSchedule(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, jst)
	ctx := context.Background()

	rec := &recordingNotifier{granted: true}
	s := NewScheduler(rec, nil, WithClock(func() time.Time { return now }))

	c := renewal("c1", time.Date(2025, 6, 20, 0, 0, 0, 0, jst), 7)
	id, err := s.Schedule(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, "n-1", id)
	require.Len(t, rec.scheduled, 1)

	n := rec.scheduled[0]
	assert.Equal(t, Title, n.Title)
	assert.Equal(t, "c1", n.ContractID)
	assert.True(t, strings.Contains(n.Body, c.Name) && strings.Contains(n.Body, c.Category.Label()))
	assert.True(t, n.FireAt.Equal(time.Date(2025, 6, 13, 9, 0, 0, 0, jst)))

	_, err = s.Schedule(ctx, renewal("c2", time.Date(2025, 7, 1, 0, 0, 0, 0, jst), 1))
	require.NoError(t, err)
	assert.Equal(t, 1, rec.permAsks, "permission should be asked once")
}

func TestSchedulerSkipsPastAndDenied(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, jst)
	ctx := context.Background()

	rec := &recordingNotifier{granted: true}
	s := NewScheduler(rec, nil, WithClock(func() time.Time { return now }))
	id, err := s.Schedule(ctx, renewal("past", time.Date(2025, 6, 3, 0, 0, 0, 0, jst), 7))
	require.NoError(t, err)
	assert.Empty(t, id)
	assert.Empty(t, rec.scheduled)
	assert.Zero(t, rec.permAsks, "past reminders should not prompt for permission")

	denied := &recordingNotifier{granted: false}
	s = NewScheduler(denied, nil, WithClock(func() time.Time { return now }))
	id, err = s.Schedule(ctx, renewal("future", time.Date(2025, 12, 1, 0, 0, 0, 0, jst), 7))
	require.NoError(t, err)
	assert.Empty(t, id)
	assert.Empty(t, denied.scheduled)
}

func TestSchedulerReplace(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, jst)
	ctx := context.Background()
	rec := &recordingNotifier{granted: true}
	s := NewScheduler(rec, nil, WithClock(func() time.Time { return now }))

	c := renewal("c1", time.Date(2025, 6, 20, 0, 0, 0, 0, jst), 7)
	first, err := s.Schedule(ctx, c)
	require.NoError(t, err)

	c.NotificationID = first
	c.ReminderDays = 3
	second, err := s.Replace(ctx, c)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.Equal(t, []string{first}, rec.canceled)
	require.Len(t, rec.scheduled, 1)
	assert.Equal(t, second, rec.scheduled[0].ID)

	// Without a previous handle nothing is canceled.
	c.NotificationID = ""
	_, err = s.Replace(ctx, c)
	require.NoError(t, err)
	assert.Len(t, rec.canceled, 1)
}

func TestSchedulerReplaceToleratesCancelFailure(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, jst)
	rec := &recordingNotifier{granted: true, cancelErr: errors.New("gone")}
	s := NewScheduler(rec, nil, WithClock(func() time.Time { return now }))

	c := renewal("c1", time.Date(2025, 6, 20, 0, 0, 0, 0, jst), 7)
	c.NotificationID = "stale"
	id, err := s.Replace(context.Background(), c)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.NotEqual(t, "stale", id)
}

func TestSchedulerCancelAll(t *testing.T) {
	ctx := context.Background()
	rec := &recordingNotifier{granted: true}
	s := NewScheduler(rec, nil)

	require.NoError(t, s.CancelAll(ctx), "empty list is a no-op")
	assert.Empty(t, rec.canceled)

	rec.scheduled = []Notification{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	require.NoError(t, s.CancelAll(ctx))
	assert.ElementsMatch(t, []string{"a", "b", "c"}, rec.canceled)
	assert.Empty(t, rec.scheduled)

	require.NoError(t, s.Cancel(ctx, ""))
	assert.Len(t, rec.canceled, 3)
}

func TestLocalNotifier(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	l := NewLocalNotifier(kv, true, nil)

	state, _, err := l.Permission(ctx)
	require.NoError(t, err)
	assert.Equal(t, PermissionUndetermined, state)

	granted, err := l.RequestPermission(ctx)
	require.NoError(t, err)
	assert.True(t, granted)
	state, decided, err := l.Permission(ctx)
	require.NoError(t, err)
	assert.Equal(t, PermissionGranted, state)
	assert.False(t, decided.IsZero())

	base := time.Date(2025, 6, 1, 9, 0, 0, 0, jst)
	late, err := l.Schedule(ctx, Notification{ContractID: "b", FireAt: base.AddDate(0, 0, 10)})
	require.NoError(t, err)
	early, err := l.Schedule(ctx, Notification{ContractID: "a", FireAt: base})
	require.NoError(t, err)
	assert.NotEqual(t, early, late)

	all, err := l.ListScheduled(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, early, all[0].ID, "ordered by fire time")

	due, err := l.Due(ctx, base)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "a", due[0].ContractID)

	require.NoError(t, l.Ack(ctx, early))
	due, err = l.Due(ctx, base.AddDate(1, 0, 0))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, late, due[0].ID)

	require.NoError(t, l.Cancel(ctx, "unknown"))
}

func TestLocalNotifierDisabled(t *testing.T) {
	ctx := context.Background()
	l := NewLocalNotifier(store.NewMemory(), false, nil)

	granted, err := l.RequestPermission(ctx)
	require.NoError(t, err)
	assert.False(t, granted)

	state, _, err := l.Permission(ctx)
	require.NoError(t, err)
	assert.Equal(t, PermissionDenied, state)
}
