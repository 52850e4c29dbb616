package pipeline

import (
	"testing"
	"time"

	"github.com/theirongolddev/koshin/internal/model"
)

func renewingAt(id string, at time.Time) model.Contract {
	c := contract(id, model.CategorySubscription, model.BillingMonthly, 100)
	c.RenewalDate = at
	return c
}

func TestDaysUntilRenewalUsesCeiling(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	tests := []struct {
		name string
		at   time.Time
		want int
	}{
		{"same instant", now, 0},
		{"one ms ahead", now.Add(time.Millisecond), 1},
		{"exactly one day", now.Add(day), 1},
		{"30.1 days", now.Add(30*day + 144*time.Minute), 31},
		{"half a day ago", now.Add(-12 * time.Hour), 0},
		{"exactly one day ago", now.Add(-day), -1},
		{"1.5 days ago", now.Add(-36 * time.Hour), -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysUntilRenewal(renewingAt("x", tt.at), now); got != tt.want {
				t.Fatalf("DaysUntilRenewal = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestIsRenewalPassedIsStrict(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	if IsRenewalPassed(renewingAt("x", now), now) {
		t.Fatal("renewal at now should not be passed")
	}
	if !IsRenewalPassed(renewingAt("x", now.Add(-time.Second)), now) {
		t.Fatal("renewal one second ago should be passed")
	}
	// Earlier today still counts as passed: comparison is on the instant.
	if !IsRenewalPassed(renewingAt("x", time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)), now) {
		t.Fatal("midnight today should be passed at noon")
	}
}

func TestUpcomingRenewalsInclusiveWindow(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	list := []model.Contract{
		renewingAt("past", now.Add(-time.Minute)),
		renewingAt("now", now),
		renewingAt("edge", now.AddDate(0, 0, 30)),
		renewingAt("beyond", now.AddDate(0, 0, 30).Add(time.Second)),
		renewingAt("mid", now.AddDate(0, 0, 10)),
	}

	got := ids(UpcomingRenewals(list, 30, now))
	want := []string{"now", "edge", "mid"}
	if len(got) != len(want) {
		t.Fatalf("UpcomingRenewals = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("UpcomingRenewals = %v, want %v", got, want)
		}
	}

	if n := len(UpcomingRenewals(nil, 30, now)); n != 0 {
		t.Fatalf("UpcomingRenewals(nil) returned %d contracts", n)
	}
}

func TestRenewalsByMonth(t *testing.T) {
	now := time.Date(2025, 11, 20, 9, 0, 0, 0, time.UTC)
	list := []model.Contract{
		renewingAt("a", time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)),
		renewingAt("b", time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC)),
		renewingAt("c", time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)),
		renewingAt("d", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)),
		renewingAt("e", time.Date(2025, 10, 31, 0, 0, 0, 0, time.UTC)),
	}

	got := RenewalsByMonth(list, 3, now)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	wantCounts := []int{2, 0, 1}
	for i, want := range wantCounts {
		if got[i].Count != want {
			t.Errorf("month %d count = %d, want %d", i, got[i].Count, want)
		}
	}
	if got[0].Amount != 200 {
		t.Errorf("november amount = %d, want 200", got[0].Amount)
	}
	if got[2].Month.Month() != time.January || got[2].Month.Year() != 2026 {
		t.Errorf("third bucket = %s, want 2026-01", got[2].Month)
	}

	if RenewalsByMonth(list, 0, now) != nil {
		t.Error("zero months should return nil")
	}
}
