package tui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/koshin/internal/config"
	"github.com/theirongolddev/koshin/internal/contracts"
	"github.com/theirongolddev/koshin/internal/model"
	"github.com/theirongolddev/koshin/internal/reminder"
	"github.com/theirongolddev/koshin/internal/store"
	"github.com/theirongolddev/koshin/internal/tui/components"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.Local)

func newTestApp(t *testing.T) App {
	t.Helper()
	ctx := context.Background()
	kv := store.NewMemory()
	notifier := reminder.NewLocalNotifier(kv, true, nil)
	clock := func() time.Time { return testNow }
	sch := reminder.NewScheduler(notifier, nil, reminder.WithClock(clock))
	m := contracts.NewManager(store.NewContracts(kv, nil), sch, nil, contracts.WithClock(clock))

	add := func(name string, cat model.Category, cycle model.BillingCycle, amount string, inDays int) {
		d := testNow.AddDate(0, 0, inDays)
		_, err := m.Add(ctx, model.ContractForm{
			Name: name, Category: cat, BillingCycle: cycle,
			Amount: amount, RenewalDate: &d, ReminderDays: "7",
		})
		require.NoError(t, err)
	}
	add("Netflix", model.CategorySubscription, model.BillingMonthly, "1490", 20)
	add("自動車保険", model.CategoryInsurance, model.BillingYearly, "60000", 5)
	add("家賃", model.CategoryRental, model.BillingMonthly, "85000", 60)

	cfg := config.DefaultConfig()
	a := NewApp(ctx, m, cfg, filepath.Join(t.TempDir(), "config.toml"))
	next, _ := a.Update(loadedMsg{})
	next, _ = next.Update(tea.WindowSizeMsg{Width: 140, Height: 40})
	return next.(App)
}

func press(t *testing.T, a App, keys ...string) (App, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		var next tea.Model
		next, cmd = a.Update(msg)
		a = next.(App)
	}
	return a, cmd
}

func names(list []model.Contract) []string {
	out := make([]string, len(list))
	for i, c := range list {
		out[i] = c.Name
	}
	return out
}

func TestTabAtXMatchesTabWidths(t *testing.T) {
	for active := range components.Tabs {
		a := App{activeTab: active}
		pos := 0
		for i, tab := range components.Tabs {
			w := components.TabVisualWidth(tab, i == active)
			if got := a.tabAtX(pos + w/2); got != i {
				t.Fatalf("active=%d x=%d -> tab=%d, want %d", active, pos+w/2, got, i)
			}
			pos += w + 1
		}
		if got := a.tabAtX(pos + 5); got != -1 {
			t.Fatalf("past the last tab = %d, want -1", got)
		}
	}
}

func TestNextCategoryCycles(t *testing.T) {
	c := model.Category("")
	var seen []model.Category
	for range len(model.Categories) + 1 {
		c = nextCategory(c)
		seen = append(seen, c)
	}
	assert.Equal(t, []model.Category{
		model.CategorySubscription, model.CategoryInsurance, model.CategoryRental, model.CategoryOther, "",
	}, seen)
}

func TestListOrderAndFilters(t *testing.T) {
	a := newTestApp(t)
	require.True(t, a.loaded)
	assert.Equal(t, []string{"自動車保険", "Netflix", "家賃"}, names(a.visibleContracts()))

	a, _ = press(t, a, "c", "c")
	assert.Equal(t, model.CategoryInsurance, a.list.category)
	assert.Equal(t, []string{"自動車保険"}, names(a.visibleContracts()))

	a, _ = press(t, a, "esc", "/", "n", "e", "t")
	assert.True(t, a.list.searching)
	assert.Equal(t, []string{"Netflix"}, names(a.visibleContracts()))

	a, _ = press(t, a, "esc")
	assert.False(t, a.list.searching)
	assert.Empty(t, a.list.query, "esc restores the query from before the search")

	a, _ = press(t, a, "j", "j", "j")
	assert.Equal(t, 2, a.list.cursor, "cursor stops at the last row")
	a, _ = press(t, a, "g")
	assert.Equal(t, 0, a.list.cursor)
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	a := newTestApp(t)

	a, cmd := press(t, a, "d", "n")
	assert.Nil(t, cmd)
	assert.False(t, a.list.confirmDelete)
	assert.Len(t, a.contracts, 3)

	a, _ = press(t, a, "d")
	assert.True(t, a.list.confirmDelete)
	assert.Contains(t, a.View(), "削除しますか")

	a, cmd = press(t, a, "y")
	require.NotNil(t, cmd)
	msg := cmd()
	mm, ok := msg.(mutatedMsg)
	require.True(t, ok, "got %T", msg)
	require.NoError(t, mm.err)

	next, _ := a.Update(mm)
	a = next.(App)
	assert.Equal(t, []string{"Netflix", "家賃"}, names(a.contracts))
	assert.Contains(t, a.flash, "自動車保険")
}

func TestAddCmdReportsValidationFailure(t *testing.T) {
	a := newTestApp(t)
	msg := addCmd(a.ctx, a.manager, model.ContractForm{Name: ""})().(mutatedMsg)
	require.Error(t, msg.err)

	next, _ := a.Update(msg)
	a = next.(App)
	assert.Equal(t, msg.err, a.err)
	assert.Empty(t, a.flash)
	assert.Len(t, a.contracts, 3)
}

func TestEditOpensPrefilledForm(t *testing.T) {
	a := newTestApp(t)
	a, _ = press(t, a, "e")
	require.NotNil(t, a.form)
	assert.Equal(t, "自動車保険", a.formVals.Name)
	assert.Equal(t, "60000", a.formVals.Amount)
	assert.NotEmpty(t, a.formEditID)

	a, _ = press(t, a, "esc")
	assert.Nil(t, a.form)
}

func TestTabSwitchingAndViews(t *testing.T) {
	a := newTestApp(t)

	wants := map[string]string{
		"l": "契約一覧",
		"s": "カテゴリ別",
		"u": "日以内の更新",
		"x": "設定ファイル",
	}
	for key, want := range wants {
		a, _ = press(t, a, key)
		view := a.View()
		assert.Contains(t, view, want, "tab %s", key)
		assert.LessOrEqual(t, strings.Count(view, "\n")+1, 40, "tab %s fits the terminal", key)
	}
}

func TestSettingsEditSaves(t *testing.T) {
	a := newTestApp(t)
	a, _ = press(t, a, "x", "enter")
	require.True(t, a.settings.editing)

	a.settings.input.SetValue("14")
	a, _ = press(t, a, "enter")
	require.NoError(t, a.settings.saveErr)
	assert.True(t, a.settings.saved)
	assert.Equal(t, 14, a.summary.UpcomingWindowDays)

	saved, err := config.LoadFrom(a.configPath)
	require.NoError(t, err)
	assert.Equal(t, 14, saved.General.UpcomingDays)

	a, _ = press(t, a, "j", "enter")
	a.settings.input.SetValue("999")
	a, _ = press(t, a, "enter")
	assert.Error(t, a.settings.saveErr)
	assert.Equal(t, 7, a.cfg.General.DefaultReminderDays)
}

func TestLoadingAndNarrowViews(t *testing.T) {
	a := newTestApp(t)
	a.loaded = false
	assert.Contains(t, a.View(), "読み込んでいます")

	next, _ := a.Update(tea.WindowSizeMsg{Width: 60, Height: 20})
	assert.Contains(t, next.(App).View(), "端末の幅が足りません")
}
