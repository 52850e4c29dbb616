package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/koshin/internal/config"
	"github.com/theirongolddev/koshin/internal/model"
	"github.com/theirongolddev/koshin/internal/tui/components"
	"github.com/theirongolddev/koshin/internal/tui/theme"
	"github.com/theirongolddev/koshin/internal/validation"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	settingsFieldUpcomingDays = iota
	settingsFieldReminderDays
	settingsFieldNotifications
	settingsFieldTheme
	settingsFieldCount // sentinel
)

// settingsState tracks the settings tab state.
type settingsState struct {
	cursor  int
	editing bool
	input   textinput.Model
	saved   bool
	saveErr error
}

func (a App) updateSettingsKey(key string) (next tea.Model, cmd tea.Cmd, handled bool) {
	switch key {
	case "j", "down":
		if a.settings.cursor < settingsFieldCount-1 {
			a.settings.cursor++
		}
	case "k", "up":
		if a.settings.cursor > 0 {
			a.settings.cursor--
		}
	case "enter", " ":
		a.settings.saved = false
		switch a.settings.cursor {
		case settingsFieldNotifications:
			a.cfg.Notifications.Enabled = !a.cfg.Notifications.Enabled
			a.saveSettings()
		case settingsFieldTheme:
			a.cfg.Appearance.Theme = nextTheme(a.cfg.Appearance.Theme)
			theme.SetActive(a.cfg.Appearance.Theme)
			a.saveSettings()
		default:
			next, cmd = a.settingsStartEdit()
			return next, cmd, true
		}
	default:
		return a, nil, false
	}
	return a, nil, true
}

func nextTheme(current string) string {
	names := theme.Names()
	for i, n := range names {
		if n == current {
			return names[(i+1)%len(names)]
		}
	}
	return names[0]
}

func (a App) settingsStartEdit() (tea.Model, tea.Cmd) {
	ti := textinput.New()
	ti.CharLimit = 3
	ti.Width = 10

	switch a.settings.cursor {
	case settingsFieldUpcomingDays:
		ti.Placeholder = "30"
		ti.SetValue(strconv.Itoa(a.cfg.General.UpcomingDays))
	case settingsFieldReminderDays:
		ti.Placeholder = strconv.Itoa(model.DefaultReminderDays)
		ti.SetValue(strconv.Itoa(a.cfg.General.DefaultReminderDays))
	}

	a.settings.editing = true
	a.settings.input = ti
	return a, a.settings.input.Focus()
}

func (a App) updateSettingsInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.settings.editing = false
		if err := a.applySettingsInput(strings.TrimSpace(a.settings.input.Value())); err != nil {
			a.settings.saveErr = err
			a.settings.saved = false
			return a, nil
		}
		a.saveSettings()
		a.recompute()
		return a, nil
	case "esc":
		a.settings.editing = false
		return a, nil
	}

	var cmd tea.Cmd
	a.settings.input, cmd = a.settings.input.Update(msg)
	return a, cmd
}

// applySettingsInput validates the edited value into a.cfg.
func (a *App) applySettingsInput(val string) error {
	switch a.settings.cursor {
	case settingsFieldUpcomingDays:
		n, err := strconv.Atoi(val)
		if err != nil || n < 1 || n > model.MaxReminderDays {
			return fmt.Errorf("表示範囲は1〜%d日で入力してください", model.MaxReminderDays)
		}
		a.cfg.General.UpcomingDays = n
	case settingsFieldReminderDays:
		if !validation.ValidateReminderDays(val) {
			return errors.New(validation.MsgReminderInvalid)
		}
		n, _ := validation.ParseInt(val)
		a.cfg.General.DefaultReminderDays = int(n)
	}
	return nil
}

func (a *App) saveSettings() {
	a.settings.saveErr = config.SaveTo(a.cfg, a.configPath)
	a.settings.saved = a.settings.saveErr == nil
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	selectedLabelStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.SurfaceBright).Bold(true)
	markerStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright)
	greenStyle := lipgloss.NewStyle().Foreground(t.GreenBright).Background(t.Surface)
	warnStyle := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	notif := "無効"
	if a.cfg.Notifications.Enabled {
		notif = "有効"
	}

	fields := []struct{ label, value string }{
		{"更新予定の表示範囲", fmt.Sprintf("%d日", a.cfg.General.UpcomingDays)},
		{"リマインダー初期値", fmt.Sprintf("%d日前", a.cfg.General.DefaultReminderDays)},
		{"リマインダー通知", notif},
		{"テーマ", a.cfg.Appearance.Theme},
	}

	innerW := components.CardInnerWidth(cw)

	var form strings.Builder
	for i, f := range fields {
		label := fitCells(f.label, 20)
		switch {
		case a.settings.editing && i == a.settings.cursor:
			form.WriteString(markerStyle.Render("▸ "))
			form.WriteString(selectedLabelStyle.Render(label))
			form.WriteString(a.settings.input.View())
		case i == a.settings.cursor:
			line := markerStyle.Render("▸ ") + selectedLabelStyle.Render(label) + selectedStyle.Render(f.value)
			if pad := innerW - lipgloss.Width(line); pad > 0 {
				line += selectedStyle.Render(strings.Repeat(" ", pad))
			}
			form.WriteString(line)
		default:
			form.WriteString(labelStyle.Render("  " + label))
			form.WriteString(valueStyle.Render(f.value))
		}
		form.WriteString("\n")
	}

	switch {
	case a.settings.saveErr != nil:
		form.WriteString("\n")
		form.WriteString(warnStyle.Render("保存できませんでした: " + a.settings.saveErr.Error()))
		form.WriteString("\n")
	case a.settings.saved:
		form.WriteString("\n")
		form.WriteString(greenStyle.Render("保存しました"))
		form.WriteString("\n")
	}
	form.WriteString("\n")
	form.WriteString(dimStyle.Render("[j/k] 選択  [Enter] 編集・切替  [Esc] 取消"))

	var info strings.Builder
	row := func(label, value string) {
		info.WriteString(labelStyle.Render(fitCells(label, 14)))
		info.WriteString(valueStyle.Render(value))
		info.WriteString("\n")
	}
	row("設定ファイル", a.configPath)
	row("保存先", a.cfg.Storage.Backend+"  "+config.StoragePath(a.cfg))
	row("デーモン", a.cfg.Daemon.Addr)
	info.WriteString(dimStyle.Render("通知設定の変更は次回起動時に反映されます"))

	var b strings.Builder
	b.WriteString(components.ContentCard("設定", form.String(), cw))
	b.WriteString("\n")
	b.WriteString(components.ContentCard("環境", info.String(), cw))
	return b.String()
}
