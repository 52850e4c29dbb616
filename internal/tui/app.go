// Package tui provides the interactive Bubble Tea dashboard for koshin.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/theirongolddev/koshin/internal/config"
	"github.com/theirongolddev/koshin/internal/contracts"
	"github.com/theirongolddev/koshin/internal/model"
	"github.com/theirongolddev/koshin/internal/tui/components"
	"github.com/theirongolddev/koshin/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

const (
	tabList = iota
	tabSummary
	tabUpcoming
	tabSettings
)

const (
	minTerminalWidth = 80
	compactWidth     = 110
	maxContentWidth  = 160
	minContentHeight = 5
)

// loadedMsg is sent when a Refresh of the manager finishes.
type loadedMsg struct {
	err error
}

// mutatedMsg reports the outcome of an add, edit or delete.
type mutatedMsg struct {
	verb     string
	contract model.Contract
	err      error
}

type tickMsg time.Time

// App is the root Bubble Tea model.
type App struct {
	ctx        context.Context
	manager    *contracts.Manager
	cfg        config.Config
	configPath string

	// Snapshot taken from the manager after every load
	contracts []model.Contract
	summary   model.Summary
	now       time.Time

	loaded     bool
	refreshing bool
	lastLoad   time.Time
	err        error
	flash      string

	width     int
	height    int
	activeTab int
	showHelp  bool

	list     listState
	settings settingsState

	// Embedded add/edit form; nil when not editing
	form       *huh.Form
	formVals   *FormValues
	formEditID string

	spinner spinner.Model
}

// NewApp builds the dashboard over m. cfgPath is where settings edits are saved.
func NewApp(ctx context.Context, m *contracts.Manager, cfg config.Config, cfgPath string) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	return App{
		ctx:        ctx,
		manager:    m,
		cfg:        cfg,
		configPath: cfgPath,
		now:        m.Now(),
		spinner:    sp,
		list:       newListState(),
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		refreshCmd(a.ctx, a.manager),
		a.spinner.Tick,
		tickCmd(),
	)
}

// recompute copies the manager's current state into the view snapshot.
func (a *App) recompute() {
	a.now = a.manager.Now()
	a.contracts = a.manager.SortedByRenewal()
	a.summary = a.manager.Summary(a.cfg.General.UpcomingDays)
	a.list.clamp(len(a.visibleContracts()))
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.form != nil {
			a.form = a.form.WithWidth(a.contentWidth()).WithHeight(msg.Height - 4)
		}
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp || a.form != nil {
			return a, nil
		}
		return a.updateMouse(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if !a.loaded {
			return a, nil
		}
		if a.form != nil {
			return a.updateForm(msg)
		}
		return a.updateKey(msg)

	case loadedMsg:
		a.loaded = true
		a.refreshing = false
		a.lastLoad = time.Now()
		a.err = msg.err
		a.recompute()
		return a, nil

	case mutatedMsg:
		a.refreshing = false
		a.lastLoad = time.Now()
		a.err = msg.err
		if msg.err == nil {
			a.flash = fmt.Sprintf("「%s」を%sしました", msg.contract.Name, msg.verb)
		} else {
			a.flash = ""
		}
		a.recompute()
		if msg.err == nil && msg.verb != verbDelete {
			a.list.selectID(a.visibleContracts(), msg.contract.ID)
		}
		return a, nil

	case spinner.TickMsg:
		if !a.loaded {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case tickMsg:
		a.now = a.manager.Now()
		return a, tickCmd()
	}

	// Cursor blinks and other internal messages belong to the open form.
	if a.form != nil {
		return a.updateForm(msg)
	}
	if a.list.searching {
		var cmd tea.Cmd
		a.list.searchInput, cmd = a.list.searchInput.Update(msg)
		return a, cmd
	}
	if a.settings.editing {
		var cmd tea.Cmd
		a.settings.input, cmd = a.settings.input.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	// Modal inputs get every key.
	if a.activeTab == tabList && a.list.searching {
		return a.updateListSearch(msg)
	}
	if a.activeTab == tabList && a.list.confirmDelete {
		return a.updateDeleteConfirm(key)
	}
	if a.activeTab == tabSettings && a.settings.editing {
		return a.updateSettingsInput(msg)
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	a.flash = ""

	switch a.activeTab {
	case tabList:
		if next, cmd, handled := a.updateListKey(key); handled {
			return next, cmd
		}
	case tabSettings:
		if next, cmd, handled := a.updateSettingsKey(key); handled {
			return next, cmd
		}
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "r":
		if !a.refreshing {
			a.refreshing = true
			return a, refreshCmd(a.ctx, a.manager)
		}
		return a, nil
	case "a":
		return a.openForm("", DefaultValues(a.cfg.General.DefaultReminderDays))
	case "left", "shift+tab":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
		return a, nil
	case "right", "tab":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
		return a, nil
	}

	if r := []rune(key); len(r) == 1 {
		if idx := components.TabIdxByKey(r[0]); idx >= 0 {
			a.activeTab = idx
		}
	}
	return a, nil
}

func (a App) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		if a.activeTab == tabList && !a.list.searching {
			a.list.move(-1, len(a.visibleContracts()))
		}
	case tea.MouseButtonWheelDown:
		if a.activeTab == tabList && !a.list.searching {
			a.list.move(1, len(a.visibleContracts()))
		}
	case tea.MouseButtonLeft:
		if msg.Action == tea.MouseActionPress && msg.Y == 0 {
			if tab := a.tabAtX(msg.X); tab >= 0 {
				a.activeTab = tab
			}
		}
	}
	return a, nil
}

// openForm embeds the contract form. editID is empty for a new contract.
func (a App) openForm(editID string, vals *FormValues) (tea.Model, tea.Cmd) {
	title := "契約を追加"
	if editID != "" {
		title = "契約を編集"
	}
	a.formVals = vals
	a.formEditID = editID
	a.form = NewContractForm(title, vals).
		WithTheme(huh.ThemeBase()).
		WithShowHelp(true)
	if a.width > 0 {
		a.form = a.form.WithWidth(a.contentWidth()).WithHeight(a.height - 4)
	}
	return a, a.form.Init()
}

func (a App) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
		a.form = nil
		return a, nil
	}

	form, cmd := a.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.form = f
	}

	switch a.form.State {
	case huh.StateCompleted:
		vals, editID := a.formVals, a.formEditID
		a.form, a.formVals, a.formEditID = nil, nil, ""
		input, err := vals.ContractForm()
		if err != nil {
			a.err = err
			return a, nil
		}
		a.refreshing = true
		if editID == "" {
			return a, addCmd(a.ctx, a.manager, input)
		}
		return a, updateCmd(a.ctx, a.manager, editID, input)

	case huh.StateAborted:
		a.form, a.formVals, a.formEditID = nil, nil, ""
		return a, nil
	}

	return a, cmd
}

func (a App) contentWidth() int {
	cw := a.width
	if cw > maxContentWidth {
		cw = maxContentWidth
	}
	return cw
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if !a.loaded {
		return a.viewLoading()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := a.height
	if h < 5 {
		h = 5
	}
	msg := fmt.Sprintf(
		"\n  端末の幅が足りません (%d列)\n\n  koshin には %d列以上が必要です。\n",
		a.width,
		minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)

	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ koshin"))
	b.WriteString(subtitleStyle.Render(" · 契約更新トラッカー"))
	b.WriteString("\n\n")
	b.WriteString(a.spinner.View())
	b.WriteString(subtitleStyle.Render(" 契約を読み込んでいます..."))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

type binding struct{ key, desc string }

var helpSections = []struct {
	title    string
	bindings []binding
}{
	{"移動", []binding{
		{"l s u x", "タブへ移動"},
		{"← → Tab", "前 / 次のタブ"},
		{"j k", "一覧の選択"},
		{"g G", "先頭 / 末尾"},
	}},
	{"一覧", []binding{
		{"/", "名前で検索"},
		{"c", "カテゴリ絞り込みの切替"},
		{"Enter e", "編集"},
		{"d", "削除"},
		{"Esc", "検索・絞り込みを解除"},
	}},
	{"全般", []binding{
		{"a", "契約を追加"},
		{"r", "再読み込み"},
		{"?", "ヘルプの表示切替"},
		{"q", "終了"},
	}},
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)

	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ キー操作"))
	b.WriteString("\n")
	for _, sec := range helpSections {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(sec.title))
		b.WriteString("\n")
		for _, bind := range sec.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind.key)),
				descStyle.Render(bind.desc))
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("何かキーを押すと閉じます"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	header := components.RenderTabBar(a.activeTab, w) + "\n" + a.renderFilterRow(w)

	age := ""
	if !a.lastLoad.IsZero() {
		age = humanize.Time(a.lastLoad)
	}
	statusBar := components.RenderStatusBar(w, components.StatusInfo{
		Count:      len(a.contracts),
		Refreshing: a.refreshing,
		Age:        age,
		Message:    a.flash,
		Err:        a.err,
	})

	contentH := h - lipgloss.Height(header) - lipgloss.Height(statusBar)
	if contentH < minContentHeight {
		contentH = minContentHeight
	}

	var content string
	switch {
	case a.form != nil:
		content = a.form.View()
	case a.activeTab == tabList:
		content = a.renderListTab(cw, contentH)
	case a.activeTab == tabSummary:
		content = a.renderSummaryTab(cw)
	case a.activeTab == tabUpcoming:
		content = a.renderUpcomingTab(cw)
	case a.activeTab == tabSettings:
		content = a.renderSettingsTab(cw)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// renderFilterRow shows the active list filters under the tab bar.
func (a App) renderFilterRow(w int) string {
	t := theme.Active
	pill := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	accent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)

	cat := "すべて"
	if a.list.category != "" {
		cat = a.list.category.Emoji() + " " + a.list.category.Label()
	}
	s := pill.Render(" カテゴリ ") + accent.Render(cat)
	if a.list.query != "" {
		s += pill.Render(" │ 検索 ") + accent.Render(a.list.query)
	}
	s += pill.Render(fmt.Sprintf(" │ 更新予定 %d日 ", a.cfg.General.UpcomingDays))

	return lipgloss.NewStyle().Background(t.Surface).Width(w).Render(s)
}

// ─── Commands ───────────────────────────────────────────────────

const (
	verbAdd    = "追加"
	verbUpdate = "更新"
	verbDelete = "削除"
)

func tickCmd() tea.Cmd {
	return tea.Tick(30*time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func refreshCmd(ctx context.Context, m *contracts.Manager) tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{err: m.Refresh(ctx)}
	}
}

func addCmd(ctx context.Context, m *contracts.Manager, form model.ContractForm) tea.Cmd {
	return func() tea.Msg {
		c, err := m.Add(ctx, form)
		return mutatedMsg{verb: verbAdd, contract: c, err: err}
	}
}

func updateCmd(ctx context.Context, m *contracts.Manager, id string, form model.ContractForm) tea.Cmd {
	return func() tea.Msg {
		c, err := m.Update(ctx, id, form)
		return mutatedMsg{verb: verbUpdate, contract: c, err: err}
	}
}

func deleteCmd(ctx context.Context, m *contracts.Manager, c model.Contract) tea.Cmd {
	return func() tea.Msg {
		return mutatedMsg{verb: verbDelete, contract: c, err: m.Delete(ctx, c.ID)}
	}
}

// ─── Helpers ────────────────────────────────────────────────────

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

// fitCells pads or cuts s to exactly w terminal cells.
func fitCells(s string, w int) string {
	if w <= 0 {
		return ""
	}
	for lipgloss.Width(s) > w {
		runes := []rune(s)
		s = string(runes[:len(runes)-1])
	}
	return s + strings.Repeat(" ", w-lipgloss.Width(s))
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg))
	}
	return strings.Join(lines, "\n")
}

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes use the same width rules as RenderTabBar.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW + 1
	}
	return -1
}
