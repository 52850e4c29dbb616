package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/koshin/internal/cli"
	"github.com/theirongolddev/koshin/internal/model"
	"github.com/theirongolddev/koshin/internal/pipeline"
	"github.com/theirongolddev/koshin/internal/tui/components"
	"github.com/theirongolddev/koshin/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// listState holds the contract list tab state.
type listState struct {
	cursor int
	offset int // first visible row

	category model.Category // empty means all categories
	query    string

	searching   bool
	prevQuery   string // restored when a search is cancelled
	searchInput textinput.Model

	confirmDelete bool
}

func newListState() listState {
	return listState{searchInput: newSearchInput()}
}

func newSearchInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "契約名で検索"
	ti.Prompt = "/ "
	ti.CharLimit = model.MaxNameLength
	ti.Width = 30
	return ti
}

// clamp keeps the cursor inside a list of n rows.
func (s *listState) clamp(n int) {
	if s.cursor >= n {
		s.cursor = n - 1
	}
	if s.cursor < 0 {
		s.cursor = 0
	}
	if s.offset > s.cursor {
		s.offset = s.cursor
	}
}

func (s *listState) move(delta, n int) {
	s.cursor += delta
	s.clamp(n)
}

// selectID moves the cursor to id if it is visible.
func (s *listState) selectID(list []model.Contract, id string) {
	for i, c := range list {
		if c.ID == id {
			s.cursor = i
			return
		}
	}
}

// nextCategory cycles all → each category in order → all.
func nextCategory(c model.Category) model.Category {
	if c == "" {
		return model.Categories[0]
	}
	i := c.Index() + 1
	if i <= 0 || i >= len(model.Categories) {
		return ""
	}
	return model.Categories[i]
}

// visibleContracts applies the category filter and name search to the
// renewal-ordered snapshot.
func (a App) visibleContracts() []model.Contract {
	list := a.contracts
	if a.list.category != "" {
		list = pipeline.FilterByCategory(list, a.list.category)
	}
	if a.list.query != "" {
		list = pipeline.SearchContracts(list, a.list.query)
	}
	return list
}

func (a App) selected() (model.Contract, bool) {
	list := a.visibleContracts()
	if a.list.cursor < 0 || a.list.cursor >= len(list) {
		return model.Contract{}, false
	}
	return list[a.list.cursor], true
}

// updateListKey handles list tab keys. handled is false for keys the tab
// does not own, so global bindings still apply.
func (a App) updateListKey(key string) (next tea.Model, cmd tea.Cmd, handled bool) {
	n := len(a.visibleContracts())

	switch key {
	case "j", "down":
		a.list.move(1, n)
	case "k", "up":
		a.list.move(-1, n)
	case "g", "home":
		a.list.cursor, a.list.offset = 0, 0
	case "G", "end":
		a.list.move(n, n)
	case "/":
		a.list.searching = true
		a.list.prevQuery = a.list.query
		a.list.searchInput.SetValue(a.list.query)
		a.list.searchInput.CursorEnd()
		return a, a.list.searchInput.Focus(), true
	case "c":
		a.list.category = nextCategory(a.list.category)
		a.list.cursor, a.list.offset = 0, 0
	case "esc":
		a.list.category, a.list.query = "", ""
		a.list.cursor, a.list.offset = 0, 0
	case "enter", "e":
		c, ok := a.selected()
		if !ok {
			return a, nil, true
		}
		next, cmd = a.openForm(c.ID, ValuesFromForm(model.FormFromContract(c)))
		return next, cmd, true
	case "d":
		if _, ok := a.selected(); ok {
			a.list.confirmDelete = true
		}
	default:
		return a, nil, false
	}
	return a, nil, true
}

// updateListSearch filters live as the query is typed. Enter keeps the
// query; Esc restores the previous one.
func (a App) updateListSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.list.searching = false
		a.list.searchInput.Blur()
		return a, nil
	case "esc":
		a.list.searching = false
		a.list.query = a.list.prevQuery
		a.list.searchInput.Blur()
		a.list.clamp(len(a.visibleContracts()))
		return a, nil
	}

	var cmd tea.Cmd
	a.list.searchInput, cmd = a.list.searchInput.Update(msg)
	a.list.query = strings.TrimSpace(a.list.searchInput.Value())
	a.list.cursor, a.list.offset = 0, 0
	return a, cmd
}

func (a App) updateDeleteConfirm(key string) (tea.Model, tea.Cmd) {
	a.list.confirmDelete = false
	if key != "y" && key != "Y" {
		return a, nil
	}
	c, ok := a.selected()
	if !ok {
		return a, nil
	}
	a.refreshing = true
	return a, deleteCmd(a.ctx, a.manager, c)
}

func (a App) renderListTab(cw, h int) string {
	t := theme.Active
	list := a.visibleContracts()

	if len(a.contracts) == 0 {
		msg := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).
			Render("契約が登録されていません。[a] で最初の契約を追加しましょう。")
		return components.ContentCard("契約一覧", msg, cw)
	}

	var top string
	if a.list.searching {
		top = a.list.searchInput.View() + "\n"
	}

	if a.isCompactLayout() {
		listCard := a.renderListCard(list, cw, h/2)
		detail := a.renderDetailCard(list, cw)
		return top + listCard + "\n" + detail
	}

	leftW := cw * 2 / 5
	if leftW < 44 {
		leftW = 44
	}
	rightW := cw - leftW
	rows := h - lipgloss.Height(top)
	return top + components.CardRow([]string{
		a.renderListCard(list, leftW, rows),
		a.renderDetailCard(list, rightW),
	})
}

func (a App) renderListCard(list []model.Contract, w, h int) string {
	t := theme.Active
	inner := components.CardInnerWidth(w)

	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	title := fmt.Sprintf("契約一覧  %d件", len(list))
	if len(list) == 0 {
		return components.ContentCard(title, mutedStyle.Render("条件に一致する契約はありません"), w)
	}

	visible := h - 4 // border, title, hint
	if visible < 3 {
		visible = 3
	}
	offset := a.list.offset
	if a.list.cursor < offset {
		offset = a.list.cursor
	}
	if a.list.cursor >= offset+visible {
		offset = a.list.cursor - visible + 1
	}
	end := min(len(list), offset+visible)

	const dueW = 10
	amountW := 14
	nameW := inner - amountW - dueW - 2
	if nameW < 8 {
		nameW = 8
	}

	var body strings.Builder
	for i := offset; i < end; i++ {
		c := list[i]
		days := pipeline.DaysUntilRenewal(c, a.now)
		urg := cli.UrgencyLevel(days)

		style := rowStyle
		if i == a.list.cursor {
			style = selStyle
		}
		dueStyle := style.Foreground(t.Urgency(urg))

		body.WriteString(style.Render(fitCells(c.Category.Emoji()+" "+c.Name, nameW) + " "))
		body.WriteString(style.Render(fitCells(cli.FormatBillingCycle(c.Amount, string(c.BillingCycle)), amountW) + " "))
		body.WriteString(dueStyle.Render(fitCells(cli.FormatRelativeDate(c.RenewalDate, a.now), dueW)))
		body.WriteString("\n")
	}

	if a.list.confirmDelete {
		if c, ok := a.selected(); ok {
			warn := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface).Bold(true)
			body.WriteString(warn.Render(fmt.Sprintf("「%s」を削除しますか？ [y/N]", truncStr(c.Name, 20))))
		}
	} else {
		body.WriteString(mutedStyle.Render("[/]検索 [c]カテゴリ [e]編集 [d]削除"))
	}

	return components.ContentCard(title, body.String(), w)
}

func (a App) renderDetailCard(list []model.Contract, w int) string {
	t := theme.Active
	if a.list.cursor >= len(list) {
		return components.ContentCard("詳細", "", w)
	}
	c := list[a.list.cursor]
	inner := components.CardInnerWidth(w)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	costStyle := lipgloss.NewStyle().Foreground(t.GreenBright).Background(t.Surface)
	ruleStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	days := pipeline.DaysUntilRenewal(c, a.now)
	urg := cli.UrgencyLevel(days)
	urgStyle := lipgloss.NewStyle().Foreground(t.Urgency(urg)).Background(t.Surface).Bold(true)

	field := func(label, value string, style lipgloss.Style) string {
		return labelStyle.Render(fitCells(label, 14)) + style.Render(value) + "\n"
	}

	var b strings.Builder
	b.WriteString(labelStyle.Render(c.Category.Emoji() + " " + c.Category.Label()))
	b.WriteString("\n")
	b.WriteString(ruleStyle.Render(strings.Repeat("─", inner)))
	b.WriteString("\n")
	b.WriteString(field("支払い", cli.FormatBillingCycle(c.Amount, string(c.BillingCycle)), valueStyle))
	if c.BillingCycle != model.BillingOneTime {
		b.WriteString(field("年額換算", cli.FormatCurrency(pipeline.AnnualCost(c)), costStyle))
		b.WriteString(field("月額換算", cli.FormatCurrency(pipeline.MonthlyCost(c)), costStyle))
	}
	b.WriteString(field("更新日", cli.FormatDateWithDay(c.RenewalDate), valueStyle))
	b.WriteString(field("状態", urg.Label()+"  "+cli.FormatRenewalStatus(days, a.now), urgStyle))

	reminder := fmt.Sprintf("%d日前", c.ReminderDays)
	if c.NotificationID == "" {
		reminder += "（未設定）"
	} else {
		reminder += "（設定済み）"
	}
	b.WriteString(field("リマインダー", reminder, valueStyle))

	if c.Notes != "" {
		b.WriteString("\n")
		b.WriteString(labelStyle.Render("メモ"))
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Width(inner).Render(c.Notes))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(ruleStyle.Render(fmt.Sprintf("ID %s · 登録 %s · 更新 %s",
		shortID(c.ID), cli.FormatDate(c.CreatedAt), cli.FormatDate(c.UpdatedAt))))

	return components.ContentCard(c.Name, b.String(), w)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
