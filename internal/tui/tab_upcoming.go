package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/koshin/internal/cli"
	"github.com/theirongolddev/koshin/internal/model"
	"github.com/theirongolddev/koshin/internal/pipeline"
	"github.com/theirongolddev/koshin/internal/tui/components"
	"github.com/theirongolddev/koshin/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func (a App) renderUpcomingTab(cw int) string {
	t := theme.Active
	days := a.cfg.General.UpcomingDays
	if days <= 0 {
		days = pipeline.DefaultUpcomingDays
	}

	upcoming := pipeline.UpcomingRenewals(a.contracts, days, a.now)
	var overdue []model.Contract
	for _, c := range a.contracts {
		if pipeline.IsRenewalPassed(c, a.now) {
			overdue = append(overdue, c)
		}
	}

	var b strings.Builder
	if len(overdue) > 0 {
		b.WriteString(components.ContentCard(
			fmt.Sprintf("更新日超過  %d件", len(overdue)),
			a.renewalRows(overdue, cw)+"\n"+
				lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).
					Render("[l] 一覧で選んで [e] から次の更新日に変更できます"),
			cw))
		b.WriteString("\n")
	}

	title := fmt.Sprintf("%d日以内の更新  %d件", days, len(upcoming))
	body := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Render("該当する契約はありません")
	if len(upcoming) > 0 {
		var total int64
		for _, c := range upcoming {
			total += c.Amount
		}
		body = a.renewalRows(upcoming, cw) + "\n" +
			lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Render("支払い予定 ") +
			lipgloss.NewStyle().Foreground(t.GreenBright).Background(t.Surface).Bold(true).Render(cli.FormatCurrency(total))
	}
	b.WriteString(components.ContentCard(title, body, cw))
	return b.String()
}

// renewalRows renders one aligned row per contract, colored by urgency.
func (a App) renewalRows(list []model.Contract, w int) string {
	t := theme.Active
	inner := components.CardInnerWidth(w)

	const (
		urgW   = 6
		dateW  = 20
		relW   = 10
		priceW = 14
	)
	nameW := inner - urgW - dateW - relW - priceW - 4
	if nameW < 10 {
		nameW = 10
	}

	header := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	row := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	sep := row.Render(" ")

	var b strings.Builder
	b.WriteString(header.Render(
		fitCells("", urgW) + " " + fitCells("契約", nameW) + " " + fitCells("金額", priceW) + " " +
			fitCells("更新日", dateW) + " " + fitCells("残り", relW)))

	for _, c := range list {
		u := cli.UrgencyLevel(pipeline.DaysUntilRenewal(c, a.now))
		urgStyle := row.Foreground(t.Urgency(u)).Bold(true)

		b.WriteString("\n")
		b.WriteString(urgStyle.Render(fitCells("● "+u.Label(), urgW)))
		b.WriteString(sep)
		b.WriteString(row.Render(fitCells(c.Category.Emoji()+" "+c.Name, nameW)))
		b.WriteString(sep)
		b.WriteString(row.Render(fitCells(cli.FormatBillingCycle(c.Amount, string(c.BillingCycle)), priceW)))
		b.WriteString(sep)
		b.WriteString(row.Render(fitCells(cli.FormatDateWithDay(c.RenewalDate), dateW)))
		b.WriteString(sep)
		b.WriteString(urgStyle.Render(fitCells(cli.FormatRelativeDate(c.RenewalDate, a.now), relW)))
	}
	return b.String()
}
