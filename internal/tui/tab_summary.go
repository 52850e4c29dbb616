package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/koshin/internal/cli"
	"github.com/theirongolddev/koshin/internal/model"
	"github.com/theirongolddev/koshin/internal/pipeline"
	"github.com/theirongolddev/koshin/internal/tui/components"
	"github.com/theirongolddev/koshin/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

const chartMonths = 12

func (a App) renderSummaryTab(cw int) string {
	t := theme.Active
	s := a.summary

	upcomingColor := t.TextPrimary
	if s.UpcomingCount > 0 {
		upcomingColor = t.Orange
	}
	overdueColor := t.TextPrimary
	if s.OverdueCount > 0 {
		overdueColor = t.Red
	}

	var b strings.Builder
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "年間合計", Value: cli.FormatCurrency(s.AnnualCost), Color: t.GreenBright},
		{Label: "月額換算", Value: cli.FormatCurrency(s.MonthlyCost), Color: t.GreenBright},
		{Label: "契約数", Value: strconv.Itoa(s.TotalContracts), Note: oneTimeNote(s.OneTimeCount)},
		{Label: fmt.Sprintf("%d日以内に更新", s.UpcomingWindowDays), Value: strconv.Itoa(s.UpcomingCount), Color: upcomingColor},
		{Label: "更新日超過", Value: strconv.Itoa(s.OverdueCount), Color: overdueColor},
	}, cw))
	b.WriteString("\n")

	breakdown := a.renderCategoryCard
	chart := a.renderRenewalChart
	if a.isCompactLayout() {
		b.WriteString(breakdown(cw))
		b.WriteString("\n")
		b.WriteString(chart(cw))
		return b.String()
	}

	halves := components.LayoutRow(cw, 2)
	b.WriteString(components.CardRow([]string{breakdown(halves[0]), chart(halves[1])}))
	return b.String()
}

func oneTimeNote(n int) string {
	if n == 0 {
		return ""
	}
	return fmt.Sprintf("うち一括 %d件", n)
}

// renderCategoryCard shows each category's share of the annual cost.
func (a App) renderCategoryCard(w int) string {
	t := theme.Active
	s := a.summary
	inner := components.CardInnerWidth(w)
	share := pipeline.CategoryShare(s.CostByCategory)

	const labelW = 12
	suffixW := 16
	barW := inner - labelW - suffixW - 7
	if barW < 6 {
		barW = 6
	}

	var body strings.Builder
	s.CostByCategory.Each(func(c model.Category, cost int64) {
		suffix := fmt.Sprintf("%s (%d)", cli.FormatCurrency(cost), s.CountByCategory.Of(c))
		body.WriteString(components.ShareBar(
			c.Emoji()+" "+c.Label(),
			share.Of(c)/100,
			labelW, barW,
			t.Category(c),
			suffix,
		))
		body.WriteString("\n")
	})
	body.WriteString(lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).
		Render("一括払いは年額に含みません"))

	return components.ContentCard("カテゴリ別（年額）", body.String(), w)
}

// renderRenewalChart plots what falls due in each of the coming months.
func (a App) renderRenewalChart(w int) string {
	t := theme.Active
	buckets := pipeline.RenewalsByMonth(a.contracts, chartMonths, a.now)

	values := make([]float64, len(buckets))
	labels := make([]string, len(buckets))
	for i, m := range buckets {
		values[i] = float64(m.Amount)
		labels[i] = monthLabel(m, i)
	}

	var total int64
	count := 0
	for _, m := range buckets {
		total += m.Amount
		count += m.Count
	}
	title := fmt.Sprintf("今後%dか月の更新  %d件 %s", chartMonths, count, cli.FormatCurrency(total))

	return components.ContentCard(title,
		components.BarChart(values, labels, t.Blue, components.CardInnerWidth(w), 8),
		w)
}

// monthLabel is the month number, with the two-digit year on January and
// on the first bucket.
func monthLabel(m pipeline.MonthRenewals, i int) string {
	if i == 0 || m.Month.Month() == 1 {
		return m.Month.Format("'06/1")
	}
	return strconv.Itoa(int(m.Month.Month()))
}
