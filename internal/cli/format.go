// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/theirongolddev/koshin/internal/model"
	"github.com/theirongolddev/koshin/internal/validation"
)

const currencyGlyph = "¥"

// FormatNumber groups an integer with the ja-JP thousands separator.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	return message.NewPrinter(language.Japanese).Sprintf("%d", n)
}

// FormatCurrency formats a yen amount. The minus sign goes before the glyph.
// e.g., 1500 -> "¥1,500", -500 -> "-¥500"
func FormatCurrency(amount int64) string {
	if amount < 0 {
		return "-" + currencyGlyph + FormatNumber(-amount)
	}
	return currencyGlyph + FormatNumber(amount)
}

// FormatDate formats a date as "2024年6月15日".
func FormatDate(d time.Time) string {
	return d.Format("2006年1月2日")
}

// FormatDateWithDay formats a date as "2024年6月15日（土）".
func FormatDateWithDay(d time.Time) string {
	return FormatDate(d) + "（" + FormatDayOfWeek(int(d.Weekday())) + "）"
}

// FormatDayOfWeek returns the one-character Japanese weekday for a weekday number.
func FormatDayOfWeek(weekday int) string {
	days := []string{"日", "月", "火", "水", "木", "金", "土"}
	if weekday >= 0 && weekday < 7 {
		return days[weekday]
	}
	return "?"
}

// FormatRelativeDate describes d relative to now: 今日, 明日, "N日後", "約W週間後",
// "約Mヶ月後", "約Y年後". Past dates are always "N日前" with no coarser buckets.
func FormatRelativeDate(d, now time.Time) string {
	d = d.In(now.Location())
	if sameDay(d, now) {
		return "今日"
	}
	if sameDay(d, now.AddDate(0, 0, 1)) {
		return "明日"
	}

	days := ceilDays(d.Sub(now))
	if d.Before(now) {
		n := -days
		if n < 1 {
			n = 1
		}
		return fmt.Sprintf("%d日前", n)
	}

	switch {
	case days <= 7:
		return fmt.Sprintf("%d日後", days)
	case days <= 30:
		return fmt.Sprintf("約%d週間後", days/7)
	case days <= 365:
		return fmt.Sprintf("約%dヶ月後", days/30)
	default:
		return fmt.Sprintf("約%d年後", days/365)
	}
}

// FormatRenewalStatus turns a day count from DaysUntilRenewal into a status line.
func FormatRenewalStatus(daysUntil int, now time.Time) string {
	switch {
	case daysUntil < 0:
		return fmt.Sprintf("更新期限を%d日過ぎています", -daysUntil)
	case daysUntil == 0:
		return "今日が更新日です"
	case daysUntil == 1:
		return "明日が更新日です"
	case daysUntil <= 7:
		return fmt.Sprintf("あと%d日で更新日です", daysUntil)
	case daysUntil <= 30:
		return fmt.Sprintf("あと%d日", daysUntil)
	default:
		return FormatRelativeDate(now.Add(time.Duration(daysUntil)*24*time.Hour), now)
	}
}

// Urgency classifies how soon a renewal is due.
type Urgency string

// Urgency levels.
const (
	UrgencyUrgent  Urgency = "urgent"
	UrgencyWarning Urgency = "warning"
	UrgencyNormal  Urgency = "normal"
)

// Label returns the Japanese display label.
func (u Urgency) Label() string {
	switch u {
	case UrgencyUrgent:
		return "至急"
	case UrgencyWarning:
		return "注意"
	default:
		return "通常"
	}
}

// UrgencyLevel maps days until renewal to an urgency. Overdue renewals are urgent.
func UrgencyLevel(daysUntil int) Urgency {
	switch {
	case daysUntil <= 3:
		return UrgencyUrgent
	case daysUntil <= 14:
		return UrgencyWarning
	default:
		return UrgencyNormal
	}
}

// FormatBillingCycle formats an amount with its cycle suffix.
// e.g., (1000, "monthly") -> "¥1,000/月"
func FormatBillingCycle(amount int64, cycle string) string {
	formatted := FormatCurrency(amount)
	switch model.BillingCycle(cycle) {
	case model.BillingMonthly:
		return formatted + "/月"
	case model.BillingYearly:
		return formatted + "/年"
	case model.BillingOneTime:
		return formatted + "（一括）"
	default:
		return formatted
	}
}

// ParseCurrency reads an amount back from FormatCurrency output or plain
// digits. Unparseable input yields 0.
func ParseCurrency(s string) int64 {
	cleaned := strings.Map(func(r rune) rune {
		if r == '¥' || r == ',' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	n, ok := validation.ParseInt(cleaned)
	if !ok {
		return 0
	}
	return n
}

// FormatNumberInput keeps only ASCII digits, for sanitizing typed amounts.
func FormatNumberInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// FormatPercent formats a 0-100 share with one decimal.
func FormatPercent(pct float64) string {
	return strconv.FormatFloat(pct, 'f', 1, 64) + "%"
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ceilDays rounds a duration up to whole days; negative durations round
// toward zero.
func ceilDays(d time.Duration) int {
	const day = 24 * time.Hour
	if d > 0 {
		return int((d + day - 1) / day)
	}
	return int(d / day)
}
