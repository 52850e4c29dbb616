package components

import (
	"strconv"
	"strings"

	"github.com/theirongolddev/koshin/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// StatusInfo is what the bottom bar reports on its right side.
type StatusInfo struct {
	Count      int
	Refreshing bool
	Age        string // human-readable time since the last load
	Message    string // last action result; shown instead of the hints
	Err        error
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, info StatusInfo) string {
	t := theme.Active

	style := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)

	left := style.Render(" [?]help  [a]追加  [r]再読込  [q]終了")
	switch {
	case info.Err != nil:
		left = lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface).Render(" " + info.Err.Error())
	case info.Message != "":
		left = lipgloss.NewStyle().Foreground(t.GreenBright).Background(t.Surface).Render(" " + info.Message)
	}

	right := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Render(strconv.Itoa(info.Count)) +
		style.Render("件")
	if info.Refreshing {
		right += style.Render(" · 読込中")
	} else if info.Age != "" {
		right += style.Render(" · " + info.Age)
	}
	right += style.Render(" ")

	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 0 {
		padding = 0
	}

	return left + style.Render(strings.Repeat(" ", padding)) + right
}
