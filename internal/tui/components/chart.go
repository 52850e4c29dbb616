package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/theirongolddev/koshin/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

var eighths = []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders a one-row unicode sparkline from values.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	t := theme.Active

	peak := maxOf(values)
	if peak == 0 {
		peak = 1
	}

	var buf strings.Builder
	for _, v := range values {
		idx := 1 + int(v/peak*7)
		if idx > 8 {
			idx = 8
		}
		if v <= 0 {
			idx = 1
		}
		buf.WriteRune(eighths[idx])
	}
	return lipgloss.NewStyle().Foreground(color).Background(t.Surface).Render(buf.String())
}

// BarChart renders vertical bars with a labelled Y axis. labels are ASCII
// and are written under their bar when there is room. Space too small for
// a chart falls back to a sparkline.
func BarChart(values []float64, labels []string, color lipgloss.Color, width, height int) string {
	if len(values) == 0 {
		return ""
	}
	if width < 15 || height < 3 {
		return Sparkline(values, color)
	}
	t := theme.Active

	peak := maxOf(values)
	if peak == 0 {
		peak = 1
	}
	step := chartTickStep(peak)
	for math.Ceil(peak/step) > float64(max(2, height/2)) {
		step *= 2
	}
	ticks := int(math.Ceil(peak / step))
	ceiling := float64(ticks) * step
	rowsPerTick := max(2, height/ticks)
	chartH := rowsPerTick * ticks

	yLabelW := max(4, lipgloss.Width(formatChartLabel(ceiling))+1)

	n := len(values)
	barW := (width - yLabelW - 1 - (n - 1)) / n
	if barW < 1 {
		return Sparkline(values, color)
	}
	if barW > 6 {
		barW = 6
	}
	axisLen := n*barW + n - 1

	axisStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	barStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface)
	peakStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)
	blank := lipgloss.NewStyle().Background(t.Surface)

	var b strings.Builder
	for row := chartH; row >= 1; row-- {
		top := ceiling * float64(row) / float64(chartH)
		bottom := ceiling * float64(row-1) / float64(chartH)

		label := ""
		if row%rowsPerTick == 0 {
			label = formatChartLabel(step * float64(row/rowsPerTick))
		}
		b.WriteString(axisStyle.Render(padLeftCells(label, yLabelW) + "│"))

		for i, v := range values {
			if i > 0 {
				b.WriteString(blank.Render(" "))
			}
			style := barStyle
			if v == peak {
				style = peakStyle
			}
			switch {
			case v >= top:
				b.WriteString(style.Render(strings.Repeat("█", barW)))
			case v > bottom:
				idx := int((v - bottom) / (top - bottom) * 8)
				idx = min(8, max(1, idx))
				b.WriteString(style.Render(strings.Repeat(string(eighths[idx]), barW)))
			default:
				b.WriteString(blank.Render(strings.Repeat(" ", barW)))
			}
		}
		b.WriteString("\n")
	}

	b.WriteString(axisStyle.Render(padLeftCells("0", yLabelW) + "└" + strings.Repeat("─", axisLen)))

	if len(labels) == n {
		line := []byte(strings.Repeat(" ", axisLen))
		lastEnd := -1
		for i, lbl := range labels {
			pos := i * (barW + 1)
			if pos <= lastEnd || pos+len(lbl) > axisLen {
				continue
			}
			copy(line[pos:], lbl)
			lastEnd = pos + len(lbl)
		}
		b.WriteString("\n")
		b.WriteString(blank.Render(strings.Repeat(" ", yLabelW+1)))
		b.WriteString(axisStyle.Render(strings.TrimRight(string(line), " ")))
	}

	return b.String()
}

// chartTickStep picks a 1/2/5 x 10^n interval giving roughly five ticks.
func chartTickStep(maxVal float64) float64 {
	if maxVal <= 0 {
		return 1
	}
	rough := maxVal / 5
	base := math.Pow(10, math.Floor(math.Log10(rough)))
	switch frac := rough / base; {
	case frac < 1.5:
		return base
	case frac < 3.5:
		return 2 * base
	default:
		return 5 * base
	}
}

// formatChartLabel abbreviates yen amounts with 万 and 億.
func formatChartLabel(v float64) string {
	switch {
	case v >= 1e8:
		return trimZero(v/1e8) + "億"
	case v >= 1e4:
		return trimZero(v/1e4) + "万"
	case v >= 1:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%.1f", v)
	}
}

func trimZero(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}

func padLeftCells(s string, w int) string {
	if pad := w - lipgloss.Width(s); pad > 0 {
		return strings.Repeat(" ", pad) + s
	}
	return s
}

func maxOf(values []float64) float64 {
	peak := values[0]
	for _, v := range values[1:] {
		if v > peak {
			peak = v
		}
	}
	return peak
}
