package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/koshin/internal/tui/theme"
)

func TestFormatChartLabel(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{500, "500"},
		{10000, "1万"},
		{25000, "2.5万"},
		{300000, "30万"},
		{150000000, "1.5億"},
		{0.5, "0.5"},
	}
	for _, tt := range tests {
		if got := formatChartLabel(tt.in); got != tt.want {
			t.Errorf("formatChartLabel(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestChartTickStep(t *testing.T) {
	tests := map[float64]float64{
		100:    20,
		1000:   200,
		60000:  10000,
		17000:  2000,
		0:      1,
		450000: 50000,
	}
	for in, want := range tests {
		if got := chartTickStep(in); got != want {
			t.Errorf("chartTickStep(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestBarChartFitsWidth(t *testing.T) {
	theme.SetActive("flexoki-dark")

	values := []float64{1490, 0, 60000, 85000, 0, 0, 1200, 0, 0, 0, 0, 9800}
	labels := []string{"11", "12", "'26", "2", "3", "4", "5", "6", "7", "8", "9", "10"}

	chart := BarChart(values, labels, theme.Active.Blue, 60, 8)
	for i, line := range strings.Split(chart, "\n") {
		if w := lipgloss.Width(line); w > 60 {
			t.Errorf("line %d width = %d, exceeds 60", i, w)
		}
	}
	if !strings.Contains(chart, "'26") {
		t.Error("expected year label under January")
	}

	if got := BarChart(values, labels, theme.Active.Blue, 10, 8); lipgloss.Height(got) != 1 {
		t.Errorf("narrow chart should fall back to a sparkline, got %d lines", lipgloss.Height(got))
	}
}
