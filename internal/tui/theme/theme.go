// Package theme defines color themes for the koshin TUI dashboard.
package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/koshin/internal/cli"
	"github.com/theirongolddev/koshin/internal/model"
)

// Theme defines the color roles used throughout the TUI.
type Theme struct {
	Name string

	// Surfaces, from the app background up to emphasis.
	Background, Surface, SurfaceHover, SurfaceBright lipgloss.Color
	Border, BorderAccent                             lipgloss.Color

	TextDim, TextMuted, TextPrimary lipgloss.Color
	Accent, AccentBright            lipgloss.Color

	Green, GreenBright, Orange, Red lipgloss.Color
	Blue, Yellow, Magenta, Cyan     lipgloss.Color

	// Categories colors share bars and chips, one per category.
	Categories model.PerCategory[lipgloss.Color]
}

// Active is the currently selected theme.
var Active = FlexokiDark

// FlexokiDark is the default: warm paper tones on near-black.
var FlexokiDark = Theme{
	Name:       "flexoki-dark",
	Background: "#100F0F", Surface: "#1C1B1A", SurfaceHover: "#282726", SurfaceBright: "#343331",
	Border: "#403E3C", BorderAccent: "#3AA99F",
	TextDim: "#575653", TextMuted: "#878580", TextPrimary: "#FFFCF0",
	Accent: "#3AA99F", AccentBright: "#5BC8BE",
	Green: "#879A39", GreenBright: "#A3B859", Orange: "#DA702C", Red: "#D14D41",
	Blue: "#4385BE", Yellow: "#D0A215", Magenta: "#CE5D97", Cyan: "#24837B",
	Categories: model.PerCategory[lipgloss.Color]{"#4385BE", "#CE5D97", "#D0A215", "#24837B"},
}

// Sumi is ink black with a vermilion accent, after hanko seals.
var Sumi = Theme{
	Name:       "sumi",
	Background: "#141414", Surface: "#1F1E1C", SurfaceHover: "#2B2926", SurfaceBright: "#3A3733",
	Border: "#4A4641", BorderAccent: "#E2583E",
	TextDim: "#5E5A54", TextMuted: "#9A948A", TextPrimary: "#F3EEE3",
	Accent: "#E2583E", AccentBright: "#F08A6F",
	Green: "#7BA05B", GreenBright: "#9CC27A", Orange: "#E0953A", Red: "#D93A2B",
	Blue: "#5B7FA8", Yellow: "#D6B350", Magenta: "#B5648F", Cyan: "#4E9C93",
	Categories: model.PerCategory[lipgloss.Color]{"#5B7FA8", "#B5648F", "#D6B350", "#4E9C93"},
}

// TokyoNight is a cool blue/purple theme.
var TokyoNight = Theme{
	Name:       "tokyo-night",
	Background: "#1A1B26", Surface: "#24283B", SurfaceHover: "#343A52", SurfaceBright: "#414868",
	Border: "#565F89", BorderAccent: "#7AA2F7",
	TextDim: "#565F89", TextMuted: "#A9B1D6", TextPrimary: "#C0CAF5",
	Accent: "#7AA2F7", AccentBright: "#A9C1FF",
	Green: "#9ECE6A", GreenBright: "#B9E87A", Orange: "#FF9E64", Red: "#F7768E",
	Blue: "#7AA2F7", Yellow: "#E0AF68", Magenta: "#BB9AF7", Cyan: "#7DCFFF",
	Categories: model.PerCategory[lipgloss.Color]{"#7AA2F7", "#BB9AF7", "#E0AF68", "#7DCFFF"},
}

// Terminal sticks to the 16 ANSI colors.
var Terminal = Theme{
	Name:       "terminal",
	Background: "0", Surface: "0", SurfaceHover: "8", SurfaceBright: "8",
	Border: "8", BorderAccent: "6",
	TextDim: "8", TextMuted: "7", TextPrimary: "15",
	Accent: "6", AccentBright: "14",
	Green: "2", GreenBright: "10", Orange: "3", Red: "1",
	Blue: "4", Yellow: "11", Magenta: "5", Cyan: "6",
	Categories: model.PerCategory[lipgloss.Color]{"4", "5", "11", "6"},
}

// All available themes, in the order settings cycles through them.
var All = []Theme{FlexokiDark, Sumi, TokyoNight, Terminal}

// ByName returns a theme by its name, defaulting to FlexokiDark.
func ByName(name string) Theme {
	for _, t := range All {
		if t.Name == name {
			return t
		}
	}
	return FlexokiDark
}

// Names lists the theme names in display order.
func Names() []string {
	names := make([]string, len(All))
	for i, t := range All {
		names[i] = t.Name
	}
	return names
}

// Valid reports whether name is a known theme.
func Valid(name string) bool {
	for _, n := range Names() {
		if n == name {
			return true
		}
	}
	return false
}

// Urgency maps a renewal urgency to a theme color.
func (t Theme) Urgency(u cli.Urgency) lipgloss.Color {
	switch u {
	case cli.UrgencyUrgent:
		return t.Red
	case cli.UrgencyWarning:
		return t.Orange
	default:
		return t.Green
	}
}

// Category returns the color for c; unknown categories get TextMuted.
func (t Theme) Category(c model.Category) lipgloss.Color {
	if !c.Valid() {
		return t.TextMuted
	}
	return t.Categories.Of(c)
}

// SetActive sets the active theme by name.
func SetActive(name string) {
	Active = ByName(name)
}
