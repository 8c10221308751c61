package tui

import (
	"sort"

	"github.com/charmbracelet/lipgloss"
)

// Theme is the color scheme of the replay view.
type Theme struct {
	Name    string
	Title   lipgloss.Color
	Track   lipgloss.Color
	Muted   lipgloss.Color
	Value   lipgloss.Color
	Warning lipgloss.Color
	Control lipgloss.Color
}

var themes = map[string]Theme{
	"default": {
		Name:    "default",
		Title:   lipgloss.Color("86"),
		Track:   lipgloss.Color("255"),
		Muted:   lipgloss.Color("242"),
		Value:   lipgloss.Color("82"),
		Warning: lipgloss.Color("220"),
		Control: lipgloss.Color("213"),
	},
	"retro": {
		Name:    "retro",
		Title:   lipgloss.Color("#00ff00"),
		Track:   lipgloss.Color("#88ff88"),
		Muted:   lipgloss.Color("#005500"),
		Value:   lipgloss.Color("#00cc00"),
		Warning: lipgloss.Color("#ffff00"),
		Control: lipgloss.Color("#88ff88"),
	},
	"minimal": {
		Name:    "minimal",
		Title:   lipgloss.Color("#ffffff"),
		Track:   lipgloss.Color("#cccccc"),
		Muted:   lipgloss.Color("#888888"),
		Value:   lipgloss.Color("#ffffff"),
		Warning: lipgloss.Color("#ffaa00"),
		Control: lipgloss.Color("#0088ff"),
	},
}

func GetTheme(name string) (Theme, bool) {
	t, ok := themes[name]
	return t, ok
}

func ThemeNames() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type styles struct {
	title, track, muted, value, warning, control lipgloss.Style
}

func (t Theme) styles() styles {
	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }
	return styles{
		title:   fg(t.Title).Bold(true),
		track:   fg(t.Track),
		muted:   fg(t.Muted),
		value:   fg(t.Value),
		warning: fg(t.Warning),
		control: fg(t.Control),
	}
}
