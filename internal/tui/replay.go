package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/magball/internal/physics"
	"github.com/san-kum/magball/internal/sim"
)

const historyLen = 60

// Replay steps through a finished closed-loop run.
type Replay struct {
	title    string
	result   *sim.Result
	track    Track
	setpoint float64
	// offset converts stored states to absolute positions (x1_e for a
	// linear run, 0 for a nonlinear one).
	offset float64
	st     styles

	frame  int
	speed  int
	paused bool
	width  int
}

func NewReplay(title string, result *sim.Result, p physics.Params, setpoint, offset float64) *Replay {
	return &Replay{
		title:    title,
		result:   result,
		track:    NewTrack(p, 60),
		setpoint: setpoint,
		offset:   offset,
		st:       themes["default"].styles(),
		speed:    1,
		width:    80,
	}
}

func (m *Replay) WithTheme(t Theme) *Replay {
	m.st = t.styles()
	return m
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(16*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Replay) Init() tea.Cmd { return tick() }

func (m *Replay) last() int { return len(m.result.States) - 1 }

func (m *Replay) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.track.width = max(10, min(msg.Width-4, 100))
		return m, nil
	case tickMsg:
		if !m.paused {
			m.frame = min(m.frame+m.speed, m.last())
			if m.frame == m.last() {
				m.paused = true
			}
		}
		return m, tick()
	}
	return m, nil
}

func (m *Replay) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return m, tea.Quit
	case " ", "p":
		m.paused = !m.paused
	case "r":
		m.frame = 0
		m.paused = false
	case "right", "l":
		m.frame = min(m.frame+1, m.last())
	case "left", "h":
		m.frame = max(m.frame-1, 0)
	case "+", "=":
		m.speed = min(m.speed*2, 256)
	case "-", "_":
		m.speed = max(m.speed/2, 1)
	case "0":
		m.speed = 1
	}
	return m, nil
}

func (m *Replay) View() string {
	var b strings.Builder
	if len(m.result.States) == 0 {
		return m.st.muted.Render("  empty run\n")
	}
	x := m.result.States[m.frame]
	t := m.result.Times[m.frame]

	b.WriteString("  " + m.st.title.Render(m.title) + m.st.muted.Render(fmt.Sprintf("  t=%.3fs  x%d", t, m.speed)))
	if m.paused {
		b.WriteString(m.st.warning.Render("  paused"))
	}
	b.WriteString("\n\n")
	b.WriteString("  " + m.st.track.Render(m.track.Render(x[0]+m.offset, m.setpoint+m.offset)) + "\n\n")

	b.WriteString(fmt.Sprintf("  %s %s  %s %s  %s %s\n",
		m.st.muted.Render("x1"), m.st.value.Render(fmt.Sprintf("%+.5f m", x[0])),
		m.st.muted.Render("x2"), m.st.value.Render(fmt.Sprintf("%+.4f m/s", x[1])),
		m.st.muted.Render("i"), m.st.value.Render(fmt.Sprintf("%+.4f A", x[2])),
	))
	if m.frame < len(m.result.Controls) {
		b.WriteString(fmt.Sprintf("  %s %s\n", m.st.muted.Render("v"), m.st.control.Render(fmt.Sprintf("%+.3f V", m.result.Controls[m.frame]))))
	}

	lo := max(0, m.frame-historyLen+1)
	hist := make([]float64, 0, historyLen)
	for _, s := range m.result.States[lo : m.frame+1] {
		hist = append(hist, s[0])
	}
	b.WriteString("  " + m.st.title.Render(Sparkline(hist)) + "\n\n")

	progress := 0.0
	if m.last() > 0 {
		progress = float64(m.frame) / float64(m.last())
	}
	barW := m.track.width
	filled := int(math.Round(progress * float64(barW)))
	b.WriteString("  " + m.st.value.Render(strings.Repeat("━", filled)) + m.st.muted.Render(strings.Repeat("─", barW-filled)) + "\n")
	b.WriteString(m.st.muted.Render("  space pause  ←/→ step  +/- speed  r restart  q quit") + "\n")
	return b.String()
}

// Run blocks until the user quits.
func (m *Replay) Run() error {
	_, err := tea.NewProgram(m).Run()
	return err
}
