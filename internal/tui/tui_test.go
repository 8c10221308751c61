package tui

import (
	"bytes"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/magball/internal/dynamo"
	"github.com/san-kum/magball/internal/physics"
	"github.com/san-kum/magball/internal/sim"
)

func TestTrackRender(t *testing.T) {
	p := physics.DefaultParams()
	tr := NewTrack(p, 40)

	row := tr.Render(p.DLength, p.Delta)
	if len([]rune(row)) != 40 {
		t.Fatalf("expected 40 cells, got %d", len([]rune(row)))
	}
	if !strings.HasPrefix(row, "|") || !strings.HasSuffix(row, "#") {
		t.Errorf("missing anchor or magnet: %q", row)
	}
	near := strings.IndexRune(tr.Render(p.DLength, 0), 'O')
	far := strings.IndexRune(tr.Render(p.Delta-0.01, 0), 'O')
	if !(far > near) {
		t.Errorf("ball should move right towards the magnet: %d vs %d", near, far)
	}
	if c := tr.column(1e9); c != 38 {
		t.Errorf("positions should clamp to the track, got column %d", c)
	}
}

func TestSparkline(t *testing.T) {
	if Sparkline(nil) != "" {
		t.Error("empty input should give empty line")
	}
	s := []rune(Sparkline([]float64{0, 1, 0.5}))
	if len(s) != 3 || s[0] != '▁' || s[1] != '█' {
		t.Errorf("unexpected sparkline %q", string(s))
	}
	if flat := Sparkline([]float64{2, 2}); flat != "▁▁" {
		t.Errorf("flat input should be lowest block, got %q", flat)
	}
}

func replayResult(n int) *sim.Result {
	r := &sim.Result{}
	for k := 0; k < n; k++ {
		r.Times = append(r.Times, float64(k)*0.001)
		r.States = append(r.States, dynamo.State{0.1 / float64(k+1), 0, 0})
		if k < n-1 {
			r.Controls = append(r.Controls, 1)
		}
	}
	return r
}

func TestReplayUpdate(t *testing.T) {
	eq, _ := physics.Solve(physics.DefaultParams())
	m := NewReplay("linear pid", replayResult(5), physics.DefaultParams(), 0, eq.X1)

	m.Update(tickMsg{})
	if m.frame != 1 {
		t.Fatalf("expected frame 1, got %d", m.frame)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'+'}})
	m.Update(tickMsg{})
	if m.frame != 3 {
		t.Errorf("expected frame 3 at double speed, got %d", m.frame)
	}
	m.Update(tickMsg{})
	if m.frame != 4 || !m.paused {
		t.Errorf("replay should stop on the last frame, frame %d paused %v", m.frame, m.paused)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	if m.frame != 0 || m.paused {
		t.Error("restart should rewind and resume")
	}

	view := m.View()
	for _, want := range []string{"linear pid", "x1", "+0.10000 m"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Error("q should quit")
	}
}

func TestLiveRenderer(t *testing.T) {
	var buf bytes.Buffer
	r := NewLiveRenderer(&buf, "nonlinear", physics.DefaultParams(), 0, 1000)
	r.Start()
	r.OnStep(dynamo.State{0.48, 0, 0.68}, dynamo.Control{36}, 0)
	r.Stop()
	out := buf.String()
	if !strings.Contains(out, "x1=+0.48000") || !strings.Contains(out, "v=+36.000") {
		t.Errorf("unexpected frame %q", out)
	}
}

func TestThemes(t *testing.T) {
	names := ThemeNames()
	if len(names) != 3 || names[0] != "default" {
		t.Fatalf("unexpected themes %v", names)
	}
	if _, ok := GetTheme("neon"); ok {
		t.Error("unknown theme should not resolve")
	}
	th, ok := GetTheme("retro")
	if !ok || th.Name != "retro" {
		t.Fatalf("retro theme missing")
	}
	result := &sim.Result{
		Times:  []float64{0},
		States: []dynamo.State{{0.47, 0, 0.68}},
	}
	view := NewReplay("themed", result, physics.DefaultParams(), 0.4786, 0).WithTheme(th).View()
	if !strings.Contains(view, "themed") || !strings.Contains(view, "+0.47000 m") {
		t.Errorf("unexpected view %q", view)
	}
}
