package tui

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/san-kum/magball/internal/dynamo"
	"github.com/san-kum/magball/internal/physics"
)

const (
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

// LiveRenderer is a sim observer that redraws the track at most frameRate
// times per second while a run is in progress.
type LiveRenderer struct {
	out       io.Writer
	title     string
	track     Track
	offset    float64
	frameRate int
	lastFrame time.Time
	history   []float64
}

func NewLiveRenderer(out io.Writer, title string, p physics.Params, offset float64, frameRate int) *LiveRenderer {
	if frameRate < 1 {
		frameRate = 30
	}
	return &LiveRenderer{
		out:       out,
		title:     title,
		track:     NewTrack(p, 60),
		offset:    offset,
		frameRate: frameRate,
		history:   make([]float64, 0, historyLen),
	}
}

func (r *LiveRenderer) OnStep(x dynamo.State, u dynamo.Control, t float64) {
	r.history = append(r.history, x[0])
	if len(r.history) > historyLen {
		r.history = r.history[1:]
	}
	if time.Since(r.lastFrame) < time.Second/time.Duration(r.frameRate) {
		return
	}
	r.lastFrame = time.Now()

	var b strings.Builder
	b.WriteString(clearScreen)
	fmt.Fprintf(&b, "  %s  t=%.3fs\n\n", r.title, t)
	b.WriteString("  " + r.track.Render(x[0]+r.offset, math.NaN()) + "\n\n")
	fmt.Fprintf(&b, "  x1=%+.5f  x2=%+.4f  i=%+.4f  v=%+.3f\n", x[0], x[1], x[2], u.Scalar())
	b.WriteString("  " + Sparkline(r.history) + "\n")
	fmt.Fprint(r.out, b.String())
}

func (r *LiveRenderer) Start() { fmt.Fprint(r.out, hideCursor) }
func (r *LiveRenderer) Stop()  { fmt.Fprint(r.out, showCursor) }
