package tui

import (
	"math"
	"strings"

	"github.com/san-kum/magball/internal/physics"
)

// Track maps ball positions onto a row of terminal cells: the spring anchor
// at the left, the magnet face at the right.
type Track struct {
	lo, hi float64
	gap    float64
	width  int
}

func NewTrack(p physics.Params, width int) Track {
	if width < 10 {
		width = 10
	}
	span := p.Delta - p.DLength
	return Track{lo: p.DLength - 0.25*span, hi: p.Delta, gap: p.Delta, width: width}
}

func (t Track) column(x float64) int {
	c := int(math.Round((x - t.lo) / (t.hi - t.lo) * float64(t.width-2)))
	return max(0, min(t.width-2, c))
}

// Render draws the spring, ball and magnet for position x1. A mark for the
// reference position is drawn when ref is finite.
func (t Track) Render(x1, ref float64) string {
	row := make([]rune, t.width)
	for i := range row {
		row[i] = ' '
	}
	row[0] = '|'
	ball := t.column(x1)
	for i := 1; i < ball; i++ {
		row[i] = '~'
	}
	if !math.IsNaN(ref) && !math.IsInf(ref, 0) {
		row[t.column(ref)] = '^'
	}
	row[ball] = 'O'
	row[t.width-1] = '#'
	return string(row)
}

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// Sparkline scales values to block characters between their min and max.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	var b strings.Builder
	for _, v := range values {
		idx := 0
		if hi > lo {
			idx = int((v - lo) / (hi - lo) * float64(len(sparkBlocks)-1))
		}
		b.WriteRune(sparkBlocks[idx])
	}
	return b.String()
}
