package sim

import "github.com/san-kum/magball/internal/dynamo"

// Trajectory is the sampled solution of one propagation call. Times start
// at zero; the last sample is the state the model continues from.
type Trajectory struct {
	Times  []float64
	States []dynamo.State
}

func (tr *Trajectory) Len() int { return len(tr.Times) }

func (tr *Trajectory) Final() dynamo.State {
	if len(tr.States) == 0 {
		return nil
	}
	return tr.States[len(tr.States)-1].Clone()
}

// Component extracts one state coordinate over time.
func (tr *Trajectory) Component(idx int) []float64 {
	out := make([]float64, len(tr.States))
	for i, s := range tr.States {
		if idx < len(s) {
			out[i] = s[idx]
		}
	}
	return out
}

func (tr *Trajectory) append(t float64, x dynamo.State) {
	tr.Times = append(tr.Times, t)
	tr.States = append(tr.States, x.Clone())
}
