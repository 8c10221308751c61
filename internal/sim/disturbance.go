package sim

import (
	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/san-kum/magball/internal/dynamo"
)

// Disturbed adds a smooth random voltage to the input of a plant. The
// disturbance is coherent noise in time: Scale is roughly the interval over
// which it decorrelates.
type Disturbed struct {
	plant     Plant
	noise     opensimplex.Noise
	amplitude float64
	scale     float64
	t         float64
}

func NewDisturbed(p Plant, amplitude, scale float64, seed int64) *Disturbed {
	if scale <= 0 {
		scale = 0.05
	}
	return &Disturbed{
		plant:     p,
		noise:     opensimplex.NewNormalized(seed),
		amplitude: amplitude,
		scale:     scale,
	}
}

// At returns the disturbance voltage at time t, within [-amplitude, amplitude].
func (d *Disturbed) At(t float64) float64 {
	return d.amplitude * (2*d.noise.Eval2(t/d.scale, 0) - 1)
}

func (d *Disturbed) Propagate(voltage, dt float64, numPoints int) (*Trajectory, error) {
	tr, err := d.plant.Propagate(voltage+d.At(d.t), dt, numPoints)
	if err != nil {
		return nil, err
	}
	d.t += dt
	return tr, nil
}

func (d *Disturbed) State() dynamo.State { return d.plant.State() }
