package control

// The controllers are assembled from these terms. Each term owns only the
// state it needs, so PD and PID share no hidden bookkeeping.

type proportional struct {
	kp float64
}

func (p proportional) term(err float64) float64 { return p.kp * err }

// derivative is a backward difference; it contributes nothing until it has
// seen one error.
type derivative struct {
	gain   float64 // kd/ts
	prev   float64
	primed bool
}

func (d *derivative) term(err float64) float64 {
	if !d.primed {
		return 0
	}
	return d.gain * (err - d.prev)
}

func (d *derivative) update(err float64) {
	d.prev = err
	d.primed = true
}

func (d *derivative) reset() { *d = derivative{gain: d.gain} }

// integral sums prior errors; the current error is added after its term is
// read.
type integral struct {
	gain float64 // ki*ts
	sum  float64
}

func (i *integral) term() float64 {
	if i.gain == 0 {
		return 0
	}
	return i.gain * i.sum
}

func (i *integral) update(err float64) { i.sum += err }

func (i *integral) reset() { i.sum = 0 }
