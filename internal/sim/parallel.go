package sim

import (
	"context"

	"github.com/san-kum/magball/internal/dynamo"
)

// Ensemble runs independent closed-loop experiments concurrently. The
// factory builds a fresh simulator (plant, controller and metrics) per run,
// so no state is shared between goroutines.
type Ensemble struct {
	factory func(idx int) (*Simulator, error)
	numRuns int
}

func NewEnsemble(factory func(idx int) (*Simulator, error), numRuns int) *Ensemble {
	return &Ensemble{factory: factory, numRuns: numRuns}
}

// Run returns one result and one error slot per run; a failed run does not
// cancel the others.
func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, []error) {
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	dynamo.ParallelFor(e.numRuns, 1, func(start, end int) {
		for idx := start; idx < end; idx++ {
			s, err := e.factory(idx)
			if err != nil {
				errs[idx] = err
				continue
			}
			results[idx], errs[idx] = s.Run(ctx, cfg)
		}
	})

	return results, errs
}
