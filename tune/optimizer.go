package tune

import (
	"math"

	"github.com/tracklab/trackbench/track"
)

// Strategy is the suggest/evaluate/observe contract a black-box minimizer
// implements. Optimizer.Run drives the loop; Strategy owns the search
// algorithm.
type Strategy interface {
	// Suggest proposes the next parameter vector to evaluate, within the
	// bounded box of spec §4.E.
	Suggest() track.Settings
	// Observe reports the loss Optimizer.Run measured for the last
	// suggestion, so the strategy can adapt its next suggestion.
	Observe(settings track.Settings, loss float64)
}

// Trial is one (parameters, loss) observation from an Optimizer run.
type Trial struct {
	Settings track.Settings
	Loss     float64
}

// Optimizer drives a Strategy against an Objective for a fixed trial
// budget and reports the best trial observed.
type Optimizer struct {
	Objective *Objective
	Strategy  Strategy
}

// Run executes n trials and returns the parameter vector achieving minimum
// mean loss, per spec §4.E.
func (o *Optimizer) Run(n int) (Trial, []Trial, error) {
	best := Trial{Loss: math.Inf(1)}
	history := make([]Trial, 0, n)

	for i := 0; i < n; i++ {
		settings := o.Strategy.Suggest()
		loss, err := o.Objective.Evaluate(settings)
		if err != nil {
			// ParameterOutOfRange at setup time: a well-behaved Strategy
			// never proposes outside the bounded box, so this indicates a
			// strategy bug. Still reported as a trial with +Inf loss so
			// the driver doesn't abort a long-running search over it.
			loss = math.Inf(1)
		}

		trial := Trial{Settings: settings, Loss: loss}
		history = append(history, trial)
		o.Strategy.Observe(settings, loss)

		if loss < best.Loss {
			best = trial
		}
	}

	return best, history, nil
}
