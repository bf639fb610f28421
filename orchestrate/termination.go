package orchestrate

import "github.com/priorauth/autoauth/core/verdict"

// Termination decides after each Evaluator turn whether the session stops:
// either the Evaluator is satisfied (retry == false) or the iteration cap is
// reached. The decision is monotonic: the loop never issues another turn
// once ShouldTerminate returns true.
type Termination struct {
	MaxIterations int
}

// ShouldTerminate reports whether the session stops given the latest parsed
// verdict and the number of completed formulate/retrieve/evaluate iterations.
func (t Termination) ShouldTerminate(v verdict.Verdict, iterations int) bool {
	return v.Satisfied() || t.Exhausted(iterations)
}

// Exhausted reports whether the iteration cap has been consumed. Hitting the
// cap is a recognized terminal outcome, not an error: the session returns a
// degraded verdict instead of failing.
func (t Termination) Exhausted(iterations int) bool {
	return iterations >= t.MaxIterations
}
