package intent

import "github.com/Lumora-Labs/lumora-go-router/models"

const thresholdBase = 12

// Threshold computes the minimum confidence a category needs to execute
// directly. Deltas over the base of 12:
//
//	mood \ tense   past   present   future
//	question        -6      -3       -1
//	command         +1      +2       +4
//	neither         -2       0       +1
//
// A context-gated category whose artifact is already present gets a further
// -5. The result is clamped to [1, 95]. Pure and total: every combination of
// inputs has a value.
func Threshold(g models.GrammarSignal, env models.Env, contextGated bool) int {
	t := thresholdBase
	switch {
	case g.IsQuestion:
		switch g.Tense {
		case models.TensePast:
			t -= 6
		case models.TenseFuture:
			t -= 1
		default:
			t -= 3
		}
	case g.IsCommand:
		switch g.Tense {
		case models.TensePast:
			t += 1
		case models.TenseFuture:
			t += 4
		default:
			t += 2
		}
	default:
		switch g.Tense {
		case models.TensePast:
			t -= 2
		case models.TenseFuture:
			t += 1
		}
	}
	if contextGated && env.HasRecentArtifact {
		t -= 5
	}
	if t < 1 {
		t = 1
	}
	if t > 95 {
		t = 95
	}
	return t
}
