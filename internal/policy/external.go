package policy

import (
	"golang.org/x/exp/rand"

	"github.com/tcgsim/battlesim/internal/game"
)

// Scorer rates a candidate action. A learned policy plugs into the
// simulation by implementing it; higher is better.
type Scorer interface {
	Score(view game.DecisionView, action game.Action) float64
}

// ScorerFunc adapts a function to the Scorer interface.
type ScorerFunc func(view game.DecisionView, action game.Action) float64

func (f ScorerFunc) Score(view game.DecisionView, action game.Action) float64 {
	return f(view, action)
}

// External chooses the legal action its Scorer rates highest. Ties are
// broken with the policy's random source.
type External struct {
	scorer Scorer
	rng    *rand.Rand
}

var _ game.Policy = (*External)(nil)

func NewExternal(scorer Scorer, rng *rand.Rand) *External {
	return &External{scorer: scorer, rng: rng}
}

func (e *External) Decide(view game.DecisionView) game.Action {
	if len(view.Legal) == 0 {
		return game.EndTurn()
	}
	var best []game.Action
	var bestScore float64
	for _, a := range view.Legal {
		score := e.scorer.Score(view, a)
		switch {
		case len(best) == 0 || score > bestScore:
			best = append(best[:0], a)
			bestScore = score
		case score == bestScore:
			best = append(best, a)
		}
	}
	if len(best) == 1 || e.rng == nil {
		return best[0]
	}
	return best[e.rng.Intn(len(best))]
}
