package policy

import (
	"golang.org/x/exp/rand"

	"github.com/tcgsim/battlesim/internal/game"
)

// DefaultPassProbability is how often Random ends its turn when it could
// still act.
const DefaultPassProbability = 0.2

// Random picks uniformly among the legal actions other than ending the turn,
// and ends the turn with a fixed probability.
type Random struct {
	PassProbability float64
	rng             *rand.Rand
}

var _ game.Policy = (*Random)(nil)

func NewRandom(rng *rand.Rand, passProbability float64) *Random {
	if passProbability < 0 {
		passProbability = DefaultPassProbability
	}
	return &Random{PassProbability: passProbability, rng: rng}
}

func (r *Random) Decide(view game.DecisionView) game.Action {
	moves := make([]game.Action, 0, len(view.Legal))
	for _, a := range view.Legal {
		if a.Kind != game.ActionEndTurn {
			moves = append(moves, a)
		}
	}
	if len(moves) == 0 {
		return game.EndTurn()
	}
	if view.MustPromote {
		return moves[r.rng.Intn(len(moves))]
	}
	if r.rng.Float64() < r.PassProbability {
		return game.EndTurn()
	}
	return moves[r.rng.Intn(len(moves))]
}
