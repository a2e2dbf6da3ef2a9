package policy

import (
	"sync"

	"github.com/tcgsim/battlesim/internal/game"
)

// Step is one scripted decision. Kind is required; Index is matched for
// attacks and promotions. A zero CardID takes the first legal action of the
// kind.
type Step struct {
	Kind   game.ActionKind
	CardID string
	Index  int
}

// Scripted replays a fixed list of steps. A step is consumed only when it is
// legal at the decision point it is offered to; otherwise the policy
// promotes the first bench creature when it has to, or ends the turn, and
// keeps the step for later.
type Scripted struct {
	mu    sync.Mutex
	steps []Step
}

var _ game.Policy = (*Scripted)(nil)

func NewScripted(steps ...Step) *Scripted {
	return &Scripted{steps: steps}
}

// Remaining returns how many steps have not been played yet.
func (s *Scripted) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.steps)
}

func (s *Scripted) Decide(view game.DecisionView) game.Action {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.steps) > 0 {
		if a, ok := s.steps[0].match(view.Legal); ok {
			s.steps = s.steps[1:]
			return a
		}
	}
	if a, ok := view.Find(game.ActionPromote); ok {
		return a
	}
	return game.EndTurn()
}

func (st Step) match(legal []game.Action) (game.Action, bool) {
	for _, a := range legal {
		if a.Kind != st.Kind {
			continue
		}
		switch st.Kind {
		case game.ActionAttack, game.ActionPromote:
			if a.Index != st.Index {
				continue
			}
		case game.ActionEndTurn:
		default:
			if st.CardID != "" && a.CardID != st.CardID {
				continue
			}
		}
		return a, true
	}
	return game.Action{}, false
}
