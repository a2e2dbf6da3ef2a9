package policy

import (
	"strings"

	"golang.org/x/exp/rand"

	"github.com/tcgsim/battlesim/internal/catalog"
	"github.com/tcgsim/battlesim/internal/game"
)

// Style holds the knobs of the archetype heuristic.
type Style struct {
	Name string
	// BenchTarget is how many bench creatures to field before attacking
	// when no lethal attack is available.
	BenchTarget int
	// NearLethal is the fraction of the defender's HP an attack must reach
	// to be taken before development is finished. 0 attacks at once.
	NearLethal float64
	// ScoreCreature ranks creatures for the active slot, the bench and promotion.
	ScoreCreature func(c game.CardView) float64
}

func maxDamage(c game.CardView) float64 {
	best := 0
	for _, a := range c.Attacks {
		if a.Damage > best {
			best = a.Damage
		}
	}
	return float64(best)
}

// Built-in styles.
var (
	AggroStyle = Style{
		Name:        "Aggro",
		BenchTarget: 1,
		NearLethal:  0,
		ScoreCreature: func(c game.CardView) float64 {
			return maxDamage(c)*2 + float64(c.HP)*0.25
		},
	}
	ControlStyle = Style{
		Name:        "Control",
		BenchTarget: 3,
		NearLethal:  0.75,
		ScoreCreature: func(c game.CardView) float64 {
			return maxDamage(c) + float64(c.HP)*0.5
		},
	}
	StallStyle = Style{
		Name:        "Stall",
		BenchTarget: 5,
		NearLethal:  0.5,
		ScoreCreature: func(c game.CardView) float64 {
			return float64(c.HP)*2 + maxDamage(c)*0.25
		},
	}
)

// StyleFor returns the built-in style for an archetype name. Unknown names
// get the Control style.
func StyleFor(archetype string) Style {
	switch strings.ToLower(archetype) {
	case "aggro":
		return AggroStyle
	case "stall":
		return StallStyle
	default:
		return ControlStyle
	}
}

// Heuristic is the rule-based archetype policy. It takes lethal attacks
// first, then develops the board (active creature, resource, bench up to
// the style's target, support cards), then attacks with its best attack.
type Heuristic struct {
	style Style
	rng   *rand.Rand
}

var _ game.Policy = (*Heuristic)(nil)

// NewHeuristic creates a heuristic policy. rng breaks ties between equally
// scored options and must not be shared with another match.
func NewHeuristic(style Style, rng *rand.Rand) *Heuristic {
	return &Heuristic{style: style, rng: rng}
}

// Style returns the policy's style.
func (h *Heuristic) Style() Style {
	return h.style
}

func (h *Heuristic) Decide(view game.DecisionView) game.Action {
	if view.MustPromote {
		return h.bestPromotion(view)
	}

	attack, hasAttack := bestAttack(view.Legal)
	if hasAttack && view.Opponent.Active != nil {
		hp := float64(view.Opponent.Active.HP)
		damage := float64(attack.Damage)
		if damage >= hp || damage >= h.style.NearLethal*hp {
			// Attaching never ends the turn and may unlock a stronger attack.
			if a, ok := view.Find(game.ActionAttachResource); ok {
				return a
			}
			return attack
		}
	}

	if view.Self.Active == nil {
		if a, ok := h.bestCreature(view); ok {
			return a
		}
	}
	if a, ok := view.Find(game.ActionAttachResource); ok {
		return a
	}
	if len(view.Self.Bench) < h.style.BenchTarget {
		if a, ok := h.bestCreature(view); ok {
			return a
		}
	}
	if a, ok := view.Find(game.ActionPlaySupport); ok {
		return a
	}
	if hasAttack {
		return attack
	}
	return game.EndTurn()
}

// bestAttack returns the legal attack with the highest projected damage.
func bestAttack(legal []game.Action) (game.Action, bool) {
	var best game.Action
	found := false
	for _, a := range legal {
		if a.Kind != game.ActionAttack {
			continue
		}
		if !found || a.Damage > best.Damage {
			best, found = a, true
		}
	}
	return best, found
}

func (h *Heuristic) bestCreature(view game.DecisionView) (game.Action, bool) {
	var candidates []game.Action
	var scores []float64
	for _, a := range view.Legal {
		if a.Kind != game.ActionPlayCreature {
			continue
		}
		card, ok := view.HandCard(a.CardID)
		if !ok || card.Category != catalog.CategoryCreature {
			continue
		}
		candidates = append(candidates, a)
		scores = append(scores, h.style.ScoreCreature(card))
	}
	return h.pickBest(candidates, scores)
}

func (h *Heuristic) bestPromotion(view game.DecisionView) game.Action {
	var candidates []game.Action
	var scores []float64
	for _, a := range view.Legal {
		if a.Kind != game.ActionPromote || a.Index >= len(view.Self.Bench) {
			continue
		}
		candidates = append(candidates, a)
		scores = append(scores, h.style.ScoreCreature(view.Self.Bench[a.Index]))
	}
	if a, ok := h.pickBest(candidates, scores); ok {
		return a
	}
	if len(view.Legal) > 0 {
		return view.Legal[0]
	}
	return game.EndTurn()
}

// pickBest returns the highest scored candidate, breaking ties at random.
func (h *Heuristic) pickBest(candidates []game.Action, scores []float64) (game.Action, bool) {
	if len(candidates) == 0 {
		return game.Action{}, false
	}
	best := scores[0]
	for _, s := range scores[1:] {
		if s > best {
			best = s
		}
	}
	var top []game.Action
	for i, s := range scores {
		if s == best {
			top = append(top, candidates[i])
		}
	}
	if len(top) == 1 || h.rng == nil {
		return top[0], true
	}
	return top[h.rng.Intn(len(top))], true
}
