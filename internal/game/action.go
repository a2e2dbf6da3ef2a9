package game

import (
	"fmt"

	"github.com/tcgsim/battlesim/internal/catalog"
)

// ActionKind identifies what a policy wants to do.
type ActionKind int

const (
	ActionEndTurn ActionKind = iota
	ActionPlayCreature
	ActionAttachResource
	ActionPlaySupport
	ActionAttack
	ActionPromote
)

var actionKindNames = map[ActionKind]string{
	ActionEndTurn:        "END_TURN",
	ActionPlayCreature:   "PLAY_CREATURE",
	ActionAttachResource: "ATTACH_RESOURCE",
	ActionPlaySupport:    "PLAY_SUPPORT",
	ActionAttack:         "ATTACK",
	ActionPromote:        "PROMOTE",
}

func (k ActionKind) String() string {
	if name, ok := actionKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ACTION_%d", int(k))
}

// Action is a single decision. CardID names a hand card instance for the
// play and attach kinds; Index is the attack index or the bench index.
// Damage is filled in by the match on legal attack actions with the damage
// the attack would deal after rule effects; it is informational only.
type Action struct {
	Kind   ActionKind
	CardID string
	Index  int
	Damage int
}

// EndTurn is the action that passes.
func EndTurn() Action {
	return Action{Kind: ActionEndTurn}
}

// Same reports whether two actions describe the same move.
func (a Action) Same(other Action) bool {
	return a.Kind == other.Kind && a.CardID == other.CardID && a.Index == other.Index
}

func (a Action) String() string {
	switch a.Kind {
	case ActionEndTurn:
		return a.Kind.String()
	case ActionAttack, ActionPromote:
		return fmt.Sprintf("%s[%d]", a.Kind, a.Index)
	default:
		return fmt.Sprintf("%s(%s)", a.Kind, a.CardID)
	}
}

// containsAction reports whether legal has an action matching a.
func containsAction(legal []Action, a Action) bool {
	for _, l := range legal {
		if l.Same(a) {
			return true
		}
	}
	return false
}

// legalActions lists what the seat may do in its action phase. A seat that
// must promote may only promote. Resource attachments are limited per turn
// by attachLimit (0 means unlimited).
func legalActions(self, opponent *Player, hook RuleHook, mustPromote bool, attachedThisTurn, attachLimit int) []Action {
	if mustPromote {
		out := make([]Action, 0, len(self.Bench))
		for i := range self.Bench {
			out = append(out, Action{Kind: ActionPromote, Index: i})
		}
		return out
	}

	out := make([]Action, 0, len(self.Hand)+4)
	canAttach := self.Active != nil && (attachLimit <= 0 || attachedThisTurn < attachLimit)
	hasRoom := self.Active == nil || len(self.Bench) < self.benchSize
	for _, card := range self.Hand {
		switch card.Card.Category {
		case catalog.CategoryCreature:
			if hasRoom {
				out = append(out, Action{Kind: ActionPlayCreature, CardID: card.ID})
			}
		case catalog.CategoryResource:
			if canAttach {
				out = append(out, Action{Kind: ActionAttachResource, CardID: card.ID})
			}
		case catalog.CategorySupport:
			out = append(out, Action{Kind: ActionPlaySupport, CardID: card.ID})
		}
	}

	if self.Active != nil && opponent.Active != nil && hook.CanAttack(self) {
		for i, attack := range self.Active.Card.Attacks {
			if !self.Active.CanPay(i) {
				continue
			}
			out = append(out, Action{
				Kind:   ActionAttack,
				Index:  i,
				Damage: hook.ModifyDamage(self.Active, opponent.Active, attack, attack.Damage),
			})
		}
	}

	return append(out, EndTurn())
}
