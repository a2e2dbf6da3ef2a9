package game

import (
	"strings"

	"github.com/tcgsim/battlesim/internal/catalog"
)

// RuleHook carries the rule effects that sit on top of the core turn
// mechanics: type matchups, status conditions and anything else a card
// pool needs. Implementations must be stateless; one hook value is shared
// by every match in a run.
type RuleHook interface {
	// ModifyDamage returns the damage actually dealt by attack.
	ModifyDamage(attacker, defender *CardInstance, attack catalog.Attack, base int) int
	// CanAttack reports whether the player's active creature may attack.
	CanAttack(p *Player) bool
	// AfterAttack runs once damage has been applied.
	AfterAttack(attacker, defender *Player, attack catalog.Attack)
	// BetweenTurns runs when p's turn ends and returns the damage it dealt
	// to p's active creature.
	BetweenTurns(p *Player) int
}

// Between-turn damage for StandardRules.
const (
	PoisonDamage = 10
	BurnDamage   = 20
)

// StandardRules applies weakness and resistance, status conditions named in
// attack text ("is now Poisoned"), and between-turn condition damage.
// Asleep and Paralyzed block attacks for one turn. Confused has no
// mechanical effect.
type StandardRules struct{}

var _ RuleHook = StandardRules{}

// ModifyDamage multiplies by matching weaknesses, then subtracts matching
// resistances. The result is never negative.
func (StandardRules) ModifyDamage(attacker, defender *CardInstance, _ catalog.Attack, base int) int {
	damage := base
	if attacker == nil || defender == nil || damage <= 0 {
		return damage
	}
	for _, w := range defender.Card.Weaknesses {
		if attacker.Card.HasType(w.Type) && w.Multiplier > 0 {
			damage *= w.Multiplier
		}
	}
	for _, r := range defender.Card.Resistances {
		if attacker.Card.HasType(r.Type) {
			damage -= r.Value
		}
	}
	if damage < 0 {
		damage = 0
	}
	return damage
}

func (StandardRules) CanAttack(p *Player) bool {
	return !p.HasCondition(ConditionAsleep) && !p.HasCondition(ConditionParalyzed)
}

func (StandardRules) AfterAttack(_, defender *Player, attack catalog.Attack) {
	if attack.Text == "" || defender.Active == nil {
		return
	}
	text := strings.ToLower(attack.Text)
	for _, c := range AllConditions() {
		if strings.Contains(text, "is now "+strings.ToLower(c.String())) {
			defender.ApplyCondition(c)
		}
	}
}

func (StandardRules) BetweenTurns(p *Player) int {
	if p.Active == nil {
		return 0
	}
	damage := 0
	if p.HasCondition(ConditionPoisoned) {
		damage += PoisonDamage
	}
	if p.HasCondition(ConditionBurned) {
		damage += BurnDamage
	}
	p.Active.HP -= damage
	p.ClearCondition(ConditionAsleep)
	p.ClearCondition(ConditionParalyzed)
	return damage
}

// NoEffects deals printed damage and nothing else.
type NoEffects struct{}

var _ RuleHook = NoEffects{}

func (NoEffects) ModifyDamage(_, _ *CardInstance, _ catalog.Attack, base int) int { return base }
func (NoEffects) CanAttack(*Player) bool { return true }
func (NoEffects) AfterAttack(_, _ *Player, _ catalog.Attack) {}
func (NoEffects) BetweenTurns(*Player) int { return 0 }
