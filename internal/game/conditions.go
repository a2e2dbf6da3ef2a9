package game

import "fmt"

// Condition is a status condition affecting a player's active creature.
type Condition int

const (
	ConditionAsleep Condition = iota
	ConditionBurned
	ConditionConfused
	ConditionParalyzed
	ConditionPoisoned
)

var conditionNames = map[Condition]string{
	ConditionAsleep:    "ASLEEP",
	ConditionBurned:    "BURNED",
	ConditionConfused:  "CONFUSED",
	ConditionParalyzed: "PARALYZED",
	ConditionPoisoned:  "POISONED",
}

func (c Condition) String() string {
	if name, ok := conditionNames[c]; ok {
		return name
	}
	return fmt.Sprintf("CONDITION_%d", int(c))
}

// AllConditions lists every condition in declaration order.
func AllConditions() []Condition {
	return []Condition{ConditionAsleep, ConditionBurned, ConditionConfused, ConditionParalyzed, ConditionPoisoned}
}

// ConditionSet is a set of conditions. The zero value is empty and ready to use.
type ConditionSet uint8

// Has reports membership.
func (s ConditionSet) Has(c Condition) bool {
	return s&(1<<uint(c)) != 0
}

func (s *ConditionSet) Add(c Condition) {
	*s |= 1 << uint(c)
}

func (s *ConditionSet) Remove(c Condition) {
	*s &^= 1 << uint(c)
}

// List returns the members sorted by declaration order.
func (s ConditionSet) List() []Condition {
	var out []Condition
	for _, c := range AllConditions() {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// Playstyle summarises how a player has been playing.
type Playstyle int

const (
	PlaystyleBalanced Playstyle = iota
	PlaystyleAggressive
	PlaystyleDefensive
)

var playstyleNames = map[Playstyle]string{
	PlaystyleBalanced:   "BALANCED",
	PlaystyleAggressive: "AGGRESSIVE",
	PlaystyleDefensive:  "DEFENSIVE",
}

func (p Playstyle) String() string {
	if name, ok := playstyleNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PLAYSTYLE_%d", int(p))
}

// Classification thresholds.
const (
	aggressiveMeanDamage  = 60
	aggressiveMinSupports = 3 // strictly more than
	defensiveMeanDamage   = 40
	defensiveMaxSupports  = 2
)

// classify maps an attack log mean and support usage to a playstyle.
func classify(meanDamage float64, supports int) Playstyle {
	switch {
	case meanDamage >= aggressiveMeanDamage && supports > aggressiveMinSupports:
		return PlaystyleAggressive
	case meanDamage < defensiveMeanDamage && supports <= defensiveMaxSupports:
		return PlaystyleDefensive
	default:
		return PlaystyleBalanced
	}
}
