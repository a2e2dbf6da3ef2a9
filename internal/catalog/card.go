package catalog

import (
	"fmt"
	"strings"
)

// Category classifies a card for deck construction and play.
type Category int

const (
	CategoryCreature Category = iota
	CategorySupport
	CategoryResource
)

var categoryNames = map[Category]string{
	CategoryCreature: "CREATURE",
	CategorySupport:  "SUPPORT",
	CategoryResource: "RESOURCE",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("CATEGORY_%d", int(c))
}

// ParseCategory maps catalog supertypes ("Pokémon", "Trainer", "Energy") and
// the canonical names back to a Category.
func ParseCategory(value string) (Category, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "creature", "pokémon", "pokemon":
		return CategoryCreature, true
	case "support", "trainer":
		return CategorySupport, true
	case "resource", "energy":
		return CategoryResource, true
	}
	return 0, false
}

// Attack is a single attack printed on a creature card.
type Attack struct {
	Name   string `json:"name" yaml:"name"`
	Damage int    `json:"damage" yaml:"damage"`
	// Cost is the number of attached resources the attack needs.
	Cost int    `json:"cost" yaml:"cost"`
	Text string `json:"text,omitempty" yaml:"text,omitempty"`
}

// Weakness doubles (or multiplies) damage taken from a type.
type Weakness struct {
	Type       string `json:"type" yaml:"type"`
	Multiplier int    `json:"multiplier" yaml:"multiplier"`
}

// Resistance reduces damage taken from a type.
type Resistance struct {
	Type  string `json:"type" yaml:"type"`
	Value int    `json:"value" yaml:"value"`
}

// Card is an immutable catalog definition. In-play state lives on
// game.CardInstance, never here.
type Card struct {
	ID          string       `json:"id" yaml:"id"`
	Name        string       `json:"name" yaml:"name"`
	Category    Category     `json:"category" yaml:"category"`
	Subtypes    []string     `json:"subtypes,omitempty" yaml:"subtypes,omitempty"`
	HP          int          `json:"hp,omitempty" yaml:"hp,omitempty"`
	Attacks     []Attack     `json:"attacks,omitempty" yaml:"attacks,omitempty"`
	Types       []string     `json:"types,omitempty" yaml:"types,omitempty"`
	Weaknesses  []Weakness   `json:"weaknesses,omitempty" yaml:"weaknesses,omitempty"`
	Resistances []Resistance `json:"resistances,omitempty" yaml:"resistances,omitempty"`
	Effects     []string     `json:"effects,omitempty" yaml:"effects,omitempty"`
}

// IsCreature reports whether the card can occupy the active slot or bench.
func (c Card) IsCreature() bool {
	return c.Category == CategoryCreature
}

// MaxDamage returns the highest printed damage among the card's attacks.
func (c Card) MaxDamage() int {
	best := 0
	for _, a := range c.Attacks {
		if a.Damage > best {
			best = a.Damage
		}
	}
	return best
}

// MeanCost returns the average resource cost of the card's attacks.
func (c Card) MeanCost() float64 {
	if len(c.Attacks) == 0 {
		return 0
	}
	total := 0
	for _, a := range c.Attacks {
		total += a.Cost
	}
	return float64(total) / float64(len(c.Attacks))
}

// HasType reports whether the card carries the given type tag.
func (c Card) HasType(t string) bool {
	for _, own := range c.Types {
		if strings.EqualFold(own, t) {
			return true
		}
	}
	return false
}

func (c Card) String() string {
	return fmt.Sprintf("%s (%s)", c.Name, c.Category)
}

// clone returns a copy whose slices do not alias the receiver's.
func (c Card) clone() Card {
	out := c
	out.Subtypes = append([]string(nil), c.Subtypes...)
	out.Attacks = append([]Attack(nil), c.Attacks...)
	out.Types = append([]string(nil), c.Types...)
	out.Weaknesses = append([]Weakness(nil), c.Weaknesses...)
	out.Resistances = append([]Resistance(nil), c.Resistances...)
	out.Effects = append([]string(nil), c.Effects...)
	return out
}
