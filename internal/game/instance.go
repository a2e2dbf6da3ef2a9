package game

import (
	"github.com/google/uuid"

	"github.com/tcgsim/battlesim/internal/catalog"
	"github.com/tcgsim/battlesim/internal/game/counters"
)

// CardInstance is one physical copy of a card in a match. The catalog
// definition is shared and never mutated; HP, counters and attachments are
// the per-copy runtime overlay.
type CardInstance struct {
	ID       string
	Owner    int
	Card     *catalog.Card
	HP       int
	Counters *counters.Counters
	Attached []*CardInstance
}

// NewCardInstance creates a fresh copy of card owned by seat.
func NewCardInstance(card *catalog.Card, owner int) *CardInstance {
	return &CardInstance{
		ID:       uuid.NewString(),
		Owner:    owner,
		Card:     card,
		HP:       card.HP,
		Counters: counters.NewCounters(),
	}
}

// NewInstances turns a constructed deck into instances. Instances that share
// a definition share one immutable copy of it.
func NewInstances(deck []catalog.Card, owner int) []*CardInstance {
	defs := make(map[string]*catalog.Card, len(deck))
	out := make([]*CardInstance, 0, len(deck))
	for i := range deck {
		def, ok := defs[deck[i].ID]
		if !ok {
			card := deck[i]
			def = &card
			defs[card.ID] = def
		}
		out = append(out, NewCardInstance(def, owner))
	}
	return out
}

// Name returns the definition's display name.
func (ci *CardInstance) Name() string {
	return ci.Card.Name
}

// Category returns the definition's category.
func (ci *CardInstance) Category() catalog.Category {
	return ci.Card.Category
}

// Resources returns how many resources are attached.
func (ci *CardInstance) Resources() int {
	return ci.Counters.Count(counters.CounterTypeResource)
}

// KnockedOut reports whether a creature's HP has reached zero.
func (ci *CardInstance) KnockedOut() bool {
	return ci.Card.IsCreature() && ci.HP <= 0
}

// CanPay reports whether the attached resources cover the attack at idx.
func (ci *CardInstance) CanPay(idx int) bool {
	if idx < 0 || idx >= len(ci.Card.Attacks) {
		return false
	}
	return ci.Card.Attacks[idx].Cost <= ci.Resources()
}

// attach moves a resource instance onto this creature.
func (ci *CardInstance) attach(resource *CardInstance) {
	ci.Attached = append(ci.Attached, resource)
	ci.Counters.Increment(counters.CounterTypeResource)
}

// reset clears the overlay when the instance leaves play.
func (ci *CardInstance) reset() {
	ci.HP = ci.Card.HP
	ci.Counters.Clear()
	ci.Attached = nil
}

// view returns the read-only projection used in snapshots.
func (ci *CardInstance) view() CardView {
	return CardView{
		InstanceID: ci.ID,
		CardID:     ci.Card.ID,
		Name:       ci.Card.Name,
		Category:   ci.Card.Category,
		HP:         ci.HP,
		MaxHP:      ci.Card.HP,
		Resources:  ci.Resources(),
		Attacks:    append([]catalog.Attack(nil), ci.Card.Attacks...),
		Types:      append([]string(nil), ci.Card.Types...),
	}
}
