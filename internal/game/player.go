package game

import (
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/tcgsim/battlesim/internal/catalog"
	"github.com/tcgsim/battlesim/internal/game/counters"
)

// Defaults for a standard match.
const (
	DefaultBenchSize  = 5
	DefaultPrizeCards = 6
)

// Player owns one seat's mutable match state. Zones hold pointers into the
// seat's instance arena; a card is always in exactly one zone or attached to
// a creature in play.
type Player struct {
	Name      string
	Archetype string
	Seat      int

	Deck    []*CardInstance // front is the next draw
	Hand    []*CardInstance
	Active  *CardInstance
	Bench   []*CardInstance
	Discard []*CardInstance

	Prizes     int
	Conditions ConditionSet
	AttackLog  []int
	Usage      *counters.Counters

	benchSize int
}

// NewPlayer creates a player whose deck is the given instances, in order.
func NewPlayer(name string, seat int, deck []*CardInstance, prizes, benchSize int) *Player {
	if prizes <= 0 {
		prizes = DefaultPrizeCards
	}
	if benchSize <= 0 {
		benchSize = DefaultBenchSize
	}
	return &Player{
		Name:      name,
		Seat:      seat,
		Deck:      deck,
		Hand:      make([]*CardInstance, 0, 16),
		Bench:     make([]*CardInstance, 0, benchSize),
		Prizes:    prizes,
		Usage:     counters.NewCounters(),
		benchSize: benchSize,
	}
}

// BenchSize returns the bench capacity.
func (p *Player) BenchSize() int {
	return p.benchSize
}

// ShuffleDeck randomly permutes the deck.
func (p *Player) ShuffleDeck(rng *rand.Rand) {
	rng.Shuffle(len(p.Deck), func(i, j int) {
		p.Deck[i], p.Deck[j] = p.Deck[j], p.Deck[i]
	})
}

// DrawCard moves the front of the deck into the hand. On an empty deck it
// returns false and changes nothing; the match treats that as a deck-out.
func (p *Player) DrawCard() (*CardInstance, bool) {
	if len(p.Deck) == 0 {
		return nil, false
	}
	card := p.Deck[0]
	p.Deck[0] = nil
	p.Deck = p.Deck[1:]
	p.Hand = append(p.Hand, card)
	return card, true
}

// PlayCreature puts a creature from hand into the active slot, or onto the
// bench when the active slot is taken.
func (p *Player) PlayCreature(instanceID string) (*CardInstance, error) {
	idx, card := p.findInHand(instanceID)
	if card == nil {
		return nil, ErrNotInHand
	}
	if !card.Card.IsCreature() {
		return nil, ErrNotCreature
	}
	switch {
	case p.Active == nil:
		p.Active = card
	case len(p.Bench) < p.benchSize:
		p.Bench = append(p.Bench, card)
	default:
		return nil, ErrBenchFull
	}
	p.removeFromHand(idx)
	p.Usage.Increment(counters.CounterTypeCreaturesPlayed)
	return card, nil
}

// AttachResource attaches a resource card from hand to the active creature.
func (p *Player) AttachResource(instanceID string) (*CardInstance, error) {
	if p.Active == nil {
		return nil, ErrNoActiveCreature
	}
	idx, card := p.findInHand(instanceID)
	if card == nil {
		return nil, ErrNotInHand
	}
	if card.Card.Category != catalog.CategoryResource {
		return nil, ErrNotResource
	}
	p.removeFromHand(idx)
	p.Active.attach(card)
	p.Usage.Increment(counters.CounterTypeResourcesAttached)
	return card, nil
}

// PlaySupport plays a support card from hand. The card goes to the discard
// pile and the support usage counter goes up.
func (p *Player) PlaySupport(instanceID string) (*CardInstance, error) {
	idx, card := p.findInHand(instanceID)
	if card == nil {
		return nil, ErrNotInHand
	}
	if card.Card.Category != catalog.CategorySupport {
		return nil, ErrNotSupport
	}
	p.removeFromHand(idx)
	p.Discard = append(p.Discard, card)
	p.Usage.Increment(counters.CounterTypeSupportsPlayed)
	return card, nil
}

// Attack resolves the chosen attack of the active creature against the
// opponent's active creature and returns the damage dealt. HP may go to
// zero or below; the caller detects the knockout.
func (p *Player) Attack(opponent *Player, attackIndex int, hook RuleHook) (int, error) {
	if hook == nil {
		hook = NoEffects{}
	}
	if err := p.checkAttack(opponent, attackIndex, hook); err != nil {
		return 0, err
	}

	attack := p.Active.Card.Attacks[attackIndex]
	damage := hook.ModifyDamage(p.Active, opponent.Active, attack, attack.Damage)
	if damage < 0 {
		damage = 0
	}
	opponent.Active.HP -= damage
	p.AttackLog = append(p.AttackLog, damage)
	p.Usage.Increment(counters.CounterTypeAttacksMade)
	hook.AfterAttack(p, opponent, attack)
	return damage, nil
}

// checkAttack reports why Attack would fail, without changing anything.
func (p *Player) checkAttack(opponent *Player, attackIndex int, hook RuleHook) error {
	if p.Active == nil {
		return ErrNoActiveCreature
	}
	if attackIndex < 0 || attackIndex >= len(p.Active.Card.Attacks) {
		return fmt.Errorf("%w: index %d of %d", ErrNoAttack, attackIndex, len(p.Active.Card.Attacks))
	}
	if opponent.Active == nil {
		return ErrNoDefender
	}
	if !p.Active.CanPay(attackIndex) {
		return ErrAttackUnaffordable
	}
	if !hook.CanAttack(p) {
		return ErrAttackBlocked
	}
	return nil
}

// TakePrizeCard decrements the prize counter, never below zero.
func (p *Player) TakePrizeCard() {
	if p.Prizes > 0 {
		p.Prizes--
	}
}

func (p *Player) ApplyCondition(c Condition) {
	p.Conditions.Add(c)
}

func (p *Player) ClearCondition(c Condition) {
	p.Conditions.Remove(c)
}

func (p *Player) HasCondition(c Condition) bool {
	return p.Conditions.Has(c)
}

// MeanDamage returns the mean of the attack log, 0 when empty.
func (p *Player) MeanDamage() float64 {
	if len(p.AttackLog) == 0 {
		return 0
	}
	total := 0
	for _, d := range p.AttackLog {
		total += d
	}
	return float64(total) / float64(len(p.AttackLog))
}

// ClassifyPlaystyle derives a playstyle from the attack log and the number
// of support cards played.
func (p *Player) ClassifyPlaystyle() Playstyle {
	return classify(p.MeanDamage(), p.Usage.Count(counters.CounterTypeSupportsPlayed))
}

// PromoteFromBench moves the bench creature at index into the empty active slot.
func (p *Player) PromoteFromBench(index int) (*CardInstance, error) {
	if p.Active != nil {
		return nil, ErrActiveOccupied
	}
	if index < 0 || index >= len(p.Bench) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBenchIndex, index)
	}
	card := p.Bench[index]
	p.Bench = append(p.Bench[:index], p.Bench[index+1:]...)
	p.Active = card
	p.Conditions = 0
	return card, nil
}

// DiscardActive moves the active creature and everything attached to it to
// the discard pile. Conditions end with the creature.
func (p *Player) DiscardActive() *CardInstance {
	card := p.Active
	if card == nil {
		return nil
	}
	p.Discard = append(p.Discard, card.Attached...)
	card.reset()
	p.Discard = append(p.Discard, card)
	p.Active = nil
	p.Conditions = 0
	return card
}

// AllCards returns every instance the player owns across deck, hand,
// active, bench, discard and attachments.
func (p *Player) AllCards() []*CardInstance {
	out := make([]*CardInstance, 0, len(p.Deck)+len(p.Hand)+len(p.Bench)+len(p.Discard)+1)
	out = append(out, p.Deck...)
	out = append(out, p.Hand...)
	if p.Active != nil {
		out = append(out, p.Active)
		out = append(out, p.Active.Attached...)
	}
	for _, c := range p.Bench {
		out = append(out, c)
		out = append(out, c.Attached...)
	}
	out = append(out, p.Discard...)
	return out
}

func (p *Player) findInHand(instanceID string) (int, *CardInstance) {
	for i, c := range p.Hand {
		if c.ID == instanceID {
			return i, c
		}
	}
	return -1, nil
}

func (p *Player) removeFromHand(idx int) {
	p.Hand = append(p.Hand[:idx], p.Hand[idx+1:]...)
}
