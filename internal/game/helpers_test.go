package game

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/tcgsim/battlesim/internal/catalog"
)

func creatureCard(id string, hp, damage, cost int) catalog.Card {
	return catalog.Card{
		ID:       id,
		Name:     "Creature " + id,
		Category: catalog.CategoryCreature,
		HP:       hp,
		Attacks:  []catalog.Attack{{Name: "Hit " + id, Damage: damage, Cost: cost}},
	}
}

func supportCard(id string) catalog.Card {
	return catalog.Card{ID: id, Name: "Support " + id, Category: catalog.CategorySupport}
}

func resourceCard(id string) catalog.Card {
	return catalog.Card{ID: id, Name: "Resource " + id, Category: catalog.CategoryResource}
}

func repeatCard(card catalog.Card, n int) []catalog.Card {
	out := make([]catalog.Card, n)
	for i := range out {
		out[i] = card
	}
	return out
}

// mixedDeck is a 20-card deck with creatures, resources and supports.
func mixedDeck(prefix string) []catalog.Card {
	var deck []catalog.Card
	for i := 0; i < 10; i++ {
		deck = append(deck, creatureCard(fmt.Sprintf("%s-c%d", prefix, i%4), 60+10*(i%4), 30+10*(i%3), i%3))
	}
	for i := 0; i < 6; i++ {
		deck = append(deck, resourceCard(prefix+"-r"))
	}
	for i := 0; i < 4; i++ {
		deck = append(deck, supportCard(fmt.Sprintf("%s-s%d", prefix, i%2)))
	}
	return deck
}

// newTestPlayer builds a player whose deck is the given cards in order.
func newTestPlayer(cards ...catalog.Card) *Player {
	return NewPlayer("test", 0, NewInstances(cards, 0), DefaultPrizeCards, DefaultBenchSize)
}

// drawAll moves n cards into the hand.
func drawAll(t *testing.T, p *Player, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, ok := p.DrawCard()
		require.True(t, ok)
	}
}

// greedyPolicy attacks when it can, otherwise takes the first legal
// non-pass action.
func greedyPolicy() Policy {
	return PolicyFunc(func(view DecisionView) Action {
		if a, ok := view.Find(ActionAttack); ok {
			return a
		}
		for _, a := range view.Legal {
			if a.Kind != ActionEndTurn {
				return a
			}
		}
		return EndTurn()
	})
}

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// requireConserved checks the zone invariants of a seat against the
// instances it started with.
func requireConserved(t *testing.T, m *Match, seat int) {
	t.Helper()
	p := m.Player(seat)
	start := m.Instances(seat)
	now := p.AllCards()
	require.Len(t, now, len(start))

	seen := make(map[string]int, len(start))
	for _, c := range now {
		seen[c.ID]++
	}
	for _, c := range start {
		require.Equal(t, 1, seen[c.ID], "instance %s (%s) must be in exactly one zone", c.ID, c.Name())
	}
	require.LessOrEqual(t, len(p.Bench), DefaultBenchSize)
	require.GreaterOrEqual(t, p.Prizes, 0)
	require.LessOrEqual(t, p.Prizes, DefaultPrizeCards)
}
