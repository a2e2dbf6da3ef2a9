package game

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/tcgsim/battlesim/internal/catalog"
	"github.com/tcgsim/battlesim/internal/game/counters"
	"github.com/tcgsim/battlesim/internal/game/rules"
)

// strikerPolicy attacks whenever it can and otherwise makes sure it has an
// active creature.
func strikerPolicy() Policy {
	return PolicyFunc(func(view DecisionView) Action {
		if a, ok := view.Find(ActionAttack); ok {
			return a
		}
		if view.Self.Active == nil {
			if a, ok := view.Find(ActionPlayCreature); ok {
				return a
			}
		}
		return EndTurn()
	})
}

// passivePolicy promotes when told to and benches everything it can, but
// never attacks.
func passivePolicy() Policy {
	return PolicyFunc(func(view DecisionView) Action {
		if a, ok := view.Find(ActionPromote); ok {
			return a
		}
		if a, ok := view.Find(ActionPlayCreature); ok {
			return a
		}
		return EndTurn()
	})
}

func TestThreeKnockoutsWinOnTheTriggeringTurn(t *testing.T) {
	striker := catalog.Card{
		ID: "striker", Name: "Striker", Category: catalog.CategoryCreature, HP: 100,
		Attacks: []catalog.Attack{{Name: "Smash", Damage: 100}},
	}
	target := catalog.Card{
		ID: "target", Name: "Target", Category: catalog.CategoryCreature, HP: 50,
		Attacks: []catalog.Attack{{Name: "Tap", Damage: 10, Cost: 5}},
	}

	m := NewMatch(MatchConfig{
		NoShuffle:         true,
		OpeningHand:       5,
		PrizeCards:        6,
		PrizesPerKnockout: 2,
		Hook:              NoEffects{},
		Logger:            zaptest.NewLogger(t),
	},
		PlayerSetup{Name: "A", Archetype: "Aggro", Deck: repeatCard(striker, 10), Policy: strikerPolicy()},
		PlayerSetup{Name: "B", Archetype: "Stall", Deck: repeatCard(target, 10), Policy: passivePolicy()},
	)
	a, b := m.Player(0), m.Player(1)
	assert.Equal(t, 6, a.Prizes)
	assert.Equal(t, 6, b.Prizes)

	for turn := 1; turn <= 6; turn++ {
		require.False(t, m.PlayTurn(), "turn %d", turn)
		requireConserved(t, m, 0)
		requireConserved(t, m, 1)
	}
	assert.Equal(t, 2, a.Prizes)
	assert.Equal(t, 6, b.Prizes)

	require.True(t, m.PlayTurn(), "third knockout ends the match")
	assert.Equal(t, 0, a.Prizes)

	result, ok := m.Result()
	require.True(t, ok)
	assert.Equal(t, 0, result.Winner)
	assert.Equal(t, ReasonPrizesTaken, result.Reason)
	assert.Equal(t, 7, result.Turns)
	assert.Equal(t, 3, result.Stats.Knockouts[0])
	assert.Equal(t, 0, result.Stats.Knockouts[1])
	assert.Equal(t, [2]int{2, 0}, result.Stats.AttackTurns, "the winning attack ends the match before its turn closes")
	assert.Empty(t, b.AttackLog)
	assert.Equal(t, []int{100, 100, 100}, a.AttackLog)
	assert.Equal(t, rules.PhaseTerminal, m.Phase())
}

func TestPlayTurnAfterTerminalChangesNothing(t *testing.T) {
	m := NewMatch(MatchConfig{OpeningHand: 1, NoShuffle: true},
		PlayerSetup{Deck: repeatCard(creatureCard("a", 50, 10, 0), 1)},
		PlayerSetup{Deck: repeatCard(creatureCard("b", 50, 10, 0), 1)},
	)
	require.True(t, m.PlayTurn(), "first player decks out immediately")

	before := m.Snapshot()
	for i := 0; i < 3; i++ {
		assert.True(t, m.PlayTurn())
	}
	after := m.Snapshot()
	before.Timestamp = after.Timestamp
	assert.Equal(t, before, after)

	result, _ := m.Result()
	assert.Equal(t, 1, result.Winner)
	assert.Equal(t, ReasonDeckOut, result.Reason)
}

func TestTurnLimitIsADraw(t *testing.T) {
	m := NewMatch(MatchConfig{MaxTurns: 4, Rand: seeded(1)},
		PlayerSetup{Deck: mixedDeck("a")},
		PlayerSetup{Deck: mixedDeck("b")},
	)
	for i := 0; i < 3; i++ {
		require.False(t, m.PlayTurn())
	}
	require.True(t, m.PlayTurn())

	result, _ := m.Result()
	assert.True(t, result.IsDraw())
	assert.Equal(t, ReasonTurnLimit, result.Reason)
}

func TestConservationAcrossFullMatches(t *testing.T) {
	for seed := uint64(1); seed <= 20; seed++ {
		m := NewMatch(MatchConfig{Rand: seeded(seed)},
			PlayerSetup{Name: "A", Deck: mixedDeck("a"), Policy: greedyPolicy()},
			PlayerSetup{Name: "B", Deck: mixedDeck("b"), Policy: greedyPolicy()},
		)
		turns := 0
		for !m.PlayTurn() {
			turns++
			requireConserved(t, m, 0)
			requireConserved(t, m, 1)
			require.Less(t, turns, DefaultMaxTurns+1)
		}
		requireConserved(t, m, 0)
		requireConserved(t, m, 1)
		_, ok := m.Result()
		require.True(t, ok)
	}
}

func TestIllegalActionsAreRejectedUpToTheCap(t *testing.T) {
	calls := 0
	bad := PolicyFunc(func(DecisionView) Action {
		calls++
		return Action{Kind: ActionPlayCreature, CardID: "not-in-hand"}
	})
	m := NewMatch(MatchConfig{MaxActionsPerTurn: 5, Rand: seeded(3)},
		PlayerSetup{Deck: mixedDeck("a"), Policy: bad},
		PlayerSetup{Deck: mixedDeck("b")},
	)

	var rejected []rules.Event
	m.Bus().SubscribeTyped(rules.EventActionRejected, func(e rules.Event) {
		rejected = append(rejected, e)
	})

	require.False(t, m.PlayTurn())
	assert.Equal(t, 5, calls)
	require.Len(t, rejected, 5)
	assert.Equal(t, ErrNotInHand.Error(), rejected[0].Description)
	assert.Equal(t, 5, m.Player(0).Usage.Count(counters.CounterTypeActionsRejected))
	assert.Equal(t, 1, m.ActivePlayer(), "turn passed after the cap")
}

func TestAttachLimitPerTurn(t *testing.T) {
	deck := []catalog.Card{creatureCard("c", 60, 10, 2), resourceCard("r"), resourceCard("r"), resourceCard("r")}
	var seen [][]Action
	policy := PolicyFunc(func(view DecisionView) Action {
		seen = append(seen, view.Legal)
		if a, ok := view.Find(ActionPlayCreature); ok {
			return a
		}
		if a, ok := view.Find(ActionAttachResource); ok {
			return a
		}
		return EndTurn()
	})
	m := NewMatch(MatchConfig{NoShuffle: true, OpeningHand: 3},
		PlayerSetup{Deck: deck, Policy: policy},
		PlayerSetup{Deck: repeatCard(creatureCard("x", 50, 10, 0), 10)},
	)
	require.False(t, m.PlayTurn())
	assert.Equal(t, 1, m.Player(0).Active.Resources())
	assert.Len(t, m.Player(0).Hand, 2)
	last := seen[len(seen)-1]
	for _, a := range last {
		assert.NotEqual(t, ActionAttachResource, a.Kind)
	}
}

func TestKnockoutWithoutReplacementLoses(t *testing.T) {
	m := NewMatch(MatchConfig{NoShuffle: true, OpeningHand: 1, Hook: NoEffects{}},
		PlayerSetup{Deck: repeatCard(creatureCard("big", 100, 80, 0), 5), Policy: strikerPolicy()},
		PlayerSetup{Deck: repeatCard(creatureCard("small", 40, 10, 9), 5), Policy: strikerPolicy()},
	)
	require.False(t, m.PlayTurn())
	require.False(t, m.PlayTurn())
	require.True(t, m.PlayTurn())

	result, _ := m.Result()
	assert.Equal(t, 0, result.Winner)
	assert.Equal(t, ReasonNoReplacement, result.Reason)
	assert.Equal(t, 5, m.Player(0).Prizes)
}

// recoilRules knocks out both actives in one resolution step.
type recoilRules struct{ NoEffects }

func (recoilRules) AfterAttack(attacker, _ *Player, _ catalog.Attack) {
	attacker.Active.HP = 0
}

func TestSimultaneousKnockoutAwardsBothPrizesFirst(t *testing.T) {
	var events []rules.EventType
	bus := rules.NewEventBus()
	bus.Subscribe(func(e rules.Event) {
		if e.Type == rules.EventPrizeTaken || e.Type == rules.EventKnockout {
			events = append(events, e.Type)
		}
	})

	m := NewMatch(MatchConfig{NoShuffle: true, OpeningHand: 2, PrizeCards: 1, Hook: recoilRules{}, Bus: bus},
		PlayerSetup{Deck: repeatCard(creatureCard("a", 100, 100, 0), 5), Policy: strikerPolicy()},
		PlayerSetup{Deck: repeatCard(creatureCard("b", 100, 100, 0), 5), Policy: strikerPolicy()},
	)
	require.False(t, m.PlayTurn())
	require.True(t, m.PlayTurn(), "seat 1 attacks on turn 2 and the recoil knocks out both actives")

	require.Equal(t, []rules.EventType{
		rules.EventPrizeTaken, rules.EventPrizeTaken,
		rules.EventKnockout, rules.EventKnockout,
	}, events[:4])
	result, ok := m.Result()
	require.True(t, ok)
	assert.True(t, result.IsDraw())
	assert.Equal(t, ReasonPrizesTaken, result.Reason)
}

func TestPromotionIsRequiredBeforeAnythingElse(t *testing.T) {
	var sawMustPromote bool
	rejectedFirst := false
	b := PolicyFunc(func(view DecisionView) Action {
		if view.MustPromote {
			sawMustPromote = true
			for _, a := range view.Legal {
				if a.Kind != ActionPromote {
					t.Errorf("only promotions are legal, got %s", a)
				}
			}
			if !rejectedFirst {
				rejectedFirst = true
				return EndTurn()
			}
			return view.Legal[0]
		}
		if a, ok := view.Find(ActionPlayCreature); ok {
			return a
		}
		return EndTurn()
	})

	m := NewMatch(MatchConfig{NoShuffle: true, OpeningHand: 3, Hook: NoEffects{}},
		PlayerSetup{Deck: repeatCard(creatureCard("big", 100, 80, 0), 8), Policy: strikerPolicy()},
		PlayerSetup{Deck: repeatCard(creatureCard("small", 40, 10, 9), 8), Policy: b},
	)
	require.False(t, m.PlayTurn()) // A plays active
	require.False(t, m.PlayTurn()) // B plays active + bench
	require.False(t, m.PlayTurn()) // A knocks out B's active
	assert.True(t, m.MustPromote(1))
	assert.Nil(t, m.Player(1).Active)

	require.False(t, m.PlayTurn())
	assert.True(t, sawMustPromote)
	assert.False(t, m.MustPromote(1))
	assert.NotNil(t, m.Player(1).Active)
	assert.Equal(t, 1, m.Player(1).Usage.Count(counters.CounterTypeActionsRejected))
}

func TestForcedPromotionWhenPolicyNeverPromotes(t *testing.T) {
	m := NewMatch(MatchConfig{NoShuffle: true, OpeningHand: 3, Hook: NoEffects{}, MaxActionsPerTurn: 3},
		PlayerSetup{Deck: repeatCard(creatureCard("big", 100, 80, 0), 8), Policy: strikerPolicy()},
		PlayerSetup{Deck: repeatCard(creatureCard("small", 40, 10, 9), 8), Policy: PolicyFunc(func(view DecisionView) Action {
			if !view.MustPromote {
				if a, ok := view.Find(ActionPlayCreature); ok {
					return a
				}
			}
			return EndTurn()
		})},
	)
	for i := 0; i < 4; i++ {
		require.False(t, m.PlayTurn())
	}
	assert.NotNil(t, m.Player(1).Active)
	assert.False(t, m.MustPromote(1))
}

func TestDecisionViewHidesOpponentHand(t *testing.T) {
	var views []DecisionView
	spy := PolicyFunc(func(view DecisionView) Action {
		views = append(views, view)
		return EndTurn()
	})
	m := NewMatch(MatchConfig{Rand: seeded(9)},
		PlayerSetup{Deck: mixedDeck("a"), Policy: spy},
		PlayerSetup{Deck: mixedDeck("b")},
	)
	require.False(t, m.PlayTurn())
	require.Len(t, views, 1)

	view := views[0]
	assert.Len(t, view.Self.Hand, 8)
	assert.Nil(t, view.Opponent.Hand)
	assert.Equal(t, 7, view.Opponent.HandCount)
	assert.Equal(t, ActionEndTurn, view.Legal[len(view.Legal)-1].Kind)

	view.Self.Hand[0].HP = 999
	assert.NotEqual(t, 999, m.Player(0).Hand[0].HP, "views are copies")
}

func TestReplayRoundTripKeepsChecksums(t *testing.T) {
	replay := NewReplay("replay-match")
	m := NewMatch(MatchConfig{ID: "replay-match", Rand: seeded(11), Replay: replay},
		PlayerSetup{Name: "A", Deck: mixedDeck("a"), Policy: greedyPolicy()},
		PlayerSetup{Name: "B", Deck: mixedDeck("b"), Policy: greedyPolicy()},
	)
	m.Run()
	require.Greater(t, replay.Size(), 1)
	require.True(t, replay.Last().Over)

	var buf bytes.Buffer
	require.NoError(t, replay.Encode(&buf))
	decoded, err := DecodeReplay(&buf)
	require.NoError(t, err)
	require.Equal(t, replay.Size(), decoded.Size())

	for i := range replay.States {
		want, err := replay.States[i].ComputeChecksum()
		require.NoError(t, err)
		got, err := decoded.States[i].ComputeChecksum()
		require.NoError(t, err)
		assert.Equal(t, want.Hash, got.Hash, "state %d", i)
	}

	dir := t.TempDir()
	require.NoError(t, replay.SaveToFile(dir))
	loaded, err := LoadReplayFromFile(dir, "replay-match")
	require.NoError(t, err)
	assert.Equal(t, replay.Size(), loaded.Size())

	loaded.Start()
	turns := 0
	for snap := loaded.Next(); snap != nil; snap = loaded.Next() {
		assert.GreaterOrEqual(t, snap.Turn, turns, "playback is in turn order")
		turns = snap.Turn
	}
	assert.Nil(t, loaded.Next())
}

func TestSameSeedSameMatch(t *testing.T) {
	play := func() string {
		m := NewMatch(MatchConfig{ID: "seeded", Rand: seeded(77)},
			PlayerSetup{Name: "A", Deck: mixedDeck("a"), Policy: greedyPolicy()},
			PlayerSetup{Name: "B", Deck: mixedDeck("b"), Policy: greedyPolicy()},
		)
		m.Run()
		snap := m.Snapshot()
		sum, err := snap.ComputeChecksum()
		require.NoError(t, err)
		return sum.Hash
	}
	assert.Equal(t, play(), play())
}

func TestConditionChangesArePublished(t *testing.T) {
	type change struct {
		Type      rules.EventType
		Seat      int
		Turn      int
		Condition string
	}
	var changes []change
	bus := rules.NewEventBus()
	bus.Subscribe(func(e rules.Event) {
		if e.Type == rules.EventConditionApplied || e.Type == rules.EventConditionCleared {
			changes = append(changes, change{e.Type, e.Player, e.Turn, e.Data})
		}
	})

	stunner := catalog.Card{
		ID: "stun", Name: "Stunner", Category: catalog.CategoryCreature, HP: 100,
		Attacks: []catalog.Attack{{Name: "Jolt", Damage: 10, Text: "The Defending creature is now Paralyzed."}},
	}
	m := NewMatch(MatchConfig{NoShuffle: true, OpeningHand: 2, Hook: StandardRules{}, Bus: bus},
		PlayerSetup{Deck: repeatCard(stunner, 6), Policy: strikerPolicy()},
		PlayerSetup{Deck: repeatCard(creatureCard("wall", 100, 0, 0), 6), Policy: passivePolicy()},
	)
	for i := 0; i < 4; i++ {
		require.False(t, m.PlayTurn())
	}

	assert.Equal(t, []change{
		{rules.EventConditionApplied, 1, 3, "PARALYZED"},
		{rules.EventConditionCleared, 1, 4, "PARALYZED"},
	}, changes)
}
