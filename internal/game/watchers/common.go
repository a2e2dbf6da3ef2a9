package watchers

import (
	"github.com/tcgsim/battlesim/internal/game/rules"
)

// seats is the number of players in a match.
const seats = 2

func validSeat(seat int) bool {
	return seat >= 0 && seat < seats
}

// EventCountWatcher counts events of one type per seat.
type EventCountWatcher struct {
	*rules.BaseWatcher
	eventType rules.EventType
	counts    [seats]int
}

// NewEventCountWatcher creates a match-scoped counter for eventType.
func NewEventCountWatcher(key string, eventType rules.EventType) *EventCountWatcher {
	w := &EventCountWatcher{
		BaseWatcher: rules.NewBaseWatcher(rules.WatcherScopeMatch),
		eventType:   eventType,
	}
	w.SetKey(key)
	return w
}

// Watch implements the Watcher interface.
func (w *EventCountWatcher) Watch(event rules.Event) {
	if event.Type != w.eventType || !validSeat(event.Player) {
		return
	}
	w.counts[event.Player]++
	w.SetCondition(true)
}

// Reset clears the watcher's state.
func (w *EventCountWatcher) Reset() {
	w.BaseWatcher.Reset()
	w.counts = [seats]int{}
}

// GetCount returns how many matching events the seat caused.
func (w *EventCountWatcher) GetCount(seat int) int {
	if !validSeat(seat) {
		return 0
	}
	return w.counts[seat]
}

// DamageWatcher sums damage dealt per seat and remembers the biggest hit.
type DamageWatcher struct {
	*rules.BaseWatcher
	total   [seats]int
	largest [seats]int
}

// NewDamageWatcher creates a new damage watcher.
func NewDamageWatcher() *DamageWatcher {
	w := &DamageWatcher{
		BaseWatcher: rules.NewBaseWatcher(rules.WatcherScopeMatch),
	}
	w.SetKey("DamageWatcher")
	return w
}

// Watch implements the Watcher interface.
func (w *DamageWatcher) Watch(event rules.Event) {
	if event.Type != rules.EventDamageDealt || !validSeat(event.Player) {
		return
	}
	w.total[event.Player] += event.Amount
	if event.Amount > w.largest[event.Player] {
		w.largest[event.Player] = event.Amount
	}
	w.SetCondition(true)
}

// Reset clears the watcher's state.
func (w *DamageWatcher) Reset() {
	w.BaseWatcher.Reset()
	w.total = [seats]int{}
	w.largest = [seats]int{}
}

// Total returns the damage dealt by a seat.
func (w *DamageWatcher) Total(seat int) int {
	if !validSeat(seat) {
		return 0
	}
	return w.total[seat]
}

// Largest returns the biggest single hit dealt by a seat.
func (w *DamageWatcher) Largest(seat int) int {
	if !validSeat(seat) {
		return 0
	}
	return w.largest[seat]
}

// AttackedThisTurnWatcher is turn-scoped: its condition is met once the
// active seat declares an attack, and the match resets it at end of turn.
// Before the reset it credits the ending turn to the seat if an attack
// was declared, so the per-seat tally survives turn resets.
type AttackedThisTurnWatcher struct {
	*rules.BaseWatcher
	turns [seats]int
}

// NewAttackedThisTurnWatcher creates a new turn-scoped attack watcher.
func NewAttackedThisTurnWatcher() *AttackedThisTurnWatcher {
	w := &AttackedThisTurnWatcher{
		BaseWatcher: rules.NewBaseWatcher(rules.WatcherScopeTurn),
	}
	w.SetKey("AttackedThisTurnWatcher")
	return w
}

// Watch implements the Watcher interface.
func (w *AttackedThisTurnWatcher) Watch(event rules.Event) {
	switch event.Type {
	case rules.EventAttack:
		w.SetCondition(true)
	case rules.EventTurnEnded:
		if w.ConditionMet() && validSeat(event.Player) {
			w.turns[event.Player]++
		}
	}
}

// AttackTurns returns how many of the seat's turns included an attack.
func (w *AttackedThisTurnWatcher) AttackTurns(seat int) int {
	if !validSeat(seat) {
		return 0
	}
	return w.turns[seat]
}

// Stats is a per-match summary assembled from the standard watchers.
type Stats struct {
	Knockouts       [seats]int `json:"knockouts"`
	DamageDealt     [seats]int `json:"damage_dealt"`
	LargestHit      [seats]int `json:"largest_hit"`
	SupportsPlayed  [seats]int `json:"supports_played"`
	ActionsRejected [seats]int `json:"actions_rejected"`
	AttackTurns     [seats]int `json:"attack_turns"`
}

// StatsSet bundles the watchers a match registers for its summary.
type StatsSet struct {
	Knockouts *EventCountWatcher
	Supports  *EventCountWatcher
	Rejected  *EventCountWatcher
	Damage    *DamageWatcher
	Attacked  *AttackedThisTurnWatcher
}

// NewStatsSet creates the standard watchers and adds them to the registry.
func NewStatsSet(registry *rules.WatcherRegistry) *StatsSet {
	set := &StatsSet{
		Knockouts: NewEventCountWatcher("KnockoutWatcher", rules.EventKnockout),
		Supports:  NewEventCountWatcher("SupportsPlayedWatcher", rules.EventSupportPlayed),
		Rejected:  NewEventCountWatcher("ActionsRejectedWatcher", rules.EventActionRejected),
		Damage:    NewDamageWatcher(),
		Attacked:  NewAttackedThisTurnWatcher(),
	}
	registry.AddWatcher(set.Knockouts)
	registry.AddWatcher(set.Supports)
	registry.AddWatcher(set.Rejected)
	registry.AddWatcher(set.Damage)
	registry.AddWatcher(set.Attacked)
	return set
}

// Stats copies the current tallies.
func (s *StatsSet) Stats() Stats {
	var out Stats
	for seat := 0; seat < seats; seat++ {
		out.Knockouts[seat] = s.Knockouts.GetCount(seat)
		out.DamageDealt[seat] = s.Damage.Total(seat)
		out.LargestHit[seat] = s.Damage.Largest(seat)
		out.SupportsPlayed[seat] = s.Supports.GetCount(seat)
		out.ActionsRejected[seat] = s.Rejected.GetCount(seat)
		out.AttackTurns[seat] = s.Attacked.AttackTurns(seat)
	}
	return out
}
