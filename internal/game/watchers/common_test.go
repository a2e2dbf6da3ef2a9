package watchers

import (
	"testing"

	"github.com/tcgsim/battlesim/internal/game/rules"
)

func TestEventCountWatcher(t *testing.T) {
	watcher := NewEventCountWatcher("supports", rules.EventSupportPlayed)

	if watcher.ConditionMet() {
		t.Fatal("watcher should not have condition met initially")
	}

	watcher.Watch(rules.NewEvent(rules.EventSupportPlayed, "m1", 1, 0))
	watcher.Watch(rules.NewEvent(rules.EventSupportPlayed, "m1", 2, 1))
	watcher.Watch(rules.NewEvent(rules.EventSupportPlayed, "m1", 3, 0))
	watcher.Watch(rules.NewEvent(rules.EventCardDrawn, "m1", 3, 0))
	watcher.Watch(rules.NewEvent(rules.EventSupportPlayed, "m1", 3, rules.NoPlayer))

	if !watcher.ConditionMet() {
		t.Fatal("watcher should have condition met after a support was played")
	}
	if got := watcher.GetCount(0); got != 2 {
		t.Fatalf("expected 2 supports for seat 0, got %d", got)
	}
	if got := watcher.GetCount(1); got != 1 {
		t.Fatalf("expected 1 support for seat 1, got %d", got)
	}
	if got := watcher.GetCount(7); got != 0 {
		t.Fatalf("expected 0 for an unknown seat, got %d", got)
	}

	watcher.Reset()
	if watcher.ConditionMet() || watcher.GetCount(0) != 0 {
		t.Fatal("watcher should be empty after reset")
	}
}

func TestDamageWatcher(t *testing.T) {
	watcher := NewDamageWatcher()

	watcher.Watch(rules.NewEventWithAmount(rules.EventDamageDealt, "m1", 1, 0, 30))
	watcher.Watch(rules.NewEventWithAmount(rules.EventDamageDealt, "m1", 3, 0, 90))
	watcher.Watch(rules.NewEventWithAmount(rules.EventDamageDealt, "m1", 2, 1, 10))

	if got := watcher.Total(0); got != 120 {
		t.Fatalf("expected 120 damage for seat 0, got %d", got)
	}
	if got := watcher.Largest(0); got != 90 {
		t.Fatalf("expected largest hit 90, got %d", got)
	}
	if got := watcher.Largest(1); got != 10 {
		t.Fatalf("expected largest hit 10 for seat 1, got %d", got)
	}

	watcher.Reset()
	if watcher.Total(0) != 0 || watcher.Largest(0) != 0 {
		t.Fatal("damage should be cleared after reset")
	}
}

func TestAttackedThisTurnResetsWithTurnScope(t *testing.T) {
	registry := rules.NewWatcherRegistry()
	set := NewStatsSet(registry)
	bus := rules.NewEventBus()
	registry.Attach(bus)

	bus.Publish(rules.NewEvent(rules.EventAttack, "m1", 1, 0))
	bus.Publish(rules.NewEvent(rules.EventKnockout, "m1", 1, 0))
	if !set.Attacked.ConditionMet() {
		t.Fatal("attack should be recorded for the turn")
	}

	registry.ResetWatchersByScope(rules.WatcherScopeTurn)
	if set.Attacked.ConditionMet() {
		t.Fatal("turn-scoped watcher should reset at end of turn")
	}
	if set.Knockouts.GetCount(0) != 1 {
		t.Fatal("match-scoped watcher must survive a turn reset")
	}
}

func TestAttackTurnsCountedAtTurnEnd(t *testing.T) {
	registry := rules.NewWatcherRegistry()
	set := NewStatsSet(registry)
	endTurn := func(turn, seat int) {
		registry.NotifyWatchers(rules.NewEvent(rules.EventTurnEnded, "m1", turn, seat))
		registry.ResetWatchersByScope(rules.WatcherScopeTurn)
	}

	registry.NotifyWatchers(rules.NewEvent(rules.EventAttack, "m1", 1, 0))
	endTurn(1, 0)
	endTurn(2, 1)
	registry.NotifyWatchers(rules.NewEvent(rules.EventAttack, "m1", 3, 0))
	endTurn(3, 0)

	stats := set.Stats()
	if stats.AttackTurns != [2]int{2, 0} {
		t.Fatalf("unexpected attack turns %v", stats.AttackTurns)
	}
}

func TestStatsSetSummary(t *testing.T) {
	registry := rules.NewWatcherRegistry()
	set := NewStatsSet(registry)

	registry.NotifyWatchers(rules.NewEvent(rules.EventKnockout, "m1", 4, 1))
	registry.NotifyWatchers(rules.NewEventWithAmount(rules.EventDamageDealt, "m1", 4, 1, 50))
	registry.NotifyWatchers(rules.NewEvent(rules.EventActionRejected, "m1", 5, 0))

	stats := set.Stats()
	if stats.Knockouts != [2]int{0, 1} {
		t.Fatalf("unexpected knockouts %v", stats.Knockouts)
	}
	if stats.DamageDealt[1] != 50 || stats.LargestHit[1] != 50 {
		t.Fatalf("unexpected damage %v / %v", stats.DamageDealt, stats.LargestHit)
	}
	if stats.ActionsRejected[0] != 1 {
		t.Fatalf("unexpected rejections %v", stats.ActionsRejected)
	}
}
