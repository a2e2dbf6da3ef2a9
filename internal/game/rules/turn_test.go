package rules

import "testing"

func TestTurnManagerSequence(t *testing.T) {
	tm := NewTurnManager(0)

	if tm.CurrentPhase() != PhaseSetup {
		t.Fatalf("expected SETUP, got %s", tm.CurrentPhase())
	}
	if tm.TurnNumber() != 0 {
		t.Fatalf("expected turn 0 during setup, got %d", tm.TurnNumber())
	}

	expected := []Phase{PhaseDraw, PhaseAction, PhaseAttack, PhaseEndOfTurn}
	for i, exp := range expected {
		got := tm.Advance()
		if got != exp {
			t.Fatalf("step %d: expected phase %s, got %s", i, exp, got)
		}
		if tm.TurnNumber() != 1 {
			t.Fatalf("step %d: expected turn 1, got %d", i, tm.TurnNumber())
		}
	}
}

func TestTurnManagerAdvanceWrapsTurn(t *testing.T) {
	tm := NewTurnManager(1)
	tm.Advance() // setup -> draw

	for i := 0; i < 3; i++ {
		tm.Advance()
		if tm.ActivePlayer() != 1 {
			t.Fatalf("expected seat 1 to stay active during its turn, got %d", tm.ActivePlayer())
		}
	}

	phase := tm.Advance()
	if phase != PhaseDraw {
		t.Fatalf("expected new turn to start at DRAW, got %s", phase)
	}
	if tm.TurnNumber() != 2 {
		t.Fatalf("expected turn number 2 after wrap, got %d", tm.TurnNumber())
	}
	if tm.ActivePlayer() != 0 || tm.Opponent() != 1 {
		t.Fatalf("expected seat 0 active after wrap, got %d", tm.ActivePlayer())
	}
}

func TestTurnManagerTerminalIsSticky(t *testing.T) {
	tm := NewTurnManager(0)
	tm.Advance()
	tm.Terminate()

	if !tm.Terminated() {
		t.Fatal("expected terminated")
	}
	if phase := tm.Advance(); phase != PhaseTerminal {
		t.Fatalf("expected TERMINAL after advance, got %s", phase)
	}
	if tm.TurnNumber() != 1 {
		t.Fatalf("terminal advance must not change the turn, got %d", tm.TurnNumber())
	}
}

func TestPhaseString(t *testing.T) {
	if PhaseEndOfTurn.String() != "END_OF_TURN" {
		t.Fatalf("unexpected name %s", PhaseEndOfTurn)
	}
	if Phase(42).String() != "PHASE_42" {
		t.Fatalf("unexpected fallback %s", Phase(42))
	}
}
