package rules

import "fmt"

// Phase is a step of the match state machine.
type Phase int

const (
	PhaseSetup Phase = iota
	PhaseDraw
	PhaseAction
	PhaseAttack
	PhaseEndOfTurn
	PhaseTerminal
)

var phaseNames = map[Phase]string{
	PhaseSetup:     "SETUP",
	PhaseDraw:      "DRAW",
	PhaseAction:    "ACTION",
	PhaseAttack:    "ATTACK",
	PhaseEndOfTurn: "END_OF_TURN",
	PhaseTerminal:  "TERMINAL",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PHASE_%d", int(p))
}

// turnSequence is the per-turn loop entered after setup.
var turnSequence = []Phase{
	PhaseDraw,
	PhaseAction,
	PhaseAttack,
	PhaseEndOfTurn,
}

// TurnManager tracks the current phase, the turn number and whose turn it is
// for a two-seat match. Seats are 0 and 1.
type TurnManager struct {
	orderIndex   int
	turnNumber   int
	activePlayer int
	phase        Phase
}

// NewTurnManager creates a turn manager sitting in the setup phase.
// firstPlayer takes turn 1.
func NewTurnManager(firstPlayer int) *TurnManager {
	return &TurnManager{
		orderIndex:   -1,
		turnNumber:   0,
		activePlayer: firstPlayer & 1,
		phase:        PhaseSetup,
	}
}

// CurrentPhase returns the phase currently in progress.
func (tm *TurnManager) CurrentPhase() Phase {
	return tm.phase
}

// TurnNumber returns the current turn number; 0 during setup, 1-based after.
func (tm *TurnManager) TurnNumber() int {
	return tm.turnNumber
}

// ActivePlayer returns the seat whose turn it is.
func (tm *TurnManager) ActivePlayer() int {
	return tm.activePlayer
}

// Opponent returns the seat that is not active.
func (tm *TurnManager) Opponent() int {
	return 1 - tm.activePlayer
}

// Terminated reports whether the match reached the terminal phase.
func (tm *TurnManager) Terminated() bool {
	return tm.phase == PhaseTerminal
}

// Advance moves to the next phase. Leaving setup starts turn 1; leaving
// end-of-turn hands the turn to the other seat and increments the counter.
// Advance is a no-op once terminal.
func (tm *TurnManager) Advance() Phase {
	if tm.phase == PhaseTerminal {
		return tm.phase
	}
	if tm.phase == PhaseSetup {
		tm.orderIndex = 0
		tm.turnNumber = 1
		tm.phase = turnSequence[0]
		return tm.phase
	}

	tm.orderIndex++
	if tm.orderIndex >= len(turnSequence) {
		tm.orderIndex = 0
		tm.turnNumber++
		tm.activePlayer = 1 - tm.activePlayer
	}
	tm.phase = turnSequence[tm.orderIndex]
	return tm.phase
}

// Terminate moves the manager into the terminal phase.
func (tm *TurnManager) Terminate() {
	tm.phase = PhaseTerminal
}
