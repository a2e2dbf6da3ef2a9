package game

import "errors"

// Errors returned by Player operations. All of them describe an action a
// policy should not have proposed; the match rejects the action and asks again.
var (
	ErrNotInHand          = errors.New("card is not in hand")
	ErrBenchFull          = errors.New("bench is full")
	ErrNoActiveCreature   = errors.New("no active creature")
	ErrNoDefender         = errors.New("opponent has no active creature")
	ErrNoAttack           = errors.New("active creature has no such attack")
	ErrAttackUnaffordable = errors.New("not enough resources attached for attack")
	ErrAttackBlocked      = errors.New("active creature cannot attack")
	ErrNotCreature        = errors.New("card is not a creature")
	ErrNotSupport         = errors.New("card is not a support card")
	ErrNotResource        = errors.New("card is not a resource")
	ErrActiveOccupied     = errors.New("active slot is occupied")
	ErrInvalidBenchIndex  = errors.New("invalid bench index")
	ErrIllegalAction      = errors.New("action is not legal now")
	ErrMustPromote        = errors.New("a bench creature must be promoted first")
	ErrAttachLimit        = errors.New("resource attachment limit reached this turn")
)
