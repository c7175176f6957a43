package holdem

import "errors"

var (
	ErrHandEnded      = errors.New("hand already ended")
	ErrHandInProgress = errors.New("hand in progress")
	ErrOutOfTurn      = errors.New("action out of turn")
	ErrNotBetting     = errors.New("not in a betting phase")
	ErrCannotCheck    = errors.New("cannot check facing a bet")
	ErrNothingToCall  = errors.New("nothing to call")
	ErrInsufficient   = errors.New("insufficient chips to raise")
)

type InvalidStateError string

func (e InvalidStateError) Error() string { return "invalid state: " + string(e) }

func ErrInvalidState(msg string) error { return InvalidStateError(msg) }
