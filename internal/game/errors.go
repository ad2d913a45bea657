package game

import (
	"errors"
	"fmt"
)

var (
	ErrGameNotFound   = errors.New("game not found")
	ErrPlayerNotFound = errors.New("player not found")
	ErrGameFull       = errors.New("game is full")
	ErrNotHost        = errors.New("only the host can do that")
)

// IllegalActionError is returned when an action is attempted outside of the
// state in which it is legal. The state is never modified.
type IllegalActionError struct {
	Action string
	Reason string
}

func (e *IllegalActionError) Error() string {
	return fmt.Sprintf("illegal action %s: %s", e.Action, e.Reason)
}

// InsufficientCardsError is returned when the deck or a hand holds fewer cards
// than an operation needs.
type InsufficientCardsError struct {
	Need int
	Have int
}

func (e *InsufficientCardsError) Error() string {
	return fmt.Sprintf("insufficient cards: need %d, have %d", e.Need, e.Have)
}

func illegal(action, reason string) error {
	return &IllegalActionError{Action: action, Reason: reason}
}

// IsIllegal reports whether err is, or wraps, an IllegalActionError.
func IsIllegal(err error) bool {
	var ia *IllegalActionError
	return errors.As(err, &ia)
}
