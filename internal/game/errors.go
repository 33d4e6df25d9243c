// internal/game/errors.go
package game

import "errors"

// Session and deck failures. Callers match them with errors.Is.
var (
	ErrGameNotFound       = errors.New("game not found")
	ErrGameAlreadyStarted = errors.New("game already started")
	ErrDuplicatePlayer    = errors.New("username already taken in this game")
	ErrNotYourTurn        = errors.New("not your turn")
	ErrNotHost            = errors.New("only the host can do that")
	ErrNotStarted         = errors.New("game has not started")
	ErrEmptyDeck          = errors.New("deck is empty")
	ErrInvalidUsername    = errors.New("username must not be empty")
)
