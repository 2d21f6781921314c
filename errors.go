package server

import "errors"

// Request-scoped failures. Every one of these is recoverable: the offending
// request gets a negative result and the rest of the world is untouched.
var (
	ErrObjectUnavailable = errors.New("object unavailable")
	ErrOutOfRange        = errors.New("out of range")
	ErrPlayerNotFound    = errors.New("player not found")
	ErrPlayerDead        = errors.New("player dead")
	ErrInvalidMessage    = errors.New("invalid message")
)

// failureReason maps a request error to its wire reason string.
func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrObjectUnavailable):
		return "objectUnavailable"
	case errors.Is(err, ErrOutOfRange):
		return "outOfRange"
	case errors.Is(err, ErrPlayerNotFound):
		return "playerNotFound"
	case errors.Is(err, ErrPlayerDead):
		return "playerDead"
	case errors.Is(err, ErrInvalidMessage):
		return "invalidMessage"
	default:
		return "internal"
	}
}
