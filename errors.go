package glot

import "errors"

// Sentinel errors for the glot package.
// Use errors.Is to check: errors.Is(err, glot.ErrInvalidRating)
var (
	ErrInvalidRating          = errors.New("glot: invalid rating")
	ErrInvalidConfiguration   = errors.New("glot: invalid configuration")
	ErrConcurrentModification = errors.New("glot: card modified since read")
	ErrCardMismatch           = errors.New("glot: card ID mismatch in review event")
)
