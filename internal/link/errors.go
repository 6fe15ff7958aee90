package link

import "errors"

// Rejection reasons returned by Normalize and ParseSeed.
// Callers match them with errors.Is.
var (
	// ErrEmpty is returned for a token that is blank after trimming.
	ErrEmpty = errors.New("empty link")

	// ErrCrossOrigin is returned when a token resolves outside the base origin.
	// Non-navigational schemes such as javascript: and mailto: also end up here
	// because their scheme never matches the base.
	ErrCrossOrigin = errors.New("link resolves to a different origin")

	// ErrInvalidURL is returned when a string cannot be parsed as a URL or
	// lacks the parts needed to act on it.
	ErrInvalidURL = errors.New("invalid URL")
)
