package render

import (
	"errors"
	"fmt"
)

// Render failure classes.
var (
	// ErrRender matches every engine-level failure: launch errors, navigation
	// errors, crashed renderer processes and DOM evaluation errors.
	ErrRender = errors.New("render failed")

	// ErrRenderTimeout is returned when navigation does not reach network idle
	// within the engine's navigation timeout.
	ErrRenderTimeout = errors.New("timed out waiting for network idle")

	// ErrOffSite is returned when the loaded document is not on the origin
	// that was requested, which happens after a redirect to another host.
	ErrOffSite = errors.New("document is outside the requested origin")
)

// Error describes a failed render of one URL.
type Error struct {
	// URL is the page being rendered.
	URL string

	// Op is the render step that failed ("open", "navigate", "location",
	// "links", "html").
	Op string

	// Err is the underlying engine error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("render %s: %s: %v", e.URL, e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrRender. Every *Error is a render failure.
func (e *Error) Is(target error) bool {
	return target == ErrRender
}

// Timeout reports whether the render failed by not reaching network idle.
func (e *Error) Timeout() bool {
	return errors.Is(e.Err, ErrRenderTimeout)
}
