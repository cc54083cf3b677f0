package st7735

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInitialized is returned by drawing operations called before Init
	// succeeded.
	ErrNotInitialized = errors.New("st7735: not initialized")
	// ErrInvalidWindow is returned when a window's end lies before its start.
	ErrInvalidWindow = errors.New("st7735: invalid window")
	// ErrInvalidOrientation is returned for values other than the four
	// Orientation constants.
	ErrInvalidOrientation = errors.New("st7735: invalid orientation")
)

// TransportError reports a failed bus write or control line change.
type TransportError struct {
	Op  string // "tx", "dc" or "rst"
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("st7735: %s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
