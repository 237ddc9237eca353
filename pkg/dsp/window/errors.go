package window

import (
	"errors"
	"fmt"
)

var (
	// ErrFrozen is returned when a new spec is requested after Freeze
	ErrFrozen = errors.New("window table is frozen")
	// ErrLengthMismatch is returned when a frame does not match the window length
	ErrLengthMismatch  = errors.New("frame length does not match window length")
	ErrUnknownWindow   = errors.New("unknown window type")
	ErrUnknownSymmetry = errors.New("unknown window symmetry")
)

// InvalidLengthError reports a window length of zero or above the table maximum
type InvalidLengthError struct {
	Length int `json:"length"`
	Max    int `json:"max"`
}

func (e *InvalidLengthError) Error() string {
	if e.Length < 1 {
		return fmt.Sprintf("invalid window length %d: must be at least 1", e.Length)
	}
	return fmt.Sprintf("invalid window length %d: exceeds maximum %d", e.Length, e.Max)
}

// UnsupportedWindowTypeError reports a type tag outside the closed set.
// It indicates a programming defect and is raised as a panic.
type UnsupportedWindowTypeError struct {
	Type Type `json:"type"`
}

func (e *UnsupportedWindowTypeError) Error() string {
	return fmt.Sprintf("unsupported window type: %d", uint8(e.Type))
}
