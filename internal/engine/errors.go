package engine

import "fmt"

// ErrorKind classifies playback failures for the error notification.
type ErrorKind int

const (
	// ErrDecode means a file could not be read or decoded. Recoverable:
	// the track is skipped or reported, the engine stays usable.
	ErrDecode ErrorKind = iota
	// ErrDevice means the output device is unavailable. Playback is
	// disabled until the device initializes, metadata queries keep working.
	ErrDevice
	// ErrState means a transport call was invalid for the current state.
	// These are treated as no-ops and only surface in debug logs.
	ErrState
)

func (k ErrorKind) String() string {
	switch k {
	case ErrDecode:
		return "decode"
	case ErrDevice:
		return "device"
	case ErrState:
		return "state"
	default:
		return "unknown"
	}
}

// Error carries a human-readable message and a kind, the shape delivered to
// the registered error notification.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}
