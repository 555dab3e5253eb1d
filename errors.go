package unpack

import (
	"errors"
	"fmt"
)

// The decoders classify fatal errors with these values. Use errors.Is to
// check for them.
var (
	// ErrInvalidData indicates a malformed compressed stream.
	ErrInvalidData = errors.New("invalid data")
	// ErrInsufficientData indicates that the source ended before the
	// stream was complete.
	ErrInsufficientData = errors.New("insufficient data")
)

// Error describes a decoding error. Op names the format or operation, Kind
// is ErrInvalidData or ErrInsufficientData.
type Error struct {
	Op   string
	Kind error
	Msg  string
}

// Error returns the message with the operation as prefix.
func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Op + " - " + e.Kind.Error()
	}
	return e.Op + " - " + e.Kind.Error() + ": " + e.Msg
}

// Unwrap returns the kind of the error.
func (e *Error) Unwrap() error { return e.Kind }

// InvalidData creates an error of kind ErrInvalidData.
func InvalidData(op string, format string, a ...interface{}) error {
	return &Error{Op: op, Kind: ErrInvalidData, Msg: fmt.Sprintf(format, a...)}
}

// InsufficientData creates an error of kind ErrInsufficientData.
func InsufficientData(op string, format string, a ...interface{}) error {
	return &Error{Op: op, Kind: ErrInsufficientData,
		Msg: fmt.Sprintf(format, a...)}
}
