package canex

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidFrameLength = errors.New("frame data exceeds 8 bytes")
	ErrNotConnected       = errors.New("not connected")
	ErrAlreadyConnected   = errors.New("already connected")
	ErrNotErrorFrame      = errors.New("not an error frame")
)

// ConnectionError reports a connect or disconnect attempted in the wrong
// state, or a medium that could not be opened. The link state is unchanged.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// TransmitError reports a send that failed, either because the link is down
// or at the medium level. The frame is not retried.
type TransmitError struct {
	Err error
}

func (e *TransmitError) Error() string {
	return fmt.Sprintf("transmit failed: %v", e.Err)
}

func (e *TransmitError) Unwrap() error {
	return e.Err
}

// FramingError reports a receive that produced fewer bytes than one wire
// record. It is fatal to the receiver loop.
type FramingError struct {
	Want, Got int
}

func (e *FramingError) Error() string {
	return fmt.Sprintf("short frame: want %d bytes, got %d", e.Want, e.Got)
}
