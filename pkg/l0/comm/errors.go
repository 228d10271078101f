package comm

import (
	"errors"
	"fmt"
)

var (
	// ErrNeedMoreData indicates the buffered bytes don't contain a full frame yet.
	ErrNeedMoreData = errors.New("need more data")
	// ErrChannelClosed indicates the channel has stopped and the transport is released.
	ErrChannelClosed = errors.New("channel closed")
	// ErrMotorRange indicates a motor value outside [-1, 1].
	ErrMotorRange = errors.New("motor value out of range [-1, 1]")
)

// FramingError reports bytes which can't start a valid frame.
// Discard is the number of bytes to drop before decoding again.
type FramingError struct {
	Reason  string
	Discard int
}

// Error implements error.
func (e *FramingError) Error() string {
	return fmt.Sprintf("framing error: %s", e.Reason)
}

// TransportError wraps a failure reported by the underlying byte stream.
type TransportError struct {
	Op  string
	Err error
}

// Error implements error.
func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

// Unwrap returns the transport error.
func (e *TransportError) Unwrap() error {
	return e.Err
}
