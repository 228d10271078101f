package rover

import (
	"context"
	"errors"
	"fmt"

	"github.com/robotalks/openrover.go/pkg/l0/data"
)

var (
	// ErrNoVersion indicates the device didn't report its firmware version.
	ErrNoVersion = errors.New("no response to OpenRover version request")
	// ErrFanSpeedRange indicates a fan speed outside [0, 1].
	ErrFanSpeedRange = errors.New("fan speed out of range [0, 1]")
)

// UnexpectedResponseError is returned when a reply doesn't match the
// request in the same position, which means the stream is out of sync.
type UnexpectedResponseError struct {
	Expected int
	Actual   int
	Value    data.Value
}

// Error implements error.
func (e *UnexpectedResponseError) Error() string {
	return fmt.Sprintf("received unexpected data, expected %d, received %d:%v", e.Expected, e.Actual, e.Value)
}

// TimeoutError is returned when no reply arrives in time.
// The channel remains usable.
type TimeoutError struct {
	Index int
}

// Error implements error.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout waiting for data %d", e.Index)
}

// Unwrap makes the error match context.DeadlineExceeded.
func (e *TimeoutError) Unwrap() error {
	return context.DeadlineExceeded
}
