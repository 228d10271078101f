// Package rover provides the OpenRover session on top of a protocol channel.
package rover

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robotalks/openrover.go/pkg/l0/comm"
	"github.com/robotalks/openrover.go/pkg/l0/data"
)

// DefaultTimeout is the default time to wait for a single reply.
const DefaultTimeout = time.Second

// FanSpeedMax is the fan duty corresponding to full speed.
const FanSpeedMax = 240

// Link is the part of comm.Channel used by a session.
type Link interface {
	Submit(verb comm.Verb, arg byte, left, right, flipper float64) error
	Flush(ctx context.Context) error
	ReadOne(ctx context.Context) (key int, value data.Value, err error)
}

// Rover is a session with an OpenRover device.
//
// Every frame sent carries the current motor speeds. The device stops
// the motors if nothing is received for a while, so SendSpeed must be
// called periodically.
type Rover struct {
	Timeout time.Duration

	link  Link
	ch    *comm.Channel
	left  float64
	right float64
	flip  float64

	motorLock sync.Mutex
	readLock  sync.Mutex
}

// New creates a Rover on the channel. The caller runs the channel.
func New(ch *comm.Channel) *Rover {
	r := NewWithLink(ch)
	r.ch = ch
	return r
}

// NewWithLink creates a Rover using any Link.
func NewWithLink(link Link) *Rover {
	return &Rover{Timeout: DefaultTimeout, link: link}
}

// Channel returns the underlying channel, nil if created by NewWithLink.
func (r *Rover) Channel() *comm.Channel {
	return r.ch
}

// SetMotorSpeeds sets the motor speeds sent with subsequent frames.
// Each value must be within [-1, 1].
func (r *Rover) SetMotorSpeeds(left, right, flipper float64) error {
	if !comm.ValidMotor(left) || !comm.ValidMotor(right) || !comm.ValidMotor(flipper) {
		return comm.ErrMotorRange
	}
	r.motorLock.Lock()
	r.left, r.right, r.flip = left, right, flipper
	r.motorLock.Unlock()
	return nil
}

// MotorSpeeds returns the current motor speeds.
func (r *Rover) MotorSpeeds() (left, right, flipper float64) {
	r.motorLock.Lock()
	defer r.motorLock.Unlock()
	return r.left, r.right, r.flip
}

// Command queues a command along with the current motor speeds.
func (r *Rover) Command(verb comm.Verb, arg byte) error {
	r.motorLock.Lock()
	defer r.motorLock.Unlock()
	return r.link.Submit(verb, arg, r.left, r.right, r.flip)
}

// SendSpeed sends the motor speeds only.
func (r *Rover) SendSpeed() error {
	return r.Command(comm.VerbNOP, 0)
}

// SetFanSpeed sets the fan speed as a fraction in [0, 1].
func (r *Rover) SetFanSpeed(fraction float64) error {
	if !(fraction >= 0 && fraction <= 1) {
		return ErrFanSpeedRange
	}
	return r.Command(comm.VerbSetFanSpeed, byte(fraction*FanSpeedMax))
}

// FlipperCalibrate starts the flipper calibration.
func (r *Rover) FlipperCalibrate() error {
	return r.Command(comm.VerbFlipperCalibrate, byte(comm.VerbFlipperCalibrate))
}

// Restart reboots the device. Flush before closing the connection.
func (r *Rover) Restart() error {
	return r.Command(comm.VerbRestart, 0)
}

// Flush waits until all queued commands are written.
func (r *Rover) Flush(ctx context.Context) error {
	return r.link.Flush(ctx)
}

// GetData requests a single data element and waits for the reply.
func (r *Rover) GetData(ctx context.Context, index int) (data.Value, error) {
	if err := checkIndex(index); err != nil {
		return nil, err
	}
	r.readLock.Lock()
	defer r.readLock.Unlock()
	if err := r.Command(comm.VerbGetData, byte(index)); err != nil {
		return nil, err
	}
	return r.readExpect(ctx, index)
}

// GetDataItems requests multiple data elements at once. Duplicated indices
// are requested once and the requests are sent in ascending order.
// On failure the values read so far are returned with the first error.
// Replies still outstanding for the batch are consumed before returning
// unless a read timed out, so the next request lines up with its reply.
func (r *Rover) GetDataItems(ctx context.Context, indices []int) (map[int]data.Value, error) {
	uniq := make(map[int]struct{}, len(indices))
	sorted := make([]int, 0, len(indices))
	for _, index := range indices {
		if err := checkIndex(index); err != nil {
			return nil, err
		}
		if _, exist := uniq[index]; !exist {
			uniq[index] = struct{}{}
			sorted = append(sorted, index)
		}
	}
	sort.Ints(sorted)

	r.readLock.Lock()
	defer r.readLock.Unlock()
	for _, index := range sorted {
		if err := r.Command(comm.VerbGetData, byte(index)); err != nil {
			return nil, err
		}
	}
	result := make(map[int]data.Value, len(sorted))
	var firstErr error
	for _, index := range sorted {
		val, err := r.readExpect(ctx, index)
		if err == nil {
			result[index] = val
			continue
		}
		if firstErr == nil {
			firstErr = err
		}
		if !replyConsumed(err) {
			break
		}
	}
	return result, firstErr
}

// replyConsumed tells whether a failed read still took a reply off the
// stream.
func replyConsumed(err error) bool {
	var decodeErr *data.DecodeError
	var unexpected *UnexpectedResponseError
	return errors.As(err, &decodeErr) || errors.As(err, &unexpected)
}

// Version probes the firmware version.
func (r *Rover) Version(ctx context.Context) (data.FirmwareVersion, error) {
	r.readLock.Lock()
	defer r.readLock.Unlock()
	ctx, cancel := context.WithTimeout(ctx, r.timeout())
	defer cancel()
	return probeVersion(ctx, DefaultVersionAttempts, func() error {
		return r.Command(comm.VerbGetData, data.IndexFirmwareVersion)
	}, r.link.ReadOne)
}

func (r *Rover) readExpect(ctx context.Context, index int) (data.Value, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout())
	defer cancel()
	key, val, err := r.link.ReadOne(ctx)
	if err != nil {
		if err == context.DeadlineExceeded {
			return nil, &TimeoutError{Index: index}
		}
		var decodeErr *data.DecodeError
		if !errors.As(err, &decodeErr) {
			return nil, err
		}
	}
	if key != index {
		return nil, &UnexpectedResponseError{Expected: index, Actual: key, Value: val}
	}
	return val, err
}

func (r *Rover) timeout() time.Duration {
	if r.Timeout > 0 {
		return r.Timeout
	}
	return DefaultTimeout
}

func checkIndex(index int) error {
	if index < 0 || index > 0xff {
		return fmt.Errorf("invalid data index %d", index)
	}
	return nil
}
