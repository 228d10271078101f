package comm

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/openrover.go/pkg/l0/data"
)

// Drainer is implemented by transports which can wait until written bytes
// have physically left the host, e.g. a serial port.
type Drainer interface {
	Drain() error
}

// Option configures a Channel.
type Option func(*Channel)

// WithChecksum replaces the frame checksum in both directions.
func WithChecksum(checksum Checksum) Option {
	return func(c *Channel) {
		c.checksum = checksum
	}
}

// Channel exchanges frames with the device over a byte stream.
// Outgoing frames are queued by Submit and written by Run, incoming frames
// are decoded in the background and consumed by ReadOne.
type Channel struct {
	rw       io.ReadWriteCloser
	registry *data.Registry
	checksum Checksum

	outHead *outgoing
	outTail *outgoing
	queued  uint64
	written uint64

	inHead *incoming
	inTail *incoming

	discarded uint64
	err       error
	running   bool
	cancel    func()
	notifyCh  chan struct{}
	doneCh    chan struct{}
	lock      sync.Mutex

	closeOnce sync.Once
}

type outgoing struct {
	buf  [CommandFrameLen]byte
	next *outgoing
}

type incoming struct {
	frame Frame
	next  *incoming
}

// NewChannel creates a Channel over rw. A nil registry means data.Default().
// The channel owns rw and closes it when stopped, which is also how the
// background reader is unblocked.
func NewChannel(rw io.ReadWriteCloser, registry *data.Registry, opts ...Option) *Channel {
	if registry == nil {
		registry = data.Default()
	}
	c := &Channel{
		rw:       rw,
		registry: registry,
		checksum: SumChecksum,
		notifyCh: make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Registry returns the registry used to decode payloads.
func (c *Channel) Registry() *data.Registry {
	return c.registry
}

// Submit encodes a command frame and queues it. It never blocks.
func (c *Channel) Submit(verb Verb, arg byte, left, right, flipper float64) error {
	if !ValidMotor(left) || !ValidMotor(right) || !ValidMotor(flipper) {
		return ErrMotorRange
	}
	frame := CommandFrame{Left: left, Right: right, Flipper: flipper, Verb: verb, Arg: arg}
	out := &outgoing{buf: frame.EncodeWith(c.checksum)}
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.err != nil {
		return c.err
	}
	if c.outHead == nil {
		c.outHead = out
	} else {
		c.outTail.next = out
	}
	c.outTail = out
	c.queued++
	c.notify()
	return nil
}

// Flush waits until all frames queued before the call are written to the
// transport, then drains the transport if it's a Drainer.
func (c *Channel) Flush(ctx context.Context) error {
	c.lock.Lock()
	target := c.queued
	c.lock.Unlock()
	err := c.wait(ctx, func() bool { return c.written >= target })
	if err != nil {
		return err
	}
	if d, ok := c.rw.(Drainer); ok {
		if err = d.Drain(); err != nil {
			return &TransportError{Op: "drain", Err: err}
		}
	}
	return nil
}

// ReadOne waits for the next response frame and decodes its payload.
// A payload not matching the registered element results in a
// *data.DecodeError with the key still returned.
func (c *Channel) ReadOne(ctx context.Context) (key int, value data.Value, err error) {
	for {
		c.lock.Lock()
		in, ch := c.inHead, c.notifyCh
		if err = c.err; err == nil && in != nil {
			if c.inHead = in.next; c.inHead == nil {
				c.inTail = nil
			}
		}
		c.lock.Unlock()
		if err != nil {
			return 0, nil, err
		}
		if in != nil {
			key = int(in.frame.Key)
			value, err = c.registry.Decode(key, in.frame.Payload)
			return
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return 0, nil, ctx.Err()
		}
	}
}

// Pending returns the number of queued frames not yet written.
func (c *Channel) Pending() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return int(c.queued - c.written)
}

// Discarded returns the number of received bytes dropped while resynchronizing.
func (c *Channel) Discarded() uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.discarded
}

// Err returns the error which stopped the channel, or nil if it's still usable.
func (c *Channel) Err() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.err
}

// Run writes queued frames and decodes received bytes until ctx is done
// or the transport fails. The transport is released when Run returns.
func (c *Channel) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.lock.Lock()
	if c.err != nil || c.running {
		err := c.err
		c.lock.Unlock()
		if err == nil {
			err = errors.New("channel already running")
		}
		return err
	}
	c.running, c.cancel = true, cancel
	c.lock.Unlock()
	defer close(c.doneCh)

	go c.readLoop()
	err := c.writeLoop(ctx)
	c.stop(err)
	if stopErr := c.Err(); stopErr != ErrChannelClosed {
		return stopErr
	}
	return err
}

// Close stops the channel and releases the transport.
func (c *Channel) Close() error {
	c.lock.Lock()
	running, cancel := c.running, c.cancel
	c.lock.Unlock()
	if !running {
		c.stop(ErrChannelClosed)
		return nil
	}
	cancel()
	<-c.doneCh
	return nil
}

func (c *Channel) writeLoop(ctx context.Context) error {
	for {
		c.lock.Lock()
		out, err, ch := c.outHead, c.err, c.notifyCh
		if out != nil {
			if c.outHead = out.next; c.outHead == nil {
				c.outTail = nil
			}
		}
		c.lock.Unlock()
		if err != nil {
			return err
		}
		if out == nil {
			select {
			case <-ch:
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if glog.V(4) {
			glog.Infof("send % x", out.buf[:])
		}
		if _, err = c.rw.Write(out.buf[:]); err != nil {
			return &TransportError{Op: "write", Err: err}
		}
		c.lock.Lock()
		c.written++
		c.notify()
		c.lock.Unlock()
	}
}

func (c *Channel) readLoop() {
	parser := NewParser(c.registry.PayloadLen, c.checksum)
	buf := make([]byte, 64)
	for {
		n, err := c.rw.Read(buf)
		if n > 0 {
			parser.Feed(buf[:n])
			c.lock.Lock()
			for {
				frame, ok := parser.Next()
				if !ok {
					break
				}
				if glog.V(4) {
					glog.Infof("recv key %d payload % x", frame.Key, frame.Payload)
				}
				in := &incoming{frame: frame}
				if c.inHead == nil {
					c.inHead = in
				} else {
					c.inTail.next = in
				}
				c.inTail = in
			}
			c.discarded = parser.Discarded()
			c.notify()
			c.lock.Unlock()
		}
		if err != nil {
			c.stop(&TransportError{Op: "read", Err: err})
			return
		}
	}
}

// stop records the first error, wakes up all waiters and closes the transport.
func (c *Channel) stop(err error) {
	var te *TransportError
	if !errors.As(err, &te) {
		err = ErrChannelClosed
	}
	c.lock.Lock()
	if c.err == nil {
		c.err = err
		if te != nil {
			glog.Errorf("channel stopped: %v", err)
		}
	}
	cancel := c.cancel
	c.notify()
	c.lock.Unlock()
	if cancel != nil {
		cancel()
	}
	c.closeOnce.Do(func() {
		c.rw.Close()
	})
}

// wait blocks until cond is satisfied, checked with lock held.
func (c *Channel) wait(ctx context.Context, cond func() bool) error {
	for {
		c.lock.Lock()
		ok, err, ch := cond(), c.err, c.notifyCh
		c.lock.Unlock()
		if ok {
			return nil
		}
		if err != nil {
			return err
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// notify must be called with lock held.
func (c *Channel) notify() {
	close(c.notifyCh)
	c.notifyCh = make(chan struct{})
}
