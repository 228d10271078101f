// Package commtest provides an in-memory OpenRover device for tests.
package commtest

import (
	"context"
	"encoding/binary"
	"net"
	"sync"

	"github.com/robotalks/openrover.go/pkg/l0/comm"
)

// Handler produces the reply frames to a command.
type Handler func(cmd comm.CommandFrame) []comm.Frame

// Device simulates the firmware end of the serial link. Commands are
// decoded, recorded and answered by the handler, which defaults to
// replying GET_DATA with the values set by SetValue and ignoring all
// other verbs. GET_DATA of an index without a value gets no reply.
type Device struct {
	Checksum comm.Checksum

	conn     net.Conn
	host     net.Conn
	handler  Handler
	values   map[byte][]byte
	commands []comm.CommandFrame
	raw      [][]byte
	received []byte
	notifyCh chan struct{}
	lock     sync.Mutex
}

// NewDevice creates the simulated device and starts serving it.
func NewDevice() *Device {
	d := &Device{
		Checksum: comm.SumChecksum,
		values:   make(map[byte][]byte),
		notifyCh: make(chan struct{}),
	}
	d.host, d.conn = net.Pipe()
	go d.serve()
	return d
}

// Host returns the host end of the link, to be used as the channel transport.
func (d *Device) Host() net.Conn {
	return d.host
}

// Handle replaces the command handler.
func (d *Device) Handle(h Handler) *Device {
	d.lock.Lock()
	d.handler = h
	d.lock.Unlock()
	return d
}

// SetValue sets the payload replied for GET_DATA of index.
func (d *Device) SetValue(index int, payload ...byte) *Device {
	d.lock.Lock()
	d.values[byte(index)] = append([]byte(nil), payload...)
	d.lock.Unlock()
	return d
}

// SetUint16 sets a 16-bit big endian payload for index.
func (d *Device) SetUint16(index int, v uint16) *Device {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return d.SetValue(index, b[:]...)
}

// ClearValue removes the value so GET_DATA of index gets no reply.
func (d *Device) ClearValue(index int) *Device {
	d.lock.Lock()
	delete(d.values, byte(index))
	d.lock.Unlock()
	return d
}

// Commands returns the commands received so far.
func (d *Device) Commands() []comm.CommandFrame {
	d.lock.Lock()
	defer d.lock.Unlock()
	return append([]comm.CommandFrame(nil), d.commands...)
}

// RawCommands returns the commands received so far as they were on the wire.
func (d *Device) RawCommands() [][]byte {
	d.lock.Lock()
	defer d.lock.Unlock()
	return append([][]byte(nil), d.raw...)
}

// Received returns all bytes received, including those not forming a command.
func (d *Device) Received() []byte {
	d.lock.Lock()
	defer d.lock.Unlock()
	return append([]byte(nil), d.received...)
}

// WaitCommands waits until at least n commands are received.
func (d *Device) WaitCommands(ctx context.Context, n int) ([]comm.CommandFrame, error) {
	for {
		d.lock.Lock()
		cmds, ch := d.commands, d.notifyCh
		d.lock.Unlock()
		if len(cmds) >= n {
			return append([]comm.CommandFrame(nil), cmds...), nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Send writes raw bytes to the host, e.g. garbage or hand-made frames.
func (d *Device) Send(b []byte) error {
	_, err := d.conn.Write(b)
	return err
}

// Reply sends a well-formed response frame.
func (d *Device) Reply(key int, payload ...byte) error {
	return d.Send(comm.Frame{Key: byte(key), Payload: payload}.Bytes(d.Checksum))
}

// Close disconnects the device.
func (d *Device) Close() error {
	return d.conn.Close()
}

func (d *Device) serve() {
	var buf []byte
	chunk := make([]byte, 64)
	for {
		n, err := d.conn.Read(chunk)
		if err != nil {
			return
		}
		d.lock.Lock()
		d.received = append(d.received, chunk[:n]...)
		d.lock.Unlock()
		buf = append(buf, chunk[:n]...)
		for len(buf) >= comm.CommandFrameLen {
			cmd, err := comm.DecodeCommandFrame(buf, d.Checksum)
			if err != nil {
				buf = buf[1:]
				continue
			}
			raw := append([]byte(nil), buf[:comm.CommandFrameLen]...)
			buf = buf[comm.CommandFrameLen:]
			for _, reply := range d.receive(cmd, raw) {
				if d.Send(reply.Bytes(d.Checksum)) != nil {
					return
				}
			}
		}
	}
}

func (d *Device) receive(cmd comm.CommandFrame, raw []byte) []comm.Frame {
	d.lock.Lock()
	d.commands = append(d.commands, cmd)
	d.raw = append(d.raw, raw)
	close(d.notifyCh)
	d.notifyCh = make(chan struct{})
	handler := d.handler
	var replies []comm.Frame
	if handler == nil && cmd.Verb == comm.VerbGetData {
		if payload, ok := d.values[cmd.Arg]; ok {
			replies = append(replies, comm.Frame{Key: cmd.Arg, Payload: payload})
		}
	}
	d.lock.Unlock()
	if handler != nil {
		replies = handler(cmd)
	}
	return replies
}
