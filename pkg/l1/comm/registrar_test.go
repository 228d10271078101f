package comm

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/openrover.go/pkg/framework"
	"github.com/robotalks/openrover.go/pkg/l1"
	"github.com/robotalks/openrover.go/pkg/l1/msgs"
)

type chanPackets struct {
	in  chan []byte
	out chan []byte
}

func newChanPackets() *chanPackets {
	return &chanPackets{in: make(chan []byte, 4), out: make(chan []byte, 4)}
}

func (p *chanPackets) ReadPacket() ([]byte, error) {
	pkt, ok := <-p.in
	if !ok {
		return nil, io.EOF
	}
	return pkt, nil
}

func (p *chanPackets) WritePacket(pkt []byte) error {
	p.out <- pkt
	return nil
}

func (p *chanPackets) send(t *testing.T, msg fx.Message, seq uint32) {
	typed, err := msgs.TypedFrom(msg)
	require.NoError(t, err)
	typed.Sequence = seq
	p.sendTyped(t, typed)
}

func (p *chanPackets) sendTyped(t *testing.T, typed *msgs.Typed) {
	pkt, err := typed.Encode()
	require.NoError(t, err)
	p.in <- pkt
}

func (p *chanPackets) recv(t *testing.T) (*msgs.Typed, msgs.SerializableMessage) {
	select {
	case pkt := <-p.out:
		typed, err := msgs.DecodeTyped(pkt)
		require.NoError(t, err)
		msg, err := typed.Decode()
		require.NoError(t, err)
		return typed, msg
	case <-time.After(time.Second):
		t.Fatal("no packet sent")
	}
	return nil, nil
}

type registrarTestEnv struct {
	packets   *chanPackets
	registrar *Registrar
	loop      *fx.Loop
	done      chan error
}

func newRegistrarTestEnv(t *testing.T, ctls ...fx.Controller) *registrarTestEnv {
	env := &registrarTestEnv{
		packets:   newChanPackets(),
		registrar: &Registrar{},
		loop:      fx.NewLoop(),
		done:      make(chan error, 1),
	}
	env.loop.Interval = 10 * time.Millisecond
	env.registrar.Init(env.packets)
	env.loop.Add(env.registrar, &UnsupportedCommands{}).AddController(fx.PrLvControl, ctls...)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { env.done <- env.loop.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		close(env.packets.in)
		<-env.done
	})
	return env
}

func TestRegistrarCommands(t *testing.T) {
	drives := make(chan *msgs.Drive, 1)
	env := newRegistrarTestEnv(t, fx.ControlFunc(func(cc fx.ControlContext) error {
		cc.Messages().ProcessMessages(func(msg fx.Message) bool {
			cmd, ok := msg.(*l1.CommandMsg)
			if !ok {
				return false
			}
			drive, ok := cmd.Command.Msg().(*msgs.Drive)
			if ok {
				drives <- drive
				cmd.Command.Done(&msgs.CommandOK{})
			}
			return ok
		})
		return nil
	}))

	env.packets.send(t, &msgs.Drive{Left: 1}, 3)
	select {
	case drive := <-drives:
		require.Equal(t, 1.0, drive.Left)
	case <-time.After(time.Second):
		t.Fatal("drive not processed")
	}
	typed, msg := env.packets.recv(t)
	require.Equal(t, uint32(3), typed.Sequence)
	require.IsType(t, &msgs.CommandOK{}, msg)

	env.packets.send(t, &msgs.FlipperCalibrate{}, 4)
	typed, msg = env.packets.recv(t)
	require.Equal(t, uint32(4), typed.Sequence)
	require.EqualError(t, msg.(*msgs.CommandErr), msgs.ErrUnsupportedCommand.Error())
}

func TestRegistrarUnknownCommand(t *testing.T) {
	env := newRegistrarTestEnv(t)
	env.packets.in <- []byte{0xff, 0xff}
	env.packets.sendTyped(t, &msgs.Typed{TypeId: msgs.GroupCustom | 9, Sequence: 5})
	typed, msg := env.packets.recv(t)
	require.Equal(t, uint32(5), typed.Sequence)
	require.IsType(t, &msgs.CommandErr{}, msg)
}

func TestRegistrarSendEvent(t *testing.T) {
	env := newRegistrarTestEnv(t)
	require.NoError(t, env.registrar.SendEvent(context.Background(), &msgs.Telemetry{Time: 1}))
	typed, msg := env.packets.recv(t)
	require.True(t, typed.IsEvent())
	require.Equal(t, int64(1), msg.(*msgs.Telemetry).Time)
	require.Error(t, env.registrar.SendEvent(context.Background(), &msgs.Drive{}))
}
