// Package bridge exposes a rover on the message queue: it keeps the
// motors fed with heartbeats, executes drive commands with a watchdog
// and publishes telemetry polled from the rover.
package bridge

import (
	"context"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/openrover.go/pkg/framework"
	"github.com/robotalks/openrover.go/pkg/l0/data"
	"github.com/robotalks/openrover.go/pkg/l1"
	"github.com/robotalks/openrover.go/pkg/l1/comm"
	"github.com/robotalks/openrover.go/pkg/l1/msgs"
	"github.com/robotalks/openrover.go/pkg/rover"
)

// Bridge connects a Rover with a Registrar in a framework.Loop.
type Bridge struct {
	Config    Config
	Rover     *rover.Rover
	Registrar l1.Registrar

	lastDrive time.Time
}

// NewBridge creates a Bridge.
func (c *Config) NewBridge(r *rover.Rover, registrar l1.Registrar) *Bridge {
	return &Bridge{Config: *c, Rover: r, Registrar: registrar}
}

// AddToLoop implements LoopAdder.
func (b *Bridge) AddToLoop(loop *fx.Loop) {
	if b.Config.HeartbeatInterval > 0 {
		loop.Interval = b.Config.HeartbeatInterval
	}
	loop.AddRunnable(fx.NamedRun("rover", b.Rover))
	loop.AddController(fx.PrLvControl, fx.ControlFunc(b.handleCommands))
	loop.AddController(fx.PrLvControl+1, fx.ControlFunc(b.watchdog))
	loop.AddController(fx.PrLvAcuate, fx.ControlFunc(b.heartbeat))
	loop.Add(&comm.UnsupportedCommands{})
	if b.Config.PollInterval > 0 && len(b.Config.PollItems) > 0 {
		loop.AddRunnable(fx.NamedRun("poller", fx.RunFunc(b.runPoller)))
	}
}

func (b *Bridge) handleCommands(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(func(msg fx.Message) bool {
		cmdMsg, ok := msg.(*l1.CommandMsg)
		if !ok {
			return false
		}
		var err error
		switch m := cmdMsg.Command.Msg().(type) {
		case *msgs.Drive:
			if err = b.Rover.SetMotorSpeeds(m.Left, m.Right, m.Flipper); err == nil {
				b.lastDrive = cc.Time()
			}
		case *msgs.FanSpeed:
			err = b.Rover.SetFanSpeed(m.Fraction)
		case *msgs.FlipperCalibrate:
			err = b.Rover.FlipperCalibrate()
		default:
			return false
		}
		var reply fx.Message = &msgs.CommandOK{}
		if err != nil {
			glog.Warningf("command %T: %v", cmdMsg.Command.Msg(), err)
			reply = msgs.NewCommandErr(err)
		}
		if err := cmdMsg.Command.Done(reply); err != nil {
			glog.Errorf("reply command: %v", err)
		}
		return true
	})
	return nil
}

func (b *Bridge) watchdog(cc fx.ControlContext) error {
	if b.lastDrive.IsZero() || cc.Time().Sub(b.lastDrive) < b.Config.DriveTimeout {
		return nil
	}
	b.lastDrive = time.Time{}
	if left, right, flipper := b.Rover.MotorSpeeds(); left == 0 && right == 0 && flipper == 0 {
		return nil
	}
	glog.Warning("no drive command, stop motors")
	return b.Rover.SetMotorSpeeds(0, 0, 0)
}

func (b *Bridge) heartbeat(cc fx.ControlContext) error {
	return b.Rover.SendSpeed()
}

func (b *Bridge) runPoller(ctx context.Context) error {
	if v, err := b.Rover.Version(ctx); err != nil {
		glog.Warningf("firmware version: %v", err)
	} else {
		glog.Infof("firmware version %s", v)
	}
	ticker := time.NewTicker(b.Config.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		telemetry := b.Poll(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := b.Registrar.SendEvent(ctx, telemetry); err != nil {
			glog.Warningf("publish telemetry: %v", err)
		}
	}
}

// Poll reads the configured data elements in one batch. Elements the
// batch couldn't read carry the batch error.
func (b *Bridge) Poll(ctx context.Context) *msgs.Telemetry {
	telemetry := &msgs.Telemetry{Time: time.Now().UnixNano()}
	values, err := b.Rover.GetDataItems(ctx, b.Config.PollItems)
	if err != nil {
		glog.V(2).Infof("poll: %v", err)
	}
	registry := b.registry()
	for _, index := range b.Config.PollItems {
		if telemetry.Item(index) != nil {
			continue
		}
		item := &msgs.TelemetryItem{Index: uint32(index)}
		if elem, ok := registry.Lookup(index); ok {
			item.Name = elem.Name
		}
		if val, ok := values[index]; ok {
			item.Value = val.String()
			if num, ok := val.(data.Numeric); ok {
				item.Number = num.Float()
			}
		} else if err != nil {
			item.Error = err.Error()
		}
		telemetry.Items = append(telemetry.Items, item)
	}
	return telemetry
}

func (b *Bridge) registry() *data.Registry {
	if ch := b.Rover.Channel(); ch != nil {
		return ch.Registry()
	}
	return data.Default()
}
