// Package sh provides an interactive shell talking to a rover directly
// over the serial link.
package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	"github.com/robotalks/openrover.go/pkg/rover"
)

// DefaultHeartbeatInterval is how often motor speeds are resent while
// connected.
const DefaultHeartbeatInterval = 100 * time.Millisecond

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool

	Config            *rover.Config
	HeartbeatInterval time.Duration
	// Open connects the rover, rover.Open by default.
	Open func(context.Context, *rover.Config) (*rover.Rover, error)
	Out  io.Writer

	Conn *RoverConn
}

// RoverConn is a connected rover with the heartbeat running.
type RoverConn struct {
	Path  string
	Rover *rover.Rover

	cancel        func()
	stopHeartbeat func()
	doneCh        chan struct{}
}

const unconnectedPrompt = "[none] > "

var (
	// flags

	evalOnly   bool
	outputJSON bool
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// New creates a new shell.
func New(conf *rover.Config) *Shell {
	return &Shell{
		Interactive:       !evalOnly,
		OutputJSON:        outputJSON,
		Config:            conf,
		HeartbeatInterval: DefaultHeartbeatInterval,
		Open:              rover.Open,
		Out:               os.Stdout,
	}
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// Exec runs a single command line.
func (s *Shell) Exec(args ...string) error {
	if len(args) == 0 {
		return nil
	}
	cmd := findCommand(args[0])
	if cmd == nil {
		return fmt.Errorf("unknown command %q", args[0])
	}
	if cmd.connected && s.Conn == nil {
		return fmt.Errorf("not connected")
	}
	return cmd.fn(s, args[1:])
}

// Connect opens the rover at path, or the configured/detected device if
// path is empty, and starts the heartbeat.
func (s *Shell) Connect(path string) error {
	conf := *s.Config
	if path != "" {
		conf.Device = path
	}
	path, err := conf.DevicePath()
	if err != nil {
		return err
	}
	conf.Device = path
	s.Disconnect()

	ctx, cancel := context.WithCancel(context.Background())
	r, err := s.Open(ctx, &conf)
	if err != nil {
		cancel()
		return err
	}
	conn := &RoverConn{Path: path, Rover: r, cancel: cancel, doneCh: make(chan struct{})}
	hbCtx, stopHeartbeat := context.WithCancel(ctx)
	conn.stopHeartbeat = stopHeartbeat
	go conn.heartbeat(hbCtx, s.heartbeatInterval())
	s.Conn = conn
	return nil
}

// Disconnect stops the motors and disconnects the current rover.
func (s *Shell) Disconnect() {
	if conn := s.Conn; conn != nil {
		s.Conn = nil
		conn.stopHeartbeat()
		<-conn.doneCh
		if err := conn.stopMotors(); err != nil {
			glog.Warningf("stop motors on %s: %v", conn.Path, err)
		}
		conn.cancel()
		conn.Rover.Close()
	}
}

func (c *RoverConn) stopMotors() error {
	if err := c.Rover.SetMotorSpeeds(0, 0, 0); err != nil {
		return err
	}
	if err := c.Rover.SendSpeed(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return c.Rover.Flush(ctx)
}

func (s *Shell) heartbeatInterval() time.Duration {
	if s.HeartbeatInterval > 0 {
		return s.HeartbeatInterval
	}
	return DefaultHeartbeatInterval
}

func (c *RoverConn) heartbeat(ctx context.Context, interval time.Duration) {
	defer close(c.doneCh)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if err := c.Rover.SendSpeed(); err != nil {
			glog.Errorf("heartbeat: %v", err)
			return
		}
	}
}

// output prints v as JSON if OutputJSON, otherwise the text.
func (s *Shell) output(v interface{}, text string) error {
	if s.OutputJSON {
		out, err := json.Marshal(v)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(s.Out, string(out))
		return err
	}
	_, err := fmt.Fprintln(s.Out, strings.TrimRight(text, "\n"))
	return err
}

func (s *Shell) prompt() string {
	if s.Conn == nil {
		return unconnectedPrompt
	}
	return s.Conn.Path + " > "
}

func (s *Shell) newIShell() *ishell.Shell {
	shell := ishell.New()
	shell.SetOut(s.Out)
	shell.SetPrompt(s.prompt())
	for _, cmd := range commands {
		cmd := cmd
		shell.AddCmd(&ishell.Cmd{
			Name:    cmd.name,
			Aliases: cmd.aliases,
			Help:    cmd.help,
			Func: func(c *ishell.Context) {
				if err := s.Exec(append([]string{cmd.name}, c.Args...)...); err != nil {
					c.Err(err)
				}
				c.SetPrompt(s.prompt())
			},
		})
	}
	return shell
}

// Run runs the shell. With args, the command is executed and the shell
// exits unless interactive. The rover is disconnected before returning.
func (s *Shell) Run(args ...string) error {
	defer s.Disconnect()
	if s.AutoConnect {
		if s.Interactive {
			fmt.Fprintln(s.Out, "Connecting ...")
		}
		if err := s.Connect(""); err != nil {
			return fmt.Errorf("connect failed: %w", err)
		}
	}
	if len(args) > 0 {
		return s.Exec(args...)
	}
	if !s.Interactive {
		return fmt.Errorf("command expected")
	}
	s.newIShell().Run()
	return nil
}

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	conf := rover.NewConfig()
	if err := New(conf).WithAutoConnect(conf.Device != "").Run(flag.Args()...); err != nil {
		log.Fatalln(err)
	}
}
