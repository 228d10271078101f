package rover

import (
	"context"
	"flag"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/openrover.go/pkg/device"
	"github.com/robotalks/openrover.go/pkg/l0/comm"
	"github.com/robotalks/openrover.go/pkg/l0/data"
)

// Config defines how to connect to the rover.
type Config struct {
	// Device is the serial port path or a ws:// bridge URL.
	// Empty for auto detection.
	Device  string
	Baud    int
	Timeout time.Duration
}

var defaultConfig = Config{
	Baud:    device.DefaultBaud,
	Timeout: DefaultTimeout,
}

func init() {
	if val := os.Getenv("ROVER_DEVICE"); val != "" {
		defaultConfig.Device = val
	}
	if val := os.Getenv("ROVER_BAUD"); val != "" {
		if baud, err := strconv.Atoi(val); err == nil && baud > 0 {
			defaultConfig.Baud = baud
		}
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Device, "device", defaultConfig.Device, "Serial port or ws:// bridge URL, empty for auto detection.")
	flag.IntVar(&defaultConfig.Baud, "baud", defaultConfig.Baud, "Serial port baud rate.")
	flag.DurationVar(&defaultConfig.Timeout, "timeout", defaultConfig.Timeout, "Timeout waiting for a reply.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// DevicePath returns the configured device, or the detected one.
func (c *Config) DevicePath() (string, error) {
	if c.Device != "" {
		return c.Device, nil
	}
	return device.Find()
}

// Connect opens the device and creates the Rover. The caller must Run it.
func (c *Config) Connect() (*Rover, error) {
	path, err := c.DevicePath()
	if err != nil {
		return nil, err
	}
	port, err := device.Open(path, c.Baud)
	if err != nil {
		return nil, err
	}
	glog.Infof("rover connected on %s", path)
	r := New(comm.NewChannel(port, data.Default()))
	if c.Timeout > 0 {
		r.Timeout = c.Timeout
	}
	return r, nil
}

// MustConnect connects the rover and fails on error.
func (c *Config) MustConnect() *Rover {
	r, err := c.Connect()
	if err != nil {
		log.Fatalln(err)
	}
	return r
}

// Open connects to the rover and starts the channel in the background.
// The channel stops when ctx is done or Close is called.
func (c *Config) Open(ctx context.Context) (*Rover, error) {
	r, err := c.Connect()
	if err != nil {
		return nil, err
	}
	go func() {
		if err := r.Run(ctx); err != nil && err != context.Canceled {
			glog.Errorf("rover channel stopped: %v", err)
		}
	}()
	return r, nil
}

// MustOpen opens the rover and fails on error.
func (c *Config) MustOpen(ctx context.Context) *Rover {
	r, err := c.Open(ctx)
	if err != nil {
		log.Fatalln(err)
	}
	return r
}

// Open connects to the rover using conf, Default() if nil.
func Open(ctx context.Context, conf *Config) (*Rover, error) {
	if conf == nil {
		conf = Default()
	}
	return conf.Open(ctx)
}

// Close stops the channel and releases the device.
func (r *Rover) Close() error {
	if r.ch == nil {
		return nil
	}
	return r.ch.Close()
}

// Run runs the channel, for a Rover created by New.
func (r *Rover) Run(ctx context.Context) error {
	if r.ch == nil {
		return comm.ErrChannelClosed
	}
	return r.ch.Run(ctx)
}
