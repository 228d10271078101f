// Package pitstop bootstraps an OpenRover device: reflashes the firmware,
// checks the firmware version and updates persistent settings.
package pitstop

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/robotalks/openrover.go/pkg/device"
	"github.com/robotalks/openrover.go/pkg/l0/comm"
	"github.com/robotalks/openrover.go/pkg/l0/data"
	"github.com/robotalks/openrover.go/pkg/rover"
)

var (
	// ErrNoAction indicates nothing is requested.
	ErrNoAction = errors.New("no action requested (flash, minimum version, update settings)")
	// ErrNoDevice indicates no device is specified or found.
	ErrNoDevice = device.ErrNoDevice
	// ErrFirmwareMissing indicates the firmware file to flash doesn't exist.
	ErrFirmwareMissing = errors.New("firmware file does not exist")
	// ErrVersionTooOld indicates the firmware is older than required.
	ErrVersionTooOld = errors.New("firmware version too old")
)

// WakeSequence is sent after flashing to leave the bootloader and start
// the firmware.
var WakeSequence = []byte{0xf7, 0x01, 0x00, 0x40, 0x41, 0x43, 0x7f}

// Banner is printed when all actions succeed.
const Banner = "      VROOM      \r\n" +
	"  _           _  \r\n" +
	" /#\\ ------- /#\\ \r\n" +
	" |#|  (o=o)  |#| \r\n" +
	" \\#/ ------- \\#/ \r\n" +
	"                 "

// DefaultVersionTimeout is the time to wait for the version reply.
const DefaultVersionTimeout = 10 * time.Second

// Tool runs the pitstop actions.
type Tool struct {
	Config

	// OpenPort opens the device, device.Open by default.
	OpenPort func(path string, baud int) (io.ReadWriteCloser, error)
	// Exec runs the bootloader, an os/exec command by default.
	Exec func(ctx context.Context, name string, args ...string) error
	// FindPaths finds candidate devices, device.FindPaths by default.
	FindPaths func() ([]string, error)
	// Logf prints progress, log.Printf by default.
	Logf func(format string, args ...interface{})
}

// NewTool creates a Tool with the config.
func (c *Config) NewTool() *Tool {
	return &Tool{
		Config:    *c,
		OpenPort:  device.Open,
		Exec:      execCommand,
		FindPaths: device.FindPaths,
		Logf:      log.Printf,
	}
}

// Run executes the requested actions in order: flash, version check and
// settings update.
func (t *Tool) Run(ctx context.Context) error {
	if err := t.Validate(); err != nil {
		return err
	}
	path, err := t.devicePath()
	if err != nil {
		return err
	}
	t.Logf("Using device %s", path)
	if t.Firmware != "" {
		if err := t.Flash(ctx, path); err != nil {
			return err
		}
	}
	if t.MinimumVersion != "" {
		if err := t.CheckVersion(ctx, path); err != nil {
			return err
		}
	}
	if len(t.Settings) > 0 {
		if err := t.UpdateSettings(ctx, path); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tool) devicePath() (string, error) {
	if t.Port != "" {
		return t.Port, nil
	}
	t.Logf("Scanning for possible rover devices")
	paths, err := t.FindPaths()
	if err != nil {
		return "", err
	}
	if len(paths) > 1 {
		t.Logf("Multiple devices found: %s", strings.Join(paths, ", "))
	}
	return device.First(paths)
}

// Flash restarts the device into the bootloader, loads the firmware and
// starts it.
func (t *Tool) Flash(ctx context.Context, path string) error {
	hexfile, err := filepath.Abs(t.Firmware)
	if err != nil {
		return err
	}
	if info, err := os.Stat(hexfile); err != nil || !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s", ErrFirmwareMissing, hexfile)
	}

	t.Logf("instructing rover to restart")
	err = t.withChannel(ctx, path, func(ctx context.Context, ch *comm.Channel) error {
		if err := ch.Submit(comm.VerbRestart, 0, 0, 0, 0); err != nil {
			return err
		}
		return ch.Flush(ctx)
	})
	if err != nil {
		return fmt.Errorf("restart rover: %w", err)
	}

	cmd := t.bootloaderCommand()
	args := append(append([]string(nil), cmd[1:]...),
		"--port", path,
		"--baudrate", strconv.Itoa(t.baud()),
		"--hexfile", hexfile,
		"--erase",
		"--load",
		"--verify",
	)
	t.Logf("invoking bootloader: %s %s", cmd[0], strings.Join(args, " "))
	if err := t.Exec(ctx, cmd[0], args...); err != nil {
		return fmt.Errorf("bootloader: %w", err)
	}

	t.Logf("starting firmware")
	port, err := t.OpenPort(path, t.baud())
	if err != nil {
		return err
	}
	defer port.Close()
	if _, err := port.Write(WakeSequence); err != nil {
		return &comm.TransportError{Op: "write", Err: err}
	}
	if d, ok := port.(comm.Drainer); ok {
		if err := d.Drain(); err != nil {
			return &comm.TransportError{Op: "drain", Err: err}
		}
	}
	return nil
}

// CheckVersion fails if the firmware is older than MinimumVersion.
func (t *Tool) CheckVersion(ctx context.Context, path string) error {
	if _, err := data.CanonicalVersion(t.MinimumVersion); err != nil {
		return err
	}
	t.Logf("Expecting version at least %s", t.MinimumVersion)
	var version data.FirmwareVersion
	err := t.withChannel(ctx, path, func(ctx context.Context, ch *comm.Channel) (err error) {
		timeout := t.VersionTimeout
		if timeout <= 0 {
			timeout = DefaultVersionTimeout
		}
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		version, err = rover.ProbeVersion(ctx, ch, 1)
		return
	})
	if err != nil {
		t.Logf("could not get version")
		return err
	}
	t.Logf("Actual version = %s", version)
	ok, err := version.AtLeast(t.MinimumVersion)
	if err != nil {
		return err
	}
	if !ok {
		t.Logf("Failed!")
		return fmt.Errorf("%w: %s is older than %s", ErrVersionTooOld, version, t.MinimumVersion)
	}
	return nil
}

// UpdateSettings reloads the persisted settings, applies the changes and
// commits them.
func (t *Tool) UpdateSettings(ctx context.Context, path string) error {
	return t.withChannel(ctx, path, func(ctx context.Context, ch *comm.Channel) error {
		if err := ch.Submit(comm.VerbReloadSettings, 0, 0, 0, 0); err != nil {
			return err
		}
		for _, setting := range t.Settings {
			t.Logf("setting %s = %d", setting.Verb, setting.Value)
			if err := ch.Submit(setting.Verb, setting.Value, 0, 0, 0); err != nil {
				return err
			}
		}
		if err := ch.Submit(comm.VerbCommitSettings, 0, 0, 0, 0); err != nil {
			return err
		}
		return ch.Flush(ctx)
	})
}

// withChannel opens the device, runs a channel on it during fn and
// releases the device afterwards.
func (t *Tool) withChannel(ctx context.Context, path string, fn func(context.Context, *comm.Channel) error) error {
	port, err := t.OpenPort(path, t.baud())
	if err != nil {
		return err
	}
	ch := comm.NewChannel(port, data.Default())
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go ch.Run(ctx)
	defer ch.Close()
	return fn(ctx, ch)
}

func (t *Tool) baud() int {
	if t.Baud > 0 {
		return t.Baud
	}
	return device.DefaultBaud
}

func (t *Tool) bootloaderCommand() []string {
	if cmd := strings.Fields(t.Bootloader); len(cmd) > 0 {
		return cmd
	}
	return strings.Fields(DefaultBootloader)
}

func execCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
