package pitstop

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/openrover.go/pkg/l0/comm"
	"github.com/robotalks/openrover.go/pkg/l0/comm/commtest"
	"github.com/robotalks/openrover.go/pkg/l0/data"
	"github.com/robotalks/openrover.go/pkg/rover"
)

type pitstopTestEnv struct {
	t       *testing.T
	tool    *Tool
	setup   func(*commtest.Device)
	devices []*commtest.Device
	opened  []string
	execs   [][]string
	execErr error
	logs    []string
	lock    sync.Mutex
}

func newPitstopTestEnv(t *testing.T) *pitstopTestEnv {
	env := &pitstopTestEnv{t: t}
	conf := &Config{Port: "/dev/ttyUSB0", Bootloader: DefaultBootloader, VersionTimeout: 200 * time.Millisecond}
	env.tool = conf.NewTool()
	env.tool.OpenPort = env.openPort
	env.tool.Exec = func(ctx context.Context, name string, args ...string) error {
		env.execs = append(env.execs, append([]string{name}, args...))
		return env.execErr
	}
	env.tool.FindPaths = func() ([]string, error) {
		return nil, nil
	}
	env.tool.Logf = func(format string, args ...interface{}) {
		env.logs = append(env.logs, fmt.Sprintf(format, args...))
	}
	t.Cleanup(func() {
		for _, dev := range env.devices {
			dev.Close()
		}
	})
	return env
}

func (e *pitstopTestEnv) openPort(path string, baud int) (io.ReadWriteCloser, error) {
	require.Equal(e.t, 57600, baud)
	dev := commtest.NewDevice()
	if e.setup != nil {
		e.setup(dev)
	}
	e.lock.Lock()
	e.devices = append(e.devices, dev)
	e.opened = append(e.opened, path)
	e.lock.Unlock()
	return dev.Host(), nil
}

func (e *pitstopTestEnv) commands(dev int, n int) []comm.CommandFrame {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	cmds, err := e.devices[dev].WaitCommands(ctx, n)
	require.NoError(e.t, err)
	return cmds
}

func (e *pitstopTestEnv) hexfile() string {
	fn := filepath.Join(e.t.TempDir(), "firmware.hex")
	require.NoError(e.t, os.WriteFile(fn, []byte(":00000001FF\n"), 0644))
	return fn
}

func TestParseSetting(t *testing.T) {
	cases := []struct {
		arg    string
		expect Setting
		err    bool
	}{
		{arg: "3:10", expect: Setting{Verb: comm.VerbSetPowerPollingIntervalMs, Value: 10}},
		{arg: "8:255", expect: Setting{Verb: comm.VerbSetPWMFrequencyKHz, Value: 255}},
		{arg: "5:0", expect: Setting{Verb: comm.VerbSetOvercurrentTriggerDuration5ms, Value: 0}},
		{arg: "2:1", err: true},
		{arg: "9:1", err: true},
		{arg: "250:1", err: true},
		{arg: "3:256", err: true},
		{arg: "3:-1", err: true},
		{arg: "3", err: true},
		{arg: "x:1", err: true},
		{arg: "3:y", err: true},
	}
	for _, tc := range cases {
		setting, err := ParseSetting(tc.arg)
		if tc.err {
			require.Error(t, err, tc.arg)
			continue
		}
		require.NoError(t, err, tc.arg)
		require.Equal(t, tc.expect, setting)
	}
}

func TestSettingsFlag(t *testing.T) {
	var s Settings
	require.NoError(t, s.Set("3:10,4:20"))
	require.NoError(t, s.Set("5:1"))
	require.Len(t, s, 3)
	require.Equal(t, "3:10,4:20,5:1", s.String())
	require.Error(t, s.Set("3:10,1:1"))
	require.Contains(t, SettingsHelp(), "8=SET_PWM_FREQUENCY_KHZ")
}

func TestValidate(t *testing.T) {
	conf := &Config{}
	require.Equal(t, ErrNoAction, conf.Validate())
	conf.MinimumVersion = "1.x"
	require.Error(t, conf.Validate())
	conf.MinimumVersion = "1.2"
	require.NoError(t, conf.Validate())
}

func TestUpdateSettings(t *testing.T) {
	env := newPitstopTestEnv(t)
	require.NoError(t, env.tool.Settings.Set("3:10,4:20"))
	require.NoError(t, env.tool.Run(context.Background()))
	require.Len(t, env.devices, 1)
	cmds := env.commands(0, 4)
	require.Equal(t, []comm.CommandFrame{
		{Verb: comm.VerbReloadSettings},
		{Verb: comm.VerbSetPowerPollingIntervalMs, Arg: 10},
		{Verb: comm.VerbSetOvercurrentThreshold100mA, Arg: 20},
		{Verb: comm.VerbCommitSettings},
	}, cmds)
}

func TestCheckVersion(t *testing.T) {
	cases := []struct {
		minimum string
		err     error
	}{
		{"1", nil},
		{"1.5", nil},
		{"1.5.20", nil},
		{"1.5.21", ErrVersionTooOld},
		{"2", ErrVersionTooOld},
	}
	for _, tc := range cases {
		env := newPitstopTestEnv(t)
		env.setup = func(dev *commtest.Device) {
			dev.SetUint16(data.IndexFirmwareVersion, 10520)
		}
		env.tool.MinimumVersion = tc.minimum
		err := env.tool.Run(context.Background())
		if tc.err == nil {
			require.NoError(t, err, tc.minimum)
		} else {
			require.True(t, errors.Is(err, tc.err), "%s: %v", tc.minimum, err)
		}
		require.Contains(t, env.logs, "Actual version = 1.5.20")
	}
}

func TestCheckVersionNoResponse(t *testing.T) {
	env := newPitstopTestEnv(t)
	env.tool.MinimumVersion = "1.0"
	err := env.tool.Run(context.Background())
	require.True(t, errors.Is(err, rover.ErrNoVersion), "%v", err)
	require.Contains(t, env.logs, "could not get version")
}

func TestFlash(t *testing.T) {
	env := newPitstopTestEnv(t)
	env.tool.Firmware = env.hexfile()
	require.NoError(t, env.tool.Run(context.Background()))

	require.Len(t, env.devices, 2)
	cmds := env.commands(0, 1)
	require.Equal(t, comm.VerbRestart, cmds[0].Verb)

	require.Len(t, env.execs, 1)
	require.Equal(t, []string{
		"python3", "-m", "booty",
		"--port", "/dev/ttyUSB0",
		"--baudrate", "57600",
		"--hexfile", env.tool.Firmware,
		"--erase", "--load", "--verify",
	}, env.execs[0])

	wake := env.devices[1]
	require.Eventually(t, func() bool {
		return len(wake.Received()) >= len(WakeSequence)
	}, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, WakeSequence, wake.Received())
	require.Empty(t, wake.Commands())
}

func TestFlashCustomBootloader(t *testing.T) {
	env := newPitstopTestEnv(t)
	env.tool.Firmware = env.hexfile()
	env.tool.Bootloader = "/opt/booty/bin/booty --verbose"
	require.NoError(t, env.tool.Run(context.Background()))
	require.Equal(t, []string{"/opt/booty/bin/booty", "--verbose", "--port"}, env.execs[0][:3])
}

func TestFlashMissingFirmware(t *testing.T) {
	env := newPitstopTestEnv(t)
	env.tool.Firmware = filepath.Join(t.TempDir(), "missing.hex")
	err := env.tool.Run(context.Background())
	require.True(t, errors.Is(err, ErrFirmwareMissing), "%v", err)
	require.Empty(t, env.devices)
	require.Empty(t, env.execs)
}

func TestFlashBootloaderFailure(t *testing.T) {
	env := newPitstopTestEnv(t)
	env.tool.Firmware = env.hexfile()
	env.execErr = errors.New("exit status 1")
	err := env.tool.Run(context.Background())
	require.EqualError(t, err, "bootloader: exit status 1")
	require.Len(t, env.devices, 1)
}

func TestDeviceDiscovery(t *testing.T) {
	env := newPitstopTestEnv(t)
	env.tool.Port = ""
	env.tool.FindPaths = func() ([]string, error) {
		return []string{"/dev/ttyUSB1", "/dev/ttyUSB2"}, nil
	}
	require.NoError(t, env.tool.Settings.Set("6:1"))
	require.NoError(t, env.tool.Run(context.Background()))
	require.Equal(t, []string{"/dev/ttyUSB1"}, env.opened)
	require.Contains(t, env.logs, "Multiple devices found: /dev/ttyUSB1, /dev/ttyUSB2")
	require.Contains(t, env.logs, "Using device /dev/ttyUSB1")
}

func TestNoDevice(t *testing.T) {
	env := newPitstopTestEnv(t)
	env.tool.Port = ""
	require.NoError(t, env.tool.Settings.Set("6:1"))
	require.Equal(t, ErrNoDevice, env.tool.Run(context.Background()))
	require.Empty(t, env.devices)
}

func TestBanner(t *testing.T) {
	lines := strings.Split(Banner, "\r\n")
	require.Len(t, lines, 6)
	require.Equal(t, "      VROOM      ", lines[0])
	for _, line := range lines {
		require.Len(t, line, 17)
	}
}
