package device

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.bug.st/serial/enumerator"
)

func listOf(ports ...*enumerator.PortDetails) Lister {
	return func() ([]*enumerator.PortDetails, error) {
		return ports, nil
	}
}

func TestFindPaths(t *testing.T) {
	list := listOf(
		&enumerator.PortDetails{Name: "/dev/ttyUSB1", IsUSB: true, VID: "0403", PID: "6015"},
		&enumerator.PortDetails{Name: "/dev/ttyS0"},
		&enumerator.PortDetails{Name: "/dev/ttyACM0", IsUSB: true, VID: "2341", PID: "0043"},
		&enumerator.PortDetails{Name: "/dev/ttyUSB0", IsUSB: true, VID: "0403", PID: "6001"},
		&enumerator.PortDetails{Name: "COM3", IsUSB: true, VID: "0403", PID: "6010"},
	)
	paths, err := FindPathsWith(list, FTDIDevices...)
	require.NoError(t, err)
	require.Equal(t, []string{"/dev/ttyUSB0", "/dev/ttyUSB1"}, paths)
}

func TestFindPathsIgnoresCase(t *testing.T) {
	paths, err := FindPathsWith(listOf(
		&enumerator.PortDetails{Name: "COM4", IsUSB: true, VID: "0403", PID: "6015"},
	), USBID{VID: "0403", PID: "6015"})
	require.NoError(t, err)
	require.Equal(t, []string{"COM4"}, paths)

	require.True(t, USBID{VID: "abcd", PID: "00ff"}.Match(&enumerator.PortDetails{IsUSB: true, VID: "ABCD", PID: "00FF"}))
}

func TestFindPathsError(t *testing.T) {
	_, err := FindPathsWith(func() ([]*enumerator.PortDetails, error) {
		return nil, errors.New("enumerate failed")
	}, FTDIDevices...)
	require.EqualError(t, err, "enumerate failed")
}

func TestFirst(t *testing.T) {
	_, err := First(nil)
	require.Equal(t, ErrNoDevice, err)
	path, err := First([]string{"/dev/ttyUSB0"})
	require.NoError(t, err)
	require.Equal(t, "/dev/ttyUSB0", path)
	path, err = First([]string{"/dev/ttyUSB0", "/dev/ttyUSB1"})
	require.NoError(t, err)
	require.Equal(t, "/dev/ttyUSB0", path)
}

func TestIsRemote(t *testing.T) {
	require.True(t, IsRemote("ws://host:8080/serial"))
	require.True(t, IsRemote("wss://host/serial"))
	require.False(t, IsRemote("/dev/ttyUSB0"))
	require.False(t, IsRemote("COM3"))
}
