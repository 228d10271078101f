// Package device opens the transport to an OpenRover device.
package device

import (
	"fmt"
	"io"
	"strings"

	"github.com/golang/glog"
	"go.bug.st/serial"
)

// DefaultBaud is the baud rate of the OpenRover firmware.
const DefaultBaud = 57600

// Open opens the device at path. A ws:// or wss:// path dials a remote
// serial bridge, anything else is a local serial port.
func Open(path string, baud int) (io.ReadWriteCloser, error) {
	if IsRemote(path) {
		return DialWebSocket(path)
	}
	return OpenSerial(path, baud)
}

// IsRemote tells if path refers to a remote serial bridge.
func IsRemote(path string) bool {
	return strings.HasPrefix(path, "ws://") || strings.HasPrefix(path, "wss://")
}

// OpenSerial opens a local serial port with 8N1 at baud, DefaultBaud if 0.
func OpenSerial(path string, baud int) (serial.Port, error) {
	if baud <= 0 {
		baud = DefaultBaud
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", path, err)
	}
	glog.V(2).Infof("serial port %s opened at %d baud", path, baud)
	return port, nil
}
