package device

import (
	"errors"
	"sort"
	"strings"

	"github.com/golang/glog"
	"go.bug.st/serial/enumerator"
)

// ErrNoDevice indicates no candidate device is found.
var ErrNoDevice = errors.New("no OpenRover device found")

// USBID identifies a USB device model.
type USBID struct {
	VID string
	PID string
}

// Match checks the id against a port, ignoring case.
func (id USBID) Match(port *enumerator.PortDetails) bool {
	return port.IsUSB &&
		strings.EqualFold(id.VID, port.VID) &&
		strings.EqualFold(id.PID, port.PID)
}

// FTDIDevices are the USB serial adapters OpenRover is shipped with.
var FTDIDevices = []USBID{
	{VID: "0403", PID: "6001"},
	{VID: "0403", PID: "6015"},
}

// Lister enumerates serial ports.
type Lister func() ([]*enumerator.PortDetails, error)

// ListPorts is the system serial port enumerator.
var ListPorts Lister = enumerator.GetDetailedPortsList

// FindPaths returns the sorted paths of all candidate devices.
func FindPaths() ([]string, error) {
	return FindPathsWith(ListPorts, FTDIDevices...)
}

// FindPathsWith returns the paths of ports matching any of ids.
func FindPathsWith(list Lister, ids ...USBID) ([]string, error) {
	ports, err := list()
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, port := range ports {
		for _, id := range ids {
			if id.Match(port) {
				paths = append(paths, port.Name)
				break
			}
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// Find returns the first candidate device. More than one candidate is
// reported as a warning.
func Find() (string, error) {
	paths, err := FindPaths()
	if err != nil {
		return "", err
	}
	return First(paths)
}

// First picks the first path, warning if there are more.
func First(paths []string) (string, error) {
	switch len(paths) {
	case 0:
		return "", ErrNoDevice
	case 1:
	default:
		glog.Warningf("multiple devices found: %s", strings.Join(paths, ", "))
	}
	return paths[0], nil
}
