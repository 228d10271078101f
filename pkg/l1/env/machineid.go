// Package env provides facts about the machine the rover controller
// runs on.
package env

import (
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

const appID = "openrover"

// RoverID derives a stable ID for the rover attached to this machine.
// The machine ID is hashed with the app ID so the raw ID isn't exposed.
// It falls back to the hostname when the machine ID is unavailable.
func RoverID() string {
	id, err := machineid.ProtectedID(appID)
	if err == nil && len(id) >= 12 {
		return id[:12]
	}
	glog.Warningf("machine id unavailable: %v", err)
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "rover"
}
