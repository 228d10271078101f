package pitstop

import (
	"flag"
	"os"
	"strconv"
	"time"

	"github.com/robotalks/openrover.go/pkg/device"
	"github.com/robotalks/openrover.go/pkg/l0/data"
)

// DefaultBootloader is the bootloader command prefix.
const DefaultBootloader = "python3 -m booty"

// Config defines the pitstop actions.
type Config struct {
	Port           string
	Baud           int
	Firmware       string
	MinimumVersion string
	Settings       Settings
	Bootloader     string
	VersionTimeout time.Duration
}

var defaultConfig = Config{
	Baud:           device.DefaultBaud,
	Bootloader:     DefaultBootloader,
	VersionTimeout: DefaultVersionTimeout,
}

func init() {
	if val := os.Getenv("ROVER_DEVICE"); val != "" {
		defaultConfig.Port = val
	}
	if val := os.Getenv("ROVER_BAUD"); val != "" {
		if baud, err := strconv.Atoi(val); err == nil && baud > 0 {
			defaultConfig.Baud = baud
		}
	}
	if val := os.Getenv("ROVER_BOOTLOADER"); val != "" {
		defaultConfig.Bootloader = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Port, "p", defaultConfig.Port, "Which device to use. If omitted, search for a possible rover device.")
	flag.IntVar(&defaultConfig.Baud, "baud", defaultConfig.Baud, "Serial port baud rate.")
	flag.StringVar(&defaultConfig.Firmware, "f", defaultConfig.Firmware, "Load the specified firmware file (path/to/firmware.hex) onto the rover.")
	flag.StringVar(&defaultConfig.MinimumVersion, "m", defaultConfig.MinimumVersion, "Check that the rover reports at least the given version, in the form N.N.N, N.N or N.")
	flag.Var(&defaultConfig.Settings, "u", "Update settings k:v, v may be 0-255, k may be: "+SettingsHelp())
	flag.StringVar(&defaultConfig.Bootloader, "bootloader", defaultConfig.Bootloader, "Bootloader command prefix.")
	flag.DurationVar(&defaultConfig.VersionTimeout, "version-timeout", defaultConfig.VersionTimeout, "Timeout waiting for the version reply.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	conf.Settings = append(Settings(nil), defaultConfig.Settings...)
	return &conf
}

// Validate checks at least one action is requested and the arguments are valid.
func (c *Config) Validate() error {
	if c.Firmware == "" && c.MinimumVersion == "" && len(c.Settings) == 0 {
		return ErrNoAction
	}
	if c.MinimumVersion != "" {
		if _, err := data.CanonicalVersion(c.MinimumVersion); err != nil {
			return err
		}
	}
	return nil
}
