package bridge

import (
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/robotalks/openrover.go/pkg/l0/data"
	"github.com/robotalks/openrover.go/pkg/l1"
	"github.com/robotalks/openrover.go/pkg/l1/env"
)

// ControllerType is the type under which rovers are registered.
const ControllerType = "openrover"

// Defaults.
const (
	DefaultMQTTBrokerURL     = "mqtt://localhost:1883/robo/"
	DefaultHeartbeatInterval = 100 * time.Millisecond
	DefaultDriveTimeout      = time.Second
	DefaultPollInterval      = time.Second
)

// DefaultPollItems are the data elements published as telemetry.
var DefaultPollItems = []int{
	data.IndexBatteryVoltageExternal,
	20, 22, // motor temperatures
	34, 36, // battery state of charge
	data.IndexBatteryChargingState,
	data.IndexFirmwareVersion,
	data.IndexMotorStatus,
}

// Config of the bridge. It can be loaded from a YAML file.
type Config struct {
	// ID of the rover, derived from the machine ID by default.
	ID string `yaml:"id"`
	// MQTTBrokerURL specifies the MQTT broker to use.
	// e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL string `yaml:"mqtt"`
	// HeartbeatInterval is how often the motor speeds are sent.
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	// DriveTimeout stops the motors if no Drive command is received
	// within the duration.
	DriveTimeout time.Duration `yaml:"drive_timeout"`
	// PollInterval is how often telemetry is published, 0 disables polling.
	PollInterval time.Duration `yaml:"poll_interval"`
	// PollItems are the data element indices to poll.
	PollItems   []int             `yaml:"poll_items"`
	Description string            `yaml:"description"`
	Labels      map[string]string `yaml:"labels"`
}

var (
	defaultConfig = Config{
		MQTTBrokerURL:     DefaultMQTTBrokerURL,
		HeartbeatInterval: DefaultHeartbeatInterval,
		DriveTimeout:      DefaultDriveTimeout,
		PollInterval:      DefaultPollInterval,
		PollItems:         DefaultPollItems,
		Description:       "OpenRover",
	}
	configFile string
)

func init() {
	if val := os.Getenv("ROVER_MQTT_URL"); val != "" {
		defaultConfig.MQTTBrokerURL = val
	}
	if val := os.Getenv("ROVER_ID"); val != "" {
		defaultConfig.ID = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&configFile, "config", configFile, "YAML config file, values override flags.")
	flag.StringVar(&defaultConfig.ID, "id", defaultConfig.ID, "Rover ID, derived from machine ID if empty.")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL.")
	flag.DurationVar(&defaultConfig.HeartbeatInterval, "heartbeat", defaultConfig.HeartbeatInterval, "Interval of sending motor speeds.")
	flag.DurationVar(&defaultConfig.DriveTimeout, "drive-timeout", defaultConfig.DriveTimeout, "Stop motors when no drive command received.")
	flag.DurationVar(&defaultConfig.PollInterval, "poll", defaultConfig.PollInterval, "Telemetry poll interval, 0 to disable.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults, applying the config file
// if specified by flag.
func NewConfig() (*Config, error) {
	conf := defaultConfig
	conf.PollItems = append([]int(nil), defaultConfig.PollItems...)
	if configFile != "" {
		if err := conf.LoadFile(configFile); err != nil {
			return nil, err
		}
	}
	return &conf, nil
}

// LoadFile overrides the config with the values present in a YAML file.
func (c *Config) LoadFile(fn string) error {
	content, err := os.ReadFile(fn)
	if err != nil {
		return err
	}
	return c.Load(content)
}

// Load overrides the config with the values present in YAML content.
func (c *Config) Load(content []byte) error {
	if err := yaml.Unmarshal(content, c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Validate checks the config.
func (c *Config) Validate() error {
	if c.MQTTBrokerURL == "" {
		return fmt.Errorf("MQTT broker URL is required")
	}
	if c.HeartbeatInterval <= 0 {
		return fmt.Errorf("heartbeat interval must be positive")
	}
	if c.DriveTimeout < c.HeartbeatInterval {
		return fmt.Errorf("drive timeout %v shorter than heartbeat interval %v", c.DriveTimeout, c.HeartbeatInterval)
	}
	if c.PollInterval < 0 {
		return fmt.Errorf("poll interval must not be negative")
	}
	for _, index := range c.PollItems {
		if _, ok := data.Default().Lookup(index); !ok {
			return fmt.Errorf("unknown poll item %d", index)
		}
	}
	return nil
}

// Info builds the controller info to register.
func (c *Config) Info(devicePath string) l1.ControllerInfo {
	id := c.ID
	if id == "" {
		id = env.RoverID()
	}
	return l1.ControllerInfo{
		Ref: l1.ControllerRef{Type: ControllerType, ID: id},
		Meta: l1.ControllerMeta{
			Description: c.Description,
			Device:      devicePath,
			Labels:      c.Labels,
		},
	}
}
