package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file read when -config is not given.
const DefaultPath = "configs/v2scan.yaml"

// MaxConfigFileBytes bounds the size of a configuration file.
const MaxConfigFileBytes = 64 * 1024

// DeviceConfig selects the camera SDK implementation.
type DeviceConfig struct {
	Driver string `yaml:"driver"` // "sim" or "vivid"
	Model  string `yaml:"model"`  // simulated model: "vivid910" or "vivid9i"
}

// StepperConfig holds the configuration for a stepper motor.
type StepperConfig struct {
	StepPin       int `yaml:"step_pin"`
	DirPin        int `yaml:"dir_pin"`
	EnablePin     int `yaml:"enable_pin"` // A4988 ENABLE pin (BCM). 0 = not used. Active LOW.
	StepsPerRev   int `yaml:"steps_per_rev"`
	Microstepping int `yaml:"microstepping"`
}

// SerialConfig describes a turntable controller on a serial line.
type SerialConfig struct {
	Port      string `yaml:"port"`       // e.g., "/dev/ttyUSB0"
	BaudRate  int    `yaml:"baud_rate"`  // e.g., 9600
	Command   string `yaml:"command"`    // fmt template taking the angle, e.g., "R%d\r\n"
	TimeoutMs int    `yaml:"timeout_ms"` // reply timeout (ms)
}

// TurntableConfig describes how the object is rotated between views.
// Type selects a concrete implementation.
type TurntableConfig struct {
	Type          string        `yaml:"type"`            // "exec", "stepper", "serial" or "none"
	Command       []string      `yaml:"command"`         // exec argv, "{angle}" is replaced
	Stepper       StepperConfig `yaml:"stepper"`         // for type "stepper"
	MoveSpeedMs   int           `yaml:"move_speed_ms"`   // delay between motor steps
	SettleDelayMs int           `yaml:"settle_delay_ms"` // wait after a move before capturing (ms)
	Serial        SerialConfig  `yaml:"serial"`          // for type "serial"
}

// OutputConfig holds defaults for written files.
type OutputConfig struct {
	Base         string `yaml:"base"`          // empty = per-kind default
	Format       string `yaml:"format"`        // raster encoding, only "TIFF"
	StrictFormat bool   `yaml:"strict_format"` // reject unknown formats before opening the device
}

// NotifyConfig describes the optional per-shot MQTT publisher.
// An empty Broker disables publishing.
type NotifyConfig struct {
	Broker    string `yaml:"broker"`    // e.g., "tcp://localhost:1883"
	Topic     string `yaml:"topic"`     // e.g., "v2scan/shots"
	ClientID  string `yaml:"client_id"` // empty = generated
	TimeoutMs int    `yaml:"timeout_ms"`
}

// DefaultsConfig contains generic parameters.
type DefaultsConfig struct {
	DebugLevel int  `yaml:"debug_level"` // debug level 0-4 (0=off, 1=info, 2=live, 3=verbose, 4=trace)
	MockGPIO   bool `yaml:"mock_gpio"`   // use mock GPIO (true=dev/test, false=real Raspberry Pi)
}

// Config aggregates all application configuration.
type Config struct {
	Device    DeviceConfig    `yaml:"device"`
	Turntable TurntableConfig `yaml:"turntable"`
	Output    OutputConfig    `yaml:"output"`
	Notify    NotifyConfig    `yaml:"notify"`
	Defaults  DefaultsConfig  `yaml:"defaults"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.fillDefaults()
	return cfg
}

// ValidateConfigPath rejects paths that are not a .yaml file directly
// inside a configs/ directory.
func ValidateConfigPath(path string) error {
	if path == "" {
		return fmt.Errorf("config path is empty")
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return fmt.Errorf("config path %q must not contain ..", path)
		}
	}
	clean := filepath.Clean(path)
	if filepath.Ext(clean) != ".yaml" {
		return fmt.Errorf("config path %q must have a .yaml extension", path)
	}
	if filepath.Base(filepath.Dir(clean)) != "configs" {
		return fmt.Errorf("config path %q must be inside a configs/ directory", path)
	}
	return nil
}

// Load reads a YAML file and returns the configuration.
func Load(path string) (*Config, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if fi.Size() > MaxConfigFileBytes {
		return nil, fmt.Errorf("config file %s is %d bytes, limit is %d", path, fi.Size(), MaxConfigFileBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}
	cfg.fillDefaults()

	// Basic validation
	switch cfg.Device.Driver {
	case "sim", "vivid":
	default:
		return nil, fmt.Errorf("device.driver must be sim or vivid, got %q", cfg.Device.Driver)
	}
	switch cfg.Turntable.Type {
	case "exec":
		if len(cfg.Turntable.Command) == 0 {
			return nil, fmt.Errorf("turntable.command is required for type exec")
		}
	case "stepper":
		if cfg.Turntable.Stepper.StepsPerRev <= 0 || cfg.Turntable.Stepper.Microstepping <= 0 {
			return nil, fmt.Errorf("turntable.stepper.steps_per_rev and microstepping must be > 0")
		}
	case "serial":
		if cfg.Turntable.Serial.Port == "" {
			return nil, fmt.Errorf("turntable.serial.port is required for type serial")
		}
	case "none":
	default:
		return nil, fmt.Errorf("unknown turntable.type %q", cfg.Turntable.Type)
	}
	if cfg.Defaults.DebugLevel < 0 || cfg.Defaults.DebugLevel > 4 {
		return nil, fmt.Errorf("debug_level must be between 0 and 4, got %d", cfg.Defaults.DebugLevel)
	}
	if cfg.Notify.Broker != "" && cfg.Notify.Topic == "" {
		return nil, fmt.Errorf("notify.topic is required when notify.broker is set")
	}

	return &cfg, nil
}

// LoadOrDefault loads path, falling back to Default when path is the
// default location and no file exists there.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil && path == DefaultPath && errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

func (c *Config) fillDefaults() {
	if c.Device.Driver == "" {
		c.Device.Driver = "sim"
	}
	if c.Turntable.Type == "" {
		c.Turntable.Type = "exec"
	}
	if c.Turntable.Type == "exec" && len(c.Turntable.Command) == 0 {
		c.Turntable.Command = []string{"stage.exe", "-r", "{angle}"}
	}
	if c.Turntable.MoveSpeedMs <= 0 {
		c.Turntable.MoveSpeedMs = 2 // reasonable default
	}
	if c.Turntable.Serial.BaudRate <= 0 {
		c.Turntable.Serial.BaudRate = 9600
	}
	if c.Turntable.Serial.Command == "" {
		c.Turntable.Serial.Command = "R%d\r\n"
	}
	if c.Turntable.Serial.TimeoutMs <= 0 {
		c.Turntable.Serial.TimeoutMs = 5000
	}
	if c.Output.Format == "" {
		c.Output.Format = "TIFF"
	}
	if c.Notify.TimeoutMs <= 0 {
		c.Notify.TimeoutMs = 2000
	}
}

// MoveSpeed returns the duration between two motor steps.
func (c *Config) MoveSpeed() time.Duration {
	return time.Duration(c.Turntable.MoveSpeedMs) * time.Millisecond
}

// SettleDelay returns the wait after a turntable move.
func (c *Config) SettleDelay() time.Duration {
	return time.Duration(c.Turntable.SettleDelayMs) * time.Millisecond
}

// SerialTimeout returns how long to wait for a turntable reply.
func (c *Config) SerialTimeout() time.Duration {
	return time.Duration(c.Turntable.Serial.TimeoutMs) * time.Millisecond
}

// NotifyTimeout returns how long a publish may block.
func (c *Config) NotifyTimeout() time.Duration {
	return time.Duration(c.Notify.TimeoutMs) * time.Millisecond
}
