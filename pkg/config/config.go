package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// MinRefreshInterval is the fastest the LCD can be redrawn.
	MinRefreshInterval = 56 * time.Millisecond
)

// ErrInvalid is returned for configuration that must not be used to start a
// test.
var ErrInvalid = errors.New("invalid configuration")

// Config represents the device configuration.
type Config struct {
	Display DisplayConfig `yaml:"display"`
	Storage StorageConfig `yaml:"storage"`
	Input   InputConfig   `yaml:"input"`
	Output  OutputConfig  `yaml:"output"`
	Serial  SerialConfig  `yaml:"serial"`
	Audit   AuditConfig   `yaml:"audit"`
}

// DisplayConfig contains display timing and layout parameters.
type DisplayConfig struct {
	RefreshInterval time.Duration `yaml:"refresh_interval"` // Not below MinRefreshInterval
	Margin          time.Duration `yaml:"margin"`           // Time left in a phase for a refresh to start
	EarlyFire       time.Duration `yaml:"early_fire"`       // How early a phase may end (0 = never early)
	LineMarginPct   float32       `yaml:"line_margin_pct"`  // Vertical margin around text, % of font height
}

// StorageConfig describes where test files are found.
type StorageConfig struct {
	Root      string `yaml:"root"`
	Prefix    string `yaml:"prefix"`
	Extension string `yaml:"extension"`
}

// InputConfig contains button polling intervals.
type InputConfig struct {
	PollInterval     time.Duration `yaml:"poll_interval"`
	MenuPollInterval time.Duration `yaml:"menu_poll_interval"`
}

// OutputConfig contains defaults for the output under test. A test file can
// override both.
type OutputConfig struct {
	Inverted  bool `yaml:"inverted"`
	HoldPower bool `yaml:"hold_power"`
}

// SerialConfig contains the optional USB relay configuration.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// AuditConfig controls the timing audit of the output on the desktop.
type AuditConfig struct {
	WindowSeconds float64       `yaml:"window_seconds"` // Trace length kept for the scope
	TolerancePct  float64       `yaml:"tolerance_pct"`  // Allowed phase error, % of the expected width
	MinTolerance  time.Duration `yaml:"min_tolerance"`  // Floor for short phases
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Display: DisplayConfig{
			RefreshInterval: MinRefreshInterval,
			Margin:          55 * time.Millisecond,
			EarlyFire:       0,
			LineMarginPct:   30,
		},
		Storage: StorageConfig{
			Root:      "/sd",
			Prefix:    "TEST_",
			Extension: ".yaml",
		},
		Input: InputConfig{
			PollInterval:     50 * time.Millisecond,
			MenuPollInterval: 150 * time.Millisecond,
		},
		Serial: SerialConfig{
			Port:     "/dev/ttyUSB0", // "COM3" on Windows
			BaudRate: 115200,
		},
		Audit: AuditConfig{
			WindowSeconds: 10,
			TolerancePct:  5,
			MinTolerance:  2 * time.Millisecond,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist, return defaults
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Ensure minimum required fields are set (use defaults if missing)
	cfg.ensureDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate rejects settings that would break the display timing rules.
func (c *Config) Validate() error {
	if c.Display.RefreshInterval < MinRefreshInterval {
		return fmt.Errorf("%w: display.refresh_interval %v is below %v", ErrInvalid, c.Display.RefreshInterval, MinRefreshInterval)
	}
	if c.Display.Margin < 0 || c.Display.EarlyFire < 0 {
		return fmt.Errorf("%w: display margins must not be negative", ErrInvalid)
	}
	if c.Audit.WindowSeconds < 0 || c.Audit.TolerancePct < 0 || c.Audit.MinTolerance < 0 {
		return fmt.Errorf("%w: audit settings must not be negative", ErrInvalid)
	}
	if c.Display.LineMarginPct < 0 {
		return fmt.Errorf("%w: display.line_margin_pct must not be negative", ErrInvalid)
	}
	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Display.RefreshInterval == 0 {
		c.Display.RefreshInterval = def.Display.RefreshInterval
	}
	if c.Display.Margin == 0 {
		c.Display.Margin = def.Display.Margin
	}
	if c.Display.LineMarginPct == 0 {
		c.Display.LineMarginPct = def.Display.LineMarginPct
	}

	if c.Storage.Root == "" {
		c.Storage.Root = def.Storage.Root
	}
	if c.Storage.Prefix == "" {
		c.Storage.Prefix = def.Storage.Prefix
	}
	if c.Storage.Extension == "" {
		c.Storage.Extension = def.Storage.Extension
	}

	if c.Input.PollInterval == 0 {
		c.Input.PollInterval = def.Input.PollInterval
	}
	if c.Input.MenuPollInterval == 0 {
		c.Input.MenuPollInterval = def.Input.MenuPollInterval
	}

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}

	if c.Audit.WindowSeconds == 0 {
		c.Audit.WindowSeconds = def.Audit.WindowSeconds
	}
	if c.Audit.TolerancePct == 0 {
		c.Audit.TolerancePct = def.Audit.TolerancePct
	}
	if c.Audit.MinTolerance == 0 {
		c.Audit.MinTolerance = def.Audit.MinTolerance
	}
}
