package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/matsuuchi-sam/SAMDEMO/internal/adapters/demosrc"
	"github.com/matsuuchi-sam/SAMDEMO/internal/adapters/opcuasrc"
	"github.com/matsuuchi-sam/SAMDEMO/internal/adapters/serialsrc"
)

// Run modes select where frames come from. Viewers connect over websocket in
// every mode.
const (
	ModeSerial = "serial"
	ModePush   = "push"
	ModeDemo   = "demo"
	ModeOPCUA  = "opcua"
)

type Config struct {
	Mode    string           `yaml:"mode"`
	Listen  ListenConfig     `yaml:"listen"`
	Static  StaticConfig     `yaml:"static"`
	Hub     HubConfig        `yaml:"hub"`
	Serial  serialsrc.Config `yaml:"serial"`
	Demo    demosrc.Config   `yaml:"demo"`
	OPCUA   opcuasrc.Config  `yaml:"opcua"`
	Metrics MetricsConfig    `yaml:"metrics"`
}

type ListenConfig struct {
	Addr string `yaml:"addr"`
}

type StaticConfig struct {
	Dir string `yaml:"dir"`
}

type HubConfig struct {
	ClassifyTimeout time.Duration `yaml:"classify_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) ApplyDefaults() {
	if c.Mode == "" {
		c.Mode = ModeDemo
	}
	if c.Listen.Addr == "" {
		c.Listen.Addr = ":8765"
	}
	if c.Hub.ClassifyTimeout == 0 {
		c.Hub.ClassifyTimeout = 2 * time.Second
	}
	if c.Hub.WriteTimeout == 0 {
		c.Hub.WriteTimeout = 10 * time.Second
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}

	c.Serial.ApplyDefaults()
	c.Demo.ApplyDefaults()
	if c.Mode == ModeOPCUA {
		c.OPCUA.ApplyDefaults()
	}
}

func (c *Config) Validate() error {
	switch c.Mode {
	case ModeSerial:
		if err := c.Serial.Validate(); err != nil {
			return fmt.Errorf("serial config: %w", err)
		}
	case ModeOPCUA:
		if err := c.OPCUA.Validate(); err != nil {
			return fmt.Errorf("opcua config: %w", err)
		}
	case ModePush, ModeDemo:
	default:
		return fmt.Errorf("unknown mode %q (want serial, push, demo or opcua)", c.Mode)
	}
	if c.Listen.Addr == "" {
		return fmt.Errorf("listen.addr is required")
	}
	if c.Hub.ClassifyTimeout <= 0 {
		return fmt.Errorf("hub.classify_timeout must be positive")
	}
	return nil
}
