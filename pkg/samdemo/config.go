package samdemo

import (
	"github.com/matsuuchi-sam/SAMDEMO/internal/adapters/demosrc"
	"github.com/matsuuchi-sam/SAMDEMO/internal/adapters/opcuasrc"
	"github.com/matsuuchi-sam/SAMDEMO/internal/adapters/serialsrc"
	"github.com/matsuuchi-sam/SAMDEMO/internal/app/config"
)

// Config re-exports the root configuration struct so downstream projects can
// construct or modify it programmatically.
type Config = config.Config

type (
	// ListenConfig sets the websocket listen address.
	ListenConfig = config.ListenConfig
	// StaticConfig points the relay at a dashboard directory to serve.
	StaticConfig = config.StaticConfig
	// HubConfig tunes connection classification and write deadlines.
	HubConfig = config.HubConfig
	// MetricsConfig configures the metrics HTTP server.
	MetricsConfig = config.MetricsConfig
	// SerialConfig configures the serial-port source.
	SerialConfig = serialsrc.Config
	// DemoConfig configures the synthetic data source.
	DemoConfig = demosrc.Config
	// OPCUAConfig holds connection + node details for the OPC UA source.
	OPCUAConfig = opcuasrc.Config
	// OPCUANodeConfig describes a monitored tag.
	OPCUANodeConfig = opcuasrc.NodeConfig
)

// Run modes, re-exported for programmatic configuration.
const (
	ModeSerial = config.ModeSerial
	ModePush   = config.ModePush
	ModeDemo   = config.ModeDemo
	ModeOPCUA  = config.ModeOPCUA
)

// LoadConfig loads YAML from disk using the internal config reader.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}
