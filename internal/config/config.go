// Package config provides the process-wide configuration domain: where node
// and service registries live on disk. A Config is established once at node
// construction and treated as immutable afterwards; many nodes may share one
// Config without owning it.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/memlink-ipc/memlink/internal/names"
)

// Config identifies a configuration domain. Two processes using an
// identical Config discover each other's nodes and services.
type Config struct {
	Global GlobalConfig `mapstructure:"global" yaml:"global"`

	// Tracing is process-local: it shapes how this process reports what
	// it did to the domain, not what the domain looks like.
	Tracing TracingConfig `mapstructure:"tracing" yaml:"tracing"`
}

// GlobalConfig holds the settings shared by every participant of the domain.
type GlobalConfig struct {
	// RootPath is the directory all registry state lives under.
	RootPath string `mapstructure:"root_path" yaml:"root_path"`

	// Prefix namespaces every file the middleware creates, so unrelated
	// deployments can share a RootPath.
	Prefix string `mapstructure:"prefix" yaml:"prefix"`

	Node    NodeConfig    `mapstructure:"node" yaml:"node"`
	Service ServiceConfig `mapstructure:"service" yaml:"service"`
}

// NodeConfig holds node-registry settings.
type NodeConfig struct {
	// Directory, relative to the prefixed root, holding one entry per node.
	Directory string `mapstructure:"directory" yaml:"directory"`

	// CleanupDeadNodes removes registry residue of crashed nodes when a new
	// node is created in the domain.
	CleanupDeadNodes bool `mapstructure:"cleanup_dead_nodes" yaml:"cleanup_dead_nodes"`
}

// ServiceConfig holds service-registry settings.
type ServiceConfig struct {
	// Directory, relative to the prefixed root, holding one static config
	// document per service.
	Directory string `mapstructure:"directory" yaml:"directory"`
}

// TracingConfig holds distributed tracing settings for registry
// operations.
type TracingConfig struct {
	// Enabled controls whether spans are recorded at all.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Exporter selects the export backend: "none", "file", "stdout" or
	// "otlp".
	Exporter string `mapstructure:"exporter" yaml:"exporter"`

	// FilePath is where the "file" exporter writes its JSONL spans.
	FilePath string `mapstructure:"file_path" yaml:"file_path"`

	// OTLPEndpoint is the collector endpoint for the "otlp" exporter.
	OTLPEndpoint string `mapstructure:"otlp_endpoint" yaml:"otlp_endpoint"`

	// SampleRate is the fraction of traces to record, 0.0 to 1.0.
	SampleRate float64 `mapstructure:"sample_rate" yaml:"sample_rate"`
}

// DefaultTracesFilePath is where the "file" exporter writes when no path
// is configured.
func DefaultTracesFilePath() string {
	return "memlink-traces.jsonl"
}

// Default returns the domain every process joins when nothing else is
// configured.
func Default() Config {
	return Config{
		Global: GlobalConfig{
			RootPath: filepath.Join(os.TempDir(), "memlink"),
			Prefix:   "ml",
			Node: NodeConfig{
				Directory:        "nodes",
				CleanupDeadNodes: true,
			},
			Service: ServiceConfig{
				Directory: "services",
			},
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "file",
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
	}
}

// Validate checks that every path component is a valid identifier of its
// family. Invalid configurations must be rejected before any registry file
// is created from them.
func (c Config) Validate() error {
	if _, err := names.NewPathName([]byte(c.Global.RootPath)); err != nil {
		return fmt.Errorf("global.root_path: %w", err)
	}
	if _, err := names.NewFileName([]byte(c.Global.Prefix)); err != nil {
		return fmt.Errorf("global.prefix: %w", err)
	}
	if _, err := names.NewFileName([]byte(c.Global.Node.Directory)); err != nil {
		return fmt.Errorf("global.node.directory: %w", err)
	}
	if _, err := names.NewFileName([]byte(c.Global.Service.Directory)); err != nil {
		return fmt.Errorf("global.service.directory: %w", err)
	}
	return c.Tracing.validate()
}

func (t TracingConfig) validate() error {
	if t.SampleRate < 0.0 || t.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", t.SampleRate)
	}
	switch t.Exporter {
	case "", "none", "file", "stdout", "otlp":
	default:
		return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\" or \"otlp\", got %q", t.Exporter)
	}
	return nil
}

// Root returns the prefixed registry root directory.
func (c Config) Root() string {
	return filepath.Join(c.Global.RootPath, c.Global.Prefix)
}

// NodeDir returns the directory holding one entry per node.
func (c Config) NodeDir() string {
	return filepath.Join(c.Root(), c.Global.Node.Directory)
}

// ServiceDir returns the directory holding one static config per service.
func (c Config) ServiceDir() string {
	return filepath.Join(c.Root(), c.Global.Service.Directory)
}
