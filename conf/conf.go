// Package conf loads the clinpipe configuration from TOML files and
// environment variables, with hot reload support for long-running services.
package conf

import (
	"fmt"
	"time"

	"github.com/clinpipe/clinpipe/pipeline"
)

// Config represents the core clinpipe configuration.
type Config struct {
	Pipeline   PipelineConfig   `mapstructure:"pipeline"`
	Provenance ProvenanceConfig `mapstructure:"provenance"`
	Log        LogConfig        `mapstructure:"log"`
}

// PipelineConfig tunes the execution engine.
type PipelineConfig struct {
	Workers           int     `mapstructure:"workers"`             // concurrent steps per document (default: 4)
	DocWorkers        int     `mapstructure:"doc_workers"`         // concurrent documents (default: 2)
	OpTimeoutSeconds  int     `mapstructure:"op_timeout_seconds"`  // per operation invocation (default: 60)
	RunTimeoutSeconds int     `mapstructure:"run_timeout_seconds"` // whole run (default: 1800)
	RatePerSecond     float64 `mapstructure:"rate_per_second"`     // invocation rate limit, 0 = unlimited
	RateBurst         int     `mapstructure:"rate_burst"`
	DeterministicIDs  bool    `mapstructure:"deterministic_ids"`
	IDNamespace       string  `mapstructure:"id_namespace"`
}

// ProvenanceConfig configures the SQLite provenance store.
type ProvenanceConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig configures logging output.
type LogConfig struct {
	JSON  bool   `mapstructure:"json"`  // structured JSON instead of console output
	Theme string `mapstructure:"theme"` // color theme: gruvbox, everforest
}

// RunConfig converts the file representation to the engine's run settings.
func (c *Config) RunConfig() pipeline.RunConfig {
	return pipeline.RunConfig{
		Workers:          c.Pipeline.Workers,
		DocWorkers:       c.Pipeline.DocWorkers,
		OpTimeout:        time.Duration(c.Pipeline.OpTimeoutSeconds) * time.Second,
		RunTimeout:       time.Duration(c.Pipeline.RunTimeoutSeconds) * time.Second,
		RateLimit:        c.Pipeline.RatePerSecond,
		RateBurst:        c.Pipeline.RateBurst,
		DeterministicIDs: c.Pipeline.DeterministicIDs,
		IDNamespace:      c.Pipeline.IDNamespace,
	}
}

// ProvenancePath returns the configured provenance database path.
func (c *Config) ProvenancePath() string {
	if c.Provenance.Path == "" {
		return "clinpipe-prov.db"
	}
	return c.Provenance.Path
}

// LogTheme returns the log color theme (default: everforest).
func (c *Config) LogTheme() string {
	if c.Log.Theme == "" {
		return "everforest"
	}
	return c.Log.Theme
}

// String returns a short summary of the config.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Pipeline: {Workers: %d, DocWorkers: %d}, Provenance: %s}",
		c.Pipeline.Workers, c.Pipeline.DocWorkers, c.ProvenancePath())
}

// File system constants
const (
	DefaultDirPermissions  = 0755
	DefaultFilePermissions = 0644
)
