package am

import (
	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Paths
	v.SetDefault("paths.input", "data/input")
	v.SetDefault("paths.converted", "data/converted")
	v.SetDefault("paths.bit_mask", "data/bit_mask")
	v.SetDefault("paths.raw_data", "data/raw_data")

	// Decoder
	v.SetDefault("decoder.command", "")
	v.SetDefault("decoder.timeout_seconds", 0)
	v.SetDefault("decoder.max_launches_per_second", 0.0)
	v.SetDefault("decoder.header_lines", DefaultHeaderLines)

	// Batch
	v.SetDefault("batch.year", "")
	v.SetDefault("batch.month", "")
	v.SetDefault("batch.workers", 0)
	v.SetDefault("batch.skip_marker", DefaultSkipMarker)

	// Database
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.path", "qntx-signal.db")

	// Log
	v.SetDefault("log.json", false)
	v.SetDefault("log.theme", "everforest")
}

// BindEnvVars explicitly binds settings that deployments commonly inject
func BindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("decoder.command", "QNTX_SIGNAL_DECODER")
	_ = v.BindEnv("database.path", "QNTX_SIGNAL_DATABASE_PATH")
	_ = v.BindEnv("paths.input", "QNTX_SIGNAL_INPUT")
}

// GetDatabasePath returns the configured database path
func (c *Config) GetDatabasePath() string {
	if c.Database.Path == "" {
		return "qntx-signal.db"
	}
	return c.Database.Path
}

// GetHeaderLines returns the decoded table preamble length
func (c *Config) GetHeaderLines() int {
	if c.Decoder.HeaderLines <= 0 {
		return DefaultHeaderLines
	}
	return c.Decoder.HeaderLines
}

// GetSkipMarker returns the intersection skip marker
func (c *Config) GetSkipMarker() string {
	if c.Batch.SkipMarker == "" {
		return DefaultSkipMarker
	}
	return c.Batch.SkipMarker
}
