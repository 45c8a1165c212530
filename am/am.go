package am

// Config represents the qntx-signal configuration
type Config struct {
	Paths    PathsConfig    `mapstructure:"paths" toml:"paths" json:"paths" yaml:"paths"`
	Decoder  DecoderConfig  `mapstructure:"decoder" toml:"decoder" json:"decoder" yaml:"decoder"`
	Batch    BatchConfig    `mapstructure:"batch" toml:"batch" json:"batch" yaml:"batch"`
	Database DatabaseConfig `mapstructure:"database" toml:"database" json:"database" yaml:"database"`
	Log      LogConfig      `mapstructure:"log" toml:"log" json:"log" yaml:"log"`
}

// PathsConfig holds the four roots of the pipeline. Each output root mirrors
// the input hierarchy year/month/day/intersection.
type PathsConfig struct {
	Input     string `mapstructure:"input" toml:"input" json:"input" yaml:"input"`                 // city root: {input}/{year}/{month}/{day}/{intersection}/{file}
	Converted string `mapstructure:"converted" toml:"converted" json:"converted" yaml:"converted"` // decoded per-file tables
	BitMask   string `mapstructure:"bit_mask" toml:"bit_mask" json:"bit_mask" yaml:"bit_mask"`     // bit_mask.csv per intersection-day
	RawData   string `mapstructure:"raw_data" toml:"raw_data" json:"raw_data" yaml:"raw_data"`     // raw_data.csv per intersection-day
}

// DecoderConfig configures the external decoder executable
type DecoderConfig struct {
	Command              string  `mapstructure:"command" toml:"command" json:"command" yaml:"command"`                                                             // shell-quoted; input and output paths are appended
	TimeoutSeconds       int     `mapstructure:"timeout_seconds" toml:"timeout_seconds" json:"timeout_seconds" yaml:"timeout_seconds"`                             // 0 = no timeout
	MaxLaunchesPerSecond float64 `mapstructure:"max_launches_per_second" toml:"max_launches_per_second" json:"max_launches_per_second" yaml:"max_launches_per_second"` // 0 = unlimited
	HeaderLines          int     `mapstructure:"header_lines" toml:"header_lines" json:"header_lines" yaml:"header_lines"`                                         // preamble lines skipped in decoded tables
}

// BatchConfig selects the month to process and the pool size
type BatchConfig struct {
	Year       string `mapstructure:"year" toml:"year" json:"year" yaml:"year"`
	Month      string `mapstructure:"month" toml:"month" json:"month" yaml:"month"`
	Workers    int    `mapstructure:"workers" toml:"workers" json:"workers" yaml:"workers"`                 // 0 = one per logical CPU
	SkipMarker string `mapstructure:"skip_marker" toml:"skip_marker" json:"skip_marker" yaml:"skip_marker"` // intersection directory names containing this are skipped
}

// DatabaseConfig configures the optional SQLite persistence collaborator
type DatabaseConfig struct {
	Enabled bool   `mapstructure:"enabled" toml:"enabled" json:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" toml:"path" json:"path" yaml:"path"`
}

// LogConfig configures log output
type LogConfig struct {
	JSON  bool   `mapstructure:"json" toml:"json" json:"json" yaml:"json"`
	Theme string `mapstructure:"theme" toml:"theme" json:"theme" yaml:"theme"` // everforest, gruvbox, plain
}

// File system constants
const (
	DefaultDirPermissions  = 0755 // Standard directory permissions (rwxr-xr-x)
	DefaultFilePermissions = 0644 // Standard file permissions (rw-r--r--)
)

// DefaultHeaderLines is the fixed preamble length of decoder output
const DefaultHeaderLines = 6

// DefaultSkipMarker excludes the raw-data output tree when it lives inside
// the input root.
const DefaultSkipMarker = "raw_data"
