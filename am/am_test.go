package am

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/qntx-signal/errors"
)

func TestLoad_Defaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := LoadWithViper(v)
	require.NoError(t, err)

	assert.Equal(t, "data/input", cfg.Paths.Input)
	assert.Equal(t, "data/raw_data", cfg.Paths.RawData)
	assert.Equal(t, DefaultHeaderLines, cfg.Decoder.HeaderLines)
	assert.Equal(t, DefaultSkipMarker, cfg.Batch.SkipMarker)
	assert.Equal(t, 0, cfg.Batch.Workers)
	assert.False(t, cfg.Database.Enabled)
	assert.Equal(t, "qntx-signal.db", cfg.GetDatabasePath())
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "am.toml")
	content := `
[paths]
input = "/srv/city"

[decoder]
command = "wine /opt/decoder.exe"
timeout_seconds = 30

[batch]
year = "2022"
month = "11"
workers = 4
`
	require.NoError(t, os.WriteFile(path, []byte(content), DefaultFilePermissions))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/city", cfg.Paths.Input)
	assert.Equal(t, "data/converted", cfg.Paths.Converted, "unset keys keep defaults")
	assert.Equal(t, "wine /opt/decoder.exe", cfg.Decoder.Command)
	assert.Equal(t, 30, cfg.Decoder.TimeoutSeconds)
	assert.Equal(t, 4, cfg.Batch.Workers)
	assert.NoError(t, cfg.ValidateForRun())
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"zero workers means one per cpu", func(c *Config) { c.Batch.Workers = 0 }, false},
		{"negative workers", func(c *Config) { c.Batch.Workers = -1 }, true},
		{"zero timeout means none", func(c *Config) { c.Decoder.TimeoutSeconds = 0 }, false},
		{"negative timeout", func(c *Config) { c.Decoder.TimeoutSeconds = -5 }, true},
		{"negative launch rate", func(c *Config) { c.Decoder.MaxLaunchesPerSecond = -1 }, true},
		{"three digit year", func(c *Config) { c.Batch.Year = "202" }, true},
		{"month 13", func(c *Config) { c.Batch.Month = "13" }, true},
		{"zero padded month", func(c *Config) { c.Batch.Month = "09" }, false},
		{"database enabled without path", func(c *Config) { c.Database.Enabled = true; c.Database.Path = "" }, true},
		{"unknown theme", func(c *Config) { c.Log.Theme = "solarized" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			SetDefaults(v)
			cfg, err := LoadWithViper(v)
			require.NoError(t, err)

			tt.mutate(cfg)
			err = cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, errors.ErrInvalidConfig))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateForRun_RequiresMonthAndDecoder(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	cfg, err := LoadWithViper(v)
	require.NoError(t, err)

	err = cfg.ValidateForRun()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch.year")
	assert.True(t, errors.Is(err, errors.ErrInvalidConfig))

	cfg.Batch.Year, cfg.Batch.Month = "2022", "11"
	assert.NoError(t, cfg.ValidateSelection(), "a dry run needs no decoder")

	err = cfg.ValidateForRun()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoder.command")
	assert.NotEmpty(t, errors.GetAllHints(err))

	cfg.Decoder.Command = "/usr/local/bin/decode"
	assert.NoError(t, cfg.ValidateForRun())
}

func TestUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "am.toml")
	content := `
[decoder]
command = "decode"
timout_seconds = 30

[batch]
workers = 2
colour = "blue"
`
	require.NoError(t, os.WriteFile(path, []byte(content), DefaultFilePermissions))

	keys, err := UnknownKeys(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"batch.colour", "decoder.timout_seconds"}, keys)
}

func TestMergeConfigFiles_Precedence(t *testing.T) {
	dir := t.TempDir()
	system := filepath.Join(dir, "system.toml")
	project := filepath.Join(dir, "project.toml")
	require.NoError(t, os.WriteFile(system, []byte("[batch]\nworkers = 2\nskip_marker = \"skip\"\n"), DefaultFilePermissions))
	require.NoError(t, os.WriteFile(project, []byte("[batch]\nworkers = 8\n"), DefaultFilePermissions))

	v := viper.New()
	SetDefaults(v)
	merged := mergeConfigFiles(v, []string{system, filepath.Join(dir, "absent.toml"), project})

	assert.Equal(t, []string{system, project}, merged)
	cfg, err := LoadWithViper(v)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Batch.Workers)
	assert.Equal(t, "skip", cfg.Batch.SkipMarker)
}
