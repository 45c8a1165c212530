package commands

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/teranos/qntx-signal/am"
	"github.com/teranos/qntx-signal/errors"
	"github.com/teranos/qntx-signal/sym"
)

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, ExitConfig, ExitCode(errors.Wrap(errors.ErrInvalidConfig, "batch.month")))
	assert.Equal(t, ExitCancelled, ExitCode(errors.WithHint(ErrRunCancelled, "re-run")))
	assert.Equal(t, ExitCancelled, ExitCode(context.Canceled))
	assert.Equal(t, ExitFailure, ExitCode(errors.New("disk full")))
}

func TestFormatError_IncludesHints(t *testing.T) {
	err := errors.WithHint(errors.New("decoder.command is not set"), "set QNTX_SIGNAL_DECODER")
	out := FormatError(err)
	assert.Contains(t, out, "decoder.command is not set")
	assert.Contains(t, out, "set QNTX_SIGNAL_DECODER")
}

func sampleConfig() *am.Config {
	return &am.Config{
		Paths:   am.PathsConfig{Input: "/srv/city", Converted: "c", BitMask: "b", RawData: "r"},
		Decoder: am.DecoderConfig{Command: "wine decode.exe", HeaderLines: 6},
		Batch:   am.BatchConfig{Year: "2022", Month: "11", Workers: 4},
	}
}

func TestMarshalConfig_Formats(t *testing.T) {
	cfg := sampleConfig()

	data, err := marshalConfig(cfg, "toml")
	require.NoError(t, err)
	var fromTOML am.Config
	require.NoError(t, toml.Unmarshal(data, &fromTOML))
	assert.Equal(t, "wine decode.exe", fromTOML.Decoder.Command)

	data, err = marshalConfig(cfg, "yaml")
	require.NoError(t, err)
	var fromYAML am.Config
	require.NoError(t, yaml.Unmarshal(data, &fromYAML))
	assert.Equal(t, 4, fromYAML.Batch.Workers)

	data, err = marshalConfig(cfg, "json")
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"bit_mask": "b"`))

	_, err = marshalConfig(cfg, "ini")
	assert.Error(t, err)
}

func TestApplyRunFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "run"}
	cmd.Flags().AddFlagSet(RunCmd.Flags())
	require.NoError(t, cmd.Flags().Set("month", "12"))
	require.NoError(t, cmd.Flags().Set("workers", "2"))
	t.Cleanup(func() {
		runMonth, runWorkers = "", 0
		cmd.Flags().Lookup("month").Changed = false
		cmd.Flags().Lookup("workers").Changed = false
	})

	cfg := sampleConfig()
	applyRunFlags(cmd, cfg)

	assert.Equal(t, "2022", cfg.Batch.Year, "unset flags leave config alone")
	assert.Equal(t, "12", cfg.Batch.Month)
	assert.Equal(t, 2, cfg.Batch.Workers)
	assert.Equal(t, "wine decode.exe", cfg.Decoder.Command)
}

func TestAbsRoots(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg := sampleConfig()
	input, roots, err := absRoots(cfg)
	require.NoError(t, err)

	assert.Equal(t, "/srv/city", input)
	resolved, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	for _, p := range []string{roots.Converted, roots.BitMask, roots.RawData} {
		assert.True(t, filepath.IsAbs(p))
		got, err := filepath.EvalSymlinks(filepath.Dir(p))
		require.NoError(t, err)
		assert.Equal(t, resolved, got)
	}
}

func TestAddGlyphAliases(t *testing.T) {
	root := &cobra.Command{Use: "qntx-signal"}
	dbCmd := &cobra.Command{Use: "db"}
	versionCmd := &cobra.Command{Use: "version", Run: func(*cobra.Command, []string) {}}
	var ran bool
	dbCmd.AddCommand(&cobra.Command{Use: "stats", Run: func(*cobra.Command, []string) { ran = true }})
	root.AddCommand(dbCmd, versionCmd)

	AddGlyphAliases(root)

	assert.Equal(t, []string{sym.DB}, dbCmd.Aliases)
	assert.Empty(t, versionCmd.Aliases)

	root.SetArgs([]string{sym.DB, "stats"})
	require.NoError(t, root.Execute())
	assert.True(t, ran)
}

func TestAmValidate_File(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.toml")
	require.NoError(t, os.WriteFile(good, []byte("[batch]\nworkers = 3\n"), 0o644))
	assert.NoError(t, runAmValidate(amValidateCmd, []string{good}))

	typo := filepath.Join(dir, "typo.toml")
	require.NoError(t, os.WriteFile(typo, []byte("[batch]\nwokers = 3\n"), 0o644))
	err := runAmValidate(amValidateCmd, []string{typo})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidConfig))
}
