package am

import (
	"strconv"

	"github.com/teranos/qntx-signal/errors"
)

// Validate checks that the configuration is internally consistent.
// It does not require a run selection; see ValidateForRun.
func (c *Config) Validate() error {
	if c.Batch.Workers < 0 {
		return invalid("batch.workers must be >= 0, got %d", c.Batch.Workers)
	}
	if c.Decoder.TimeoutSeconds < 0 {
		return invalid("decoder.timeout_seconds must be >= 0, got %d", c.Decoder.TimeoutSeconds)
	}
	if c.Decoder.MaxLaunchesPerSecond < 0 {
		return invalid("decoder.max_launches_per_second must be >= 0, got %f", c.Decoder.MaxLaunchesPerSecond)
	}
	if c.Decoder.HeaderLines < 0 {
		return invalid("decoder.header_lines must be >= 0, got %d", c.Decoder.HeaderLines)
	}
	if c.Batch.Year != "" {
		if _, err := strconv.Atoi(c.Batch.Year); err != nil || len(c.Batch.Year) != 4 {
			return invalid("batch.year must be a four digit year, got %q", c.Batch.Year)
		}
	}
	if c.Batch.Month != "" {
		m, err := strconv.Atoi(c.Batch.Month)
		if err != nil || m < 1 || m > 12 {
			return invalid("batch.month must be 1-12, got %q", c.Batch.Month)
		}
	}
	if c.Database.Enabled && c.Database.Path == "" {
		return invalid("database.path cannot be empty when database.enabled is set")
	}
	switch c.Log.Theme {
	case "", "everforest", "gruvbox", "plain":
	default:
		return invalid("log.theme must be everforest, gruvbox or plain, got %q", c.Log.Theme)
	}
	return nil
}

// ValidateForRun additionally requires everything a batch run needs.
func (c *Config) ValidateForRun() error {
	if err := c.ValidateSelection(); err != nil {
		return err
	}
	if c.Decoder.Command == "" {
		return errors.WithHint(
			invalid("decoder.command is not set"),
			"set decoder.command in am.toml or QNTX_SIGNAL_DECODER")
	}
	return nil
}

// ValidateSelection requires a month and the four roots, but no decoder.
func (c *Config) ValidateSelection() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Batch.Year == "" || c.Batch.Month == "" {
		return errors.WithHint(
			invalid("batch.year and batch.month are required"),
			"pass --year and --month")
	}
	for key, path := range map[string]string{
		"paths.input":     c.Paths.Input,
		"paths.converted": c.Paths.Converted,
		"paths.bit_mask":  c.Paths.BitMask,
		"paths.raw_data":  c.Paths.RawData,
	} {
		if path == "" {
			return invalid("%s cannot be empty", key)
		}
	}
	return nil
}

func invalid(format string, args ...interface{}) error {
	return errors.Wrap(errors.ErrInvalidConfig, errors.Newf(format, args...).Error())
}
