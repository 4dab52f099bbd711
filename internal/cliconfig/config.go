package cliconfig

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/bft-labs/patchview/internal/domain"
	"github.com/bft-labs/patchview/pkg/series"
)

// Batch sources.
const (
	SourceDir    = "dir"
	SourceSQLite = "sqlite"
)

// DefaultBatchPattern names chunk files by their 1-based sequence.
const DefaultBatchPattern = "rawData-%d.json"

// Config holds CLI configuration for patchview.
type Config struct {
	Source       string
	BatchDir     string
	BatchPattern string
	StorePath    string
	StateDir     string
	DeviceID     string

	StartTime time.Time
	EndTime   time.Time
	ChunkSpan time.Duration

	Reconstruct bool
	WindowStart *int
	WindowEnd   *int

	Width    float64
	CursorPX *float64
	Timezone string

	Watch    bool
	Debounce time.Duration

	LogLevel string
	LogJSON  bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Source:       SourceDir,
		BatchPattern: DefaultBatchPattern,
		ChunkSpan:    time.Hour,
		Reconstruct:  true,
		Width:        800,
		Timezone:     "Local",
		Debounce:     250 * time.Millisecond,
		LogLevel:     "info",
	}
}

// Validate checks the configuration for errors and sets derived defaults.
// Every returned error wraps domain.ErrInvalidConfig.
func (c *Config) Validate() error {
	switch c.Source {
	case "":
		c.Source = SourceDir
		fallthrough
	case SourceDir:
		if c.BatchDir == "" {
			return invalid("batch-dir is required for source %q", SourceDir)
		}
	case SourceSQLite:
		if c.StorePath == "" {
			return invalid("store is required for source %q", SourceSQLite)
		}
	default:
		return invalid("unknown source %q (want %s or %s)", c.Source, SourceDir, SourceSQLite)
	}

	if c.BatchPattern == "" {
		c.BatchPattern = DefaultBatchPattern
	}

	if c.StateDir == "" {
		if c.BatchDir != "" {
			c.StateDir = c.BatchDir
		} else {
			c.StateDir = filepath.Dir(c.StorePath)
		}
	}

	if c.StartTime.IsZero() != c.EndTime.IsZero() {
		return invalid("start-time and end-time must be set together")
	}
	if c.EndTime.Before(c.StartTime) {
		return invalid("end-time %s is before start-time %s", c.EndTime.Format(time.RFC3339), c.StartTime.Format(time.RFC3339))
	}
	if c.ChunkSpan <= 0 {
		return invalid("chunk-span must be positive")
	}

	if c.WindowStart != nil && *c.WindowStart < 0 {
		return invalid("window-start must not be negative")
	}
	if c.WindowEnd != nil && *c.WindowEnd < 0 {
		return invalid("window-end must not be negative")
	}
	if c.WindowStart != nil && c.WindowEnd != nil && *c.WindowStart > *c.WindowEnd {
		return invalid("window-start %d is after window-end %d", *c.WindowStart, *c.WindowEnd)
	}

	if c.Width <= 0 {
		return invalid("width must be positive")
	}
	if c.Timezone == "" {
		c.Timezone = "Local"
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return invalid("timezone: %v", err)
	}

	if c.Debounce <= 0 {
		return invalid("debounce must be positive")
	}
	return nil
}

// ValidateImport validates the configuration for copying chunk files into
// the sqlite store. Both batch-dir and store are required.
func (c *Config) ValidateImport() error {
	if c.StorePath == "" {
		return invalid("store is required for import")
	}
	c.Source = SourceDir
	return c.Validate()
}

// Window returns the configured window.
func (c Config) Window() series.Window {
	var w series.Window
	if c.WindowStart != nil {
		w.Start = series.At(*c.WindowStart)
	}
	if c.WindowEnd != nil {
		w.End = series.At(*c.WindowEnd)
	}
	return w
}

// Span returns the requested time range split into chunks.
func (c Config) Span() domain.ChunkSpan {
	if c.StartTime.IsZero() {
		return domain.ChunkSpan{Span: c.ChunkSpan}
	}
	return domain.ChunkSpan{
		StartMs: c.StartTime.UnixMilli(),
		EndMs:   c.EndTime.UnixMilli(),
		Span:    c.ChunkSpan,
	}
}

// Location returns the time zone used to format timestamps.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// parseTime accepts RFC 3339 timestamps and Unix milliseconds.
func parseTime(value string) (time.Time, error) {
	if ms, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.UnixMilli(ms), nil
	}
	return time.Parse(time.RFC3339, value)
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setFloat sets a float64 value if positive and flag not changed.
func (s *configSetter) setFloat(flag string, value float64, dst *float64) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setTime parses and sets a timestamp if valid and flag not changed.
func (s *configSetter) setTime(flag, value string, dst *time.Time) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	t, err := parseTime(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = t
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setOptionalInt sets an optional int. Zero is a valid value.
func (s *configSetter) setOptionalInt(flag string, value *int, dst **int) {
	if value == nil || s.changed[flag] {
		return
	}
	v := *value
	*dst = &v
}

// setOptionalFloat sets an optional float64. Zero is a valid value.
func (s *configSetter) setOptionalFloat(flag string, value *float64, dst **float64) {
	if value == nil || s.changed[flag] {
		return
	}
	v := *value
	*dst = &v
}

// setOptionalIntFromString parses a string to int and sets the destination.
// Used for environment variables that come as strings.
func (s *configSetter) setOptionalIntFromString(flag, value string, dst **int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = &i
	return nil
}

// setFloatFromString parses a string to float64 and sets the destination if positive.
// Used for environment variables that come as strings.
func (s *configSetter) setFloatFromString(flag, value string, dst *float64) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if f <= 0 {
		return nil
	}
	*dst = f
	return nil
}

// setOptionalFloatFromString parses a string to float64 and sets the destination.
func (s *configSetter) setOptionalFloatFromString(flag, value string, dst **float64) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = &f
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
