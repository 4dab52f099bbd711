package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations and times to make
// TOML friendly. Pointer fields distinguish "absent" from a zero value.
type FileConfig struct {
	Source       string   `toml:"source"`
	BatchDir     string   `toml:"batch_dir"`
	BatchPattern string   `toml:"batch_pattern"`
	StorePath    string   `toml:"store_path"`
	StateDir     string   `toml:"state_dir"`
	DeviceID     string   `toml:"device_id"`
	StartTime    string   `toml:"start_time"`
	EndTime      string   `toml:"end_time"`
	ChunkSpan    string   `toml:"chunk_span"`
	Reconstruct  *bool    `toml:"reconstruct"`
	WindowStart  *int     `toml:"window_start"`
	WindowEnd    *int     `toml:"window_end"`
	Width        float64  `toml:"width"`
	CursorPX     *float64 `toml:"cursor_px"`
	Timezone     string   `toml:"timezone"`
	Watch        *bool    `toml:"watch"`
	Debounce     string   `toml:"debounce"`
	LogLevel     string   `toml:"log_level"`
	LogJSON      *bool    `toml:"log_json"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns ~/.patchview/config.toml, or "" when the user
// home directory is unknown.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".patchview", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("source", fc.Source, &cfg.Source)
	s.setString("batch-dir", fc.BatchDir, &cfg.BatchDir)
	s.setString("batch-pattern", fc.BatchPattern, &cfg.BatchPattern)
	s.setString("store", fc.StorePath, &cfg.StorePath)
	s.setString("state-dir", fc.StateDir, &cfg.StateDir)
	s.setString("device-id", fc.DeviceID, &cfg.DeviceID)
	s.setString("timezone", fc.Timezone, &cfg.Timezone)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	if err := s.setTime("start-time", fc.StartTime, &cfg.StartTime); err != nil {
		return err
	}
	if err := s.setTime("end-time", fc.EndTime, &cfg.EndTime); err != nil {
		return err
	}
	if err := s.setDuration("chunk-span", fc.ChunkSpan, &cfg.ChunkSpan); err != nil {
		return err
	}
	if err := s.setDuration("debounce", fc.Debounce, &cfg.Debounce); err != nil {
		return err
	}

	s.setOptionalInt("window-start", fc.WindowStart, &cfg.WindowStart)
	s.setOptionalInt("window-end", fc.WindowEnd, &cfg.WindowEnd)
	s.setFloat("width", fc.Width, &cfg.Width)
	s.setOptionalFloat("cursor-px", fc.CursorPX, &cfg.CursorPX)

	s.setBool("reconstruct", fc.Reconstruct, &cfg.Reconstruct)
	s.setBool("watch", fc.Watch, &cfg.Watch)
	s.setBool("log-json", fc.LogJSON, &cfg.LogJSON)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
