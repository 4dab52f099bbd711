package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (PATCHVIEW_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("source", os.Getenv("PATCHVIEW_SOURCE"), &cfg.Source)
	s.setString("batch-dir", os.Getenv("PATCHVIEW_BATCH_DIR"), &cfg.BatchDir)
	s.setString("batch-pattern", os.Getenv("PATCHVIEW_BATCH_PATTERN"), &cfg.BatchPattern)
	s.setString("store", os.Getenv("PATCHVIEW_STORE_PATH"), &cfg.StorePath)
	s.setString("state-dir", os.Getenv("PATCHVIEW_STATE_DIR"), &cfg.StateDir)
	s.setString("device-id", os.Getenv("PATCHVIEW_DEVICE_ID"), &cfg.DeviceID)
	s.setString("timezone", os.Getenv("PATCHVIEW_TIMEZONE"), &cfg.Timezone)
	s.setString("log-level", os.Getenv("PATCHVIEW_LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setTime("start-time", os.Getenv("PATCHVIEW_START_TIME"), &cfg.StartTime); err != nil {
		return err
	}
	if err := s.setTime("end-time", os.Getenv("PATCHVIEW_END_TIME"), &cfg.EndTime); err != nil {
		return err
	}
	if err := s.setDuration("chunk-span", os.Getenv("PATCHVIEW_CHUNK_SPAN"), &cfg.ChunkSpan); err != nil {
		return err
	}
	if err := s.setDuration("debounce", os.Getenv("PATCHVIEW_DEBOUNCE"), &cfg.Debounce); err != nil {
		return err
	}

	if err := s.setOptionalIntFromString("window-start", os.Getenv("PATCHVIEW_WINDOW_START"), &cfg.WindowStart); err != nil {
		return err
	}
	if err := s.setOptionalIntFromString("window-end", os.Getenv("PATCHVIEW_WINDOW_END"), &cfg.WindowEnd); err != nil {
		return err
	}
	if err := s.setFloatFromString("width", os.Getenv("PATCHVIEW_WIDTH"), &cfg.Width); err != nil {
		return err
	}
	if err := s.setOptionalFloatFromString("cursor-px", os.Getenv("PATCHVIEW_CURSOR_PX"), &cfg.CursorPX); err != nil {
		return err
	}

	s.setBoolFromString("reconstruct", os.Getenv("PATCHVIEW_RECONSTRUCT"), &cfg.Reconstruct)
	s.setBoolFromString("watch", os.Getenv("PATCHVIEW_WATCH"), &cfg.Watch)
	s.setBoolFromString("log-json", os.Getenv("PATCHVIEW_LOG_JSON"), &cfg.LogJSON)

	return nil
}
