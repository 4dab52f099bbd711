package cliconfig

import (
	"strconv"
	"time"

	pflag "github.com/spf13/pflag"
)

// BindFlags registers the command-line flags for cfg on fs. Flag names match
// the keys of the changed map used by ApplyFileConfig and ApplyEnvConfig.
func BindFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.Source, "source", cfg.Source, "batch source: dir (chunk files) or sqlite (imported store)")
	fs.StringVar(&cfg.BatchDir, "batch-dir", cfg.BatchDir, "directory holding chunk files")
	fs.StringVar(&cfg.BatchPattern, "batch-pattern", cfg.BatchPattern, "chunk file name pattern with one %d")
	fs.StringVar(&cfg.StorePath, "store", cfg.StorePath, "sqlite store path")
	fs.StringVar(&cfg.StateDir, "state-dir", cfg.StateDir, "directory for carry.json (defaults to batch-dir)")
	fs.StringVar(&cfg.DeviceID, "device-id", cfg.DeviceID, "device id the records belong to")

	fs.Var(newTimeValue(&cfg.StartTime), "start-time", "start of the requested range (RFC 3339 or Unix ms)")
	fs.Var(newTimeValue(&cfg.EndTime), "end-time", "end of the requested range (RFC 3339 or Unix ms)")
	fs.DurationVar(&cfg.ChunkSpan, "chunk-span", cfg.ChunkSpan, "time covered by one chunk file")

	fs.BoolVar(&cfg.Reconstruct, "reconstruct", cfg.Reconstruct, "reconstruct the logical index across counter resets")
	fs.Var(&optionalInt{dst: &cfg.WindowStart}, "window-start", "first record position of the window (inclusive)")
	fs.Var(&optionalInt{dst: &cfg.WindowEnd}, "window-end", "last record position of the window (inclusive)")

	fs.Float64Var(&cfg.Width, "width", cfg.Width, "plot width in pixels")
	fs.Var(&optionalFloat{dst: &cfg.CursorPX}, "cursor-px", "resolve the sample under this pixel offset")
	fs.StringVar(&cfg.Timezone, "timezone", cfg.Timezone, "time zone for timestamps (IANA name or Local)")

	fs.BoolVar(&cfg.Watch, "watch", cfg.Watch, "keep running and refresh when chunk files change")
	fs.DurationVar(&cfg.Debounce, "debounce", cfg.Debounce, "quiet period before a watch refresh")

	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	fs.BoolVar(&cfg.LogJSON, "log-json", cfg.LogJSON, "write logs as JSON lines")
}

// ChangedFlags returns the names of the flags set on the command line.
func ChangedFlags(fs *pflag.FlagSet) map[string]bool {
	changed := map[string]bool{}
	fs.Visit(func(f *pflag.Flag) { changed[f.Name] = true })
	return changed
}

type optionalInt struct {
	dst **int
}

func (o *optionalInt) Set(s string) error {
	i, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*o.dst = &i
	return nil
}

func (o *optionalInt) String() string {
	if o.dst == nil || *o.dst == nil {
		return ""
	}
	return strconv.Itoa(**o.dst)
}

func (o *optionalInt) Type() string { return "int" }

type optionalFloat struct {
	dst **float64
}

func (o *optionalFloat) Set(s string) error {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*o.dst = &f
	return nil
}

func (o *optionalFloat) String() string {
	if o.dst == nil || *o.dst == nil {
		return ""
	}
	return strconv.FormatFloat(**o.dst, 'g', -1, 64)
}

func (o *optionalFloat) Type() string { return "float" }

type timeValue struct {
	dst *time.Time
}

func newTimeValue(dst *time.Time) *timeValue {
	return &timeValue{dst: dst}
}

func (t *timeValue) Set(s string) error {
	v, err := parseTime(s)
	if err != nil {
		return err
	}
	*t.dst = v
	return nil
}

func (t *timeValue) String() string {
	if t.dst == nil || t.dst.IsZero() {
		return ""
	}
	return t.dst.Format(time.RFC3339)
}

func (t *timeValue) Type() string { return "time" }
