// Package config carries procscope's runtime options. Sampling knobs
// deliberately stop at the interval; catalog caps and the top-N size
// are code-level defaults, not user surface.
package config

import (
	"flag"
	"io"
	"os"
	"time"
)

// Config carries runtime options for procscope.
type Config struct {
	Interval   time.Duration
	TopN       int
	ProcRoot   string
	JSON       bool
	JSONStream bool
	Debug      bool
	LogFile    string
	StartDir   string
}

func Default() Config {
	return Config{
		Interval: time.Second,
		TopN:     50,
		ProcRoot: "/proc",
		StartDir: "/",
	}
}

// FromFlags parses command line flags and environment overrides.
// PROCSCOPE_INTERVAL accepts a duration or a bare number of seconds;
// PROCSCOPE_DEBUG=1 and PROCSCOPE_LOG mirror their flags.
func FromFlags(name string, args []string, errW io.Writer) (Config, error) {
	cfg := Default()

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(errW)
	fs.DurationVar(&cfg.Interval, "interval", cfg.Interval, "sampling interval")
	fs.BoolVar(&cfg.JSON, "json", cfg.JSON, "print one snapshot as JSON and exit")
	fs.BoolVar(&cfg.JSONStream, "json-stream", cfg.JSONStream, "stream one JSON snapshot per cycle until interrupted")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "enable debug logging")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "append logs to this file (required for logs in TUI mode)")
	fs.StringVar(&cfg.StartDir, "dir", cfg.StartDir, "directory the files view opens on")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	if v := os.Getenv("PROCSCOPE_INTERVAL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Interval = parsed
		} else if parsed, err2 := time.ParseDuration(v + "s"); err2 == nil {
			cfg.Interval = parsed
		}
	}
	if os.Getenv("PROCSCOPE_DEBUG") == "1" {
		cfg.Debug = true
	}
	if v := os.Getenv("PROCSCOPE_LOG"); v != "" {
		cfg.LogFile = v
	}

	// A non-positive interval would wedge the ticker.
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	return cfg, nil
}
