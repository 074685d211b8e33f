// Package logging configures the process-wide structured logger. Nothing
// here is global state beyond the explicit Setup call: the configured
// logger is returned and handed down through constructors.
package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/gogpu/gg"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects log destinations and verbosity.
type Options struct {
	// File enables an additional rotating log file when non-empty.
	File  string
	Debug bool
	Quiet bool
}

// Setup builds the logger, optionally teeing into a rotating file, and
// propagates it into the raster library.
func Setup(opts Options) *slog.Logger {
	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}
	if opts.Quiet {
		level = slog.LevelWarn
	}

	var w io.Writer = os.Stderr
	if opts.File != "" {
		rotated := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    20, // MB
			MaxBackups: 3,
			MaxAge:     14, // days
		}
		w = io.MultiWriter(os.Stderr, rotated)
	}

	log := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)
	gg.SetLogger(log)
	return log
}
