// Package diag builds the diagnostic logger, which is kept apart from the
// record sink.
package diag

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config describes where diagnostics go.
type Config struct {
	// File is a log file path; empty means stderr.
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Quiet      bool   `mapstructure:"quiet"`
}

// New returns a logger prefixed with "[component] " and a closer for its
// output.
func New(cfg Config, component string) (*log.Logger, io.Closer) {
	var w io.WriteCloser = nopCloser{os.Stderr}
	switch {
	case cfg.Quiet:
		w = nopCloser{io.Discard}
	case cfg.File != "":
		w = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		}
	}
	return log.New(w, "["+component+"] ", log.LstdFlags), w
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
