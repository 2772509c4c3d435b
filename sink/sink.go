// Package sink delivers reformatted records.
package sink

import (
	"fmt"
	"io"
	"sync"
)

// Kinds accepted by New.
const (
	KindSyslog = "syslog"
	KindStdout = "stdout"
)

// Config selects a sink.
type Config struct {
	Kind     string `mapstructure:"kind"`
	Ident    string `mapstructure:"ident"`
	Facility string `mapstructure:"facility"`
	Severity string `mapstructure:"severity"`
	// Console writes to stderr whenever syslog delivery fails.
	Console bool `mapstructure:"console"`
	// Network and Address reach a remote syslog daemon; empty means the
	// local one.
	Network string `mapstructure:"network"`
	Address string `mapstructure:"address"`
}

// Sink is an emitter that holds resources.
type Sink interface {
	Emit(text string) error
	Close() error
}

// Writer prints each record on its own line.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (s *Writer) Emit(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintln(s.w, text)
	return err
}

func (s *Writer) Close() error { return nil }

// New builds the sink described by cfg. stdout receives records for the
// stdout kind; console receives syslog fallbacks.
func New(cfg Config, stdout, console io.Writer) (Sink, error) {
	switch cfg.Kind {
	case "", KindSyslog:
		return newSyslog(cfg, console)
	case KindStdout:
		return NewWriter(stdout), nil
	default:
		return nil, fmt.Errorf("unknown sink %q", cfg.Kind)
	}
}
