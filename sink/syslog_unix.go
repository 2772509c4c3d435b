//go:build !windows && !plan9

package sink

import (
	"fmt"
	"io"
	"log/syslog"
	"strings"
)

var facilities = map[string]syslog.Priority{
	"kern":     syslog.LOG_KERN,
	"user":     syslog.LOG_USER,
	"mail":     syslog.LOG_MAIL,
	"daemon":   syslog.LOG_DAEMON,
	"auth":     syslog.LOG_AUTH,
	"syslog":   syslog.LOG_SYSLOG,
	"lpr":      syslog.LOG_LPR,
	"news":     syslog.LOG_NEWS,
	"uucp":     syslog.LOG_UUCP,
	"cron":     syslog.LOG_CRON,
	"authpriv": syslog.LOG_AUTHPRIV,
	"ftp":      syslog.LOG_FTP,
	"local0":   syslog.LOG_LOCAL0,
	"local1":   syslog.LOG_LOCAL1,
	"local2":   syslog.LOG_LOCAL2,
	"local3":   syslog.LOG_LOCAL3,
	"local4":   syslog.LOG_LOCAL4,
	"local5":   syslog.LOG_LOCAL5,
	"local6":   syslog.LOG_LOCAL6,
	"local7":   syslog.LOG_LOCAL7,
}

var severities = map[string]syslog.Priority{
	"emerg":   syslog.LOG_EMERG,
	"alert":   syslog.LOG_ALERT,
	"crit":    syslog.LOG_CRIT,
	"err":     syslog.LOG_ERR,
	"warning": syslog.LOG_WARNING,
	"notice":  syslog.LOG_NOTICE,
	"info":    syslog.LOG_INFO,
	"debug":   syslog.LOG_DEBUG,
}

// Priority combines a facility and a severity name. Empty names default to
// local0 and info.
func Priority(facility, severity string) (syslog.Priority, error) {
	if facility == "" {
		facility = "local0"
	}
	if severity == "" {
		severity = "info"
	}
	f, ok := facilities[strings.ToLower(facility)]
	if !ok {
		return 0, fmt.Errorf("unknown syslog facility %q", facility)
	}
	s, ok := severities[strings.ToLower(severity)]
	if !ok {
		return 0, fmt.Errorf("unknown syslog severity %q", severity)
	}
	return f | s, nil
}

// Syslog sends records to a syslog daemon.
type Syslog struct {
	w       *syslog.Writer
	ident   string
	console io.Writer
}

// NewSyslog connects to the daemon described by cfg. When cfg.Console is set,
// records that cannot be delivered are also written to console.
func NewSyslog(cfg Config, console io.Writer) (*Syslog, error) {
	prio, err := Priority(cfg.Facility, cfg.Severity)
	if err != nil {
		return nil, err
	}
	w, err := syslog.Dial(cfg.Network, cfg.Address, prio, cfg.Ident)
	if err != nil {
		return nil, fmt.Errorf("could not connect to syslog: %w", err)
	}
	s := &Syslog{w: w, ident: cfg.Ident}
	if cfg.Console {
		s.console = console
	}
	return s, nil
}

func (s *Syslog) Emit(text string) error {
	_, err := s.w.Write([]byte(text))
	if err != nil && s.console != nil {
		fmt.Fprintf(s.console, "%s: %s\n", s.ident, text)
	}
	return err
}

func (s *Syslog) Close() error {
	return s.w.Close()
}

func newSyslog(cfg Config, console io.Writer) (Sink, error) {
	return NewSyslog(cfg, console)
}
