//go:build windows || plan9

package sink

import (
	"errors"
	"io"
)

func newSyslog(cfg Config, console io.Writer) (Sink, error) {
	return nil, errors.New("syslog is not available on this platform")
}
