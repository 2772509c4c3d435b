//go:build linux

package logtail

import (
	"fmt"
	"time"
)

// DefaultBackend is the notifier used when none is configured.
const DefaultBackend = BackendInotify

// NewNotifier creates a Notifier of the named backend. Its NextEvent waits at
// most timeout between checks of stop.
func NewNotifier(backend string, stop <-chan struct{}, timeout time.Duration) (Notifier, error) {
	switch backend {
	case "", BackendInotify:
		return newInotifyNotifier(stop, timeout)
	case BackendFsnotify:
		return newFsnotifyNotifier(stop, timeout)
	default:
		return nil, &InitError{Backend: backend, Err: fmt.Errorf("unknown backend")}
	}
}
