//go:build !linux

package logtail

import (
	"fmt"
	"time"
)

// DefaultBackend is the notifier used when none is configured.
const DefaultBackend = BackendFsnotify

// NewNotifier creates a Notifier of the named backend. Only fsnotify is
// available outside Linux.
func NewNotifier(backend string, stop <-chan struct{}, timeout time.Duration) (Notifier, error) {
	switch backend {
	case "", BackendFsnotify:
		return newFsnotifyNotifier(stop, timeout)
	default:
		return nil, &InitError{Backend: backend, Err: fmt.Errorf("unsupported on this platform")}
	}
}
