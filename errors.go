package logtail

import (
	"errors"
	"fmt"
)

// ErrStopped is returned by Notifier.NextEvent once the stop channel fires.
var ErrStopped = errors.New("logtail: stopped")

// InitError reports that the change notification facility could not be created.
type InitError struct {
	Backend string
	Err     error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("could not init %s notifier: %s", e.Backend, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// WatchError reports that a path could not be registered with a Notifier.
type WatchError struct {
	Path string
	Err  error
}

func (e *WatchError) Error() string {
	return fmt.Sprintf("could not watch %q: %s", e.Path, e.Err)
}

func (e *WatchError) Unwrap() error { return e.Err }

// MalformedError describes bytes discarded from the front of a StreamBuffer
// because no record could be recognized there.
type MalformedError struct {
	Dropped int
	Pending int
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed record: dropped %d of %d pending bytes", e.Dropped, e.Pending)
}

// SinkError wraps a failure to emit a record.
type SinkError struct {
	Err error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("could not emit record: %s", e.Err)
}

func (e *SinkError) Unwrap() error { return e.Err }
