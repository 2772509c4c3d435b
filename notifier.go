package logtail

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"
)

// Op is a bit mask of change kinds. Values mirror the Linux inotify masks so
// kernel events can be passed through without translation.
type Op uint32

const (
	OpModify     Op = 0x2
	OpAttrib     Op = 0x4
	OpDeleteSelf Op = 0x400
	OpMoveSelf   Op = 0x800
	OpOverflow   Op = 0x4000
	OpIgnored    Op = 0x8000

	// OpRotate is the set of events that end a follower generation.
	OpRotate = OpDeleteSelf | OpMoveSelf | OpIgnored

	// FollowMask is what a follower registers for.
	FollowMask = OpModify | OpAttrib | OpDeleteSelf | OpMoveSelf
)

// Has reports whether any bit of o is set in op.
func (op Op) Has(o Op) bool { return op&o != 0 }

func (op Op) String() string {
	var names []string
	for _, n := range []struct {
		op   Op
		name string
	}{
		{OpModify, "MODIFY"},
		{OpAttrib, "ATTRIB"},
		{OpDeleteSelf, "DELETE_SELF"},
		{OpMoveSelf, "MOVE_SELF"},
		{OpOverflow, "Q_OVERFLOW"},
		{OpIgnored, "IGNORED"},
	} {
		if op.Has(n.op) {
			names = append(names, n.name)
		}
	}
	if len(names) == 0 {
		return fmt.Sprintf("0x%x", uint32(op))
	}
	return strings.Join(names, "|")
}

// WatchHandle identifies one registered watch.
type WatchHandle int32

// ChangeEvent is one decoded notification record.
type ChangeEvent struct {
	Watch   WatchHandle
	Mask    Op
	Cookie  uint32
	NameLen uint32
}

// Notifier delivers change events for watched paths.
//
// NextEvent blocks in bounded waits and re-checks the stop channel the
// notifier was built with between them. It returns ErrStopped once stop is
// observed; a wait that elapses without an event is retried internally.
type Notifier interface {
	Watch(path string, mask Op) (WatchHandle, error)
	Unwatch(h WatchHandle) error
	NextEvent() (ChangeEvent, error)
	Close() error
}

// Backends accepted by NewNotifier.
const (
	BackendInotify  = "inotify"
	BackendFsnotify = "fsnotify"
)

// eventSize is sizeof(struct inotify_event) without the name.
const eventSize = 16

// DecodeEvents decodes the fixed-width records in raw. Each record is
// {wd int32, mask uint32, cookie uint32, len uint32} followed by len name
// bytes, in native byte order. A truncated trailing record is ignored.
func DecodeEvents(raw []byte) []ChangeEvent {
	var events []ChangeEvent
	for len(raw) >= eventSize {
		ev := ChangeEvent{
			Watch:   WatchHandle(int32(binary.NativeEndian.Uint32(raw[0:4]))),
			Mask:    Op(binary.NativeEndian.Uint32(raw[4:8])),
			Cookie:  binary.NativeEndian.Uint32(raw[8:12]),
			NameLen: binary.NativeEndian.Uint32(raw[12:16]),
		}
		next := eventSize + int(ev.NameLen)
		if next > len(raw) {
			break
		}
		events = append(events, ev)
		raw = raw[next:]
	}
	return events
}

// nextEvent drives wait until it yields an event, fails, or stop fires.
func nextEvent(stop <-chan struct{}, timeout time.Duration, wait func(time.Duration) (ChangeEvent, bool, error)) (ChangeEvent, error) {
	for {
		select {
		case <-stop:
			return ChangeEvent{}, ErrStopped
		default:
		}
		ev, ok, err := wait(timeout)
		if err != nil {
			return ChangeEvent{}, err
		}
		if ok {
			return ev, nil
		}
	}
}
