package logtail

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// fsnotifyNotifier adapts fsnotify to the Notifier contract. fsnotify exposes
// no watch descriptors, so handles are assigned locally per path.
type fsnotifyNotifier struct {
	watcher *fsnotify.Watcher
	stop    <-chan struct{}
	timeout time.Duration

	mu      sync.Mutex
	next    WatchHandle
	handles map[string]WatchHandle
	paths   map[WatchHandle]string

	closeOnce sync.Once
	closeErr  error
}

func newFsnotifyNotifier(stop <-chan struct{}, timeout time.Duration) (*fsnotifyNotifier, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, &InitError{Backend: BackendFsnotify, Err: err}
	}
	return &fsnotifyNotifier{
		watcher: w,
		stop:    stop,
		timeout: timeout,
		next:    1,
		handles: make(map[string]WatchHandle),
		paths:   make(map[WatchHandle]string),
	}, nil
}

// Watch ignores mask: fsnotify always reports every kind of change, and the
// unwanted ones are dropped in wait.
func (n *fsnotifyNotifier) Watch(path string, mask Op) (WatchHandle, error) {
	if err := n.watcher.Add(path); err != nil {
		return 0, &WatchError{Path: path, Err: err}
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if h, ok := n.handles[path]; ok {
		return h, nil
	}
	h := n.next
	n.next++
	n.handles[path] = h
	n.paths[h] = path
	return h, nil
}

func (n *fsnotifyNotifier) Unwatch(h WatchHandle) error {
	n.mu.Lock()
	path, ok := n.paths[h]
	delete(n.paths, h)
	delete(n.handles, path)
	n.mu.Unlock()
	if !ok {
		return nil
	}
	// fsnotify forgets removed files on its own; a second removal is harmless.
	if err := n.watcher.Remove(path); err != nil && !errors.Is(err, fsnotify.ErrNonExistentWatch) {
		return fmt.Errorf("failed to unwatch %s: %w", path, err)
	}
	return nil
}

func (n *fsnotifyNotifier) NextEvent() (ChangeEvent, error) {
	return nextEvent(n.stop, n.timeout, n.wait)
}

func (n *fsnotifyNotifier) wait(timeout time.Duration) (ChangeEvent, bool, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-n.stop:
		return ChangeEvent{}, false, nil
	case <-timer.C:
		return ChangeEvent{}, false, nil
	case err, ok := <-n.watcher.Errors:
		if !ok {
			return ChangeEvent{}, false, ErrStopped
		}
		if errors.Is(err, fsnotify.ErrEventOverflow) {
			return ChangeEvent{Watch: -1, Mask: OpOverflow}, true, nil
		}
		return ChangeEvent{}, false, err
	case event, ok := <-n.watcher.Events:
		if !ok {
			return ChangeEvent{}, false, ErrStopped
		}
		return n.convert(event)
	}
}

func (n *fsnotifyNotifier) convert(event fsnotify.Event) (ChangeEvent, bool, error) {
	n.mu.Lock()
	h, ok := n.handles[event.Name]
	n.mu.Unlock()
	if !ok {
		return ChangeEvent{}, false, nil
	}

	var mask Op
	switch {
	case event.Has(fsnotify.Remove):
		mask = OpDeleteSelf
	case event.Has(fsnotify.Rename):
		mask = OpMoveSelf
	case event.Has(fsnotify.Write):
		mask = OpModify
	case event.Has(fsnotify.Chmod):
		mask = OpAttrib
	default:
		return ChangeEvent{}, false, nil
	}
	return ChangeEvent{Watch: h, Mask: mask}, true, nil
}

func (n *fsnotifyNotifier) Close() error {
	n.closeOnce.Do(func() {
		n.closeErr = n.watcher.Close()
	})
	return n.closeErr
}
