package logtail_test

import (
	"errors"
	"os"
	"sync"

	"github.com/spf13/afero"

	"github.com/seedtray/logtail"
)

// fakeNotifier delivers events queued by the test.
type fakeNotifier struct {
	stop   <-chan struct{}
	events chan logtail.ChangeEvent

	mu      sync.Mutex
	next    logtail.WatchHandle
	watched map[logtail.WatchHandle]string
	closed  int
}

func newFakeNotifier(stop <-chan struct{}) *fakeNotifier {
	return &fakeNotifier{
		stop:    stop,
		events:  make(chan logtail.ChangeEvent, 64),
		watched: make(map[logtail.WatchHandle]string),
	}
}

func (n *fakeNotifier) Watch(path string, mask logtail.Op) (logtail.WatchHandle, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.next++
	n.watched[n.next] = path
	return n.next, nil
}

func (n *fakeNotifier) Unwatch(h logtail.WatchHandle) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.watched, h)
	return nil
}

func (n *fakeNotifier) NextEvent() (logtail.ChangeEvent, error) {
	select {
	case <-n.stop:
		return logtail.ChangeEvent{}, logtail.ErrStopped
	case ev := <-n.events:
		return ev, nil
	}
}

func (n *fakeNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed++
	return nil
}

// send queues an event for the most recent watch.
func (n *fakeNotifier) send(mask logtail.Op) {
	n.mu.Lock()
	h := n.next
	n.mu.Unlock()
	n.events <- logtail.ChangeEvent{Watch: h, Mask: mask}
}

func (n *fakeNotifier) watches() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.watched)
}

func (n *fakeNotifier) closeCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.closed
}

// collectSink records what it is given.
type collectSink struct {
	mu    sync.Mutex
	lines []string
	fail  bool
}

func (s *collectSink) Emit(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("sink down")
	}
	s.lines = append(s.lines, text)
	return nil
}

func (s *collectSink) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...)
}

func appendFile(fs afero.Fs, name, data string) {
	f, err := fs.OpenFile(name, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
	if err != nil {
		panic(err)
	}
	defer f.Close()
	if _, err := f.WriteString(data); err != nil {
		panic(err)
	}
}
