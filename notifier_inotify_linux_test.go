//go:build linux

package logtail

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/onsi/gomega"
)

// waitFor returns the first event for h whose mask has any bit of want.
// Callers arrange for stop to fire eventually so a missing event fails.
func waitFor(t *testing.T, n Notifier, h WatchHandle, want Op) ChangeEvent {
	t.Helper()
	for {
		ev, err := n.NextEvent()
		if err != nil {
			t.Fatalf("waiting for %s: %s", want, err)
		}
		if ev.Watch == h && ev.Mask.Has(want) {
			return ev
		}
	}
}

// deadline closes a stop channel after a while.
func deadline(t *testing.T) chan struct{} {
	stop := make(chan struct{})
	timer := time.AfterFunc(5*time.Second, func() { close(stop) })
	t.Cleanup(func() { timer.Stop() })
	return stop
}

func TestInotifyEvents(t *testing.T) {
	for _, backend := range []string{BackendInotify, BackendFsnotify} {
		t.Run(backend, func(t *testing.T) {
			g := NewGomegaWithT(t)
			path := filepath.Join(t.TempDir(), "app.log")
			g.Expect(os.WriteFile(path, nil, 0644)).To(Succeed())

			n, err := NewNotifier(backend, deadline(t), 20*time.Millisecond)
			g.Expect(err).ToNot(HaveOccurred())
			defer n.Close()

			h, err := n.Watch(path, FollowMask)
			g.Expect(err).ToNot(HaveOccurred())

			f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0644)
			g.Expect(err).ToNot(HaveOccurred())
			_, err = f.WriteString("hello\n")
			g.Expect(err).ToNot(HaveOccurred())
			g.Expect(f.Close()).To(Succeed())
			waitFor(t, n, h, OpModify)

			g.Expect(os.Remove(path)).To(Succeed())
			waitFor(t, n, h, OpDeleteSelf)
		})
	}
}

func TestInotifyMoveSelf(t *testing.T) {
	g := NewGomegaWithT(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	g.Expect(os.WriteFile(path, nil, 0644)).To(Succeed())

	n, err := NewNotifier(BackendInotify, deadline(t), 20*time.Millisecond)
	g.Expect(err).ToNot(HaveOccurred())
	defer n.Close()

	h, err := n.Watch(path, FollowMask)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(os.Rename(path, path+".1")).To(Succeed())
	waitFor(t, n, h, OpMoveSelf)
	g.Expect(n.Unwatch(h)).To(Succeed())
}

func TestInotifyStopBoundsWait(t *testing.T) {
	g := NewGomegaWithT(t)
	stop := make(chan struct{})
	n, err := NewNotifier(BackendInotify, stop, 50*time.Millisecond)
	g.Expect(err).ToNot(HaveOccurred())
	defer n.Close()

	go func() {
		time.Sleep(30 * time.Millisecond)
		close(stop)
	}()
	start := time.Now()
	_, err = n.NextEvent()
	g.Expect(err).To(Equal(ErrStopped))
	g.Expect(time.Since(start)).To(BeNumerically("<", time.Second))
}

func TestInotifyWatchMissing(t *testing.T) {
	g := NewGomegaWithT(t)
	n, err := NewNotifier(BackendInotify, make(chan struct{}), 20*time.Millisecond)
	g.Expect(err).ToNot(HaveOccurred())

	_, err = n.Watch(filepath.Join(t.TempDir(), "missing.log"), FollowMask)
	var werr *WatchError
	g.Expect(errors.As(err, &werr)).To(BeTrue())
	g.Expect(os.IsNotExist(werr.Err)).To(BeTrue())

	g.Expect(n.Close()).To(Succeed())
	g.Expect(n.Close()).To(Succeed())
}

func TestNewNotifierUnknownBackend(t *testing.T) {
	g := NewGomegaWithT(t)
	_, err := NewNotifier("kqueue", make(chan struct{}), time.Millisecond)
	var ierr *InitError
	g.Expect(errors.As(err, &ierr)).To(BeTrue())
	g.Expect(ierr.Backend).To(Equal("kqueue"))
}
