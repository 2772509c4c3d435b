//go:build linux

package logtail

import (
	"errors"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// inotifyNotifier reads inotify records through an epoll set so every wait
// has a finite timeout.
type inotifyNotifier struct {
	fd      int
	epfd    int
	stop    <-chan struct{}
	timeout time.Duration

	buf     []byte
	pending []ChangeEvent

	closeOnce sync.Once
	closeErr  error
}

func newInotifyNotifier(stop <-chan struct{}, timeout time.Duration) (*inotifyNotifier, error) {
	fd, err := unix.InotifyInit1(unix.IN_CLOEXEC | unix.IN_NONBLOCK)
	if err != nil {
		return nil, &InitError{Backend: BackendInotify, Err: err}
	}
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		unix.Close(fd)
		return nil, &InitError{Backend: BackendInotify, Err: err}
	}
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		unix.Close(epfd)
		unix.Close(fd)
		return nil, &InitError{Backend: BackendInotify, Err: err}
	}
	return &inotifyNotifier{
		fd:      fd,
		epfd:    epfd,
		stop:    stop,
		timeout: timeout,
		buf:     make([]byte, 64*(eventSize+unix.NAME_MAX+1)),
	}, nil
}

func (n *inotifyNotifier) Watch(path string, mask Op) (WatchHandle, error) {
	wd, err := unix.InotifyAddWatch(n.fd, path, uint32(mask))
	if err != nil {
		return 0, &WatchError{Path: path, Err: err}
	}
	return WatchHandle(wd), nil
}

func (n *inotifyNotifier) Unwatch(h WatchHandle) error {
	_, err := unix.InotifyRmWatch(n.fd, uint32(h))
	// The kernel drops the watch itself once the inode is gone.
	if errors.Is(err, unix.EINVAL) {
		return nil
	}
	return err
}

func (n *inotifyNotifier) NextEvent() (ChangeEvent, error) {
	return nextEvent(n.stop, n.timeout, n.wait)
}

func (n *inotifyNotifier) wait(timeout time.Duration) (ChangeEvent, bool, error) {
	if len(n.pending) > 0 {
		ev := n.pending[0]
		n.pending = n.pending[1:]
		return ev, true, nil
	}

	msec := int(timeout / time.Millisecond)
	if msec < 1 {
		msec = 1
	}
	var events [1]unix.EpollEvent
	ready, err := unix.EpollWait(n.epfd, events[:], msec)
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return ChangeEvent{}, false, nil
		}
		return ChangeEvent{}, false, err
	}
	if ready == 0 {
		return ChangeEvent{}, false, nil
	}

	read, err := unix.Read(n.fd, n.buf)
	if err != nil {
		if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
			return ChangeEvent{}, false, nil
		}
		return ChangeEvent{}, false, err
	}
	n.pending = DecodeEvents(n.buf[:read])
	if len(n.pending) == 0 {
		return ChangeEvent{}, false, nil
	}
	ev := n.pending[0]
	n.pending = n.pending[1:]
	return ev, true, nil
}

func (n *inotifyNotifier) Close() error {
	n.closeOnce.Do(func() {
		// Closing the inotify descriptor releases every watch on it.
		err1 := unix.Close(n.epfd)
		err2 := unix.Close(n.fd)
		n.closeErr = errors.Join(err1, err2)
	})
	return n.closeErr
}
