package logtail

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/afero"
)

// DefaultBlockSize is the read size used when none is configured.
const DefaultBlockSize = 8192

// Follower streams the bytes appended to one path. Each Open starts a new
// generation; a generation ends when the file is rotated away or the notifier
// stops. The rotation flag carries over to the next Open, which then reads the
// replacement file from its start instead of its end.
type Follower struct {
	fs        afero.Fs
	path      string
	notifier  Notifier
	blockSize int
	fromStart bool

	opened  bool
	rotated bool
}

func NewFollower(fs afero.Fs, path string, notifier Notifier, blockSize int, fromStart bool) *Follower {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return &Follower{
		fs:        fs,
		path:      path,
		notifier:  notifier,
		blockSize: blockSize,
		fromStart: fromStart,
	}
}

// Rotated reports whether the last generation ended because the file was
// deleted, moved or replaced.
func (f *Follower) Rotated() bool { return f.rotated }

// Open opens the file and registers a watch on it. Errors from opening are
// returned as is so callers can test them with os.IsNotExist; watch failures
// are *WatchError.
func (f *Follower) Open() (*Generation, error) {
	file, err := f.fs.Open(f.path)
	if err != nil {
		return nil, err
	}
	watch, err := f.notifier.Watch(f.path, FollowMask)
	if err != nil {
		file.Close()
		return nil, err
	}

	g := &Generation{
		follower: f,
		file:     file,
		watch:    watch,
		buf:      make([]byte, f.blockSize),
	}
	if f.rotated || (!f.opened && f.fromStart) {
		g.Reopened = f.rotated
	} else {
		g.pos, err = file.Seek(0, io.SeekEnd)
		if err != nil {
			g.Close()
			return nil, fmt.Errorf("could not seek %q: %w", f.path, err)
		}
	}
	f.rotated = false
	f.opened = true
	return g, nil
}

// Generation is one open instance of the followed file.
type Generation struct {
	// Reopened is set when this generation replaced a rotated file and is
	// being read from its start.
	Reopened bool

	follower *Follower
	file     afero.File
	watch    WatchHandle
	buf      []byte
	pos      int64
}

// Offset is the position of the next byte to be read.
func (g *Generation) Offset() int64 { return g.pos }

// Next returns the next chunk of appended bytes. The slice is only valid until
// the following call. It returns io.EOF when the generation is over, either
// because the notifier stopped or because the file was rotated; the latter
// sets the follower's rotation flag.
func (g *Generation) Next() ([]byte, error) {
	f := g.follower
	for {
		n, err := g.file.Read(g.buf)
		if n > 0 {
			g.pos += int64(n)
			return g.buf[:n], nil
		}
		// In-memory files report a read past a truncated end as unexpected.
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("could not read from file: %w", err)
		}

		truncated, err := g.truncated()
		if err != nil {
			return nil, err
		}
		if truncated {
			continue
		}

		ev, err := f.notifier.NextEvent()
		if errors.Is(err, ErrStopped) {
			return nil, io.EOF
		}
		if err != nil {
			return nil, err
		}
		if ev.Watch != g.watch && !ev.Mask.Has(OpOverflow) {
			continue
		}
		if ev.Mask.Has(OpRotate) || (ev.Mask.Has(OpAttrib) && g.replaced()) {
			f.rotated = true
			return nil, io.EOF
		}
	}
}

// truncated rewinds to the start when the file shrank below the read
// position.
func (g *Generation) truncated() (bool, error) {
	fi, err := g.file.Stat()
	if err != nil {
		return false, fmt.Errorf("could not stat file: %w", err)
	}
	if fi.Size() >= g.pos {
		return false, nil
	}
	if _, err := g.file.Seek(0, io.SeekStart); err != nil {
		return false, fmt.Errorf("could not seek file: %w", err)
	}
	g.pos = 0
	return true, nil
}

// replaced reports whether the open file was unlinked or the path now names
// a different file. An open descriptor keeps a deleted inode alive, so the
// kernel reports only an attribute change in that case.
func (g *Generation) replaced() bool {
	fi, err := g.file.Stat()
	if err != nil {
		return true
	}
	if unlinked(fi) {
		return true
	}
	pfi, err := g.follower.fs.Stat(g.follower.path)
	if err != nil {
		return true
	}
	return !sameInode(fi, pfi)
}

// Close releases the file and the generation's watch.
func (g *Generation) Close() error {
	werr := g.follower.notifier.Unwatch(g.watch)
	ferr := g.file.Close()
	return errors.Join(ferr, werr)
}
