package logtail

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/tomb.v1"
)

var defaultFS = afero.NewOsFs()

// Defaults for Config fields left zero.
const (
	DefaultWaitTimeout    = 250 * time.Millisecond
	DefaultMissingBackoff = 3 * time.Second
)

// Config describes what to follow and how.
type Config struct {
	Path string `mapstructure:"path"`
	// BlockSize is the largest chunk read at once.
	BlockSize int `mapstructure:"block_size"`
	// WaitTimeout bounds each notifier wait, and with it shutdown latency.
	WaitTimeout time.Duration `mapstructure:"wait_timeout"`
	// MissingBackoff is the pause between checks for a missing file.
	MissingBackoff time.Duration `mapstructure:"missing_backoff"`
	// MaxPending is how many unmatched bytes may accumulate before recovery.
	MaxPending int `mapstructure:"max_pending"`
	// FromStart replays the content already in the file on the first open.
	FromStart bool   `mapstructure:"from_start"`
	Backend   string `mapstructure:"backend"`
}

func (c *Config) setDefaults() {
	if c.BlockSize <= 0 {
		c.BlockSize = DefaultBlockSize
	}
	if c.WaitTimeout <= 0 {
		c.WaitTimeout = DefaultWaitTimeout
	}
	if c.MissingBackoff <= 0 {
		c.MissingBackoff = DefaultMissingBackoff
	}
	if c.MaxPending <= 0 {
		c.MaxPending = DefaultMaxPending
	}
	if c.Backend == "" {
		c.Backend = DefaultBackend
	}
}

// State is a Runner lifecycle state.
type State int32

const (
	StateIdle State = iota
	StateWaitingForFile
	StateFollowing
	StateRotating
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWaitingForFile:
		return "waiting"
	case StateFollowing:
		return "following"
	case StateRotating:
		return "rotating"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// NotifierFunc builds the notifier a Runner waits on.
type NotifierFunc func(stop <-chan struct{}, timeout time.Duration) (Notifier, error)

// Option customizes a Runner.
type Option func(*Runner)

// WithFs replaces the filesystem the file is read from.
func WithFs(fs afero.Fs) Option {
	return func(r *Runner) { r.fs = fs }
}

// WithNotifier replaces the notifier constructor.
func WithNotifier(fn NotifierFunc) Option {
	return func(r *Runner) { r.newNotifier = fn }
}

// WithLogger sets the diagnostic logger. Records never go there.
func WithLogger(l *log.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// Runner follows one file on a dedicated goroutine and pushes what it reads
// through a Pipeline.
type Runner struct {
	cfg         Config
	fs          afero.Fs
	newNotifier NotifierFunc
	logger      *log.Logger

	notifier Notifier
	follower *Follower
	pipeline *Pipeline

	t         tomb.Tomb
	state     atomic.Int32
	startOnce sync.Once
}

// NewRunner prepares a Runner. A notifier that cannot be created is reported
// here as an *InitError.
func NewRunner(cfg Config, format Format, sink Emitter, opts ...Option) (*Runner, error) {
	if cfg.Path == "" {
		return nil, errors.New("no path to follow")
	}
	cfg.setDefaults()
	r := &Runner{cfg: cfg, fs: defaultFS}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = log.New(io.Discard, "", 0)
	}
	if r.newNotifier == nil {
		backend := cfg.Backend
		r.newNotifier = func(stop <-chan struct{}, timeout time.Duration) (Notifier, error) {
			return NewNotifier(backend, stop, timeout)
		}
	}

	n, err := r.newNotifier(r.t.Dying(), cfg.WaitTimeout)
	if err != nil {
		return nil, err
	}
	r.notifier = n
	r.follower = NewFollower(r.fs, cfg.Path, n, cfg.BlockSize, cfg.FromStart)
	r.pipeline = NewPipeline(format, sink, cfg.MaxPending, r.logger)
	return r, nil
}

// State returns the current lifecycle state.
func (r *Runner) State() State { return State(r.state.Load()) }

// Pipeline exposes the runner's pipeline, mostly for its counters. It must
// not be fed while the runner is going.
func (r *Runner) Pipeline() *Pipeline { return r.pipeline }

// Start begins following. Calls after the first do nothing.
func (r *Runner) Start() {
	r.startOnce.Do(func() {
		go r.run()
	})
}

// Stop asks the runner to finish and waits until it has released the file
// and the notifier.
func (r *Runner) Stop() error {
	r.t.Kill(nil)
	r.startOnce.Do(func() {
		// Never started, so nothing else will release the notifier.
		if err := r.notifier.Close(); err != nil {
			r.t.Kill(err)
		}
		r.setState(StateStopped)
		r.t.Done()
	})
	return r.t.Wait()
}

// Wait blocks until the runner has stopped and returns the error that ended
// it, if any.
func (r *Runner) Wait() error { return r.t.Wait() }

func (r *Runner) setState(s State) {
	if State(r.state.Swap(int32(s))) != s {
		r.logger.Printf("state %s", s)
	}
}

func (r *Runner) stopping() bool {
	select {
	case <-r.t.Dying():
		return true
	default:
		return false
	}
}

func (r *Runner) run() {
	defer r.t.Done()
	defer func() {
		if err := r.notifier.Close(); err != nil {
			r.logger.Printf("could not close notifier: %s", err)
		}
		r.setState(StateStopped)
	}()

	for !r.stopping() {
		if !r.exists() {
			r.setState(StateWaitingForFile)
			r.sleep(r.cfg.MissingBackoff)
			continue
		}
		if err := r.follow(); err != nil {
			r.t.Kill(err)
			return
		}
		if r.follower.Rotated() {
			r.setState(StateRotating)
		}
	}
}

func (r *Runner) exists() bool {
	fi, err := r.fs.Stat(r.cfg.Path)
	return err == nil && fi.Mode().IsRegular()
}

func (r *Runner) sleep(d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-r.t.Dying():
	case <-timer.C:
	}
}

// follow runs one follower generation. Only unrecoverable failures are
// returned; a file that vanished or cannot be watched yet is retried.
func (r *Runner) follow() error {
	gen, err := r.follower.Open()
	if err != nil {
		var werr *WatchError
		if os.IsNotExist(err) || os.IsPermission(err) || errors.As(err, &werr) {
			r.logger.Print(err)
			r.sleep(r.cfg.MissingBackoff)
			return nil
		}
		return fmt.Errorf("could not open %q: %w", r.cfg.Path, err)
	}
	defer func() {
		if err := gen.Close(); err != nil {
			r.logger.Printf("could not close %q: %s", r.cfg.Path, err)
		}
	}()

	if gen.Reopened {
		r.pipeline.Reset()
	}
	r.setState(StateFollowing)
	r.logger.Printf("following %q from offset %d", r.cfg.Path, gen.Offset())

	for {
		chunk, err := gen.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		r.pipeline.Feed(chunk)
	}
}
