package logtail

import (
	"bytes"
	"io"
	"log"
)

// DefaultMaxPending is how many unmatched bytes may wait at the front of the
// buffer before recovery drops some of them.
const DefaultMaxPending = 64 * 1024

// Record is one match carved from the front of a StreamBuffer.
type Record struct {
	// Fields holds the named capture groups.
	Fields map[string]string
	// Raw is the whole matched text.
	Raw string
}

// Get returns a field, or "" when the pattern has no such group.
func (r Record) Get(name string) string { return r.Fields[name] }

// Format is one log format variant.
//
// Extract carves every complete record it can from the front of buf,
// consuming their bytes, and leaves any incomplete tail in place. Filter must
// be a pure predicate. Reform renders an accepted record for the sink.
type Format interface {
	Extract(buf *StreamBuffer) []Record
	Filter(r Record) bool
	Reform(r Record) string
}

// Resyncer is implemented by formats that can locate the next plausible
// record start after the front of buf stopped matching. It returns how many
// bytes to drop, or 0 when it cannot tell.
type Resyncer interface {
	Resync(buf *StreamBuffer) int
}

// Emitter receives reformatted records in file order.
type Emitter interface {
	Emit(text string) error
}

// Pipeline feeds chunks through a Format into an Emitter.
type Pipeline struct {
	format     Format
	sink       Emitter
	logger     *log.Logger
	maxPending int
	buf        StreamBuffer

	// Emitted and Filtered count records since construction.
	Emitted  int
	Filtered int
}

func NewPipeline(format Format, sink Emitter, maxPending int, logger *log.Logger) *Pipeline {
	if maxPending <= 0 {
		maxPending = DefaultMaxPending
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Pipeline{
		format:     format,
		sink:       sink,
		logger:     logger,
		maxPending: maxPending,
	}
}

// Pending returns the bytes that have not formed a record yet.
func (p *Pipeline) Pending() []byte { return p.buf.Bytes() }

// Feed appends chunk and emits every record that is now complete. Bytes at
// the front that do not match are dropped as soon as a complete record is
// found behind them, or once more than maxPending bytes are waiting.
func (p *Pipeline) Feed(chunk []byte) {
	p.buf.Write(chunk)
	for {
		p.drain()
		if p.buf.Len() == 0 || !p.resync(p.buf.Len() > p.maxPending) {
			return
		}
	}
}

// Reset drops pending bytes, logging them when there are any.
func (p *Pipeline) Reset() {
	if n := p.buf.Len(); n > 0 {
		p.logger.Printf("dropping %d pending bytes of the previous file", n)
	}
	p.buf.Reset()
}

func (p *Pipeline) drain() {
	for _, r := range p.format.Extract(&p.buf) {
		if !p.format.Filter(r) {
			p.Filtered++
			continue
		}
		if err := p.sink.Emit(p.format.Reform(r)); err != nil {
			p.logger.Print(&SinkError{Err: err})
			continue
		}
		p.Emitted++
	}
}

// resync drops the bytes in front of the next record the format can locate.
// When there is none and force is set, it drops through the last newline, or
// everything. It reports false when nothing was dropped.
func (p *Pipeline) resync(force bool) bool {
	pending := p.buf.Len()
	n := 0
	if rs, ok := p.format.(Resyncer); ok {
		n = rs.Resync(&p.buf)
	}
	if n <= 0 {
		if !force {
			return false
		}
		if i := bytes.LastIndexByte(p.buf.Bytes(), '\n'); i >= 0 {
			n = i + 1
		} else {
			n = pending
		}
	}
	p.buf.Consume(n)
	p.logger.Print(&MalformedError{Dropped: n, Pending: pending})
	return n > 0
}
