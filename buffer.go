package logtail

// StreamBuffer accumulates bytes read from the followed file until they are
// consumed as records. It only grows at the back and shrinks at the front.
type StreamBuffer struct {
	data []byte
	off  int
}

// Write appends p. It never fails.
func (b *StreamBuffer) Write(p []byte) (int, error) {
	if b.off > 0 && b.off >= len(b.data)/2 {
		n := copy(b.data, b.data[b.off:])
		b.data = b.data[:n]
		b.off = 0
	}
	b.data = append(b.data, p...)
	return len(p), nil
}

// Bytes returns the unconsumed bytes. The slice is valid until the next
// Write or Consume.
func (b *StreamBuffer) Bytes() []byte { return b.data[b.off:] }

func (b *StreamBuffer) Len() int { return len(b.data) - b.off }

func (b *StreamBuffer) String() string { return string(b.Bytes()) }

// Consume removes the first n bytes.
func (b *StreamBuffer) Consume(n int) {
	if n >= b.Len() {
		b.Reset()
		return
	}
	b.off += n
}

// Reset discards everything.
func (b *StreamBuffer) Reset() {
	b.data = b.data[:0]
	b.off = 0
}
