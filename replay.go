package logtail

import (
	"fmt"
	"io"

	"github.com/spf13/afero"
)

// Replay feeds the content of path from offset to its current end through p
// and returns the offset after the last byte read. It does not wait for more.
func Replay(fs afero.Fs, path string, offset int64, blockSize int, p *Pipeline) (int64, error) {
	if fs == nil {
		fs = defaultFS
	}
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	f, err := fs.Open(path)
	if err != nil {
		return offset, fmt.Errorf("could not open file %q: %w", path, err)
	}
	defer f.Close()
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return offset, fmt.Errorf("could not seek file %q: %w", path, err)
	}

	buf := make([]byte, blockSize)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			offset += int64(n)
			p.Feed(buf[:n])
		}
		if err == io.EOF {
			return offset, nil
		}
		if err != nil {
			return offset, fmt.Errorf("could not read from file: %w", err)
		}
	}
}
