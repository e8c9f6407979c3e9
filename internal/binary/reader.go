package binary

import (
	"errors"
	"fmt"
	"io"
)

// Reader reads fixed-size blocks out of a file and hands back decoders.
type Reader struct {
	r   io.ReaderAt
	cfg Config
}

// NewReader wraps r.
func NewReader(r io.ReaderAt, cfg Config) *Reader {
	return &Reader{r: r, cfg: cfg}
}

// Config returns the field widths in use.
func (r *Reader) Config() Config { return r.cfg }

// WithConfig returns a reader over the same file with different widths.
func (r *Reader) WithConfig(cfg Config) *Reader {
	return &Reader{r: r.r, cfg: cfg}
}

// ReadAt reads exactly n bytes at addr.
func (r *Reader) ReadAt(addr uint64, n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	got, err := r.r.ReadAt(buf, int64(addr))
	if got == n {
		return buf, nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return nil, fmt.Errorf("reading %d bytes at %d: %w", n, addr, err)
}

// Decoder reads n bytes at addr and returns a decoder over them.
func (r *Reader) Decoder(addr uint64, n int) (*Decoder, error) {
	buf, err := r.ReadAt(addr, n)
	if err != nil {
		return nil, err
	}
	return NewDecoder(buf, r.cfg), nil
}
