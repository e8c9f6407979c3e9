package h5lib

import (
	"bytes"
	"fmt"

	"github.com/robert-malhotra/h5bind/internal/dtype"
	"github.com/robert-malhotra/h5bind/internal/message"
)

func (s *store) count() int { return int(s.space.NumElements()) }

// initial fills s with the zero value of every element.
func (s *store) initial() {
	if s.dtype.VarString {
		s.vlen = make([][]byte, s.count())
	} else {
		s.raw = make([]byte, s.count()*int(s.dtype.Size))
	}
	s.pending = true
}

// read converts the fixed-size elements of s into buf as memType.
// committed supplies the stored bytes when nothing is pending.
func (s *store) read(memType *message.Datatype, buf []byte, committed func() ([]byte, error)) error {
	if s.dtype.VarString || memType.VarString {
		return fmt.Errorf("%w: variable-length data needs a vlen read", ErrMismatch)
	}
	if !s.dtype.Modelled() {
		return fmt.Errorf("%w: reading %s data", ErrUnsupported, s.dtype.Class)
	}
	n := s.count()
	if need := n * int(memType.Size); len(buf) < need {
		return fmt.Errorf("read buffer holds %d bytes, need %d", len(buf), need)
	}
	src := s.raw
	if !s.pending {
		var err error
		if src, err = committed(); err != nil {
			return err
		}
	}
	if len(src) < n*int(s.dtype.Size) {
		return fmt.Errorf("stored data truncated: %d of %d bytes", len(src), n*int(s.dtype.Size))
	}

	switch {
	case memType.Class == message.ClassString && s.dtype.Class == message.ClassString:
		convertStrings(buf, memType, src, s.dtype, n)
		return nil
	case memType.Class == message.ClassString || s.dtype.Class == message.ClassString:
		return fmt.Errorf("%w: %s to %s", ErrMismatch, s.dtype, memType)
	}
	if err := dtype.Convert(buf, memType, src, s.dtype, n); err != nil {
		return fmt.Errorf("%w: %w", ErrMismatch, err)
	}
	return nil
}

// convertStrings copies n fixed-width strings between widths and paddings.
func convertStrings(dst []byte, to *message.Datatype, src []byte, from *message.Datatype, n int) {
	dw, sw := int(to.Size), int(from.Size)
	fill := byte(0)
	if to.Padding == message.PadSpacePad {
		fill = ' '
	}
	for i := range n {
		s := src[i*sw : (i+1)*sw]
		switch from.Padding {
		case message.PadSpacePad:
			s = bytes.TrimRight(s, " ")
		default:
			if j := bytes.IndexByte(s, 0); j >= 0 {
				s = s[:j]
			}
		}
		d := dst[i*dw : (i+1)*dw]
		limit := dw
		if to.Padding == message.PadNullTerm {
			limit = dw - 1
		}
		c := copy(d[:max(limit, 0)], s)
		for j := c; j < dw; j++ {
			d[j] = fill
		}
	}
}

// write replaces the elements of s with the elements in buf, converting
// numbers and string widths from memType. memSpace may be nil for the whole
// dataspace; otherwise it must hold as many elements as s.
func (s *store) write(memType *message.Datatype, memSpace *message.Dataspace, buf []byte) error {
	if s.dtype.VarString || memType.VarString {
		return fmt.Errorf("%w: variable-length data needs a vlen write", ErrMismatch)
	}
	n := s.count()
	if memSpace != nil && memSpace.NumElements() != uint64(n) {
		return fmt.Errorf("%w: %d elements in memory, %d stored", ErrMismatch, memSpace.NumElements(), n)
	}
	if need := n * int(memType.Size); len(buf) < need {
		return fmt.Errorf("write buffer holds %d bytes, need %d", len(buf), need)
	}
	raw := make([]byte, n*int(s.dtype.Size))
	switch {
	case sameLayout(memType, s.dtype):
		copy(raw, buf)
	case memType.Class == message.ClassString && s.dtype.Class == message.ClassString:
		convertStrings(raw, s.dtype, buf, memType, n)
	case memType.Class == message.ClassString || s.dtype.Class == message.ClassString:
		return fmt.Errorf("%w: writing %s to %s", ErrMismatch, memType, s.dtype)
	default:
		if err := dtype.Convert(raw, s.dtype, buf, memType, n); err != nil {
			return fmt.Errorf("%w: %w", ErrMismatch, err)
		}
	}
	s.raw = raw
	s.vlen = nil
	s.pending = true
	return nil
}

// readVlen returns the variable-length elements of s in pooled buffers.
func (s *store) readVlen(fs *fileState, memType *message.Datatype, committed func() ([]byte, error)) ([][]byte, error) {
	if !s.dtype.VarString || !memType.VarString {
		return nil, fmt.Errorf("%w: %s is not variable-length", ErrMismatch, s.dtype)
	}
	if s.pending {
		out := make([][]byte, len(s.vlen))
		for i, v := range s.vlen {
			out[i] = getBuf(len(v))
			copy(out[i], v)
		}
		return out, nil
	}
	data, err := committed()
	if err != nil {
		return nil, err
	}
	return fs.resolveVlen(data, s.count())
}

// writeVlen replaces the variable-length elements of s.
func (s *store) writeVlen(memType *message.Datatype, values [][]byte) error {
	if !s.dtype.VarString || !memType.VarString {
		return fmt.Errorf("%w: %s is not variable-length", ErrMismatch, s.dtype)
	}
	if len(values) != s.count() {
		return fmt.Errorf("%w: %d values for %d elements", ErrMismatch, len(values), s.count())
	}
	s.vlen = make([][]byte, len(values))
	for i, v := range values {
		s.vlen[i] = append([]byte(nil), v...)
	}
	s.raw = nil
	s.pending = true
	return nil
}

// encoded returns the pending elements in their stored form, placing
// variable-length values in the global heap.
func (s *store) encoded(fs *fileState) ([]byte, error) {
	if s.dtype.VarString {
		return fs.packVlen(s.vlen)
	}
	return s.raw, nil
}

func supportedType(t *message.Datatype) bool {
	return dtype.Numeric(t) || t.VarString || (t.Class == message.ClassString && t.Size > 0)
}
