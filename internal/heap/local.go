package heap

import (
	"bytes"
	"fmt"

	"github.com/robert-malhotra/h5bind/internal/binary"
)

// Local is a local heap data segment.
type Local struct {
	Address     uint64
	DataAddress uint64
	data        []byte
}

// ReadLocal reads the local heap at addr.
//
//	"HEAP" version(1) reserved(3) data size(L) free list(L) data address(O)
func ReadLocal(r *binary.Reader, addr uint64) (*Local, error) {
	cfg := r.Config()
	d, err := r.Decoder(addr, 8+2*cfg.LengthSize+cfg.OffsetSize)
	if err != nil {
		return nil, fmt.Errorf("local heap: %w", err)
	}
	if sig := d.Bytes(4); string(sig) != "HEAP" {
		return nil, fmt.Errorf("local heap at %d: bad signature %q", addr, sig)
	}
	if v := d.U8(); v != 0 {
		return nil, fmt.Errorf("local heap at %d: unsupported version %d", addr, v)
	}
	d.Skip(3)
	size := d.Length()
	d.Length()
	h := &Local{Address: addr, DataAddress: d.Offset()}
	h.data, err = r.ReadAt(h.DataAddress, int(size))
	if err != nil {
		return nil, fmt.Errorf("local heap data: %w", err)
	}
	return h, nil
}

// String returns the NUL-terminated string at off.
func (h *Local) String(off uint64) (string, error) {
	if off >= uint64(len(h.data)) {
		return "", fmt.Errorf("local heap offset %d out of range (%d bytes)", off, len(h.data))
	}
	b := h.data[off:]
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b), nil
}
