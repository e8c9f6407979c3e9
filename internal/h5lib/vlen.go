package h5lib

import (
	"fmt"
	"sync"

	"github.com/robert-malhotra/h5bind/internal/binary"
	"github.com/robert-malhotra/h5bind/internal/heap"
)

var vlenPool = sync.Pool{New: func() any { return new([]byte) }}

func getBuf(n int) []byte {
	p := vlenPool.Get().(*[]byte)
	if cap(*p) < n {
		*p = make([]byte, n)
	}
	return (*p)[:n]
}

// VlenReclaim returns buffers handed out by the variable-length reads.
// The buffers must not be used afterwards.
func VlenReclaim(bufs [][]byte) {
	for i, b := range bufs {
		if cap(b) == 0 {
			continue
		}
		b = b[:0]
		vlenPool.Put(&b)
		bufs[i] = nil
	}
}

// collection returns the global heap collection at addr through the cache.
func (fs *fileState) collection(addr uint64) (*heap.Collection, error) {
	if c, ok := fs.heaps.Get(addr); ok {
		return c, nil
	}
	c, err := heap.ReadCollection(fs.r, addr)
	if err != nil {
		return nil, err
	}
	fs.heaps.Add(addr, c)
	return c, nil
}

// resolveVlen follows count heap references packed in data. Each value is
// copied into a pooled buffer.
func (fs *fileState) resolveVlen(data []byte, count int) ([][]byte, error) {
	size := heap.RefSize(fs.cfg)
	if len(data) < count*size {
		return nil, fmt.Errorf("variable-length data truncated: %d bytes for %d references", len(data), count)
	}
	out := make([][]byte, count)
	for i := range out {
		ref, err := heap.ParseRef(data[i*size:], fs.cfg)
		if err != nil {
			VlenReclaim(out)
			return nil, err
		}
		if ref.IsNil() || ref.Length == 0 {
			out[i] = getBuf(0)
			continue
		}
		c, err := fs.collection(ref.Address)
		if err != nil {
			VlenReclaim(out)
			return nil, err
		}
		obj, err := c.Object(ref.Index)
		if err != nil {
			VlenReclaim(out)
			return nil, err
		}
		if int(ref.Length) < len(obj) {
			obj = obj[:ref.Length]
		}
		out[i] = getBuf(len(obj))
		copy(out[i], obj)
	}
	return out, nil
}

// packVlen stores values in newly allocated heap collections and returns
// the encoded references.
func (fs *fileState) packVlen(values [][]byte) ([]byte, error) {
	// Pack lays collections out from address 0; they move once placed.
	block, refs := heap.Pack(values, 0, fs.cfg)
	if len(block) > 0 {
		addr := fs.alloc.Alloc(uint64(len(block)))
		if err := fs.writeAt(addr, block); err != nil {
			return nil, err
		}
		for i := range refs {
			if refs[i].Index != 0 {
				refs[i].Address += addr
			}
		}
	}
	e := binary.NewEncoder(fs.cfg)
	for _, r := range refs {
		r.Encode(e)
	}
	return e.Data(), nil
}
