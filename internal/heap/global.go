package heap

import (
	"fmt"

	"github.com/robert-malhotra/h5bind/internal/binary"
)

const signatureCollection = "GCOL"

// MinCollectionSize is the smallest collection written.
const MinCollectionSize = 4096

// Object indexes are 16 bits and 0 is reserved for free space.
const maxObjects = 0xFFFF

// Ref locates a variable-length element in a global heap.
type Ref struct {
	Length  uint32
	Address uint64
	Index   uint32
}

// RefSize is the encoded size of a Ref.
func RefSize(cfg binary.Config) int { return 4 + cfg.OffsetSize + 4 }

// IsNil reports whether the reference points nowhere, which is how empty
// values are stored.
func (r Ref) IsNil() bool { return r.Address == 0 && r.Index == 0 }

// ParseRef decodes a reference from the start of b.
func ParseRef(b []byte, cfg binary.Config) (Ref, error) {
	d := binary.NewDecoder(b, cfg)
	ref := Ref{Length: d.U32(), Address: d.Offset(), Index: d.U32()}
	return ref, d.Err()
}

// Encode appends the reference to e.
func (r Ref) Encode(e *binary.Encoder) {
	e.U32(r.Length)
	e.Offset(r.Address)
	e.U32(r.Index)
}

// Collection is a decoded global heap collection.
type Collection struct {
	Address uint64
	Size    uint64
	objects map[uint32][]byte
}

// ReadCollection reads the collection at addr.
func ReadCollection(r *binary.Reader, addr uint64) (*Collection, error) {
	cfg := r.Config()
	if addr == 0 || cfg.IsUndefined(addr) {
		return nil, fmt.Errorf("global heap: invalid address %#x", addr)
	}
	hdr := 8 + cfg.LengthSize
	d, err := r.Decoder(addr, hdr)
	if err != nil {
		return nil, fmt.Errorf("global heap: %w", err)
	}
	if sig := d.Bytes(4); string(sig) != signatureCollection {
		return nil, fmt.Errorf("global heap at %d: bad signature %q", addr, sig)
	}
	if v := d.U8(); v != 1 {
		return nil, fmt.Errorf("global heap at %d: unsupported version %d", addr, v)
	}
	d.Skip(3)
	size := d.Length()
	if size < uint64(hdr) {
		return nil, fmt.Errorf("global heap at %d: collection size %d too small", addr, size)
	}

	body, err := r.ReadAt(addr+uint64(hdr), int(size)-hdr)
	if err != nil {
		return nil, fmt.Errorf("global heap: %w", err)
	}
	c := &Collection{Address: addr, Size: size, objects: map[uint32][]byte{}}
	d = binary.NewDecoder(body, cfg)
	for d.Remaining() >= 8+cfg.LengthSize {
		index := d.U16()
		if index == 0 {
			break
		}
		d.Skip(6)
		n := d.Length()
		data := d.Bytes(int(n))
		d.Skip(pad8(int(n)))
		if d.Err() != nil {
			return nil, fmt.Errorf("global heap at %d: object %d truncated", addr, index)
		}
		c.objects[uint32(index)] = data
	}
	return c, nil
}

// Object returns the bytes of object index. The slice is shared with the
// collection and must not be modified.
func (c *Collection) Object(index uint32) ([]byte, error) {
	b, ok := c.objects[index]
	if !ok {
		return nil, fmt.Errorf("global heap at %d: no object %d", c.Address, index)
	}
	return b, nil
}

// Len returns the number of objects.
func (c *Collection) Len() int { return len(c.objects) }

// Builder packs objects into one new collection.
type Builder struct {
	cfg     binary.Config
	objects [][]byte
}

// NewBuilder returns an empty builder.
func NewBuilder(cfg binary.Config) *Builder {
	return &Builder{cfg: cfg}
}

// Full reports whether the object index space is exhausted.
func (b *Builder) Full() bool { return len(b.objects) >= maxObjects }

// Add queues an object and returns its index. Empty objects are not stored
// and get index 0.
func (b *Builder) Add(data []byte) uint32 {
	if len(data) == 0 {
		return 0
	}
	b.objects = append(b.objects, data)
	return uint32(len(b.objects))
}

// Empty reports whether nothing was added.
func (b *Builder) Empty() bool { return len(b.objects) == 0 }

// Encode writes the collection. The tail is covered by a free-space object
// with index 0, and the collection is at least MinCollectionSize bytes.
func (b *Builder) Encode() []byte {
	objHdr := 8 + b.cfg.LengthSize
	used := 8 + b.cfg.LengthSize
	for _, o := range b.objects {
		used += objHdr + len(o) + pad8(len(o))
	}
	size := used + objHdr
	if size < MinCollectionSize {
		size = MinCollectionSize
	}

	e := binary.NewEncoder(b.cfg)
	e.Bytes([]byte(signatureCollection))
	e.U8(1)
	e.Zeros(3)
	e.Length(uint64(size))
	for i, o := range b.objects {
		e.U16(uint16(i + 1))
		e.U16(1)
		e.Zeros(4)
		e.Length(uint64(len(o)))
		e.Bytes(o)
		e.Zeros(pad8(len(o)))
	}
	free := size - e.Len()
	e.U16(0)
	e.U16(0)
	e.Zeros(4)
	e.Length(uint64(free))
	e.Zeros(size - e.Len())
	return e.Data()
}

func pad8(n int) int { return (8 - n%8) % 8 }

// Pack stores values in as many collections as needed, laid out back to back
// starting at addr. It returns the encoded collections and one reference per
// value. Empty values get a nil reference.
func Pack(values [][]byte, addr uint64, cfg binary.Config) ([]byte, []Ref) {
	refs := make([]Ref, len(values))
	var out []byte
	b := NewBuilder(cfg)
	var pending []int
	flush := func() {
		if b.Empty() {
			return
		}
		base := addr + uint64(len(out))
		for _, i := range pending {
			refs[i].Address = base
		}
		out = append(out, b.Encode()...)
		b = NewBuilder(cfg)
		pending = pending[:0]
	}
	for i, v := range values {
		refs[i].Length = uint32(len(v))
		if len(v) == 0 {
			continue
		}
		if b.Full() {
			flush()
		}
		refs[i].Index = b.Add(v)
		pending = append(pending, i)
	}
	flush()
	return out, refs
}
