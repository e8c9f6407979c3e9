package message

import (
	"fmt"

	"github.com/robert-malhotra/h5bind/internal/binary"
)

// LayoutClass is the raw data storage class.
type LayoutClass uint8

const (
	LayoutCompact    LayoutClass = 0
	LayoutContiguous LayoutClass = 1
	LayoutChunked    LayoutClass = 2
	LayoutVirtual    LayoutClass = 3
)

func (c LayoutClass) String() string {
	switch c {
	case LayoutCompact:
		return "compact"
	case LayoutContiguous:
		return "contiguous"
	case LayoutChunked:
		return "chunked"
	case LayoutVirtual:
		return "virtual"
	}
	return fmt.Sprintf("LayoutClass(%d)", uint8(c))
}

// ChunkIndex identifies how chunk addresses are found.
type ChunkIndex uint8

const (
	IndexBTreeV1       ChunkIndex = 0
	IndexSingleChunk   ChunkIndex = 1
	IndexImplicit      ChunkIndex = 2
	IndexFixedArray    ChunkIndex = 3
	IndexExtensibleArr ChunkIndex = 4
	IndexBTreeV2       ChunkIndex = 5
)

// Layout is a decoded data layout message.
type Layout struct {
	Version uint8
	Class   LayoutClass

	// Data holds compact raw data.
	Data []byte

	// Address and Size locate contiguous data. Address is also the chunk
	// index address for chunked storage.
	Address uint64
	Size    uint64

	// ChunkDims are the chunk extents in elements, without the trailing
	// element size dimension.
	ChunkDims   []uint64
	ElementSize uint32
	Index       ChunkIndex

	ChunkFlags      uint8
	SingleChunkSize uint64
	SingleChunkMask uint32
}

func (m *Layout) Type() Type { return TypeDataLayout }

// NewContiguousLayout returns a contiguous layout at addr.
func NewContiguousLayout(addr, size uint64) *Layout {
	return &Layout{Version: 3, Class: LayoutContiguous, Address: addr, Size: size}
}

// NewCompactLayout returns a compact layout carrying data.
func NewCompactLayout(data []byte) *Layout {
	return &Layout{Version: 3, Class: LayoutCompact, Data: data, Size: uint64(len(data))}
}

func parseLayout(data []byte, cfg binary.Config) (*Layout, error) {
	d := binary.NewDecoder(data, cfg)
	m := &Layout{Version: d.U8()}
	var err error
	switch m.Version {
	case 1, 2:
		err = m.parseV1(d)
	case 3, 4:
		err = m.parseV3(d)
	default:
		return nil, fmt.Errorf("unsupported layout version %d", m.Version)
	}
	if err != nil {
		return nil, err
	}
	if err := d.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// parseV1 handles versions 1 and 2:
// ndims, class, reserved(5), [address], dims(u32 each), [element size], [compact data]
func (m *Layout) parseV1(d *binary.Decoder) error {
	ndims := int(d.U8())
	m.Class = LayoutClass(d.U8())
	d.Skip(5)
	if m.Class != LayoutCompact {
		m.Address = d.Offset()
	}
	dims := make([]uint64, ndims)
	for i := range dims {
		dims[i] = uint64(d.U32())
	}
	switch m.Class {
	case LayoutChunked:
		m.ElementSize = d.U32()
		// The last dimension is the element size.
		if ndims > 0 {
			dims = dims[:ndims-1]
		}
		m.ChunkDims = dims
		m.Index = IndexBTreeV1
	case LayoutCompact:
		n := d.U32()
		m.Data = d.Bytes(int(n))
		m.Size = uint64(n)
	case LayoutContiguous:
		m.Size = 1
		for _, v := range dims {
			m.Size *= v
		}
	default:
		return fmt.Errorf("layout class %d in version %d", m.Class, m.Version)
	}
	return nil
}

func (m *Layout) parseV3(d *binary.Decoder) error {
	m.Class = LayoutClass(d.U8())
	switch m.Class {
	case LayoutCompact:
		n := d.U16()
		m.Data = d.Bytes(int(n))
		m.Size = uint64(n)
	case LayoutContiguous:
		m.Address = d.Offset()
		m.Size = d.Length()
	case LayoutChunked:
		if m.Version == 3 {
			ndims := int(d.U8())
			m.Address = d.Offset()
			dims := make([]uint64, ndims)
			for i := range dims {
				dims[i] = uint64(d.U32())
			}
			if ndims > 0 {
				m.ElementSize = uint32(dims[ndims-1])
				dims = dims[:ndims-1]
			}
			m.ChunkDims = dims
			m.Index = IndexBTreeV1
			return nil
		}
		return m.parseV4Chunked(d)
	case LayoutVirtual:
		return fmt.Errorf("virtual layout is not supported")
	default:
		return fmt.Errorf("unknown layout class %d", m.Class)
	}
	return nil
}

func (m *Layout) parseV4Chunked(d *binary.Decoder) error {
	m.ChunkFlags = d.U8()
	ndims := int(d.U8())
	width := int(d.U8())
	dims := make([]uint64, ndims)
	for i := range dims {
		dims[i] = d.Uint(width)
	}
	if ndims > 0 {
		m.ElementSize = uint32(dims[ndims-1])
		dims = dims[:ndims-1]
	}
	m.ChunkDims = dims
	m.Index = ChunkIndex(d.U8())
	switch m.Index {
	case IndexSingleChunk:
		if m.ChunkFlags&0x02 != 0 {
			m.SingleChunkSize = d.Length()
			m.SingleChunkMask = d.U32()
		}
	case IndexImplicit:
	case IndexFixedArray:
		d.Skip(1)
	case IndexExtensibleArr:
		d.Skip(5)
	case IndexBTreeV2:
		d.Skip(6)
	default:
		return fmt.Errorf("unknown chunk index type %d", m.Index)
	}
	m.Address = d.Offset()
	return nil
}

// ChunkElements is the number of elements in one chunk.
func (m *Layout) ChunkElements() uint64 {
	n := uint64(1)
	for _, v := range m.ChunkDims {
		n *= v
	}
	return n
}

// Encode writes a version 3 compact or contiguous layout. Chunked layouts
// are never written.
func (m *Layout) Encode(cfg binary.Config) []byte {
	e := binary.NewEncoder(cfg)
	e.U8(3)
	e.U8(uint8(m.Class))
	switch m.Class {
	case LayoutCompact:
		e.U16(uint16(len(m.Data)))
		e.Bytes(m.Data)
	default:
		e.Offset(m.Address)
		e.Length(m.Size)
	}
	return e.Data()
}
