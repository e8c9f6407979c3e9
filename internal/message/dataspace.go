package message

import (
	"fmt"

	"github.com/robert-malhotra/h5bind/internal/binary"
)

// SpaceKind is the dataspace classification.
type SpaceKind uint8

const (
	SpaceScalar SpaceKind = 0
	SpaceSimple SpaceKind = 1
	SpaceNull   SpaceKind = 2
)

func (k SpaceKind) String() string {
	switch k {
	case SpaceScalar:
		return "scalar"
	case SpaceSimple:
		return "simple"
	case SpaceNull:
		return "null"
	}
	return fmt.Sprintf("SpaceKind(%d)", uint8(k))
}

// Unlimited is the max-dimension value for an unlimited axis.
const Unlimited = ^uint64(0)

// Dataspace describes the shape of a dataset or attribute.
type Dataspace struct {
	Kind    SpaceKind
	Dims    []uint64
	MaxDims []uint64
}

func (m *Dataspace) Type() Type { return TypeDataspace }

// NewScalarDataspace returns a scalar dataspace.
func NewScalarDataspace() *Dataspace { return &Dataspace{Kind: SpaceScalar} }

// NewNullDataspace returns a null dataspace.
func NewNullDataspace() *Dataspace { return &Dataspace{Kind: SpaceNull} }

// NewSimpleDataspace returns a simple dataspace with the given extents.
func NewSimpleDataspace(dims ...uint64) *Dataspace {
	return &Dataspace{Kind: SpaceSimple, Dims: append([]uint64(nil), dims...)}
}

// NumElements is the product of the extents, 1 for scalar and 0 for null.
func (m *Dataspace) NumElements() uint64 {
	switch m.Kind {
	case SpaceScalar:
		return 1
	case SpaceSimple:
		n := uint64(1)
		for _, d := range m.Dims {
			n *= d
		}
		return n
	}
	return 0
}

// Clone returns a deep copy.
func (m *Dataspace) Clone() *Dataspace {
	c := &Dataspace{Kind: m.Kind}
	c.Dims = append([]uint64(nil), m.Dims...)
	if m.MaxDims != nil {
		c.MaxDims = append([]uint64(nil), m.MaxDims...)
	}
	return c
}

// Equal compares kind and extents, ignoring max dimensions.
func (m *Dataspace) Equal(o *Dataspace) bool {
	if m.Kind != o.Kind || len(m.Dims) != len(o.Dims) {
		return false
	}
	for i := range m.Dims {
		if m.Dims[i] != o.Dims[i] {
			return false
		}
	}
	return true
}

// ParseDataspace decodes versions 1 and 2.
//
// v1: version, rank, flags, reserved(5), dims, [maxdims]
// v2: version, rank, flags, type, dims, [maxdims]
func ParseDataspace(data []byte, cfg binary.Config) (*Dataspace, error) {
	d := binary.NewDecoder(data, cfg)
	version := d.U8()
	rank := int(d.U8())
	flags := d.U8()

	m := &Dataspace{}
	switch version {
	case 1:
		d.Skip(5)
		m.Kind = SpaceSimple
		if rank == 0 {
			m.Kind = SpaceScalar
		}
	case 2:
		m.Kind = SpaceKind(d.U8())
	default:
		return nil, fmt.Errorf("unsupported dataspace version %d", version)
	}
	if err := d.Err(); err != nil {
		return nil, err
	}
	if m.Kind != SpaceSimple {
		return m, nil
	}

	m.Dims = make([]uint64, rank)
	for i := range m.Dims {
		m.Dims[i] = d.Length()
	}
	if flags&0x01 != 0 {
		m.MaxDims = make([]uint64, rank)
		for i := range m.MaxDims {
			m.MaxDims[i] = d.Length()
		}
	}
	if err := d.Err(); err != nil {
		return nil, fmt.Errorf("dataspace dimensions: %w", err)
	}
	return m, nil
}

// Encode writes a version 2 dataspace message.
func (m *Dataspace) Encode(cfg binary.Config) []byte {
	e := binary.NewEncoder(cfg)
	e.U8(2)
	rank := 0
	if m.Kind == SpaceSimple {
		rank = len(m.Dims)
	}
	e.U8(uint8(rank))
	var flags uint8
	if rank > 0 && len(m.MaxDims) == rank {
		flags |= 0x01
	}
	e.U8(flags)
	e.U8(uint8(m.Kind))
	for i := 0; i < rank; i++ {
		e.Length(m.Dims[i])
	}
	if flags&0x01 != 0 {
		for _, v := range m.MaxDims {
			if v == Unlimited {
				e.Uint(^uint64(0), cfg.LengthSize)
				continue
			}
			e.Length(v)
		}
	}
	return e.Data()
}
