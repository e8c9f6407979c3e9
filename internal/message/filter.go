package message

import (
	"fmt"

	"github.com/robert-malhotra/h5bind/internal/binary"
)

// Well-known filter identifiers.
const (
	FilterDeflate    uint16 = 1
	FilterShuffle    uint16 = 2
	FilterFletcher32 uint16 = 3
	FilterSZIP       uint16 = 4
	FilterNBit       uint16 = 5
	FilterScaleOff   uint16 = 6
)

// FilterInfo is one stage of a filter pipeline.
type FilterInfo struct {
	ID       uint16
	Name     string
	Optional bool
	Values   []uint32
}

// FilterPipeline lists the filters applied to chunked data, in write order.
type FilterPipeline struct {
	Filters []FilterInfo
}

func (m *FilterPipeline) Type() Type { return TypeFilterPipeline }

func parseFilterPipeline(data []byte) (*FilterPipeline, error) {
	d := binary.NewDecoder(data, binary.DefaultConfig())
	version := d.U8()
	n := int(d.U8())
	if version == 1 {
		d.Skip(6)
	} else if version != 2 {
		return nil, fmt.Errorf("unsupported filter pipeline version %d", version)
	}

	m := &FilterPipeline{Filters: make([]FilterInfo, 0, n)}
	for i := 0; i < n; i++ {
		var f FilterInfo
		f.ID = d.U16()
		nameLen := 0
		if version == 1 || f.ID >= 256 {
			nameLen = int(d.U16())
		}
		f.Optional = d.U16()&0x01 != 0
		nvals := int(d.U16())
		if nameLen > 0 {
			name := d.Bytes(nameLen)
			if version == 1 {
				d.Skip((8 - nameLen%8) % 8)
			}
			f.Name = trimNUL(name)
		}
		f.Values = make([]uint32, nvals)
		for j := range f.Values {
			f.Values[j] = d.U32()
		}
		if version == 1 && nvals%2 == 1 {
			d.Skip(4)
		}
		if err := d.Err(); err != nil {
			return nil, fmt.Errorf("filter %d: %w", i, err)
		}
		m.Filters = append(m.Filters, f)
	}
	return m, nil
}

func trimNUL(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
