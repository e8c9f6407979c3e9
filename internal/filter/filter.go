// Package filter implements the chunk filters: deflate, shuffle and
// Fletcher-32.
//
// Filters are applied in pipeline order when encoding and in reverse order
// when decoding. A chunk's filter mask can switch off individual stages.
package filter

import (
	"fmt"

	"github.com/robert-malhotra/h5bind/internal/message"
)

// Filter transforms chunk bytes in both directions.
type Filter interface {
	ID() uint16
	Encode(in []byte) ([]byte, error)
	Decode(in []byte) ([]byte, error)
}

var constructors = map[uint16]func(values []uint32) Filter{
	message.FilterDeflate:    func(v []uint32) Filter { return newDeflate(v) },
	message.FilterShuffle:    func(v []uint32) Filter { return newShuffle(v) },
	message.FilterFletcher32: func(v []uint32) Filter { return fletcher32{} },
}

var names = map[uint16]string{
	message.FilterDeflate:    "deflate",
	message.FilterShuffle:    "shuffle",
	message.FilterFletcher32: "fletcher32",
	message.FilterSZIP:       "szip",
	message.FilterNBit:       "nbit",
	message.FilterScaleOff:   "scaleoffset",
}

// Name returns a readable name for a filter id.
func Name(id uint16) string {
	if n, ok := names[id]; ok {
		return n
	}
	return fmt.Sprintf("filter-%d", id)
}

type stage struct {
	f        Filter
	position int
}

// Pipeline is a resolved filter pipeline.
type Pipeline struct {
	stages []stage
}

// New resolves the filters of fp. Unknown optional filters are skipped;
// unknown mandatory filters are an error.
func New(fp *message.FilterPipeline) (*Pipeline, error) {
	p := &Pipeline{}
	if fp == nil {
		return p, nil
	}
	for i, info := range fp.Filters {
		ctor, ok := constructors[info.ID]
		if !ok {
			if info.Optional {
				continue
			}
			return nil, fmt.Errorf("%s filter is not supported", Name(info.ID))
		}
		p.stages = append(p.stages, stage{f: ctor(info.Values), position: i})
	}
	return p, nil
}

// Empty reports whether the pipeline does nothing.
func (p *Pipeline) Empty() bool { return len(p.stages) == 0 }

// Decode undoes the pipeline. Bit i of mask skips filter i.
func (p *Pipeline) Decode(data []byte, mask uint32) ([]byte, error) {
	for i := len(p.stages) - 1; i >= 0; i-- {
		s := p.stages[i]
		if mask&(1<<uint(s.position)) != 0 {
			continue
		}
		var err error
		if data, err = s.f.Decode(data); err != nil {
			return nil, fmt.Errorf("%s: %w", Name(s.f.ID()), err)
		}
	}
	return data, nil
}

// Encode applies the pipeline.
func (p *Pipeline) Encode(data []byte) ([]byte, error) {
	for _, s := range p.stages {
		var err error
		if data, err = s.f.Encode(data); err != nil {
			return nil, fmt.Errorf("%s: %w", Name(s.f.ID()), err)
		}
	}
	return data, nil
}
