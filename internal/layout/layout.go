// Package layout assembles the raw bytes of a dataset from its storage
// layout: compact data in the header, one contiguous block, or chunks found
// through a chunk index and run through the filter pipeline.
package layout

import (
	"fmt"

	"github.com/robert-malhotra/h5bind/internal/binary"
	"github.com/robert-malhotra/h5bind/internal/btree"
	"github.com/robert-malhotra/h5bind/internal/filter"
	"github.com/robert-malhotra/h5bind/internal/message"
)

// Source describes the stored data of one dataset.
type Source struct {
	Layout   *message.Layout
	Filters  *message.FilterPipeline
	Dims     []uint64
	ElemSize int
}

func (s Source) size() int {
	n := s.ElemSize
	for _, d := range s.Dims {
		n *= int(d)
	}
	return n
}

// Read returns the whole dataset in row-major order. Storage that was never
// allocated reads as zeros.
func Read(r *binary.Reader, s Source) ([]byte, error) {
	if s.Layout == nil {
		return nil, fmt.Errorf("dataset has no layout message")
	}
	total := s.size()
	switch s.Layout.Class {
	case message.LayoutCompact:
		out := make([]byte, total)
		copy(out, s.Layout.Data)
		return out, nil
	case message.LayoutContiguous:
		if r.Config().IsUndefined(s.Layout.Address) || total == 0 {
			return make([]byte, total), nil
		}
		return r.ReadAt(s.Layout.Address, total)
	case message.LayoutChunked:
		return readChunked(r, s, total)
	}
	return nil, fmt.Errorf("%s layout is not supported", s.Layout.Class)
}

func readChunked(r *binary.Reader, s Source, total int) ([]byte, error) {
	l := s.Layout
	out := make([]byte, total)
	if r.Config().IsUndefined(l.Address) || total == 0 {
		return out, nil
	}
	if len(l.ChunkDims) != len(s.Dims) {
		return nil, fmt.Errorf("chunk rank %d does not match dataset rank %d", len(l.ChunkDims), len(s.Dims))
	}
	p, err := filter.New(s.Filters)
	if err != nil {
		return nil, err
	}
	chunkBytes := int(l.ChunkElements()) * s.ElemSize

	load := func(c btree.Chunk) error {
		raw, err := r.ReadAt(c.Address, int(c.Size))
		if err != nil {
			return err
		}
		data, err := p.Decode(raw, c.FilterMask)
		if err != nil {
			return fmt.Errorf("chunk at %v: %w", c.Offset, err)
		}
		if len(data) < chunkBytes {
			return fmt.Errorf("chunk at %v: %d bytes, want %d", c.Offset, len(data), chunkBytes)
		}
		place(out, data, s.Dims, l.ChunkDims, c.Offset, s.ElemSize)
		return nil
	}

	switch l.Index {
	case message.IndexBTreeV1:
		chunks, err := btree.ReadChunks(r, l.Address, len(s.Dims))
		if err != nil {
			return nil, err
		}
		for _, c := range chunks {
			if err := load(c); err != nil {
				return nil, err
			}
		}
	case message.IndexSingleChunk:
		size := uint64(chunkBytes)
		if l.ChunkFlags&0x02 != 0 {
			size = l.SingleChunkSize
		}
		c := btree.Chunk{Offset: make([]uint64, len(s.Dims)), Size: uint32(size), Address: l.Address, FilterMask: l.SingleChunkMask}
		if err := load(c); err != nil {
			return nil, err
		}
	case message.IndexImplicit:
		addr := l.Address
		for _, off := range chunkOrigins(s.Dims, l.ChunkDims) {
			c := btree.Chunk{Offset: off, Size: uint32(chunkBytes), Address: addr}
			if err := load(c); err != nil {
				return nil, err
			}
			addr += uint64(chunkBytes)
		}
	default:
		return nil, fmt.Errorf("chunk index type %d is not supported", l.Index)
	}
	return out, nil
}

// chunkOrigins lists the origin of every chunk in row-major order.
func chunkOrigins(dims, chunk []uint64) [][]uint64 {
	var out [][]uint64
	cur := make([]uint64, len(dims))
	for {
		out = append(out, append([]uint64(nil), cur...))
		i := len(dims) - 1
		for ; i >= 0; i-- {
			cur[i] += chunk[i]
			if cur[i] < dims[i] {
				break
			}
			cur[i] = 0
		}
		if i < 0 {
			return out
		}
	}
}

// place copies the part of a chunk that lies inside the dataset into out.
func place(out, chunk []byte, dims, chunkDims, origin []uint64, elem int) {
	rank := len(dims)
	if rank == 0 {
		copy(out, chunk)
		return
	}
	// Rows along the last axis are contiguous in both buffers.
	last := rank - 1
	if origin[last] >= dims[last] {
		return
	}
	rowLen := chunkDims[last]
	if rem := dims[last] - origin[last]; rem < rowLen {
		rowLen = rem
	}
	idx := make([]uint64, rank)
	for {
		var src, dst uint64
		for i := 0; i < rank; i++ {
			src = src*chunkDims[i] + idx[i]
			dst = dst*dims[i] + origin[i] + idx[i]
		}
		copy(out[int(dst)*elem:], chunk[int(src)*elem:int(src+rowLen)*elem])

		i := last - 1
		for ; i >= 0; i-- {
			idx[i]++
			if idx[i] < chunkDims[i] && origin[i]+idx[i] < dims[i] {
				break
			}
			idx[i] = 0
		}
		if i < 0 {
			return
		}
	}
}
