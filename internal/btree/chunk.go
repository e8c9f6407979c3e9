package btree

import (
	"fmt"

	"github.com/robert-malhotra/h5bind/internal/binary"
)

// Chunk locates one stored chunk of a dataset.
type Chunk struct {
	// Offset is the chunk origin in dataset element coordinates.
	Offset     []uint64
	FilterMask uint32
	Size       uint32
	Address    uint64
}

// ReadChunks returns every chunk of the chunk B-tree at addr. rank is the
// dataset rank; keys carry one more coordinate for the element size.
func ReadChunks(r *binary.Reader, addr uint64, rank int) ([]Chunk, error) {
	var out []Chunk
	if err := walkChunks(r, addr, rank, 0, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// chunk key: size(4) filter mask(4) offsets((rank+1) x 8)
func walkChunks(r *binary.Reader, addr uint64, rank, depth int, out *[]Chunk) error {
	if depth > maxDepth {
		return fmt.Errorf("chunk b-tree deeper than %d", maxDepth)
	}
	cfg := r.Config()
	keySize := 8 + 8*(rank+1)
	n, err := readNode(r, addr, TypeChunk, keySize)
	if err != nil {
		return err
	}
	for i := 0; i < n.entries; i++ {
		c := Chunk{Size: n.d.U32(), FilterMask: n.d.U32(), Offset: make([]uint64, rank)}
		for j := range c.Offset {
			c.Offset[j] = n.d.U64()
		}
		n.d.Skip(8)
		child := n.d.Offset()
		if err := n.d.Err(); err != nil {
			return err
		}
		switch {
		case n.level > 0:
			if err := walkChunks(r, child, rank, depth+1, out); err != nil {
				return err
			}
		case !cfg.IsUndefined(child) && c.Size > 0:
			c.Address = child
			*out = append(*out, c)
		}
	}
	return nil
}
