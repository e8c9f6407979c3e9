package btree

import (
	"fmt"

	"github.com/robert-malhotra/h5bind/internal/binary"
)

// Node types.
const (
	TypeGroup = 0
	TypeChunk = 1
)

// maxDepth bounds recursion on corrupt files.
const maxDepth = 64

// node is the fixed part of a v1 B-tree node plus its raw entry area.
//
//	"TREE" type(1) level(1) entries(2) left(O) right(O) {key child}* key
type node struct {
	level   uint8
	entries int
	d       *binary.Decoder
}

func readNode(r *binary.Reader, addr uint64, typ uint8, keySize int) (*node, error) {
	cfg := r.Config()
	hdr := 8 + 2*cfg.OffsetSize
	d, err := r.Decoder(addr, hdr)
	if err != nil {
		return nil, fmt.Errorf("b-tree node at %d: %w", addr, err)
	}
	if sig := d.Bytes(4); string(sig) != "TREE" {
		return nil, fmt.Errorf("b-tree node at %d: bad signature %q", addr, sig)
	}
	if t := d.U8(); t != typ {
		return nil, fmt.Errorf("b-tree node at %d: type %d, want %d", addr, t, typ)
	}
	n := &node{level: d.U8(), entries: int(d.U16())}

	size := n.entries*(keySize+cfg.OffsetSize) + keySize
	n.d, err = r.Decoder(addr+uint64(hdr), size)
	if err != nil {
		return nil, fmt.Errorf("b-tree node at %d: %w", addr, err)
	}
	return n, nil
}
