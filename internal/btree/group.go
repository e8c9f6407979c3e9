package btree

import (
	"fmt"

	"github.com/robert-malhotra/h5bind/internal/binary"
	"github.com/robert-malhotra/h5bind/internal/heap"
)

// SymbolEntry is one link of an old-style group.
type SymbolEntry struct {
	Name    string
	Address uint64

	// CacheType 1 means the scratch pad caches a symbol table.
	CacheType uint32
}

// ReadGroup returns the entries of the group B-tree at addr, in name order.
// Names are resolved through the group's local heap.
func ReadGroup(r *binary.Reader, addr uint64, names *heap.Local) ([]SymbolEntry, error) {
	var out []SymbolEntry
	if err := walkGroup(r, addr, names, 0, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func walkGroup(r *binary.Reader, addr uint64, names *heap.Local, depth int, out *[]SymbolEntry) error {
	if depth > maxDepth {
		return fmt.Errorf("group b-tree deeper than %d", maxDepth)
	}
	cfg := r.Config()
	n, err := readNode(r, addr, TypeGroup, cfg.LengthSize)
	if err != nil {
		return err
	}
	for i := 0; i < n.entries; i++ {
		n.d.Length()
		child := n.d.Offset()
		if err := n.d.Err(); err != nil {
			return err
		}
		if n.level > 0 {
			err = walkGroup(r, child, names, depth+1, out)
		} else {
			err = readSymbolNode(r, child, names, out)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// readSymbolNode reads an "SNOD" node:
//
//	"SNOD" version(1) reserved(1) count(2) entries...
//	entry: name offset(O) header(O) cache type(4) reserved(4) scratch(16)
func readSymbolNode(r *binary.Reader, addr uint64, names *heap.Local, out *[]SymbolEntry) error {
	cfg := r.Config()
	d, err := r.Decoder(addr, 8)
	if err != nil {
		return fmt.Errorf("symbol node at %d: %w", addr, err)
	}
	if sig := d.Bytes(4); string(sig) != "SNOD" {
		return fmt.Errorf("symbol node at %d: bad signature %q", addr, sig)
	}
	if v := d.U8(); v != 1 {
		return fmt.Errorf("symbol node at %d: unsupported version %d", addr, v)
	}
	d.Skip(1)
	count := int(d.U16())

	entrySize := 2*cfg.OffsetSize + 24
	d, err = r.Decoder(addr+8, count*entrySize)
	if err != nil {
		return fmt.Errorf("symbol node at %d: %w", addr, err)
	}
	for i := 0; i < count; i++ {
		nameOff := d.Offset()
		e := SymbolEntry{Address: d.Offset(), CacheType: d.U32()}
		d.Skip(20)
		if err := d.Err(); err != nil {
			return err
		}
		e.Name, err = names.String(nameOff)
		if err != nil {
			return err
		}
		*out = append(*out, e)
	}
	return nil
}
