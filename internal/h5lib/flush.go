package h5lib

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/robert-malhotra/h5bind/internal/message"
	"github.com/robert-malhotra/h5bind/internal/object"
)

// fillValueDefault is a version 3 fill value message with the fill time
// "if set" and no user value.
var fillValueDefault = []byte{3, 0x0A}

// flush writes every dirty object after the current end of file, children
// before parents, and then the superblock.
func (fs *fileState) flush() error {
	if fs.readOnly || fs.closed || !fs.root.dirty {
		return nil
	}
	if err := fs.write(fs.root); err != nil {
		return err
	}
	sb := fs.sb
	sb.Version = 2
	sb.Flags = 0
	sb.BaseAddress = uint64(fs.base)
	sb.RootAddress = fs.root.addr
	sb.EOFAddress = fs.alloc.EOF()
	if _, err := fs.f.WriteAt(sb.Encode(), sb.Location); err != nil {
		return err
	}
	if err := fs.f.Sync(); err != nil {
		return err
	}
	st := fs.alloc.Stats()
	fs.log.Debug("file flushed",
		zap.Uint64("root", sb.RootAddress),
		zap.Uint64("eof", sb.EOFAddress),
		zap.Uint64("garbage", st.Garbage))
	return nil
}

// write stores n and its dirty descendants under new addresses.
func (fs *fileState) write(n *node) error {
	if !n.dirty {
		return nil
	}
	if n.writing {
		return fmt.Errorf("%w: hard link cycle through object %d", ErrUnsupported, n.addr)
	}
	n.writing = true
	defer func() { n.writing = false }()

	var (
		entries  []object.Entry
		minChunk int
		commit   func()
		err      error
	)
	switch n.kind {
	case kindGroup:
		for _, l := range n.links {
			if l.child == nil {
				continue
			}
			if err := fs.write(l.child); err != nil {
				return err
			}
			l.addr = l.child.addr
		}
		entries, err = n.groupEntries()
		minChunk = object.MinGroupChunk
	case kindDataset:
		entries, commit, err = n.datasetEntries()
	default:
		entries = passthrough(n.entries, message.TypeAttribute)
	}
	if err != nil {
		return err
	}
	attrs, commitAttrs, err := n.attributeEntries()
	if err != nil {
		return err
	}
	entries = append(entries, attrs...)

	buf, err := object.Encode(entries, minChunk, fs.cfg)
	if err != nil {
		return err
	}
	addr := fs.alloc.Alloc(uint64(len(buf)))
	if err := fs.writeAt(addr, buf); err != nil {
		return err
	}
	if commit != nil {
		commit()
	}
	commitAttrs()

	// The old address stays mapped for objects reached through links that
	// were loaded before this flush.
	fs.nodes[addr] = n
	n.addr = addr
	n.entries = entries
	n.dirty = false
	return nil
}

func passthrough(entries []object.Entry, drop ...message.Type) []object.Entry {
	var out []object.Entry
outer:
	for _, e := range entries {
		for _, t := range drop {
			if e.Type == t {
				continue outer
			}
		}
		out = append(out, e)
	}
	return out
}

func (n *node) groupEntries() ([]object.Entry, error) {
	if n.dense {
		return nil, fmt.Errorf("%w: rewriting a group with dense link storage", ErrUnsupported)
	}
	cfg := n.file.cfg
	li := message.NewLinkInfo(n.trackOrder, cfg)
	li.IndexOrder = n.indexOrder
	li.MaxCreationIndex = n.nextOrder

	entries := []object.Entry{object.EntryOf(li, cfg), object.EntryOf(n.groupInfo, cfg)}
	entries = append(entries, passthrough(n.entries,
		message.TypeLinkInfo, message.TypeGroupInfo, message.TypeLink,
		message.TypeSymbolTable, message.TypeAttribute)...)
	for _, l := range n.links {
		entries = append(entries, object.EntryOf(&message.Link{
			Name:          l.name,
			Kind:          l.kind,
			CreationOrder: l.order,
			HasOrder:      n.trackOrder,
			Charset:       l.charset,
			Address:       l.addr,
			Target:        l.target,
		}, cfg))
	}
	return entries, nil
}

// datasetEntries builds the header of a dataset. Pending data is written
// to a new contiguous block; commit installs it once the header is stored.
func (n *node) datasetEntries() ([]object.Entry, func(), error) {
	fs := n.file
	cfg := fs.cfg
	lay := n.layout
	if n.pending {
		data, err := n.encoded(fs)
		if err != nil {
			return nil, nil, err
		}
		addr := cfg.Undefined()
		if len(data) > 0 {
			addr = fs.alloc.Alloc(uint64(len(data)))
			if err := fs.writeAt(addr, data); err != nil {
				return nil, nil, err
			}
		}
		lay = message.NewContiguousLayout(addr, uint64(len(data)))
	}

	var entries []object.Entry
	if len(n.entries) == 0 {
		entries = []object.Entry{
			object.EntryOf(n.space, cfg),
			object.EntryOf(n.dtype, cfg),
			{Type: message.TypeFillValue, Flags: message.FlagConstant, Data: fillValueDefault},
		}
	} else if n.pending {
		entries = passthrough(n.entries, message.TypeAttribute, message.TypeDataLayout, message.TypeFilterPipeline)
	} else {
		return passthrough(n.entries, message.TypeAttribute), nil, nil
	}
	entries = append(entries, object.EntryOf(lay, cfg))

	commit := func() {
		old := n.layout
		if n.pending && old != nil && old.Class == message.LayoutContiguous && !cfg.IsUndefined(old.Address) {
			fs.alloc.Release(old.Size)
		}
		if n.pending {
			n.filters = nil
		}
		n.layout = lay
		n.raw, n.vlen, n.pending = nil, nil, false
	}
	return entries, commit, nil
}

// attributeEntries encodes the attributes of n in order. Unchanged ones
// keep their stored bytes.
func (n *node) attributeEntries() ([]object.Entry, func(), error) {
	fs := n.file
	entries := make([]object.Entry, 0, len(n.attrs))
	type change struct {
		a     *attr
		data  []byte
		entry *object.Entry
	}
	var changes []change
	for _, a := range n.attrs {
		if a.entry != nil && !a.pending {
			entries = append(entries, *a.entry)
			continue
		}
		data, err := a.encoded(fs)
		if err != nil {
			return nil, nil, err
		}
		e := object.EntryOf(&message.Attribute{
			Name:      a.name,
			Charset:   a.charset,
			Datatype:  a.dtype,
			Dataspace: a.space,
			Data:      data,
		}, fs.cfg)
		entries = append(entries, e)
		changes = append(changes, change{a: a, data: data, entry: &e})
	}
	commit := func() {
		for _, c := range changes {
			c.a.data = c.data
			c.a.entry = c.entry
			c.a.raw, c.a.vlen, c.a.pending = nil, nil, false
		}
	}
	return entries, commit, nil
}
