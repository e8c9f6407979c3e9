package h5lib

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/robert-malhotra/h5bind/internal/btree"
	"github.com/robert-malhotra/h5bind/internal/heap"
	"github.com/robert-malhotra/h5bind/internal/message"
	"github.com/robert-malhotra/h5bind/internal/object"
)

type kind int

const (
	kindOther kind = iota
	kindGroup
	kindDataset
)

type link struct {
	name    string
	kind    message.LinkKind
	order   int64
	charset message.Charset
	addr    uint64
	target  []byte
	child   *node
}

// store holds the element data of a dataset or attribute. Pending values
// replace the stored ones at the next flush.
type store struct {
	dtype   *message.Datatype
	space   *message.Dataspace
	raw     []byte
	vlen    [][]byte
	pending bool
}

type attr struct {
	name    string
	charset message.Charset
	store

	// data is the committed element data; heap references for strings.
	data []byte
	// entry is the message as stored, reused while the attribute is unchanged.
	entry  *object.Entry
	opaque bool
}

type node struct {
	file    *fileState
	addr    uint64
	kind    kind
	entries []object.Entry
	dirty   bool
	writing bool
	parents []*node

	links      []*link
	trackOrder bool
	indexOrder bool
	nextOrder  int64
	dense      bool
	groupInfo  *message.GroupInfo

	attrs []*attr

	store
	layout  *message.Layout
	filters *message.FilterPipeline
}

func (fs *fileState) newGroup(track, index bool) *node {
	n := &node{
		file:       fs,
		addr:       fs.cfg.Undefined(),
		kind:       kindGroup,
		dirty:      true,
		trackOrder: track,
		indexOrder: index,
		groupInfo:  &message.GroupInfo{},
	}
	return n
}

func (fs *fileState) newDataset(dt *message.Datatype, sp *message.Dataspace) *node {
	n := &node{
		file:  fs,
		addr:  fs.cfg.Undefined(),
		kind:  kindDataset,
		dirty: true,
		store: store{dtype: dt.Clone(), space: sp.Clone()},
	}
	n.layout = message.NewContiguousLayout(fs.cfg.Undefined(), n.byteSize())
	return n
}

func (n *node) byteSize() uint64 {
	if n.dtype.VarString {
		return n.space.NumElements() * uint64(message.VlenRefSize(n.file.cfg.OffsetSize))
	}
	return n.space.NumElements() * uint64(n.dtype.Size)
}

func (n *node) markDirty() {
	if n.dirty {
		return
	}
	n.dirty = true
	for _, p := range n.parents {
		p.markDirty()
	}
}

func (n *node) addParent(p *node) {
	if !slices.Contains(n.parents, p) {
		n.parents = append(n.parents, p)
	}
	if n.dirty {
		p.markDirty()
	}
}

// node returns the object at addr, loading its header on first use.
func (fs *fileState) node(addr uint64) (*node, error) {
	if n, ok := fs.nodes[addr]; ok {
		return n, nil
	}
	h, err := object.Read(fs.r, addr)
	if err != nil {
		return nil, err
	}
	n := &node{file: fs, addr: addr, entries: h.Entries}
	switch {
	case h.Has(message.TypeDataLayout):
		n.kind = kindDataset
		if err = n.loadDataset(h); errors.Is(err, message.ErrShared) {
			// Committed datatypes are not followed.
			n.kind, err = kindOther, nil
		}
	case h.Has(message.TypeLinkInfo), h.Has(message.TypeSymbolTable), h.Has(message.TypeLink), h.Has(message.TypeGroupInfo):
		n.kind = kindGroup
		err = n.loadGroup(h)
	}
	if err == nil {
		err = n.loadAttributes(h)
	}
	if err != nil {
		return nil, fmt.Errorf("object at %d: %w", addr, err)
	}
	fs.nodes[addr] = n
	return n, nil
}

func (n *node) loadGroup(h *object.Header) error {
	fs := n.file
	if m, err := h.First(message.TypeSymbolTable); err != nil {
		return err
	} else if m != nil {
		st := m.(*message.SymbolTable)
		names, err := heap.ReadLocal(fs.r, st.LocalHeapAddress)
		if err != nil {
			return err
		}
		entries, err := btree.ReadGroup(fs.r, st.BTreeAddress, names)
		if err != nil {
			return err
		}
		for i, e := range entries {
			n.links = append(n.links, &link{name: e.Name, addr: e.Address, order: int64(i)})
		}
		n.nextOrder = int64(len(entries))
		n.groupInfo = &message.GroupInfo{}
		return nil
	}

	if m, err := h.First(message.TypeLinkInfo); err != nil {
		return err
	} else if m != nil {
		li := m.(*message.LinkInfo)
		n.trackOrder = li.TrackOrder
		n.indexOrder = li.IndexOrder
		n.nextOrder = li.MaxCreationIndex
		n.dense = li.Dense(fs.cfg)
	}
	n.groupInfo = &message.GroupInfo{}
	if m, err := h.First(message.TypeGroupInfo); err != nil {
		return err
	} else if m != nil {
		n.groupInfo = m.(*message.GroupInfo)
	}

	msgs, err := h.All(message.TypeLink)
	if err != nil {
		return err
	}
	for i, m := range msgs {
		l := m.(*message.Link)
		order := int64(i)
		if l.HasOrder {
			order = l.CreationOrder
		}
		n.links = append(n.links, &link{
			name:    l.Name,
			kind:    l.Kind,
			order:   order,
			charset: l.Charset,
			addr:    l.Address,
			target:  l.Target,
		})
		n.nextOrder = max(n.nextOrder, order+1)
	}
	slices.SortStableFunc(n.links, func(a, b *link) int { return cmp.Compare(a.order, b.order) })
	return nil
}

func (n *node) loadDataset(h *object.Header) error {
	for _, t := range []message.Type{message.TypeDatatype, message.TypeDataspace} {
		if !h.Has(t) {
			return fmt.Errorf("dataset without %s message", t)
		}
	}
	m, err := h.First(message.TypeDatatype)
	if err != nil {
		return err
	}
	n.dtype = m.(*message.Datatype)
	if m, err = h.First(message.TypeDataspace); err != nil {
		return err
	}
	n.space = m.(*message.Dataspace)
	if m, err = h.First(message.TypeDataLayout); err != nil {
		return err
	}
	n.layout = m.(*message.Layout)
	if m, err = h.First(message.TypeFilterPipeline); err != nil {
		return err
	} else if m != nil {
		n.filters = m.(*message.FilterPipeline)
	}
	return nil
}

func (n *node) loadAttributes(h *object.Header) error {
	for i := range h.Entries {
		e := &h.Entries[i]
		if e.Type != message.TypeAttribute {
			continue
		}
		m, err := e.Decode(n.file.cfg)
		if err != nil {
			// Kept as written; not listed.
			n.attrs = append(n.attrs, &attr{entry: e, opaque: true})
			continue
		}
		a := m.(*message.Attribute)
		n.attrs = append(n.attrs, &attr{
			name:    a.Name,
			charset: a.Charset,
			store:   store{dtype: a.Datatype, space: a.Dataspace},
			data:    a.Data,
			entry:   e,
		})
	}
	return nil
}

// findLink returns the link named name in group n.
func (n *node) findLink(name string) *link {
	for _, l := range n.links {
		if l.name == name {
			return l
		}
	}
	return nil
}

// child resolves a hard link to its object.
func (n *node) child(l *link) (*node, error) {
	if l.child != nil {
		return l.child, nil
	}
	if l.kind != message.LinkHard {
		return nil, fmt.Errorf("%w: %q is not a hard link", ErrUnsupported, l.name)
	}
	c, err := n.file.node(l.addr)
	if err != nil {
		return nil, err
	}
	l.child = c
	c.addParent(n)
	return c, nil
}

func (n *node) findAttr(name string) *attr {
	for _, a := range n.attrs {
		if !a.opaque && a.name == name {
			return a
		}
	}
	return nil
}

func splitPath(p string) []string {
	var out []string
	for _, s := range strings.Split(p, "/") {
		if s != "" && s != "." {
			out = append(out, s)
		}
	}
	return out
}

func joinPath(dir, name string) string {
	parts := append(splitPath(dir), splitPath(name)...)
	if strings.HasPrefix(name, "/") {
		parts = splitPath(name)
	}
	return "/" + strings.Join(parts, "/")
}

// walk follows name from group start. It returns the group holding the last
// component and that component's link, which is nil when absent.
func (fs *fileState) walk(start *node, name string) (*node, *link, error) {
	parts := splitPath(name)
	if len(parts) == 0 {
		return nil, nil, fmt.Errorf("%w: %q", ErrBadName, name)
	}
	g := start
	if strings.HasPrefix(name, "/") {
		g = fs.root
	}
	for i, part := range parts[:len(parts)-1] {
		l := g.findLink(part)
		if l == nil {
			return nil, nil, fmt.Errorf("%w: %q", ErrNotFound, "/"+strings.Join(parts[:i+1], "/"))
		}
		c, err := g.child(l)
		if err != nil {
			return nil, nil, err
		}
		if c.kind != kindGroup {
			return nil, nil, fmt.Errorf("%w: %q", ErrNotGroup, part)
		}
		g = c
	}
	return g, g.findLink(parts[len(parts)-1]), nil
}

// resolve returns the object named name relative to start. "/" and "."
// name the root and start itself.
func (fs *fileState) resolve(start *node, name string) (*node, error) {
	if len(splitPath(name)) == 0 {
		if strings.HasPrefix(name, "/") {
			return fs.root, nil
		}
		return start, nil
	}
	g, l, err := fs.walk(start, name)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return g.child(l)
}
