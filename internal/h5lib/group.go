package h5lib

import (
	"cmp"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/robert-malhotra/h5bind/internal/h5i"
	"github.com/robert-malhotra/h5bind/internal/message"
)

// IndexType selects the order links are enumerated in.
type IndexType int

const (
	IndexName IndexType = iota
	IndexCreationOrder
)

// ObjectKind is the category of a linked object.
type ObjectKind int

const (
	KindOther ObjectKind = iota
	KindGroup
	KindDataset
)

func (k ObjectKind) String() string {
	switch k {
	case KindGroup:
		return "group"
	case KindDataset:
		return "dataset"
	}
	return "other"
}

// GroupInfo describes a group's links.
type GroupInfo struct {
	NLinks           int
	TrackOrder       bool
	IndexOrder       bool
	MaxCreationOrder int64
}

// GroupCreate creates group name under loc. gcpl may be Invalid or a group
// creation property list.
func GroupCreate(loc h5i.ID, name string, gcpl h5i.ID) (h5i.ID, error) {
	var track, index bool
	if gcpl != h5i.Invalid {
		p, err := plistObject(gcpl)
		if err != nil {
			return h5i.Invalid, err
		}
		track, index = p.crtOrder&CrtOrderTracked != 0, p.crtOrder&CrtOrderIndexed != 0
	}
	ref, err := location(loc)
	if err != nil {
		return h5i.Invalid, err
	}
	fs := ref.file
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if err := fs.check(true); err != nil {
		return h5i.Invalid, err
	}
	parent, leaf, err := fs.createTarget(ref.node, name)
	if err != nil {
		return h5i.Invalid, err
	}
	g := fs.newGroup(track, index)
	if err := parent.addLink(leaf, g); err != nil {
		return h5i.Invalid, err
	}
	p := joinPath(ref.path, name)
	fs.log.Debug("group created", zap.String("name", p), zap.Bool("track_order", track))
	return fs.register(h5i.Group, &objRef{file: fs, node: g, path: p}), nil
}

// createTarget checks that name is free and its parent group exists.
func (fs *fileState) createTarget(start *node, name string) (*node, string, error) {
	parts := splitPath(name)
	if len(parts) == 0 {
		return nil, "", fmt.Errorf("%w: %q", ErrBadName, name)
	}
	parent, l, err := fs.walk(start, name)
	if err != nil {
		return nil, "", err
	}
	if l != nil {
		return nil, "", fmt.Errorf("%w: %q", ErrExists, name)
	}
	return parent, parts[len(parts)-1], nil
}

func (n *node) addLink(name string, child *node) error {
	if n.dense {
		return fmt.Errorf("%w: adding links to a group with dense link storage", ErrUnsupported)
	}
	cs := message.CharsetASCII
	if !isASCII(name) {
		cs = message.CharsetUTF8
	}
	n.links = append(n.links, &link{
		name:    name,
		kind:    message.LinkHard,
		order:   n.nextOrder,
		charset: cs,
		addr:    child.addr,
		child:   child,
	})
	n.nextOrder++
	n.markDirty()
	child.addParent(n)
	return nil
}

// GroupOpen opens the group name relative to loc.
func GroupOpen(loc h5i.ID, name string) (h5i.ID, error) {
	return openObject(loc, name, kindGroup)
}

// GroupClose releases a group ID.
func GroupClose(id h5i.ID) error {
	if reg.TypeOf(id) != h5i.Group {
		return fmt.Errorf("%w: %d is not a group", ErrInvalidID, id)
	}
	_, err := reg.DecRef(id)
	return err
}

func openObject(loc h5i.ID, name string, want kind) (h5i.ID, error) {
	ref, err := location(loc)
	if err != nil {
		return h5i.Invalid, err
	}
	fs := ref.file
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if err := fs.check(false); err != nil {
		return h5i.Invalid, err
	}
	n, err := fs.resolve(ref.node, name)
	if err != nil {
		return h5i.Invalid, err
	}
	if n.kind != want {
		if want == kindGroup {
			return h5i.Invalid, fmt.Errorf("%w: %q", ErrNotGroup, name)
		}
		return h5i.Invalid, fmt.Errorf("%w: %q", ErrNotDataset, name)
	}
	typ := h5i.Group
	if want == kindDataset {
		typ = h5i.Dataset
	}
	return fs.register(typ, &objRef{file: fs, node: n, path: joinPath(ref.path, name)}), nil
}

// GroupGetInfo reports the link count and creation order properties.
func GroupGetInfo(id h5i.ID) (GroupInfo, error) {
	ref, err := location(id)
	if err != nil {
		return GroupInfo{}, err
	}
	fs := ref.file
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if err := fs.check(false); err != nil {
		return GroupInfo{}, err
	}
	n := ref.node
	return GroupInfo{
		NLinks:           len(n.links),
		TrackOrder:       n.trackOrder,
		IndexOrder:       n.indexOrder,
		MaxCreationOrder: n.nextOrder,
	}, nil
}

// LinkExists reports whether name resolves to a link. Every intermediate
// component must exist and be a group.
func LinkExists(loc h5i.ID, name string) (bool, error) {
	ref, err := location(loc)
	if err != nil {
		return false, err
	}
	fs := ref.file
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if err := fs.check(false); err != nil {
		return false, err
	}
	if len(splitPath(name)) == 0 {
		return true, nil
	}
	_, l, err := fs.walk(ref.node, name)
	if err != nil {
		return false, err
	}
	return l != nil, nil
}

// ObjectInfo returns the kind of the object name refers to.
func ObjectInfo(loc h5i.ID, name string) (ObjectKind, error) {
	ref, err := location(loc)
	if err != nil {
		return KindOther, err
	}
	fs := ref.file
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if err := fs.check(false); err != nil {
		return KindOther, err
	}
	if len(splitPath(name)) == 0 {
		return KindGroup, nil
	}
	g, l, err := fs.walk(ref.node, name)
	if err != nil {
		return KindOther, err
	}
	if l == nil {
		return KindOther, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return g.linkKind(l)
}

func (n *node) linkKind(l *link) (ObjectKind, error) {
	if l.kind != message.LinkHard {
		return KindOther, nil
	}
	c, err := n.child(l)
	if err != nil {
		return KindOther, err
	}
	switch c.kind {
	case kindGroup:
		return KindGroup, nil
	case kindDataset:
		return KindDataset, nil
	}
	return KindOther, nil
}

// ordered returns the links of n in the requested order. Creation order
// needs a group that indexes it.
func (n *node) ordered(idx IndexType) ([]*link, error) {
	out := slices.Clone(n.links)
	switch idx {
	case IndexName:
		slices.SortFunc(out, func(a, b *link) int { return cmp.Compare(a.name, b.name) })
	case IndexCreationOrder:
		if !n.trackOrder || !n.indexOrder {
			return nil, ErrNotIndexed
		}
		slices.SortStableFunc(out, func(a, b *link) int { return cmp.Compare(a.order, b.order) })
	default:
		return nil, fmt.Errorf("unknown index type %d", idx)
	}
	return out, nil
}

func linkByIdx(loc h5i.ID, idx IndexType, i int) (*node, *link, func(), error) {
	ref, err := location(loc)
	if err != nil {
		return nil, nil, nil, err
	}
	fs := ref.file
	fs.mu.Lock()
	if err := fs.check(false); err != nil {
		fs.mu.Unlock()
		return nil, nil, nil, err
	}
	links, err := ref.node.ordered(idx)
	if err != nil {
		fs.mu.Unlock()
		return nil, nil, nil, err
	}
	if i < 0 || i >= len(links) {
		fs.mu.Unlock()
		return nil, nil, nil, fmt.Errorf("%w: link index %d of %d", ErrNotFound, i, len(links))
	}
	return ref.node, links[i], fs.mu.Unlock, nil
}

// LinkNameByIdx returns the name of the i-th link of loc in order idx.
func LinkNameByIdx(loc h5i.ID, idx IndexType, i int) (string, error) {
	_, l, unlock, err := linkByIdx(loc, idx, i)
	if err != nil {
		return "", err
	}
	defer unlock()
	return l.name, nil
}

// ObjectKindByIdx returns the kind of the i-th link's object of loc in order idx.
func ObjectKindByIdx(loc h5i.ID, idx IndexType, i int) (ObjectKind, error) {
	n, l, unlock, err := linkByIdx(loc, idx, i)
	if err != nil {
		return KindOther, err
	}
	defer unlock()
	return n.linkKind(l)
}
