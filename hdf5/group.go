package hdf5

import (
	"errors"
	"fmt"
	"path"

	"github.com/robert-malhotra/h5bind/internal/h5i"
	"github.com/robert-malhotra/h5bind/internal/h5lib"
)

// Group is a handle to a container of named groups and datasets.
type Group struct {
	Node
}

func newGroup(id h5i.ID) *Group {
	g := &Group{}
	g.acquire(id, false)
	return g
}

// Exists reports whether name resolves to an object. Names may be slash
// separated paths relative to g or absolute.
func (g *Group) Exists(name string) bool {
	if !g.IsValid() {
		return false
	}
	ok, err := h5lib.LinkExists(g.id, name)
	return err == nil && ok
}

func (g *Group) kind(name string) h5lib.ObjectKind {
	if !g.Exists(name) {
		return h5lib.KindOther
	}
	k, err := h5lib.ObjectInfo(g.id, name)
	if err != nil {
		return h5lib.KindOther
	}
	return k
}

// IsGroup reports whether name exists and is a group.
func (g *Group) IsGroup(name string) bool { return g.kind(name) == h5lib.KindGroup }

// IsDataset reports whether name exists and is a dataset.
func (g *Group) IsDataset(name string) bool { return g.kind(name) == h5lib.KindDataset }

// TracksCreationOrder reports whether the group was created with creation
// order tracking and indexing.
func (g *Group) TracksCreationOrder() (bool, error) {
	if err := g.check(); err != nil {
		return false, err
	}
	info, err := h5lib.GroupGetInfo(g.id)
	if err != nil {
		return false, native("group info", g.Path(), err)
	}
	return info.TrackOrder && info.IndexOrder, nil
}

// CreateGroup creates a new group. With trackOrder the group records the
// creation order of its links; this can only be chosen at creation.
func (g *Group) CreateGroup(name string, trackOrder bool) (*Group, error) {
	if err := g.precreate(name); err != nil {
		return nil, err
	}
	gcpl := h5i.Invalid
	if trackOrder {
		gcpl = h5lib.PlistCreateGroup()
		defer h5lib.PlistClose(gcpl)
		if err := h5lib.PlistSetLinkCreationOrder(gcpl, h5lib.CrtOrderTracked|h5lib.CrtOrderIndexed); err != nil {
			return nil, native("set creation order", name, err)
		}
	}
	id, err := h5lib.GroupCreate(g.id, name, gcpl)
	if err != nil {
		return nil, native("create group", g.join(name), err)
	}
	return newGroup(id), nil
}

// precreate checks that name is free and its parent is a group.
func (g *Group) precreate(name string) error {
	if err := g.check(); err != nil {
		return err
	}
	parts := SplitPath(name)
	if len(parts) == 0 {
		return fmt.Errorf("%w: %q", ErrInvalidPath, name)
	}
	if g.Exists(name) {
		return fmt.Errorf("%w: %s", ErrExists, g.join(name))
	}
	if parent := path.Dir(path.Clean("/" + name)); parent != "/" {
		rel := parent
		if !path.IsAbs(name) {
			rel = parent[1:]
		}
		if !g.Exists(rel) {
			return fmt.Errorf("%w: parent of %s", ErrNotFound, g.join(name))
		}
		if !g.IsGroup(rel) {
			return fmt.Errorf("%w: parent of %s", ErrNotGroup, g.join(name))
		}
	}
	return nil
}

func (g *Group) join(name string) string {
	if path.IsAbs(name) {
		return path.Clean(name)
	}
	return path.Join(g.Path(), name)
}

// OpenGroup opens the group name.
func (g *Group) OpenGroup(name string) (*Group, error) {
	if err := g.check(); err != nil {
		return nil, err
	}
	switch {
	case !g.Exists(name) && len(SplitPath(name)) > 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, g.join(name))
	case len(SplitPath(name)) > 0 && !g.IsGroup(name):
		return nil, fmt.Errorf("%w: %s", ErrNotGroup, g.join(name))
	}
	id, err := h5lib.GroupOpen(g.id, name)
	if err != nil {
		return nil, native("open group", g.join(name), err)
	}
	return newGroup(id), nil
}

// OpenDataset opens the dataset name.
func (g *Group) OpenDataset(name string) (*Dataset, error) {
	if err := g.check(); err != nil {
		return nil, err
	}
	if !g.Exists(name) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, g.join(name))
	}
	if !g.IsDataset(name) {
		return nil, fmt.Errorf("%w: %s", ErrNotDataset, g.join(name))
	}
	id, err := h5lib.DatasetOpen(g.id, name)
	if err != nil {
		return nil, native("open dataset", g.join(name), err)
	}
	return newDataset(id), nil
}

// CreateDataset creates dataset name with a fixed shape and element type.
// Its elements read as zero until written.
func (g *Group) CreateDataset(name string, space *Dataspace, dtype *Datatype) (*Dataset, error) {
	if err := g.precreate(name); err != nil {
		return nil, err
	}
	if err := space.check(); err != nil {
		return nil, fmt.Errorf("dataspace: %w", err)
	}
	if err := dtype.check(); err != nil {
		return nil, fmt.Errorf("datatype: %w", err)
	}
	if dtype.Class() == ClassUnsupported {
		return nil, fmt.Errorf("%w: dataset of %s", ErrTypeMismatch, dtype)
	}
	id, err := h5lib.DatasetCreate(g.id, name, dtype.id, space.id)
	if err != nil {
		return nil, native("create dataset", g.join(name), err)
	}
	return newDataset(id), nil
}

// Write stores v in dataset name. An existing dataset must accept v's type
// and shape; otherwise a dataset is created from them.
func (g *Group) Write(name string, v any) error {
	if err := g.check(); err != nil {
		return err
	}
	if g.Exists(name) {
		ds, err := g.OpenDataset(name)
		if err != nil {
			return err
		}
		defer ds.Close()
		return ds.Write(v)
	}

	b, err := bindValue(v)
	if err != nil {
		return err
	}
	dt, err := b.datatype()
	if err != nil {
		return err
	}
	defer dt.Close()
	sp, err := b.dataspace()
	if err != nil {
		return err
	}
	defer sp.Close()
	if err := checkWrite(b, dt, sp); err != nil {
		return err
	}
	ds, err := g.CreateDataset(name, sp, dt)
	if err != nil {
		return err
	}
	defer ds.Close()
	return writeFrom(datasetIO{ds.id}, b, ds.Path())
}

// Read reads dataset name into dst; see Dataset.Read.
func (g *Group) Read(name string, dst any) error {
	ds, err := g.OpenDataset(name)
	if err != nil {
		return err
	}
	defer ds.Close()
	return ds.Read(dst)
}

// ReadAs reads dataset name of g as T.
func ReadAs[T any](g *Group, name string) (T, error) {
	var v T
	err := g.Read(name, &v)
	return v, err
}

// member is one link of a group with the kind of its object.
type member struct {
	name string
	kind h5lib.ObjectKind
}

// members lists the links of g. Name order is the default; creation order
// is used when asked for and the group indexes it.
func (g *Group) members(crtOrder bool) ([]member, error) {
	if err := g.check(); err != nil {
		return nil, err
	}
	info, err := h5lib.GroupGetInfo(g.id)
	if err != nil {
		return nil, native("group info", g.Path(), err)
	}
	idx := h5lib.IndexName
	if crtOrder && info.TrackOrder && info.IndexOrder {
		idx = h5lib.IndexCreationOrder
	}
	out := make([]member, 0, info.NLinks)
	for i := range info.NLinks {
		name, err := h5lib.LinkNameByIdx(g.id, idx, i)
		if err != nil {
			return nil, native("link name", g.Path(), err)
		}
		k, err := h5lib.ObjectKindByIdx(g.id, idx, i)
		if err != nil {
			return nil, native("link kind", g.join(name), err)
		}
		out = append(out, member{name: name, kind: k})
	}
	return out, nil
}

func (g *Group) names(crtOrder bool, kind h5lib.ObjectKind) ([]string, error) {
	ms, err := g.members(crtOrder)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, m := range ms {
		if m.kind == kind {
			out = append(out, m.name)
		}
	}
	return out, nil
}

// GroupNames lists the names of child groups.
func (g *Group) GroupNames(crtOrder bool) ([]string, error) {
	return g.names(crtOrder, h5lib.KindGroup)
}

// DatasetNames lists the names of child datasets.
func (g *Group) DatasetNames(crtOrder bool) ([]string, error) {
	return g.names(crtOrder, h5lib.KindDataset)
}

// Members lists the names of every link, whatever it points at.
func (g *Group) Members(crtOrder bool) ([]string, error) {
	ms, err := g.members(crtOrder)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.name
	}
	return out, nil
}

// SubGroups opens every child group. The caller closes them.
func (g *Group) SubGroups(crtOrder bool) ([]*Group, error) {
	names, err := g.GroupNames(crtOrder)
	if err != nil {
		return nil, err
	}
	out := make([]*Group, 0, len(names))
	for _, name := range names {
		c, err := g.OpenGroup(name)
		if err != nil {
			CloseAll(out)
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Datasets opens every child dataset. The caller closes them.
func (g *Group) Datasets(crtOrder bool) ([]*Dataset, error) {
	names, err := g.DatasetNames(crtOrder)
	if err != nil {
		return nil, err
	}
	out := make([]*Dataset, 0, len(names))
	for _, name := range names {
		d, err := g.OpenDataset(name)
		if err != nil {
			CloseAll(out)
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// Clone returns a second handle to the same group.
func (g *Group) Clone() *Group {
	return &Group{Node{ID: g.ID.clone()}}
}

// Assign releases g and makes it share src.
func (g *Group) Assign(src *Group) error {
	return g.assign(&src.ID)
}

type closer interface{ Close() error }

// CloseAll closes every handle in hs and joins the errors.
func CloseAll[T closer](hs []T) error {
	var errs []error
	for _, h := range hs {
		errs = append(errs, h.Close())
	}
	return errors.Join(errs...)
}
