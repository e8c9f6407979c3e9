package h5lib

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/robert-malhotra/h5bind/internal/h5i"
	"github.com/robert-malhotra/h5bind/internal/layout"
	"github.com/robert-malhotra/h5bind/internal/message"
)

// DatasetCreate creates dataset name under loc with a file type and a
// dataspace. Its elements read as zeros until written.
func DatasetCreate(loc h5i.ID, name string, typeID, spaceID h5i.ID) (h5i.ID, error) {
	t, err := typeObject(typeID)
	if err != nil {
		return h5i.Invalid, err
	}
	sp, err := spaceObject(spaceID)
	if err != nil {
		return h5i.Invalid, err
	}
	if !supportedType(t) {
		return h5i.Invalid, fmt.Errorf("%w: dataset of type %s", ErrUnsupported, t)
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
	ds := fs.newDataset(fileType(t, fs.cfg.OffsetSize), sp)
	if err := parent.addLink(leaf, ds); err != nil {
		return h5i.Invalid, err
	}
	p := joinPath(ref.path, name)
	fs.log.Debug("dataset created", zap.String("name", p), zap.Stringer("type", ds.dtype), zap.Uint64s("dims", sp.Dims))
	return fs.register(h5i.Dataset, &objRef{file: fs, node: ds, path: p}), nil
}

// DatasetOpen opens the dataset name relative to loc.
func DatasetOpen(loc h5i.ID, name string) (h5i.ID, error) {
	return openObject(loc, name, kindDataset)
}

// DatasetClose releases a dataset ID.
func DatasetClose(id h5i.ID) error {
	if reg.TypeOf(id) != h5i.Dataset {
		return fmt.Errorf("%w: %d is not a dataset", ErrInvalidID, id)
	}
	_, err := reg.DecRef(id)
	return err
}

// dataset locks the file of dataset id. The caller must call unlock.
func dataset(id h5i.ID, write bool) (n *node, unlock func(), err error) {
	ref, err := objectRef(id, h5i.Dataset)
	if err != nil {
		return nil, nil, err
	}
	fs := ref.file
	fs.mu.Lock()
	if err := fs.check(write); err != nil {
		fs.mu.Unlock()
		return nil, nil, err
	}
	return ref.node, fs.mu.Unlock, nil
}

// DatasetGetType returns a new ID holding a copy of the dataset's type.
func DatasetGetType(id h5i.ID) (h5i.ID, error) {
	n, unlock, err := dataset(id, false)
	if err != nil {
		return h5i.Invalid, err
	}
	defer unlock()
	return registerType(n.dtype.Clone()), nil
}

// DatasetGetSpace returns a new ID holding a copy of the dataset's dataspace.
func DatasetGetSpace(id h5i.ID) (h5i.ID, error) {
	n, unlock, err := dataset(id, false)
	if err != nil {
		return h5i.Invalid, err
	}
	defer unlock()
	return reg.Register(h5i.Dataspace, n.space.Clone(), nil), nil
}

// DatasetRead reads every element into buf, converting numeric values to
// memType.
func DatasetRead(id, memType h5i.ID, buf []byte) error {
	mt, err := typeObject(memType)
	if err != nil {
		return err
	}
	n, unlock, err := dataset(id, false)
	if err != nil {
		return err
	}
	defer unlock()
	return n.read(mt, buf, n.committed)
}

// DatasetWrite replaces every element with buf. Numeric memory types are
// converted to the stored type and fixed strings are refitted to the stored
// width. memSpace is SpaceAll or a dataspace with the same number of
// elements.
func DatasetWrite(id, memType, memSpace h5i.ID, buf []byte) error {
	mt, err := typeObject(memType)
	if err != nil {
		return err
	}
	var ms *message.Dataspace
	if memSpace != SpaceAll {
		if ms, err = spaceObject(memSpace); err != nil {
			return err
		}
	}
	n, unlock, err := dataset(id, true)
	if err != nil {
		return err
	}
	defer unlock()
	if err := n.write(mt, ms, buf); err != nil {
		return err
	}
	n.markDirty()
	return nil
}

// DatasetReadVlen returns every variable-length element. The buffers belong
// to the library and go back through VlenReclaim.
func DatasetReadVlen(id, memType h5i.ID) ([][]byte, error) {
	mt, err := typeObject(memType)
	if err != nil {
		return nil, err
	}
	n, unlock, err := dataset(id, false)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return n.readVlen(n.file, mt, n.committed)
}

// DatasetWriteVlen replaces every variable-length element.
func DatasetWriteVlen(id, memType h5i.ID, values [][]byte) error {
	mt, err := typeObject(memType)
	if err != nil {
		return err
	}
	n, unlock, err := dataset(id, true)
	if err != nil {
		return err
	}
	defer unlock()
	if err := n.writeVlen(mt, values); err != nil {
		return err
	}
	n.markDirty()
	return nil
}

// committed reads the stored bytes of a dataset.
func (n *node) committed() ([]byte, error) {
	if n.space.NumElements() == 0 {
		return nil, nil
	}
	return layout.Read(n.file.r, layout.Source{
		Layout:   n.layout,
		Filters:  n.filters,
		Dims:     n.space.Dims,
		ElemSize: int(n.dtype.Size),
	})
}
