package h5lib

import (
	"fmt"
	"slices"
	"unicode/utf8"

	"github.com/robert-malhotra/h5bind/internal/h5i"
	"github.com/robert-malhotra/h5bind/internal/message"
)

// attrRef is the object behind an attribute ID. The attribute is looked up
// by name on every call so a deleted attribute reports ErrNotFound.
type attrRef struct {
	file *fileState
	node *node
	name string
	path string
}

func attrObject(id h5i.ID) (*attrRef, error) {
	obj, err := reg.Object(id, h5i.Attribute)
	if err != nil {
		return nil, err
	}
	return obj.(*attrRef), nil
}

// attribute locks the file of attribute id and returns the attribute.
func attribute(id h5i.ID, write bool) (*node, *attr, func(), error) {
	ref, err := attrObject(id)
	if err != nil {
		return nil, nil, nil, err
	}
	fs := ref.file
	fs.mu.Lock()
	if err := fs.check(write); err != nil {
		fs.mu.Unlock()
		return nil, nil, nil, err
	}
	a := ref.node.findAttr(ref.name)
	if a == nil {
		fs.mu.Unlock()
		return nil, nil, nil, fmt.Errorf("%w: attribute %q", ErrNotFound, ref.name)
	}
	return ref.node, a, fs.mu.Unlock, nil
}

// attrOwner locks the file of a file, group or dataset ID.
func attrOwner(loc h5i.ID, write bool) (*objRef, func(), error) {
	ref, err := nodeLocation(loc)
	if err != nil {
		return nil, nil, err
	}
	fs := ref.file
	fs.mu.Lock()
	if err := fs.check(write); err != nil {
		fs.mu.Unlock()
		return nil, nil, err
	}
	return ref, fs.mu.Unlock, nil
}

// AttributeExists reports whether loc has an attribute called name.
func AttributeExists(loc h5i.ID, name string) (bool, error) {
	ref, unlock, err := attrOwner(loc, false)
	if err != nil {
		return false, err
	}
	defer unlock()
	return ref.node.findAttr(name) != nil, nil
}

// AttributeCreate adds attribute name to loc. Its elements are zero, or
// empty for variable-length strings, until written.
func AttributeCreate(loc h5i.ID, name string, typeID, spaceID h5i.ID) (h5i.ID, error) {
	if name == "" {
		return h5i.Invalid, fmt.Errorf("%w: empty attribute name", ErrBadName)
	}
	t, err := typeObject(typeID)
	if err != nil {
		return h5i.Invalid, err
	}
	sp, err := spaceObject(spaceID)
	if err != nil {
		return h5i.Invalid, err
	}
	if !supportedType(t) {
		return h5i.Invalid, fmt.Errorf("%w: attribute of type %s", ErrUnsupported, t)
	}
	ref, unlock, err := attrOwner(loc, true)
	if err != nil {
		return h5i.Invalid, err
	}
	defer unlock()
	n := ref.node
	if n.findAttr(name) != nil {
		return h5i.Invalid, fmt.Errorf("%w: attribute %q", ErrExists, name)
	}
	cs := message.CharsetASCII
	if !isASCII(name) {
		cs = message.CharsetUTF8
	}
	a := &attr{
		name:    name,
		charset: cs,
		store:   store{dtype: fileType(t, ref.file.cfg.OffsetSize), space: sp.Clone()},
	}
	a.initial()
	n.attrs = append(n.attrs, a)
	n.markDirty()
	return ref.file.register(h5i.Attribute, &attrRef{file: ref.file, node: n, name: name, path: ref.path}), nil
}

// AttributeOpen opens attribute name of loc.
func AttributeOpen(loc h5i.ID, name string) (h5i.ID, error) {
	ref, unlock, err := attrOwner(loc, false)
	if err != nil {
		return h5i.Invalid, err
	}
	defer unlock()
	if ref.node.findAttr(name) == nil {
		return h5i.Invalid, fmt.Errorf("%w: attribute %q", ErrNotFound, name)
	}
	return ref.file.register(h5i.Attribute, &attrRef{file: ref.file, node: ref.node, name: name, path: ref.path}), nil
}

// AttributeClose releases an attribute ID.
func AttributeClose(id h5i.ID) error {
	if reg.TypeOf(id) != h5i.Attribute {
		return fmt.Errorf("%w: %d is not an attribute", ErrInvalidID, id)
	}
	_, err := reg.DecRef(id)
	return err
}

// AttributeGetType returns a new ID holding a copy of the attribute's type.
func AttributeGetType(id h5i.ID) (h5i.ID, error) {
	_, a, unlock, err := attribute(id, false)
	if err != nil {
		return h5i.Invalid, err
	}
	defer unlock()
	return registerType(a.dtype.Clone()), nil
}

// AttributeGetSpace returns a new ID holding a copy of the attribute's
// dataspace.
func AttributeGetSpace(id h5i.ID) (h5i.ID, error) {
	_, a, unlock, err := attribute(id, false)
	if err != nil {
		return h5i.Invalid, err
	}
	defer unlock()
	return reg.Register(h5i.Dataspace, a.space.Clone(), nil), nil
}

// AttributeRead reads every element into buf as memType.
func AttributeRead(id, memType h5i.ID, buf []byte) error {
	mt, err := typeObject(memType)
	if err != nil {
		return err
	}
	_, a, unlock, err := attribute(id, false)
	if err != nil {
		return err
	}
	defer unlock()
	return a.read(mt, buf, a.committed)
}

// AttributeWrite replaces every element with buf.
func AttributeWrite(id, memType h5i.ID, buf []byte) error {
	mt, err := typeObject(memType)
	if err != nil {
		return err
	}
	n, a, unlock, err := attribute(id, true)
	if err != nil {
		return err
	}
	defer unlock()
	if err := a.write(mt, nil, buf); err != nil {
		return err
	}
	n.markDirty()
	return nil
}

// AttributeReadVlen returns every variable-length element in library
// buffers, released with VlenReclaim.
func AttributeReadVlen(id, memType h5i.ID) ([][]byte, error) {
	mt, err := typeObject(memType)
	if err != nil {
		return nil, err
	}
	n, a, unlock, err := attribute(id, false)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return a.readVlen(n.file, mt, a.committed)
}

// AttributeWriteVlen replaces every variable-length element.
func AttributeWriteVlen(id, memType h5i.ID, values [][]byte) error {
	mt, err := typeObject(memType)
	if err != nil {
		return err
	}
	n, a, unlock, err := attribute(id, true)
	if err != nil {
		return err
	}
	defer unlock()
	if err := a.writeVlen(mt, values); err != nil {
		return err
	}
	n.markDirty()
	return nil
}

// AttributeCount returns the number of readable attributes of loc.
func AttributeCount(loc h5i.ID) (int, error) {
	ref, unlock, err := attrOwner(loc, false)
	if err != nil {
		return 0, err
	}
	defer unlock()
	count := 0
	for _, a := range ref.node.attrs {
		if !a.opaque {
			count++
		}
	}
	return count, nil
}

// AttributeNameByIdx returns the name of the i-th attribute of loc in the
// order they are stored.
func AttributeNameByIdx(loc h5i.ID, i int) (string, error) {
	ref, unlock, err := attrOwner(loc, false)
	if err != nil {
		return "", err
	}
	defer unlock()
	k := 0
	for _, a := range ref.node.attrs {
		if a.opaque {
			continue
		}
		if k == i {
			return a.name, nil
		}
		k++
	}
	return "", fmt.Errorf("%w: attribute index %d of %d", ErrNotFound, i, k)
}

// AttributeDelete removes attribute name from loc.
func AttributeDelete(loc h5i.ID, name string) error {
	ref, unlock, err := attrOwner(loc, true)
	if err != nil {
		return err
	}
	defer unlock()
	n := ref.node
	i := slices.IndexFunc(n.attrs, func(a *attr) bool { return !a.opaque && a.name == name })
	if i < 0 {
		return fmt.Errorf("%w: attribute %q", ErrNotFound, name)
	}
	n.attrs = slices.Delete(n.attrs, i, i+1)
	n.markDirty()
	return nil
}

func (a *attr) committed() ([]byte, error) { return a.data, nil }

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
