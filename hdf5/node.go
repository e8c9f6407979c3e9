package hdf5

import (
	"fmt"

	"github.com/robert-malhotra/h5bind/internal/h5i"
	"github.com/robert-malhotra/h5bind/internal/h5lib"
)

// Node is the part of a Group or Dataset that carries attributes.
type Node struct {
	ID
}

// Path returns the object path, "" for an invalid handle.
func (n *Node) Path() string {
	return n.Name()
}

// HasAttribute reports whether the node has an attribute called name.
func (n *Node) HasAttribute(name string) bool {
	if !n.IsValid() {
		return false
	}
	ok, err := h5lib.AttributeExists(n.id, name)
	return err == nil && ok
}

// AttributeNames lists attribute names in creation order.
func (n *Node) AttributeNames() ([]string, error) {
	if err := n.check(); err != nil {
		return nil, err
	}
	count, err := h5lib.AttributeCount(n.id)
	if err != nil {
		return nil, native("count attributes", n.Path(), err)
	}
	names := make([]string, 0, count)
	for i := range count {
		name, err := h5lib.AttributeNameByIdx(n.id, i)
		if err != nil {
			return nil, native("attribute name", n.Path(), err)
		}
		names = append(names, name)
	}
	return names, nil
}

// openAttr opens attribute name and runs fn with its ID.
func (n *Node) openAttr(name string, fn func(attr h5i.ID) error) error {
	if err := n.check(); err != nil {
		return err
	}
	if !n.HasAttribute(name) {
		return fmt.Errorf("%w: attribute %q of %s", ErrNotFound, name, n.Path())
	}
	attr, err := h5lib.AttributeOpen(n.id, name)
	if err != nil {
		return native("open attribute", JoinAttrPath(n.Path(), name), err)
	}
	defer h5lib.AttributeClose(attr)
	return fn(attr)
}

// AttributeType returns the stored type of attribute name without reading
// its value.
func (n *Node) AttributeType(name string) (*Datatype, error) {
	var t *Datatype
	err := n.openAttr(name, func(attr h5i.ID) error {
		id, err := h5lib.AttributeGetType(attr)
		if err != nil {
			return native("attribute type", JoinAttrPath(n.Path(), name), err)
		}
		t = newDatatype(id)
		return nil
	})
	return t, err
}

// ReadAttribute reads attribute name into dst, a pointer to a numeric
// value, numeric slice, string or string slice.
func (n *Node) ReadAttribute(name string, dst any) error {
	b, err := bindTarget(dst)
	if err != nil {
		return err
	}
	return n.openAttr(name, func(attr h5i.ID) error {
		return readInto(attrIO{attr}, b, JoinAttrPath(n.Path(), name))
	})
}

// WriteAttribute writes a numeric scalar or a string to attribute name,
// creating it with a scalar shape when it does not exist. An existing
// attribute keeps its type; a value of another type is rejected.
func (n *Node) WriteAttribute(name string, v any) error {
	if err := n.check(); err != nil {
		return err
	}
	b, err := bindValue(v)
	if err != nil {
		return err
	}
	if !b.scalar() {
		return fmt.Errorf("%w: attributes hold single values, got %T", ErrUnsupportedValue, v)
	}
	target := JoinAttrPath(n.Path(), name)

	if n.HasAttribute(name) {
		return n.openAttr(name, func(attr h5i.ID) error {
			return writeFrom(attrIO{attr}, b, target)
		})
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
	attr, err := h5lib.AttributeCreate(n.id, name, dt.id, sp.id)
	if err != nil {
		return native("create attribute", target, err)
	}
	defer h5lib.AttributeClose(attr)
	return writeFrom(attrIO{attr}, b, target)
}

// DeleteAttribute removes attribute name.
func (n *Node) DeleteAttribute(name string) error {
	if err := n.check(); err != nil {
		return err
	}
	if !n.HasAttribute(name) {
		return fmt.Errorf("%w: attribute %q of %s", ErrNotFound, name, n.Path())
	}
	return native("delete attribute", JoinAttrPath(n.Path(), name), h5lib.AttributeDelete(n.id, name))
}

// AttributeValue reads attribute name as its natural Go value; see Value.
func (n *Node) AttributeValue(name string) (any, error) {
	var v any
	err := n.openAttr(name, func(attr h5i.ID) error {
		var err error
		v, err = naturalValue(attrIO{attr}, JoinAttrPath(n.Path(), name))
		return err
	})
	return v, err
}

type attributeReader interface {
	ReadAttribute(name string, dst any) error
}

// ReadAttributeAs reads attribute name of a Group or Dataset as T.
func ReadAttributeAs[T any](n attributeReader, name string) (T, error) {
	var v T
	err := n.ReadAttribute(name, &v)
	return v, err
}

// checkWrite rejects text that cannot be stored before anything is created.
func checkWrite(b binding, dt *Datatype, sp *Dataspace) error {
	tb, ok := b.(textBinding)
	if !ok {
		return nil
	}
	tr, err := dt.StringTraits()
	if err != nil {
		return err
	}
	for _, s := range tb.strings() {
		enc, err := encodeText(s, tr.Encoding)
		if err != nil {
			return err
		}
		if tr.Length != VariableLength && len(enc) >= tr.Length {
			return fmt.Errorf("%w: %d bytes for width %d", ErrCapacityExceeded, len(enc), tr.Length)
		}
	}
	return nil
}
