package hdf5

import (
	"github.com/robert-malhotra/h5bind/internal/h5i"
	"github.com/robert-malhotra/h5bind/internal/h5lib"
)

// Category is the runtime kind of the resource behind a handle.
type Category int

const (
	CategoryInvalid Category = iota
	CategoryFile
	CategoryGroup
	CategoryDataset
	CategoryDatatype
	CategoryDataspace
	CategoryAttribute
	CategoryOther
)

func (c Category) String() string {
	switch c {
	case CategoryFile:
		return "file"
	case CategoryGroup:
		return "group"
	case CategoryDataset:
		return "dataset"
	case CategoryDatatype:
		return "datatype"
	case CategoryDataspace:
		return "dataspace"
	case CategoryAttribute:
		return "attribute"
	case CategoryOther:
		return "other"
	}
	return "invalid"
}

// ID owns one reference to a resource of the container library. The zero
// value is an invalid handle.
//
// A Go copy of an ID shares its reference; use the Clone method of the
// typed handle for a second owner. Owners call Close.
type ID struct {
	id h5i.ID
}

// acquire adopts id. With incRef the handle takes a new reference, otherwise
// it takes over the one the caller holds.
func (h *ID) acquire(id h5i.ID, incRef bool) error {
	if incRef {
		if _, err := h5lib.Registry().IncRef(id); err != nil {
			return ErrInvalidHandle
		}
	}
	h.id = id
	return nil
}

// IsValid asks the library whether the handle still names a live resource.
// A file close invalidates every handle opened under it.
func (h *ID) IsValid() bool {
	return h.id != h5i.Invalid && h5lib.Registry().IsValid(h.id)
}

func (h *ID) check() error {
	if !h.IsValid() {
		return ErrInvalidHandle
	}
	return nil
}

// Category queries the runtime kind of the resource.
func (h *ID) Category() Category {
	switch h5lib.Registry().TypeOf(h.id) {
	case h5i.File:
		return CategoryFile
	case h5i.Group:
		return CategoryGroup
	case h5i.Dataset:
		return CategoryDataset
	case h5i.Datatype:
		return CategoryDatatype
	case h5i.Dataspace:
		return CategoryDataspace
	case h5i.Attribute:
		return CategoryAttribute
	case h5i.BadID:
		return CategoryInvalid
	}
	return CategoryOther
}

// RefCount returns the live reference count, or 0 for an invalid handle.
func (h *ID) RefCount() int {
	n, err := h5lib.Registry().Ref(h.id)
	if err != nil {
		return 0
	}
	return n
}

// Name returns the path the object was opened under, or "" when the handle
// is invalid.
func (h *ID) Name() string {
	if !h.IsValid() {
		return ""
	}
	name, err := h5lib.ObjectName(h.id)
	if err != nil {
		return ""
	}
	return name
}

// Close releases the handle's reference through the release function of its
// category. Closing an invalid handle does nothing.
func (h *ID) Close() error {
	if !h.IsValid() {
		h.id = h5i.Invalid
		return nil
	}
	id := h.id
	h.id = h5i.Invalid

	var err error
	switch h5lib.Registry().TypeOf(id) {
	case h5i.File:
		err = h5lib.FileClose(id)
	case h5i.Group:
		err = h5lib.GroupClose(id)
	case h5i.Dataset:
		err = h5lib.DatasetClose(id)
	case h5i.Datatype:
		err = h5lib.TypeClose(id)
	case h5i.Dataspace:
		err = h5lib.SpaceClose(id)
	case h5i.Attribute:
		err = h5lib.AttributeClose(id)
	default:
		err = h5lib.ObjectClose(id)
	}
	return native("close", "", err)
}

// clone returns a second owner of the same resource.
func (h *ID) clone() ID {
	var c ID
	if h.IsValid() && c.acquire(h.id, true) == nil {
		return c
	}
	return ID{}
}

// assign releases the receiver, then takes a new reference to src.
func (h *ID) assign(src *ID) error {
	if h == src || (h.id == src.id && h.IsValid()) {
		return nil
	}
	if err := h.Close(); err != nil {
		return err
	}
	if !src.IsValid() {
		return nil
	}
	return h.acquire(src.id, true)
}
