package h5lib

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/robert-malhotra/h5bind/internal/h5i"
)

var reg = h5i.NewRegistry()

// Registry exposes the ID table for validity, type and count queries.
func Registry() *h5i.Registry { return reg }

// DefaultHeapCacheSize is the number of global heap collections kept per file.
const DefaultHeapCacheSize = 64

// Options configure FileCreate and FileOpen.
type Options struct {
	Logger        *zap.Logger
	HeapCacheSize int
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.HeapCacheSize <= 0 {
		o.HeapCacheSize = DefaultHeapCacheSize
	}
	return o
}

// objRef is the object behind a group or dataset ID.
type objRef struct {
	file *fileState
	node *node
	path string
}

// ObjectClose releases any ID through its reference count.
func ObjectClose(id h5i.ID) error {
	_, err := reg.DecRef(id)
	return err
}

// ObjectName returns the path an object was opened under. Files report "/".
func ObjectName(id h5i.ID) (string, error) {
	switch reg.TypeOf(id) {
	case h5i.File:
		return "/", nil
	case h5i.Group, h5i.Dataset:
		ref, err := objectRef(id, reg.TypeOf(id))
		if err != nil {
			return "", err
		}
		return ref.path, nil
	case h5i.Attribute:
		a, err := attrObject(id)
		if err != nil {
			return "", err
		}
		return a.path, nil
	case h5i.BadID:
		return "", fmt.Errorf("%w: %d", ErrInvalidID, id)
	}
	return "", nil
}

func objectRef(id h5i.ID, typ h5i.Type) (*objRef, error) {
	obj, err := reg.Object(id, typ)
	if err != nil {
		return nil, err
	}
	return obj.(*objRef), nil
}

// location resolves a file or group ID to the group it names.
func location(id h5i.ID) (*objRef, error) {
	switch reg.TypeOf(id) {
	case h5i.File:
		fs, err := fileObject(id)
		if err != nil {
			return nil, err
		}
		return &objRef{file: fs, node: fs.root, path: "/"}, nil
	case h5i.Group:
		return objectRef(id, h5i.Group)
	}
	return nil, fmt.Errorf("%w: %d is not a file or group", ErrInvalidID, id)
}

// nodeLocation resolves a file, group or dataset ID for attribute access.
func nodeLocation(id h5i.ID) (*objRef, error) {
	if reg.TypeOf(id) == h5i.Dataset {
		return objectRef(id, h5i.Dataset)
	}
	return location(id)
}

// register issues an ID for an object inside fs. The file forgets it on
// release and invalidates it when the file closes.
func (fs *fileState) register(typ h5i.Type, obj any) h5i.ID {
	var id h5i.ID
	id = reg.Register(typ, obj, func(any) error {
		fs.untrack(id)
		return nil
	})
	fs.track(id)
	return id
}

func (fs *fileState) track(id h5i.ID) {
	fs.idMu.Lock()
	fs.ids[id] = struct{}{}
	fs.idMu.Unlock()
}

func (fs *fileState) untrack(id h5i.ID) {
	fs.idMu.Lock()
	delete(fs.ids, id)
	fs.idMu.Unlock()
}
