// Package h5i is the identifier registry of the container library.
//
// Every open resource is reached through an opaque ID carrying a type tag
// and a reference count. IDs are never reused, so a stale ID can always be
// told apart from a live one.
package h5i

import (
	"errors"
	"fmt"
	"sync"
)

// ErrInvalidID is returned for IDs that are not registered.
var ErrInvalidID = errors.New("invalid identifier")

// ID identifies one registered resource. Zero is never issued.
type ID int64

// Invalid is the zero ID.
const Invalid ID = 0

// Type is the runtime category of an ID.
type Type int

const (
	BadID Type = iota
	File
	Group
	Dataset
	Datatype
	Dataspace
	Attribute
	PropertyList
)

var typeNames = [...]string{"BadID", "File", "Group", "Dataset", "Datatype", "Dataspace", "Attribute", "PropertyList"}

func (t Type) String() string {
	if t >= 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// ReleaseFunc frees the object behind an ID once its count reaches zero.
type ReleaseFunc func(obj any) error

type entry struct {
	typ     Type
	obj     any
	refs    int
	release ReleaseFunc
}

// Registry maps IDs to objects.
type Registry struct {
	mu   sync.Mutex
	next ID
	ids  map[ID]*entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{ids: make(map[ID]*entry)}
}

// Register adds obj with a count of one.
func (r *Registry) Register(typ Type, obj any, release ReleaseFunc) ID {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	r.ids[r.next] = &entry{typ: typ, obj: obj, refs: 1, release: release}
	return r.next
}

// IncRef adds one reference and returns the new count.
func (r *Registry) IncRef(id ID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.ids[id]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrInvalidID, id)
	}
	e.refs++
	return e.refs, nil
}

// DecRef drops one reference. At zero the ID is removed and its release
// function runs; its error is returned.
func (r *Registry) DecRef(id ID) (int, error) {
	r.mu.Lock()
	e, ok := r.ids[id]
	if !ok {
		r.mu.Unlock()
		return 0, fmt.Errorf("%w: %d", ErrInvalidID, id)
	}
	e.refs--
	if e.refs > 0 {
		n := e.refs
		r.mu.Unlock()
		return n, nil
	}
	delete(r.ids, id)
	r.mu.Unlock()

	if e.release != nil {
		if err := e.release(e.obj); err != nil {
			return 0, err
		}
	}
	return 0, nil
}

// Ref returns the current count.
func (r *Registry) Ref(id ID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.ids[id]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrInvalidID, id)
	}
	return e.refs, nil
}

// TypeOf returns the category of id, or BadID.
func (r *Registry) TypeOf(id ID) Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.ids[id]; ok {
		return e.typ
	}
	return BadID
}

// IsValid reports whether id is registered.
func (r *Registry) IsValid(id ID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.ids[id]
	return ok
}

// Object returns the object behind id if it has type typ.
func (r *Registry) Object(id ID, typ Type) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.ids[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrInvalidID, id)
	}
	if e.typ != typ {
		return nil, fmt.Errorf("%w: %d is a %s, not a %s", ErrInvalidID, id, e.typ, typ)
	}
	return e.obj, nil
}

// Invalidate removes id without running its release function.
func (r *Registry) Invalidate(id ID) {
	r.mu.Lock()
	delete(r.ids, id)
	r.mu.Unlock()
}

// Len returns the number of live IDs.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ids)
}
