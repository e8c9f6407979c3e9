package hdf5

import (
	"github.com/robert-malhotra/h5bind/internal/h5i"
	"github.com/robert-malhotra/h5bind/internal/h5lib"
	"github.com/robert-malhotra/h5bind/internal/message"
)

// SpaceKind classifies a Dataspace.
type SpaceKind int

const (
	SpaceInvalid SpaceKind = iota
	SpaceNull
	SpaceScalar
	SpaceSimple
)

func (k SpaceKind) String() string {
	switch k {
	case SpaceNull:
		return "null"
	case SpaceScalar:
		return "scalar"
	case SpaceSimple:
		return "simple"
	}
	return "invalid"
}

// Dataspace is a handle to the shape of a value.
type Dataspace struct {
	ID
}

func newDataspace(id h5i.ID) *Dataspace {
	s := &Dataspace{}
	s.acquire(id, false)
	return s
}

// NewDataspace builds a shape from dims: none gives an invalid Dataspace,
// [0] a null one, [1] a scalar one and anything else a simple one.
func NewDataspace(dims ...uint64) (*Dataspace, error) {
	var (
		id  h5i.ID
		err error
	)
	switch {
	case len(dims) == 0:
		return &Dataspace{}, nil
	case len(dims) == 1 && dims[0] == 0:
		id, err = h5lib.SpaceCreate(message.SpaceNull)
	case len(dims) == 1 && dims[0] == 1:
		id, err = h5lib.SpaceCreate(message.SpaceScalar)
	default:
		id, err = h5lib.SpaceCreateSimple(dims)
	}
	if err != nil {
		return nil, native("create dataspace", "", err)
	}
	return newDataspace(id), nil
}

// ScalarDataspace returns a scalar shape.
func ScalarDataspace() (*Dataspace, error) {
	return NewDataspace(1)
}

// Kind returns the shape class, SpaceInvalid for an invalid handle.
func (s *Dataspace) Kind() SpaceKind {
	k, err := h5lib.SpaceKind(s.id)
	if err != nil {
		return SpaceInvalid
	}
	switch k {
	case message.SpaceNull:
		return SpaceNull
	case message.SpaceScalar:
		return SpaceScalar
	}
	return SpaceSimple
}

// Dimensions returns the dims NewDataspace would need to build the same
// shape: [0] for null, [1] for scalar.
func (s *Dataspace) Dimensions() ([]uint64, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	switch s.Kind() {
	case SpaceNull:
		return []uint64{0}, nil
	case SpaceScalar:
		return []uint64{1}, nil
	}
	dims, err := h5lib.SpaceDims(s.id)
	return dims, native("dataspace dims", "", err)
}

// Size returns the number of elements.
func (s *Dataspace) Size() (uint64, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	n, err := h5lib.SpaceNPoints(s.id)
	return n, native("dataspace size", "", err)
}

// Clone returns a second handle sharing the same dataspace.
func (s *Dataspace) Clone() *Dataspace {
	return &Dataspace{ID: s.ID.clone()}
}

// Assign releases s and makes it share src.
func (s *Dataspace) Assign(src *Dataspace) error {
	return s.assign(&src.ID)
}
