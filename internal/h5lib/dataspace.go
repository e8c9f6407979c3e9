package h5lib

import (
	"fmt"

	"github.com/robert-malhotra/h5bind/internal/h5i"
	"github.com/robert-malhotra/h5bind/internal/message"
)

// SpaceAll selects the whole dataspace of the target in DatasetWrite.
const SpaceAll h5i.ID = h5i.Invalid

// SpaceCreate returns a scalar or null dataspace.
func SpaceCreate(kind message.SpaceKind) (h5i.ID, error) {
	var sp *message.Dataspace
	switch kind {
	case message.SpaceScalar:
		sp = message.NewScalarDataspace()
	case message.SpaceNull:
		sp = message.NewNullDataspace()
	default:
		return h5i.Invalid, fmt.Errorf("SpaceCreate: use SpaceCreateSimple for %s", kind)
	}
	return reg.Register(h5i.Dataspace, sp, nil), nil
}

// SpaceCreateSimple returns a simple dataspace with fixed dims.
func SpaceCreateSimple(dims []uint64) (h5i.ID, error) {
	if len(dims) == 0 {
		return h5i.Invalid, fmt.Errorf("simple dataspace needs at least one dimension")
	}
	return reg.Register(h5i.Dataspace, message.NewSimpleDataspace(dims...), nil), nil
}

func spaceObject(id h5i.ID) (*message.Dataspace, error) {
	obj, err := reg.Object(id, h5i.Dataspace)
	if err != nil {
		return nil, err
	}
	return obj.(*message.Dataspace), nil
}

// SpaceKind returns the kind of a dataspace.
func SpaceKind(id h5i.ID) (message.SpaceKind, error) {
	sp, err := spaceObject(id)
	if err != nil {
		return 0, err
	}
	return sp.Kind, nil
}

// SpaceDims returns a copy of the current dimensions.
func SpaceDims(id h5i.ID) ([]uint64, error) {
	sp, err := spaceObject(id)
	if err != nil {
		return nil, err
	}
	return append([]uint64(nil), sp.Dims...), nil
}

// SpaceNPoints returns the number of elements.
func SpaceNPoints(id h5i.ID) (uint64, error) {
	sp, err := spaceObject(id)
	if err != nil {
		return 0, err
	}
	return sp.NumElements(), nil
}

// SpaceClose releases a dataspace ID.
func SpaceClose(id h5i.ID) error {
	if reg.TypeOf(id) != h5i.Dataspace {
		return fmt.Errorf("%w: %d is not a dataspace", ErrInvalidID, id)
	}
	_, err := reg.DecRef(id)
	return err
}
