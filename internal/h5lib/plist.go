package h5lib

import (
	"fmt"

	"github.com/robert-malhotra/h5bind/internal/h5i"
)

// Link creation order flags for PlistSetLinkCreationOrder.
const (
	CrtOrderTracked = 1 << iota
	CrtOrderIndexed
)

type plist struct {
	crtOrder int
}

// PlistCreateGroup returns a group creation property list with defaults.
func PlistCreateGroup() h5i.ID {
	return reg.Register(h5i.PropertyList, &plist{}, nil)
}

func plistObject(id h5i.ID) (*plist, error) {
	obj, err := reg.Object(id, h5i.PropertyList)
	if err != nil {
		return nil, err
	}
	return obj.(*plist), nil
}

// PlistSetLinkCreationOrder sets the creation order flags. Indexing needs
// tracking.
func PlistSetLinkCreationOrder(id h5i.ID, flags int) error {
	p, err := plistObject(id)
	if err != nil {
		return err
	}
	if flags&^(CrtOrderTracked|CrtOrderIndexed) != 0 {
		return fmt.Errorf("unknown creation order flags %#x", flags)
	}
	if flags&CrtOrderIndexed != 0 && flags&CrtOrderTracked == 0 {
		return fmt.Errorf("creation order index requires tracking")
	}
	p.crtOrder = flags
	return nil
}

// PlistGetLinkCreationOrder returns the creation order flags.
func PlistGetLinkCreationOrder(id h5i.ID) (int, error) {
	p, err := plistObject(id)
	if err != nil {
		return 0, err
	}
	return p.crtOrder, nil
}

// PlistClose releases a property list ID.
func PlistClose(id h5i.ID) error {
	if reg.TypeOf(id) != h5i.PropertyList {
		return fmt.Errorf("%w: %d is not a property list", ErrInvalidID, id)
	}
	_, err := reg.DecRef(id)
	return err
}
