package hdf5

import (
	"errors"

	"github.com/robert-malhotra/h5bind/internal/h5lib"
)

// ErrStopWalk ends Walk or WalkAttrs early without reporting an error.
var ErrStopWalk = errors.New("walk stopped")

// WalkFunc is called for each object reached by Walk. obj is a *Group or
// *Dataset that is closed after fn returns, or nil when err is set.
type WalkFunc func(path string, obj any, err error) error

// Walk visits g and every group and dataset below it, depth first in name
// order. Links to other object kinds are skipped.
//
//	hdf5.Walk(root, func(path string, obj any, err error) error {
//	    if ds, ok := obj.(*hdf5.Dataset); ok {
//	        shape, _ := ds.Shape()
//	        fmt.Println(path, shape)
//	    }
//	    return err
//	})
func Walk(g *Group, fn WalkFunc) error {
	err := walkGroup(g, fn)
	if errors.Is(err, ErrStopWalk) {
		return nil
	}
	return err
}

func walkGroup(g *Group, fn WalkFunc) error {
	if err := fn(g.Path(), g, nil); err != nil {
		return err
	}
	ms, err := g.members(false)
	if err != nil {
		return err
	}
	for _, m := range ms {
		p := g.join(m.name)
		switch m.kind {
		case h5lib.KindGroup:
			c, err := g.OpenGroup(m.name)
			if err != nil {
				if err := fn(p, nil, err); err != nil {
					return err
				}
				continue
			}
			err = walkGroup(c, fn)
			c.Close()
			if err != nil {
				return err
			}
		case h5lib.KindDataset:
			ds, err := g.OpenDataset(m.name)
			if err != nil {
				err = fn(p, nil, err)
			} else {
				err = fn(p, ds, nil)
				ds.Close()
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// AttrInfo describes one attribute reached by WalkAttrs.
type AttrInfo struct {
	// Path is the attribute path, e.g. /group/data@units.
	Path       string
	ObjectPath string
	// ObjectType is "group" or "dataset".
	ObjectType string
	Name       string
	// Value is the natural value, nil when Err is set.
	Value any
	Err   error
}

// WalkAttrsFunc is called for each attribute reached by WalkAttrs.
type WalkAttrsFunc func(info AttrInfo) error

// WalkAttrs visits every attribute of every group and dataset in the file.
func (f *File) WalkAttrs(fn WalkAttrsFunc) error {
	root, err := f.root()
	if err != nil {
		return err
	}
	defer root.Close()
	return Walk(root, func(p string, obj any, err error) error {
		if err != nil {
			return nil
		}
		var (
			n   *Node
			typ string
		)
		switch o := obj.(type) {
		case *Group:
			n, typ = &o.Node, "group"
		case *Dataset:
			n, typ = &o.Node, "dataset"
		default:
			return nil
		}
		names, err := n.AttributeNames()
		if err != nil {
			return err
		}
		for _, name := range names {
			v, err := n.AttributeValue(name)
			info := AttrInfo{
				Path:       JoinAttrPath(p, name),
				ObjectPath: p,
				ObjectType: typ,
				Name:       name,
				Value:      v,
				Err:        err,
			}
			if err := fn(info); err != nil {
				return err
			}
		}
		return nil
	})
}
