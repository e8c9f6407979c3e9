// Package browse builds a read-only tree of the groups and datasets in a
// container file and renders their values as text.
package browse

import (
	"errors"
	"fmt"
	"strings"

	"github.com/robert-malhotra/h5bind/hdf5"
)

// Class is the Class column of a tree node.
type Class int

const (
	ClassOther Class = iota
	ClassGroup
	ClassDataset
)

func (c Class) String() string {
	switch c {
	case ClassGroup:
		return "Group"
	case ClassDataset:
		return "Dataset"
	}
	return ""
}

// Headers are the column titles of a listing.
var Headers = []string{"Name", "Class"}

// Node is one object in the tree.
type Node struct {
	Name     string
	Path     string
	Class    Class
	Parent   *Node
	Children []*Node
}

// Columns returns the Name and Class cells of n.
func (n *Node) Columns() []string {
	return []string{n.Name, n.Class.String()}
}

// Row returns the index of n among its siblings, -1 for the root.
func (n *Node) Row() int {
	if n.Parent == nil {
		return -1
	}
	for i, c := range n.Parent.Children {
		if c == n {
			return i
		}
	}
	return -1
}

// Child returns the child called name, or nil.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Find resolves an absolute path, or a path relative to n.
func (n *Node) Find(path string) *Node {
	cur := n
	if strings.HasPrefix(path, "/") {
		for cur.Parent != nil {
			cur = cur.Parent
		}
	}
	for _, part := range hdf5.SplitPath(path) {
		switch part {
		case ".":
			continue
		case "..":
			if cur.Parent != nil {
				cur = cur.Parent
			}
			continue
		}
		if cur = cur.Child(part); cur == nil {
			return nil
		}
	}
	return cur
}

// Model is an open file and the tree populated from it.
type Model struct {
	file     *hdf5.File
	root     *Node
	crtOrder bool
}

// ErrNotHDF5 is returned by Open for files without an HDF5 signature.
var ErrNotHDF5 = hdf5.ErrNotHDF5

// Open opens path read-only and populates the tree. With crtOrder, members
// of groups that track creation order are listed in that order.
func Open(path string, crtOrder bool, opts ...hdf5.FileOption) (*Model, error) {
	if !hdf5.IsHDF5(path) {
		return nil, fmt.Errorf("%w: %s", ErrNotHDF5, path)
	}
	f, err := hdf5.OpenFile(path, hdf5.ModeReadOnly, opts...)
	if err != nil {
		return nil, err
	}
	m := &Model{file: f, crtOrder: crtOrder}
	if err := m.Reload(); err != nil {
		f.Close()
		return nil, err
	}
	return m, nil
}

// Reload rebuilds the tree from the file.
func (m *Model) Reload() error {
	root := m.file.Root()
	if !root.IsValid() {
		return hdf5.ErrClosed
	}
	defer root.Close()
	n := &Node{Name: "/", Path: "/", Class: ClassGroup}
	if err := m.populate(root, n); err != nil {
		return err
	}
	m.root = n
	return nil
}

// populate adds the child groups of g, then its datasets.
func (m *Model) populate(g *hdf5.Group, n *Node) error {
	groups, err := g.GroupNames(m.crtOrder)
	if err != nil {
		return err
	}
	for _, name := range groups {
		c, err := g.OpenGroup(name)
		if err != nil {
			return err
		}
		child := &Node{Name: name, Path: c.Path(), Class: ClassGroup, Parent: n}
		err = m.populate(c, child)
		c.Close()
		if err != nil {
			return err
		}
		n.Children = append(n.Children, child)
	}

	datasets, err := g.DatasetNames(m.crtOrder)
	if err != nil {
		return err
	}
	for _, name := range datasets {
		n.Children = append(n.Children, &Node{
			Name:   name,
			Path:   joinPath(n.Path, name),
			Class:  ClassDataset,
			Parent: n,
		})
	}
	return nil
}

func joinPath(dir, name string) string {
	return hdf5.CleanPath(dir + "/" + name)
}

// Root returns the root node.
func (m *Model) Root() *Node { return m.root }

// File returns the underlying file.
func (m *Model) File() *hdf5.File { return m.file }

// Close releases the file. The tree stays readable.
func (m *Model) Close() error {
	if m.file == nil {
		return nil
	}
	return m.file.Close()
}

// errNoNode is returned when a node is nil or no longer in the file.
var errNoNode = errors.New("no such node")
