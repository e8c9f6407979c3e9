package hdf5

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"go.uber.org/zap"

	"github.com/robert-malhotra/h5bind/internal/h5i"
	"github.com/robert-malhotra/h5bind/internal/h5lib"
)

// Mode selects how Open treats the target path.
type Mode int

const (
	// ModeReadWrite opens an existing file for writing and creates a
	// missing one.
	ModeReadWrite Mode = iota
	// ModeReadOnly opens an existing file without write access. A missing
	// file is still created, and the new file is writable.
	ModeReadOnly
	// ModeTruncate always creates the file, discarding prior contents.
	ModeTruncate
)

func (m Mode) String() string {
	switch m {
	case ModeReadOnly:
		return "read-only"
	case ModeTruncate:
		return "truncate"
	}
	return "read-write"
}

// File is a handle to an HDF5 container file.
type File struct {
	ID
	name string
	opts *fileOptions
}

// NewFile returns a closed File for path.
func NewFile(path string, opts ...FileOption) *File {
	o := defaultFileOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &File{name: path, opts: o}
}

// Create creates or truncates path.
func Create(path string, opts ...FileOption) (*File, error) {
	f := NewFile(path, opts...)
	if err := f.Open(ModeTruncate); err != nil {
		return nil, err
	}
	return f, nil
}

// OpenFile opens path in mode.
func OpenFile(path string, mode Mode, opts ...FileOption) (*File, error) {
	f := NewFile(path, opts...)
	if err := f.Open(mode); err != nil {
		return nil, err
	}
	return f, nil
}

// IsHDF5 reports whether path exists and carries an HDF5 signature.
func IsHDF5(path string) bool {
	ok, err := h5lib.IsHDF5(path)
	return err == nil && ok
}

// FileName returns the target path.
func (f *File) FileName() string { return f.name }

// SetFileName changes the target path of a closed file.
func (f *File) SetFileName(path string) error {
	if f.IsOpen() {
		return ErrAlreadyOpen
	}
	f.name = path
	return nil
}

// IsOpen reports whether the file handle is live.
func (f *File) IsOpen() bool { return f.IsValid() }

// Open opens the target. A missing file, or any file with ModeTruncate, is
// created empty. An existing file must carry an HDF5 signature.
func (f *File) Open(mode Mode) error {
	if f.IsOpen() {
		return ErrAlreadyOpen
	}
	if f.name == "" {
		return ErrEmptyPath
	}
	if f.opts == nil {
		f.opts = defaultFileOptions()
	}
	log := f.opts.logger.With(zap.String("path", f.name), zap.Stringer("mode", mode))

	_, err := os.Stat(f.name)
	missing := errors.Is(err, fs.ErrNotExist)
	if err != nil && !missing {
		return native("stat", f.name, err)
	}

	var id h5i.ID
	switch {
	case missing || mode == ModeTruncate:
		log.Debug("creating container")
		id, err = h5lib.FileCreate(f.name, f.opts.lib())
		if err != nil {
			return native("create", f.name, err)
		}
	default:
		if !IsHDF5(f.name) {
			return fmt.Errorf("%w: %s", ErrNotHDF5, f.name)
		}
		id, err = h5lib.FileOpen(f.name, mode == ModeReadOnly, f.opts.lib())
		if err != nil {
			return native("open", f.name, err)
		}
	}
	log.Debug("container open")
	return f.acquire(id, false)
}

// Close releases the file handle. Once the last handle to the file is
// closed, pending changes are written and every group, dataset and
// attribute handle opened in it becomes invalid.
func (f *File) Close() error {
	if !f.IsOpen() {
		return nil
	}
	f.opts.logger.Debug("closing container", zap.String("path", f.name))
	return f.ID.Close()
}

// Flush writes pending changes without closing.
func (f *File) Flush() error {
	if err := f.check(); err != nil {
		return ErrClosed
	}
	return native("flush", f.name, h5lib.FileFlush(f.id))
}

// ReadOnly reports whether the file was opened without write access.
func (f *File) ReadOnly() bool {
	ro, err := h5lib.FileIsReadOnly(f.id)
	return err == nil && ro
}

// Root opens the root group, or returns an invalid Group when the file is
// not open. The caller closes it.
func (f *File) Root() *Group {
	if !f.IsOpen() {
		return &Group{}
	}
	id, err := h5lib.GroupOpen(f.id, "/")
	if err != nil {
		return &Group{}
	}
	return newGroup(id)
}

// OpenGroup opens a group by absolute path.
func (f *File) OpenGroup(path string) (*Group, error) {
	root, err := f.root()
	if err != nil {
		return nil, err
	}
	defer root.Close()
	return root.OpenGroup(path)
}

// OpenDataset opens a dataset by absolute path.
func (f *File) OpenDataset(path string) (*Dataset, error) {
	root, err := f.root()
	if err != nil {
		return nil, err
	}
	defer root.Close()
	return root.OpenDataset(path)
}

func (f *File) root() (*Group, error) {
	if !f.IsOpen() {
		return nil, ErrClosed
	}
	g := f.Root()
	if !g.IsValid() {
		return nil, ErrInvalidHandle
	}
	return g, nil
}

// ReadAttr reads an attribute by attribute path as its natural value.
//
// Examples:
//
//	val, err := f.ReadAttr("/@version")
//	val, err := f.ReadAttr("/dataset@units")
func (f *File) ReadAttr(attrPath string) (any, error) {
	objPath, name, err := ParseAttrPath(attrPath)
	if err != nil {
		return nil, err
	}
	root, err := f.root()
	if err != nil {
		return nil, err
	}
	defer root.Close()

	switch {
	case objPath == "/":
		return root.AttributeValue(name)
	case root.IsGroup(objPath):
		g, err := root.OpenGroup(objPath)
		if err != nil {
			return nil, err
		}
		defer g.Close()
		return g.AttributeValue(name)
	default:
		ds, err := root.OpenDataset(objPath)
		if err != nil {
			return nil, err
		}
		defer ds.Close()
		return ds.AttributeValue(name)
	}
}

// Clone returns a second handle to the same open file.
func (f *File) Clone() *File {
	return &File{ID: f.ID.clone(), name: f.name, opts: f.opts}
}

// Assign releases f and makes it share src.
func (f *File) Assign(src *File) error {
	if err := f.assign(&src.ID); err != nil {
		return err
	}
	f.name, f.opts = src.name, src.opts
	return nil
}
