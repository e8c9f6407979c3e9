// Package hdf5 binds Go values to an HDF5 container: reference-counted
// handles, element types and shapes derived from Go values, typed reads and
// writes on datasets and attributes, and ordered traversal of groups.
package hdf5

import (
	"errors"
	"fmt"
)

// Precondition errors. They are returned before the container library is
// called and leave the file untouched.
var (
	ErrAlreadyOpen      = errors.New("file is already open")
	ErrEmptyPath        = errors.New("file name is empty")
	ErrNotHDF5          = errors.New("not an HDF5 file")
	ErrExists           = errors.New("name already exists")
	ErrNotFound         = errors.New("object not found")
	ErrWrongKind        = errors.New("object has the wrong kind")
	ErrNotGroup         = fmt.Errorf("%w: not a group", ErrWrongKind)
	ErrNotDataset       = fmt.Errorf("%w: not a dataset", ErrWrongKind)
	ErrTypeMismatch     = errors.New("type mismatch")
	ErrZeroLength       = fmt.Errorf("%w: string length must be positive", ErrTypeMismatch)
	ErrUnsupportedValue = fmt.Errorf("%w: unsupported Go value", ErrTypeMismatch)
	ErrCapacityExceeded = errors.New("text does not fit the fixed string width")
	ErrInvalidHandle    = errors.New("invalid handle")
	ErrClosed           = errors.New("file is closed")
	ErrInvalidPath      = errors.New("invalid path")
)

// NativeError is a failure reported by the container library after every
// precondition passed. It is not retried.
type NativeError struct {
	Op     string
	Target string
	Err    error
}

func (e *NativeError) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("hdf5: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("hdf5: %s %s: %v", e.Op, e.Target, e.Err)
}

func (e *NativeError) Unwrap() error { return e.Err }

func native(op, target string, err error) error {
	if err == nil {
		return nil
	}
	return &NativeError{Op: op, Target: target, Err: err}
}
