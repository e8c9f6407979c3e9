package h5lib

import (
	"errors"

	"github.com/robert-malhotra/h5bind/internal/h5i"
)

var (
	ErrInvalidID   = h5i.ErrInvalidID
	ErrNotFound    = errors.New("object not found")
	ErrExists      = errors.New("name already exists")
	ErrNotGroup    = errors.New("not a group")
	ErrNotDataset  = errors.New("not a dataset")
	ErrReadOnly    = errors.New("file is read-only")
	ErrClosed      = errors.New("file is closed")
	ErrMismatch    = errors.New("datatype or dataspace mismatch")
	ErrNotIndexed  = errors.New("creation order is not indexed for this group")
	ErrUnsupported = errors.New("unsupported by this library")
	ErrBadName     = errors.New("invalid object name")
)
