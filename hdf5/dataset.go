package hdf5

import (
	"fmt"

	"github.com/robert-malhotra/h5bind/internal/h5i"
	"github.com/robert-malhotra/h5bind/internal/h5lib"
)

// Dataset is a handle to a typed, shaped array of elements.
type Dataset struct {
	Node
}

func newDataset(id h5i.ID) *Dataset {
	d := &Dataset{}
	d.acquire(id, false)
	return d
}

// Datatype returns the stored element type. The caller closes it.
func (d *Dataset) Datatype() (*Datatype, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	id, err := h5lib.DatasetGetType(d.id)
	if err != nil {
		return nil, native("get type", d.Path(), err)
	}
	return newDatatype(id), nil
}

// Dataspace returns the stored shape. The caller closes it.
func (d *Dataset) Dataspace() (*Dataspace, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	id, err := h5lib.DatasetGetSpace(d.id)
	if err != nil {
		return nil, native("get space", d.Path(), err)
	}
	return newDataspace(id), nil
}

// Shape returns the dimensions, nil for scalar and null datasets.
func (d *Dataset) Shape() ([]uint64, error) {
	sp, err := d.Dataspace()
	if err != nil {
		return nil, err
	}
	defer sp.Close()
	if sp.Kind() != SpaceSimple {
		return nil, nil
	}
	return sp.Dimensions()
}

// Write replaces the dataset's elements with v: a numeric value or slice
// of the stored type, a string or a string slice. Text is stored fixed or
// variable following the dataset's own string type.
func (d *Dataset) Write(v any) error {
	if err := d.check(); err != nil {
		return err
	}
	b, err := bindValue(v)
	if err != nil {
		return err
	}
	return writeFrom(datasetIO{d.id}, b, d.Path())
}

// WriteWith writes a numeric value with an explicit memory shape and type.
// The memory elements are reinterpreted as memtype and converted to the
// stored type. memspace may be nil for the dataset's own shape; otherwise it
// must hold as many elements as the dataset, since partial selections are
// not supported.
func (d *Dataset) WriteWith(v any, memspace *Dataspace, memtype *Datatype) error {
	if err := d.check(); err != nil {
		return err
	}
	b, err := bindValue(v)
	if err != nil {
		return err
	}
	mb, ok := b.(memoryBinding)
	if !ok {
		return fmt.Errorf("%w: WriteWith takes numeric values, got %T", ErrUnsupportedValue, v)
	}
	if err := memtype.check(); err != nil {
		return err
	}
	space := h5lib.SpaceAll
	if memspace != nil {
		if err := memspace.check(); err != nil {
			return err
		}
		space = memspace.id
	}
	if size, err := memtype.Size(); err != nil {
		return err
	} else if len(mb.memory())%size != 0 {
		return fmt.Errorf("%w: %T is not a whole number of %s elements", ErrTypeMismatch, v, memtype)
	}
	return native("write", d.Path(), h5lib.DatasetWrite(d.id, memtype.id, space, mb.memory()))
}

// Read reads every element into dst, a pointer to a numeric value, numeric
// slice, string or string slice. Slices are resized to the element count.
func (d *Dataset) Read(dst any) error {
	if err := d.check(); err != nil {
		return err
	}
	b, err := bindTarget(dst)
	if err != nil {
		return err
	}
	return readInto(datasetIO{d.id}, b, d.Path())
}

// Value reads the dataset as int64, uint64, float64 or string values, one
// value for a scalar dataset and a slice otherwise.
func (d *Dataset) Value() (any, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	return naturalValue(datasetIO{d.id}, d.Path())
}

// Clone returns a second handle to the same dataset.
func (d *Dataset) Clone() *Dataset {
	return &Dataset{Node{ID: d.ID.clone()}}
}

// Assign releases d and makes it share src.
func (d *Dataset) Assign(src *Dataset) error {
	return d.assign(&src.ID)
}
