package hdf5

import (
	"fmt"

	"github.com/robert-malhotra/h5bind/internal/h5i"
	"github.com/robert-malhotra/h5bind/internal/h5lib"
)

// valueIO is the element storage of a dataset or an attribute.
type valueIO interface {
	getType() (h5i.ID, error)
	getSpace() (h5i.ID, error)
	read(memType h5i.ID, buf []byte) error
	write(memType, memSpace h5i.ID, buf []byte) error
	readVlen(memType h5i.ID) ([][]byte, error)
	writeVlen(memType h5i.ID, values [][]byte) error
}

type attrIO struct{ id h5i.ID }

func (a attrIO) getType() (h5i.ID, error) { return h5lib.AttributeGetType(a.id) }
func (a attrIO) getSpace() (h5i.ID, error) { return h5lib.AttributeGetSpace(a.id) }
func (a attrIO) read(mt h5i.ID, buf []byte) error { return h5lib.AttributeRead(a.id, mt, buf) }
func (a attrIO) write(mt, _ h5i.ID, buf []byte) error { return h5lib.AttributeWrite(a.id, mt, buf) }
func (a attrIO) readVlen(mt h5i.ID) ([][]byte, error) { return h5lib.AttributeReadVlen(a.id, mt) }
func (a attrIO) writeVlen(mt h5i.ID, v [][]byte) error { return h5lib.AttributeWriteVlen(a.id, mt, v) }

type datasetIO struct{ id h5i.ID }

func (d datasetIO) getType() (h5i.ID, error) { return h5lib.DatasetGetType(d.id) }
func (d datasetIO) getSpace() (h5i.ID, error) { return h5lib.DatasetGetSpace(d.id) }
func (d datasetIO) read(mt h5i.ID, buf []byte) error { return h5lib.DatasetRead(d.id, mt, buf) }
func (d datasetIO) write(mt, ms h5i.ID, buf []byte) error { return h5lib.DatasetWrite(d.id, mt, ms, buf) }
func (d datasetIO) readVlen(mt h5i.ID) ([][]byte, error) { return h5lib.DatasetReadVlen(d.id, mt) }
func (d datasetIO) writeVlen(mt h5i.ID, v [][]byte) error { return h5lib.DatasetWriteVlen(d.id, mt, v) }

// stored returns handles to the stored type and shape and the element count.
func stored(io valueIO, target string) (*Datatype, *Dataspace, int, error) {
	tid, err := io.getType()
	if err != nil {
		return nil, nil, 0, native("get type", target, err)
	}
	dt := newDatatype(tid)
	sid, err := io.getSpace()
	if err != nil {
		dt.Close()
		return nil, nil, 0, native("get space", target, err)
	}
	sp := newDataspace(sid)
	n, err := sp.Size()
	if err != nil {
		dt.Close()
		sp.Close()
		return nil, nil, 0, err
	}
	return dt, sp, int(n), nil
}

func numeric(c TypeClass) bool { return c == ClassInteger || c == ClassFloat }

// readInto reads every stored element into the value behind b. Numeric
// values convert between widths; text follows the stored string traits.
func readInto(io valueIO, b binding, target string) error {
	dt, sp, n, err := stored(io, target)
	if err != nil {
		return err
	}
	defer dt.Close()
	defer sp.Close()

	switch b := b.(type) {
	case memoryBinding:
		if !numeric(dt.Class()) {
			return fmt.Errorf("%w: %s holds %s, not numbers", ErrTypeMismatch, target, dt)
		}
		buf, err := b.stage(n)
		if err != nil {
			return err
		}
		mem, err := b.datatype()
		if err != nil {
			return err
		}
		defer mem.Close()
		if err := io.read(mem.id, buf); err != nil {
			return native("read", target, err)
		}
		b.commit()
		return nil

	case textBinding:
		if dt.Class() != ClassString {
			return fmt.Errorf("%w: %s holds %s, not text", ErrTypeMismatch, target, dt)
		}
		tr, err := dt.StringTraits()
		if err != nil {
			return err
		}
		values, err := readText(io, dt, tr, n, target)
		if err != nil {
			return err
		}
		return b.setStrings(values)
	}
	return fmt.Errorf("%w: %T", ErrUnsupportedValue, b)
}

func readText(io valueIO, dt *Datatype, tr StringTraits, n int, target string) ([]string, error) {
	if tr.Length == VariableLength {
		bufs, err := io.readVlen(dt.id)
		if err != nil {
			return nil, native("read", target, err)
		}
		defer h5lib.VlenReclaim(bufs)
		values := make([]string, len(bufs))
		for i, b := range bufs {
			values[i] = decodeText(b, tr.Encoding)
		}
		return values, nil
	}
	buf := make([]byte, n*tr.Length)
	if err := io.read(dt.id, buf); err != nil {
		return nil, native("read", target, err)
	}
	return unpackFixed(buf, tr.Encoding, tr.Length, n), nil
}

// writeFrom replaces every stored element with the value behind b. The
// value must match the stored layout and element count.
func writeFrom(io valueIO, b binding, target string) error {
	dt, sp, n, err := stored(io, target)
	if err != nil {
		return err
	}
	defer dt.Close()
	defer sp.Close()

	switch b := b.(type) {
	case memoryBinding:
		mem, err := b.datatype()
		if err != nil {
			return err
		}
		defer mem.Close()
		if !mem.Equal(dt) {
			return fmt.Errorf("%w: writing %s to %s of %s", ErrTypeMismatch, mem, target, dt)
		}
		msp, err := b.dataspace()
		if err != nil {
			return err
		}
		defer msp.Close()
		if m, _ := msp.Size(); int(m) != n {
			return fmt.Errorf("%w: %d elements for %d stored in %s", ErrTypeMismatch, m, n, target)
		}
		return native("write", target, io.write(mem.id, msp.id, b.memory()))

	case textBinding:
		if dt.Class() != ClassString {
			return fmt.Errorf("%w: %s holds %s, not text", ErrTypeMismatch, target, dt)
		}
		values := b.strings()
		if len(values) != n {
			return fmt.Errorf("%w: %d strings for %d stored in %s", ErrTypeMismatch, len(values), n, target)
		}
		tr, err := dt.StringTraits()
		if err != nil {
			return err
		}
		if tr.Length != VariableLength {
			buf, err := packFixed(values, tr.Encoding, tr.Length)
			if err != nil {
				return err
			}
			return native("write", target, io.write(dt.id, h5lib.SpaceAll, buf))
		}
		enc := make([][]byte, len(values))
		for i, s := range values {
			if enc[i], err = encodeText(s, tr.Encoding); err != nil {
				return err
			}
		}
		return native("write", target, io.writeVlen(dt.id, enc))
	}
	return fmt.Errorf("%w: %T", ErrUnsupportedValue, b)
}

// naturalValue reads the stored elements as int64, uint64, float64 or
// string values: a single value for a scalar shape, a slice otherwise.
func naturalValue(io valueIO, target string) (any, error) {
	dt, sp, _, err := stored(io, target)
	if err != nil {
		return nil, err
	}
	single := sp.Kind() == SpaceScalar
	class := dt.Class()
	var signed bool
	if class == ClassInteger {
		signed, err = h5lib.TypeIsSigned(dt.id)
	}
	dt.Close()
	sp.Close()
	if err != nil {
		return nil, native("type sign", target, err)
	}

	var dst any
	switch {
	case class == ClassInteger && signed && single:
		dst = new(int64)
	case class == ClassInteger && signed:
		dst = new([]int64)
	case class == ClassInteger && single:
		dst = new(uint64)
	case class == ClassInteger:
		dst = new([]uint64)
	case class == ClassFloat && single:
		dst = new(float64)
	case class == ClassFloat:
		dst = new([]float64)
	case class == ClassString && single:
		dst = new(string)
	case class == ClassString:
		dst = new([]string)
	default:
		return nil, fmt.Errorf("%w: %s has an unsupported type", ErrTypeMismatch, target)
	}
	b, err := bindTarget(dst)
	if err != nil {
		return nil, err
	}
	if err := readInto(io, b, target); err != nil {
		return nil, err
	}
	switch v := dst.(type) {
	case *int64:
		return *v, nil
	case *[]int64:
		return *v, nil
	case *uint64:
		return *v, nil
	case *[]uint64:
		return *v, nil
	case *float64:
		return *v, nil
	case *[]float64:
		return *v, nil
	case *string:
		return *v, nil
	case *[]string:
		return *v, nil
	}
	return nil, nil
}
