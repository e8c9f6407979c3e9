package hdf5

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/h5bind/internal/h5i"
	"github.com/robert-malhotra/h5bind/internal/h5lib"
)

func TestScalarRoundTrip(t *testing.T) {
	f, root := newTestFile(t)
	require.NoError(t, root.Write("i", int32(-42)))
	require.NoError(t, root.Write("u", uint64(1<<40)))
	require.NoError(t, root.Write("x", 2.5))
	require.NoError(t, root.Write("flag", true))
	require.NoError(t, root.Write("s", "héllo"))

	_, root = reopen(t, f, root, ModeReadOnly)

	i, err := ReadAs[int32](root, "i")
	require.NoError(t, err)
	assert.Equal(t, int32(-42), i)
	u, err := ReadAs[uint64](root, "u")
	require.NoError(t, err)
	assert.Equal(t, uint64(1<<40), u)
	x, err := ReadAs[float64](root, "x")
	require.NoError(t, err)
	assert.Equal(t, 2.5, x)
	flag, err := ReadAs[bool](root, "flag")
	require.NoError(t, err)
	assert.True(t, flag)
	s, err := ReadAs[string](root, "s")
	require.NoError(t, err)
	assert.Equal(t, "héllo", s)

	ds, err := root.OpenDataset("i")
	require.NoError(t, err)
	defer ds.Close()
	shape, err := ds.Shape()
	require.NoError(t, err)
	assert.Nil(t, shape)
	sp, err := ds.Dataspace()
	require.NoError(t, err)
	defer sp.Close()
	assert.Equal(t, SpaceScalar, sp.Kind())
}

func TestSliceRoundTrip(t *testing.T) {
	_, root := newTestFile(t)
	require.NoError(t, root.Write("f32", []float32{1.5, -2, 3}))
	require.NoError(t, root.Write("bools", []bool{true, false, true}))
	require.NoError(t, root.Write("ints", []int{1, 2, 3, 4}))

	f32, err := ReadAs[[]float32](root, "f32")
	require.NoError(t, err)
	assert.Equal(t, []float32{1.5, -2, 3}, f32)
	bools, err := ReadAs[[]bool](root, "bools")
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true}, bools)

	ds, err := root.OpenDataset("ints")
	require.NoError(t, err)
	defer ds.Close()
	shape, err := ds.Shape()
	require.NoError(t, err)
	assert.Equal(t, []uint64{4}, shape)
	dt, err := ds.Datatype()
	require.NoError(t, err)
	defer dt.Close()
	assert.Equal(t, ClassInteger, dt.Class())
}

func TestReadConvertsNumbers(t *testing.T) {
	_, root := newTestFile(t)
	require.NoError(t, root.Write("v", []int16{-3, 0, 300}))

	wide, err := ReadAs[[]float64](root, "v")
	require.NoError(t, err)
	assert.Equal(t, []float64{-3, 0, 300}, wide)

	long, err := ReadAs[[]int64](root, "v")
	require.NoError(t, err)
	assert.Equal(t, []int64{-3, 0, 300}, long)

	// Reading reuses the capacity of the target slice.
	buf := make([]int32, 0, 8)
	require.NoError(t, root.Read("v", &buf))
	assert.Equal(t, []int32{-3, 0, 300}, buf)
}

func TestReadMismatch(t *testing.T) {
	_, root := newTestFile(t)
	require.NoError(t, root.Write("n", []int32{1, 2}))
	require.NoError(t, root.Write("s", "text"))

	var one int32
	assert.ErrorIs(t, root.Read("n", &one), ErrTypeMismatch)
	var s string
	assert.ErrorIs(t, root.Read("n", &s), ErrTypeMismatch)
	var n []int32
	assert.ErrorIs(t, root.Read("s", &n), ErrTypeMismatch)
	assert.ErrorIs(t, root.Read("n", new(struct{})), ErrUnsupportedValue)
}

func TestWriteRequiresStoredType(t *testing.T) {
	_, root := newTestFile(t)
	require.NoError(t, root.Write("n", []int32{1, 2}))

	assert.ErrorIs(t, root.Write("n", []int64{1, 2}), ErrTypeMismatch)
	assert.ErrorIs(t, root.Write("n", []int32{1, 2, 3}), ErrTypeMismatch)
	assert.ErrorIs(t, root.Write("n", []string{"a", "b"}), ErrTypeMismatch)
	assert.ErrorIs(t, root.Write("m", map[string]int{}), ErrUnsupportedValue)

	require.NoError(t, root.Write("n", []int32{7, 8}))
	n, err := ReadAs[[]int32](root, "n")
	require.NoError(t, err)
	assert.Equal(t, []int32{7, 8}, n)
}

func TestVariableStrings(t *testing.T) {
	f, root := newTestFile(t)
	want := []string{"α", "β", "", "ascii", "日本語"}
	require.NoError(t, root.Write("text", want))

	ds, err := root.OpenDataset("text")
	require.NoError(t, err)
	dt, err := ds.Datatype()
	require.NoError(t, err)
	tr, err := dt.StringTraits()
	require.NoError(t, err)
	assert.Equal(t, StringTraits{Encoding: EncodingUTF8, Length: VariableLength}, tr)
	require.NoError(t, dt.Close())
	require.NoError(t, ds.Close())

	_, root = reopen(t, f, root, ModeReadOnly)
	got, err := ReadAs[[]string](root, "text")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	v, err := root.OpenDataset("text")
	require.NoError(t, err)
	defer v.Close()
	val, err := v.Value()
	require.NoError(t, err)
	assert.Equal(t, want, val)
}

func TestFixedStrings(t *testing.T) {
	f, root := newTestFile(t)
	dt, err := FixedString(8)
	require.NoError(t, err)
	defer dt.Close()
	sp, err := NewDataspace(2)
	require.NoError(t, err)
	defer sp.Close()

	ds, err := root.CreateDataset("codes", sp, dt)
	require.NoError(t, err)
	require.NoError(t, ds.Write([]string{"abc", "ünï"}))

	err = ds.Write([]string{"abcdefgh", "x"})
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	require.NoError(t, ds.Close())

	_, root = reopen(t, f, root, ModeReadWrite)
	got, err := ReadAs[[]string](root, "codes")
	require.NoError(t, err)
	assert.Equal(t, []string{"abc", "ünï"}, got)

	ds, err = root.OpenDataset("codes")
	require.NoError(t, err)
	defer ds.Close()
	stored, err := ds.Datatype()
	require.NoError(t, err)
	defer stored.Close()
	tr, err := stored.StringTraits()
	require.NoError(t, err)
	assert.Equal(t, StringTraits{Encoding: EncodingUTF8, Length: 8}, tr)

	// Seven bytes still fit a width of eight.
	require.NoError(t, ds.Write([]string{"1234567", ""}))
	got, err = ReadAs[[]string](root, "codes")
	require.NoError(t, err)
	assert.Equal(t, []string{"1234567", ""}, got)
}

func TestASCIIStrings(t *testing.T) {
	_, root := newTestFile(t)
	dt, err := VarString(EncodingASCII)
	require.NoError(t, err)
	defer dt.Close()
	sp, err := ScalarDataspace()
	require.NoError(t, err)
	defer sp.Close()
	ds, err := root.CreateDataset("a", sp, dt)
	require.NoError(t, err)
	defer ds.Close()

	require.NoError(t, ds.Write("plain"))
	var s string
	require.NoError(t, ds.Read(&s))
	assert.Equal(t, "plain", s)

	assert.ErrorIs(t, ds.Write("日本"), ErrTypeMismatch)
}

func TestUnwrittenDatasetReadsZeros(t *testing.T) {
	_, root := newTestFile(t)
	dt, err := predefined(h5lib.NativeInt64)
	require.NoError(t, err)
	defer dt.Close()
	sp, err := NewDataspace(2, 3)
	require.NoError(t, err)
	defer sp.Close()

	ds, err := root.CreateDataset("grid", sp, dt)
	require.NoError(t, err)
	defer ds.Close()

	var v []int64
	require.NoError(t, ds.Read(&v))
	assert.Equal(t, make([]int64, 6), v)
	shape, err := ds.Shape()
	require.NoError(t, err)
	assert.Equal(t, []uint64{2, 3}, shape)
}

func TestWriteWith(t *testing.T) {
	_, root := newTestFile(t)
	require.NoError(t, root.Write("w", []int32{0, 0}))
	ds, err := root.OpenDataset("w")
	require.NoError(t, err)
	defer ds.Close()

	mt, err := ds.Datatype()
	require.NoError(t, err)
	defer mt.Close()
	require.NoError(t, ds.WriteWith([]int32{5, 6}, nil, mt))

	got, err := ReadAs[[]int32](root, "w")
	require.NoError(t, err)
	assert.Equal(t, []int32{5, 6}, got)

	assert.ErrorIs(t, ds.WriteWith("text", nil, mt), ErrUnsupportedValue)

	// Wider memory elements are converted to the stored int32.
	wide, err := predefined(h5lib.NativeInt64)
	require.NoError(t, err)
	defer wide.Close()
	require.NoError(t, ds.WriteWith([]int64{-3, 1 << 20}, nil, wide))
	got, err = ReadAs[[]int32](root, "w")
	require.NoError(t, err)
	assert.Equal(t, []int32{-3, 1 << 20}, got)

	three, err := NewDataspace(3)
	require.NoError(t, err)
	defer three.Close()
	assert.Error(t, ds.WriteWith([]int32{1, 2, 3}, three, mt))
	got, err = ReadAs[[]int32](root, "w")
	require.NoError(t, err)
	assert.Equal(t, []int32{-3, 1 << 20}, got)
}

type failingRead struct{ datasetIO }

func (failingRead) read(h5i.ID, []byte) error { return errors.New("device error") }

func TestFailedReadKeepsDestination(t *testing.T) {
	_, root := newTestFile(t)
	require.NoError(t, root.Write("n", []int32{1, 2, 3}))
	require.NoError(t, root.Write("x", 2.5))

	ds, err := root.OpenDataset("n")
	require.NoError(t, err)
	defer ds.Close()
	dst := []int32{9}
	b, err := bindTarget(&dst)
	require.NoError(t, err)
	require.Error(t, readInto(failingRead{datasetIO{ds.id}}, b, ds.Path()))
	assert.Equal(t, []int32{9}, dst)

	x, err := root.OpenDataset("x")
	require.NoError(t, err)
	defer x.Close()
	v := 7.0
	b, err = bindTarget(&v)
	require.NoError(t, err)
	require.Error(t, readInto(failingRead{datasetIO{x.id}}, b, x.Path()))
	assert.Equal(t, 7.0, v)

	require.NoError(t, ds.Read(&dst))
	assert.Equal(t, []int32{1, 2, 3}, dst)
}

func TestDatasetClone(t *testing.T) {
	_, root := newTestFile(t)
	require.NoError(t, root.Write("d", 1.0))
	ds, err := root.OpenDataset("d")
	require.NoError(t, err)
	c := ds.Clone()
	assert.Equal(t, 2, ds.RefCount())
	assert.Equal(t, CategoryDataset, c.Category())

	require.NoError(t, ds.Close())
	var v float64
	require.NoError(t, c.Read(&v))
	assert.Equal(t, 1.0, v)
	require.NoError(t, c.Close())
	assert.False(t, c.IsValid())
}
