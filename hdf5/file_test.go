package hdf5

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/robert-malhotra/h5bind/internal/h5lib"
)

func TestOpenMissingCreatesEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new.h5")
	f := NewFile(path)
	require.NoError(t, f.Open(ModeReadWrite))
	defer f.Close()

	assert.True(t, f.IsOpen())
	assert.Equal(t, CategoryFile, f.Category())
	assert.True(t, IsHDF5(path))

	root := f.Root()
	defer root.Close()
	members, err := root.Members(false)
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestOpenReadOnlyCreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.h5")
	f, err := OpenFile(path, ModeReadOnly)
	require.NoError(t, err)
	defer f.Close()

	assert.True(t, IsHDF5(path))
	assert.False(t, f.ReadOnly())
	root := f.Root()
	defer root.Close()
	require.NoError(t, root.Write("n", int32(1)))
}

func TestOpenRejectsForeignFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	content := []byte("plain text, not a container\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	f := NewFile(path)
	err := f.Open(ModeReadWrite)
	assert.ErrorIs(t, err, ErrNotHDF5)
	assert.False(t, f.IsOpen())
	assert.False(t, IsHDF5(path))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestOpenPreconditions(t *testing.T) {
	assert.ErrorIs(t, NewFile("").Open(ModeReadWrite), ErrEmptyPath)

	f, _ := newTestFile(t)
	assert.ErrorIs(t, f.Open(ModeReadWrite), ErrAlreadyOpen)
	assert.ErrorIs(t, f.SetFileName("other.h5"), ErrAlreadyOpen)
}

func TestSetFileNameWhileClosed(t *testing.T) {
	dir := t.TempDir()
	f := NewFile(filepath.Join(dir, "a.h5"), WithLogger(zap.NewNop()), WithHeapCacheSize(4))
	require.NoError(t, f.SetFileName(filepath.Join(dir, "b.h5")))
	require.NoError(t, f.Open(ModeTruncate))
	defer f.Close()
	assert.Equal(t, filepath.Join(dir, "b.h5"), f.FileName())
	assert.FileExists(t, filepath.Join(dir, "b.h5"))
	assert.NoFileExists(t, filepath.Join(dir, "a.h5"))
}

func TestTruncateDiscardsContents(t *testing.T) {
	f, root := newTestFile(t)
	require.NoError(t, root.Write("x", int32(1)))
	path := f.FileName()
	require.NoError(t, root.Close())
	require.NoError(t, f.Close())

	f2, err := OpenFile(path, ModeTruncate)
	require.NoError(t, err)
	defer f2.Close()
	root2 := f2.Root()
	defer root2.Close()
	assert.False(t, root2.Exists("x"))
}

func TestCloseInvalidatesChildren(t *testing.T) {
	f, root := newTestFile(t)
	g, err := root.CreateGroup("g", false)
	require.NoError(t, err)
	require.NoError(t, g.Write("d", []float64{1, 2}))
	ds, err := g.OpenDataset("d")
	require.NoError(t, err)
	require.NoError(t, ds.WriteAttribute("a", int8(1)))

	require.NoError(t, f.Close())
	assert.False(t, f.IsOpen())
	for _, h := range []*ID{&root.ID, &g.ID, &ds.ID} {
		assert.False(t, h.IsValid())
		assert.Equal(t, CategoryInvalid, h.Category())
		assert.Empty(t, h.Name())
		assert.NoError(t, h.Close())
	}
	assert.ErrorIs(t, ds.Read(new([]float64)), ErrInvalidHandle)
	assert.False(t, f.Root().IsValid())
}

func TestCloneKeepsFileOpen(t *testing.T) {
	f, root := newTestFile(t)
	c := f.Clone()
	assert.Equal(t, 2, f.RefCount())

	require.NoError(t, c.Close())
	assert.True(t, f.IsOpen())
	assert.True(t, root.IsValid())
	assert.Equal(t, 1, f.RefCount())
}

func TestFlushPersists(t *testing.T) {
	f, root := newTestFile(t)
	require.NoError(t, root.Write("v", []int64{4, 5, 6}))
	require.NoError(t, f.Flush())

	// A second reader sees flushed data while the writer is still open.
	other, err := h5lib.FileOpen(f.FileName(), true, h5lib.Options{})
	require.NoError(t, err)
	defer h5lib.FileClose(other)
	ok, err := h5lib.LinkExists(other, "v")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReadOnlyRejectsWrites(t *testing.T) {
	f, root := newTestFile(t)
	require.NoError(t, root.Write("n", int32(7)))
	f, root = reopen(t, f, root, ModeReadOnly)
	assert.True(t, f.ReadOnly())

	n, err := ReadAs[int32](root, "n")
	require.NoError(t, err)
	assert.Equal(t, int32(7), n)

	err = root.Write("n", int32(8))
	var nerr *NativeError
	require.True(t, errors.As(err, &nerr), "err = %v", err)
	assert.ErrorIs(t, err, h5lib.ErrReadOnly)

	_, err = root.CreateGroup("g", false)
	assert.ErrorIs(t, err, h5lib.ErrReadOnly)
}

func TestReadAttr(t *testing.T) {
	f, root := newTestFile(t)
	require.NoError(t, root.WriteAttribute("version", int32(3)))
	require.NoError(t, root.Write("data", []float32{1, 2}))
	ds, err := root.OpenDataset("data")
	require.NoError(t, err)
	require.NoError(t, ds.WriteAttribute("units", "m/s"))
	require.NoError(t, ds.Close())

	v, err := f.ReadAttr("/@version")
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)

	v, err = f.ReadAttr("/data@units")
	require.NoError(t, err)
	assert.Equal(t, "m/s", v)

	_, err = f.ReadAttr("/data@missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.ReadAttr("/data")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestEndToEnd(t *testing.T) {
	f, root := newTestFile(t)
	require.NoError(t, root.Write("A", int32(1)))
	require.NoError(t, root.Write("B", []string{"α", "β"}))
	g1, err := root.CreateGroup("G1", false)
	require.NoError(t, err)
	require.NoError(t, g1.Close())
	g2, err := root.CreateGroup("G2", true)
	require.NoError(t, err)
	g3, err := g2.CreateGroup("G3", false)
	require.NoError(t, err)
	assert.Equal(t, "/G2/G3", g3.Path())
	require.NoError(t, g3.Close())
	require.NoError(t, g2.Close())

	_, root = reopen(t, f, root, ModeReadOnly)

	a, err := ReadAs[int32](root, "A")
	require.NoError(t, err)
	assert.Equal(t, int32(1), a)

	b, err := ReadAs[[]string](root, "B")
	require.NoError(t, err)
	assert.Equal(t, []string{"α", "β"}, b)

	groups, err := root.GroupNames(false)
	require.NoError(t, err)
	assert.Equal(t, []string{"G1", "G2"}, groups)
	datasets, err := root.DatasetNames(false)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, datasets)

	g2, err = root.OpenGroup("G2")
	require.NoError(t, err)
	defer g2.Close()
	tracked, err := g2.TracksCreationOrder()
	require.NoError(t, err)
	assert.True(t, tracked)
	assert.True(t, root.IsGroup("/G2/G3"))
}
