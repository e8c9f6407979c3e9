package hdf5

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// newTestFile creates an empty container in a temporary directory and
// returns it with its open root group.
func newTestFile(t *testing.T) (*File, *Group) {
	t.Helper()
	f, err := Create(filepath.Join(t.TempDir(), "test.h5"))
	require.NoError(t, err)
	root := f.Root()
	require.True(t, root.IsValid())
	t.Cleanup(func() {
		root.Close()
		f.Close()
	})
	return f, root
}

// reopen closes f and opens it again in mode.
func reopen(t *testing.T, f *File, root *Group, mode Mode) (*File, *Group) {
	t.Helper()
	path := f.FileName()
	require.NoError(t, root.Close())
	require.NoError(t, f.Close())
	f2, err := OpenFile(path, mode)
	require.NoError(t, err)
	root2 := f2.Root()
	require.True(t, root2.IsValid())
	t.Cleanup(func() {
		root2.Close()
		f2.Close()
	})
	return f2, root2
}
