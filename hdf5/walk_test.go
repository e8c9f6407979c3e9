package hdf5

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAttrPath(t *testing.T) {
	tests := []struct {
		path       string
		wantObject string
		wantAttr   string
		wantErr    bool
	}{
		{"/@root_attr", "/", "root_attr", false},
		{"/data@units", "/data", "units", false},
		{"/group/dataset@attr", "/group/dataset", "attr", false},
		{"data@attr", "/data", "attr", false},
		{"//a//b/@c", "/a/b", "c", false},
		{"/a@b@c", "/a@b", "c", false},
		{"", "", "", true},
		{"/path/no/at", "", "", true},
		{"/path@", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			obj, attr, err := ParseAttrPath(tt.path)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPath)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantObject, obj)
			assert.Equal(t, tt.wantAttr, attr)
		})
	}
}

func TestJoinAttrPath(t *testing.T) {
	tests := []struct {
		objectPath string
		attrName   string
		want       string
	}{
		{"/", "attr", "/@attr"},
		{"", "attr", "/@attr"},
		{"/data", "units", "/data@units"},
		{"/group/dataset/", "calibration", "/group/dataset@calibration"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := JoinAttrPath(tt.objectPath, tt.attrName); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSplitAndCleanPath(t *testing.T) {
	tests := []struct {
		path  string
		parts []string
		clean string
	}{
		{"", nil, "/"},
		{"/", nil, "/"},
		{"/foo", []string{"foo"}, "/foo"},
		{"foo/bar/", []string{"foo", "bar"}, "/foo/bar"},
		{"//a///b", []string{"a", "b"}, "/a/b"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := SplitPath(tt.path); !slices.Equal(got, tt.parts) {
				t.Errorf("SplitPath: got %q, want %q", got, tt.parts)
			}
			if got := CleanPath(tt.path); got != tt.clean {
				t.Errorf("CleanPath: got %q, want %q", got, tt.clean)
			}
		})
	}
}

// buildTree writes the hierarchy shared by the walk tests.
func buildTree(t *testing.T, root *Group) {
	t.Helper()
	require.NoError(t, root.Write("A", int32(1)))
	require.NoError(t, root.Write("B", []string{"α", "β"}))
	require.NoError(t, root.WriteAttribute("version", int32(2)))
	for _, p := range []string{"G1", "G2", "G2/G3"} {
		g, err := root.CreateGroup(p, false)
		require.NoError(t, err)
		require.NoError(t, g.Close())
	}
	require.NoError(t, root.Write("G2/G3/v", []float64{1}))
	ds, err := root.OpenDataset("G2/G3/v")
	require.NoError(t, err)
	require.NoError(t, ds.WriteAttribute("units", "m"))
	require.NoError(t, ds.Close())
}

func TestWalk(t *testing.T) {
	_, root := newTestFile(t)
	buildTree(t, root)

	var paths, kinds []string
	err := Walk(root, func(path string, obj any, err error) error {
		require.NoError(t, err)
		paths = append(paths, path)
		switch obj.(type) {
		case *Group:
			kinds = append(kinds, "group")
		case *Dataset:
			kinds = append(kinds, "dataset")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"/", "/A", "/B", "/G1", "/G2", "/G2/G3", "/G2/G3/v"}, paths)
	assert.Equal(t, []string{"group", "dataset", "dataset", "group", "group", "group", "dataset"}, kinds)
}

func TestWalkStop(t *testing.T) {
	_, root := newTestFile(t)
	buildTree(t, root)

	var seen int
	err := Walk(root, func(path string, obj any, err error) error {
		seen++
		if path == "/B" {
			return ErrStopWalk
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, seen)
	assert.True(t, root.IsValid())
}

func TestWalkAttrs(t *testing.T) {
	f, root := newTestFile(t)
	buildTree(t, root)

	var infos []AttrInfo
	require.NoError(t, f.WalkAttrs(func(info AttrInfo) error {
		infos = append(infos, info)
		return nil
	}))
	require.Len(t, infos, 2)

	assert.Equal(t, AttrInfo{
		Path:       "/@version",
		ObjectPath: "/",
		ObjectType: "group",
		Name:       "version",
		Value:      int64(2),
	}, infos[0])
	assert.Equal(t, AttrInfo{
		Path:       "/G2/G3/v@units",
		ObjectPath: "/G2/G3/v",
		ObjectType: "dataset",
		Name:       "units",
		Value:      "m",
	}, infos[1])

	var closed File
	assert.ErrorIs(t, closed.WalkAttrs(func(AttrInfo) error { return nil }), ErrClosed)
}
