package browse

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/robert-malhotra/h5bind/hdf5"
)

// sample writes a file with the layout of the demo program.
func sample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.h5")
	f, err := hdf5.Create(path)
	require.NoError(t, err)
	root := f.Root()
	require.NoError(t, root.Write("B", int32(1)))
	require.NoError(t, root.Write("A", []string{"x", "y"}))
	g0, err := root.CreateGroup("G0", true)
	require.NoError(t, err)
	require.NoError(t, g0.WriteAttribute("name", "G0"))
	require.NoError(t, g0.WriteAttribute("version", int32(3)))
	for _, p := range []string{"G2", "G1"} {
		g, err := g0.CreateGroup(p, true)
		require.NoError(t, err)
		require.NoError(t, g.Close())
	}
	require.NoError(t, g0.Write("G2/v", []float64{1, 2, 3, 4}))
	require.NoError(t, g0.Close())
	require.NoError(t, root.Close())
	require.NoError(t, f.Close())
	return path
}

func names(n *Node) []string {
	var out []string
	for _, c := range n.Children {
		out = append(out, c.Name)
	}
	return out
}

func TestModelTree(t *testing.T) {
	m, err := Open(sample(t), false)
	require.NoError(t, err)
	defer m.Close()

	root := m.Root()
	assert.Equal(t, -1, root.Row())
	assert.Equal(t, []string{"/", "Group"}, root.Columns())
	// Groups come before datasets.
	assert.Equal(t, []string{"G0", "A", "B"}, names(root))

	g0 := root.Child("G0")
	require.NotNil(t, g0)
	assert.Equal(t, []string{"G1", "G2"}, names(g0))
	assert.Equal(t, 0, g0.Row())

	v := root.Find("/G0/G2/v")
	require.NotNil(t, v)
	assert.Equal(t, "/G0/G2/v", v.Path)
	assert.Equal(t, []string{"v", "Dataset"}, v.Columns())
	assert.Same(t, g0, v.Find("../.."))
	assert.Same(t, v, g0.Find("G2/v"))
	assert.Nil(t, root.Find("G0/missing"))
}

func TestModelCreationOrder(t *testing.T) {
	m, err := Open(sample(t), true)
	require.NoError(t, err)
	defer m.Close()
	assert.Equal(t, []string{"G2", "G1"}, names(m.Root().Child("G0")))
	// The root does not track creation order.
	assert.Equal(t, []string{"G0", "A", "B"}, names(m.Root()))
}

func TestOpenRejectsForeignFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.txt")
	require.NoError(t, os.WriteFile(path, []byte("text"), 0o644))
	_, err := Open(path, false)
	assert.ErrorIs(t, err, ErrNotHDF5)
}

func TestDescribe(t *testing.T) {
	m, err := Open(sample(t), false)
	require.NoError(t, err)
	defer m.Close()

	d, err := m.Describe(m.Root().Find("G0"), 0)
	require.NoError(t, err)
	assert.Equal(t, "Group", d.Class)
	require.Len(t, d.Attributes, 2)
	assert.Equal(t, Attribute{Name: "name", Type: "String(UTF-8, variable)", Value: "G0"}, d.Attributes[0])
	assert.Equal(t, int64(3), d.Attributes[1].Value)

	d, err = m.Describe(m.Root().Find("G0/G2/v"), 2)
	require.NoError(t, err)
	assert.Equal(t, "Float(64)", d.Type)
	assert.Equal(t, []uint64{4}, d.Shape)
	assert.Equal(t, []float64{1, 2}, d.Value)
	assert.True(t, d.Truncated)
	assert.Equal(t, "Dataset /G0/G2/v\n  type:  Float(64)\n  shape: [4]\n  value: [1 2] ...\n", d.Text())

	d, err = m.Describe(m.Root().Find("A"), 0)
	require.NoError(t, err)
	assert.Contains(t, d.Text(), `value: ["x" "y"]`)

	_, err = m.Describe(nil, 0)
	assert.Error(t, err)
}

func TestDump(t *testing.T) {
	m, err := Open(sample(t), false)
	require.NoError(t, err)
	defer m.Close()

	e, err := m.Dump(m.Root(), 0)
	require.NoError(t, err)
	require.Len(t, e.Children, 3)
	assert.Equal(t, "/G0", e.Children[0].Path)

	out, err := yaml.Marshal(e)
	require.NoError(t, err)
	var back map[string]any
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, "/", back["path"])
	assert.Len(t, back["children"], 3)

	js, err := json.Marshal(e)
	require.NoError(t, err)
	assert.Contains(t, string(js), `"path":"/G0/G2/v"`)
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, `"a b"`, FormatValue("a b"))
	assert.Equal(t, `["α" ""]`, FormatValue([]string{"α", ""}))
	assert.Equal(t, "[1 2]", FormatValue([]int64{1, 2}))
	assert.Equal(t, "2.5", FormatValue(2.5))
	assert.Equal(t, "", FormatValue(nil))
}
