package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/robert-malhotra/h5bind/hdf5"
	"github.com/robert-malhotra/h5bind/internal/browse"
)

// run executes h5tool with args and returns its output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func demoFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "TEST.H5")
	require.NoError(t, writeDemo(path))
	return path
}

func TestDemo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "TEST.H5")
	out, err := run(t, "demo", path)
	require.NoError(t, err)
	assert.Equal(t, `"/"
Dataset "/A"
["Γιώργος" "Γιάννης"]
Dataset "/B"
1
"/G0"
  Attribute "name" = "G0"
  Attribute "version" = 3
"/G0/G2"
"/G0/G2/G3"
Dataset "/G0/G2/G3/B"
[1 2 3]
"/G0/G2/G4"
"/G0/G1"
`, out)
	assert.True(t, hdf5.IsHDF5(path))
}

func TestLs(t *testing.T) {
	path := demoFile(t)
	out, err := run(t, "ls", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Name")
	assert.Contains(t, out, "Class")
	assert.Regexp(t, `G0\s+\|\s+Group`, out)
	assert.Regexp(t, `A\s+\|\s+Dataset`, out)

	out, err = run(t, "ls", "-o", "yaml", "-c", path, "/G0")
	require.NoError(t, err)
	var members []map[string]string
	require.NoError(t, yaml.Unmarshal([]byte(out), &members))
	assert.Equal(t, []map[string]string{
		{"name": "G2", "class": "Group"},
		{"name": "G1", "class": "Group"},
	}, members)

	_, err = run(t, "ls", path, "/B")
	assert.ErrorIs(t, err, hdf5.ErrNotGroup)
	_, err = run(t, "ls", path, "/nope")
	assert.ErrorIs(t, err, hdf5.ErrNotFound)
}

func TestTree(t *testing.T) {
	out, err := run(t, "tree", "--creation-order", demoFile(t))
	require.NoError(t, err)
	assert.Equal(t, `/
  G0/
    G2/
      G3/
        B
      G4/
    G1/
  A
  B
`, out)
}

func TestCat(t *testing.T) {
	path := demoFile(t)
	out, err := run(t, "cat", path, "/G0/G2/G3/B")
	require.NoError(t, err)
	assert.Equal(t, "Dataset /G0/G2/G3/B\n  type:  Integer(8)\n  shape: [3]\n  value: [1 2 3]\n", out)

	out, err = run(t, "cat", "--max-values", "1", path, "A")
	require.NoError(t, err)
	assert.Contains(t, out, `value: ["Γιώργος"] ...`)

	out, err = run(t, "cat", path, "/G0@version")
	require.NoError(t, err)
	assert.Equal(t, "3\n", out)

	out, err = run(t, "cat", "-o", "json", path, "/B")
	require.NoError(t, err)
	assert.Contains(t, out, `"value": 1`)
}

func TestAttrs(t *testing.T) {
	out, err := run(t, "attrs", demoFile(t), "G0")
	require.NoError(t, err)
	assert.Regexp(t, `name\s+\|\s+String\(UTF-8, variable\)\s+\|\s+"G0"`, out)
	assert.Regexp(t, `version\s+\|\s+Integer\(64\)\s+\|\s+3`, out)
}

func TestDump(t *testing.T) {
	out, err := run(t, "dump", "-o", "yaml", demoFile(t))
	require.NoError(t, err)
	var e browse.Entry
	require.NoError(t, yaml.Unmarshal([]byte(out), &e))
	assert.Equal(t, "/", e.Path)
	require.Len(t, e.Children, 3)
	assert.Equal(t, "/G0", e.Children[0].Path)
	require.Len(t, e.Children[0].Attributes, 2)

	out, err = run(t, "dump", demoFile(t), "/G0/G2")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Group /G0/G2\n"))
	assert.Contains(t, out, "Dataset /G0/G2/G3/B\n")
}

func TestDiagnose(t *testing.T) {
	out, err := run(t, "diagnose", demoFile(t))
	require.NoError(t, err)
	assert.Contains(t, out, "Superblock version: 2")
	assert.Contains(t, out, "Root header v2")
	assert.Contains(t, out, `Group "/G0/G2/G3":`)
	assert.Contains(t, out, "Type: Integer(8)")
}

func TestForeignFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))
	_, err := run(t, "ls", path)
	assert.ErrorIs(t, err, hdf5.ErrNotHDF5)
	_, err = run(t, "diagnose", path)
	assert.ErrorIs(t, err, hdf5.ErrNotHDF5)
}

func TestBadConfig(t *testing.T) {
	_, err := run(t, "ls", "--format", "xml", demoFile(t))
	assert.Error(t, err)
}

func TestShell(t *testing.T) {
	m, err := browse.Open(demoFile(t), true)
	require.NoError(t, err)
	defer m.Close()
	var out bytes.Buffer
	s := &shell{m: m, cwd: m.Root(), out: &out}

	exec := func(line string) string {
		out.Reset()
		quit, err := s.exec(line)
		require.NoError(t, err, line)
		assert.False(t, quit)
		return out.String()
	}

	assert.Equal(t, "/\n", exec("pwd"))
	exec("cd G0/G2")
	assert.Equal(t, "h5:/G0/G2> ", s.prompt())
	assert.Regexp(t, `^G3\s+Group\nG4\s+Group\n$`, exec("ls"))
	assert.Contains(t, exec("cat G3/B"), "value: [1 2 3]")
	exec("cd ..")
	assert.Equal(t, "name = \"G0\"\nversion = 3\n", exec("attrs"))
	exec("cd")
	assert.Equal(t, "/\n", exec("pwd"))
	assert.Contains(t, exec("help"), "commands:")
	assert.Equal(t, "", exec(""))

	_, err = s.exec("cd B")
	assert.Error(t, err)
	_, err = s.exec("cd missing")
	assert.Error(t, err)
	_, err = s.exec("frobnicate")
	assert.Error(t, err)

	quit, err := s.exec("exit")
	require.NoError(t, err)
	assert.True(t, quit)
}
