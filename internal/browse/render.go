package browse

import (
	"fmt"
	"strings"

	"github.com/robert-malhotra/h5bind/hdf5"
)

// Attribute is a rendered attribute of an object.
type Attribute struct {
	Name  string `yaml:"name" json:"name"`
	Type  string `yaml:"type" json:"type"`
	Value any    `yaml:"value,omitempty" json:"value,omitempty"`
	Error string `yaml:"error,omitempty" json:"error,omitempty"`
}

// Description is what the value pane shows for a node.
type Description struct {
	Path       string      `yaml:"path" json:"path"`
	Class      string      `yaml:"class" json:"class"`
	Type       string      `yaml:"type,omitempty" json:"type,omitempty"`
	Shape      []uint64    `yaml:"shape,omitempty" json:"shape,omitempty"`
	Attributes []Attribute `yaml:"attributes,omitempty" json:"attributes,omitempty"`
	Value      any         `yaml:"value,omitempty" json:"value,omitempty"`
	Truncated  bool        `yaml:"truncated,omitempty" json:"truncated,omitempty"`
	Error      string      `yaml:"error,omitempty" json:"error,omitempty"`
}

// Entry is a Description with the descriptions of its children.
type Entry struct {
	Description `yaml:",inline"`
	Children    []*Entry `yaml:"children,omitempty" json:"children,omitempty"`
}

// Describe reads the attributes of n and, for a dataset, its type, shape
// and at most maxValues elements (all when maxValues is 0).
func (m *Model) Describe(n *Node, maxValues int) (*Description, error) {
	if n == nil {
		return nil, errNoNode
	}
	d := &Description{Path: n.Path, Class: n.Class.String()}

	switch n.Class {
	case ClassGroup:
		g, err := m.file.OpenGroup(n.Path)
		if err != nil {
			return nil, err
		}
		defer g.Close()
		d.Attributes = attributes(&g.Node, maxValues)

	case ClassDataset:
		ds, err := m.file.OpenDataset(n.Path)
		if err != nil {
			return nil, err
		}
		defer ds.Close()
		d.Attributes = attributes(&ds.Node, maxValues)
		if dt, err := ds.Datatype(); err == nil {
			d.Type = dt.String()
			dt.Close()
		}
		d.Shape, _ = ds.Shape()
		v, err := ds.Value()
		if err != nil {
			d.Error = err.Error()
			break
		}
		d.Value, d.Truncated = truncate(v, maxValues)
	}
	return d, nil
}

func attributes(n *hdf5.Node, maxValues int) []Attribute {
	names, err := n.AttributeNames()
	if err != nil {
		return []Attribute{{Error: err.Error()}}
	}
	out := make([]Attribute, 0, len(names))
	for _, name := range names {
		a := Attribute{Name: name}
		if dt, err := n.AttributeType(name); err == nil {
			a.Type = dt.String()
			dt.Close()
		}
		if v, err := n.AttributeValue(name); err != nil {
			a.Error = err.Error()
		} else {
			a.Value, _ = truncate(v, maxValues)
		}
		out = append(out, a)
	}
	return out
}

// Dump describes n and everything below it.
func (m *Model) Dump(n *Node, maxValues int) (*Entry, error) {
	d, err := m.Describe(n, maxValues)
	if err != nil {
		return nil, err
	}
	e := &Entry{Description: *d}
	for _, c := range n.Children {
		ce, err := m.Dump(c, maxValues)
		if err != nil {
			return nil, err
		}
		e.Children = append(e.Children, ce)
	}
	return e, nil
}

// truncate shortens slice values to limit elements.
func truncate(v any, limit int) (any, bool) {
	if limit <= 0 {
		return v, false
	}
	switch s := v.(type) {
	case []int64:
		return clip(s, limit)
	case []uint64:
		return clip(s, limit)
	case []float64:
		return clip(s, limit)
	case []string:
		return clip(s, limit)
	}
	return v, false
}

func clip[T any](s []T, limit int) (any, bool) {
	if len(s) <= limit {
		return s, false
	}
	return s[:limit], true
}

// FormatValue renders a natural value on one line. Strings are quoted.
func FormatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return fmt.Sprintf("%q", v)
	case []string:
		q := make([]string, len(v))
		for i, s := range v {
			q[i] = fmt.Sprintf("%q", s)
		}
		return "[" + strings.Join(q, " ") + "]"
	}
	return fmt.Sprint(v)
}

// Text renders d for the value pane.
func (d *Description) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", d.Class, d.Path)
	if d.Type != "" {
		fmt.Fprintf(&b, "  type:  %s\n", d.Type)
	}
	if d.Class == ClassDataset.String() {
		shape := "scalar"
		if len(d.Shape) > 0 {
			shape = fmt.Sprint(d.Shape)
		}
		fmt.Fprintf(&b, "  shape: %s\n", shape)
	}
	for _, a := range d.Attributes {
		if a.Error != "" {
			fmt.Fprintf(&b, "  @%s: error: %s\n", a.Name, a.Error)
			continue
		}
		fmt.Fprintf(&b, "  @%s = %s\n", a.Name, FormatValue(a.Value))
	}
	switch {
	case d.Error != "":
		fmt.Fprintf(&b, "  error: %s\n", d.Error)
	case d.Value != nil:
		more := ""
		if d.Truncated {
			more = " ..."
		}
		fmt.Fprintf(&b, "  value: %s%s\n", FormatValue(d.Value), more)
	}
	return b.String()
}
