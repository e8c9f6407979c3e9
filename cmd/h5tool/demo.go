package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/robert-malhotra/h5bind/hdf5"
	"github.com/robert-malhotra/h5bind/internal/browse"
)

func (a *app) demoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo [file]",
		Short: "Write a sample file, then reopen it read-only and list it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "TEST.H5"
			if len(args) > 0 {
				path = args[0]
			}
			if err := writeDemo(path, a.fileOptions()...); err != nil {
				return err
			}
			f, err := hdf5.OpenFile(path, hdf5.ModeReadOnly, a.fileOptions()...)
			if err != nil {
				return err
			}
			defer f.Close()
			root := f.Root()
			defer root.Close()
			return list(cmd.OutOrStdout(), root)
		},
	}
}

// writeDemo creates path with a few groups, attributes and datasets.
func writeDemo(path string, opts ...hdf5.FileOption) error {
	f := hdf5.NewFile(path, opts...)
	if err := f.Open(hdf5.ModeTruncate); err != nil {
		return err
	}
	defer f.Close()
	root := f.Root()
	defer root.Close()

	if err := root.Write("B", 1); err != nil {
		return err
	}
	if err := root.Write("A", []string{"Γιώργος", "Γιάννης"}); err != nil {
		return err
	}

	const crtOrder = true
	g0, err := root.CreateGroup("G0", crtOrder)
	if err != nil {
		return err
	}
	defer g0.Close()
	if err := g0.WriteAttribute("name", "G0"); err != nil {
		return err
	}
	if err := g0.WriteAttribute("version", 3); err != nil {
		return err
	}
	g2, err := g0.CreateGroup("G2", crtOrder)
	if err != nil {
		return err
	}
	defer g2.Close()
	for _, p := range []struct {
		parent *hdf5.Group
		name   string
	}{{g0, "G1"}, {g2, "G3"}, {g2, "G4"}} {
		g, err := p.parent.CreateGroup(p.name, crtOrder)
		if err != nil {
			return err
		}
		g.Close()
	}
	if err := g2.Write("G3/B", []int8{1, 2, 3}); err != nil {
		return err
	}
	return f.Close()
}

// list prints g, its attributes and datasets, then its subgroups in
// creation order.
func list(w io.Writer, g *hdf5.Group) (err error) {
	fmt.Fprintf(w, "%q\n", g.Path())
	if err := listAttributes(w, &g.Node); err != nil {
		return err
	}
	datasets, err := g.Datasets(false)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, hdf5.CloseAll(datasets)) }()
	for _, ds := range datasets {
		fmt.Fprintf(w, "Dataset %q\n", ds.Path())
		if err := listAttributes(w, &ds.Node); err != nil {
			return err
		}
		v, err := ds.Value()
		if err != nil {
			fmt.Fprintln(w, "Unknown datatype")
			continue
		}
		fmt.Fprintln(w, browse.FormatValue(v))
	}

	groups, err := g.SubGroups(true)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, hdf5.CloseAll(groups)) }()
	for _, s := range groups {
		if err := list(w, s); err != nil {
			return err
		}
	}
	return nil
}

func listAttributes(w io.Writer, n *hdf5.Node) error {
	names, err := n.AttributeNames()
	if err != nil {
		return err
	}
	for _, name := range names {
		v, err := n.AttributeValue(name)
		if err != nil {
			fmt.Fprintf(w, "  Attribute %q : unknown datatype\n", name)
			continue
		}
		fmt.Fprintf(w, "  Attribute %q = %s\n", name, browse.FormatValue(v))
	}
	return nil
}

