package main

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/spf13/cobra"

	"github.com/robert-malhotra/h5bind/hdf5"
	"github.com/robert-malhotra/h5bind/internal/binary"
	"github.com/robert-malhotra/h5bind/internal/object"
	"github.com/robert-malhotra/h5bind/internal/superblock"
)

// maxDepth stops runaway recursion in damaged files.
const maxDepth = 20

func (a *app) diagnoseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diagnose file",
		Short: "Print the superblock, root object header and object summaries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "=== Analyzing %s ===\n\n", args[0])
			if err := dumpLowLevel(w, args[0]); err != nil {
				return err
			}
			f, err := hdf5.OpenFile(args[0], hdf5.ModeReadOnly, a.fileOptions()...)
			if err != nil {
				return err
			}
			defer f.Close()
			root := f.Root()
			defer root.Close()
			fmt.Fprintln(w)
			diagnoseGroup(w, root, "", 0)
			return nil
		},
	}
}

// dumpLowLevel prints the superblock and the messages of the root header.
func dumpLowLevel(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	sb, err := superblock.Read(f)
	if err != nil {
		return fmt.Errorf("%w: %v", hdf5.ErrNotHDF5, err)
	}
	fmt.Fprintf(w, "Superblock version: %d (at %d)\n", sb.Version, sb.Location)
	fmt.Fprintf(w, "Offset/length size: %d/%d\n", sb.OffsetSize, sb.LengthSize)
	fmt.Fprintf(w, "Root object header: %d\n", sb.RootAddress)
	fmt.Fprintf(w, "End of file:        %d\n", sb.EOFAddress)

	r := binary.NewReader(io.NewSectionReader(f, sb.Location, math.MaxInt64-sb.Location), sb.Config())
	h, err := object.Read(r, sb.RootAddress)
	if err != nil {
		fmt.Fprintf(w, "Root header: ERROR %v\n", err)
		return nil
	}
	fmt.Fprintf(w, "Root header v%d, %d messages:\n", h.Version, len(h.Entries))
	for _, e := range h.Entries {
		fmt.Fprintf(w, "  %-24s %4d bytes flags=%#02x\n", e.Type, len(e.Data), e.Flags)
	}
	return nil
}

func diagnoseGroup(w io.Writer, g *hdf5.Group, indent string, depth int) {
	if depth > maxDepth {
		fmt.Fprintf(w, "%s[MAX DEPTH REACHED]\n", indent)
		return
	}
	members, err := g.Members(false)
	if err != nil {
		fmt.Fprintf(w, "%sERROR getting members: %v\n", indent, err)
		return
	}
	attrs, _ := g.AttributeNames()
	fmt.Fprintf(w, "%sGroup %q:\n", indent, g.Path())
	fmt.Fprintf(w, "%s  Members: %d\n", indent, len(members))
	fmt.Fprintf(w, "%s  Attrs: %v\n", indent, attrs)

	for _, name := range members {
		switch {
		case g.IsGroup(name):
			sub, err := g.OpenGroup(name)
			if err != nil {
				fmt.Fprintf(w, "%s  %q: ERROR %v\n", indent, name, err)
				continue
			}
			diagnoseGroup(w, sub, indent+"  ", depth+1)
			sub.Close()
		case g.IsDataset(name):
			ds, err := g.OpenDataset(name)
			if err != nil {
				fmt.Fprintf(w, "%s  %q: ERROR %v\n", indent, name, err)
				continue
			}
			shape, _ := ds.Shape()
			attrs, _ := ds.AttributeNames()
			typ := "?"
			if dt, err := ds.Datatype(); err == nil {
				typ = dt.String()
				dt.Close()
			}
			fmt.Fprintf(w, "%s  Dataset %q:\n", indent, name)
			fmt.Fprintf(w, "%s    Type: %s\n", indent, typ)
			fmt.Fprintf(w, "%s    Shape: %v\n", indent, shape)
			fmt.Fprintf(w, "%s    Attrs: %v\n", indent, attrs)
			ds.Close()
		default:
			fmt.Fprintf(w, "%s  %q: not a group or dataset\n", indent, name)
		}
	}
}
