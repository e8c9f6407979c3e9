package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/robert-malhotra/h5bind/hdf5"
	"github.com/robert-malhotra/h5bind/internal/browse"
)

func (a *app) lsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls file [group]",
		Short: "List the members of a group",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.model(args[0])
			if err != nil {
				return err
			}
			defer m.Close()
			n, err := find(m, optArg(args, 1, "/"))
			if err != nil {
				return err
			}
			if n.Class != browse.ClassGroup {
				return fmt.Errorf("%w: %s", hdf5.ErrNotGroup, n.Path)
			}
			type member struct {
				Name  string `yaml:"name" json:"name"`
				Class string `yaml:"class" json:"class"`
			}
			members := make([]member, len(n.Children))
			for i, c := range n.Children {
				members[i] = member{c.Name, c.Class.String()}
			}
			return a.emit(cmd.OutOrStdout(), members, func() string {
				rows := make([][]string, len(n.Children))
				for i, c := range n.Children {
					rows[i] = c.Columns()
				}
				return table(browse.Headers, rows)
			})
		},
	}
}

func (a *app) treeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree file [group]",
		Short: "Print the hierarchy below a group",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.model(args[0])
			if err != nil {
				return err
			}
			defer m.Close()
			n, err := find(m, optArg(args, 1, "/"))
			if err != nil {
				return err
			}
			var b strings.Builder
			printTree(&b, n, "")
			_, err = io.WriteString(cmd.OutOrStdout(), b.String())
			return err
		},
	}
}

func printTree(w io.Writer, n *browse.Node, indent string) {
	name := n.Name
	if n.Class == browse.ClassGroup && n.Parent != nil {
		name += "/"
	}
	fmt.Fprintf(w, "%s%s\n", indent, name)
	for _, c := range n.Children {
		printTree(w, c, indent+"  ")
	}
}

func (a *app) attrsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "attrs file [object]",
		Short: "List the attributes of a group or dataset",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.model(args[0])
			if err != nil {
				return err
			}
			defer m.Close()
			n, err := find(m, optArg(args, 1, "/"))
			if err != nil {
				return err
			}
			d, err := m.Describe(n, a.cfg.Output.MaxValues)
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), d.Attributes, func() string {
				rows := make([][]string, len(d.Attributes))
				for i, at := range d.Attributes {
					v := browse.FormatValue(at.Value)
					if at.Error != "" {
						v = "error: " + at.Error
					}
					rows[i] = []string{at.Name, at.Type, v}
				}
				return table([]string{"Name", "Type", "Value"}, rows)
			})
		},
	}
}

func (a *app) catCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cat file path",
		Short: "Print a dataset, or an attribute given as /object@name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.model(args[0])
			if err != nil {
				return err
			}
			defer m.Close()

			if strings.Contains(args[1], "@") {
				v, err := m.File().ReadAttr(args[1])
				if err != nil {
					return err
				}
				return a.emit(cmd.OutOrStdout(), v, func() string {
					return browse.FormatValue(v) + "\n"
				})
			}
			n, err := find(m, args[1])
			if err != nil {
				return err
			}
			d, err := m.Describe(n, a.cfg.Output.MaxValues)
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), d, d.Text)
		},
	}
}

func (a *app) dumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump file [object]",
		Short: "Describe an object and everything below it",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.model(args[0])
			if err != nil {
				return err
			}
			defer m.Close()
			n, err := find(m, optArg(args, 1, "/"))
			if err != nil {
				return err
			}
			e, err := m.Dump(n, a.cfg.Output.MaxValues)
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), e, func() string {
				var b strings.Builder
				writeEntry(&b, e)
				return b.String()
			})
		},
	}
}

func writeEntry(b *strings.Builder, e *browse.Entry) {
	b.WriteString(e.Text())
	for _, c := range e.Children {
		writeEntry(b, c)
	}
}

// table renders rows under header in the style of the other listings.
func table(header []string, rows [][]string) string {
	var b strings.Builder
	t := tablewriter.NewWriter(&b)
	t.SetHeader(header)
	t.SetAutoFormatHeaders(false)
	t.SetAutoWrapText(false)
	t.SetAlignment(tablewriter.ALIGN_LEFT)
	t.AppendBulk(rows)
	t.Render()
	return b.String()
}

func optArg(args []string, i int, def string) string {
	if len(args) > i {
		return args[i]
	}
	return def
}
