package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/robert-malhotra/h5bind/internal/browse"
)

func (a *app) browseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse file",
		Short: "Explore a file interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.model(args[0])
			if err != nil {
				return err
			}
			defer m.Close()
			s := &shell{m: m, cwd: m.Root(), out: cmd.OutOrStdout(), maxValues: a.cfg.Output.MaxValues}
			return s.run(io.NopCloser(cmd.InOrStdin()))
		},
	}
}

// shell is the state of an interactive browse session.
type shell struct {
	m         *browse.Model
	cwd       *browse.Node
	out       io.Writer
	maxValues int
}

func (s *shell) prompt() string { return "h5:" + s.cwd.Path + "> " }

func (s *shell) run(in io.ReadCloser) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          s.prompt(),
		AutoComplete:    s.completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdin:           in,
		Stdout:          s.out,
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			if line == "" {
				return nil
			}
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return err
		}
		quit, err := s.exec(line)
		if err != nil {
			fmt.Fprintln(s.out, "error:", err)
		}
		if quit {
			return nil
		}
		rl.SetPrompt(s.prompt())
	}
}

func (s *shell) completer() readline.AutoCompleter {
	children := func(string) []string {
		var out []string
		for _, c := range s.cwd.Children {
			out = append(out, c.Name)
		}
		return out
	}
	var items []readline.PrefixCompleterInterface
	for _, c := range []string{"ls", "cd", "cat", "attrs", "tree"} {
		items = append(items, readline.PcItem(c, readline.PcItemDynamic(children)))
	}
	items = append(items, readline.PcItem("pwd"), readline.PcItem("help"), readline.PcItem("exit"))
	return readline.NewPrefixCompleter(items...)
}

const shellHelp = `commands:
  ls [path]      list members
  cd [path]      change group
  pwd            print current group
  cat path       describe a dataset or group
  attrs [path]   list attributes
  tree [path]    print the hierarchy
  exit           leave
`

// exec runs one command line.
func (s *shell) exec(line string) (quit bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	arg := "."
	if len(fields) > 1 {
		arg = fields[1]
	}
	target := func() (*browse.Node, error) {
		n := s.cwd.Find(arg)
		if n == nil {
			return nil, fmt.Errorf("%s: not found", arg)
		}
		return n, nil
	}

	switch fields[0] {
	case "exit", "quit":
		return true, nil
	case "help":
		fmt.Fprint(s.out, shellHelp)
	case "pwd":
		fmt.Fprintln(s.out, s.cwd.Path)
	case "ls":
		n, err := target()
		if err != nil {
			return false, err
		}
		for _, c := range n.Children {
			fmt.Fprintf(s.out, "%-20s %s\n", c.Name, c.Class)
		}
	case "cd":
		if len(fields) == 1 {
			arg = "/"
		}
		n, err := target()
		if err != nil {
			return false, err
		}
		if n.Class != browse.ClassGroup {
			return false, fmt.Errorf("%s: not a group", arg)
		}
		s.cwd = n
	case "cat", "attrs":
		n, err := target()
		if err != nil {
			return false, err
		}
		d, err := s.m.Describe(n, s.maxValues)
		if err != nil {
			return false, err
		}
		if fields[0] == "attrs" {
			for _, a := range d.Attributes {
				fmt.Fprintf(s.out, "%s = %s\n", a.Name, browse.FormatValue(a.Value))
			}
			break
		}
		fmt.Fprint(s.out, d.Text())
	case "tree":
		n, err := target()
		if err != nil {
			return false, err
		}
		printTree(s.out, n, "")
	default:
		return false, fmt.Errorf("unknown command %q, try help", fields[0])
	}
	return false, nil
}
