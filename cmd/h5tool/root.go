package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/robert-malhotra/h5bind/hdf5"
	"github.com/robert-malhotra/h5bind/internal/browse"
	"github.com/robert-malhotra/h5bind/internal/config"
)

// app carries the state shared by every command once flags are parsed.
type app struct {
	cfg *config.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{log: zap.NewNop()}
	var configPath string

	cmd := &cobra.Command{
		Use:           "h5tool",
		Short:         "Create, list and inspect HDF5 files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath, cmd.Flags())
			if err != nil {
				return err
			}
			log, err := config.NewLogger(cfg.Log)
			if err != nil {
				return err
			}
			a.cfg, a.log = cfg, log
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = a.log.Sync()
		},
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML configuration file")
	config.BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		a.demoCmd(),
		a.lsCmd(),
		a.treeCmd(),
		a.catCmd(),
		a.attrsCmd(),
		a.dumpCmd(),
		a.browseCmd(),
		a.diagnoseCmd(),
	)
	return cmd
}

func (a *app) fileOptions() []hdf5.FileOption {
	return []hdf5.FileOption{
		hdf5.WithLogger(a.log),
		hdf5.WithHeapCacheSize(a.cfg.HeapCacheSize),
	}
}

// model opens path read-only for the listing commands.
func (a *app) model(path string) (*browse.Model, error) {
	a.log.Debug("opening", zap.String("path", path))
	return browse.Open(path, a.cfg.Output.CreationOrder, a.fileOptions()...)
}

// find resolves an object path in m.
func find(m *browse.Model, path string) (*browse.Node, error) {
	n := m.Root().Find(hdf5.CleanPath(path))
	if n == nil {
		return nil, fmt.Errorf("%w: %s", hdf5.ErrNotFound, path)
	}
	return n, nil
}

// emit writes v in the configured format, using text for "text".
func (a *app) emit(w io.Writer, v any, text func() string) error {
	switch a.cfg.Output.Format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := io.WriteString(w, text())
	return err
}
