// Command notekeep is the terminal surface for the notekeep persistence
// layer: notes, tasks, settings, and the knowledge graph stored under a
// per-user data directory.
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/kittclouds/notekeep/internal/config"
	"github.com/kittclouds/notekeep/internal/logger"
	"github.com/kittclouds/notekeep/internal/storage"

	hackos "github.com/hack-pad/hackpadfs/os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// app carries the resolved configuration and lazily-opened storage shared
// by all subcommands.
type app struct {
	cfg config.Config
	log *log.Logger
	svc *storage.Service
}

func newRootCmd() *cobra.Command {
	a := &app{}

	var dataDir, sqlitePath string
	var fallback, debug bool

	root := &cobra.Command{
		Use:           "notekeep",
		Short:         "Personal study notes, tasks, and knowledge graph",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v, err := config.InitViper(dataDir)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("db") {
				v.Set("sqlite_path", sqlitePath)
			}
			if cmd.Flags().Changed("fallback") {
				v.Set("fallback", fallback)
			}
			if cmd.Flags().Changed("debug") {
				v.Set("debug", debug)
			}

			a.cfg, err = config.Load(v)
			if err != nil {
				return err
			}
			a.log = logger.New(a.cfg.Debug, nil)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.svc != nil {
				return a.svc.Close()
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&dataDir, "data-dir", config.DefaultDataDir(), "data directory")
	root.PersistentFlags().StringVar(&sqlitePath, "db", "", "sqlite database path (default <data-dir>/notekeep.db)")
	root.PersistentFlags().BoolVar(&fallback, "fallback", false, "force the flat file store")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "debug logging")

	root.AddCommand(newNoteCmd(a))
	root.AddCommand(newTaskCmd(a))
	root.AddCommand(newStatsCmd(a))
	root.AddCommand(newExportCmd(a))
	root.AddCommand(newImportCmd(a))
	root.AddCommand(newClearCmd(a))

	return root
}

// open builds the storage service on first use. The flat fallback files
// live beside the database in the data directory.
func (a *app) open() (*storage.Service, error) {
	if a.svc != nil {
		return a.svc, nil
	}

	if err := os.MkdirAll(a.cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	osfs := hackos.NewFS()
	fsPath, err := osfs.FromOSPath(a.cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}
	dataFS, err := osfs.Sub(fsPath)
	if err != nil {
		return nil, fmt.Errorf("open data dir: %w", err)
	}

	dsn := a.cfg.DatabasePath()
	if a.cfg.Fallback {
		dsn = ""
	}

	svc, err := storage.Open(storage.Config{
		SQLiteDSN:  dsn,
		FallbackFS: dataFS,
	}, a.log)
	if err != nil {
		return nil, err
	}
	a.svc = svc
	return svc, nil
}
