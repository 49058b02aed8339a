package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kittclouds/notekeep/internal/storage"
)

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show storage statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open()
			if err != nil {
				return err
			}
			stats, err := svc.Stats()
			if err != nil {
				return err
			}

			fmt.Printf("notes:       %d\n", stats.TotalNotes)
			fmt.Printf("tasks:       %d (%d completed, %d%%)\n",
				stats.TotalTasks, stats.CompletedTasks, stats.CompletionRate)
			fmt.Printf("total words: %d\n", stats.TotalWords)
			if svc.Degraded() {
				fmt.Println("backend:     flat fallback (degraded)")
			}
			return nil
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Export all data as a JSON snapshot (stdout by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open()
			if err != nil {
				return err
			}
			doc, err := svc.Export()
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return err
			}
			if len(args) == 0 {
				fmt.Println(string(out))
				return nil
			}
			return os.WriteFile(args[0], out, 0o644)
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a JSON snapshot through the normal save path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var doc storage.ExportDocument
			if err := json.Unmarshal(content, &doc); err != nil {
				return fmt.Errorf("parse snapshot: %w", err)
			}

			svc, err := a.open()
			if err != nil {
				return err
			}
			return svc.Import(&doc)
		},
	}
}

func newClearCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all notes, tasks, settings, and the knowledge graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear without --yes")
			}
			svc, err := a.open()
			if err != nil {
				return err
			}
			return svc.ClearAll()
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the irreversible clear")
	return cmd
}
