package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kittclouds/notekeep/internal/storage"
)

func newNoteCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "note",
		Short: "Manage notes",
	}

	var tags []string
	add := &cobra.Command{
		Use:   "add <title> [content]",
		Short: "Create a note",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open()
			if err != nil {
				return err
			}

			note := &storage.Note{Title: args[0], Tags: tags}
			if len(args) > 1 {
				note.Content = args[1]
			}
			saved, err := svc.SaveNote(note)
			if err != nil {
				return err
			}
			fmt.Println(saved.ID)
			return nil
		},
	}
	add.Flags().StringSliceVar(&tags, "tag", nil, "tag (repeatable)")

	list := &cobra.Command{
		Use:   "list",
		Short: "List all notes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open()
			if err != nil {
				return err
			}
			notes, err := svc.ListNotes()
			if err != nil {
				return err
			}
			printNotes(notes)
			return nil
		},
	}

	search := &cobra.Command{
		Use:   "search <query>",
		Short: "Search notes by title, content, or tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open()
			if err != nil {
				return err
			}
			notes, err := svc.SearchNotes(args[0])
			if err != nil {
				return err
			}
			printNotes(notes)
			return nil
		},
	}

	rm := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open()
			if err != nil {
				return err
			}
			return svc.DeleteNote(args[0])
		},
	}

	cmd.AddCommand(add, list, search, rm)
	return cmd
}

func printNotes(notes []*storage.Note) {
	for _, n := range notes {
		line := fmt.Sprintf("%s  %s  %s  (%d words)", n.ID, formatMillis(n.UpdatedAt), n.Title, n.WordCount)
		if len(n.Tags) > 0 {
			line += "  [" + strings.Join(n.Tags, ", ") + "]"
		}
		fmt.Println(line)
	}
}

func formatMillis(ms int64) string {
	return time.UnixMilli(ms).Format("2006-01-02 15:04")
}
