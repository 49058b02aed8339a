package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kittclouds/notekeep/internal/storage"
)

func newTaskCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage study tasks",
	}

	var priority, noteID, description string
	add := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open()
			if err != nil {
				return err
			}

			task := &storage.Task{
				Title:         args[0],
				Description:   description,
				Priority:      storage.Priority(priority),
				RelatedNoteID: noteID,
			}
			saved, err := svc.SaveTask(task)
			if err != nil {
				return err
			}
			fmt.Println(saved.ID)
			return nil
		},
	}
	add.Flags().StringVar(&priority, "priority", "medium", "low, medium, or high")
	add.Flags().StringVar(&description, "desc", "", "task description")
	add.Flags().StringVar(&noteID, "note", "", "related note id")

	done := &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a task completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open()
			if err != nil {
				return err
			}
			task, err := svc.SetTaskCompleted(args[0], true)
			if err != nil {
				return err
			}
			if task == nil {
				return fmt.Errorf("no task with id %s", args[0])
			}
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List all tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open()
			if err != nil {
				return err
			}
			tasks, err := svc.ListTasks()
			if err != nil {
				return err
			}
			for _, t := range tasks {
				mark := " "
				if t.Completed {
					mark = "x"
				}
				fmt.Printf("[%s] %s  %s  (%s)\n", mark, t.ID, t.Title, t.Priority)
			}
			return nil
		},
	}

	rm := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open()
			if err != nil {
				return err
			}
			return svc.DeleteTask(args[0])
		},
	}

	cmd.AddCommand(add, done, list, rm)
	return cmd
}
