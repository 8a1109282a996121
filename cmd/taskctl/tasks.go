package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/taskboard/internal/tasks"
)

func newTasksCmd(get func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List and edit tasks",
	}
	cmd.AddCommand(newTasksListCmd(get))
	cmd.AddCommand(newTasksCreateCmd(get))
	cmd.AddCommand(newTasksUpdateCmd(get))
	cmd.AddCommand(newTasksDeleteCmd(get))
	cmd.AddCommand(newTasksToggleCmd(get))
	return cmd
}

func newTasksListCmd(get func() *app) *cobra.Command {
	var (
		page   int
		search string
		status string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List one page of tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := tasks.ParseStatus(status)
			if err != nil {
				return err
			}
			result, err := get().tasks.List(cmd.Context(), tasks.ListParams{Page: page, Search: search, Status: st})
			if err != nil {
				return err
			}
			printTasks(cmd.OutOrStdout(), result.Data)
			fmt.Fprintf(cmd.OutOrStdout(), "page %d of %d\n", result.Pagination.Page, result.Pagination.TotalPages)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().StringVar(&search, "search", "", "Filter by text")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (PENDING or COMPLETED)")

	return cmd
}

func newTasksCreateCmd(get func() *app) *cobra.Command {
	var in tasks.Input

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := get().tasks.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			printTasks(cmd.OutOrStdout(), []tasks.Task{*task})
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Title, "title", "", "Task title (required)")
	cmd.Flags().StringVar(&in.Description, "description", "", "Task description")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func newTasksUpdateCmd(get func() *app) *cobra.Command {
	var in tasks.Input

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace a task's title and description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := get().tasks.Update(cmd.Context(), args[0], in)
			if err != nil {
				return err
			}
			printTasks(cmd.OutOrStdout(), []tasks.Task{*task})
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Title, "title", "", "Task title (required)")
	cmd.Flags().StringVar(&in.Description, "description", "", "Task description")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func newTasksDeleteCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := get().tasks.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

func newTasksToggleCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip a task between PENDING and COMPLETED",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := get().tasks.Toggle(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printTasks(cmd.OutOrStdout(), []tasks.Task{*task})
			return nil
		},
	}
}

func printTasks(w io.Writer, list []tasks.Task) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tTITLE\tCREATED")
	for _, t := range list {
		created := ""
		if !t.CreatedAt.IsZero() {
			created = t.CreatedAt.Format("2006-01-02")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.ID, t.Status, t.Title, created)
	}
	_ = tw.Flush()
}
