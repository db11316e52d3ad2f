package main

import (
	"fmt"
	"io"

	"github.com/andrej220/netaudit/internal/tasks"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newTasksCmd() *cobra.Command {
	tasksCmd := &cobra.Command{
		Use:   "tasks",
		Short: "Inspect available tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var quiet bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks in execution order",
		Long: `List every registered task in the order it runs on a device.

"all" selects every task listed here.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printTasks(cmd.OutOrStdout(), tasks.DefaultRegistry(tasks.Options{}), quiet)
			return nil
		},
	}
	listCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Only print task IDs")

	tasksCmd.AddCommand(listCmd)
	return tasksCmd
}

func printTasks(w io.Writer, reg *tasks.Registry, quiet bool) {
	bold := color.New(color.Bold)
	for _, id := range reg.IDs() {
		if quiet {
			fmt.Fprintln(w, id)
			continue
		}
		t, _ := reg.Get(id)
		bold.Fprintf(w, "%-10s", id)
		fmt.Fprintln(w, t.Description())
	}
}
