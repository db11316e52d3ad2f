package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

const (
	exitOK      = 0
	exitFatal   = 1
	exitPartial = 2
)

// exitError carries a process exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

type buildInfo struct {
	version, commit, date string
}

func newRootCmd(info buildInfo) *cobra.Command {
	root := &cobra.Command{
		Use:   SERVICENAME,
		Short: "Run backup and audit tasks across Cisco devices over SSH",
		Long: `netaudit connects to every device of an inventory over SSH, runs the selected
tasks and prints one pipe-delimited line per device.

Tasks run in a fixed order regardless of how they are requested:
  backup, software, cdp, ntp

Examples:
  # Back up and audit every device
  netaudit run -i inventory.yaml -c all

  # Only collect CDP neighbors and the running image
  netaudit run -i inventory.yaml -c cdp,software

  # List available tasks
  netaudit tasks list

Exit codes:
  0 = every device and task succeeded
  1 = fatal error (nothing ran)
  2 = some device or task failed`,
		Version:       fmt.Sprintf("%s (%s) %s", info.version, info.commit, info.date),
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetVersionTemplate("{{.Version}}\n")

	root.AddCommand(newRunCmd())
	root.AddCommand(newTasksCmd())
	root.AddCommand(newVersionCmd(info))
	return root
}

// execute runs root with args and maps the outcome to an exit code.
func execute(root *cobra.Command, args []string) int {
	root.SetArgs(args)
	err := root.Execute()
	if err == nil {
		return exitOK
	}
	code := exitFatal
	var ee *exitError
	if errors.As(err, &ee) {
		code = ee.code
		if ee.err == nil {
			return code
		}
	}
	fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
	return code
}

func newVersionCmd(info buildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\ncommit: %s\nbuilt:  %s\n", SERVICENAME, info.version, info.commit, info.date)
		},
	}
}
