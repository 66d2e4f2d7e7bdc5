package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"modelctl/pkg/supervisor"

	"github.com/spf13/cobra"
)

// errUsage the invocation named no verb or an unknown one
var errUsage = errors.New("usage error")

type rootOptions struct {
	configPath string
}

// Execute runs one CLI invocation and returns the process exit code
func Execute(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCommand(stdout, stderr)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "modelctl",
		Short:         "Start, stop, restart and inspect the model worker",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				fmt.Fprintf(stderr, "Error: unknown verb %q\n", args[0])
			}
			fmt.Fprint(stderr, cmd.UsageString())
			return errUsage
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to the configuration file")

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		fmt.Fprintf(stderr, "Error: %v\n%s", err, c.UsageString())
		return errUsage
	})

	cmd.AddCommand(
		newStartCommand(opts),
		newStopCommand(opts),
		newRestartCommand(opts),
		newStatusCommand(opts),
		newHistoryCommand(opts),
	)
	cmd.CompletionOptions.DisableDefaultCmd = true
	return cmd
}

// runOperation initializes the application, runs one supervisor operation and prints its result
func runOperation(cmd *cobra.Command, opts *rootOptions, forceStop bool,
	op func(*supervisor.Supervisor, context.Context) (*supervisor.Result, error)) error {
	app := NewApplication(opts.configPath, forceStop)
	defer app.Shutdown()
	if err := app.Initialize(); err != nil {
		return err
	}

	res, err := op(app.supervisor, app.ctx)
	printResult(cmd.OutOrStdout(), res, err)
	return err
}

func newStartCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Launch the worker unless it is already running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOperation(cmd, opts, false, (*supervisor.Supervisor).Start)
		},
	}
}

func newStopCommand(opts *rootOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Ask the worker to terminate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOperation(cmd, opts, force, (*supervisor.Supervisor).Stop)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "send SIGKILL instead of the configured stop signal")
	return cmd
}

func newRestartCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "restart",
		Short: "Stop the worker, pause, then start it again",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOperation(cmd, opts, false, (*supervisor.Supervisor).Restart)
		},
	}
}

func newStatusCommand(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report worker liveness and its last self-reported state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !asJSON {
				return runOperation(cmd, opts, false, (*supervisor.Supervisor).Status)
			}

			app := NewApplication(opts.configPath, false)
			defer app.Shutdown()
			if err := app.Initialize(); err != nil {
				return err
			}
			res, err := app.supervisor.Status(app.ctx)
			if printErr := printRecordJSON(cmd.OutOrStdout(), res); printErr != nil {
				return printErr
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw status record as JSON")
	return cmd
}

func newHistoryCommand(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent lifecycle events from the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := NewApplication(opts.configPath, false)
			defer app.Shutdown()
			if err := app.Initialize(); err != nil {
				return err
			}
			if app.journal == nil {
				return errors.New("lifecycle journal is disabled, set journal.driver")
			}
			if limit <= 0 {
				limit = app.config.Journal.HistoryLimit
			}
			entries, err := app.journal.ListRecent(app.ctx, limit)
			if err != nil {
				return fmt.Errorf("failed to read lifecycle journal: %w", err)
			}
			printHistory(cmd.OutOrStdout(), entries)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "number of events to show (default journal.history_limit)")
	return cmd
}
