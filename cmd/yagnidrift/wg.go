package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/c360studio/yagnidrift/drift"
	"github.com/c360studio/yagnidrift/watch"
	"github.com/c360studio/yagnidrift/workgraph"
)

func wgCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wg",
		Short: "Check workgraph tasks for complexity drift",
	}
	cmd.AddCommand(checkCmd(opts), watchCmd(opts), lastCmd(opts))
	return cmd
}

func checkCmd(opts *globalOptions) *cobra.Command {
	var check CheckOptions

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check one task and exit 3 when drift is found",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if check.TaskID == "" {
				return usageError("--task is required")
			}

			app, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			if check.MetricsTextfile == "" {
				check.MetricsTextfile = app.cfg.Metrics.Textfile
			}

			report, err := app.Check(cmd.Context(), check)
			if err != nil {
				return &exitError{code: exitFailure, err: err}
			}
			if err := app.Print(report, opts.json); err != nil {
				return &exitError{code: exitFailure, err: err}
			}
			if code := reportExitCode(report); code != exitOK {
				return &exitError{code: code}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&check.TaskID, "task", "", "Task id to check")
	cmd.Flags().BoolVar(&check.WriteLog, "write-log", false, "Append a one-line summary to the task log")
	cmd.Flags().BoolVar(&check.CreateFollowUps, "create-followups", false, "Create a drift-yagni-<task> follow-up task when drift is found")
	cmd.Flags().StringVar(&check.MetricsTextfile, "metrics-textfile", "", "Write Prometheus gauges to this textfile")

	return cmd
}

func watchCmd(opts *globalOptions) *cobra.Command {
	var (
		taskID   string
		debounce time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-check a task whenever project files change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if taskID == "" {
				return usageError("--task is required")
			}

			app, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			if debounce <= 0 {
				debounce = app.cfg.Watch.Debounce
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			w, err := watch.NewWatcher(watch.Config{
				Root:     app.wg.ProjectDir(),
				Extra:    []string{app.wg.Dir()},
				Debounce: debounce,
				Ignore:   []string{app.store.Dir(), app.cfg.Metrics.Textfile},
				Logger:   app.logger,
			})
			if err != nil {
				return &exitError{code: exitFailure, err: fmt.Errorf("start watcher: %w", err)}
			}
			defer w.Close()

			check := CheckOptions{TaskID: taskID, MetricsTextfile: app.cfg.Metrics.Textfile}
			recheck := func(ctx context.Context) error {
				report, err := app.Check(ctx, check)
				if err != nil {
					if errors.Is(err, context.Canceled) {
						return nil
					}
					app.logger.Error("Check failed", "task_id", taskID, "error", err)
					return nil
				}
				app.logger.Info("Check complete",
					"task_id", taskID,
					"score", report.Score,
					"findings", len(report.Findings))
				return app.Print(report, opts.json)
			}

			if err := recheck(ctx); err != nil {
				return &exitError{code: exitFailure, err: err}
			}
			if err := w.Run(ctx, recheck); err != nil {
				return &exitError{code: exitFailure, err: err}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&taskID, "task", "", "Task id to watch")
	cmd.Flags().DurationVar(&debounce, "debounce", 0, "Quiet period before re-checking (default from config)")

	return cmd
}

func lastCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "last",
		Short: "Print the report saved by the most recent check",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd, opts)
			if err != nil {
				return err
			}

			report, err := app.Last()
			if err != nil {
				return &exitError{code: exitFailure, err: err}
			}
			if err := app.Print(report, opts.json); err != nil {
				return &exitError{code: exitFailure, err: err}
			}
			if code := reportExitCode(report); code != exitOK {
				return &exitError{code: code}
			}
			return nil
		},
	}
}

// newApp loads configuration and binds an App to the selected workgraph.
func newApp(cmd *cobra.Command, opts *globalOptions) (*App, error) {
	cfg, logger, err := setup(opts, cmd.ErrOrStderr())
	if err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			return nil, err
		}
		return nil, &exitError{code: exitFailure, err: err}
	}

	wgDir, err := workgraph.FindDir(cfg.Workgraph.Dir)
	if err != nil {
		return nil, &exitError{code: exitFailure, err: err}
	}
	logger.Debug("Using workgraph", "dir", wgDir)

	return NewApp(cfg, wgDir, logger, cmd.OutOrStdout()), nil
}

// reportExitCode maps a report onto the check exit code.
func reportExitCode(r drift.Report) int {
	if r.HasFindings() {
		return exitFindings
	}
	return exitOK
}
