package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/c360studio/yagnidrift/config"
	"github.com/c360studio/yagnidrift/drift"
	"github.com/c360studio/yagnidrift/metrics"
	"github.com/c360studio/yagnidrift/policy"
	"github.com/c360studio/yagnidrift/storage"
	"github.com/c360studio/yagnidrift/tools/git"
	"github.com/c360studio/yagnidrift/workgraph"
)

// CheckOptions selects the side effects of a check.
type CheckOptions struct {
	TaskID          string
	WriteLog        bool
	CreateFollowUps bool
	MetricsTextfile string
}

// App wires the workgraph, git and storage collaborators around the drift core.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	wg      *workgraph.Client
	store   *storage.Store
	metrics *metrics.Collector
	out     io.Writer
}

// NewApp creates an application bound to one workgraph directory.
func NewApp(cfg *config.Config, wgDir string, logger *slog.Logger, out io.Writer) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		cfg:     cfg,
		logger:  logger,
		wg:      workgraph.NewClient(wgDir).WithBinary(cfg.Workgraph.Binary),
		store:   storage.NewStore(wgDir, cfg.State.Dir),
		metrics: metrics.NewCollector(),
		out:     out,
	}
}

// WithRunner replaces the command runner used for wg.
func (a *App) WithRunner(r workgraph.Runner) *App {
	a.wg.WithRunner(r)
	return a
}

// Check evaluates one task and performs the requested side effects.
// The returned error is non-nil only when the task could not be evaluated.
func (a *App) Check(ctx context.Context, opts CheckOptions) (drift.Report, error) {
	logger := a.logger.With("task_id", opts.TaskID)

	task, err := a.wg.ShowTask(ctx, opts.TaskID)
	if err != nil {
		return drift.Report{}, fmt.Errorf("load task: %w", err)
	}
	title := task.Title
	if title == "" {
		title = task.ID
	}

	body, ok := policy.ExtractBlock(task.Description)
	if !ok {
		logger.Debug("Task has no yagnidrift block")
		report := drift.NoPolicyReport(task.ID, title)
		a.observe(logger, report, opts.MetricsTextfile)
		return report, nil
	}

	var report drift.Report
	computed := false
	p, err := policy.Load(body)
	if err != nil {
		var parseErr *policy.ParseError
		var validationErr *policy.ValidationError
		switch {
		case errors.As(err, &parseErr):
			logger.Warn("Yagnidrift block does not parse", "error", parseErr.Err)
		case errors.As(err, &validationErr):
			logger.Warn("Yagnidrift block is invalid", "field", validationErr.Field, "reason", validationErr.Reason)
		}
		report = drift.InvalidPolicyReport(task.ID, title, err)
	} else {
		for _, warning := range p.Lint() {
			logger.Warn("Yagnidrift policy", "warning", warning)
		}
		gitRoot, changes := a.workingChanges(ctx, logger)
		report = drift.Compute(drift.Input{
			TaskID:      task.ID,
			TaskTitle:   title,
			Description: task.Description,
			GitRoot:     gitRoot,
			Policy:      p,
			Changes:     changes,
		})
		computed = true
	}
	report.Block = policy.FenceBlock(body)

	if err := a.store.Save(report); err != nil {
		logger.Warn("Failed to write snapshot", "path", a.store.Path(), "error", err)
	} else {
		logger.Debug("Snapshot written", "path", a.store.Path())
	}

	if opts.WriteLog {
		if err := a.wg.Log(ctx, task.ID, drift.LogMessage(report)); err != nil {
			logger.Warn("Failed to write task log", "error", err)
		}
	}

	// A policy that cannot be read gets no follow-up; the log line says to fix it.
	if opts.CreateFollowUps && computed {
		a.createFollowUp(ctx, logger, report)
	}

	a.observe(logger, report, opts.MetricsTextfile)
	return report, nil
}

// workingChanges resolves the git root of the project and its change set.
// Both are nil when the project is not inside a git working tree.
func (a *App) workingChanges(ctx context.Context, logger *slog.Logger) (*string, *drift.ChangeSet) {
	root, err := git.NewExecutor(a.wg.ProjectDir()).WithBinary(a.cfg.Git.Binary).Root(ctx)
	if err != nil {
		logger.Debug("No git working tree", "project", a.wg.ProjectDir(), "error", err)
		return nil, nil
	}

	changes, err := git.NewExecutor(root).WithBinary(a.cfg.Git.Binary).WorkingChanges(ctx)
	if err != nil {
		logger.Warn("Failed to list working changes", "root", root, "error", err)
		return &root, nil
	}
	logger.Debug("Working changes",
		"root", root,
		"changed", len(changes.ChangedFiles),
		"new", len(changes.NewFiles))
	return &root, changes
}

func (a *App) createFollowUp(ctx context.Context, logger *slog.Logger, report drift.Report) {
	task, ok := workgraph.FollowUp(report)
	if !ok {
		return
	}
	created, err := a.wg.EnsureTask(ctx, task)
	if err != nil {
		logger.Warn("Failed to create follow-up task", "follow_up", task.ID, "error", err)
		return
	}
	if created {
		logger.Info("Created follow-up task", "follow_up", task.ID)
	} else {
		logger.Debug("Follow-up task already exists", "follow_up", task.ID)
	}
}

func (a *App) observe(logger *slog.Logger, report drift.Report, textfile string) {
	if textfile == "" {
		return
	}
	a.metrics.Observe(report)
	if err := a.metrics.WriteTextfile(textfile); err != nil {
		logger.Warn("Failed to write metrics", "path", textfile, "error", err)
	}
}

// Last returns the report saved by the most recent check.
func (a *App) Last() (drift.Report, error) {
	r, err := a.store.Load()
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return drift.Report{}, fmt.Errorf("no snapshot in %s, run wg check first: %w", a.store.Dir(), err)
		}
		return drift.Report{}, err
	}
	return *r, nil
}

// Print writes a report as JSON or text.
func (a *App) Print(report drift.Report, asJSON bool) error {
	if asJSON {
		return drift.WriteJSON(a.out, report)
	}
	return drift.WriteText(a.out, report)
}
