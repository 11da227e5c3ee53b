// Package workgraph reads and writes task records through the wg command-line
// tool.
package workgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const (
	// DirName is the workgraph state directory inside a project.
	DirName = ".workgraph"
	// GraphFile marks a directory as a workgraph.
	GraphFile = "graph.jsonl"
	// DefaultBinary is the wg executable looked up on PATH.
	DefaultBinary = "wg"
)

// ErrNotFound is returned when no workgraph directory can be located.
var ErrNotFound = errors.New("workgraph not found")

// Task is the subset of a wg task record yagnidrift reads.
type Task struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Status      string   `json:"status,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// NewTask describes a task to create.
type NewTask struct {
	ID          string
	Title       string
	Description string
	BlockedBy   []string
	Tags        []string
}

// Runner executes an external command and returns its stdout.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes name with args. A non-zero exit is returned as an error that
// includes the command's stderr.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return out, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, msg)
		}
		return out, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return out, nil
}

// Client talks to one workgraph through the wg binary.
type Client struct {
	dir    string
	binary string
	runner Runner
}

// NewClient creates a client for the workgraph directory dir.
func NewClient(dir string) *Client {
	return &Client{dir: dir, binary: DefaultBinary, runner: ExecRunner{}}
}

// WithBinary overrides the wg executable.
func (c *Client) WithBinary(binary string) *Client {
	if binary != "" {
		c.binary = binary
	}
	return c
}

// WithRunner replaces the command runner.
func (c *Client) WithRunner(r Runner) *Client {
	if r != nil {
		c.runner = r
	}
	return c
}

// Dir returns the workgraph directory.
func (c *Client) Dir() string {
	return c.dir
}

// ProjectDir returns the directory that contains the workgraph.
func (c *Client) ProjectDir() string {
	return filepath.Dir(c.dir)
}

func (c *Client) run(ctx context.Context, args ...string) ([]byte, error) {
	return c.runner.Run(ctx, c.binary, append([]string{"--dir", c.dir}, args...)...)
}

// ShowTask loads a task record.
func (c *Client) ShowTask(ctx context.Context, id string) (*Task, error) {
	out, err := c.run(ctx, "show", id, "--json")
	if err != nil {
		return nil, fmt.Errorf("show task %s: %w", id, err)
	}

	var task Task
	if err := json.Unmarshal(out, &task); err != nil {
		return nil, fmt.Errorf("decode task %s: %w", id, err)
	}
	if task.ID == "" {
		task.ID = id
	}
	return &task, nil
}

// Log appends a message to a task's log.
func (c *Client) Log(ctx context.Context, id, message string) error {
	if _, err := c.run(ctx, "log", id, message); err != nil {
		return fmt.Errorf("log task %s: %w", id, err)
	}
	return nil
}

// EnsureTask creates t unless a task with its ID already exists.
// created reports whether a new task was added.
func (c *Client) EnsureTask(ctx context.Context, t NewTask) (created bool, err error) {
	if _, err := c.run(ctx, "show", t.ID, "--json"); err == nil {
		return false, nil
	}

	args := []string{"add", t.Title, "--id", t.ID}
	if t.Description != "" {
		args = append(args, "-d", t.Description)
	}
	if len(t.BlockedBy) > 0 {
		args = append(args, "--blocked-by")
		args = append(args, t.BlockedBy...)
	}
	for _, tag := range t.Tags {
		args = append(args, "-t", tag)
	}

	if _, err := c.run(ctx, args...); err != nil {
		return false, fmt.Errorf("add task %s: %w", t.ID, err)
	}
	return true, nil
}

// FindDir locates the workgraph directory.
//
// With an explicit path, that path (or its .workgraph child) must contain
// graph.jsonl. Otherwise the current directory and its parents are searched.
func FindDir(explicit string) (string, error) {
	if explicit != "" {
		dir := explicit
		if filepath.Base(dir) != DirName {
			dir = filepath.Join(dir, DirName)
		}
		if _, err := os.Stat(filepath.Join(dir, GraphFile)); err != nil {
			return "", fmt.Errorf("%w at %s", ErrNotFound, dir)
		}
		return dir, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	return findDirFrom(cwd)
}

// findDirFrom searches start and its parents for .workgraph/graph.jsonl.
func findDirFrom(start string) (string, error) {
	dir := start
	for {
		candidate := filepath.Join(dir, DirName)
		if _, err := os.Stat(filepath.Join(candidate, GraphFile)); err == nil {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("%w: could not find %s/%s; pass --dir", ErrNotFound, DirName, GraphFile)
}
