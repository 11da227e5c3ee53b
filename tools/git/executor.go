// Package git enumerates working-tree changes by shelling out to git.
package git

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"slices"
	"strings"

	"github.com/c360studio/yagnidrift/drift"
)

// DefaultBinary is the git executable looked up on PATH.
const DefaultBinary = "git"

// Executor runs read-only git queries against one repository.
type Executor struct {
	repoRoot string
	binary   string
}

// NewExecutor creates a new git executor with the given repository root
func NewExecutor(repoRoot string) *Executor {
	return &Executor{repoRoot: repoRoot, binary: DefaultBinary}
}

// WithBinary overrides the git executable.
func (e *Executor) WithBinary(binary string) *Executor {
	if binary != "" {
		e.binary = binary
	}
	return e
}

// Root returns the top-level directory of the working tree containing the
// executor's root.
func (e *Executor) Root(ctx context.Context) (string, error) {
	out, err := e.runGit(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("resolve git root: %w", err)
	}
	root := strings.TrimSpace(out)
	if root == "" {
		return "", fmt.Errorf("resolve git root: empty output")
	}
	return root, nil
}

// WorkingChanges lists changed and new files relative to the repository root.
//
// Changed files are the union of unstaged, staged and untracked paths. New
// files are the union of added paths (staged or not) and untracked paths.
// Both lists are sorted. A query that fails contributes no paths; only a
// directory that is not a git repository is an error.
func (e *Executor) WorkingChanges(ctx context.Context) (*drift.ChangeSet, error) {
	if !e.isGitRepo(ctx) {
		return nil, fmt.Errorf("not a git repository: %s", e.repoRoot)
	}

	unstaged := e.lines(ctx, "diff", "--name-only")
	staged := e.lines(ctx, "diff", "--name-only", "--cached")
	untracked := e.lines(ctx, "ls-files", "--others", "--exclude-standard")

	addedUnstaged := e.lines(ctx, "diff", "--name-only", "--diff-filter=A")
	addedStaged := e.lines(ctx, "diff", "--name-only", "--cached", "--diff-filter=A")

	return &drift.ChangeSet{
		ChangedFiles: sortedUnion(unstaged, staged, untracked),
		NewFiles:     sortedUnion(addedUnstaged, addedStaged, untracked),
	}, nil
}

// runGit executes a git command in the repo directory and returns stdout.
// Stderr is kept out of the result so warnings never leak into path lists;
// it is attached to the error instead.
func (e *Executor) runGit(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, e.binary, args...)
	cmd.Dir = e.repoRoot

	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return "", fmt.Errorf("%w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", err
	}
	return string(output), nil
}

// lines returns the non-blank output lines of a git query, or nil on failure.
func (e *Executor) lines(ctx context.Context, args ...string) []string {
	out, err := e.runGit(ctx, args...)
	if err != nil {
		return nil
	}
	var result []string
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) != "" {
			result = append(result, line)
		}
	}
	return result
}

// isGitRepo checks if the repo root is a git repository
func (e *Executor) isGitRepo(ctx context.Context) bool {
	_, err := e.runGit(ctx, "rev-parse", "--git-dir")
	return err == nil
}

func sortedUnion(sets ...[]string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, set := range sets {
		for _, s := range set {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	slices.Sort(out)
	return out
}
