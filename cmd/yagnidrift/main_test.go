package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/yagnidrift/config"
	"github.com/c360studio/yagnidrift/drift"
	"github.com/c360studio/yagnidrift/storage"
)

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	var stdout, stderr bytes.Buffer
	code := execute(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestExecuteExitCodes(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStderr string
	}{
		{
			name:       "check without task",
			args:       []string{"wg", "check"},
			wantCode:   exitUsage,
			wantStderr: "--task is required",
		},
		{
			name:       "watch without task",
			args:       []string{"wg", "watch"},
			wantCode:   exitUsage,
			wantStderr: "--task is required",
		},
		{
			name:       "unknown flag",
			args:       []string{"wg", "check", "--bogus"},
			wantCode:   exitUsage,
			wantStderr: "unknown flag",
		},
		{
			name:       "invalid log level flag",
			args:       []string{"wg", "check", "--task", "t1", "--log-level", "bogus"},
			wantCode:   exitUsage,
			wantStderr: "log.level must be one of",
		},
		{
			name:       "missing workgraph",
			args:       []string{"wg", "check", "--task", "t1", "--dir", "/nonexistent/project"},
			wantCode:   exitFailure,
			wantStderr: "workgraph not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := run(t, tt.args...)
			assert.Equal(t, tt.wantCode, code)
			assert.Contains(t, stderr, tt.wantStderr)
		})
	}
}

func TestVersion(t *testing.T) {
	code, stdout, _ := run(t, "version")
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "yagnidrift version "+Version+" (build: "+BuildTime+")\n", stdout)
}

func TestExitErrorWithoutCause(t *testing.T) {
	err := &exitError{code: exitFindings}
	assert.Equal(t, "exit status 3", err.Error())
	assert.Nil(t, err.Unwrap())
}

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "warn")
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestConfigInit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.ProjectConfigFile)

	code, stdout, _ := run(t, "config", "init", "--dir", dir)
	require.Equal(t, exitOK, code)
	assert.Equal(t, "Wrote "+path+"\n", stdout)

	written, err := config.LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), written)

	code, _, stderr := run(t, "config", "init", "--dir", dir)
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "already exists")

	code, _, _ = run(t, "config", "init", "--dir", dir, "--force")
	assert.Equal(t, exitOK, code)

	explicit := filepath.Join(dir, "nested", "custom.yaml")
	code, _, _ = run(t, "config", "init", "--config", explicit)
	assert.Equal(t, exitOK, code)
	assert.FileExists(t, explicit)
}

func TestWgLast(t *testing.T) {
	wgDir := newProject(t)
	project := filepath.Dir(wgDir)

	code, _, stderr := run(t, "wg", "last", "--dir", project)
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "run wg check first")

	store := storage.NewStore(wgDir, "")
	require.NoError(t, store.Save(drift.InvalidPolicyReport("t1", "Checkout", errors.New("bad"))))

	code, stdout, _ := run(t, "wg", "last", "--dir", project, "--json")
	assert.Equal(t, exitFindings, code)
	saved, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Equal(t, string(saved), stdout)

	require.NoError(t, store.Save(drift.NoPolicyReport("t2", "Clean")))
	code, stdout, _ = run(t, "wg", "last", "--dir", project)
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "t2: Clean")
}
