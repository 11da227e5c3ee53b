package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errStop = errors.New("stop")

func TestRunFiresAfterChange(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0755))

	w, err := NewWatcher(Config{Root: root, Debounce: 50 * time.Millisecond})
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Events are buffered by fsnotify, so writing before Run is safe.
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "a.go"), []byte("package src\n"), 0644))

	calls := 0
	err = w.Run(ctx, func(context.Context) error {
		calls++
		return errStop
	})

	assert.ErrorIs(t, err, errStop)
	assert.Equal(t, 1, calls)
}

func TestRunReturnsOnCancel(t *testing.T) {
	w, err := NewWatcher(Config{Root: t.TempDir()})
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = w.Run(ctx, func(context.Context) error {
		t.Fatal("callback must not run without changes")
		return nil
	})
	assert.NoError(t, err)
}

func TestHandleFSEvent(t *testing.T) {
	w, err := NewWatcher(Config{Root: t.TempDir()})
	require.NoError(t, err)
	defer w.Close()

	assert.True(t, w.handleFSEvent(fsnotify.Event{Name: "/repo/src/a.go", Op: fsnotify.Write}))
	assert.False(t, w.handleFSEvent(fsnotify.Event{Name: "/repo/.git", Op: fsnotify.Write}))
	assert.False(t, w.handleFSEvent(fsnotify.Event{Name: "/repo/src/.tmp-123", Op: fsnotify.Create}))
}

func TestRunIgnoresOwnOutput(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "metrics"), 0755))
	textfile := filepath.Join(root, "metrics", "yagnidrift.prom")
	stateDir := filepath.Join(root, "state")

	w, err := NewWatcher(Config{
		Root:     root,
		Debounce: 20 * time.Millisecond,
		Ignore:   []string{textfile, stateDir},
	})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(textfile+"123456", []byte("tmp"), 0644))
	require.NoError(t, os.Rename(textfile+"123456", textfile))
	require.NoError(t, os.MkdirAll(stateDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(stateDir, "last.json"), []byte("{}"), 0644))

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	calls := 0
	err = w.Run(ctx, func(context.Context) error {
		calls++
		return nil
	})
	assert.NoError(t, err)
	assert.Zero(t, calls)
}

func TestIgnored(t *testing.T) {
	w, err := NewWatcher(Config{Root: t.TempDir(), Ignore: []string{"/repo/metrics/out.prom", "/repo/state"}})
	require.NoError(t, err)
	defer w.Close()

	assert.True(t, w.ignored("/repo/metrics/out.prom"))
	assert.True(t, w.ignored("/repo/metrics/out.prom.tmp"))
	assert.True(t, w.ignored("/repo/state"))
	assert.True(t, w.ignored("/repo/state/last.json"))
	assert.False(t, w.ignored("/repo/metrics/other.prom"))
	assert.False(t, w.ignored("/repo/stateful/x.go"))
	assert.False(t, w.handleFSEvent(fsnotify.Event{Name: "/repo/state/last.json", Op: fsnotify.Write}))
}

func TestSkipDir(t *testing.T) {
	assert.True(t, skipDir(".git"))
	assert.True(t, skipDir("vendor"))
	assert.True(t, skipDir("node_modules"))
	assert.False(t, skipDir("src"))
}
