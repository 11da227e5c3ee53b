package workgraph

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner records invocations and answers them with Handler.
type fakeRunner struct {
	Calls   [][]string
	Handler func(args []string) ([]byte, error)
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.Calls = append(f.Calls, append([]string{name}, args...))
	if f.Handler == nil {
		return nil, errors.New("fake runner: no handler defined")
	}
	return f.Handler(args)
}

func TestShowTask(t *testing.T) {
	runner := &fakeRunner{Handler: func(args []string) ([]byte, error) {
		return []byte(`{"id":"t1","title":"Checkout","description":"Build it","status":"open"}`), nil
	}}
	client := NewClient("/repo/.workgraph").WithRunner(runner)

	task, err := client.ShowTask(context.Background(), "t1")
	require.NoError(t, err)

	assert.Equal(t, "Checkout", task.Title)
	assert.Equal(t, "Build it", task.Description)
	assert.Equal(t, [][]string{{"wg", "--dir", "/repo/.workgraph", "show", "t1", "--json"}}, runner.Calls)
}

func TestShowTaskErrors(t *testing.T) {
	t.Run("command fails", func(t *testing.T) {
		runner := &fakeRunner{Handler: func([]string) ([]byte, error) { return nil, errors.New("exit status 1") }}
		_, err := NewClient("/wg").WithRunner(runner).ShowTask(context.Background(), "missing")
		assert.ErrorContains(t, err, "show task missing")
	})

	t.Run("bad json", func(t *testing.T) {
		runner := &fakeRunner{Handler: func([]string) ([]byte, error) { return []byte("not json"), nil }}
		_, err := NewClient("/wg").WithRunner(runner).ShowTask(context.Background(), "t1")
		assert.ErrorContains(t, err, "decode task t1")
	})
}

func TestLog(t *testing.T) {
	runner := &fakeRunner{Handler: func([]string) ([]byte, error) { return nil, nil }}
	client := NewClient("/wg").WithBinary("wg-dev").WithRunner(runner)

	require.NoError(t, client.Log(context.Background(), "t1", "Yagnidrift: OK (no findings)"))
	assert.Equal(t, [][]string{{"wg-dev", "--dir", "/wg", "log", "t1", "Yagnidrift: OK (no findings)"}}, runner.Calls)
}

func TestEnsureTask(t *testing.T) {
	task := NewTask{
		ID:          "drift-yagni-t1",
		Title:       "yagni: Checkout",
		Description: "desc",
		BlockedBy:   []string{"t1"},
		Tags:        []string{"drift", "yagni"},
	}

	t.Run("existing task untouched", func(t *testing.T) {
		runner := &fakeRunner{Handler: func([]string) ([]byte, error) { return []byte(`{}`), nil }}

		created, err := NewClient("/wg").WithRunner(runner).EnsureTask(context.Background(), task)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Len(t, runner.Calls, 1)
	})

	t.Run("missing task added", func(t *testing.T) {
		runner := &fakeRunner{Handler: func(args []string) ([]byte, error) {
			if args[2] == "show" {
				return nil, errors.New("not found")
			}
			return nil, nil
		}}

		created, err := NewClient("/wg").WithRunner(runner).EnsureTask(context.Background(), task)
		require.NoError(t, err)
		assert.True(t, created)
		require.Len(t, runner.Calls, 2)
		assert.Equal(t, []string{
			"wg", "--dir", "/wg", "add", "yagni: Checkout", "--id", "drift-yagni-t1",
			"-d", "desc", "--blocked-by", "t1", "-t", "drift", "-t", "yagni",
		}, runner.Calls[1])
	})

	t.Run("add fails", func(t *testing.T) {
		runner := &fakeRunner{Handler: func([]string) ([]byte, error) { return nil, errors.New("boom") }}

		_, err := NewClient("/wg").WithRunner(runner).EnsureTask(context.Background(), task)
		assert.ErrorContains(t, err, "add task drift-yagni-t1")
	})
}

func makeWorkgraph(t *testing.T, root string) string {
	t.Helper()
	dir := filepath.Join(root, DirName)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, GraphFile), nil, 0644))
	return dir
}

func TestFindDir(t *testing.T) {
	root := t.TempDir()
	wgDir := makeWorkgraph(t, root)

	t.Run("explicit project dir", func(t *testing.T) {
		got, err := FindDir(root)
		require.NoError(t, err)
		assert.Equal(t, wgDir, got)
	})

	t.Run("explicit workgraph dir", func(t *testing.T) {
		got, err := FindDir(wgDir)
		require.NoError(t, err)
		assert.Equal(t, wgDir, got)
	})

	t.Run("explicit dir without graph", func(t *testing.T) {
		_, err := FindDir(t.TempDir())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("search from nested directory", func(t *testing.T) {
		nested := filepath.Join(root, "src", "deep")
		require.NoError(t, os.MkdirAll(nested, 0755))

		got, err := findDirFrom(nested)
		require.NoError(t, err)
		assert.Equal(t, wgDir, got)
	})

	t.Run("search finds nothing", func(t *testing.T) {
		_, err := findDirFrom(t.TempDir())
		if err == nil {
			t.Skip("a workgraph exists above the temp directory")
		}
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestClientDirs(t *testing.T) {
	c := NewClient(filepath.Join("proj", DirName))
	assert.Equal(t, filepath.Join("proj", DirName), c.Dir())
	assert.Equal(t, "proj", c.ProjectDir())
	assert.True(t, strings.HasSuffix(c.Dir(), DirName))
}
