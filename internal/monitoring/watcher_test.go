package monitoring

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isJSONL(p string) bool { return strings.HasSuffix(p, ".jsonl") }

// waitFor returns the first event for path, skipping others
func waitFor(t *testing.T, fw *FileWatcher, path string) FileEvent {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case ev, ok := <-fw.Events():
			require.True(t, ok, "event channel closed")
			if ev.Path == path {
				return ev
			}
		case <-deadline:
			t.Fatalf("no event for %s", path)
		}
	}
}

func TestFileWatcher_DirectoryFiltersByMatch(t *testing.T) {
	dir := t.TempDir()
	fw, err := NewFileWatcher(dir, isJSONL)
	require.NoError(t, err)
	defer fw.Close()

	ignored := filepath.Join(dir, "notes.txt")
	watched := filepath.Join(dir, "apply.jsonl")
	require.NoError(t, os.WriteFile(ignored, []byte("x"), 0644))
	require.NoError(t, os.WriteFile(watched, []byte("{}\n"), 0644))

	ev := waitFor(t, fw, watched)
	assert.NotEmpty(t, ev.Operation)
}

func TestFileWatcher_SingleFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "terraform.log")
	other := filepath.Join(dir, "other.log")
	require.NoError(t, os.WriteFile(target, nil, 0644))

	fw, err := NewFileWatcher(target, nil)
	require.NoError(t, err)
	defer fw.Close()

	require.NoError(t, os.WriteFile(other, []byte("x"), 0644))
	require.NoError(t, os.WriteFile(target, []byte("{}\n"), 0644))

	ev := waitFor(t, fw, target)
	assert.Equal(t, target, ev.Path)
}

func TestFileWatcher_MissingRoot(t *testing.T) {
	_, err := NewFileWatcher(filepath.Join(t.TempDir(), "missing"), nil)
	assert.Error(t, err)
}

func TestFileWatcher_CloseClosesEvents(t *testing.T) {
	fw, err := NewFileWatcher(t.TempDir(), nil)
	require.NoError(t, err)

	require.NoError(t, fw.Close())
	require.NoError(t, fw.Close())

	select {
	case _, ok := <-fw.Events():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("events channel not closed")
	}
}
