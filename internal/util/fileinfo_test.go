package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetFileInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apply.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0644))

	info, err := GetFileInfo(path)
	require.NoError(t, err)
	assert.Equal(t, int64(3), info.Size)
	assert.NotZero(t, info.Inode)
	assert.NotZero(t, info.ModTime)

	again, err := GetFileInfo(path)
	require.NoError(t, err)
	assert.Equal(t, info, again)

	_, err = GetFileInfo(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestCalculateFileFingerprint(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "apply.jsonl")

	require.NoError(t, os.WriteFile(path, nil, 0644))
	empty, err := CalculateFileFingerprint(path)
	require.NoError(t, err)
	assert.Equal(t, "00000000", empty)

	require.NoError(t, os.WriteFile(path, []byte(`{"a":1}`+"\n"), 0644))
	first, err := CalculateFileFingerprint(path)
	require.NoError(t, err)
	assert.Len(t, first, 8)

	same, err := CalculateFileFingerprint(path)
	require.NoError(t, err)
	assert.Equal(t, first, same)

	// Only the tail is hashed
	big := strings.Repeat("x", 4096)
	require.NoError(t, os.WriteFile(path, []byte("A"+big), 0644))
	a, err := CalculateFileFingerprint(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("B"+big), 0644))
	b, err := CalculateFileFingerprint(path)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	_, err = CalculateFileFingerprint(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
