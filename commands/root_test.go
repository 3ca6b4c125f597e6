package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/penwyp/go-tflog-viewer/internal/config"
	"github.com/penwyp/go-tflog-viewer/internal/data/store"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const commandLog = `{"@level":"info","@message":"plan","@timestamp":"2024-01-01T00:00:00Z","tf_req_id":"req-a"}
{"@level":"error","@message":"apply failed","@timestamp":"2024-01-01T00:00:10Z","tf_req_id":"req-a"}
{"@level":"warn","@message":"deprecated","@timestamp":"2024-01-01T00:00:05Z","tf_req_id":"req-b"}
`

var ansi = regexp.MustCompile(`\x1b\[[0-9;?]*[A-Za-z]`)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, config.Save(config.Default(), path))
	return path
}

func TestExpandPath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected func(string) string
	}{
		{
			name:  "home directory expansion",
			input: "~/test/path",
			expected: func(home string) string {
				return filepath.Join(home, "test/path")
			},
		},
		{
			name:  "absolute path unchanged",
			input: "/absolute/path",
			expected: func(home string) string {
				return "/absolute/path"
			},
		},
		{
			name:  "relative path converted to absolute",
			input: "relative/path",
			expected: func(home string) string {
				abs, _ := filepath.Abs("relative/path")
				return abs
			},
		},
	}

	home, err := os.UserHomeDir()
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := expandPath(tt.input)
			expected := tt.expected(home)
			assert.Equal(t, expected, result)
		})
	}
}

func TestEnsureDir(t *testing.T) {
	tempDir := t.TempDir()
	testDir := filepath.Join(tempDir, "test", "nested", "dir")

	err := ensureDir(testDir)
	assert.NoError(t, err)

	// Verify directory was created
	info, err := os.Stat(testDir)
	assert.NoError(t, err)
	assert.True(t, info.IsDir())

	// Test idempotency
	err = ensureDir(testDir)
	assert.NoError(t, err)
}

func TestRootCommand_Subcommands(t *testing.T) {
	for _, name := range []string{"serve", "timeline", "search", "config"} {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestTimelineCommandFlags(t *testing.T) {
	tests := []struct {
		flag         string
		defaultValue string
		shorthand    string
	}{
		{"scale", "0", ""},
		{"width", "0", ""},
		{"interactive", "false", "i"},
		{"watch", "false", "w"},
		{"refresh", "0s", ""},
		{"query", "", "q"},
		{"level", "", ""},
		{"req-id", "", ""},
		{"limit", "0", ""},
	}

	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			flag := timelineCmd.Flags().Lookup(tt.flag)
			require.NotNil(t, flag)
			assert.Equal(t, tt.defaultValue, flag.DefValue)
			if tt.shorthand != "" {
				assert.Equal(t, tt.shorthand, flag.Shorthand)
			}
		})
	}
}

func TestTimelineCommand_RendersOnce(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "apply.jsonl"), []byte(commandLog), 0644))

	out, err := execute(t, "timeline", dir, "--width", "100", "--config", writeConfig(t))
	require.NoError(t, err)

	plain := ansi.ReplaceAllString(out, "")
	assert.Contains(t, plain, "req-a")
	assert.Contains(t, plain, "req-b")
	assert.Contains(t, plain, "2 groups, 3 bars")
}

func TestTimelineCommand_LimitWarning(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "apply.jsonl"), []byte(commandLog), 0644))

	out, err := execute(t, "timeline", dir, "--width", "100", "--limit", "2", "--config", writeConfig(t))
	require.NoError(t, err)
	plain := ansi.ReplaceAllString(out, "")
	assert.Contains(t, plain, "2 groups, 2 bars")
	assert.Contains(t, plain, "Showing the newest 2 records")

	out, err = execute(t, "timeline", dir, "--width", "100", "--limit", "0", "--config", writeConfig(t))
	require.NoError(t, err)
	assert.NotContains(t, out, "Showing the newest")
}

func TestTimelineCommand_MissingPath(t *testing.T) {
	_, err := execute(t, "timeline", filepath.Join(t.TempDir(), "missing"), "--config", writeConfig(t))
	assert.Error(t, err)
}

func TestSearchCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "apply.jsonl"), []byte(commandLog), 0644))
	cfg := writeConfig(t)

	out, err := execute(t, "search", dir, "--level", "error", "-o", "csv", "--config", cfg)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "apply failed")

	out, err = execute(t, "search", dir, "-o", "summary", "--level", "", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "Results: 3  Groups: 2  Unique requests: 2")

	out, err = execute(t, "search", dir, "-o", "table", "--to", "2024-01-01T00:00:05Z", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "2 records")

	_, err = execute(t, "search", dir, "-o", "xml", "--config", cfg)
	assert.Error(t, err)
	_, err = execute(t, "search", dir, "--from", "soon", "-o", "table", "--to", "", "--config", cfg)
	assert.Error(t, err)
}

func TestConfigInit(t *testing.T) {
	configForce = false
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	out, err := execute(t, "config", "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	loaded, err := config.Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, config.Default().Server.Addr, loaded.Server.Addr)

	_, err = execute(t, "config", "init", "--config", path)
	assert.Error(t, err, "existing file is not overwritten")

	_, err = execute(t, "config", "init", "--config", path, "--force")
	assert.NoError(t, err)
	configForce = false
}

func TestConfigShow(t *testing.T) {
	out, err := execute(t, "config", "show", "--config", writeConfig(t))
	require.NoError(t, err)
	assert.Contains(t, out, "addr: 127.0.0.1:8000")
	assert.Contains(t, out, "scale: 10")
}

func TestPreload(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.jsonl"), []byte(commandLog), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	st := store.NewMemoryStore()
	n, err := preload(st, dir, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, st.Len())

	_, err = preload(st, filepath.Join(dir, "missing"), 2)
	assert.Error(t, err)
}
