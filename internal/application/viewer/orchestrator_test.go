package viewer

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/penwyp/go-tflog-viewer/internal/data/store"
	"github.com/penwyp/go-tflog-viewer/internal/monitoring"
	"github.com/penwyp/go-tflog-viewer/internal/presentation/interaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const orchestratorLog = `{"@level":"info","@message":"plan","@timestamp":"2024-01-01T00:00:00Z","tf_req_id":"req-a"}
{"@level":"error","@message":"apply failed","@timestamp":"2024-01-01T00:00:10Z","tf_req_id":"req-a"}
{"@level":"warn","@message":"deprecated","@timestamp":"2024-01-01T00:00:05Z","tf_req_id":"req-b"}
`

var ansi = regexp.MustCompile(`\x1b\[[0-9;?]*[A-Za-z]`)

func newTestOrchestrator(t *testing.T) (*Orchestrator, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "apply.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(orchestratorLog), 0644))

	o, err := NewOrchestrator(&Config{Path: dir, Width: 100}, &bytes.Buffer{})
	require.NoError(t, err)
	return o, path
}

func waitRedraw(t *testing.T, o *Orchestrator) {
	t.Helper()
	select {
	case <-o.redraw:
	case <-time.After(3 * time.Second):
		t.Fatal("background refresh did not finish")
	}
}

func TestConfig_Validate(t *testing.T) {
	c := &Config{}
	assert.Error(t, c.Validate())

	c = &Config{Path: ".", RefreshInterval: -time.Second}
	require.NoError(t, c.Validate())
	assert.Equal(t, 10.0, c.Zoom.Scale)
	assert.Equal(t, 4, c.Concurrency)
	assert.Equal(t, DefaultLimit, c.Query.Limit)
	assert.Zero(t, c.RefreshInterval)
}

func TestOrchestrator_RenderOnce(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	out, err := o.RenderOnce(context.Background())
	require.NoError(t, err)

	plain := ansi.ReplaceAllString(out, "")
	assert.Contains(t, plain, "req-a")
	assert.Contains(t, plain, "req-b")
	assert.Contains(t, plain, "2 groups, 3 bars")
}

func TestOrchestrator_RenderOnceMissingPath(t *testing.T) {
	o, err := NewOrchestrator(&Config{Path: filepath.Join(t.TempDir(), "nope")}, &bytes.Buffer{})
	require.NoError(t, err)

	_, err = o.RenderOnce(context.Background())
	assert.Error(t, err)
}

func TestOrchestrator_ZoomActions(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	ctx := context.Background()
	_, err := o.RenderOnce(ctx)
	require.NoError(t, err)

	assert.False(t, o.handleAction(ctx, interaction.ActionZoomIn))
	assert.Equal(t, 10.5, o.state.Zoom().Scale)
	assert.Equal(t, 31.5, o.state.Result().Rows[0].Bars[0].WidthPixels)

	o.handleAction(ctx, interaction.ActionZoomOut)
	o.handleAction(ctx, interaction.ActionZoomOut)
	assert.Equal(t, 9.5, o.state.Zoom().Scale)

	o.handleAction(ctx, interaction.ActionResetZoom)
	assert.Equal(t, 10.0, o.state.Zoom().Scale)
}

func TestOrchestrator_ExpandCollapse(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	ctx := context.Background()
	_, err := o.RenderOnce(ctx)
	require.NoError(t, err)

	o.handleAction(ctx, interaction.ActionCollapseAll)
	assert.False(t, o.state.IsExpanded("req-a"))
	assert.False(t, o.state.IsExpanded("req-b"))
	assert.Contains(t, ansi.ReplaceAllString(o.frame(), ""), "(2 events)")

	o.handleAction(ctx, interaction.ActionExpandAll)
	assert.True(t, o.state.IsExpanded("req-a"))
}

func TestOrchestrator_HelpAndQuit(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	ctx := context.Background()

	assert.False(t, o.handleKeyboard(ctx, interaction.KeyEvent{Key: 'h', Type: interaction.KeyChar}))
	assert.True(t, o.showHelp)
	assert.Contains(t, o.frame(), "Help")

	// Escape closes help instead of quitting
	assert.False(t, o.handleKeyboard(ctx, interaction.KeyEvent{Key: 27, Type: interaction.KeyEscape}))
	assert.False(t, o.showHelp)

	assert.True(t, o.handleKeyboard(ctx, interaction.KeyEvent{Key: 'q', Type: interaction.KeyChar}))
	assert.True(t, o.handleKeyboard(ctx, interaction.KeyEvent{Key: 27, Type: interaction.KeyEscape}))
}

func TestOrchestrator_ToggleUnreadRefreshes(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	ctx := context.Background()
	_, err := o.RenderOnce(ctx)
	require.NoError(t, err)
	before := o.state.Generation()

	o.handleAction(ctx, interaction.ActionToggleUnread)
	waitRedraw(t, o)

	assert.True(t, o.state.UnreadOnly())
	assert.Greater(t, o.state.Generation(), before)
	assert.Contains(t, ansi.ReplaceAllString(o.frame(), ""), "unread only")
}

func TestOrchestrator_MarkReadThenUnreadOnly(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	ctx := context.Background()
	_, err := o.RenderOnce(ctx)
	require.NoError(t, err)

	o.handleAction(ctx, interaction.ActionMarkRead)
	waitRedraw(t, o)
	for _, r := range o.state.Records() {
		assert.True(t, r.IsRead(), "record %d", r.ID)
	}
	require.Equal(t, 3, o.state.Result().BarCount(), "read records stay on the chart")

	o.handleAction(ctx, interaction.ActionToggleUnread)
	waitRedraw(t, o)
	assert.True(t, o.state.Result().Empty())
}

func TestOrchestrator_TruncatedNote(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "apply.jsonl"), []byte(orchestratorLog), 0644))

	o, err := NewOrchestrator(&Config{Path: dir, Width: 100, Query: store.Query{Limit: 2}}, &bytes.Buffer{})
	require.NoError(t, err)
	_, err = o.RenderOnce(context.Background())
	require.NoError(t, err)

	assert.True(t, o.Truncated())
	assert.Contains(t, ansi.ReplaceAllString(o.frame(), ""), "newest 2 records shown")

	full, _ := newTestOrchestrator(t)
	_, err = full.RenderOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, full.Truncated())
}

func TestOrchestrator_FileChangeReloads(t *testing.T) {
	o, path := newTestOrchestrator(t)
	ctx := context.Background()
	_, err := o.RenderOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, o.state.Result().BarCount())

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"@level":"info","@message":"done","@timestamp":"2024-01-01T00:00:20Z","tf_req_id":"req-c"}` + "\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	o.handleFileChange(ctx, monitoring.FileEvent{Path: path, Operation: "WRITE"})
	waitRedraw(t, o)

	assert.Equal(t, 4, o.state.Result().BarCount())
	assert.Len(t, o.state.Result().Rows, 3)
}

func TestOrchestrator_RefreshActionDropsCache(t *testing.T) {
	o, path := newTestOrchestrator(t)
	ctx := context.Background()
	_, err := o.RenderOnce(ctx)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{"@level":"info","@timestamp":"2024-01-01T00:00:00Z","tf_req_id":"only"}`+"\n"), 0644))
	o.handleAction(ctx, interaction.ActionRefresh)
	waitRedraw(t, o)

	require.Len(t, o.state.Result().Rows, 1)
	assert.Equal(t, "only", o.state.Result().Rows[0].Key)
}

func TestOrchestrator_CloseWithoutWatcher(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	assert.NoError(t, o.Close())
}
