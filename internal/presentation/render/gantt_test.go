package render

import (
	"bytes"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/penwyp/go-tflog-viewer/internal/core/model"
	"github.com/penwyp/go-tflog-viewer/internal/core/timeline"
	"github.com/penwyp/go-tflog-viewer/internal/util"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func plain(s string) string {
	return ansi.ReplaceAllString(s, "")
}

func at(sec int) *time.Time {
	ts := time.Date(2024, 1, 1, 0, 0, sec, 0, time.UTC)
	return &ts
}

type collapsed map[string]bool

func (c collapsed) IsExpanded(key string) bool { return !c[key] }

func sampleResult() timeline.Result {
	return timeline.Layout([]model.LogRecord{
		{ID: 1, TS: at(0), Level: model.LevelInfo, ReqID: "A"},
		{ID: 2, TS: at(10), Level: model.LevelError, ReqID: "A"},
		{ID: 3, TS: at(5), Level: model.LevelWarning, ReqID: "B", ReadFlag: 1},
	}, timeline.DefaultZoom())
}

func TestColumn(t *testing.T) {
	assert.Equal(t, 0, Column(0, 50))
	assert.Equal(t, 49, Column(100, 50))
	assert.Equal(t, 25, Column(50, 51))
	assert.Equal(t, 0, Column(100, 1))
	assert.Equal(t, 49, Column(150, 50))
}

func TestCells(t *testing.T) {
	assert.Equal(t, 4, Cells(30))
	assert.Equal(t, 1, Cells(3))
	assert.Equal(t, 1, Cells(1))
	assert.Equal(t, 8, Cells(60))
}

func TestGantt_RenderEmpty(t *testing.T) {
	out := NewGantt(80).Render(timeline.Layout(nil, timeline.DefaultZoom()), nil)

	assert.Contains(t, plain(out), "No timestamped records to display")
}

func TestGantt_RenderRows(t *testing.T) {
	g := &Gantt{Width: 60, LabelWidth: 20}
	lines := strings.Split(strings.TrimRight(plain(g.Render(sampleResult(), nil)), "\n"), "\n")

	// title, axis, two rows, legend
	require.Len(t, lines, 5)
	assert.Contains(t, lines[0], "2 groups, 3 bars, span 10.0s, zoom 10.0x")
	assert.True(t, strings.HasPrefix(strings.TrimSpace(lines[1]), "2024-01-01T00:00:00Z"))
	assert.True(t, strings.HasSuffix(lines[1], "2024-01-01T00:00:10Z"))

	chartWidth := 60 - 20 - 3
	rowA := lines[2]
	assert.True(t, strings.HasPrefix(rowA, "▾ A"))
	chart := strings.TrimSuffix(strings.SplitN(rowA, "│", 2)[1], "│")
	cells := []rune(chart)
	require.Len(t, cells, chartWidth)
	assert.Equal(t, "████", string(cells[:4]), "scale 10 gives 30px, four cells")
	assert.Equal(t, '█', cells[chartWidth-1], "bar at 100% is clipped to the chart")
	assert.Equal(t, '·', cells[4])

	rowB := lines[3]
	assert.True(t, strings.HasPrefix(rowB, "▾ B"))
	assert.Contains(t, rowB, "▓", "read record renders with the faded glyph")
}

func TestGantt_GoldenFrames(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	gantt := &Gantt{Width: 60, LabelWidth: 20}

	g.Assert(t, "gantt_expanded", []byte(plain(gantt.Render(sampleResult(), nil))))
	g.Assert(t, "gantt_collapsed", []byte(plain(gantt.Render(sampleResult(), collapsed{"A": true}))))
}

func TestGantt_RenderCollapsed(t *testing.T) {
	g := &Gantt{Width: 60, LabelWidth: 20}
	out := plain(g.Render(sampleResult(), collapsed{"A": true}))

	assert.Contains(t, out, "▸ A")
	assert.Contains(t, out, "(2 events)")
	assert.Contains(t, out, "▾ B")
}

func TestGantt_LongLabelTruncated(t *testing.T) {
	result := timeline.Layout([]model.LogRecord{
		{ID: 1, TS: at(0), Level: model.LevelInfo, ReqID: strings.Repeat("x", 50)},
	}, timeline.DefaultZoom())
	g := &Gantt{Width: 60, LabelWidth: 10}

	rows := strings.Split(plain(g.Render(result, nil)), "\n")

	assert.True(t, strings.HasPrefix(rows[2], "▾ xxxxxxx…"))
}

func TestSizer_PadString(t *testing.T) {
	var s Sizer

	assert.Equal(t, "ab   ", s.PadString("ab", 5, true))
	assert.Equal(t, "   ab", s.PadString("ab", 5, false))
	assert.Equal(t, "日本 ", s.PadString("日本", 5, true))
	assert.Equal(t, "abc…", s.PadString("abcdef", 4, true))
	assert.Equal(t, "", s.PadString("abc", 0, true))
	assert.Equal(t, " ab  ", s.Center("ab", 5))
}

func TestTerminalDisplay_AlternateScreen(t *testing.T) {
	var buf bytes.Buffer
	td := NewTerminalDisplay(&buf)

	td.Draw("frame")
	assert.Equal(t, "frame", buf.String())

	buf.Reset()
	td.EnterAlternateScreen()
	td.EnterAlternateScreen()
	assert.Equal(t, 1, strings.Count(buf.String(), util.EnterAltScreen))

	buf.Reset()
	td.Draw("frame")
	assert.True(t, strings.HasPrefix(buf.String(), util.MoveCursorHome))

	buf.Reset()
	td.ExitAlternateScreen()
	assert.Contains(t, buf.String(), util.ExitAltScreen)
	assert.Contains(t, buf.String(), util.ShowCursor)
}

func TestTerminalDisplay_StatusLine(t *testing.T) {
	td := NewTerminalDisplay(&bytes.Buffer{})

	assert.Equal(t, "Loading...", plain(td.StatusLine(true, "", 80)))
	assert.Equal(t, "3 new lines", plain(td.StatusLine(false, "3 new lines", 80)))
	assert.Contains(t, plain(td.StatusLine(false, "", 200)), "+/- zoom")
	assert.Contains(t, plain(td.HelpScreen(40)), "Zoom in")
}
