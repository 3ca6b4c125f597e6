package render

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/penwyp/go-tflog-viewer/internal/core/model"
	"github.com/penwyp/go-tflog-viewer/internal/core/timeline"
	"github.com/penwyp/go-tflog-viewer/internal/util"
)

const (
	// PixelsPerCell converts bar widths to terminal columns
	PixelsPerCell = 8.0

	defaultLabelWidth = 24
	minChartWidth     = 10

	glyphUnread = "█"
	glyphRead   = "▓"
	glyphTrack  = "·"
)

// ExpandState tells the renderer which groups are expanded
type ExpandState interface {
	IsExpanded(key string) bool
}

type allExpanded struct{}

func (allExpanded) IsExpanded(string) bool { return true }

// Gantt draws a timeline.Result as one terminal line per row
type Gantt struct {
	// Width is the total line width; 0 follows the terminal
	Width      int
	LabelWidth int
	sizer      Sizer
}

// NewGantt creates a renderer for the given total width
func NewGantt(width int) *Gantt {
	return &Gantt{Width: width, LabelWidth: defaultLabelWidth}
}

type cell struct {
	set     bool
	level   model.Level
	opacity float64
}

func (g *Gantt) widths() (label, chart int) {
	total := g.Width
	if total <= 0 {
		total = g.sizer.TerminalWidth()
	}
	label = g.LabelWidth
	if label <= 0 {
		label = defaultLabelWidth
	}
	// label + " │" + chart + "│"
	chart = total - label - 3
	if chart < minChartWidth {
		chart = minChartWidth
	}
	return label, chart
}

// Column maps a left percentage to a chart column in [0, chartWidth-1]
func Column(leftPercent float64, chartWidth int) int {
	if chartWidth <= 1 {
		return 0
	}
	col := int(math.Round(leftPercent / 100 * float64(chartWidth-1)))
	return max(0, min(chartWidth-1, col))
}

// Cells converts a bar width in pixels to a column count of at least one
func Cells(widthPixels float64) int {
	return max(1, int(math.Round(widthPixels/PixelsPerCell)))
}

// Render draws result. Rows whose group is collapsed show only their bar count.
func (g *Gantt) Render(result timeline.Result, expand ExpandState) string {
	if expand == nil {
		expand = allExpanded{}
	}
	labelWidth, chartWidth := g.widths()

	var b strings.Builder
	if result.Empty() {
		b.WriteString(mutedStyle.Render("No timestamped records to display"))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(g.header(result, labelWidth, chartWidth))
	for _, row := range result.Rows {
		b.WriteString(g.row(row, expand.IsExpanded(row.Key), labelWidth, chartWidth))
	}
	b.WriteString(g.legend())
	return b.String()
}

func (g *Gantt) header(result timeline.Result, labelWidth, chartWidth int) string {
	tp := util.GetTimeProvider()
	start := tp.Format(result.Axis.Min, time.RFC3339)
	end := tp.Format(result.Axis.Max, time.RFC3339)

	title := fmt.Sprintf("%d groups, %s bars, span %s, zoom %.1fx",
		len(result.Rows), util.FormatNumber(result.BarCount()),
		util.FormatDuration(result.Axis.Duration()), result.Scale)

	gap := chartWidth - len(start) - len(end)
	axis := start + strings.Repeat(" ", max(1, gap)) + end

	return headerStyle.Render(title) + "\n" +
		strings.Repeat(" ", labelWidth+2) + axisStyle.Render(axis) + "\n"
}

func (g *Gantt) row(row timeline.Row, expanded bool, labelWidth, chartWidth int) string {
	marker := "▾ "
	if !expanded {
		marker = "▸ "
	}
	label := labelStyle.Render(g.sizer.PadString(marker+row.Key, labelWidth, true))

	if !expanded {
		return label + " " + mutedStyle.Render(fmt.Sprintf("(%d events)", len(row.Bars))) + "\n"
	}

	cells := make([]cell, chartWidth)
	for _, bar := range row.Bars {
		start := Column(bar.LeftPercent, chartWidth)
		end := min(chartWidth, start+Cells(bar.WidthPixels))
		for i := start; i < end; i++ {
			if cells[i].set && levelRank(cells[i].level) >= levelRank(bar.Level) {
				continue
			}
			cells[i] = cell{set: true, level: bar.Level, opacity: bar.Opacity}
		}
	}

	var b strings.Builder
	b.WriteString(label)
	b.WriteString(axisStyle.Render(" │"))
	for _, c := range cells {
		switch {
		case !c.set:
			b.WriteString(axisStyle.Render(glyphTrack))
		case c.opacity < 1:
			b.WriteString(levelStyle(c.level, c.opacity).Render(glyphRead))
		default:
			b.WriteString(levelStyle(c.level, c.opacity).Render(glyphUnread))
		}
	}
	b.WriteString(axisStyle.Render("│"))
	b.WriteString("\n")
	return b.String()
}

func (g *Gantt) legend() string {
	levels := []model.Level{model.LevelError, model.LevelWarning, model.LevelInfo, model.LevelDebug, model.LevelOther}
	parts := make([]string, 0, len(levels)+1)
	for _, l := range levels {
		parts = append(parts, levelStyle(l, 1).Render(glyphUnread)+" "+string(l))
	}
	parts = append(parts, mutedStyle.Render(glyphRead+" read"))
	return strings.Join(parts, "  ") + "\n"
}
