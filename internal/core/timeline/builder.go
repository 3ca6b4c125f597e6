package timeline

import (
	"fmt"
	"math"
	"time"

	"github.com/penwyp/go-tflog-viewer/internal/core/grouper"
	"github.com/penwyp/go-tflog-viewer/internal/core/model"
)

// AxisOf computes the global time axis over every timestamped record.
// ok is false when no record carries a timestamp.
func AxisOf(records []model.LogRecord) (axis TimeAxis, ok bool) {
	for _, r := range records {
		if !r.HasTimestamp() {
			continue
		}
		ts := *r.TS
		if !ok {
			axis = TimeAxis{Min: ts, Max: ts}
			ok = true
			continue
		}
		if ts.Before(axis.Min) {
			axis.Min = ts
		}
		if ts.After(axis.Max) {
			axis.Max = ts
		}
	}
	return axis, ok
}

// Position returns the horizontal offset of ts on the axis as a percentage in [0, 100].
// A zero-length axis places everything at 0.
func (a TimeAxis) Position(ts time.Time) float64 {
	total := a.Duration()
	if total <= 0 {
		return 0
	}
	pct := float64(ts.Sub(a.Min)) / float64(total) * 100
	return math.Max(0, math.Min(100, pct))
}

// Layout groups records by request id and places every timestamped record on
// one global time axis. Groups without any timestamped record are omitted and
// row indices are assigned to the remaining rows in group order.
func Layout(records []model.LogRecord, zoom ZoomState) Result {
	result := Result{Scale: zoom.Scale, Rows: []Row{}}

	axis, ok := AxisOf(records)
	if !ok {
		return result
	}
	result.Axis = axis

	width := zoom.BarWidth()
	for _, g := range grouper.ByRequestID(records) {
		rowIndex := len(result.Rows)
		var bars []BarGeometry
		for _, r := range g.Records {
			if !r.HasTimestamp() {
				continue
			}
			bars = append(bars, BarGeometry{
				RecordID:    r.ID,
				LeftPercent: axis.Position(*r.TS),
				WidthPixels: width,
				RowIndex:    rowIndex,
				Color:       ColorForLevel(r.Level),
				Opacity:     OpacityFor(r),
				Level:       r.Level,
				Title:       barTitle(r),
			})
		}
		if len(bars) == 0 {
			continue
		}
		result.Rows = append(result.Rows, Row{
			Key:      g.Key,
			Sentinel: g.Sentinel,
			RowIndex: rowIndex,
			Bars:     bars,
		})
	}

	return result
}

func barTitle(r model.LogRecord) string {
	return fmt.Sprintf("%s - %s", r.Level, r.TS.UTC().Format(time.RFC3339Nano))
}
