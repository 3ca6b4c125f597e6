package timeline

import (
	"time"

	"github.com/penwyp/go-tflog-viewer/internal/core/model"
)

// BaseWidthPixels is the bar width at zoom scale 1
const BaseWidthPixels = 3.0

// TimeAxis is the shared [Min, Max] range every row is positioned against
type TimeAxis struct {
	Min time.Time `json:"min"`
	Max time.Time `json:"max"`
}

// Duration returns the span of the axis
func (a TimeAxis) Duration() time.Duration {
	return a.Max.Sub(a.Min)
}

// BarGeometry is the renderable placement of one record
type BarGeometry struct {
	RecordID    int64       `json:"id"`
	LeftPercent float64     `json:"left_percent"`
	WidthPixels float64     `json:"width_px"`
	RowIndex    int         `json:"row"`
	Color       string      `json:"color"`
	Opacity     float64     `json:"opacity"`
	Level       model.Level `json:"level"`
	Title       string      `json:"title"`
}

// Row is one group rendered on the timeline
type Row struct {
	Key      string        `json:"key"`
	Sentinel bool          `json:"sentinel"`
	RowIndex int           `json:"row"`
	Bars     []BarGeometry `json:"bars"`
}

// Result is the full layout of one batch of records.
// Axis is meaningful only when Rows is non-empty.
type Result struct {
	Axis  TimeAxis `json:"axis"`
	Scale float64  `json:"scale"`
	Rows  []Row    `json:"rows"`
}

// Empty reports whether there is nothing to draw
func (r Result) Empty() bool {
	return len(r.Rows) == 0
}

// BarCount returns the number of bars across all rows
func (r Result) BarCount() int {
	n := 0
	for _, row := range r.Rows {
		n += len(row.Bars)
	}
	return n
}
