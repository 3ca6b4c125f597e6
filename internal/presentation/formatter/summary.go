package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/penwyp/go-tflog-viewer/internal/core/grouper"
	"github.com/penwyp/go-tflog-viewer/internal/core/model"
)

var levelOrder = []model.Level{model.LevelError, model.LevelWarning, model.LevelInfo, model.LevelDebug, model.LevelOther}

// SummaryFormatter prints counters and one line per request group
type SummaryFormatter struct{}

func NewSummaryFormatter() *SummaryFormatter {
	return &SummaryFormatter{}
}

func (f *SummaryFormatter) Format(w io.Writer, records []model.LogRecord) error {
	var b strings.Builder

	s := grouper.Summarize(records)
	fmt.Fprintf(&b, "Results: %d  Groups: %d  Unique requests: %d\n", s.Results, s.Groups, s.UniqueRequests)

	counts := make(map[model.Level]int)
	for _, r := range records {
		counts[r.Level]++
	}
	parts := make([]string, 0, len(levelOrder))
	for _, level := range levelOrder {
		if counts[level] > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", level, counts[level]))
		}
	}
	if len(parts) > 0 {
		fmt.Fprintf(&b, "Levels: %s\n", strings.Join(parts, " "))
	}

	groups := grouper.ByRequestID(records)
	if len(groups) > 0 {
		b.WriteString("\n")
	}
	for _, g := range groups {
		label := g.Key
		if g.Sentinel {
			label = "(no request id)"
		}
		fmt.Fprintf(&b, "  %-40s %5d records", label, len(g.Records))

		first, last, ok := bounds(g.Records)
		if ok {
			fmt.Fprintf(&b, "  span %s", formatSpan(*first.TS, *last.TS))
		}
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// bounds returns the earliest and latest timestamped records
func bounds(records []model.LogRecord) (first, last model.LogRecord, ok bool) {
	for _, r := range records {
		if !r.HasTimestamp() {
			continue
		}
		if !ok || r.TS.Before(*first.TS) {
			first = r
		}
		if !ok || r.TS.After(*last.TS) {
			last = r
		}
		ok = true
	}
	return first, last, ok
}
