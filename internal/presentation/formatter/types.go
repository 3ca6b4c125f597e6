// Package formatter prints search results for the command line.
package formatter

import (
	"fmt"
	"io"
	"time"

	"github.com/penwyp/go-tflog-viewer/internal/core/model"
	"github.com/penwyp/go-tflog-viewer/internal/util"
)

// Output formats
const (
	FormatTable   = "table"
	FormatJSON    = "json"
	FormatCSV     = "csv"
	FormatSummary = "summary"
)

// Formatter writes a batch of records to w
type Formatter interface {
	Format(w io.Writer, records []model.LogRecord) error
}

// New returns the formatter for name
func New(name string) (Formatter, error) {
	switch name {
	case FormatTable, "":
		return NewTableFormatter(), nil
	case FormatJSON:
		return NewJSONFormatter(), nil
	case FormatCSV:
		return NewCSVFormatter(), nil
	case FormatSummary:
		return NewSummaryFormatter(), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (table, json, csv, summary)", name)
	}
}

const timeLayout = "2006-01-02 15:04:05.000"

func formatTS(r model.LogRecord) string {
	if !r.HasTimestamp() {
		return "-"
	}
	return util.GetTimeProvider().Format(*r.TS, timeLayout)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatSpan(first, last time.Time) string {
	return util.FormatDuration(last.Sub(first))
}
