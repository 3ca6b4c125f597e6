package formatter

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/penwyp/go-tflog-viewer/internal/core/model"
)

const excerptWidth = 60

type TableFormatter struct {
	headers []string
}

func NewTableFormatter() *TableFormatter {
	return &TableFormatter{
		headers: []string{"ID", "Time", "Level", "Request", "Resource", "Message"},
	}
}

func (f *TableFormatter) Format(w io.Writer, records []model.LogRecord) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			strconv.FormatInt(r.ID, 10),
			formatTS(r),
			string(r.Level),
			orDash(r.ReqID),
			orDash(r.Resource),
			runewidth.Truncate(strings.Join(strings.Fields(r.Excerpt), " "), excerptWidth, "…"),
		})
	}

	widths := f.calculateColumnWidths(rows)

	var b strings.Builder
	f.printBorder(&b, widths, "top")
	f.printRow(&b, f.headers, widths)
	f.printBorder(&b, widths, "middle")
	for _, row := range rows {
		f.printRow(&b, row, widths)
	}
	f.printBorder(&b, widths, "bottom")
	fmt.Fprintf(&b, "%d records\n", len(records))

	_, err := io.WriteString(w, b.String())
	return err
}

func (f *TableFormatter) calculateColumnWidths(rows [][]string) []int {
	widths := make([]int, len(f.headers))
	for i, h := range f.headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, value := range row {
			if vw := runewidth.StringWidth(value); vw > widths[i] {
				widths[i] = vw
			}
		}
	}
	return widths
}

// printBorder writes table borders (top, middle, bottom)
func (f *TableFormatter) printBorder(b *strings.Builder, widths []int, borderType string) {
	var left, middle, right string

	switch borderType {
	case "top":
		left, middle, right = "┌", "┬", "┐"
	case "middle":
		left, middle, right = "├", "┼", "┤"
	case "bottom":
		left, middle, right = "└", "┴", "┘"
	}

	b.WriteString(left)
	for i, width := range widths {
		b.WriteString(strings.Repeat("─", width+2)) // +2 for padding spaces
		if i < len(widths)-1 {
			b.WriteString(middle)
		}
	}
	b.WriteString(right + "\n")
}

// printRow writes a row; the ID column is right-aligned, the rest left-aligned
func (f *TableFormatter) printRow(b *strings.Builder, values []string, widths []int) {
	b.WriteString("│")
	for i, value := range values {
		if i == 0 {
			b.WriteString(" " + runewidth.FillLeft(value, widths[i]) + " │")
		} else {
			b.WriteString(" " + runewidth.FillRight(value, widths[i]) + " │")
		}
	}
	b.WriteString("\n")
}
