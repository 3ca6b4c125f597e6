package render

import (
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/penwyp/go-tflog-viewer/internal/util"
	"golang.org/x/term"
)

const (
	fallbackWidth = 100
	minWidth      = 40
)

// Sizer measures and pads text by display width
type Sizer struct{}

// PadString pads s with spaces to width display columns, truncating with an ellipsis when longer
func (Sizer) PadString(s string, width int, leftAlign bool) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) > width {
		return runewidth.Truncate(s, width, "…")
	}
	if leftAlign {
		return runewidth.FillRight(s, width)
	}
	return runewidth.FillLeft(s, width)
}

// Center centers s within width columns
func (Sizer) Center(s string, width int) string {
	w := runewidth.StringWidth(s)
	if w >= width {
		return s
	}
	left := (width - w) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-w-left)
}

// TerminalWidth returns the stdout width, or a fallback when stdout is not a terminal
func (Sizer) TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < minWidth {
		width = fallbackWidth
	}
	util.LogDebugf("TerminalWidth %d", width)
	return width
}
