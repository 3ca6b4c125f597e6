package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/penwyp/go-tflog-viewer/internal/util"
)

// TerminalDisplay owns the screen while the interactive timeline runs
type TerminalDisplay struct {
	out               io.Writer
	inAlternateScreen bool
	sizer             Sizer
}

// NewTerminalDisplay creates a display writing to out
func NewTerminalDisplay(out io.Writer) *TerminalDisplay {
	return &TerminalDisplay{out: out}
}

// EnterAlternateScreen switches to the alternate screen buffer and hides the cursor
func (td *TerminalDisplay) EnterAlternateScreen() {
	if td.inAlternateScreen {
		return
	}
	fmt.Fprint(td.out, util.EnterAltScreen, util.ClearScreen, util.ClearScrollback,
		util.ResetScrollRegion, util.HideCursor, util.MoveCursorHome)
	td.inAlternateScreen = true
}

// ExitAlternateScreen restores the main screen buffer and the cursor
func (td *TerminalDisplay) ExitAlternateScreen() {
	if !td.inAlternateScreen {
		return
	}
	fmt.Fprint(td.out, util.ClearScreen, util.MoveCursorHome, util.ShowCursor, util.ExitAltScreen)
	td.inAlternateScreen = false
}

// Draw replaces the screen contents with frame. Outside the alternate screen
// the frame is simply written.
func (td *TerminalDisplay) Draw(frame string) {
	if td.inAlternateScreen {
		fmt.Fprint(td.out, util.MoveCursorHome, util.ClearToEnd)
	}
	fmt.Fprint(td.out, frame)
}

// StatusLine renders the hint line shown under the chart
func (td *TerminalDisplay) StatusLine(loading bool, message string, width int) string {
	if loading {
		if message == "" {
			message = "Loading..."
		}
		return hintStyle.Render(message)
	}
	if message != "" {
		return hintStyle.Render(message)
	}
	return hintStyle.Render(td.sizer.PadString("+/- zoom  0 reset  e/c expand/collapse all  m mark read  u unread only  r refresh  h help  q quit", width, true))
}

// HelpScreen lists the keyboard shortcuts
func (td *TerminalDisplay) HelpScreen(width int) string {
	lines := []string{
		headerStyle.Render(td.sizer.Center("Terraform Log Timeline - Help", width)),
		strings.Repeat("═", width),
		"",
		"  + / =     Zoom in",
		"  - / _     Zoom out",
		"  0         Reset zoom",
		"  e         Expand all groups",
		"  c         Collapse all groups",
		"  m         Mark shown records read",
		"  u         Toggle unread-only",
		"  r         Reload logs",
		"  h         Toggle this help",
		"  q/Esc     Quit",
		"",
		strings.Repeat("═", width),
		"Press 'h' to return...",
	}
	return strings.Join(lines, "\n") + "\n"
}
