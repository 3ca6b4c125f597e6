package interaction

// Action is what a key press asks the timeline view to do
type Action int

const (
	ActionNone Action = iota
	ActionQuit
	ActionZoomIn
	ActionZoomOut
	ActionResetZoom
	ActionExpandAll
	ActionCollapseAll
	ActionToggleUnread
	ActionMarkRead
	ActionRefresh
	ActionToggleHelp
)

var actionNames = map[Action]string{
	ActionNone:         "none",
	ActionQuit:         "quit",
	ActionZoomIn:       "zoom-in",
	ActionZoomOut:      "zoom-out",
	ActionResetZoom:    "reset-zoom",
	ActionExpandAll:    "expand-all",
	ActionCollapseAll:  "collapse-all",
	ActionToggleUnread: "toggle-unread",
	ActionMarkRead:     "mark-read",
	ActionRefresh:      "refresh",
	ActionToggleHelp:   "toggle-help",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "unknown"
}

// Bindings maps character keys to actions
type Bindings map[rune]Action

// DefaultBindings returns the standard key map
func DefaultBindings() Bindings {
	return Bindings{
		'q': ActionQuit,
		'Q': ActionQuit,
		3:   ActionQuit, // Ctrl+C
		'+': ActionZoomIn,
		'=': ActionZoomIn,
		'-': ActionZoomOut,
		'_': ActionZoomOut,
		'0': ActionResetZoom,
		'e': ActionExpandAll,
		'c': ActionCollapseAll,
		'u': ActionToggleUnread,
		'm': ActionMarkRead,
		'r': ActionRefresh,
		'R': ActionRefresh,
		'h': ActionToggleHelp,
		'?': ActionToggleHelp,
	}
}

// Resolve returns the action for ev. Escape quits, arrow keys zoom.
func (b Bindings) Resolve(ev KeyEvent) Action {
	switch ev.Type {
	case KeyEscape:
		return ActionQuit
	case KeyUp, KeyRight:
		return ActionZoomIn
	case KeyDown, KeyLeft:
		return ActionZoomOut
	case KeyChar:
		return b[ev.Key]
	}
	return ActionNone
}
