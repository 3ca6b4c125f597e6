package viewer

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/penwyp/go-tflog-viewer/internal/monitoring"
	"github.com/penwyp/go-tflog-viewer/internal/presentation/interaction"
	"github.com/penwyp/go-tflog-viewer/internal/presentation/render"
	"github.com/penwyp/go-tflog-viewer/internal/util"
)

// Orchestrator coordinates the components of the interactive timeline
type Orchestrator struct {
	config *Config

	// Core components
	source      *FileSource
	refreshCtrl *RefreshController
	state       *StateManager

	// UI components
	gantt    *render.Gantt
	display  *render.TerminalDisplay
	keyboard *interaction.KeyboardReader
	bindings interaction.Bindings
	showHelp bool

	// Monitoring
	watcher *monitoring.FileWatcher

	// redraw is signalled when a background refresh finishes
	redraw chan struct{}
}

// NewOrchestrator creates an Orchestrator drawing to out
func NewOrchestrator(config *Config, out io.Writer) (*Orchestrator, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	source := NewFileSource(config.Path, config.Concurrency)
	state := NewStateManager(config.Zoom)
	refreshCtrl := NewRefreshController(source, state)
	refreshCtrl.query = config.Query

	return &Orchestrator{
		config:      config,
		source:      source,
		refreshCtrl: refreshCtrl,
		state:       state,
		gantt:       render.NewGantt(config.Width),
		display:     render.NewTerminalDisplay(out),
		bindings:    interaction.DefaultBindings(),
		redraw:      make(chan struct{}, 1),
	}, nil
}

// State exposes the shared view state
func (o *Orchestrator) State() *StateManager {
	return o.state
}

// RenderOnce loads the logs and returns a single rendered chart
func (o *Orchestrator) RenderOnce(ctx context.Context) (string, error) {
	result, _, err := o.refreshCtrl.Refresh(ctx)
	if err != nil {
		return "", err
	}
	return o.gantt.Render(result, o.state), nil
}

// Truncated reports whether the committed records may have been cut by the query limit
func (o *Orchestrator) Truncated() bool {
	return Truncated(o.config.Query, len(o.state.Records()))
}

// Run starts the interactive main loop
func (o *Orchestrator) Run(ctx context.Context) error {
	util.LogInfo("Starting timeline viewer", util.F("path", o.config.Path))
	defer o.Close()

	// Phase 1: Initialize keyboard
	keyboard, err := interaction.NewKeyboardReader()
	if err != nil {
		return fmt.Errorf("failed to initialize keyboard: %w", err)
	}
	o.keyboard = keyboard
	defer o.keyboard.Close()

	o.display.EnterAlternateScreen()
	defer o.display.ExitAlternateScreen()

	// Phase 2: Initial load
	o.state.SetLoadingState(true, "Loading logs...")
	o.updateDisplay()
	if _, _, err := o.refreshCtrl.Refresh(ctx); err != nil {
		return fmt.Errorf("initial load failed: %w", err)
	}

	// Phase 3: Start file monitoring
	var fileEvents <-chan monitoring.FileEvent
	if o.config.Watch {
		if err := o.startWatcher(); err != nil {
			return fmt.Errorf("failed to start file watcher: %w", err)
		}
		fileEvents = o.watcher.Events()
	}

	// Phase 4: Main event loop
	var tick <-chan time.Time
	if o.config.RefreshInterval > 0 {
		ticker := time.NewTicker(o.config.RefreshInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	o.updateDisplay()

	for {
		select {
		case <-ctx.Done():
			util.LogInfo("Shutting down timeline viewer")
			return nil

		case <-tick:
			o.refreshAsync(ctx)

		case event, ok := <-fileEvents:
			if !ok {
				fileEvents = nil
				continue
			}
			o.handleFileChange(ctx, event)

		case <-o.redraw:
			o.updateDisplay()

		case keyEvent, ok := <-o.keyboard.Events():
			if !ok {
				return nil
			}
			if o.handleKeyboard(ctx, keyEvent) {
				return nil
			}
			o.updateDisplay()
		}
	}
}

// frame builds the full screen contents
func (o *Orchestrator) frame() string {
	width := o.config.Width
	if width <= 0 {
		width = render.Sizer{}.TerminalWidth()
	}
	if o.showHelp {
		return o.display.HelpScreen(width)
	}

	snap := o.state.Snapshot()

	var b strings.Builder
	b.WriteString(o.gantt.Render(snap.Result, o.state))
	b.WriteString("\n")

	loading, message := o.state.GetLoadingState()
	if !loading && message == "" {
		var notes []string
		if o.Truncated() {
			notes = append(notes, fmt.Sprintf("newest %d records shown (--limit)", o.config.Query.Limit))
		}
		if o.state.UnreadOnly() {
			notes = append(notes, "unread only (u to show all)")
		}
		message = strings.Join(notes, "  ")
	}
	b.WriteString(o.display.StatusLine(loading, message, width))
	b.WriteString("\n")
	return b.String()
}

func (o *Orchestrator) updateDisplay() {
	o.display.Draw(o.frame())
}

// refreshAsync reloads in the background. Overlapping refreshes are resolved
// by the state's generation counter.
func (o *Orchestrator) refreshAsync(ctx context.Context) {
	go func() {
		if _, _, err := o.refreshCtrl.Refresh(ctx); err != nil {
			util.LogError("Failed to refresh logs", util.F("error", err))
		}
		select {
		case o.redraw <- struct{}{}:
		default:
		}
	}()
}

// handleKeyboard returns true when the viewer should exit
func (o *Orchestrator) handleKeyboard(ctx context.Context, event interaction.KeyEvent) bool {
	// Escape closes help before it quits
	if o.showHelp && event.Type == interaction.KeyEscape {
		o.showHelp = false
		return false
	}
	return o.handleAction(ctx, o.bindings.Resolve(event))
}

// handleAction applies a resolved key action and returns true on quit
func (o *Orchestrator) handleAction(ctx context.Context, action interaction.Action) bool {
	util.LogDebug("Key action", util.F("action", action.String()))

	switch action {
	case interaction.ActionQuit:
		return true
	case interaction.ActionZoomIn:
		o.state.ZoomIn()
	case interaction.ActionZoomOut:
		o.state.ZoomOut()
	case interaction.ActionResetZoom:
		o.state.SetScale(o.config.Zoom.Scale)
	case interaction.ActionExpandAll:
		o.state.ExpandAll()
	case interaction.ActionCollapseAll:
		result := o.state.Result()
		keys := make([]string, 0, len(result.Rows))
		for _, row := range result.Rows {
			keys = append(keys, row.Key)
		}
		o.state.CollapseAll(keys)
	case interaction.ActionToggleUnread:
		o.state.SetUnreadOnly(!o.state.UnreadOnly())
		o.refreshAsync(ctx)
	case interaction.ActionMarkRead:
		snap := o.state.Snapshot()
		ids := make([]int64, 0, len(snap.Records))
		for _, r := range snap.Records {
			if !r.IsRead() {
				ids = append(ids, r.ID)
			}
		}
		n := o.refreshCtrl.MarkRead(ids)
		util.LogDebug("Marked records read", util.F("count", n))
		o.refreshAsync(ctx)
	case interaction.ActionRefresh:
		o.source.Invalidate("")
		o.refreshAsync(ctx)
	case interaction.ActionToggleHelp:
		o.showHelp = !o.showHelp
	}
	return false
}

func (o *Orchestrator) startWatcher() error {
	watcher, err := monitoring.NewFileWatcher(o.config.Path, o.source.Matches)
	if err != nil {
		return err
	}
	o.watcher = watcher
	return nil
}

// handleFileChange drops the cached parse of the changed file and reloads
func (o *Orchestrator) handleFileChange(ctx context.Context, event monitoring.FileEvent) {
	util.LogDebug("File changed", util.F("path", event.Path), util.F("op", event.Operation))
	o.source.Invalidate(event.Path)
	o.refreshAsync(ctx)
}

// Close cleans up all resources
func (o *Orchestrator) Close() error {
	if o.watcher != nil {
		if err := o.watcher.Close(); err != nil {
			return fmt.Errorf("failed to close file watcher: %w", err)
		}
	}
	return nil
}
