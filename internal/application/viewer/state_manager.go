package viewer

import (
	"sync"
	"time"

	"github.com/penwyp/go-tflog-viewer/internal/core/model"
	"github.com/penwyp/go-tflog-viewer/internal/core/timeline"
)

// StateManager holds the view state shared by the renderer and the refresh path
type StateManager struct {
	mu sync.RWMutex

	// Zoom persists across refreshes until changed
	zoom       timeline.ZoomState
	unreadOnly bool

	// Latest committed batch and its layout
	records []model.LogRecord
	result  timeline.Result

	// Group keys the user collapsed; absent means expanded
	collapsed map[string]bool

	// Generation guard
	issued    uint64
	committed uint64

	// Loading state
	isLoading      bool
	loadingMessage string

	lastDataUpdate int64
}

// NewStateManager creates a StateManager with the given initial zoom
func NewStateManager(zoom timeline.ZoomState) *StateManager {
	return &StateManager{
		zoom:      zoom,
		result:    timeline.Layout(nil, zoom),
		collapsed: make(map[string]bool),
	}
}

// Begin issues a new generation number for a fetch about to start
func (sm *StateManager) Begin() uint64 {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.issued++
	return sm.issued
}

// Commit installs records fetched under gen and lays them out with the current zoom.
// It returns false and leaves the view untouched when a later generation already committed.
func (sm *StateManager) Commit(gen uint64, records []model.LogRecord) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if gen <= sm.committed || gen > sm.issued {
		return false
	}

	sm.committed = gen
	sm.records = make([]model.LogRecord, len(records))
	copy(sm.records, records)
	sm.result = timeline.Layout(sm.records, sm.zoom)
	sm.lastDataUpdate = time.Now().Unix()
	return true
}

// Generation returns the last committed generation
func (sm *StateManager) Generation() uint64 {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.committed
}

// Snapshot is a consistent view of one committed generation
type Snapshot struct {
	Generation uint64
	Zoom       timeline.ZoomState
	Records    []model.LogRecord
	Result     timeline.Result
}

// Snapshot returns zoom, records and layout read under a single lock
func (sm *StateManager) Snapshot() Snapshot {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	records := make([]model.LogRecord, len(sm.records))
	copy(records, sm.records)
	return Snapshot{
		Generation: sm.committed,
		Zoom:       sm.zoom,
		Records:    records,
		Result:     sm.result,
	}
}

// Records returns a copy of the committed records
func (sm *StateManager) Records() []model.LogRecord {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	records := make([]model.LogRecord, len(sm.records))
	copy(records, sm.records)
	return records
}

// Result returns the current layout
func (sm *StateManager) Result() timeline.Result {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.result
}

// Zoom returns the current zoom state
func (sm *StateManager) Zoom() timeline.ZoomState {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.zoom
}

// UpdateZoom applies fn to the zoom state and re-lays out the committed records
func (sm *StateManager) UpdateZoom(fn func(timeline.ZoomState) timeline.ZoomState) timeline.ZoomState {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.zoom = fn(sm.zoom)
	sm.result = timeline.Layout(sm.records, sm.zoom)
	return sm.zoom
}

// ZoomIn raises the scale by one step
func (sm *StateManager) ZoomIn() timeline.ZoomState {
	return sm.UpdateZoom(timeline.ZoomState.ZoomIn)
}

// ZoomOut lowers the scale by one step
func (sm *StateManager) ZoomOut() timeline.ZoomState {
	return sm.UpdateZoom(timeline.ZoomState.ZoomOut)
}

// SetScale sets the scale, clamped to the zoom bounds
func (sm *StateManager) SetScale(scale float64) timeline.ZoomState {
	return sm.UpdateZoom(func(z timeline.ZoomState) timeline.ZoomState {
		return z.SetScale(scale)
	})
}

// UnreadOnly reports whether fetches should skip read records
func (sm *StateManager) UnreadOnly() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.unreadOnly
}

// SetUnreadOnly sets the unread-only filter
func (sm *StateManager) SetUnreadOnly(on bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.unreadOnly = on
}

// IsExpanded reports whether the group with key is expanded. Groups start expanded.
func (sm *StateManager) IsExpanded(key string) bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return !sm.collapsed[key]
}

// Toggle flips the expanded state of one group and returns the new state
func (sm *StateManager) Toggle(key string) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.collapsed[key] {
		delete(sm.collapsed, key)
		return true
	}
	sm.collapsed[key] = true
	return false
}

// ExpandAll expands every group
func (sm *StateManager) ExpandAll() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.collapsed = make(map[string]bool)
}

// CollapseAll collapses every group in keys
func (sm *StateManager) CollapseAll(keys []string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	for _, k := range keys {
		sm.collapsed[k] = true
	}
}

// GetLoadingState returns current loading state and message
func (sm *StateManager) GetLoadingState() (bool, string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.isLoading, sm.loadingMessage
}

// SetLoadingState updates loading state and message
func (sm *StateManager) SetLoadingState(isLoading bool, message string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.isLoading = isLoading
	sm.loadingMessage = message
}

// EndLoading clears the loading state if gen is the latest issued generation.
// An older refresh finishing late leaves the indicator of a newer one alone.
func (sm *StateManager) EndLoading(gen uint64) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if gen != sm.issued {
		return
	}
	sm.isLoading = false
	sm.loadingMessage = ""
}

// LastDataUpdate returns the unix time of the last successful commit
func (sm *StateManager) LastDataUpdate() int64 {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.lastDataUpdate
}
