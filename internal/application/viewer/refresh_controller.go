package viewer

import (
	"context"
	"fmt"
	"sync"

	"github.com/penwyp/go-tflog-viewer/internal/core/timeline"
	"github.com/penwyp/go-tflog-viewer/internal/data/store"
	"github.com/penwyp/go-tflog-viewer/internal/util"
)

// RefreshController runs fetch, layout and commit against a Source.
// Refreshes may overlap; the generation guard in StateManager keeps the newest.
type RefreshController struct {
	source Source
	state  *StateManager

	mu    sync.RWMutex
	query store.Query
}

// NewRefreshController creates a RefreshController
func NewRefreshController(source Source, state *StateManager) *RefreshController {
	return &RefreshController{
		source: source,
		state:  state,
	}
}

// State returns the view state the controller commits to
func (rc *RefreshController) State() *StateManager {
	return rc.state
}

// Query returns the query used by Refresh
func (rc *RefreshController) Query() store.Query {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.query
}

// Search replaces the current query and refreshes
func (rc *RefreshController) Search(ctx context.Context, q store.Query) (timeline.Result, bool, error) {
	rc.mu.Lock()
	rc.query = q
	rc.mu.Unlock()
	return rc.Refresh(ctx)
}

// MarkRead flags records as read when the source keeps read state, and
// returns how many were flagged
func (rc *RefreshController) MarkRead(ids []int64) int {
	if m, ok := rc.source.(ReadMarker); ok {
		return m.MarkRead(ids)
	}
	return 0
}

// Truncated reports whether a fetch of n records under q may have hit the limit
func Truncated(q store.Query, n int) bool {
	return q.Limit > 0 && n >= q.Limit
}

// Refresh fetches with the current query and commits the result. committed is
// false when a newer refresh finished first; the returned Result is then the
// newer one.
func (rc *RefreshController) Refresh(ctx context.Context) (result timeline.Result, committed bool, err error) {
	gen := rc.state.Begin()
	q := rc.Query()
	if rc.state.UnreadOnly() {
		q.UnreadOnly = true
	}

	rc.state.SetLoadingState(true, "Loading records...")
	defer rc.state.EndLoading(gen)

	records, err := rc.source.Fetch(ctx, q)
	if err != nil {
		return rc.state.Result(), false, fmt.Errorf("failed to fetch records: %w", err)
	}

	if !rc.state.Commit(gen, records) {
		util.LogCtx(ctx).Debug("Dropped stale refresh", util.F("generation", gen), util.F("current", rc.state.Generation()))
		return rc.state.Result(), false, nil
	}

	if Truncated(q, len(records)) {
		util.LogCtx(ctx).Warn("Timeline limited to the newest records; raise --limit to see older ones",
			util.F("limit", q.Limit))
	}

	result = rc.state.Result()
	util.LogCtx(ctx).Debug("Refreshed timeline",
		util.F("generation", gen), util.F("records", len(records)), util.F("rows", len(result.Rows)))
	return result, true, nil
}
