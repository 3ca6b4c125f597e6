package viewer

import (
	"context"

	"github.com/penwyp/go-tflog-viewer/internal/core/model"
	"github.com/penwyp/go-tflog-viewer/internal/data/store"
)

// Source supplies the records for one refresh
type Source interface {
	// Fetch returns the records matching q
	Fetch(ctx context.Context, q store.Query) ([]model.LogRecord, error)
}

// ReadMarker is implemented by sources that keep read flags between fetches
type ReadMarker interface {
	// MarkRead flags the records with ids as read and returns how many were known
	MarkRead(ids []int64) int
}
