package viewer

import (
	"errors"
	"time"

	"github.com/penwyp/go-tflog-viewer/internal/core/timeline"
	"github.com/penwyp/go-tflog-viewer/internal/data/store"
)

// DefaultLimit is the number of records laid out per refresh when the query sets none
const DefaultLimit = 1000

// Config contains configuration for the timeline command
type Config struct {
	// Path is a log file or a directory of log files
	Path string

	// Display settings
	Width int
	Zoom  timeline.ZoomState

	// Query is applied to every refresh
	Query store.Query

	// Refresh settings. Watch reloads on file changes; a non-zero
	// RefreshInterval also reloads periodically.
	Watch           bool
	RefreshInterval time.Duration

	// Performance settings
	Concurrency int
}

// Validate fills defaults and checks the configuration
func (c *Config) Validate() error {
	if c.Path == "" {
		return errors.New("log path is required")
	}
	if c.Zoom == (timeline.ZoomState{}) {
		c.Zoom = timeline.DefaultZoom()
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	if c.Query.Limit <= 0 {
		c.Query.Limit = DefaultLimit
	}
	if c.RefreshInterval < 0 {
		c.RefreshInterval = 0
	}
	return nil
}
