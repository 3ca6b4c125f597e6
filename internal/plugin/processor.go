// Package plugin holds the in-process log processors and the heuristic analyzer.
package plugin

import (
	"fmt"
	"sort"
	"sync"

	"github.com/penwyp/go-tflog-viewer/internal/core/model"
	"github.com/penwyp/go-tflog-viewer/internal/util"
)

// Filter names understood by the default registry
const (
	FilterErrorsOnly      = "errors_only"
	FilterWarningsOnly    = "warnings_only"
	FilterGroupByResource = "group_by_resource"
	FilterDefault         = "default"
)

// Request is the body of a processing call
type Request struct {
	FilterType  string `json:"filter_type"`
	SearchQuery string `json:"search_query"`
}

// ResourceGroup counts the records of one resource
type ResourceGroup struct {
	Resource string `json:"resource"`
	Count    int    `json:"count"`
}

// Response is the outcome of a processor run
type Response struct {
	Summary string            `json:"summary"`
	Records []model.LogRecord `json:"filtered_logs"`
	Groups  []ResourceGroup   `json:"groups,omitempty"`
}

// Processor transforms a batch of records
type Processor interface {
	Name() string
	Process(records []model.LogRecord) Response
}

// levelFilter keeps records of a single level
type levelFilter struct {
	name  string
	level model.Level
}

func (f levelFilter) Name() string { return f.name }

func (f levelFilter) Process(records []model.LogRecord) Response {
	kept := make([]model.LogRecord, 0)
	for _, r := range records {
		if r.Level == f.level {
			kept = append(kept, r)
		}
	}
	return Response{Records: kept}
}

// resourceGrouper passes records through and counts them per resource
type resourceGrouper struct{}

func (resourceGrouper) Name() string { return FilterGroupByResource }

func (resourceGrouper) Process(records []model.LogRecord) Response {
	counts := make(map[string]int)
	for _, r := range records {
		counts[r.Resource]++
	}

	groups := make([]ResourceGroup, 0, len(counts))
	for res, n := range counts {
		groups = append(groups, ResourceGroup{Resource: res, Count: n})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].Resource < groups[j].Resource
	})

	return Response{
		Summary: fmt.Sprintf("Grouped %d logs by resource", len(records)),
		Records: records,
		Groups:  groups,
	}
}

type passthrough struct{}

func (passthrough) Name() string { return FilterDefault }

func (passthrough) Process(records []model.LogRecord) Response {
	return Response{Records: records}
}

// Registry resolves filter names to processors
type Registry struct {
	mu         sync.RWMutex
	processors map[string]Processor
}

// NewRegistry creates a registry with no processors
func NewRegistry() *Registry {
	return &Registry{processors: make(map[string]Processor)}
}

// DefaultRegistry returns a registry with the built-in processors
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(levelFilter{name: FilterErrorsOnly, level: model.LevelError})
	r.Register(levelFilter{name: FilterWarningsOnly, level: model.LevelWarning})
	r.Register(resourceGrouper{})
	r.Register(passthrough{})
	return r
}

// Register adds p, replacing any processor with the same name
func (r *Registry) Register(p Processor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processors[p.Name()] = p
}

// Names returns the registered processor names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.processors))
	for n := range r.processors {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Process runs the processor named filter. Unknown names pass records through.
// A summary is filled in when the processor leaves it empty.
func (r *Registry) Process(records []model.LogRecord, filter string) Response {
	r.mu.RLock()
	p, ok := r.processors[filter]
	r.mu.RUnlock()
	if !ok {
		util.LogDebugf("Plugin: unknown filter %q, passing records through", filter)
		p = passthrough{}
	}

	resp := p.Process(records)
	if resp.Records == nil {
		resp.Records = []model.LogRecord{}
	}
	if resp.Summary == "" {
		resp.Summary = fmt.Sprintf("Processed %d logs, returned %d", len(records), len(resp.Records))
	}
	return resp
}
