package store

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/penwyp/go-tflog-viewer/internal/core/model"
	"github.com/penwyp/go-tflog-viewer/internal/data/parser"
	"github.com/penwyp/go-tflog-viewer/internal/util"
	"golang.org/x/text/cases"
)

// DefaultLimit caps search results when the query does not set one
const DefaultLimit = 500

// ErrNotFound is returned for unknown record ids
var ErrNotFound = errors.New("log record not found")

// StoredBody is an HTTP payload attached to a record
type StoredBody struct {
	ID    int64  `json:"id"`
	LogID int64  `json:"log_id"`
	Type  string `json:"body_type"`
	JSON  string `json:"body_json"`
}

// SectionSummary describes the records of one Terraform section (plan/apply)
type SectionSummary struct {
	Section   string     `json:"section"`
	Count     int        `json:"count"`
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
}

// Query filters a search. Zero values disable a filter.
type Query struct {
	Q          string
	Level      string
	Resource   string
	ReqID      string
	Section    string
	TSFrom     *time.Time
	TSTo       *time.Time
	UnreadOnly bool
	Limit      int
}

// MemoryStore keeps parsed records in memory. Records are never evicted.
type MemoryStore struct {
	mu      sync.RWMutex
	records []model.LogRecord
	byID    map[int64]int
	bodies  map[int64][]StoredBody
	nextID  int64
	bodyID  int64
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:   make(map[int64]int),
		bodies: make(map[int64][]StoredBody),
	}
}

// Insert stores a parsed line and its bodies, returning the assigned id
func (s *MemoryStore) Insert(line parser.Line) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	rec := line.Record
	rec.ID = s.nextID
	rec.ReadFlag = 0
	s.byID[rec.ID] = len(s.records)
	s.records = append(s.records, rec)

	for _, b := range line.Bodies {
		s.bodyID++
		s.bodies[rec.ID] = append(s.bodies[rec.ID], StoredBody{
			ID:    s.bodyID,
			LogID: rec.ID,
			Type:  b.Type,
			JSON:  b.JSON,
		})
	}
	return rec.ID
}

// InsertAll stores lines in order and returns the number inserted
func (s *MemoryStore) InsertAll(lines []parser.Line) int {
	for _, l := range lines {
		s.Insert(l)
	}
	util.LogDebugf("Store: inserted %d records", len(lines))
	return len(lines)
}

// Len returns the number of stored records
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Get returns a copy of one record
func (s *MemoryStore) Get(id int64) (model.LogRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byID[id]
	if !ok {
		return model.LogRecord{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return s.records[i], nil
}

// Bodies returns the payloads attached to a record. Unknown ids yield an empty slice.
func (s *MemoryStore) Bodies(id int64) []StoredBody {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]StoredBody, len(s.bodies[id]))
	copy(out, s.bodies[id])
	return out
}

// MarkRead sets the read flag on every known id and returns how many were updated
func (s *MemoryStore) MarkRead(ids []int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := 0
	for _, id := range ids {
		if i, ok := s.byID[id]; ok {
			s.records[i].ReadFlag = 1
			updated++
		}
	}
	return updated
}

// SetRead sets the read flag of one record to read (true) or unread (false)
func (s *MemoryStore) SetRead(id int64, read bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	s.records[i].ReadFlag = 0
	if read {
		s.records[i].ReadFlag = 1
	}
	return nil
}

// ToggleRead flips the read flag of one record and returns the new flag
func (s *MemoryStore) ToggleRead(id int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.byID[id]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	s.records[i].ReadFlag = 1 - s.records[i].ReadFlag
	return s.records[i].ReadFlag, nil
}

// Search returns matching records, newest first, records without a timestamp last.
func (s *MemoryStore) Search(q Query) []model.LogRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Casers keep state between calls, so each search folds with its own
	folder := cases.Fold()
	needle := ""
	if q.Q != "" {
		needle = folder.String(q.Q)
	}
	resource := strings.ToLower(q.Resource)

	out := make([]model.LogRecord, 0)
	for _, r := range s.records {
		if needle != "" &&
			!strings.Contains(folder.String(r.RawJSON), needle) &&
			!strings.Contains(folder.String(r.Excerpt), needle) {
			continue
		}
		if q.Level != "" && string(r.Level) != q.Level {
			continue
		}
		if resource != "" && !strings.Contains(strings.ToLower(r.Resource), resource) {
			continue
		}
		if q.ReqID != "" && r.ReqID != q.ReqID {
			continue
		}
		if q.Section != "" && r.Section != q.Section {
			continue
		}
		if q.TSFrom != nil && (!r.HasTimestamp() || r.TS.Before(*q.TSFrom)) {
			continue
		}
		if q.TSTo != nil && (!r.HasTimestamp() || r.TS.After(*q.TSTo)) {
			continue
		}
		if q.UnreadOnly && r.IsRead() {
			continue
		}
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.HasTimestamp() && b.HasTimestamp():
			if !a.TS.Equal(*b.TS) {
				return a.TS.After(*b.TS)
			}
			return a.ID < b.ID
		case a.HasTimestamp() != b.HasTimestamp():
			return a.HasTimestamp()
		default:
			return a.ID < b.ID
		}
	})

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Sections summarizes records per section ordered by their first timestamp
func (s *MemoryStore) Sections() []SectionSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	index := make(map[string]int)
	out := make([]SectionSummary, 0)
	for _, r := range s.records {
		if r.Section == "" {
			continue
		}
		i, ok := index[r.Section]
		if !ok {
			out = append(out, SectionSummary{Section: r.Section})
			i = len(out) - 1
			index[r.Section] = i
		}
		sum := &out[i]
		sum.Count++
		if !r.HasTimestamp() {
			continue
		}
		ts := *r.TS
		if sum.StartTime == nil || ts.Before(*sum.StartTime) {
			sum.StartTime = &ts
		}
		if sum.EndTime == nil || ts.After(*sum.EndTime) {
			sum.EndTime = &ts
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].StartTime, out[j].StartTime
		if a == nil || b == nil {
			return a != nil
		}
		return a.Before(*b)
	})
	return out
}
