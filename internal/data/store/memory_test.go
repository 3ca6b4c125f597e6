package store

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/penwyp/go-tflog-viewer/internal/core/model"
	"github.com/penwyp/go-tflog-viewer/internal/data/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tsAt(sec int) *time.Time {
	ts := time.Date(2024, 1, 1, 0, 0, sec, 0, time.UTC)
	return &ts
}

func line(ts *time.Time, level model.Level, reqID, resource, section, raw string) parser.Line {
	return parser.Line{Record: model.LogRecord{
		TS:       ts,
		Level:    level,
		ReqID:    reqID,
		Resource: resource,
		Section:  section,
		RawJSON:  raw,
		Excerpt:  raw,
	}}
}

func seeded(t *testing.T) *MemoryStore {
	t.Helper()
	s := NewMemoryStore()
	s.InsertAll([]parser.Line{
		line(tsAt(1), model.LevelInfo, "A", "aws_instance.web", "plan", `{"msg":"Planning Started"}`),
		line(tsAt(5), model.LevelError, "A", "aws_instance.web", "apply", `{"msg":"Apply FAILED"}`),
		line(nil, model.LevelDebug, "", "", "", `{"raw":"no timestamp"}`),
		line(tsAt(3), model.LevelWarning, "B", "aws_s3_bucket.logs", "plan", `{"msg":"deprecated"}`),
	})
	require.Equal(t, 4, s.Len())
	return s
}

func searchIDs(records []model.LogRecord) []int64 {
	out := make([]int64, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestMemoryStore_InsertAssignsIDs(t *testing.T) {
	s := NewMemoryStore()
	l := line(tsAt(0), model.LevelInfo, "", "", "", "{}")
	l.Record.ReadFlag = 1
	l.Bodies = []parser.Body{{Type: "tf_http_req_body", JSON: `{"a":1}`}}

	id1 := s.Insert(l)
	id2 := s.Insert(l)

	assert.Equal(t, int64(1), id1)
	assert.Equal(t, int64(2), id2)

	rec, err := s.Get(id1)
	require.NoError(t, err)
	assert.Equal(t, 0, rec.ReadFlag, "new records start unread")

	bodies := s.Bodies(id2)
	require.Len(t, bodies, 1)
	assert.Equal(t, id2, bodies[0].LogID)
	assert.Equal(t, int64(2), bodies[0].ID)
	assert.Empty(t, s.Bodies(99))
}

func TestMemoryStore_SearchOrdering(t *testing.T) {
	s := seeded(t)
	assert.Equal(t, []int64{2, 4, 1, 3}, searchIDs(s.Search(Query{})))
}

func TestMemoryStore_SearchFilters(t *testing.T) {
	s := seeded(t)

	tests := []struct {
		name  string
		query Query
		want  []int64
	}{
		{"text is case insensitive", Query{Q: "failed"}, []int64{2}},
		{"level", Query{Level: "warning"}, []int64{4}},
		{"resource substring", Query{Resource: "S3_BUCKET"}, []int64{4}},
		{"request id exact", Query{ReqID: "A"}, []int64{2, 1}},
		{"section", Query{Section: "plan"}, []int64{4, 1}},
		{"from excludes untimed", Query{TSFrom: tsAt(3)}, []int64{2, 4}},
		{"to", Query{TSTo: tsAt(3)}, []int64{4, 1}},
		{"limit", Query{Limit: 2}, []int64{2, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, searchIDs(s.Search(tt.query)))
		})
	}
}

func TestMemoryStore_ReadFlags(t *testing.T) {
	s := seeded(t)

	assert.Equal(t, 2, s.MarkRead([]int64{1, 2, 42}))
	assert.Equal(t, []int64{4, 3}, searchIDs(s.Search(Query{UnreadOnly: true})))

	require.NoError(t, s.SetRead(1, false))
	rec, err := s.Get(1)
	require.NoError(t, err)
	assert.False(t, rec.IsRead())

	err = s.SetRead(42, true)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemoryStore_Sections(t *testing.T) {
	s := seeded(t)

	sections := s.Sections()

	require.Len(t, sections, 2)
	assert.Equal(t, "plan", sections[0].Section)
	assert.Equal(t, 2, sections[0].Count)
	assert.True(t, sections[0].StartTime.Equal(*tsAt(1)))
	assert.True(t, sections[0].EndTime.Equal(*tsAt(3)))
	assert.Equal(t, "apply", sections[1].Section)
	assert.Equal(t, 1, sections[1].Count)
}

func TestMemoryStore_GetMissing(t *testing.T) {
	_, err := NewMemoryStore().Get(1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ToggleRead(t *testing.T) {
	s := seeded(t)

	flag, err := s.ToggleRead(1)
	require.NoError(t, err)
	assert.Equal(t, 1, flag)

	flag, err = s.ToggleRead(1)
	require.NoError(t, err)
	assert.Equal(t, 0, flag)

	_, err = s.ToggleRead(42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ToggleReadConcurrent(t *testing.T) {
	s := seeded(t)

	// An even number of toggles leaves the flag unchanged only if none is lost
	const toggles = 200
	var wg sync.WaitGroup
	for i := 0; i < toggles; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.ToggleRead(1)
		}()
	}
	wg.Wait()

	rec, err := s.Get(1)
	require.NoError(t, err)
	assert.False(t, rec.IsRead())
}
