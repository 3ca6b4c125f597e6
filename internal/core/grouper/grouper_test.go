package grouper

import (
	"testing"

	"github.com/penwyp/go-tflog-viewer/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(records []model.LogRecord) []int64 {
	out := make([]int64, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestByRequestID_FirstSeenOrder(t *testing.T) {
	records := []model.LogRecord{
		{ID: 1, ReqID: "B"},
		{ID: 2, ReqID: "A"},
		{ID: 3},
		{ID: 4, ReqID: "B"},
		{ID: 5, ReqID: "A"},
		{ID: 6},
	}

	groups := ByRequestID(records)

	require.Len(t, groups, 3)
	assert.Equal(t, []string{"B", "A", NoRequestID}, Keys(groups))
	assert.Equal(t, []int64{1, 4}, ids(groups[0].Records))
	assert.Equal(t, []int64{2, 5}, ids(groups[1].Records))
	assert.Equal(t, []int64{3, 6}, ids(groups[2].Records))
	assert.True(t, groups[2].Sentinel)
	assert.False(t, groups[0].Sentinel)
}

func TestByRequestID_Stable(t *testing.T) {
	records := []model.LogRecord{
		{ID: 3, ReqID: "x"},
		{ID: 1, ReqID: "y"},
		{ID: 2, ReqID: "x"},
	}

	first := ByRequestID(records)
	second := ByRequestID(records)
	assert.Equal(t, first, second)
	assert.Equal(t, []int64{3, 2}, ids(first[0].Records), "members are not time or id sorted")
}

func TestByRequestID_SentinelDoesNotCollideWithRealID(t *testing.T) {
	records := []model.LogRecord{
		{ID: 1, ReqID: NoRequestID},
		{ID: 2},
	}

	groups := ByRequestID(records)

	require.Len(t, groups, 2)
	assert.False(t, groups[0].Sentinel)
	assert.True(t, groups[1].Sentinel)
	assert.Equal(t, groups[0].Key, groups[1].Key)
}

func TestByRequestID_KeepsRecordsWithoutTimestamp(t *testing.T) {
	records := []model.LogRecord{{ID: 1, ReqID: "A"}, {ID: 2, ReqID: "A"}}
	groups := ByRequestID(records)
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Records, 2)
}

func TestByRequestID_Empty(t *testing.T) {
	assert.Empty(t, ByRequestID(nil))
}

func TestSummarize(t *testing.T) {
	records := []model.LogRecord{
		{ID: 1, ReqID: "A"},
		{ID: 2},
		{ID: 3, ReqID: "B"},
		{ID: 4, ReqID: "A"},
	}

	s := Summarize(records)
	assert.Equal(t, Summary{Results: 4, Groups: 3, UniqueRequests: 2}, s)
}
