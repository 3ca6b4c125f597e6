// Package grouper partitions log records by their Terraform request id.
package grouper

import (
	"github.com/penwyp/go-tflog-viewer/internal/core/model"
)

// NoRequestID is the display key of the group holding records without a request id
const NoRequestID = "__no__"

// Group is an ordered run of records sharing one correlation key
type Group struct {
	Key      string
	Sentinel bool // true for the catch-all group of records without a request id
	Records  []model.LogRecord
}

type groupKey struct {
	id   string
	none bool
}

func keyOf(r model.LogRecord) groupKey {
	if r.ReqID == "" {
		return groupKey{none: true}
	}
	return groupKey{id: r.ReqID}
}

// ByRequestID partitions records by request id. Groups are returned in the order
// their first member appears; members keep their input order.
func ByRequestID(records []model.LogRecord) []Group {
	index := make(map[groupKey]int)
	groups := make([]Group, 0)

	for _, r := range records {
		k := keyOf(r)
		i, ok := index[k]
		if !ok {
			g := Group{Key: k.id, Sentinel: k.none}
			if k.none {
				g.Key = NoRequestID
			}
			groups = append(groups, g)
			i = len(groups) - 1
			index[k] = i
		}
		groups[i].Records = append(groups[i].Records, r)
	}

	return groups
}

// Keys returns the group keys in group order
func Keys(groups []Group) []string {
	keys := make([]string, len(groups))
	for i, g := range groups {
		keys[i] = g.Key
	}
	return keys
}

// Summary holds the counters shown above a result list
type Summary struct {
	Results        int `json:"results"`
	Groups         int `json:"groups"`
	UniqueRequests int `json:"unique_requests"`
}

// Summarize counts results, groups and distinct real request ids
func Summarize(records []model.LogRecord) Summary {
	groups := ByRequestID(records)
	s := Summary{Results: len(records), Groups: len(groups)}
	for _, g := range groups {
		if !g.Sentinel {
			s.UniqueRequests++
		}
	}
	return s
}
