package server

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-tflog-viewer/internal/core/model"
	"github.com/penwyp/go-tflog-viewer/internal/data/store"
	"github.com/penwyp/go-tflog-viewer/internal/util"
)

type errorBody struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	data, err := sonic.Marshal(v)
	if err != nil {
		util.LogCtx(r.Context()).Error("JSON encode error", util.F("error", err))
		http.Error(w, "encode failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		util.LogCtx(r.Context()).Debug("Response write failed", util.F("error", err))
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, detail string) {
	writeJSON(w, r, status, errorBody{Detail: detail})
}

// parseQuery reads the search parameters shared by /search, /timeline and /export
func parseQuery(v url.Values, defaultLimit int) store.Query {
	q := store.Query{
		Q:        v.Get("q"),
		Level:    v.Get("level"),
		Resource: v.Get("tf_resource"),
		ReqID:    v.Get("tf_req_id"),
		Section:  v.Get("section"),
		Limit:    defaultLimit,
	}
	if ts, ok := parseTime(v.Get("ts_from")); ok {
		q.TSFrom = &ts
	}
	if ts, ok := parseTime(v.Get("ts_to")); ok {
		q.TSTo = &ts
	}
	if unread := v.Get("unread"); unread != "" {
		q.UnreadOnly = unread != "0" && !strings.EqualFold(unread, "false")
	}
	if n, err := strconv.Atoi(v.Get("limit")); err == nil && n > 0 {
		q.Limit = n
	}
	return q
}

func parseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	return model.ParseTimestamp(s)
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil
}
