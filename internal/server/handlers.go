package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/gzip"
	"github.com/penwyp/go-tflog-viewer/internal/core/grouper"
	"github.com/penwyp/go-tflog-viewer/internal/core/model"
	"github.com/penwyp/go-tflog-viewer/internal/core/timeline"
	"github.com/penwyp/go-tflog-viewer/internal/data/store"
	"github.com/penwyp/go-tflog-viewer/internal/plugin"
	"github.com/penwyp/go-tflog-viewer/internal/util"
	"github.com/valyala/fastjson"
)

type uploadResponse struct {
	Inserted int `json:"inserted"`
}

type statusResponse struct {
	Status  string `json:"status"`
	Updated int    `json:"updated"`
}

type readResponse struct {
	ID       int64 `json:"id"`
	ReadFlag int   `json:"read_flag"`
}

type timelineResponse struct {
	Zoom    timeline.ZoomState `json:"zoom"`
	Summary grouper.Summary    `json:"summary"`
	Result  timeline.Result    `json:"result"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		writeError(w, r, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "file required")
		return
	}
	defer file.Close()

	lines, err := s.parser.ParseStream(file)
	if err != nil {
		util.LogCtx(r.Context()).Error("Upload parse failed", util.F("file", header.Filename), util.F("error", err))
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("failed to read upload: %v", err))
		return
	}

	n := s.store.InsertAll(lines)
	util.LogCtx(r.Context()).Info("Upload ingested", util.F("file", header.Filename), util.F("inserted", n))
	writeJSON(w, r, http.StatusOK, uploadResponse{Inserted: n})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := parseQuery(r.URL.Query(), s.opts.SearchLimit)
	writeJSON(w, r, http.StatusOK, s.store.Search(q))
}

// readIDs accepts {"ids": [..]}, {"ids": n} or {"id": n}
func readIDs(v *fastjson.Value) []int64 {
	field := v.Get("ids")
	if field == nil {
		field = v.Get("id")
	}
	if field == nil {
		return nil
	}

	var ids []int64
	switch field.Type() {
	case fastjson.TypeArray:
		for _, item := range field.GetArray() {
			if id, err := item.Int64(); err == nil {
				ids = append(ids, id)
			}
		}
	case fastjson.TypeNumber:
		if id, err := field.Int64(); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// readBody reads at most limit bytes of the request body. On failure it has
// already written the error response.
func readBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "request body too large")
			return nil, false
		}
		writeError(w, r, http.StatusBadRequest, "failed to read body")
		return nil, false
	}
	return body, true
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r, jsonBodyLimit)
	if !ok {
		return
	}

	p := s.jsonPool.Get()
	defer s.jsonPool.Put(p)

	v, err := p.ParseBytes(body)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON")
		return
	}

	ids := readIDs(v)
	if len(ids) == 0 {
		writeError(w, r, http.StatusBadRequest, "ids required")
		return
	}

	n := s.store.MarkRead(ids)
	writeJSON(w, r, http.StatusOK, statusResponse{Status: "ok", Updated: n})
}

// handleToggleRead flips the read flag of one record
func (s *Server) handleToggleRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid id")
		return
	}

	flag, err := s.store.ToggleRead(id)
	if err != nil {
		writeError(w, r, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, r, http.StatusOK, readResponse{ID: id, ReadFlag: flag})
}

func (s *Server) handleJSONBodies(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid id")
		return
	}
	if _, err := s.store.Get(id); err != nil {
		writeError(w, r, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, r, http.StatusOK, s.store.Bodies(id))
}

// handleExport streams matching records as JSONL, gzip-compressed when gzip=1
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	q := parseQuery(params, exportLimit)
	records := s.store.Search(q)

	compress, _ := strconv.ParseBool(params.Get("gzip"))
	filename := "export.jsonl"
	var out io.Writer = w
	if compress {
		filename += ".gz"
		w.Header().Set("Content-Type", "application/gzip")
	} else {
		w.Header().Set("Content-Type", "application/x-ndjson")
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	var gz *gzip.Writer
	if compress {
		gz = gzip.NewWriter(w)
		out = gz
	}

	for _, rec := range records {
		if err := writeExportLine(out, rec); err != nil {
			util.LogCtx(r.Context()).Warn("Export aborted", util.F("error", err))
			break
		}
	}

	if gz != nil {
		if err := gz.Close(); err != nil {
			util.LogCtx(r.Context()).Warn("Export gzip close failed", util.F("error", err))
		}
	}
}

// writeExportLine writes the raw source line, or the re-encoded record if there is none
func writeExportLine(w io.Writer, rec model.LogRecord) error {
	line := []byte(rec.RawJSON)
	if len(line) == 0 {
		var err error
		if line, err = sonic.Marshal(rec); err != nil {
			return err
		}
	}
	if _, err := w.Write(line); err != nil {
		return err
	}
	_, err := w.Write([]byte{'\n'})
	return err
}

func (s *Server) handleSections(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.store.Sections())
}

func newTimelineResponse(records []model.LogRecord, zoom timeline.ZoomState) timelineResponse {
	return timelineResponse{
		Zoom:    zoom,
		Summary: grouper.Summarize(records),
		Result:  timeline.Layout(records, zoom),
	}
}

// requestZoom returns the shared zoom, with the scale parameter applied to
// this request only
func (s *Server) requestZoom(params url.Values) (timeline.ZoomState, error) {
	zoom := s.view.Zoom()
	if raw := params.Get("scale"); raw != "" {
		scale, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return zoom, fmt.Errorf("invalid scale %q", raw)
		}
		zoom = zoom.SetScale(scale)
	}
	return zoom, nil
}

// queryTimeline searches the store and lays the result out for one request
func (s *Server) queryTimeline(w http.ResponseWriter, r *http.Request, zoom timeline.ZoomState) {
	q := parseQuery(r.URL.Query(), s.opts.SearchLimit)
	records, err := s.source.Fetch(r.Context(), q)
	if err != nil {
		util.LogCtx(r.Context()).Error("Timeline fetch failed", util.F("error", err))
		writeError(w, r, http.StatusInternalServerError, "timeline fetch failed")
		return
	}
	writeJSON(w, r, http.StatusOK, newTimelineResponse(records, zoom))
}

// handleTimeline lays out the records matching the search parameters
func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	zoom, err := s.requestZoom(r.URL.Query())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	s.queryTimeline(w, r, zoom)
}

// handleLayout lays out a record array posted by the client, e.g. a /search result
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	zoom, err := s.requestZoom(r.URL.Query())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	body, ok := readBody(w, r, s.opts.MaxUploadBytes)
	if !ok {
		return
	}
	records, err := model.DecodeRecords(body)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, r, http.StatusOK, newTimelineResponse(records, zoom))
}

// handleZoom applies {"action": "in"|"out"|"reset"} or {"scale": n} to the
// shared zoom and returns the layout for the search parameters at the new zoom
func (s *Server) handleZoom(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r, jsonBodyLimit)
	if !ok {
		return
	}

	p := s.jsonPool.Get()
	defer s.jsonPool.Put(p)

	v, err := p.ParseBytes(body)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON")
		return
	}

	var zoom timeline.ZoomState
	switch action := string(v.GetStringBytes("action")); action {
	case "in":
		zoom = s.view.ZoomIn()
	case "out":
		zoom = s.view.ZoomOut()
	case "reset":
		zoom = s.view.SetScale(s.opts.Zoom.Scale)
	case "":
		scale := v.Get("scale")
		if scale == nil || scale.Type() != fastjson.TypeNumber {
			writeError(w, r, http.StatusBadRequest, "action or scale required")
			return
		}
		zoom = s.view.SetScale(scale.GetFloat64())
	default:
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("unknown zoom action %q", action))
		return
	}

	s.queryTimeline(w, r, zoom)
}

func (s *Server) handlePluginProcess(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r, jsonBodyLimit)
	if !ok {
		return
	}

	var req plugin.Request
	if len(body) > 0 {
		if err := sonic.Unmarshal(body, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid JSON")
			return
		}
	}

	records := s.store.Search(store.Query{Q: req.SearchQuery, Limit: exportLimit})
	writeJSON(w, r, http.StatusOK, s.plugins.Process(records, req.FilterType))
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	limit := analyzeLimit
	if n, err := strconv.Atoi(params.Get("limit")); err == nil && n > 0 {
		limit = n
	}

	records := s.store.Search(store.Query{Q: params.Get("q"), Limit: limit})
	writeJSON(w, r, http.StatusOK, plugin.Analyze(records))
}
