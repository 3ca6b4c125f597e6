package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/penwyp/go-tflog-viewer/internal/application/viewer"
	"github.com/penwyp/go-tflog-viewer/internal/core/timeline"
	"github.com/penwyp/go-tflog-viewer/internal/data/parser"
	"github.com/penwyp/go-tflog-viewer/internal/data/store"
	"github.com/penwyp/go-tflog-viewer/internal/plugin"
	"github.com/penwyp/go-tflog-viewer/internal/util"
	"github.com/valyala/fastjson"
)

const (
	defaultMaxUpload  = 100 << 20
	exportLimit       = 10000
	analyzeLimit      = 100
	multipartMemory   = 32 << 20
	jsonBodyLimit     = 1 << 20
	requestIDHeader   = "X-Request-ID"
	readHeaderTimeout = 10 * time.Second
)

// Options configures a Server
type Options struct {
	// MaxUploadBytes caps the /upload body; 0 uses 100 MiB
	MaxUploadBytes int64
	// SearchLimit is the default /search limit; 0 uses store.DefaultLimit
	SearchLimit int
	Zoom        timeline.ZoomState
	Concurrency int
}

// Server exposes the log store, the timeline view and the plugins over HTTP
type Server struct {
	store    *store.MemoryStore
	parser   *parser.Parser
	source   viewer.Source
	// view holds the zoom shared through /zoom. Layouts are built per request.
	view     *viewer.StateManager
	plugins  *plugin.Registry
	jsonPool fastjson.ParserPool
	opts     Options
	srv      *http.Server
}

// New creates a Server over st
func New(st *store.MemoryStore, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUpload
	}
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = store.DefaultLimit
	}
	if opts.Zoom == (timeline.ZoomState{}) {
		opts.Zoom = timeline.DefaultZoom()
	}

	return &Server{
		store:   st,
		parser:  parser.NewParser(opts.Concurrency),
		source:  viewer.StoreSource{Store: st},
		view:    viewer.NewStateManager(opts.Zoom),
		plugins: plugin.DefaultRegistry(),
		opts:    opts,
	}
}

// Handler returns the routed handler wrapped in request tracing
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("GET /search", s.handleSearch)
	mux.HandleFunc("POST /mark_read", s.handleMarkRead)
	mux.HandleFunc("POST /read/{id}", s.handleToggleRead)
	mux.HandleFunc("GET /json_bodies/{id}", s.handleJSONBodies)
	mux.HandleFunc("GET /export", s.handleExport)
	mux.HandleFunc("GET /sections", s.handleSections)
	mux.HandleFunc("GET /timeline", s.handleTimeline)
	mux.HandleFunc("POST /timeline", s.handleLayout)
	mux.HandleFunc("POST /zoom", s.handleZoom)
	mux.HandleFunc("POST /plugin/process", s.handlePluginProcess)
	mux.HandleFunc("GET /ai/analyze", s.handleAnalyze)

	return s.TraceMiddleware(mux)
}

// Start runs the HTTP server until Shutdown
func (s *Server) Start(addr string) error {
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	util.LogInfo("HTTP server listening", util.F("addr", addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv != nil {
		return s.srv.Shutdown(ctx)
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// TraceMiddleware tags every request with a trace id and logs its outcome
func (s *Server) TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(requestIDHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, traceID)

		ctx := util.ContextWithTraceID(r.Context(), traceID)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r.WithContext(ctx))

		util.LogCtx(ctx).Debug("HTTP request",
			util.F("method", r.Method),
			util.F("path", r.URL.Path),
			util.F("status", rec.status),
			util.F("duration", time.Since(start)))
	})
}
