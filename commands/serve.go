package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/penwyp/go-tflog-viewer/internal/data/parser"
	"github.com/penwyp/go-tflog-viewer/internal/data/scanner"
	"github.com/penwyp/go-tflog-viewer/internal/data/store"
	"github.com/penwyp/go-tflog-viewer/internal/server"
	"github.com/penwyp/go-tflog-viewer/internal/util"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve [path]",
	Short: "Serve the log store and timeline over HTTP",
	Long: `Starts the HTTP API. Logs can be uploaded with POST /upload, or preloaded
from a file or directory given as argument.

Endpoints:
  POST /upload            multipart "file" field, JSONL or gzip
  GET  /search            q, level, tf_resource, tf_req_id, section, ts_from, ts_to, unread, limit
  POST /mark_read         {"ids": [..]} or {"id": n}
  POST /read/{id}         toggle the read flag
  GET  /json_bodies/{id}  HTTP bodies attached to a record
  GET  /export            JSONL download, gzip=1 to compress
  GET  /sections          plan/apply summaries
  GET  /timeline          search params plus scale (scale applies to this request)
  POST /timeline          lay out a posted record array, e.g. a /search result
  POST /zoom              {"action": "in"|"out"|"reset"} or {"scale": n}; sets the shared zoom
  POST /plugin/process    {"filter_type": .., "search_query": ..}
  GET  /ai/analyze        q, limit`,
	Args: cobra.MaximumNArgs(1),
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "",
		"Listen address (default 127.0.0.1:8000)")
	serveCmd.Flags().Int("max-upload-mb", 0,
		"Upload size limit in MiB")

	_ = v.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	_ = v.BindPFlag("server.max_upload_mb", serveCmd.Flags().Lookup("max-upload-mb"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := appConfig
	st := store.NewMemoryStore()

	if len(args) == 1 {
		n, err := preload(st, expandPath(args[0]), cfg.Data.Concurrency)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d records from %s\n", n, args[0])
	}

	srv := server.New(st, server.Options{
		MaxUploadBytes: int64(cfg.Server.MaxUploadMB) << 20,
		SearchLimit:    cfg.Data.SearchLimit,
		Zoom:           cfg.Zoom(),
		Concurrency:    cfg.Data.Concurrency,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(cfg.Server.Addr)
	}()
	fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s\n", cfg.Server.Addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	util.LogInfo("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return <-errCh
}

// preload parses every log file under path into st, in file order
func preload(st *store.MemoryStore, path string, concurrency int) (int, error) {
	files, err := scanner.NewFileScanner(path).Scan()
	if err != nil {
		return 0, err
	}

	p := parser.NewParser(concurrency)
	parsed := make(map[string][]parser.Line, len(files))
	for result := range p.ParseFiles(files) {
		if result.Error != nil {
			util.LogWarn("Skipping unreadable log file", util.F("file", result.File), util.F("error", result.Error))
			continue
		}
		parsed[result.File] = result.Lines
	}

	total := 0
	for _, f := range files {
		total += st.InsertAll(parsed[f])
	}
	return total, nil
}
