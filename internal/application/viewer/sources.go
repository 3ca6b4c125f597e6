package viewer

import (
	"context"
	"fmt"
	"sync"

	"github.com/penwyp/go-tflog-viewer/internal/core/model"
	"github.com/penwyp/go-tflog-viewer/internal/data/parser"
	"github.com/penwyp/go-tflog-viewer/internal/data/scanner"
	"github.com/penwyp/go-tflog-viewer/internal/data/store"
	"github.com/penwyp/go-tflog-viewer/internal/util"
)

// StoreSource serves records from a shared store
type StoreSource struct {
	Store *store.MemoryStore
}

// Fetch searches the store
func (s StoreSource) Fetch(ctx context.Context, q store.Query) ([]model.LogRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Store.Search(q), nil
}

// MarkRead flags records in the store
func (s StoreSource) MarkRead(ids []int64) int {
	return s.Store.MarkRead(ids)
}

// lineKey identifies a parsed line across reloads
type lineKey struct {
	file string
	line int
}

// FileSource re-reads log files on every fetch. Parsed files are cached by the
// parser until they change or Invalidate is called for them. Read flags are
// kept per file line, so they survive reloads and appends.
type FileSource struct {
	scanner *scanner.FileScanner
	parser  *parser.Parser

	mu   sync.Mutex
	read map[lineKey]bool
	// ids of the last fetch
	keys map[int64]lineKey
}

// NewFileSource creates a source over a file or directory
func NewFileSource(root string, concurrency int) *FileSource {
	return &FileSource{
		scanner: scanner.NewFileScanner(root),
		parser:  parser.NewParser(concurrency),
		read:    make(map[lineKey]bool),
		keys:    make(map[int64]lineKey),
	}
}

// Invalidate drops the cached parse of path, or of every file when path is empty
func (s *FileSource) Invalidate(path string) {
	s.parser.Invalidate(path)
}

// Matches reports whether path is a file this source reads
func (s *FileSource) Matches(path string) bool {
	return s.scanner.Matches(path)
}

// MarkRead flags the lines behind ids, as numbered by the last fetch
func (s *FileSource) MarkRead(ids []int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	marked := 0
	for _, id := range ids {
		if key, ok := s.keys[id]; ok {
			s.read[key] = true
			marked++
		}
	}
	return marked
}

// Fetch loads every log file into a fresh store and searches it. Ids follow
// file order then line order.
func (s *FileSource) Fetch(ctx context.Context, q store.Query) ([]model.LogRecord, error) {
	files, err := s.scanner.Scan()
	if err != nil {
		return nil, fmt.Errorf("failed to scan log files: %w", err)
	}

	parsed := make(map[string][]parser.Line, len(files))
	for result := range s.parser.ParseFiles(files) {
		if result.Error != nil {
			util.LogWarn("Skipping unreadable log file", util.F("file", result.File), util.F("error", result.Error))
			continue
		}
		parsed[result.File] = result.Lines
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := store.NewMemoryStore()
	keys := make(map[int64]lineKey)
	var readIDs []int64
	for _, f := range files {
		for i, line := range parsed[f] {
			id := st.Insert(line)
			key := lineKey{file: f, line: i}
			keys[id] = key
			if s.read[key] {
				readIDs = append(readIDs, id)
			}
		}
	}
	st.MarkRead(readIDs)
	s.keys = keys

	return st.Search(q), nil
}
