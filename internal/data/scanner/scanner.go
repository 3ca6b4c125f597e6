package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/penwyp/go-tflog-viewer/internal/util"
)

// DefaultExtensions are the log file suffixes picked up from a directory
var DefaultExtensions = []string{".jsonl", ".log", ".jsonl.gz", ".log.gz"}

// FileScanner finds Terraform log files under a path
type FileScanner struct {
	root       string
	extensions []string
}

// NewFileScanner creates a scanner for root, which may be a directory or a single file
func NewFileScanner(root string) *FileScanner {
	return &FileScanner{
		root:       root,
		extensions: DefaultExtensions,
	}
}

// Matches reports whether path has one of the scanned extensions
func (s *FileScanner) Matches(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range s.extensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// Scan returns the matching files in lexical order. A root naming a regular file
// is returned as is, whatever its extension.
func (s *FileScanner) Scan() ([]string, error) {
	start := time.Now()

	info, err := os.Stat(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", s.root, err)
	}
	if !info.IsDir() {
		return []string{s.root}, nil
	}

	util.LogDebug(fmt.Sprintf("Start scanning directory: %s", s.root))

	var files []string
	dirCount, totalCount := 0, 0
	err = filepath.Walk(s.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			util.LogDebug(fmt.Sprintf("Skip file (error): %s - %v", path, err))
			return nil
		}
		if info.IsDir() {
			dirCount++
			return nil
		}

		totalCount++
		if s.Matches(path) {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)

	util.LogDebug(fmt.Sprintf("File scan completed: duration %v, scanned %d directories, %d files, found %d log files",
		time.Since(start), dirCount, totalCount, len(files)))

	return files, err
}
