package parser

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/penwyp/go-tflog-viewer/internal/core/model"
	"github.com/penwyp/go-tflog-viewer/internal/util"
	"github.com/valyala/fastjson"
)

var gzipMagic = []byte{0x1f, 0x8b}

// Line is one parsed log line. Record.ID is left zero; the store assigns it.
type Line struct {
	Record model.LogRecord
	Bodies []Body
}

// Parser turns Terraform JSONL logs into records.
type Parser struct {
	concurrency int
	pool        fastjson.ParserPool
	mu          sync.Mutex
	cache       map[string]cacheEntry
}

// cacheEntry is a parsed file and the version of the file it came from
type cacheEntry struct {
	lines       []Line
	info        util.FileInfo
	fingerprint string
}

// ParseResult represents the result of parsing a single file.
type ParseResult struct {
	File  string
	Lines []Line
	Error error
}

// NewParser creates a new Parser instance.
func NewParser(concurrency int) *Parser {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Parser{
		concurrency: concurrency,
		cache:       make(map[string]cacheEntry),
	}
}

// ParseLine extracts a record from one raw line. Lines that are not JSON
// objects are kept and wrapped as {"raw": line}.
func (p *Parser) ParseLine(raw string) Line {
	jp := p.pool.Get()
	defer p.pool.Put(jp)

	var obj *fastjson.Value
	rawJSON := raw
	if v, err := jp.Parse(raw); err == nil && v.Type() == fastjson.TypeObject {
		obj = v
	} else {
		var a fastjson.Arena
		wrapped := a.NewObject()
		wrapped.Set("raw", a.NewString(raw))
		rawJSON = wrapped.String()
	}

	rec := model.LogRecord{Level: model.LevelOther, RawJSON: rawJSON}

	tsText := stringField(obj, timestampFields...)
	if tsText == "" {
		tsText = extractTimestamp(rawJSON, raw)
	}
	if ts, ok := model.ParseTimestamp(tsText); ok {
		rec.TS = &ts
	}

	rec.Level = levelFromObject(obj)
	if rec.Level == model.LevelOther {
		rec.Level = guessLevel(raw)
	}
	rec.Section = detectSection(raw)
	rec.ReqID = extractReqID(obj, raw)
	rec.Resource = stringField(obj, resourceFields...)
	rec.Excerpt = excerpt(rawJSON)

	return Line{Record: rec, Bodies: extractBodies(obj)}
}

// ParseStream parses every non-blank line of r. Gzip input is detected by its
// magic bytes and decompressed transparently.
func (p *Parser) ParseStream(r io.Reader) ([]Line, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(2); err == nil && bytes.Equal(head, gzipMagic) {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		defer zr.Close()
		return p.scan(zr)
	}
	return p.scan(br)
}

func (p *Parser) scan(r io.Reader) ([]Line, error) {
	var lines []Line
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	lineCount := 0
	for scanner.Scan() {
		lineCount++
		text := scanner.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		lines = append(lines, p.ParseLine(text))
	}
	if err := scanner.Err(); err != nil {
		return lines, fmt.Errorf("failed to scan line %d: %w", lineCount+1, err)
	}

	util.LogDebugf("Parsed %d lines (%d non-blank)", lineCount, len(lines))
	return lines, nil
}

// ParseFile parses the log file at the specified path. Results are cached per
// path while the file's size, mtime, inode and tail fingerprint are unchanged.
func (p *Parser) ParseFile(filepath string) ([]Line, error) {
	info, err := util.GetFileInfo(filepath)
	if err != nil {
		util.LogDebug(fmt.Sprintf("Failed to stat file: %s - %v", filepath, err))
		return nil, err
	}

	p.mu.Lock()
	cached, ok := p.cache[filepath]
	p.mu.Unlock()
	if ok && cached.info == info {
		if fp, err := util.CalculateFileFingerprint(filepath); err == nil && fp == cached.fingerprint {
			return cached.lines, nil
		}
	}

	util.LogDebug(fmt.Sprintf("Start parsing file: %s", filepath))

	file, err := os.Open(filepath)
	if err != nil {
		util.LogDebug(fmt.Sprintf("Failed to open file: %s - %v", filepath, err))
		return nil, err
	}
	defer file.Close()

	lines, err := p.ParseStream(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath, err)
	}

	fp, err := util.CalculateFileFingerprint(filepath)
	if err != nil {
		// Still usable, just not cached
		return lines, nil
	}

	p.mu.Lock()
	p.cache[filepath] = cacheEntry{lines: lines, info: info, fingerprint: fp}
	p.mu.Unlock()

	return lines, nil
}

// Invalidate drops the cached parse of a file. An empty path clears the
// whole cache.
func (p *Parser) Invalidate(filepath string) {
	p.mu.Lock()
	if filepath == "" {
		p.cache = make(map[string]cacheEntry)
	} else {
		delete(p.cache, filepath)
	}
	p.mu.Unlock()
}

// ParseFiles parses multiple files concurrently and returns a channel of ParseResult.
func (p *Parser) ParseFiles(files []string) <-chan ParseResult {
	start := time.Now()
	results := make(chan ParseResult, len(files))
	var wg sync.WaitGroup

	util.LogDebug(fmt.Sprintf("Start concurrent parsing of %d files, concurrency: %d", len(files), p.concurrency))

	semaphore := make(chan struct{}, p.concurrency)

	for _, file := range files {
		wg.Add(1)
		go func(f string) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			lines, err := p.ParseFile(f)
			if err != nil {
				util.LogDebug(fmt.Sprintf("File parsing failed: %s - %v", f, err))
			}

			results <- ParseResult{File: f, Lines: lines, Error: err}
		}(file)
	}

	go func() {
		wg.Wait()
		close(results)
		util.LogDebug(fmt.Sprintf("Concurrent parsing finished, total duration: %v", time.Since(start)))
	}()

	return results
}
