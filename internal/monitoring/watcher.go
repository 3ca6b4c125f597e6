package monitoring

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/penwyp/go-tflog-viewer/internal/util"
)

// FileEvent is a change to a watched log file
type FileEvent struct {
	Path      string
	Operation string
}

// FileWatcher reports writes to log files under a file or directory
type FileWatcher struct {
	watcher   *fsnotify.Watcher
	match     func(path string) bool
	events    chan FileEvent
	done      chan struct{}
	closeOnce sync.Once
}

// NewFileWatcher watches root. A directory is watched recursively and events are
// filtered with match; a single file is watched through its parent directory and
// only its own events are reported.
func NewFileWatcher(root string, match func(path string) bool) (*FileWatcher, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", root, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	fw := &FileWatcher{
		watcher: watcher,
		match:   match,
		events:  make(chan FileEvent, 100),
		done:    make(chan struct{}),
	}

	if info.IsDir() {
		err = fw.addTree(root)
	} else {
		target := filepath.Clean(root)
		fw.match = func(p string) bool { return filepath.Clean(p) == target }
		err = watcher.Add(filepath.Dir(target))
	}
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", root, err)
	}

	go fw.processEvents()
	return fw, nil
}

// addTree recursively adds directories
func (fw *FileWatcher) addTree(root string) error {
	return filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			return fw.watcher.Add(p)
		}
		return nil
	})
}

func (fw *FileWatcher) processEvents() {
	defer close(fw.events)

	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}

			// New subdirectories are watched too
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := fw.addTree(event.Name); err != nil {
						util.LogWarn("Failed to watch new directory", util.F("dir", event.Name), util.F("error", err))
					}
					continue
				}
			}

			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if fw.match != nil && !fw.match(event.Name) {
				continue
			}

			select {
			case fw.events <- FileEvent{Path: event.Name, Operation: event.Op.String()}:
			case <-fw.done:
				return
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			util.LogError("File monitoring error: " + err.Error())

		case <-fw.done:
			return
		}
	}
}

// Events returns the change channel. It is closed after Close.
func (fw *FileWatcher) Events() <-chan FileEvent {
	return fw.events
}

// Close stops watching
func (fw *FileWatcher) Close() error {
	var err error
	fw.closeOnce.Do(func() {
		close(fw.done)
		err = fw.watcher.Close()
	})
	return err
}
