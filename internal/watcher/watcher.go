// Package watcher keeps a cartridge in sync with its fragment directory.
//
// FileWatcher turns fsnotify events for the fragment directory into
// debounced batches on a bounded queue. Controller consumes that queue on a
// single worker, so rebuilds never overlap, and coordinates shutdown with
// the shared State.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/conneroisu/picopack/internal/logging"
	"github.com/conneroisu/picopack/internal/scanner"
)

const (
	// DefaultDebounce coalesces editor save bursts into one rebuild.
	DefaultDebounce = 100 * time.Millisecond

	// QueueSize bounds the number of batches waiting for the worker.
	QueueSize = 16

	eventBuffer = 100
)

// FileWatcher watches a fragment directory with debouncing.
type FileWatcher struct {
	watcher   *fsnotify.Watcher
	debouncer *Debouncer
	filters   []FileFilter
	logger    logging.Logger
	fatal     chan error
	mutex     sync.RWMutex
	stopOnce  sync.Once
}

// ChangeEvent represents a file change event
type ChangeEvent struct {
	Type    EventType
	Path    string
	ModTime time.Time
	Size    int64
}

// EventType represents the type of file change
type EventType int

const (
	EventTypeCreated EventType = iota
	EventTypeModified
	EventTypeDeleted
	EventTypeRenamed
)

// String returns the string representation of the EventType
func (e EventType) String() string {
	switch e {
	case EventTypeCreated:
		return "created"
	case EventTypeModified:
		return "modified"
	case EventTypeDeleted:
		return "deleted"
	case EventTypeRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// ChangesMembership reports whether the event can add or remove a fragment.
func (e EventType) ChangesMembership() bool {
	return e == EventTypeCreated || e == EventTypeDeleted || e == EventTypeRenamed
}

// FileFilter determines if a file should be watched
type FileFilter func(path string) bool

// NewFileWatcher creates a new file watcher. A negative debounce falls back
// to DefaultDebounce; zero flushes every event immediately.
func NewFileWatcher(debounceDelay time.Duration, logger logging.Logger) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if debounceDelay < 0 {
		debounceDelay = DefaultDebounce
	}
	if logger == nil {
		logger = logging.Discard()
	}

	return &FileWatcher{
		watcher:   watcher,
		debouncer: NewDebouncer(debounceDelay, QueueSize),
		filters:   make([]FileFilter, 0),
		logger:    logger.WithComponent("watcher"),
		fatal:     make(chan error, 1),
	}, nil
}

// AddFilter adds a file filter
func (fw *FileWatcher) AddFilter(filter FileFilter) {
	fw.mutex.Lock()
	defer fw.mutex.Unlock()
	fw.filters = append(fw.filters, filter)
}

// AddPath watches a single directory. Subdirectories are not followed.
func (fw *FileWatcher) AddPath(path string) error {
	cleanPath := filepath.Clean(path)
	info, err := os.Stat(cleanPath)
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("invalid path: %s is not a directory", path)
	}
	return fw.watcher.Add(cleanPath)
}

// Events returns the queue of debounced batches.
func (fw *FileWatcher) Events() <-chan []ChangeEvent {
	return fw.debouncer.output
}

// Fatal delivers an error when the underlying watcher can no longer work.
func (fw *FileWatcher) Fatal() <-chan error {
	return fw.fatal
}

// Start starts the file watcher
func (fw *FileWatcher) Start(ctx context.Context) error {
	go fw.debouncer.run(ctx)
	go fw.watchLoop(ctx)
	return nil
}

// Stop stops the file watcher and cleans up resources. It is safe to call
// more than once.
func (fw *FileWatcher) Stop() error {
	var err error
	fw.stopOnce.Do(func() {
		err = fw.watcher.Close()
	})
	return err
}

func (fw *FileWatcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			change, keep := fw.convert(event)
			if !keep {
				continue
			}
			select {
			case fw.debouncer.events <- change:
			case <-ctx.Done():
				return
			}
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			if isFatalFsnotifyError(err) {
				select {
				case fw.fatal <- fmt.Errorf("fatal fsnotify error: %w", err):
				default:
				}
				return
			}
			fw.logger.Warn(ctx, err, "File watcher error")
		}
	}
}

// convert maps an fsnotify event to a ChangeEvent and applies the filters.
func (fw *FileWatcher) convert(event fsnotify.Event) (ChangeEvent, bool) {
	fw.mutex.RLock()
	filters := fw.filters
	fw.mutex.RUnlock()

	for _, filter := range filters {
		if !filter(event.Name) {
			return ChangeEvent{}, false
		}
	}

	var eventType EventType
	switch {
	case event.Has(fsnotify.Create):
		eventType = EventTypeCreated
	case event.Has(fsnotify.Write):
		eventType = EventTypeModified
	case event.Has(fsnotify.Remove):
		eventType = EventTypeDeleted
	case event.Has(fsnotify.Rename):
		eventType = EventTypeRenamed
	default:
		// chmod only
		return ChangeEvent{}, false
	}

	change := ChangeEvent{Type: eventType, Path: event.Name}
	if info, err := os.Stat(event.Name); err == nil {
		change.ModTime = info.ModTime()
		change.Size = info.Size()
	}
	return change, true
}

// Debouncer groups rapid file changes together. Batches are never dropped:
// when the queue is full the debouncer waits for the consumer.
type Debouncer struct {
	delay  time.Duration
	events chan ChangeEvent
	output chan []ChangeEvent
}

// NewDebouncer creates a debouncer emitting onto a queue of queueSize batches.
func NewDebouncer(delay time.Duration, queueSize int) *Debouncer {
	return &Debouncer{
		delay:  delay,
		events: make(chan ChangeEvent, eventBuffer),
		output: make(chan []ChangeEvent, queueSize),
	}
}

func (d *Debouncer) run(ctx context.Context) {
	var (
		pending []ChangeEvent
		timer   *time.Timer
		fire    <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-d.events:
			pending = append(pending, event)
			if timer == nil {
				timer = time.NewTimer(d.delay)
			} else {
				timer.Reset(d.delay)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			batch := dedupe(pending)
			pending = nil
			select {
			case d.output <- batch:
			case <-ctx.Done():
				return
			}
		}
	}
}

// dedupe drops repeated (path, type) pairs, keeping first-seen order.
func dedupe(events []ChangeEvent) []ChangeEvent {
	type key struct {
		path string
		kind EventType
	}
	seen := make(map[key]int, len(events))
	out := make([]ChangeEvent, 0, len(events))
	for _, event := range events {
		k := key{event.Path, event.Type}
		if i, ok := seen[k]; ok {
			out[i] = event
			continue
		}
		seen[k] = len(out)
		out = append(out, event)
	}
	return out
}

// editorNoise lists scratch files editors write next to real sources.
var editorNoise = []string{
	"*.swp",
	"*.swo",
	"*~",
	".#*",
	"#*#",
	".DS_Store",
}

// FragmentFilter keeps only names the scanner would resolve as fragments.
func FragmentFilter(s *scanner.FragmentScanner) FileFilter {
	return func(path string) bool {
		return s.Matches(filepath.Base(path))
	}
}

// NoEditorNoiseFilter drops editor swap and backup files.
func NoEditorNoiseFilter(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range editorNoise {
		if matched, err := doublestar.Match(pattern, base); err == nil && matched {
			return false
		}
	}
	return true
}
