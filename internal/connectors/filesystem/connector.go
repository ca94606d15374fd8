// Package filesystem loads structured record files from a directory tree into
// the keyword index and keeps the index in step with the tree.
//
// The tree is laid out as <root>/<folder>/**/*.json. The first path element
// under root is the folder label; files directly under root get an empty
// label. Hidden files and directories are skipped.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/logger"
)

// DefaultDebounce is the quiet period after the last change before a rebuild.
const DefaultDebounce = 500 * time.Millisecond

const recordExt = ".json"

// ErrClosed is returned by Watch after Close.
var ErrClosed = errors.New("connector closed")

// LoadStats reports the outcome of a load pass.
type LoadStats struct {
	// Files is the number of files loaded successfully.
	Files int
	// Failed is the number of files that could not be read or parsed.
	Failed int
	// Records is the total record count in the index after the pass.
	Records int
}

// Rebuild is emitted by Watch after each debounced rebuild.
type Rebuild struct {
	Stats LoadStats
	// Trigger is the path whose change started the rebuild.
	Trigger string
	Err     error
}

// Connector loads a records directory into a KeywordIndex.
type Connector struct {
	rootPath string
	index    driven.KeywordIndex
	debounce time.Duration

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	closed  bool
}

// Option configures a Connector.
type Option func(*Connector)

// WithDebounce sets the rebuild debounce interval.
func WithDebounce(d time.Duration) Option {
	return func(c *Connector) {
		if d > 0 {
			c.debounce = d
		}
	}
}

// New creates a connector for rootPath. The path is checked when loading.
func New(rootPath string, index driven.KeywordIndex, opts ...Option) *Connector {
	c := &Connector{
		rootPath: rootPath,
		index:    index,
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RootPath returns the records directory.
func (c *Connector) RootPath() string {
	return c.rootPath
}

// Validate checks that the root path exists and is a directory.
func (c *Connector) Validate() error {
	info, err := os.Stat(c.rootPath)
	if err != nil {
		return fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root path error: %s is not a directory", c.rootPath)
	}
	return nil
}

// LoadAll walks the tree and loads every record file into the index.
// Files that fail to load are counted and skipped.
func (c *Connector) LoadAll(ctx context.Context) (LoadStats, error) {
	var stats LoadStats
	err := c.walk(ctx, func(path string) {
		if c.index.Load(path, c.folderOf(path)) {
			stats.Files++
		} else {
			stats.Failed++
		}
	})
	if err != nil {
		return stats, err
	}

	_, stats.Records = c.index.Stats()
	logger.Info("records: loaded %d files (%d failed, %d records) from %s",
		stats.Files, stats.Failed, stats.Records, c.rootPath)
	return stats, nil
}

// Rebuild reads the whole tree and replaces the index contents in one
// step. Queries running meanwhile see the previous contents.
func (c *Connector) Rebuild(ctx context.Context) (LoadStats, error) {
	var (
		stats LoadStats
		files []domain.RecordFile
	)
	err := c.walk(ctx, func(path string) {
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("records: read %s: %v", path, err)
			stats.Failed++
			return
		}
		files = append(files, domain.RecordFile{
			Filename: filepath.Base(path),
			Folder:   c.folderOf(path),
			Data:     data,
		})
	})
	if err != nil {
		return stats, err
	}

	failed := c.index.ReplaceAll(files)
	stats.Files = len(files) - failed
	stats.Failed += failed
	_, stats.Records = c.index.Stats()
	logger.Info("records: rebuilt from %d files (%d failed, %d records)",
		stats.Files, stats.Failed, stats.Records)
	return stats, nil
}

// walk calls visit for every non-hidden record file under root.
func (c *Connector) walk(ctx context.Context, visit func(path string)) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return filepath.WalkDir(c.rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("records: skipping %s: %v", path, err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path == c.rootPath {
			return nil
		}
		if isHidden(d.Name()) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !isRecordFile(path) {
			return nil
		}
		visit(path)
		return nil
	})
}

// folderOf returns the top-level directory under root that contains path.
func (c *Connector) folderOf(path string) string {
	rel, err := filepath.Rel(c.rootPath, path)
	if err != nil {
		return ""
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[0]
}

// Watch rebuilds the index whenever record files change. The returned
// channel receives one Rebuild per debounced batch of changes and is
// closed when ctx is cancelled or the connector is closed.
func (c *Connector) Watch(ctx context.Context) (<-chan Rebuild, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := c.addTree(watcher, c.rootPath); err != nil {
		watcher.Close()
		return nil, err
	}
	if c.watcher != nil {
		c.watcher.Close()
	}
	c.watcher = watcher

	out := make(chan Rebuild, 1)
	go c.watchLoop(ctx, watcher, out)
	return out, nil
}

// addTree registers dir and every non-hidden subdirectory. fsnotify does
// not watch recursively.
func (c *Connector) addTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && isHidden(d.Name()) {
			return fs.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func (c *Connector) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, out chan<- Rebuild) {
	defer close(out)
	defer watcher.Close()

	var (
		timer   *time.Timer
		fire    <-chan time.Time
		trigger string
	)
	stop := func() {
		if timer != nil {
			timer.Stop()
		}
	}
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !c.handleFsEvent(watcher, event) {
				continue
			}
			logger.Debug("records: %s %s", event.Op, event.Name)
			trigger = event.Name
			stop()
			timer = time.NewTimer(c.debounce)
			fire = timer.C

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("records watcher: %v", err)

		case <-fire:
			fire = nil
			stats, err := c.Rebuild(ctx)
			if errors.Is(err, context.Canceled) {
				return
			}
			select {
			case out <- Rebuild{Stats: stats, Trigger: trigger, Err: err}:
			case <-ctx.Done():
				return
			}
		}
	}
}

// handleFsEvent reports whether the event should trigger a rebuild.
// New directories are added to the watch set.
func (c *Connector) handleFsEvent(watcher *fsnotify.Watcher, event fsnotify.Event) bool {
	if rel, err := filepath.Rel(c.rootPath, event.Name); err != nil || isHidden(rel) {
		return false
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if watcher != nil {
				if err := c.addTree(watcher, event.Name); err != nil {
					logger.Warn("records watcher: %v", err)
				}
			}
			// A directory moved in may already hold record files.
			return true
		}
	}

	if !isRecordFile(event.Name) {
		return false
	}
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}

// Close stops any active watch. It is idempotent.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	if c.watcher != nil {
		err := c.watcher.Close()
		c.watcher = nil
		return err
	}
	return nil
}

func isRecordFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), recordExt)
}

// isHidden reports whether any element of path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "" || part == "." || part == ".." {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
