// Package watch re-runs a callback when Lua sources under a directory
// change. Events are debounced so that an editor's write-then-rename burst
// triggers a single rebuild.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/phobologic/luabundle/internal/discover"
	"github.com/phobologic/luabundle/internal/lang"
)

// DefaultDebounce is the quiet period used when Config.Debounce is unset.
const DefaultDebounce = 300 * time.Millisecond

var defaultIgnores = []string{
	"**/.git/**",
	"**/*.swp",
	"**/*~",
	"**/.#*",
}

// Config configures a Watcher.
type Config struct {
	// Root is the directory watched recursively.
	Root string
	// Patterns are doublestar globs, relative to Root, selecting the files
	// that trigger a rebuild. Empty selects every Lua source.
	Patterns []string
	// Ignore are doublestar globs for paths that never trigger a rebuild,
	// such as the bundle output.
	Ignore   []string
	Debounce time.Duration
	// OnChange receives the sorted, slash-separated paths that changed.
	OnChange func(ctx context.Context, changed []string) error
	Logger   *log.Logger
}

// Watcher dispatches debounced change notifications. Run may be called once.
type Watcher struct {
	cfg      Config
	fsw      *fsnotify.Watcher
	root     string
	ignores  []string
	debounce time.Duration
	logger   *log.Logger
	started  atomic.Bool
}

// New validates cfg and starts watching every directory under cfg.Root.
func New(cfg Config) (*Watcher, error) {
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", cfg.Root, err)
	}
	if err := validate(cfg.Patterns); err != nil {
		return nil, err
	}
	if err := validate(cfg.Ignore); err != nil {
		return nil, err
	}

	dirs, err := discover.Dirs(root)
	if err != nil {
		return nil, fmt.Errorf("listing directories under %s: %w", root, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	for _, dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("watching %s: %w", dir, err)
		}
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		root:     root,
		ignores:  append(slices.Clone(defaultIgnores), cfg.Ignore...),
		debounce: debounce,
		logger:   logger,
	}, nil
}

// Run blocks until ctx is canceled. Callback errors are logged and do not
// stop the watcher; a callback still running when the next batch is due
// delays that batch.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return errors.New("watcher already running")
	}
	defer w.fsw.Close()

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		running atomic.Bool
	)

	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !running.CompareAndSwap(false, true) {
			mu.Lock()
			timer.Reset(w.debounce)
			mu.Unlock()
			return
		}
		defer running.Store(false)

		mu.Lock()
		changed := slices.Collect(maps.Keys(pending))
		clear(pending)
		mu.Unlock()
		if len(changed) == 0 {
			return
		}
		sort.Strings(changed)

		if w.cfg.OnChange != nil {
			if err := w.cfg.OnChange(ctx, changed); err != nil {
				w.logger.Error("rebuild failed", "err", err)
			}
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watcher event channel closed")
			}
			if evt.Has(fsnotify.Create) {
				w.addDir(evt.Name)
			}

			rel, ok := w.relevant(evt.Name)
			if !ok {
				continue
			}
			w.logger.Debug("change", "path", rel, "op", evt.Op.String())

			mu.Lock()
			pending[rel] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watcher error channel closed")
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				w.logger.Warn("events dropped", "err", err)
				continue
			}
			w.logger.Error("watch error", "err", err)
		}
	}
}

// relevant maps an event path to its slash-separated path under the root and
// reports whether it should trigger a rebuild.
func (w *Watcher) relevant(path string) (string, bool) {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if matchAny(w.ignores, rel) {
		return "", false
	}
	if len(w.cfg.Patterns) == 0 {
		return rel, lang.Lua.HasExtension(rel)
	}
	return rel, matchAny(w.cfg.Patterns, rel)
}

// addDir extends the watch to a directory created after startup.
func (w *Watcher) addDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	if rel, err := filepath.Rel(w.root, path); err == nil && matchAny(w.ignores, filepath.ToSlash(rel)+"/") {
		return
	}
	if err := w.fsw.Add(path); err != nil {
		w.logger.Warn("cannot watch new directory", "path", path, "err", err)
	}
}

func matchAny(patterns []string, rel string) bool {
	for _, pat := range patterns {
		if ok, err := doublestar.Match(pat, rel); err == nil && ok {
			return true
		}
	}
	return false
}

func validate(patterns []string) error {
	for _, pat := range patterns {
		if !doublestar.ValidatePattern(pat) {
			return fmt.Errorf("invalid pattern %q", pat)
		}
	}
	return nil
}
