// Package resolve walks the dependency tree rooted at an entry file and
// flattens every dependency statement it finds into a preorder list.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/phobologic/luabundle/internal/model"
	"github.com/phobologic/luabundle/internal/parse"
)

// CycleError reports a module that requires itself, directly or through
// other modules.
type CycleError struct {
	// Chain lists the files on the require path, ending with the repeated one.
	Chain []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("circular dependency: %s", strings.Join(e.Chain, " -> "))
}

// Options configures a Resolver.
type Options struct {
	// External holds gitignore-style patterns for module paths that are
	// provided at runtime. Matching statements are left in place.
	External []string
	// IgnoreFile is an optional file of further patterns, resolved against
	// the entry file's directory when relative. A missing file is not an error.
	IgnoreFile string
	Logger     *log.Logger
}

// Resolver discovers call sites transitively. A Resolver holds no state
// between calls and may be shared.
type Resolver struct {
	opts   Options
	logger *log.Logger
}

// New creates a Resolver.
func New(opts Options) *Resolver {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Resolver{opts: opts, logger: logger}
}

type frame struct {
	key  string
	path string
}

// Resolve returns every call site reachable from entry, parent before
// children. The entry file is scanned after comment stripping; modules are
// scanned raw so that offsets refer to the text that gets inlined.
// Module paths that do not name an existing file are recorded but not
// followed.
func (r *Resolver) Resolve(ctx context.Context, entry string) ([]model.CallSite, error) {
	external, err := r.externalMatcher(entry)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(entry)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", entry, err)
	}

	key, err := filepath.Abs(entry)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", entry, err)
	}

	w := walker{ctx: ctx, logger: r.logger, external: external}
	return w.walk(entry, parse.Strip(string(raw)), 0, []frame{{key: key, path: entry}})
}

func (r *Resolver) externalMatcher(entry string) (*ignore.GitIgnore, error) {
	if r.opts.IgnoreFile == "" {
		if len(r.opts.External) == 0 {
			return nil, nil
		}
		return ignore.CompileIgnoreLines(r.opts.External...), nil
	}

	path := r.opts.IgnoreFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(filepath.Dir(entry), path)
	}
	gi, err := ignore.CompileIgnoreFileAndLines(path, r.opts.External...)
	if errors.Is(err, fs.ErrNotExist) {
		if len(r.opts.External) == 0 {
			return nil, nil
		}
		return ignore.CompileIgnoreLines(r.opts.External...), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading ignore file %s: %w", path, err)
	}
	return gi, nil
}

type walker struct {
	ctx      context.Context
	logger   *log.Logger
	external *ignore.GitIgnore
}

func (w *walker) walk(file, text string, depth int, chain []frame) ([]model.CallSite, error) {
	if err := w.ctx.Err(); err != nil {
		return nil, err
	}

	dir := filepath.Dir(file)
	var calls []model.CallSite

	for _, site := range parse.Scan(text) {
		if w.external != nil && w.external.MatchesPath(site.Path) {
			w.logger.Debug("external module", "path", site.Path, "file", file)
			continue
		}

		site.File = file
		site.Depth = depth
		calls = append(calls, site)

		target := filepath.Join(dir, site.Path)
		info, err := os.Stat(target)
		if err != nil || info.IsDir() {
			w.logger.Debug("not a local module", "path", site.Path, "file", file)
			continue
		}

		key, err := filepath.Abs(target)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", target, err)
		}
		for i, f := range chain {
			if f.key == key {
				return nil, cycleError(chain[i:], target)
			}
		}

		raw, err := os.ReadFile(target)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", target, err)
		}
		w.logger.Debug("resolved module", "path", site.Path, "file", target, "depth", depth+1)

		next := append(chain[:len(chain):len(chain)], frame{key: key, path: target})
		children, err := w.walk(target, string(raw), depth+1, next)
		if err != nil {
			return nil, err
		}
		calls = append(calls, children...)
	}

	return calls, nil
}

func cycleError(chain []frame, repeated string) *CycleError {
	paths := make([]string, 0, len(chain)+1)
	for _, f := range chain {
		paths = append(paths, f.path)
	}
	return &CycleError{Chain: append(paths, repeated)}
}
