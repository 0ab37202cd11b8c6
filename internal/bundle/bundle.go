// Package bundle inlines a Lua entry file's dependency tree into a single
// file and hands the result to a code processor.
package bundle

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/phobologic/luabundle/internal/luafmt"
	"github.com/phobologic/luabundle/internal/model"
	"github.com/phobologic/luabundle/internal/parse"
	"github.com/phobologic/luabundle/internal/resolve"
)

// Processor rewrites a finished bundle in place.
type Processor interface {
	Process(ctx context.Context, path string, density model.Density) error
}

// Options configures one bundle invocation.
type Options struct {
	Entry  string
	Output string
	// Density selects readable or dense processor output.
	Density model.Density
	// SkipProcessing returns after the bundle is written.
	SkipProcessing bool

	ResolveFrom Base
	Indent      string
	// External and IgnoreFile name module paths that are left as runtime
	// requires; see resolve.Options.
	External   []string
	IgnoreFile string

	// Processor defaults to the built-in tree-sitter formatter.
	Processor Processor
	Logger    *log.Logger
}

// Result describes a finished bundle.
type Result struct {
	Entry       string
	Output      string
	Sites       int
	Bytes       int
	Processed   bool
	BundleTime  time.Duration
	ProcessTime time.Duration
}

// Bundle resolves opts.Entry, inlines every dependency, writes the result to
// opts.Output and, unless skipped, runs the processor over it. Any failure
// aborts the whole operation.
func Bundle(ctx context.Context, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	start := time.Now()

	sites, err := resolve.New(resolve.Options{
		External:   opts.External,
		IgnoreFile: opts.IgnoreFile,
		Logger:     logger,
	}).Resolve(ctx, opts.Entry)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", opts.Entry, err)
	}

	raw, err := os.ReadFile(opts.Entry)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", opts.Entry, err)
	}

	out, err := Substitute(ctx, opts.Entry, parse.Strip(string(raw)), sites, SubstituteOptions{
		ResolveFrom: opts.ResolveFrom,
		Indent:      opts.Indent,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("inlining %s: %w", opts.Entry, err)
	}

	if err := WriteChunked(opts.Output, []byte(out), ChunkSize); err != nil {
		return nil, err
	}

	res := &Result{
		Entry:      opts.Entry,
		Output:     opts.Output,
		Sites:      len(sites),
		Bytes:      len(out),
		BundleTime: time.Since(start),
	}
	logger.Debug("bundled", "entry", opts.Entry, "sites", res.Sites, "bytes", res.Bytes, "elapsed", res.BundleTime)

	if opts.SkipProcessing {
		return res, nil
	}

	proc := opts.Processor
	if proc == nil {
		proc = luafmt.New()
	}
	density := opts.Density
	if density == "" {
		density = model.Readable
	}

	start = time.Now()
	if err := proc.Process(ctx, opts.Output, density); err != nil {
		return res, fmt.Errorf("processing %s: %w", opts.Output, err)
	}
	res.Processed = true
	res.ProcessTime = time.Since(start)
	logger.Debug("processed", "output", opts.Output, "density", density, "elapsed", res.ProcessTime)

	return res, nil
}
