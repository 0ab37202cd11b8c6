package bundle

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/phobologic/luabundle/internal/model"
	"github.com/phobologic/luabundle/internal/parse"
)

// Base selects the directory module paths are read from during substitution.
type Base string

const (
	// BaseEntry reads every module relative to the entry file's directory.
	// Modules nested in subdirectories are only found when their paths are
	// written relative to the entry directory.
	BaseEntry Base = "entry"
	// BaseModule reads every module relative to the file that requires it,
	// matching the resolver.
	BaseModule Base = "module"
)

// DefaultIndent prefixes each line of an inlined multi-line statement.
const DefaultIndent = "    "

// StaleSiteError reports a call site whose recorded range no longer holds
// the matched text, typically because the file changed mid-bundle.
type StaleSiteError struct {
	File string
	Site model.CallSite
}

func (e *StaleSiteError) Error() string {
	return fmt.Sprintf("%s: %q no longer at offset %d (file changed during bundling?)", e.File, e.Site.Matched, e.Site.Start)
}

// SubstituteOptions configures Substitute.
type SubstituteOptions struct {
	ResolveFrom Base
	Indent      string
	Logger      *log.Logger
}

// Substitute inlines every call site into entryText, the comment-stripped
// text of entryPath. sites must be the preorder list produced by the
// resolver: sites at depth d+1 that follow a depth-d site are spliced into
// that site's module body.
//
// Each statement becomes an immediately-invoked function whose body is the
// module's raw text. Splicing is done by recorded byte range, so identical
// statements elsewhere in the buffer are left alone.
func Substitute(ctx context.Context, entryPath, entryText string, sites []model.CallSite, opts SubstituteOptions) (string, error) {
	if opts.ResolveFrom == "" {
		opts.ResolveFrom = BaseEntry
	}
	if opts.Indent == "" {
		opts.Indent = DefaultIndent
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	s := &substituter{ctx: ctx, opts: opts, entryDir: filepath.Dir(entryPath)}
	return s.splice(entryPath, entryText, sites, 0)
}

type substituter struct {
	ctx      context.Context
	opts     SubstituteOptions
	entryDir string
}

// splice rewrites text, the contents of file, replacing the sites at depth.
func (s *substituter) splice(file, text string, sites []model.CallSite, depth int) (string, error) {
	var b strings.Builder
	b.Grow(len(text))
	cursor := 0

	for i := 0; i < len(sites); {
		site := sites[i]
		j := i + 1
		for j < len(sites) && sites[j].Depth > depth {
			j++
		}
		children := sites[i+1 : j]
		i = j

		start, ok := locate(text, site, cursor)
		if !ok {
			if sameFile(site.File, file) {
				return "", &StaleSiteError{File: file, Site: site}
			}
			// The module read here differs from the one the site was
			// scanned in, so the statement may not exist in this text.
			s.opts.Logger.Debug("statement not present in module", "matched", site.Matched, "file", file)
			continue
		}

		target := s.target(site)
		raw, err := os.ReadFile(target)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", target, err)
		}
		if err := s.ctx.Err(); err != nil {
			return "", err
		}

		body, err := s.splice(target, string(raw), children, depth+1)
		if err != nil {
			return "", err
		}

		b.WriteString(text[cursor:start])
		b.WriteString(s.replacement(site, body))
		cursor = start + len(site.Matched)
	}

	b.WriteString(text[cursor:])
	return b.String(), nil
}

// locate returns the offset of site's statement in text. The recorded range
// is used when it still holds the statement; otherwise the next occurrence
// at or after cursor.
func locate(text string, site model.CallSite, cursor int) (int, bool) {
	if site.Start >= cursor && site.End <= len(text) && text[site.Start:site.End] == site.Matched {
		return site.Start, true
	}
	if k := strings.Index(text[cursor:], site.Matched); k >= 0 {
		return cursor + k, true
	}
	return 0, false
}

func sameFile(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}

func (s *substituter) target(site model.CallSite) string {
	if s.opts.ResolveFrom == BaseModule && site.File != "" {
		return filepath.Join(filepath.Dir(site.File), site.Path)
	}
	return filepath.Join(s.entryDir, site.Path)
}

func (s *substituter) replacement(site model.CallSite, body string) string {
	r := Closure(site, body)
	if site.Multiline() {
		r = Indent(r, s.opts.Indent)
	}
	if site.Embedded {
		r = LongString(r)
	}
	return r
}

// Closure wraps body in an immediately-invoked function forwarding the
// site's arguments. A suffix replaces the trailing semicolon.
func Closure(site model.CallSite, body string) string {
	params := "..."
	if site.Args != "" && isParamList(site.Args) {
		params = site.Args
	}

	r := "(function(" + params + ")\n\t" + body + "\nend)(" + site.Args + ")"
	if site.Suffix != "" {
		return r + site.Suffix
	}
	return r + ";"
}

// isParamList reports whether args can double as a parameter list: names
// separated by commas, optionally ending in "...".
func isParamList(args string) bool {
	parts := strings.Split(args, ",")
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "..." && i == len(parts)-1 {
			continue
		}
		if !isName(p) {
			return false
		}
	}
	return true
}

func isName(s string) bool {
	if s == "" || parse.IsKeyword(s) || s == "goto" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (i > 0 && c >= '0' && c <= '9') {
			continue
		}
		return false
	}
	return true
}

// Indent prefixes every line of s with unit.
func Indent(s, unit string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = unit + strings.TrimSuffix(l, "\r")
	}
	return strings.Join(lines, "\n")
}

// LongString wraps s in the lowest-level long bracket that s does not close.
func LongString(s string) string {
	level := 0
	for strings.Contains(s+"]", "]"+strings.Repeat("=", level)+"]") {
		level++
	}
	eq := strings.Repeat("=", level)
	return "[" + eq + "[" + s + "]" + eq + "]"
}
