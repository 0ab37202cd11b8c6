// Package luafmt re-emits Lua source in a readable or dense layout. Input is
// checked with tree-sitter and refused when it has syntax errors. Layout works
// on the token stream: the output holds the input's tokens in order, without
// comments, plus a ";" where a statement starting with "(" follows a block.
package luafmt

import (
	"context"
	"fmt"
	"os"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/luabundle/internal/lang"
	"github.com/phobologic/luabundle/internal/model"
	"github.com/phobologic/luabundle/internal/parse"
)

// SyntaxError reports the first parse error in the input.
type SyntaxError struct {
	Path   string
	Line   int
	Column int
	Near   string
}

func (e *SyntaxError) Error() string {
	loc := fmt.Sprintf("%d:%d", e.Line, e.Column)
	if e.Path != "" {
		loc = e.Path + ":" + loc
	}
	if e.Near == "" {
		return fmt.Sprintf("%s: syntax error", loc)
	}
	return fmt.Sprintf("%s: syntax error near %q", loc, e.Near)
}

// Formatter is the built-in code processor.
type Formatter struct {
	lang *lang.Language
}

// New creates a Formatter for Lua.
func New() *Formatter {
	return &Formatter{lang: lang.Lua}
}

// Process rewrites the file at path in place.
func (f *Formatter) Process(ctx context.Context, path string, density model.Density) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	out, err := f.Format(ctx, src, density)
	if err != nil {
		if se, ok := err.(*SyntaxError); ok {
			se.Path = path
		}
		return err
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Format returns src re-emitted with the given density.
func (f *Formatter) Format(ctx context.Context, src []byte, density model.Density) ([]byte, error) {
	toks := parse.Tokenize(string(src))
	roles := analyze(toks)
	if err := f.check(ctx, mask(src, toks, roles)); err != nil {
		return nil, err
	}
	return emit(toks, roles, density == model.Dense), nil
}

// check parses src and returns the first syntax error in it.
func (f *Formatter) check(ctx context.Context, src []byte) error {
	parser := f.lang.NewParser()
	defer parser.Close()
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return fmt.Errorf("parsing: %w", err)
	}
	defer tree.Close()

	if root := tree.RootNode(); root.HasError() {
		return syntaxError(root, src)
	}
	return nil
}

// mask blanks goto statements and labels, which the grammar does not know.
// Offsets are kept so error positions still refer to src.
func mask(src []byte, toks []parse.Token, roles []role) []byte {
	var out []byte
	for i, t := range toks {
		r := roles[i]
		if !r.gotoKw && !r.gotoTarget && !r.label {
			continue
		}
		if out == nil {
			out = append([]byte(nil), src...)
		}
		for k := t.Start; k < t.Start+len(t.Text); k++ {
			out[k] = ' '
		}
	}
	if out == nil {
		return src
	}
	return out
}

func syntaxError(root *sitter.Node, src []byte) *SyntaxError {
	stack := []*sitter.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.Type() == "ERROR" || n.IsMissing() {
			p := n.StartPoint()
			near := lang.CollapseWhitespace(lang.NodeText(n, src))
			if len(near) > 40 {
				near = near[:40]
			}
			return &SyntaxError{Line: int(p.Row) + 1, Column: int(p.Column) + 1, Near: near}
		}
		for i := int(n.ChildCount()) - 1; i >= 0; i-- {
			if c := n.Child(i); c != nil && c.HasError() {
				stack = append(stack, c)
			}
		}
	}
	p := root.StartPoint()
	return &SyntaxError{Line: int(p.Row) + 1, Column: int(p.Column) + 1}
}

