package luafmt

import (
	"strings"

	"github.com/phobologic/luabundle/internal/parse"
)

type frameKind int

// Frames up to frameBrace hold expressions; the rest hold statements.
const (
	frameParen frameKind = iota
	frameParams
	frameBracket
	frameBrace
	frameBlock
	frameLoop
	frameFuncStmt
	frameFuncExpr
)

type frame struct {
	kind frameKind
	// header is set on a loop until the "do" that opens its body.
	header bool
}

// role describes how a token takes part in layout.
type role struct {
	stmt    bool // first token of a statement
	semi    bool // needs a ";" in front so it is not read as a call
	opens   bool // a block body follows
	closes  bool // end, else, elseif, until
	stmtEnd bool // ends a statement that cannot continue as an expression
	unary   bool
	call    bool // "(" or "[" applied to the preceding expression, or a parameter list

	gotoKw     bool
	gotoTarget bool
	label      bool // any token of ::name::
	labelOpen  bool
	labelClose bool
}

var statementKeywords = map[string]bool{
	"local": true, "if": true, "while": true, "for": true, "repeat": true,
	"return": true, "break": true, "do": true, "function": true,
}

// analyze assigns a role to every token. Nesting is tracked with one stack
// for brackets and blocks, so a statement inside a function expression inside
// a call is still recognised.
func analyze(toks []parse.Token) []role {
	roles := make([]role, len(toks))

	var stack []frame
	push := func(k frameKind, header bool) {
		stack = append(stack, frame{kind: k, header: header})
	}
	pop := func() frame {
		if len(stack) == 0 {
			return frame{kind: frameBlock}
		}
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return f
	}
	var top *frame
	inLabel := false
	expectParams := false

	for i, t := range toks {
		r := &roles[i]
		top = nil
		if len(stack) > 0 {
			top = &stack[len(stack)-1]
		}

		var prev parse.Token
		var pr role
		if i > 0 {
			prev, pr = toks[i-1], roles[i-1]
		}
		ends := i > 0 && endsExpr(prev, pr)

		sym := t.Kind == parse.Symbol
		kw := t.Kind == parse.Keyword
		r.closes = kw && isCloser(t.Text)
		headerDo := kw && t.Text == "do" && top != nil && top.kind == frameLoop && top.header
		inExpr := top != nil && top.kind <= frameBrace
		closingLabel := sym && t.Text == "::" && inLabel

		switch {
		case r.closes || inExpr || headerDo || closingLabel || (inLabel && t.Kind == parse.Name) || (sym && t.Text == ";"):
		case i == 0:
			r.stmt = true
		case boundary(prev, pr):
			r.stmt = true
			r.semi = sym && t.Text == "(" && pr.stmtEnd
		case ends:
			r.stmt = t.Kind == parse.Name || (sym && t.Text == "::") || (kw && statementKeywords[t.Text])
		}

		r.gotoKw = t.Kind == parse.Name && t.Text == "goto" && r.stmt &&
			i+1 < len(toks) && toks[i+1].Kind == parse.Name
		r.gotoTarget = pr.gotoKw
		r.unary = ((sym && (t.Text == "-" || t.Text == "~" || t.Text == "#")) || (kw && t.Text == "not")) && !ends
		if sym && (t.Text == "(" || t.Text == "[") {
			r.call = ends || (t.Text == "(" && expectParams)
		}
		if inLabel && t.Kind == parse.Name {
			r.label = true
		}

		if sym {
			switch t.Text {
			case "(":
				if expectParams {
					push(frameParams, false)
					expectParams = false
				} else {
					push(frameParen, false)
				}
			case "[":
				push(frameBracket, false)
			case "{":
				push(frameBrace, false)
			case ")":
				if pop().kind == frameParams {
					r.opens = true
				}
			case "]", "}":
				pop()
			case "::":
				if inLabel {
					r.label, r.labelClose = true, true
					inLabel = false
				} else if r.stmt {
					r.label, r.labelOpen = true, true
					inLabel = true
				}
			}
		}

		if kw {
			switch t.Text {
			case "function":
				k := frameFuncExpr
				if r.stmt || (prev.Kind == parse.Keyword && prev.Text == "local") {
					k = frameFuncStmt
				}
				push(k, false)
				expectParams = true
			case "if":
				push(frameBlock, false)
			case "while", "for":
				push(frameLoop, true)
			case "do":
				if headerDo {
					top.header = false
				} else {
					push(frameBlock, false)
				}
				r.opens = true
			case "repeat":
				push(frameBlock, false)
				r.opens = true
			case "then", "else":
				r.opens = true
			case "end":
				r.stmtEnd = pop().kind != frameFuncExpr
			case "until":
				pop()
			case "break":
				r.stmtEnd = true
			}
		}
	}
	return roles
}

func isCloser(s string) bool {
	switch s {
	case "end", "else", "elseif", "until":
		return true
	}
	return false
}

// boundary reports whether a new statement must start after t.
func boundary(t parse.Token, r role) bool {
	return t.Kind == parse.Shebang || (t.Kind == parse.Symbol && t.Text == ";") ||
		r.opens || r.stmtEnd || r.labelClose
}

// endsExpr reports whether t can be the last token of an expression.
func endsExpr(t parse.Token, r role) bool {
	switch t.Kind {
	case parse.Name:
		return !r.gotoKw && !r.label
	case parse.Number, parse.String:
		return true
	case parse.Keyword:
		switch t.Text {
		case "end", "nil", "true", "false", "break":
			return true
		}
	case parse.Symbol:
		switch t.Text {
		case ")", "]", "}", "...":
			return true
		}
	}
	return false
}

// emit writes the tokens. Dense output separates tokens only where they
// would merge; readable output starts every statement and block keyword on
// its own tab-indented line.
func emit(toks []parse.Token, roles []role, dense bool) []byte {
	if len(toks) == 0 {
		return nil
	}

	var b strings.Builder
	depth := 0
	newline := func() {
		b.WriteByte('\n')
		if !dense {
			b.WriteString(strings.Repeat("\t", depth))
		}
	}

	for i, t := range toks {
		r := roles[i]
		if r.closes && depth > 0 {
			depth--
		}

		if i > 0 {
			prev, pr := toks[i-1], roles[i-1]
			if r.semi {
				b.WriteByte(';')
				prev, pr = parse.Token{Kind: parse.Symbol, Text: ";"}, role{}
			}
			switch {
			case prev.Kind == parse.Shebang:
				newline()
			case !dense && (r.stmt || r.closes):
				newline()
			case dense || r.stmt || r.closes:
				if needsSpace(prev.Text, t.Text) {
					b.WriteByte(' ')
				}
			case readableGap(prev, pr, t, r) || needsSpace(prev.Text, t.Text):
				b.WriteByte(' ')
			}
		}

		b.WriteString(t.Text)
		if r.opens {
			depth++
		}
	}

	b.WriteByte('\n')
	return []byte(b.String())
}

// readableGap reports whether readable output puts a space between prev and
// cur on the same line.
func readableGap(prev parse.Token, pr role, cur parse.Token, r role) bool {
	if pr.unary || pr.labelOpen {
		return false
	}
	if prev.Kind == parse.Symbol {
		switch prev.Text {
		case "(", "[", ".", ":":
			return false
		case "{":
			return cur.Text != "}"
		}
	}
	if cur.Kind == parse.Symbol {
		switch cur.Text {
		case ",", ";", ")", "]", ".", ":":
			return false
		case "::":
			return !r.labelClose
		case "(", "[":
			return !r.call
		}
	}
	return true
}

// needsSpace reports whether writing cur directly after prev would merge
// them into different tokens.
func needsSpace(prev, cur string) bool {
	if prev == "" || cur == "" {
		return false
	}
	a, b := prev[len(prev)-1], cur[0]
	switch {
	case isWord(a) && isWord(b):
		return true
	case a == '-' && b == '-':
		return true
	case a == '[' && (b == '[' || b == '='):
		return true
	case a == '.' && (b == '.' || isDigit(b)):
		return true
	case isDigit(a) && b == '.':
		return true
	case b == '=' && strings.IndexByte("=~<>", a) >= 0:
		return true
	case a == b && strings.IndexByte("<>/:", a) >= 0:
		return true
	}
	return false
}

func isWord(c byte) bool {
	return c == '_' || isDigit(c) || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
