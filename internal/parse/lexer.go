package parse

import (
	"strings"

	"github.com/phobologic/luabundle/internal/lang"
)

var syntax = lang.Lua

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

func isHSpace(c byte) bool {
	return c == ' ' || c == '\t'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdent(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func isQuote(c byte) bool {
	return strings.IndexByte(syntax.Quotes, c) >= 0
}

func skipSpace(src string, i int) int {
	for i < len(src) && isSpace(src[i]) {
		i++
	}
	return i
}

// skipTrivia skips whitespace and comments.
func skipTrivia(src string, i int) int {
	for {
		i = skipSpace(src, i)
		if i >= len(src) || src[i] != '-' || !isComment(src, i) {
			return i
		}
		i, _ = commentEnd(src, i)
	}
}

func skipHSpace(src string, i int) int {
	for i < len(src) && isHSpace(src[i]) {
		i++
	}
	return i
}

// longBracket reports whether src[i:] opens a long bracket ("[[", "[=[",
// "[==[", ...) and returns its level.
func longBracket(src string, i int) (int, bool) {
	if i >= len(src) || src[i] != '[' {
		return 0, false
	}
	j := i + 1
	for j < len(src) && src[j] == '=' {
		j++
	}
	if j < len(src) && src[j] == '[' {
		return j - i - 1, true
	}
	return 0, false
}

// longBracketEnd returns the index just past the closing bracket of the given
// level, searching from i. An unterminated bracket runs to the end of src.
func longBracketEnd(src string, i, level int) int {
	closer := "]" + strings.Repeat("=", level) + "]"
	k := strings.Index(src[i:], closer)
	if k < 0 {
		return len(src)
	}
	return i + k + len(closer)
}

// longStringEnd returns the index past the long string opened at i.
func longStringEnd(src string, i, level int) int {
	return longBracketEnd(src, i+level+2, level)
}

// quotedEnd returns the index past the quoted string opened at src[i]. An
// unterminated string runs to the end of src.
func quotedEnd(src string, i int) int {
	q := src[i]
	for j := i + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case q:
			return j + 1
		}
	}
	return len(src)
}

func isComment(src string, i int) bool {
	return strings.HasPrefix(src[i:], syntax.LineComment)
}

// commentEnd returns the end of the comment starting at src[i]. Line comments
// stop before the newline; block comments include their closing bracket.
func commentEnd(src string, i int) (end int, block bool) {
	j := i + len(syntax.LineComment)
	if level, ok := longBracket(src, j); ok {
		return longStringEnd(src, j, level), true
	}
	k := strings.IndexByte(src[j:], '\n')
	if k < 0 {
		return len(src), false
	}
	return j + k, false
}

// skipAtom returns the index past a string literal or comment starting at
// src[i], or i when there is none.
func skipAtom(src string, i int) int {
	c := src[i]
	switch {
	case c == '-' && isComment(src, i):
		end, _ := commentEnd(src, i)
		return end
	case isQuote(c):
		return quotedEnd(src, i)
	case c == '[':
		if level, ok := longBracket(src, i); ok {
			return longStringEnd(src, i, level)
		}
	}
	return i
}

var closers = map[byte]byte{'(': ')', '[': ']', '{': '}'}

// scanTo returns the index of the first closing byte at nesting depth zero,
// starting at i. Brackets, strings and comments are skipped as units.
// It returns -1 when the closer is never reached or a bracket is mismatched.
func scanTo(src string, i int, closer byte) int {
	var stack []byte
	for i < len(src) {
		if next := skipAtom(src, i); next != i {
			i = next
			continue
		}
		c := src[i]
		if len(stack) == 0 && c == closer {
			return i
		}
		switch c {
		case '(', '[', '{':
			stack = append(stack, closers[c])
		case ')', ']', '}':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return -1
			}
			stack = stack[:len(stack)-1]
		}
		i++
	}
	return -1
}

// matchClose returns the index past the bracket that closes src[open], or -1.
func matchClose(src string, open int) int {
	end := scanTo(src, open+1, closers[src[open]])
	if end < 0 {
		return -1
	}
	return end + 1
}
