// Package parse locates dependency statements in Lua source. It recognises
// only comments, string literals and the require keyword; no syntax tree is
// built.
package parse

import (
	"strings"

	"github.com/phobologic/luabundle/internal/model"
)

// Scan returns the dependency statements found in src, in source order.
// Comments are skipped, including comments inside a statement, so scanning
// raw text yields the same statements as scanning Strip(src). Args and
// Suffix are returned without comments. Start and End are offsets into src.
func Scan(src string) []model.CallSite {
	var sites []model.CallSite
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case isQuote(c):
			end := quotedEnd(src, i)
			if site, ok := scanEmbedded(src, i, end); ok {
				sites = append(sites, site)
			}
			i = end

		case isIdent(c):
			j := i
			for j < len(src) && isIdent(src[j]) {
				j++
			}
			if src[i:j] == syntax.RequireKeyword && !isMember(src, i) {
				if site, ok := scanStatement(src, i, j); ok {
					sites = append(sites, site)
					i = site.End
					continue
				}
			}
			i = j

		default:
			if next := skipAtom(src, i); next != i {
				i = next
				continue
			}
			i++
		}
	}
	return sites
}

// isMember reports whether the identifier at i is a field or method name
// (obj.require, obj:require) rather than the global.
func isMember(src string, i int) bool {
	k := i - 1
	for k >= 0 && isSpace(src[k]) {
		k--
	}
	if k < 0 {
		return false
	}
	switch src[k] {
	case '.':
		return k == 0 || src[k-1] != '.'
	case ':':
		return k == 0 || src[k-1] != ':'
	}
	return false
}

// scanStatement parses a dependency statement whose keyword occupies
// src[start:kwEnd].
func scanStatement(src string, start, kwEnd int) (model.CallSite, bool) {
	site := model.CallSite{Start: start}

	p := skipTrivia(src, kwEnd)
	if p >= len(src) {
		return site, false
	}

	var end int
	switch {
	case src[p] == '(':
		path, after, ok := quotedPath(src, skipTrivia(src, p+1))
		if !ok {
			return site, false
		}
		site.Path = path

		r := skipTrivia(src, after)
		if r < len(src) && src[r] == ',' {
			closeAt := scanTo(src, r+1, ')')
			if closeAt < 0 {
				return site, false
			}
			site.Args = strings.TrimSpace(Strip(src[r+1 : closeAt]))
			r = closeAt
		}
		if r >= len(src) || src[r] != ')' {
			return site, false
		}

		end = r + 1
		if sufEnd := suffixEnd(src, end); sufEnd > end {
			site.Suffix = strings.TrimSpace(Strip(src[end:sufEnd]))
			end = sufEnd
		} else {
			end = semicolon(src, end)
		}

	case isQuote(src[p]):
		path, after, ok := quotedPath(src, p)
		if !ok {
			return site, false
		}
		site.Path = path
		end = semicolon(src, after)

	default:
		return site, false
	}

	site.End = end
	site.Matched = src[start:end]
	return site, true
}

// quotedPath reads the quoted module path at src[i] and returns it trimmed,
// together with the index past the closing quote.
func quotedPath(src string, i int) (string, int, bool) {
	if i >= len(src) || !isQuote(src[i]) {
		return "", i, false
	}
	end := quotedEnd(src, i)
	if end-i < 2 || src[end-1] != src[i] {
		return "", i, false
	}
	path := strings.TrimSpace(src[i+1 : end-1])
	if path == "" {
		return "", i, false
	}
	return path, end, true
}

// semicolon consumes an optional statement terminator on the same line.
func semicolon(src string, i int) int {
	j := skipHSpace(src, i)
	if j < len(src) && src[j] == ';' {
		return j + 1
	}
	return i
}

// suffixEnd returns the end of the postfix chain (.name, :name, (...), [...])
// that follows a call on the same line, or i when there is none.
func suffixEnd(src string, i int) int {
	end := i
	for {
		j := skipHSpace(src, end)
		if j >= len(src) {
			return end
		}
		switch c := src[j]; c {
		case '.', ':':
			k := j + 1
			if k >= len(src) || !isIdentStart(src[k]) {
				return end
			}
			for k < len(src) && isIdent(src[k]) {
				k++
			}
			end = k
		case '(', '[':
			if _, ok := longBracket(src, j); ok {
				return end
			}
			k := matchClose(src, j)
			if k < 0 {
				return end
			}
			end = k
		default:
			return end
		}
	}
}

// scanEmbedded reports a dependency statement that makes up the entire
// content of the quoted string src[start:end].
func scanEmbedded(src string, start, end int) (model.CallSite, bool) {
	if end-start < 2 || src[end-1] != src[start] {
		return model.CallSite{}, false
	}
	inner := strings.TrimSpace(unescapeQuotes(src[start+1 : end-1]))

	kw := syntax.RequireKeyword
	if !strings.HasPrefix(inner, kw) || (len(inner) > len(kw) && isIdent(inner[len(kw)])) {
		return model.CallSite{}, false
	}
	site, ok := scanStatement(inner, 0, len(kw))
	if !ok || site.End != len(inner) {
		return model.CallSite{}, false
	}

	site.Matched = src[start:end]
	site.Start = start
	site.End = end
	site.Embedded = true
	return site, true
}

// unescapeQuotes drops the backslash in front of escaped quote characters.
func unescapeQuotes(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && isQuote(s[i+1]) {
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
