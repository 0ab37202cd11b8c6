package parse

import "strings"

// Kind classifies a Token.
type Kind int

const (
	Name Kind = iota
	Keyword
	Number
	String
	Symbol
	// Shebang is a leading "#!" line.
	Shebang
)

// Token is one lexical token of Lua source.
type Token struct {
	Kind  Kind
	Text  string
	Start int
}

var keywords = map[string]bool{
	"and": true, "break": true, "do": true, "else": true, "elseif": true,
	"end": true, "false": true, "for": true, "function": true, "if": true,
	"in": true, "local": true, "nil": true, "not": true, "or": true,
	"repeat": true, "return": true, "then": true, "true": true,
	"until": true, "while": true,
}

// goto is left out of keywords: it is an ordinary name in Lua 5.1.

var symbols = []string{"...", "..", "==", "~=", "<=", ">=", "<<", ">>", "//", "::"}

// IsKeyword reports whether s is a reserved word.
func IsKeyword(s string) bool {
	return keywords[s]
}

// Tokenize splits src into tokens, dropping whitespace and comments. It
// never fails: unterminated strings run to the end of src and unknown bytes
// become single-byte symbols.
func Tokenize(src string) []Token {
	var toks []Token
	i := 0
	if strings.HasPrefix(src, "#") {
		end := strings.IndexByte(src, '\n')
		if end < 0 {
			end = len(src)
		}
		toks = append(toks, Token{Kind: Shebang, Text: strings.TrimRight(src[:end], "\r"), Start: 0})
		i = end
	}

	for i < len(src) {
		c := src[i]
		start := i
		kind := Symbol

		switch {
		case isSpace(c):
			i++
			continue
		case c == '-' && isComment(src, i):
			i, _ = commentEnd(src, i)
			continue
		case isQuote(c):
			i = quotedEnd(src, i)
			kind = String
		case c == '[':
			if level, ok := longBracket(src, i); ok {
				i = longStringEnd(src, i, level)
				kind = String
			} else {
				i++
			}
		case isIdentStart(c):
			for i < len(src) && isIdent(src[i]) {
				i++
			}
			kind = Name
			if keywords[src[start:i]] {
				kind = Keyword
			}
		case isDigit(c) || (c == '.' && i+1 < len(src) && isDigit(src[i+1])):
			i = numberEnd(src, i)
			kind = Number
		default:
			i += symbolLen(src, i)
		}

		toks = append(toks, Token{Kind: kind, Text: src[start:i], Start: start})
	}
	return toks
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func numberEnd(src string, i int) int {
	hex := strings.HasPrefix(src[i:], "0x") || strings.HasPrefix(src[i:], "0X")
	j := i
	if hex {
		j += 2
	}
	for j < len(src) {
		c := src[j]
		if (!hex && (c == 'e' || c == 'E')) || (hex && (c == 'p' || c == 'P')) {
			j++
			if j < len(src) && (src[j] == '+' || src[j] == '-') {
				j++
			}
			continue
		}
		if isIdent(c) || c == '.' {
			j++
			continue
		}
		break
	}
	return j
}

func symbolLen(src string, i int) int {
	for _, s := range symbols {
		if strings.HasPrefix(src[i:], s) {
			return len(s)
		}
	}
	return 1
}
