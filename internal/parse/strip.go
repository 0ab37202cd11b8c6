package parse

import "strings"

// Strip returns src with every comment removed. String literals, including
// long strings, are copied verbatim, so comment markers inside them survive.
// An unterminated block comment swallows the rest of the buffer.
//
// When a block comment sits between two non-space characters it is replaced
// by a single space so the surrounding tokens stay separate.
func Strip(src string) string {
	var b strings.Builder
	b.Grow(len(src))

	var last byte
	for i := 0; i < len(src); {
		c := src[i]
		if c == '-' && isComment(src, i) {
			end, block := commentEnd(src, i)
			if block && last != 0 && !isSpace(last) && end < len(src) && !isSpace(src[end]) {
				b.WriteByte(' ')
				last = ' '
			}
			i = end
			continue
		}

		end := skipAtom(src, i)
		if end == i {
			end = i + 1
		}
		b.WriteString(src[i:end])
		last = src[end-1]
		i = end
	}
	return b.String()
}
