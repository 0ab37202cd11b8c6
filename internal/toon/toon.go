// Package toon implements TOON (Token-Oriented Object Notation) encoding.
package toon

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/phobologic/luabundle/internal/model"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Encode converts a dependency Report into TOON format.
func Encode(r *model.Report) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("entry: %s", encodeValue(r.Entry)))

	var moduleRows [][]string
	for _, m := range r.Modules {
		moduleRows = append(moduleRows, []string{
			m.Path,
			fmt.Sprintf("%.4f", m.Rank),
			strconv.Itoa(m.Requirers),
			strconv.Itoa(m.Sites),
			location(m.Local),
		})
	}
	parts = append(parts, formatTabular("modules", []string{"path", "rank", "requirers", "sites", "location"}, moduleRows))

	var depRows [][]string
	for _, d := range r.Dependencies {
		depRows = append(depRows, []string{d.Source, d.Target, strconv.Itoa(d.Count)})
	}
	parts = append(parts, formatTabular("dependencies", []string{"source", "target", "count"}, depRows))

	if len(r.Sites) > 0 {
		var siteRows [][]string
		for _, s := range r.Sites {
			form := "statement"
			if s.Embedded {
				form = "embedded"
			}
			siteRows = append(siteRows, []string{s.File, s.Path, s.Args, s.Suffix, form})
		}
		parts = append(parts, formatTabular("sites", []string{"file", "path", "args", "suffix", "form"}, siteRows))
	}

	if len(r.Unused) > 0 {
		var unusedRows [][]string
		for _, path := range r.Unused {
			unusedRows = append(unusedRows, []string{path})
		}
		parts = append(parts, formatTabular("unused", []string{"path"}, unusedRows))
	}

	return strings.Join(parts, "\n")
}

func location(local bool) string {
	if local {
		return "local"
	}
	return "runtime"
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
