package parse

import (
	"testing"

	"github.com/phobologic/luabundle/internal/model"
)

func scanOne(t *testing.T, src string) model.CallSite {
	t.Helper()
	sites := Scan(src)
	if len(sites) != 1 {
		t.Fatalf("Scan(%q): expected 1 site, got %d: %+v", src, len(sites), sites)
	}
	return sites[0]
}

func TestScanCallStyle(t *testing.T) {
	t.Parallel()

	src := `local b = require("b.lua")` + "\nprint(b)\n"
	s := scanOne(t, src)
	if s.Matched != `require("b.lua")` {
		t.Errorf("matched = %q", s.Matched)
	}
	if s.Path != "b.lua" {
		t.Errorf("path = %q", s.Path)
	}
	if s.Args != "" || s.Suffix != "" || s.Embedded {
		t.Errorf("unexpected optional fields: %+v", s)
	}
	if src[s.Start:s.End] != s.Matched {
		t.Errorf("range %d:%d = %q", s.Start, s.End, src[s.Start:s.End])
	}
}

func TestScanTrimsPathAndConsumesSemicolon(t *testing.T) {
	t.Parallel()

	s := scanOne(t, `local b = require ( ' lib/b.lua ' ) ;`)
	if s.Path != "lib/b.lua" {
		t.Errorf("path = %q", s.Path)
	}
	if s.Matched != `require ( ' lib/b.lua ' ) ;` {
		t.Errorf("matched = %q", s.Matched)
	}
}

func TestScanArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		src  string
		want string
	}{
		{`require("b.lua", x, y)`, "x, y"},
		{`require("b.lua",  f(a, b) , { 1, 2 })`, "f(a, b) , { 1, 2 }"},
		{`require("b.lua", ")")`, `")"`},
	}
	for _, tt := range tests {
		s := scanOne(t, tt.src)
		if s.Args != tt.want {
			t.Errorf("Scan(%q).Args = %q, want %q", tt.src, s.Args, tt.want)
		}
		if s.Matched != tt.src {
			t.Errorf("Scan(%q).Matched = %q", tt.src, s.Matched)
		}
	}
}

func TestScanSuffix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		src     string
		suffix  string
		matched string
	}{
		{`local v = require("m.lua").version`, ".version", `require("m.lua").version`},
		{`require("m.lua")(1, 2)`, "(1, 2)", `require("m.lua")(1, 2)`},
		{`require("m.lua"):start("x")[1];`, `:start("x")[1]`, `require("m.lua"):start("x")[1]`},
		{`local s = require("m.lua") .. "x"`, "", `require("m.lua")`},
	}
	for _, tt := range tests {
		s := scanOne(t, tt.src)
		if s.Suffix != tt.suffix {
			t.Errorf("Scan(%q).Suffix = %q, want %q", tt.src, s.Suffix, tt.suffix)
		}
		if s.Matched != tt.matched {
			t.Errorf("Scan(%q).Matched = %q, want %q", tt.src, s.Matched, tt.matched)
		}
	}
}

func TestScanBareString(t *testing.T) {
	t.Parallel()

	s := scanOne(t, `local m = require"m.lua";`)
	if s.Path != "m.lua" {
		t.Errorf("path = %q", s.Path)
	}
	if s.Matched != `require"m.lua";` {
		t.Errorf("matched = %q", s.Matched)
	}
}

func TestScanEmbedded(t *testing.T) {
	t.Parallel()

	src := `local code = 'require("m.lua", ...)'`
	s := scanOne(t, src)
	if !s.Embedded {
		t.Fatal("expected embedded site")
	}
	if s.Matched != `'require("m.lua", ...)'` {
		t.Errorf("matched = %q", s.Matched)
	}
	if s.Path != "m.lua" || s.Args != "..." {
		t.Errorf("path = %q args = %q", s.Path, s.Args)
	}

	s = scanOne(t, `load("require(\"m.lua\")")`)
	if !s.Embedded || s.Path != "m.lua" {
		t.Errorf("escaped embedded: %+v", s)
	}
}

func TestScanIgnoresStringsAndComments(t *testing.T) {
	t.Parallel()

	src := `
-- local a = require("commented.lua")
--[[ require("block.lua") ]]
local s = "see require('inside.lua') for details"
local l = [[ require("long.lua") ]]
local r = require("real.lua")
`
	s := scanOne(t, src)
	if s.Path != "real.lua" {
		t.Errorf("path = %q", s.Path)
	}
}

func TestScanIgnoresMembersAndLongerNames(t *testing.T) {
	t.Parallel()

	src := `obj.require("a.lua") obj:require("b.lua") myrequire("c.lua") require_all("d.lua")`
	if sites := Scan(src); len(sites) != 0 {
		t.Errorf("expected no sites, got %+v", sites)
	}

	s := scanOne(t, `local x = "p" .. require("a.lua")`)
	if s.Path != "a.lua" {
		t.Errorf("path = %q", s.Path)
	}
}

func TestScanMultiline(t *testing.T) {
	t.Parallel()

	src := "local m = require(\n  \"m.lua\",\n  config\n)\n"
	s := scanOne(t, src)
	if !s.Multiline() {
		t.Error("expected multi-line match")
	}
	if s.Args != "config" {
		t.Errorf("args = %q", s.Args)
	}
}

func TestScanOrder(t *testing.T) {
	t.Parallel()

	src := `local a = require("a.lua")
local b = require"b.lua"
local c = 'require("c.lua")'
`
	sites := Scan(src)
	if len(sites) != 3 {
		t.Fatalf("expected 3 sites, got %d", len(sites))
	}
	for i, want := range []string{"a.lua", "b.lua", "c.lua"} {
		if sites[i].Path != want {
			t.Errorf("site %d path = %q, want %q", i, sites[i].Path, want)
		}
	}
}

func TestScanNone(t *testing.T) {
	t.Parallel()

	for _, src := range []string{"", "print('hi')", "require", "require()", `require("")`, "require(x)"} {
		if sites := Scan(src); len(sites) != 0 {
			t.Errorf("Scan(%q) = %+v, want none", src, sites)
		}
	}
}

func TestScanRawMatchesStripped(t *testing.T) {
	t.Parallel()

	raw := "-- header\nlocal a = require(\"a.lua\") -- a\n--[[ require(\"x.lua\") ]]\nlocal b = require\"b.lua\"\n"
	rawSites := Scan(raw)
	strippedSites := Scan(Strip(raw))
	if len(rawSites) != len(strippedSites) {
		t.Fatalf("raw %d sites, stripped %d", len(rawSites), len(strippedSites))
	}
	for i := range rawSites {
		if rawSites[i].Matched != strippedSites[i].Matched {
			t.Errorf("site %d: %q vs %q", i, rawSites[i].Matched, strippedSites[i].Matched)
		}
	}
}

func TestScanCommentsInsideStatement(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		args string
	}{
		{"block comment before path", `local a = require--[[x]]"a.lua"`, ""},
		{"line comment before paren", "local a = require -- why\n(\"a.lua\")", ""},
		{"comment inside parens", `local a = require( --[[p]] "a.lua" --[[q]] )`, ""},
		{"comment in args", "local a = require(\"a.lua\", x --[[first]], y -- last\n)", "x , y"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			raw := scanOne(t, tt.src)
			stripped := scanOne(t, Strip(tt.src))
			if raw.Path != "a.lua" || stripped.Path != "a.lua" {
				t.Errorf("paths = %q, %q", raw.Path, stripped.Path)
			}
			if raw.Args != tt.args || stripped.Args != tt.args {
				t.Errorf("args = %q, %q, want %q", raw.Args, stripped.Args, tt.args)
			}
			if tt.src[raw.Start:raw.End] != raw.Matched {
				t.Errorf("range %d:%d = %q", raw.Start, raw.End, tt.src[raw.Start:raw.End])
			}
		})
	}
}
