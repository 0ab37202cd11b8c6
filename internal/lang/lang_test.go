package lang

import (
	"testing"
)

func TestForExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ext  string
		want string
	}{
		{".lua", "lua"},
		{".py", ""},
		{".luac", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			t.Parallel()
			got := ForExtension(tt.ext)
			if got != tt.want {
				t.Errorf("ForExtension(%q) = %q, want %q", tt.ext, got, tt.want)
			}
		})
	}
}

func TestLanguagesRegistered(t *testing.T) {
	t.Parallel()

	l, ok := Languages["lua"]
	if !ok {
		t.Fatal("lua language not registered")
	}
	if l.lang == nil {
		t.Error("lua language is nil")
	}
	if l.RequireKeyword != "require" {
		t.Errorf("RequireKeyword = %q", l.RequireKeyword)
	}
}

func TestNewParser(t *testing.T) {
	t.Parallel()

	p := Lua.NewParser()
	if p == nil {
		t.Fatal("NewParser returned nil")
	}
}

func TestHasExtension(t *testing.T) {
	t.Parallel()

	if !Lua.HasExtension("lib/util.lua") {
		t.Error("util.lua should match")
	}
	if Lua.HasExtension("notes.txt") {
		t.Error("notes.txt should not match")
	}
}

func TestCollapseWhitespace(t *testing.T) {
	t.Parallel()

	got := CollapseWhitespace("  a \n\t b  ")
	if got != "a b" {
		t.Errorf("CollapseWhitespace = %q", got)
	}
}
