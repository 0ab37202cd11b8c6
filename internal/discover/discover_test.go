package discover

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFilesLua(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, "main.lua", "print('hello')")
	writeFile(t, dir, "lib/util.lua", "return {}")
	// Non-Lua file should be ignored
	writeFile(t, dir, "readme.txt", "hello")
	// Hidden file should be ignored
	writeFile(t, dir, ".luacheckrc.lua", "std = 'max'")

	files, err := Files(dir)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}

	want := []string{"lib/util.lua", "main.lua"}
	if strings.Join(files, ",") != strings.Join(want, ",") {
		t.Errorf("got %v, want %v", files, want)
	}
}

func TestFilesSkipDirs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, "main.lua", "")
	writeFile(t, dir, "lua_modules/pkg.lua", "")
	writeFile(t, dir, ".luarocks/cached.lua", "")
	writeFile(t, dir, ".hidden/secret.lua", "")

	files, err := Files(dir)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(files) != 1 || files[0] != "main.lua" {
		t.Errorf("got %v, want [main.lua]", files)
	}
}

func TestFilesGitignore(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, ".gitignore", "bundled.lua\ngen/\n")
	writeFile(t, dir, "main.lua", "")
	writeFile(t, dir, "bundled.lua", "")
	writeFile(t, dir, "gen/out.lua", "")

	files, err := Files(dir)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(files) != 1 || files[0] != "main.lua" {
		t.Errorf("got %v, want [main.lua]", files)
	}
}

func TestFilesSymlinksSkipped(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "real.lua", "")

	err := os.Symlink(filepath.Join(dir, "real.lua"), filepath.Join(dir, "link.lua"))
	if err != nil {
		t.Skip("symlinks not supported")
	}

	files, err := Files(dir)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(files) != 1 || files[0] != "real.lua" {
		t.Errorf("got %v, want [real.lua]", files)
	}
}

func TestDirs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, ".gitignore", "gen/\n")
	writeFile(t, dir, "lib/a/x.lua", "")
	writeFile(t, dir, "gen/out.lua", "")
	writeFile(t, dir, "node_modules/x.lua", "")

	dirs, err := Dirs(dir)
	if err != nil {
		t.Fatalf("Dirs: %v", err)
	}

	var rels []string
	for _, d := range dirs {
		rel, _ := filepath.Rel(dir, d)
		rels = append(rels, filepath.ToSlash(rel))
	}
	want := []string{".", "lib", "lib/a"}
	if strings.Join(rels, ",") != strings.Join(want, ",") {
		t.Errorf("got %v, want %v", rels, want)
	}
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
