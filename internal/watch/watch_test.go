package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu    sync.Mutex
	calls [][]string
	ch    chan struct{}
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan struct{}, 16)}
}

func (r *recorder) onChange(_ context.Context, changed []string) error {
	r.mu.Lock()
	r.calls = append(r.calls, changed)
	r.mu.Unlock()
	r.ch <- struct{}{}
	return nil
}

func (r *recorder) wait(t *testing.T) []string {
	t.Helper()
	select {
	case <-r.ch:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for callback")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[len(r.calls)-1]
}

func start(t *testing.T, cfg Config) {
	t.Helper()
	w, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := <-errCh; err != nil {
			t.Errorf("Run: %v", err)
		}
	})
}

func write(t *testing.T, dir, rel string) {
	t.Helper()
	path := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("return 1"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestWatcherDebounce(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	write(t, dir, "lib/keep.lua")

	rec := newRecorder()
	start(t, Config{Root: dir, Debounce: 200 * time.Millisecond, OnChange: rec.onChange})

	for _, name := range []string{"a.lua", "b.lua", "lib/c.lua", "notes.txt"} {
		write(t, dir, name)
		time.Sleep(10 * time.Millisecond)
	}

	got := rec.wait(t)
	want := "a.lua,b.lua,lib/c.lua"
	if strings.Join(got, ",") != want {
		t.Errorf("changed = %v, want %s", got, want)
	}
}

func TestWatcherIgnore(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	rec := newRecorder()
	start(t, Config{
		Root:     dir,
		Ignore:   []string{"out/bundled.lua"},
		Debounce: 100 * time.Millisecond,
		OnChange: rec.onChange,
	})

	write(t, dir, "out/bundled.lua")
	time.Sleep(300 * time.Millisecond)
	write(t, dir, "main.lua")

	got := rec.wait(t)
	if strings.Join(got, ",") != "main.lua" {
		t.Errorf("changed = %v, want [main.lua]", got)
	}
}

func TestWatcherPatterns(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	rec := newRecorder()
	start(t, Config{
		Root:     dir,
		Patterns: []string{"src/**/*.lua", "*.toml"},
		Debounce: 100 * time.Millisecond,
		OnChange: rec.onChange,
	})

	write(t, dir, "other.lua")
	write(t, dir, "luabundle.toml")

	got := rec.wait(t)
	if strings.Join(got, ",") != "luabundle.toml" {
		t.Errorf("changed = %v, want [luabundle.toml]", got)
	}
}

func TestWatcherRunTwice(t *testing.T) {
	t.Parallel()

	w, err := New(Config{Root: t.TempDir()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := w.Run(ctx); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if err := w.Run(ctx); err == nil {
		t.Error("second Run should fail")
	}
}

func TestNewInvalidPattern(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{Root: t.TempDir(), Patterns: []string{"[unclosed"}}); err == nil {
		t.Error("expected error for invalid pattern")
	}
	if _, err := New(Config{Root: t.TempDir(), Ignore: []string{"{a,b"}}); err == nil {
		t.Error("expected error for invalid ignore pattern")
	}
}

func TestRelevant(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	w, err := New(Config{Root: dir, Ignore: []string{"build.lua"}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = w.fsw.Close() })

	tests := []struct {
		rel  string
		want bool
	}{
		{"main.lua", true},
		{"lib/util.lua", true},
		{"README.md", false},
		{"build.lua", false},
		{".git/objects/x.lua", false},
		{"main.lua.swp", false},
	}
	for _, tt := range tests {
		if _, got := w.relevant(filepath.Join(w.root, tt.rel)); got != tt.want {
			t.Errorf("relevant(%q) = %v, want %v", tt.rel, got, tt.want)
		}
	}
}
