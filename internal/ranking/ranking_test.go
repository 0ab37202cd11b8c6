package ranking

import (
	"testing"

	"github.com/phobologic/luabundle/internal/model"
)

func makeReport() *model.Report {
	return &model.Report{
		Entry: "main.lua",
		Modules: []model.ModuleInfo{
			{Path: "lib/util.lua", Rank: 0.5},
			{Path: "main.lua", Rank: 0.3},
			{Path: "lib/json.lua", Rank: 0.2},
		},
		Dependencies: []model.Dependency{
			{Source: "main.lua", Target: "lib/util.lua", Count: 1},
			{Source: "main.lua", Target: "lib/json.lua", Count: 2},
			{Source: "lib/json.lua", Target: "lib/util.lua", Count: 1},
		},
		Sites: []model.CallSite{
			{File: "main.lua", Path: "lib/util.lua"},
			{File: "main.lua", Path: "lib/json.lua"},
			{File: "lib/json.lua", Path: "util.lua"},
		},
	}
}

func TestSelectModulesAll(t *testing.T) {
	t.Parallel()

	r := makeReport()
	for _, n := range []int{0, -1, 3, 10} {
		if got := SelectModules(r, n); got != r {
			t.Errorf("max=%d should return the original report", n)
		}
	}
}

func TestSelectModulesTop(t *testing.T) {
	t.Parallel()

	got := SelectModules(makeReport(), 2)
	if len(got.Modules) != 2 {
		t.Fatalf("expected 2 modules, got %d", len(got.Modules))
	}
	if got.Modules[0].Path != "lib/util.lua" || got.Modules[1].Path != "main.lua" {
		t.Errorf("modules = %+v", got.Modules)
	}
	if len(got.Dependencies) != 1 || got.Dependencies[0].Target != "lib/util.lua" {
		t.Errorf("deps = %+v", got.Dependencies)
	}
	if len(got.Sites) != 2 {
		t.Errorf("sites = %+v", got.Sites)
	}
	if got.Entry != "main.lua" {
		t.Errorf("Entry = %q", got.Entry)
	}
}

func TestFilterByPath(t *testing.T) {
	t.Parallel()

	got := FilterByPath(makeReport(), "JSON")
	if len(got.Modules) != 1 || got.Modules[0].Path != "lib/json.lua" {
		t.Fatalf("modules = %+v", got.Modules)
	}
	if len(got.Dependencies) != 2 {
		t.Errorf("expected both edges touching json, got %+v", got.Dependencies)
	}
	if len(got.Sites) != 1 || got.Sites[0].Path != "util.lua" {
		t.Errorf("sites = %+v", got.Sites)
	}
}

func TestFilterByPathNoMatch(t *testing.T) {
	t.Parallel()

	got := FilterByPath(makeReport(), "nothing")
	if len(got.Modules) != 0 || len(got.Dependencies) != 0 || len(got.Sites) != 0 {
		t.Errorf("expected empty report, got %+v", got)
	}
}
