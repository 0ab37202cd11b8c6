// Package ranking narrows a dependency report to the modules of interest.
package ranking

import (
	"strings"

	"github.com/phobologic/luabundle/internal/model"
)

// SelectModules returns a new Report with only the top maxModules modules,
// which are expected to be sorted by rank. If maxModules is <= 0 or >=
// len(r.Modules), r is returned unchanged.
func SelectModules(r *model.Report, maxModules int) *model.Report {
	if maxModules <= 0 || maxModules >= len(r.Modules) {
		return r
	}

	selected := r.Modules[:maxModules]
	keep := make(map[string]struct{}, maxModules)
	for i := range selected {
		keep[selected[i].Path] = struct{}{}
	}

	var deps []model.Dependency
	for _, d := range r.Dependencies {
		_, srcOK := keep[d.Source]
		_, tgtOK := keep[d.Target]
		if srcOK && tgtOK {
			deps = append(deps, d)
		}
	}

	var sites []model.CallSite
	for _, s := range r.Sites {
		if _, ok := keep[s.File]; ok {
			sites = append(sites, s)
		}
	}

	return &model.Report{
		Entry:        r.Entry,
		Modules:      selected,
		Dependencies: deps,
		Sites:        sites,
	}
}

// FilterByPath returns a new Report containing only modules whose path
// contains substr (case-insensitive), every dependency touching them and
// the call sites found in them.
func FilterByPath(r *model.Report, substr string) *model.Report {
	lower := strings.ToLower(substr)

	matched := make(map[string]struct{})
	var modules []model.ModuleInfo
	for _, m := range r.Modules {
		if strings.Contains(strings.ToLower(m.Path), lower) {
			matched[m.Path] = struct{}{}
			modules = append(modules, m)
		}
	}

	var deps []model.Dependency
	for _, d := range r.Dependencies {
		_, srcOK := matched[d.Source]
		_, tgtOK := matched[d.Target]
		if srcOK || tgtOK {
			deps = append(deps, d)
		}
	}

	var sites []model.CallSite
	for _, s := range r.Sites {
		if _, ok := matched[s.File]; ok {
			sites = append(sites, s)
		}
	}

	return &model.Report{
		Entry:        r.Entry,
		Modules:      modules,
		Dependencies: deps,
		Sites:        sites,
	}
}
