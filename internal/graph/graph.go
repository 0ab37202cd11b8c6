// Package graph builds the module graph of a bundle and ranks modules by
// how much of the bundle depends on them.
package graph

import (
	"math"
	"path/filepath"
	"sort"

	"github.com/phobologic/luabundle/internal/model"
)

// Build creates a dependency report from the call sites returned by the
// resolver. Module paths are made relative to the entry file's directory.
// isLocal reports whether a module file exists; nil treats every module as
// local.
func Build(entry string, sites []model.CallSite, isLocal func(path string) bool) *model.Report {
	base := filepath.Dir(entry)
	rel := func(p string) string {
		r, err := filepath.Rel(base, p)
		if err != nil {
			return filepath.ToSlash(p)
		}
		return filepath.ToSlash(r)
	}

	entryRel := rel(entry)
	modules := map[string]*model.ModuleInfo{
		entryRel: {Path: entryRel, Local: true},
	}
	requirers := make(map[string]map[string]struct{})

	type edgeKey struct{ src, tgt string }
	counts := make(map[edgeKey]int)

	r := &model.Report{Entry: entryRel}

	for _, site := range sites {
		file := site.File
		if file == "" {
			file = entry
		}
		src := rel(file)
		tgtPath := filepath.Join(filepath.Dir(file), site.Path)
		tgt := rel(tgtPath)

		m := modules[tgt]
		if m == nil {
			m = &model.ModuleInfo{Path: tgt, Local: isLocal == nil || isLocal(tgtPath)}
			modules[tgt] = m
		}
		m.Sites++

		if src != tgt {
			counts[edgeKey{src, tgt}]++
			if requirers[tgt] == nil {
				requirers[tgt] = make(map[string]struct{})
			}
			requirers[tgt][src] = struct{}{}
		}

		site.File = src
		r.Sites = append(r.Sites, site)
	}

	for path, m := range modules {
		m.Requirers = len(requirers[path])
		r.Modules = append(r.Modules, *m)
	}
	sort.Slice(r.Modules, func(i, j int) bool {
		return r.Modules[i].Path < r.Modules[j].Path
	})

	for key, n := range counts {
		r.Dependencies = append(r.Dependencies, model.Dependency{Source: key.src, Target: key.tgt, Count: n})
	}
	sort.Slice(r.Dependencies, func(i, j int) bool {
		if r.Dependencies[i].Source != r.Dependencies[j].Source {
			return r.Dependencies[i].Source < r.Dependencies[j].Source
		}
		return r.Dependencies[i].Target < r.Dependencies[j].Target
	})

	return r
}

// Rank applies PageRank to the report's modules and sorts them by rank
// descending. Each call site counts as one edge from the requiring module
// to the required one.
func Rank(r *model.Report) {
	if len(r.Modules) == 0 {
		return
	}

	if len(r.Dependencies) == 0 {
		uniform := 1.0 / float64(len(r.Modules))
		for i := range r.Modules {
			r.Modules[i].Rank = uniform
		}
		return
	}

	nodes := make([]string, len(r.Modules))
	for i := range r.Modules {
		nodes[i] = r.Modules[i].Path
	}
	out := make(map[string]map[string]int)
	for _, d := range r.Dependencies {
		if out[d.Source] == nil {
			out[d.Source] = make(map[string]int)
		}
		out[d.Source][d.Target] += d.Count
	}

	ranks := pageRank(nodes, out, 0.85, 100, 1e-6)
	for i := range r.Modules {
		r.Modules[i].Rank = ranks[r.Modules[i].Path]
	}

	sort.SliceStable(r.Modules, func(i, j int) bool {
		return r.Modules[i].Rank > r.Modules[j].Rank
	})
}

// pageRank runs power iteration over a weighted graph. Rank held by nodes
// without outgoing edges is spread evenly over all nodes.
func pageRank(nodes []string, out map[string]map[string]int, alpha float64, maxIter int, tol float64) map[string]float64 {
	n := float64(len(nodes))
	weight := make(map[string]int, len(out))
	for src, targets := range out {
		for _, w := range targets {
			weight[src] += w
		}
	}

	rank := make(map[string]float64, len(nodes))
	for _, node := range nodes {
		rank[node] = 1 / n
	}

	for range maxIter {
		var dangling float64
		for _, node := range nodes {
			if weight[node] == 0 {
				dangling += rank[node]
			}
		}

		next := make(map[string]float64, len(nodes))
		base := (1-alpha)/n + alpha*dangling/n
		for _, node := range nodes {
			next[node] = base
		}
		for src, targets := range out {
			share := alpha * rank[src] / float64(weight[src])
			for tgt, w := range targets {
				next[tgt] += share * float64(w)
			}
		}

		var diff float64
		for _, node := range nodes {
			diff += math.Abs(next[node] - rank[node])
		}
		rank = next
		if diff < tol {
			break
		}
	}

	return rank
}
