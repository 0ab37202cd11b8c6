package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/phobologic/luabundle/internal/discover"
	"github.com/phobologic/luabundle/internal/graph"
	"github.com/phobologic/luabundle/internal/model"
	"github.com/phobologic/luabundle/internal/ranking"
	"github.com/phobologic/luabundle/internal/resolve"
	"github.com/phobologic/luabundle/internal/toon"
)

type depsFlags struct {
	maxModules int
	format     string
	module     string
	sites      bool
}

func newDepsCmd(a *app) *cobra.Command {
	var f depsFlags

	cmd := &cobra.Command{
		Use:   "deps [entry]",
		Short: "Print the module dependency report of an entry file",
		Long: `Print the module dependency report of an entry file.

Modules are ranked by PageRank over the require graph, so the modules most of
the bundle depends on come first. Lua files next to the entry that nothing
requires are listed as unused.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry := a.cfg.Bundle.Entry
			if len(args) > 0 {
				entry = args[0]
			}

			sites, err := resolve.New(resolve.Options{
				External:   a.cfg.Bundle.External,
				IgnoreFile: a.cfg.Bundle.IgnoreFile,
				Logger:     a.logger,
			}).Resolve(cmd.Context(), entry)
			if err != nil {
				return fmt.Errorf("resolving %s: %w", entry, err)
			}

			r := graph.Build(entry, sites, isFile)
			graph.Rank(r)
			r.Unused, err = unused(entry, r, a.cfg.Bundle.Output)
			if err != nil {
				return err
			}
			if !f.sites {
				r.Sites = nil
			}
			if f.module != "" {
				r = ranking.FilterByPath(r, f.module)
			}
			r = ranking.SelectModules(r, f.maxModules)

			return writeReport(a, r, f.format)
		},
	}
	cmd.Flags().IntVarP(&f.maxModules, "max-modules", "n", 0, "maximum number of modules to include")
	cmd.Flags().StringVar(&f.format, "format", "toon", "output format: toon or yaml")
	cmd.Flags().StringVar(&f.module, "module", "", "only modules whose path contains this text")
	cmd.Flags().BoolVar(&f.sites, "sites", false, "include every require statement")
	return cmd
}

func writeReport(a *app, r *model.Report, format string) error {
	switch format {
	case "toon":
		printf(a.stdout, "%s\n", toon.Encode(r))
	case "yaml":
		data, err := yaml.Marshal(r)
		if err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}
		_, _ = a.stdout.Write(data)
	default:
		return fmt.Errorf("unknown format %q (want toon or yaml)", format)
	}
	return nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// unused lists Lua files under the entry's directory that are neither the
// entry, a required module nor the bundle output.
func unused(entry string, r *model.Report, output string) ([]string, error) {
	dir := filepath.Dir(entry)
	files, err := discover.Files(dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}

	known := make(map[string]struct{}, len(r.Modules)+1)
	for _, m := range r.Modules {
		known[m.Path] = struct{}{}
	}
	if rel, err := filepath.Rel(dir, output); err == nil {
		known[filepath.ToSlash(rel)] = struct{}{}
	}

	var out []string
	for _, f := range files {
		if _, ok := known[f]; !ok {
			out = append(out, f)
		}
	}
	return out, nil
}
