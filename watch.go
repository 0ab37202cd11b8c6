package main

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/phobologic/luabundle/internal/config"
	"github.com/phobologic/luabundle/internal/watch"
)

func newWatchCmd(a *app) *cobra.Command {
	var f buildFlags

	cmd := &cobra.Command{
		Use:   "watch [entry [output]]",
		Short: "Rebuild whenever a Lua source changes",
		Long: `Build once, then rebuild whenever a Lua file under the working directory
changes. Bundle outputs are never treated as changes. Stop with Ctrl+C.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.applyBuildFlags(cmd, f)
			targets := targetsFor(a.cfg, args)
			return a.watch(cmd.Context(), ".", targets)
		},
	}
	cmd.Flags().BoolVarP(&f.minify, "minify", "m", false, "emit dense output instead of readable output")
	cmd.Flags().BoolVarP(&f.noProcess, "no-process", "n", false, "write the bundle without running the processor")
	return cmd
}

func (a *app) watch(ctx context.Context, root string, targets []config.Target) error {
	debounce, err := a.cfg.WatchDebounce()
	if err != nil {
		return err
	}

	root, err = filepath.Abs(root)
	if err != nil {
		return err
	}
	ignore := append([]string{}, a.cfg.Watch.Ignore...)
	for _, t := range targets {
		out, err := filepath.Abs(t.Output)
		if err != nil {
			continue
		}
		if rel, err := filepath.Rel(root, out); err == nil {
			ignore = append(ignore, filepath.ToSlash(rel))
		}
	}

	rebuild := func(ctx context.Context) {
		if err := a.buildAll(ctx, targets); err != nil {
			a.logger.Error("build failed", "err", err)
		}
	}

	w, err := watch.New(watch.Config{
		Root:     root,
		Ignore:   ignore,
		Debounce: debounce,
		Logger:   a.logger,
		OnChange: func(ctx context.Context, changed []string) error {
			a.logger.Info("rebuilding", "changed", len(changed), "first", changed[0])
			rebuild(ctx)
			return nil
		},
	})
	if err != nil {
		return err
	}

	rebuild(ctx)
	a.logger.Info("watching for changes", "root", root)
	return w.Run(ctx)
}
