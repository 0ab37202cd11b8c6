package main

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/phobologic/luabundle/internal/bundle"
	"github.com/phobologic/luabundle/internal/config"
	"github.com/phobologic/luabundle/internal/luafmt"
	"github.com/phobologic/luabundle/internal/model"
)

type buildFlags struct {
	minify    bool
	noProcess bool
}

func newBuildCmd(a *app) *cobra.Command {
	var f buildFlags

	cmd := &cobra.Command{
		Use:   "build [entry [output]]",
		Short: "Bundle the entry file and process the result",
		Long: `Bundle the entry file and process the result.

Without arguments every configured target is built concurrently. The entry
defaults to lua/main.lua and the output to lua/bundled.lua.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.applyBuildFlags(cmd, f)
			return a.buildAll(cmd.Context(), targetsFor(a.cfg, args))
		},
	}
	cmd.Flags().BoolVarP(&f.minify, "minify", "m", false, "emit dense output instead of readable output")
	cmd.Flags().BoolVarP(&f.noProcess, "no-process", "n", false, "write the bundle without running the processor")
	return cmd
}

// applyBuildFlags lets explicitly set flags override the config file.
func (a *app) applyBuildFlags(cmd *cobra.Command, f buildFlags) {
	if cmd.Flags().Changed("minify") {
		a.cfg.Bundle.Minify = f.minify
	}
	if cmd.Flags().Changed("no-process") {
		a.cfg.Bundle.NoProcess = f.noProcess
	}
}

// targetsFor returns the targets named on the command line, falling back to
// the configured ones.
func targetsFor(cfg *config.Config, args []string) []config.Target {
	if len(args) == 0 {
		return cfg.BuildTargets()
	}
	t := config.Target{Entry: args[0], Output: cfg.Bundle.Output}
	if len(args) > 1 {
		t.Output = args[1]
	}
	return []config.Target{t}
}

func (a *app) buildAll(ctx context.Context, targets []config.Target) error {
	seen := make(map[string]string, len(targets))
	for _, t := range targets {
		out := filepath.Clean(t.Output)
		if prev, ok := seen[out]; ok {
			return fmt.Errorf("targets %s and %s both write %s", prev, t.Entry, t.Output)
		}
		seen[out] = t.Entry
	}

	proc, err := a.processor()
	if err != nil {
		return err
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, t := range targets {
		g.Go(func() error {
			res, err := bundle.Bundle(ctx, a.bundleOptions(t, proc))
			if res != nil {
				// A failed processor still leaves the bundle written.
				mu.Lock()
				a.report(res)
				mu.Unlock()
			}
			return err
		})
	}
	return g.Wait()
}

func (a *app) bundleOptions(t config.Target, proc bundle.Processor) bundle.Options {
	return bundle.Options{
		Entry:          t.Entry,
		Output:         t.Output,
		Density:        model.DensityFor(a.cfg.Bundle.Minify),
		SkipProcessing: a.cfg.Bundle.NoProcess,
		ResolveFrom:    bundle.Base(a.cfg.Bundle.ResolveFrom),
		External:       a.cfg.Bundle.External,
		IgnoreFile:     a.cfg.Bundle.IgnoreFile,
		Processor:      proc,
		Logger:         a.logger.With("entry", t.Entry),
	}
}

// processor returns the configured external command, or the built-in
// formatter when none is set.
func (a *app) processor() (bundle.Processor, error) {
	if len(a.cfg.Processor.Command) == 0 {
		return luafmt.New(), nil
	}
	timeout, err := a.cfg.ProcessorTimeout()
	if err != nil {
		return nil, err
	}
	return &luafmt.ExecProcessor{Command: a.cfg.Processor.Command, Timeout: timeout}, nil
}

func (a *app) report(res *bundle.Result) {
	printf(a.stdout, "%s %s in %s\n", LabelStyle.Render("Bundled"), PathStyle.Render(res.Entry), elapsed(res.BundleTime))
	if res.Processed {
		printf(a.stdout, "%s %s in %s\n", LabelStyle.Render("Processed"), PathStyle.Render(res.Output), elapsed(res.ProcessTime))
	}
}

func elapsed(d time.Duration) string {
	return MutedStyle.Render(d.Round(time.Microsecond).String())
}
