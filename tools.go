package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/phobologic/luabundle/internal/model"
	"github.com/phobologic/luabundle/internal/parse"
)

func newStripCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "strip <file>",
		Short: "Print a Lua file with its comments removed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			printf(a.stdout, "%s", parse.Strip(string(data)))
			return nil
		},
	}
}

func newFmtCmd(a *app) *cobra.Command {
	var minify bool

	cmd := &cobra.Command{
		Use:   "fmt <file>...",
		Short: "Run the code processor over Lua files in place",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("minify") {
				a.cfg.Bundle.Minify = minify
			}
			proc, err := a.processor()
			if err != nil {
				return err
			}
			density := model.DensityFor(a.cfg.Bundle.Minify)
			for _, path := range args {
				if err := proc.Process(cmd.Context(), path, density); err != nil {
					return fmt.Errorf("processing %s: %w", path, err)
				}
				a.logger.Debug("processed", "file", path, "density", density)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&minify, "minify", "m", false, "emit dense output instead of readable output")
	return cmd
}
