package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/phobologic/luabundle/internal/config"
)

func newInitCmd(a *app) *cobra.Command {
	var (
		entry  string
		output string
		minify bool
	)

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a default " + config.FileName,
		Long: `Write a default ` + config.FileName + ` to dir (default: the working
directory). An existing file is never replaced.`,
		Args: cobra.MaximumNArgs(1),
		// init must work even when the current config is broken.
		PersistentPreRunE: func(*cobra.Command, []string) error {
			a.logger = newLogger(a.stderr, "info", a.verbose)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.FileName
			if len(args) > 0 {
				path = args[0]
				if info, err := os.Stat(path); err == nil && info.IsDir() {
					path = filepath.Join(path, config.FileName)
				}
			}

			cfg := config.Default()
			if entry != "" {
				cfg.Bundle.Entry = entry
			}
			if output != "" {
				cfg.Bundle.Output = output
			}
			cfg.Bundle.Minify = minify
			if err := cfg.Validate(); err != nil {
				return err
			}

			if err := config.Write(path, cfg); err != nil {
				return err
			}
			printf(a.stdout, "%s %s\n", LabelStyle.Render("Wrote"), PathStyle.Render(path))
			return nil
		},
	}
	cmd.Flags().StringVar(&entry, "entry", "", "entry file to record")
	cmd.Flags().StringVar(&output, "output", "", "output file to record")
	cmd.Flags().BoolVarP(&minify, "minify", "m", false, "record dense output as the default")
	return cmd
}
