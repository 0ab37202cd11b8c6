// luabundle inlines the require tree of a Lua entry file into one file.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/phobologic/luabundle/internal/config"
)

var version = "dev"

func main() {
	root := newRootCmd(os.Stdout, os.Stderr)
	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}

// run executes the CLI with explicit arguments and writers.
func run(args []string, stdout, stderr io.Writer) error {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}

// app holds state shared by all subcommands.
type app struct {
	stdout io.Writer
	stderr io.Writer

	configFile string
	verbose    bool

	cfg    *config.Config
	logger *log.Logger
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "luabundle",
		Short: "Bundle a Lua program and its required modules into one file",
		Long: TitleStyle.Render("luabundle") + MutedStyle.Render(" - inline require() trees into a single Lua file") + `

Every require("path") statement reachable from the entry file is replaced by
an immediately-invoked function holding the module's source. The bundle is
then formatted or minified unless processing is skipped.

Settings are read from ` + config.FileName + ` and LUABUNDLE_* environment
variables; flags take precedence.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&a.configFile, "config", "", "config file (default ./"+config.FileName+")")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newBuildCmd(a),
		newDepsCmd(a),
		newStripCmd(a),
		newFmtCmd(a),
		newWatchCmd(a),
		newInitCmd(a),
	)
	return root
}

func (a *app) load() error {
	cfg, used, err := config.Load(config.LoadOptions{File: a.configFile})
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = newLogger(a.stderr, cfg.Log.Level, a.verbose)
	if used != "" {
		a.logger.Debug("loaded config", "file", used)
	}
	return nil
}

func newLogger(w io.Writer, level string, verbose bool) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{Prefix: "luabundle"})
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	if verbose {
		lvl = log.DebugLevel
	}
	logger.SetLevel(lvl)
	return logger
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
