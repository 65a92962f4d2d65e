package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dkoosis/rollup/internal/config"
	"github.com/dkoosis/rollup/internal/logging"
	"github.com/dkoosis/rollup/internal/version"
	"github.com/dkoosis/rollup/pkg/rollup"
)

// app carries the streams and the state resolved before each command.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	configFile string
	input      string
	domain     string
	project    string
	head       int64
	verbose    int
	quiet      bool

	cfg    *config.Resolved
	logger *slog.Logger
	// code is the exit code of a command that completed without error.
	code int
}

func (a *app) rootCmd() *cobra.Command {
	d := config.DefaultConfig()
	root := &cobra.Command{
		Use:   "rollup",
		Short: "Aggregate test results and build problems into a bounded scope tree",
		Long: `rollup builds a tree of scopes (projects, build configurations, builds,
suites, packages, classes) over test runs or build problems, with counters
rolled up at every level, and shows a bounded, ordered slice of it.`,
		Version:           version.Version,
		SilenceErrors:     true,
		SilenceUsage:      true,
		Args:              cobra.ArbitraryArgs,
		PersistentPreRunE: a.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return usagef("unknown command %q", args[0])
			}
			return cmd.Help()
		},
	}
	root.SetVersionTemplate(version.String() + "\n")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err: err}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "config file (default: "+config.FileName+" in the working or user config directory)")
	pf.StringVarP(&a.input, "input", "i", "-", "snapshot or go test -json file; - reads stdin")
	pf.StringVarP(&a.domain, "domain", "d", string(rollup.Tests), "tree domain: tests or problems")
	pf.StringVar(&a.project, "project", "go test", "root project name for go test -json input")
	pf.Int64Var(&a.head, "head", 0, "build the request is about (default: the snapshot head)")
	pf.CountVarP(&a.verbose, "verbose", "v", "more logging; repeat for debug")
	pf.BoolVarP(&a.quiet, "quiet", "q", false, "no logging")

	pf.Int("max-children", d.MaxChildren, "children and items kept per node")
	pf.String("order-by", d.OrderBy, "node order, e.g. failed or duration:asc,name")
	pf.String("test-tie-break", d.TestTieBreak, "which test runs survive the cap")
	pf.String("problem-tie-break", d.ProblemTieBreak, "which problems survive the cap")
	pf.Bool("split-by-build", d.SplitByBuild, "add a build level to test trees")
	pf.Bool("group-parallel", d.GroupParallel, "fold parallel shard builds into the build that aggregates them")
	pf.String("format", d.Format, "output format: auto, terminal, llm, json")
	pf.String("theme", d.Theme, "terminal theme: default, orca, mono")
	pf.String("log-level", d.Log.Level, "log level: debug, info, warn, error")
	pf.String("log-format", d.Log.Format, "log format: human or json")

	root.AddCommand(
		a.treeCmd(),
		a.subtreeCmd(),
		a.browseCmd(),
		a.serveCmd(),
		a.versionCmd(),
	)
	return root
}

// setup resolves configuration and the logger for every subcommand.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(config.Options{File: a.configFile, Flags: cmd.Flags()})
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := logging.LevelFromVerbosity(logging.LevelFromString(cfg.Log.Level), a.verbose, a.quiet)
	a.logger = logging.New(a.stderr, level, cfg.Log.Format)
	if cfg.File != "" {
		a.logger.Debug("config loaded", "file", cfg.File)
	}
	for _, key := range config.Keys() {
		a.logger.Debug("config", "key", key, "source", cfg.Source(key))
	}

	if _, err := rollup.ParseDomain(a.domain); err != nil {
		return usageError{err: err}
	}
	return nil
}

// usageArgs marks argument validation failures as usage errors.
func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return usageError{err: err}
		}
		return nil
	}
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(_ *cobra.Command, _ []string) error {
			_, err := io.WriteString(a.stdout, version.String()+"\n")
			return err
		},
	}
}
