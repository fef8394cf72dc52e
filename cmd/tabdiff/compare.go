package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/TFMV/tabdiff/config"
	"github.com/TFMV/tabdiff/logger"
	"github.com/TFMV/tabdiff/metrics"
	"github.com/TFMV/tabdiff/pkg/core"
	"github.com/TFMV/tabdiff/pkg/diff"
	"github.com/TFMV/tabdiff/pkg/readers"
	"github.com/TFMV/tabdiff/report"
	"github.com/TFMV/tabdiff/version"
)

// app holds the state of one command line invocation.
type app struct {
	v       *viper.Viper
	factory *readers.Factory
	stdout  io.Writer
	stderr  io.Writer

	configPath string
	noColor    bool
	exitCode   int
}

// run executes the command line and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{
		v:       config.New(),
		factory: readers.DefaultFactory,
		stdout:  stdout,
		stderr:  stderr,
	}

	cmd := a.newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return core.ExitInputError
	}
	return a.exitCode
}

func (a *app) newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tabdiff [flags] FILE1 FILE2",
		Short: "Check whether two CSV files hold the same rows in any order",
		Long: `tabdiff sorts both files by the first column of FILE1 and compares the
remaining columns in groups, stopping at the first difference.

Exit codes:
  0  files are identical when sorted by the key column
  1  invalid arguments or unreadable input
  2  the files have different columns
  3  the values of some column group differ
  4  the files have a different number of rows
  5  the key column holds duplicate values (only with --require-unique-key)`,
		Version:       version.String(),
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.compare(cmd.Context(), args[0], args[1])
		},
	}

	flags := cmd.Flags()
	flags.BoolP("strict-column-order", "s", false, "Require both files to have the same column order")
	flags.IntP("number-of-columns", "n", 1, "Number of columns compared per group")
	flags.StringP("separator", "p", ",", `Field separator (use "\t" for tab)`)
	flags.String("engine", readers.EngineArrow, fmt.Sprintf("Engine used to read the files %v", a.factory.Engines()))
	flags.Int("workers", 1, "Number of column groups evaluated concurrently")
	flags.BoolP("require-unique-key", "u", false, "Fail when the key column holds duplicate values")
	flags.Int("chunk-size", readers.DefaultChunkSize, "Rows decoded per read chunk")
	flags.String("log-level", "warn", "Log level (debug, info, warn, error)")
	flags.StringVar(&a.configPath, "config", "", "Config file (default .tabdiff.yaml in the working or home directory)")
	flags.BoolVar(&a.noColor, "no-color", false, "Disable colored output")

	for key, name := range map[string]string{
		config.KeyStrictColumnOrder: "strict-column-order",
		config.KeyNumberOfColumns:   "number-of-columns",
		config.KeySeparator:         "separator",
		config.KeyEngine:            "engine",
		config.KeyWorkers:           "workers",
		config.KeyRequireUniqueKey:  "require-unique-key",
		config.KeyChunkSize:         "chunk-size",
		config.KeyLogLevel:          "log-level",
	} {
		_ = a.v.BindPFlag(key, flags.Lookup(name))
	}

	return cmd
}

func (a *app) compare(ctx context.Context, firstPath, secondPath string) error {
	home, _ := os.UserHomeDir()
	if err := config.ReadConfigFile(a.v, a.configPath, ".", home); err != nil {
		return err
	}
	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	if err := cfg.Validate(a.factory.Engines()...); err != nil {
		return err
	}

	level, err := cfg.Log.ZapLevel()
	if err != nil {
		return err
	}
	runID := uuid.NewString()
	log := logger.InitLogger(level, a.stderr).With(zap.String("run_id", runID))
	log.Debug("configuration loaded",
		zap.String("config_file", a.v.ConfigFileUsed()),
		zap.Any("compare", cfg.Compare),
	)

	separator, err := cfg.Compare.SeparatorRune()
	if err != nil {
		return err
	}

	first, err := a.open(cfg, firstPath, separator)
	if err != nil {
		return err
	}
	second, err := a.open(cfg, secondPath, separator)
	if err != nil {
		_ = first.Close()
		return err
	}
	defer func() {
		if err := multierr.Combine(first.Close(), second.Close()); err != nil {
			log.Warn("failed to close sources", zap.Error(err))
		}
	}()

	reporter := report.NewReporter(a.stdout, report.Options{
		StrictColumnOrder: cfg.Compare.StrictColumnOrder,
		NoColor:           a.noColor,
		Progress:          isTerminal(a.stdout),
	})
	defer reporter.Close()
	collector := metrics.NewCollector(runID)

	opts := cfg.Compare.CompareOptions()
	opts.Observer = core.Observers{collector, reporter}
	opts.Logger = log

	comparer, err := diff.NewComparer(opts)
	if err != nil {
		return err
	}
	verdict, err := comparer.Compare(ctx, first, second)
	if err != nil {
		return err
	}

	log.Info("run summary", collector.Stats().Fields()...)
	a.exitCode = verdict.ExitCode()
	return nil
}

func (a *app) open(cfg *config.Config, path string, separator rune) (core.Source, error) {
	return a.factory.Open(cfg.Compare.Engine, core.SourceConfig{
		Path:      path,
		Separator: separator,
		ChunkSize: cfg.Compare.ChunkSize,
	})
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
