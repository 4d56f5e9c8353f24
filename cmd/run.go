package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gridsweep/gridsweep/internal/config"
	"github.com/gridsweep/gridsweep/internal/experiment"
	"github.com/gridsweep/gridsweep/internal/pipeline"
	"github.com/gridsweep/gridsweep/internal/report"
	"github.com/gridsweep/gridsweep/internal/result"
)

var (
	flagRuns     int
	flagParallel int
	flagFormat   string
	flagOut      string
	flagContinue bool
	flagRetries  uint
	flagVerbose  bool
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the full sweep and report aggregated results",
		RunE:  runSweep,
	}
	cmd.Flags().IntVar(&flagRuns, "runs", 0, "override runs per configuration")
	cmd.Flags().IntVar(&flagParallel, "parallel", 0, "max configurations in flight")
	cmd.Flags().StringVar(&flagFormat, "format", "table", "output format (table, markdown, json)")
	cmd.Flags().StringVar(&flagOut, "out", "", "base directory for storing the JSON report")
	cmd.Flags().BoolVar(&flagContinue, "continue-on-error", false, "keep sweeping past failed configurations")
	cmd.Flags().UintVar(&flagRetries, "retries", 0, "extra attempts per run before a failure is surfaced")
	cmd.Flags().BoolVar(&flagVerbose, "verbose", false, "per-run debug logging")
	return cmd
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if flagRuns > 0 {
		cfg.Experiment.Runs = flagRuns
	}
	if flagParallel > 0 {
		cfg.Experiment.Parallel = flagParallel
	}

	factory, err := pipeline.Default.Lookup(cfg.Pipeline["model"].Meta.Manager)
	if err != nil {
		return err
	}

	logger, err := newLogger(flagVerbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	mgr, err := experiment.NewManager(experiment.Options{
		Template:        cfg.Pipeline,
		Space:           cfg.Experiment.Hyperparameters,
		StepCounts:      cfg.Experiment.StepCounts(),
		Runs:            cfg.Experiment.Runs,
		Seed:            cfg.Experiment.Seed,
		Parallel:        cfg.Experiment.Parallel,
		ContinueOnError: flagContinue,
		Retries:         flagRetries,
		Log:             logger.Sugar(),
		Observer: func(label string, completed, total int) {
			fmt.Printf("  [%s] run %d/%d\n", label, completed, total)
		},
	})
	if err != nil {
		return err
	}
	printSummary(mgr.Summary())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	set, runErr := mgr.RunAll(ctx, factory)

	if set != nil && set.Len() > 0 {
		fmt.Println("\n--- Results ---")
		if err := report.Generate(set, flagFormat, os.Stdout); err != nil {
			return err
		}
		if flagOut != "" {
			if err := storeReport(flagOut, set); err != nil {
				return err
			}
		}
	}
	return runErr
}

func storeReport(baseDir string, set *result.ExperimentResultSet) error {
	runDir, err := result.CreateRunDir(baseDir)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := report.Generate(set, "json", &buf); err != nil {
		return err
	}
	if err := result.WriteReport(runDir, "report.json", buf.Bytes()); err != nil {
		return err
	}
	fmt.Printf("\nReport written to %s\n", runDir)
	return nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	c := zap.NewDevelopmentConfig()
	if verbose {
		c.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		c.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	return c.Build()
}
