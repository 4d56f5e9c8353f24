package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gridsweep/gridsweep/internal/config"
	"github.com/gridsweep/gridsweep/internal/experiment"
	"github.com/gridsweep/gridsweep/internal/pipeline"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the sweep config, bindings, and label uniqueness",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			if _, err := pipeline.Default.Lookup(cfg.Pipeline["model"].Meta.Manager); err != nil {
				return err
			}
			mgr, err := experiment.NewManager(experiment.Options{
				Template:   cfg.Pipeline,
				Space:      cfg.Experiment.Hyperparameters,
				StepCounts: cfg.Experiment.StepCounts(),
				Runs:       cfg.Experiment.Runs,
				Seed:       cfg.Experiment.Seed,
			})
			if err != nil {
				return err
			}
			if err := mgr.Validate(); err != nil {
				return err
			}
			s := mgr.Summary()
			fmt.Printf("OK: %d configurations, %d runs each\n", s.Configurations, s.RunsPerConfig)
			return nil
		},
	}
}
