package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gridsweep/gridsweep/internal/config"
	"github.com/gridsweep/gridsweep/internal/experiment"
	"github.com/gridsweep/gridsweep/internal/grid"
)

var flagLabels bool

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the sweep's grid shape without executing anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
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
			printSummary(mgr.Summary())
			if flagLabels {
				g, err := grid.Expand(cfg.Experiment.Hyperparameters, cfg.Experiment.StepCounts())
				if err != nil {
					return err
				}
				fmt.Println("Configurations:")
				for i := 0; i < g.Size(); i++ {
					fmt.Printf("  %s\n", g.Label(g.At(i)))
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&flagLabels, "labels", false, "list every configuration label")
	return cmd
}

func printSummary(s experiment.Summary) {
	var axes []string
	for _, a := range s.Axes {
		axes = append(axes, fmt.Sprintf("%s (steps=%d)", a.Name, a.Steps))
	}
	fmt.Println("\nExperiment Configuration")
	fmt.Println(strings.Repeat("-", 75))
	fmt.Printf("Configured Hyperparameters:\t%s\n", strings.Join(axes, ", "))
	fmt.Printf("Total Configurations      :\t%d\n", s.Configurations)
	fmt.Printf("Runs per Configuration    :\t%d\n", s.RunsPerConfig)
	fmt.Println(strings.Repeat("-", 75))
}
