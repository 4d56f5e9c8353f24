package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gridsweep/gridsweep/internal/config"
	"github.com/gridsweep/gridsweep/internal/pipeline"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered pipelines and declared hyperparameters",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Pipelines:")
			for _, name := range pipeline.Default.Names() {
				fmt.Printf("  - %s\n", name)
			}
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Println("\nHyperparameters:")
			for _, hp := range cfg.Experiment.Hyperparameters {
				if len(hp.Values) > 0 {
					fmt.Printf("  - %s -> %s.params %v\n", hp.Name, hp.Stage, hp.Values)
				} else {
					fmt.Printf("  - %s -> %s.params [%v, %v]\n", hp.Name, hp.Stage, *hp.Min, *hp.Max)
				}
			}
			return nil
		},
	}
}
