package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gridsweep",
		Short: "Hyperparameter sweep orchestrator for model pipelines",
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "gridsweep.yaml", "config file path")
	root.AddCommand(newRunCmd())
	root.AddCommand(newPlanCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newValidateCmd())
	return root
}
