package main

import (
	"os"

	"github.com/gridsweep/gridsweep/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
