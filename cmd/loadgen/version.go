package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the loadgen binary version, bumped at release time.
const Version = "0.1.0-dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("loadgen version %s\n", Version)
	},
}
