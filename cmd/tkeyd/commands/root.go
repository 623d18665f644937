package commands

import (
	"github.com/spf13/cobra"
)

// Execute runs the root command
func Execute() error {
	root := &cobra.Command{
		Use:          "tkeyd",
		Short:        "Threshold key wallet daemon",
		SilenceUsage: true,
	}

	root.AddCommand(serveCmd(), rekeyCmd())
	return root.Execute()
}
