// Command commonsctl is the operator tool for the commons service: it
// evaluates page windows and legacy lifecycle records offline and inspects
// the event dead letter queue.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:           "commonsctl",
		Short:         "Operator tool for the commons service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: CONFIG_PATH or the standard locations)")

	root.AddCommand(
		newPageCmd(),
		newLifecycleCmd(),
		newDeadLettersCmd(&cfgFile),
	)
	return root
}
