// Command chatbase inspects precomputed dialogue directories: summary
// statistics, single key lookups and consistency checks.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "chatbase",
		Short:        "Inspect and check chatbase directories",
		SilenceUsage: true,
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.AddCommand(statsCmd())
	root.AddCommand(lookupCmd())
	root.AddCommand(validateCmd())
	return root
}
