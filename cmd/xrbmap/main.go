// Package main provides the entry point for the xrbmap CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	_ "go.uber.org/automaxprocs"

	"github.com/benz9527/xrbmap/cmd/xrbmap/commands"
)

// Set by -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = "none"
)

func main() {
	opts := &commands.GlobalOptions{}
	rootCmd := &cobra.Command{
		Use:   "xrbmap",
		Short: "xrbmap - red-black tree ordered map toolkit",
		Long: `xrbmap exercises the red-black tree ordered map.

Commands:
  load      Randomized insert/erase workload with invariant checks
  dump      Build a tree from keys and print its shape`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (default .xrbmap.yaml in CWD or $HOME)")
	rootCmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "override log.level")

	rootCmd.AddCommand(commands.NewLoadCommand(opts))
	rootCmd.AddCommand(commands.NewDumpCommand())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "xrbmap %s (commit: %s)\n", version, commit)
		},
	}
}
