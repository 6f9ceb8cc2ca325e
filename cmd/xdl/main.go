package main

import (
	"os"

	"github.com/ludviglundgren/xdcc-cli/cmd"
	"github.com/ludviglundgren/xdcc-cli/internal/config"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "xdl",
		Short: "Download files from XDCC bots",
		Long: `Download files from XDCC bots on IRC from the command line.

Documentation is available at https://github.com/ludviglundgren/xdcc-cli`,
		SilenceUsage: true,
	}

	// override config
	rootCmd.PersistentFlags().StringVar(&config.CfgFile, "config", "", "config file (default is $HOME/.config/xdl/.xdl.toml)")

	rootCmd.AddCommand(cmd.RunVersion(version, commit, date))
	rootCmd.AddCommand(cmd.RunUpdate(version))
	rootCmd.AddCommand(cmd.RunGet())
	rootCmd.AddCommand(cmd.RunBatch())
	rootCmd.AddCommand(cmd.RunHistory())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
