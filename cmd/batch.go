package cmd

import (
	"github.com/ludviglundgren/xdcc-cli/internal/domain"
	"github.com/ludviglundgren/xdcc-cli/internal/orchestrator"

	"github.com/spf13/cobra"
)

// RunBatch cmd to download every pack listed in a file
func RunBatch() *cobra.Command {
	var (
		f        downloadFlags
		listFile string
	)

	command := &cobra.Command{
		Use:   "batch",
		Short: "Download packs listed in a file",
		Long:  `Download every pack listed in a file, one per line. Blank lines are skipped.`,
		Example: `  xdl batch
  xdl batch --file ~/lists/season1.txt --bot Ginpachi-Sensei`,
		Args: cobra.NoArgs,
	}

	f.register(command)
	command.Flags().StringVarP(&listFile, "file", "f", orchestrator.DefaultListFile, "File with one pack per line")

	command.RunE = func(cmd *cobra.Command, args []string) error {
		return runDownloads(cmd, &f, func(cfg domain.AppConfig) orchestrator.Source {
			path := cfg.Download.ListFile
			if cmd.Flags().Changed("file") || path == "" {
				path = listFile
			}
			return orchestrator.FileSource{Path: path}
		}, true)
	}

	return command
}
