package cmd

import (
	"github.com/ludviglundgren/xdcc-cli/internal/domain"
	"github.com/ludviglundgren/xdcc-cli/internal/orchestrator"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// RunGet cmd to download packs given as arguments
func RunGet() *cobra.Command {
	var f downloadFlags

	command := &cobra.Command{
		Use:   "get",
		Short: "Download packs",
		Long:  `Download packs from a bot. Each argument is requested separately and may be a pack number, a range, a list or a file name.`,
		Example: `  xdl get 12
  xdl get "#12" 20-25 "1,4,9" --bot Ginpachi-Sensei
  xdl get 12 --host irc.rizon.net --channel "#nibl" --path ~/Downloads`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				return errors.New("requires at least one pack as argument")
			}

			return nil
		},
	}

	f.register(command)

	command.RunE = func(cmd *cobra.Command, args []string) error {
		return runDownloads(cmd, &f, func(cfg domain.AppConfig) orchestrator.Source {
			return orchestrator.ArgsSource(args)
		}, false)
	}

	return command
}
