package cmd

import (
	"github.com/ludviglundgren/xdcc-cli/internal/logging"

	"github.com/blang/semver"
	"github.com/pkg/errors"
	"github.com/rhysd/go-github-selfupdate/selfupdate"
	"github.com/spf13/cobra"
)

const updateRepository = "ludviglundgren/xdcc-cli"

func RunUpdate(version string) *cobra.Command {
	var command = &cobra.Command{
		Use:          "update",
		Short:        "Update xdl to latest version",
		Example:      `  xdl update`,
		SilenceUsage: false,
	}

	var verbose bool

	command.Flags().BoolVar(&verbose, "verbose", false, "Verbose output: Print changelog")

	command.RunE = func(cmd *cobra.Command, args []string) error {
		log := logging.New(verbose)

		v, err := semver.ParseTolerant(version)
		if err != nil {
			return errors.Wrapf(err, "could not parse version: %s", version)
		}

		latest, err := selfupdate.UpdateSelf(v, updateRepository)
		if err != nil {
			return errors.Wrap(err, "binary update failed")
		}

		if latest.Version.Equals(v) {
			// latest version is the same as current version. It means current binary is up-to-date.
			log.Info().Str("version", version).Msg("current binary is the latest version")
			return nil
		}

		log.Info().Stringer("version", latest.Version).Msg("successfully updated")
		if verbose {
			log.Info().Msg("release note:\n" + latest.ReleaseNotes)
		}

		return nil
	}

	return command
}
