package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type buildInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
	Go      string `json:"go"`
}

func RunVersion(version, commit, date string) *cobra.Command {
	var command = &cobra.Command{
		Use:          "version",
		Short:        "Print the version",
		Example:      `  xdl version
  xdl version --output json`,
		Args:         cobra.NoArgs,
		SilenceUsage: false,
	}

	var output string
	command.Flags().StringVar(&output, "output", "", "Print as [formatted text (default), json]")

	command.RunE = func(cmd *cobra.Command, args []string) error {
		info := buildInfo{
			Version: version,
			Commit:  commit,
			Date:    date,
			Go:      runtime.Version(),
		}
		return printVersion(cmd.OutOrStdout(), info, output)
	}
	return command
}

func printVersion(w io.Writer, info buildInfo, output string) error {
	switch output {
	case "json":
		res, err := json.Marshal(info)
		if err != nil {
			return errors.Wrap(err, "could not marshal version to json")
		}
		_, err = fmt.Fprintln(w, string(res))
		return err
	case "":
		_, err := fmt.Fprintf(w, "Version: %s\nCommit: %s\nDate: %s\nGo: %s\n", info.Version, info.Commit, info.Date, info.Go)
		return err
	default:
		return errors.Errorf("unsupported output format: %s", output)
	}
}
