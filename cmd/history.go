package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/template"
	"time"

	"github.com/ludviglundgren/xdcc-cli/internal/config"
	"github.com/ludviglundgren/xdcc-cli/internal/history"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// RunHistory cmd to list completed downloads
func RunHistory() *cobra.Command {
	var (
		limit  int
		output string
	)

	command := &cobra.Command{
		Use:     "history",
		Short:   "List completed downloads",
		Example: `  xdl history --limit 10`,
	}
	command.Flags().IntVar(&limit, "limit", 20, "Number of downloads to show. 0 shows all")
	command.Flags().StringVar(&output, "output", "", "Print as [formatted text (default), json]")

	command.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(config.CfgFile)
		if err != nil {
			return err
		}

		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return err
		}
		defer store.Close()

		entries, err := store.List(cmd.Context(), limit)
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Println("No downloads found")
			return nil
		}

		switch output {
		case "json":
			res, err := json.Marshal(entries)
			if err != nil {
				return errors.Wrap(err, "could not marshal history to json")
			}
			fmt.Println(string(res))

		default:
			return printHistory(os.Stdout, entries, time.Now())
		}

		return nil
	}

	return command
}

var historyItemTemplate = `{{ range .}}
[*] {{.FileName}}
    Bot: {{.Bot}} Pack: {{.Pack}} Size: {{.Size}}{{if .Mime}} Type: {{.Mime}}{{end}}
    Completed: {{.Completed}}
    Path: {{.FilePath}}
{{end}}
`

type historyItem struct {
	FileName  string
	Bot       string
	Pack      string
	Size      string
	Mime      string
	Completed string
	FilePath  string
}

func printHistory(w io.Writer, entries []history.Entry, now time.Time) error {
	tmpl, err := template.New("item").Parse(historyItemTemplate)
	if err != nil {
		return err
	}

	data := make([]historyItem, 0, len(entries))
	for _, e := range entries {
		data = append(data, historyItem{
			FileName:  e.FileName,
			Bot:       e.Bot,
			Pack:      e.Pack,
			Size:      humanize.Bytes(uint64(e.Size)),
			Mime:      e.Mime,
			Completed: humanize.RelTime(e.CompletedAt, now, "ago", "from now"),
			FilePath:  e.FilePath,
		})
	}

	return tmpl.Execute(w, data)
}
