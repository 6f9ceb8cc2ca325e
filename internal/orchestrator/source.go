package orchestrator

import (
	"os"

	"github.com/ludviglundgren/xdcc-cli/pkg/utils"

	"github.com/pkg/errors"
)

// DefaultListFile is read by FileSource when no path is given.
const DefaultListFile = "downlist.txt"

// Source yields the identifiers to request.
type Source interface {
	Identifiers() ([]string, error)
}

// ArgsSource forwards command line arguments in order.
type ArgsSource []string

func (a ArgsSource) Identifiers() ([]string, error) {
	return append([]string(nil), a...), nil
}

// FileSource reads one identifier per line from a list file.
type FileSource struct {
	Path string
}

func (f FileSource) Identifiers() ([]string, error) {
	path := f.Path
	if path == "" {
		path = DefaultListFile
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open list file: %s", path)
	}
	defer file.Close()

	ids, err := utils.ReadLines(file)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read list file: %s", path)
	}

	return ids, nil
}
