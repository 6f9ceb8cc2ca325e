package utils

import (
	"io"
	"regexp"
	"strings"
)

var lineBreakRegex = regexp.MustCompile("\r\n|\r|\n")

// SplitLines splits s on LF, CRLF and CR line breaks. Lines are trimmed and
// blank lines are dropped.
func SplitLines(s string) []string {
	var lines []string

	for _, line := range lineBreakRegex.Split(s, -1) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}

	return lines
}

// ReadLines reads r to the end and returns its non-blank lines.
func ReadLines(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	return SplitLines(string(data)), nil
}
