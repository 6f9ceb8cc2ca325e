package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/ludviglundgren/xdcc-cli/internal/history"

	"github.com/magiconair/properties/assert"
)

func Test_printHistory(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	entries := []history.Entry{
		{
			Bot:         "Ginpachi-Sensei",
			Pack:        "#12",
			FileName:    "[Group] Show - 01.mkv",
			FilePath:    "/dl/[Group] Show - 01.mkv",
			Size:        1500000000,
			Mime:        "video/x-matroska",
			CompletedAt: now.Add(-2 * time.Hour),
		},
		{
			Bot:         "Ginpachi-Sensei",
			Pack:        "#13",
			FileName:    "notes.txt",
			FilePath:    "/dl/notes.txt",
			Size:        512,
			CompletedAt: now.Add(-3 * 24 * time.Hour),
		},
	}

	var buf bytes.Buffer
	if err := printHistory(&buf, entries, now); err != nil {
		t.Fatalf("printHistory() error = %v", err)
	}
	out := buf.String()

	assert.Equal(t, strings.Count(out, "[*] "), 2)
	assert.Matches(t, out, `(?s)\[\*\] \[Group\] Show - 01\.mkv\s+Bot: Ginpachi-Sensei Pack: #12 Size: 1\.5 GB Type: video/x-matroska`)
	assert.Matches(t, out, `Completed: 2 hours ago`)
	assert.Matches(t, out, `Pack: #13 Size: 512 B\n`)
	assert.Matches(t, out, `Path: /dl/notes\.txt`)
}
