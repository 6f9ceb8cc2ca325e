package archive

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range files {
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
}

func TestExtract(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "pack.zip")
	writeZip(t, source, map[string]string{
		"episode.mkv":     "video",
		"subs/episode.en": "subtitle",
	})

	target := filepath.Join(dir, "out")
	files, err := Extract(context.Background(), source, target)
	require.NoError(t, err)

	sort.Strings(files)
	assert.Equal(t, []string{
		filepath.Join(target, "episode.mkv"),
		filepath.Join(target, "subs", "episode.en"),
	}, files)

	data, err := os.ReadFile(filepath.Join(target, "subs", "episode.en"))
	require.NoError(t, err)
	assert.Equal(t, "subtitle", string(data))
}

func TestExtract_RejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "evil.zip")
	writeZip(t, source, map[string]string{"../escaped.txt": "nope"})

	target := filepath.Join(dir, "out")
	files, _ := Extract(context.Background(), source, target)
	for _, f := range files {
		assert.True(t, strings.HasPrefix(f, target+string(filepath.Separator)), "extracted outside target: %s", f)
	}

	_, err := os.Stat(filepath.Join(dir, "escaped.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestExtract_EntryConflict(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "conflict.zip")
	// "a" cannot be both a file and a directory
	writeZip(t, source, map[string]string{
		"a":   "file",
		"a/b": "nested",
	})

	_, err := Extract(context.Background(), source, filepath.Join(dir, "out"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not extract "+source)
}

func TestIsArchive(t *testing.T) {
	dir := t.TempDir()

	zipPath := filepath.Join(dir, "a.zip")
	writeZip(t, zipPath, map[string]string{"a": "b"})

	textPath := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(textPath, []byte("plain text"), 0o644))

	tests := []struct {
		name string
		path string
		want bool
	}{
		{name: "zip", path: zipPath, want: true},
		{name: "text", path: textPath, want: false},
		{name: "missing", path: filepath.Join(dir, "missing"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsArchive(tt.path))
		})
	}
}

func TestSafeJoin(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "dl")

	tests := []struct {
		name    string
		entry   string
		wantErr bool
	}{
		{name: "plain", entry: "a.mkv"},
		{name: "nested", entry: "dir/a.mkv"},
		{name: "dotdot_inside", entry: "dir/../a.mkv"},
		{name: "parent", entry: "../a.mkv", wantErr: true},
		{name: "deep_parent", entry: "dir/../../a.mkv", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := safeJoin(root, tt.entry)
			assert.Equal(t, tt.wantErr, err != nil)
		})
	}
}
