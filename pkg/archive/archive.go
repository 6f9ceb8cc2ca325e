package archive

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"github.com/mholt/archives"
	"github.com/pkg/errors"
)

// IsArchive reports whether the file at path looks like a supported archive.
func IsArchive(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	head := make([]byte, 262)
	n, _ := io.ReadFull(f, head)

	return filetype.IsArchive(head[:n])
}

// Extract unpacks the archive at source into target and returns the paths
// of the extracted files. Entries that would land outside target are
// rejected.
func Extract(ctx context.Context, source, target string) ([]string, error) {
	file, err := os.Open(source)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open archive: %s", source)
	}
	defer file.Close()

	format, stream, err := archives.Identify(ctx, filepath.Base(source), file)
	if err != nil {
		return nil, errors.Wrapf(err, "could not identify archive: %s", source)
	}

	extractor, ok := format.(archives.Extractor)
	if !ok {
		return nil, errors.Errorf("%s: format %T cannot be extracted", source, format)
	}

	if err := os.MkdirAll(target, 0o755); err != nil {
		return nil, errors.Wrapf(err, "could not create %s", target)
	}

	var extracted []string

	err = extractor.Extract(ctx, stream, func(ctx context.Context, info archives.FileInfo) error {
		dst, err := safeJoin(target, info.NameInArchive)
		if err != nil {
			return err
		}

		if info.IsDir() {
			return os.MkdirAll(dst, 0o755)
		}
		if !info.Mode().IsRegular() {
			// links and devices are skipped
			return nil
		}

		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return err
		}

		src, err := info.Open()
		if err != nil {
			return err
		}
		defer src.Close()

		out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return err
		}
		defer out.Close()

		if _, err := io.Copy(out, src); err != nil {
			return err
		}

		extracted = append(extracted, dst)
		return nil
	})
	if err != nil {
		return extracted, errors.Wrapf(err, "could not extract %s", source)
	}

	return extracted, nil
}

func safeJoin(root, name string) (string, error) {
	dst := filepath.Join(root, name)
	rel, err := filepath.Rel(root, dst)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Errorf("illegal path in archive: %s", name)
	}
	return dst, nil
}
