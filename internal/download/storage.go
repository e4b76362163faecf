package download

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// visibleFiles lists the non-hidden regular files inside dir, in lexical
// order. yt-dlp writes flat files only, but directories are skipped anyway.
func visibleFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		names = append(names, entry.Name())
	}

	return names, nil
}

// moveFile renames src to dst, falling back to a streamed copy and delete
// when the rename crosses filesystems.
func moveFile(src string, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return err
	}

	return os.Remove(src)
}

// archiveDirectory packages every visible file inside dir into a single zip
// archive at archivePath.
func archiveDirectory(archivePath string, dir string) error {
	names, err := visibleFiles(dir)
	if err != nil {
		return err
	}

	out, err := os.Create(archivePath)
	if err != nil {
		return err
	}
	defer out.Close()

	archive := zip.NewWriter(out)
	for _, name := range names {
		in, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			archive.Close()
			return err
		}

		entry, err := archive.Create(name)
		if err != nil {
			in.Close()
			archive.Close()
			return err
		}

		if _, err := io.Copy(entry, in); err != nil {
			in.Close()
			archive.Close()
			return err
		}
		in.Close()
	}

	if err := archive.Close(); err != nil {
		return err
	}

	return out.Close()
}
