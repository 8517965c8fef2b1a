package archive

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/wengchengjian/env/pkg/progress"
)

// extractZip walks every entry by index, creating directories and writing
// files with their recorded permissions.
func extractZip(ctx context.Context, src, outputDir string, p progress.Reporter) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	p.Start("extracting", int64(len(r.File)))
	defer p.Done()

	for i := range r.File {
		if err := ctx.Err(); err != nil {
			return err
		}

		entry := r.File[i]
		dest, err := entryPath(outputDir, entry.Name)
		if err != nil {
			return err
		}

		if entry.FileInfo().IsDir() || strings.HasSuffix(entry.Name, "/") {
			if err := os.MkdirAll(dest, 0755); err != nil {
				return fmt.Errorf("create directory %s: %w", entry.Name, err)
			}
			p.Add(1)
			continue
		}

		if err := extractZipEntry(entry, dest); err != nil {
			return err
		}
		p.Add(1)
	}

	return nil
}

func extractZipEntry(entry *zip.File, dest string) error {
	rc, err := entry.Open()
	if err != nil {
		return fmt.Errorf("open entry %s: %w", entry.Name, err)
	}
	defer rc.Close()

	if err := writeFile(dest, rc, entry.Mode()); err != nil {
		return fmt.Errorf("write entry %s: %w", entry.Name, err)
	}
	return nil
}
