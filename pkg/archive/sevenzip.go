package archive

import (
	"context"
	"fmt"
	"os"

	"github.com/bodgit/sevenzip"

	"github.com/wengchengjian/env/pkg/progress"
)

// extractSevenZip decompresses a whole 7z archive into outputDir.
func extractSevenZip(ctx context.Context, src, outputDir string, p progress.Reporter) error {
	r, err := sevenzip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("open 7z: %w", err)
	}
	defer r.Close()

	p.Start("extracting", int64(len(r.File)))
	defer p.Done()

	for _, entry := range r.File {
		if err := ctx.Err(); err != nil {
			return err
		}

		dest, err := entryPath(outputDir, entry.Name)
		if err != nil {
			return err
		}

		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(dest, 0755); err != nil {
				return fmt.Errorf("create directory %s: %w", entry.Name, err)
			}
			p.Add(1)
			continue
		}

		if err := extractSevenZipEntry(entry, dest); err != nil {
			return err
		}
		p.Add(1)
	}

	return nil
}

func extractSevenZipEntry(entry *sevenzip.File, dest string) error {
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
