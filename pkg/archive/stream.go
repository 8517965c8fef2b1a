package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wengchengjian/env/pkg/progress"
)

// streamStrategy decompresses a single-stream file (gz, bz2, xz, zst) into
// outputDir under the source name with the compression extension stripped.
type streamStrategy struct {
	format Format
	open   openFunc
}

func (s streamStrategy) Extract(ctx context.Context, src, outputDir string, p progress.Reporter) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	stream, err := s.open(f)
	if err != nil {
		return fmt.Errorf("open decompressor: %w", err)
	}
	defer stream.Close()

	if err := ctx.Err(); err != nil {
		return err
	}

	base := filepath.Base(src)
	name := stripExtension(base, s.format)
	if name == base {
		name += ".out"
	}
	dest := filepath.Join(outputDir, name)

	p.Start(name, 1)
	defer p.Done()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat archive: %w", err)
	}
	if err := writeFile(dest, stream, info.Mode()); err != nil {
		return fmt.Errorf("decompress %s: %w", name, err)
	}
	p.Add(1)

	return nil
}
