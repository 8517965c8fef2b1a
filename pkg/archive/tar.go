package archive

import (
	"archive/tar"
	"compress/bzip2"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"github.com/wengchengjian/env/pkg/progress"
)

// openFunc wraps a raw file stream in a decompressor.
type openFunc func(r io.Reader) (io.ReadCloser, error)

func plainReader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(r), nil
}

func gzipReader(r io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(r)
}

func xzReader(r io.Reader) (io.ReadCloser, error) {
	xr, err := xz.NewReader(r)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(xr), nil
}

func bzip2Reader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(bzip2.NewReader(r)), nil
}

func zstdReader(r io.Reader) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	return dec.IOReadCloser(), nil
}

// tarStrategy unpacks a (possibly compressed) tar stream entry by entry.
type tarStrategy struct {
	open openFunc
}

func (s tarStrategy) Extract(ctx context.Context, src, outputDir string, p progress.Reporter) error {
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

	return untar(ctx, stream, outputDir, p)
}

// untar reads tar entries from r into outputDir. Entry count is unknown up
// front, so progress is started without a total.
func untar(ctx context.Context, r io.Reader, outputDir string, p progress.Reporter) error {
	tr := tar.NewReader(r)

	p.Start("extracting", -1)
	defer p.Done()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar entry: %w", err)
		}

		dest, err := entryPath(outputDir, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(dest, hdr.FileInfo().Mode().Perm()|0700); err != nil {
				return fmt.Errorf("create directory %s: %w", hdr.Name, err)
			}

		case tar.TypeReg:
			if err := writeFile(dest, tr, hdr.FileInfo().Mode()); err != nil {
				return fmt.Errorf("write entry %s: %w", hdr.Name, err)
			}

		case tar.TypeSymlink:
			target := hdr.Linkname
			resolved := target
			if !filepath.IsAbs(resolved) {
				resolved = filepath.Join(filepath.Dir(dest), target)
			}
			if !withinDir(outputDir, resolved) {
				return fmt.Errorf("symlink %s points outside the output directory: %s", hdr.Name, target)
			}
			if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
				return fmt.Errorf("create directory for %s: %w", hdr.Name, err)
			}
			os.Remove(dest)
			if err := os.Symlink(target, dest); err != nil {
				return fmt.Errorf("create symlink %s: %w", hdr.Name, err)
			}

		case tar.TypeLink:
			linkSrc, err := entryPath(outputDir, hdr.Linkname)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
				return fmt.Errorf("create directory for %s: %w", hdr.Name, err)
			}
			os.Remove(dest)
			if err := os.Link(linkSrc, dest); err != nil {
				return fmt.Errorf("create hard link %s: %w", hdr.Name, err)
			}

		default:
			// Devices, fifos and pax metadata have no place in an install tree.
			continue
		}

		p.Add(1)
	}
}
