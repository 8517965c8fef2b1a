// Package archive detects compressed artifact formats and extracts them into
// a directory.
package archive

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/wengchengjian/env/pkg/errdefs"
)

// Format is a supported archive or compression format.
type Format int

const (
	FormatUnknown Format = iota
	FormatZip
	FormatGzip
	FormatTar
	FormatBzip2
	FormatXz
	FormatSevenZip
	FormatTarGz
	FormatTarXz
	FormatTarBz2
	FormatZstd
	FormatTarZst
)

var formatNames = map[Format]string{
	FormatUnknown:  "unknown",
	FormatZip:      "zip",
	FormatGzip:     "gz",
	FormatTar:      "tar",
	FormatBzip2:    "bz2",
	FormatXz:       "xz",
	FormatSevenZip: "7z",
	FormatTarGz:    "tar.gz",
	FormatTarXz:    "tar.xz",
	FormatTarBz2:   "tar.bz2",
	FormatZstd:     "zst",
	FormatTarZst:   "tar.zst",
}

// String returns the conventional extension of the format.
func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return "unknown"
}

// compoundSuffixes are checked after the tar.gz substring rule and before
// the plain extension table.
var compoundSuffixes = []struct {
	suffix string
	format Format
}{
	{".tgz", FormatTarGz},
	{".tar.xz", FormatTarXz},
	{".txz", FormatTarXz},
	{".tar.bz2", FormatTarBz2},
	{".tbz2", FormatTarBz2},
	{".tbz", FormatTarBz2},
	{".tar.zst", FormatTarZst},
}

var extensionTable = map[string]Format{
	"zip": FormatZip,
	"gz":  FormatGzip,
	"tar": FormatTar,
	"bz2": FormatBzip2,
	"xz":  FormatXz,
	"7z":  FormatSevenZip,
	"zst": FormatZstd,
}

// sniffLen is the number of leading bytes compared against magic numbers.
const sniffLen = 6

var magicTable = []struct {
	magic  []byte
	format Format
}{
	{[]byte{0x50, 0x4B, 0x03, 0x04}, FormatZip},
	{[]byte{0x1F, 0x8B}, FormatGzip},
	{[]byte{0x42, 0x5A, 0x68}, FormatBzip2},
	{[]byte{0xFD, 0x37, 0x7A, 0x58, 0x5A, 0x00}, FormatXz},
	{[]byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C}, FormatSevenZip},
	{[]byte{0x28, 0xB5, 0x2F, 0xFD}, FormatZstd},
}

// Detect determines the format of the file at path.
//
// A name containing ".tar.gz" always wins. Otherwise compound tar suffixes,
// then the file extension, then the leading magic bytes are consulted. Tar
// has no reliable magic and is only reached by extension.
func Detect(path string) (Format, error) {
	name := strings.ToLower(filepath.Base(path))

	if strings.Contains(name, ".tar.gz") {
		return FormatTarGz, nil
	}

	for _, cs := range compoundSuffixes {
		if strings.HasSuffix(name, cs.suffix) {
			return cs.format, nil
		}
	}

	if ext := strings.TrimPrefix(filepath.Ext(name), "."); ext != "" {
		if f, ok := extensionTable[ext]; ok {
			return f, nil
		}
	}

	head, err := readHead(path)
	if err != nil {
		return FormatUnknown, errdefs.Unsupported("sniff format", path, err)
	}
	if f := sniff(head); f != FormatUnknown {
		return f, nil
	}

	return FormatUnknown, errdefs.Newf(errdefs.KindUnsupportedFormat, "detect format", path,
		"unrecognized extension and magic bytes")
}

func readHead(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return head[:n], nil
}

func sniff(head []byte) Format {
	for _, m := range magicTable {
		if bytes.HasPrefix(head, m.magic) {
			return m.format
		}
	}
	return FormatUnknown
}

// stripExtension returns name without the single-stream compression
// extension matching f.
func stripExtension(name string, f Format) string {
	var exts []string
	switch f {
	case FormatGzip:
		exts = []string{".gz"}
	case FormatBzip2:
		exts = []string{".bz2"}
	case FormatXz:
		exts = []string{".xz"}
	case FormatZstd:
		exts = []string{".zst"}
	}
	lower := strings.ToLower(name)
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) && len(name) > len(ext) {
			return name[:len(name)-len(ext)]
		}
	}
	return name
}
