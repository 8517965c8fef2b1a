package archive

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/wengchengjian/env/internal/logging"
	"github.com/wengchengjian/env/pkg/errdefs"
	"github.com/wengchengjian/env/pkg/progress"
)

// Strategy extracts one archive format into an output directory.
type Strategy interface {
	Extract(ctx context.Context, src, outputDir string, p progress.Reporter) error
}

// StrategyFunc adapts a function to the Strategy interface.
type StrategyFunc func(ctx context.Context, src, outputDir string, p progress.Reporter) error

// Extract calls fn.
func (fn StrategyFunc) Extract(ctx context.Context, src, outputDir string, p progress.Reporter) error {
	return fn(ctx, src, outputDir, p)
}

// defaultStrategies binds every supported format to its strategy.
func defaultStrategies() map[Format]Strategy {
	return map[Format]Strategy{
		FormatZip:      StrategyFunc(extractZip),
		FormatTar:      tarStrategy{open: plainReader},
		FormatTarGz:    tarStrategy{open: gzipReader},
		FormatTarXz:    tarStrategy{open: xzReader},
		FormatTarBz2:   tarStrategy{open: bzip2Reader},
		FormatTarZst:   tarStrategy{open: zstdReader},
		FormatGzip:     streamStrategy{format: FormatGzip, open: gzipReader},
		FormatXz:       streamStrategy{format: FormatXz, open: xzReader},
		FormatBzip2:    streamStrategy{format: FormatBzip2, open: bzip2Reader},
		FormatZstd:     streamStrategy{format: FormatZstd, open: zstdReader},
		FormatSevenZip: StrategyFunc(extractSevenZip),
	}
}

// Extractor dispatches files to the strategy for their detected format.
type Extractor struct {
	strategies map[Format]Strategy
	progress   progress.Reporter
	logger     *log.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithProgress sets the entry-count progress reporter.
func WithProgress(p progress.Reporter) Option {
	return func(e *Extractor) {
		e.progress = p
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *log.Logger) Option {
	return func(e *Extractor) {
		e.logger = l
	}
}

// WithStrategy binds f to s, replacing any existing binding.
func WithStrategy(f Format, s Strategy) Option {
	return func(e *Extractor) {
		e.strategies[f] = s
	}
}

// New creates an Extractor with every built-in format registered.
func New(opts ...Option) *Extractor {
	e := &Extractor{strategies: defaultStrategies()}
	for _, opt := range opts {
		opt(e)
	}
	e.progress = progress.OrNop(e.progress)
	e.logger = logging.OrDiscard(e.logger)
	return e
}

// Supports reports whether a strategy is registered for f.
func (e *Extractor) Supports(f Format) bool {
	_, ok := e.strategies[f]
	return ok
}

// Extract unpacks filePath into outputDir and deletes filePath once the
// extraction succeeded. On failure the source file is kept so a retry can
// reuse it.
func (e *Extractor) Extract(ctx context.Context, filePath, outputDir string) error {
	format, err := Detect(filePath)
	if err != nil {
		return err
	}

	strategy, ok := e.strategies[format]
	if !ok {
		return errdefs.Newf(errdefs.KindUnsupportedFormat, "extract", filePath, "no strategy for format %s", format)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return errdefs.Filesystem("create output dir", outputDir, err)
	}

	e.logger.Debug("extracting", "file", filePath, "format", format.String(), "dest", outputDir)

	if err := strategy.Extract(ctx, filePath, outputDir, e.progress); err != nil {
		if errdefs.Categorized(err) {
			return err
		}
		return errdefs.Extraction(fmt.Sprintf("extract %s", format), filePath, err)
	}

	if err := os.Remove(filePath); err != nil {
		return errdefs.Filesystem("remove source archive", filePath, err)
	}

	return nil
}
