// Package fetch downloads artifacts into a local cache directory, resuming
// partial downloads with HTTP byte ranges.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/wengchengjian/env/internal/logging"
	"github.com/wengchengjian/env/pkg/errdefs"
	"github.com/wengchengjian/env/pkg/progress"
)

const (
	// DefaultProbeTimeout bounds the metadata (HEAD) request.
	DefaultProbeTimeout = 30 * time.Second
	// DefaultDownloadTimeout bounds the whole streamed download.
	DefaultDownloadTimeout = 30 * time.Minute
	// DefaultUserAgent is sent with every request.
	DefaultUserAgent = "devenv/1.0"

	chunkSize    = 32 * 1024
	maxRedirects = 10
)

// Fetcher downloads URLs into a cache directory.
type Fetcher struct {
	client          *http.Client
	cacheDir        string
	userAgent       string
	probeTimeout    time.Duration
	downloadTimeout time.Duration
	logger          *log.Logger
	progress        progress.Reporter
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient overrides the HTTP client.
func WithClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// WithTimeout sets the probe and download timeouts. Zero keeps the default.
func WithTimeout(probe, download time.Duration) Option {
	return func(f *Fetcher) {
		if probe > 0 {
			f.probeTimeout = probe
		}
		if download > 0 {
			f.downloadTimeout = download
		}
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *log.Logger) Option {
	return func(f *Fetcher) {
		f.logger = l
	}
}

// WithProgress sets the progress reporter.
func WithProgress(p progress.Reporter) Option {
	return func(f *Fetcher) {
		f.progress = p
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// New creates a Fetcher storing files beneath cacheDir.
func New(cacheDir string, opts ...Option) *Fetcher {
	f := &Fetcher{
		client: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		cacheDir:        cacheDir,
		userAgent:       DefaultUserAgent,
		probeTimeout:    DefaultProbeTimeout,
		downloadTimeout: DefaultDownloadTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = logging.OrDiscard(f.logger)
	f.progress = progress.OrNop(f.progress)
	return f
}

// CacheDir returns the directory downloads are stored in.
func (f *Fetcher) CacheDir() string {
	return f.cacheDir
}

// CachePath returns the cache file used for rawURL. The name is the last
// segment of the URL path.
func (f *Fetcher) CachePath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", errdefs.Config("parse url", rawURL, err)
	}
	name := path.Base(u.Path)
	if name == "" || name == "/" || name == "." {
		return "", errdefs.Newf(errdefs.KindConfig, "derive cache name", rawURL, "url has no file name")
	}
	return filepath.Join(f.cacheDir, name), nil
}

// Fetch downloads rawURL to the cache and returns the cache file path.
//
// An existing cache file is treated as a partial download: the last byte is
// discarded and re-requested with a byte range starting at size-1. The cache
// file is never deleted here; callers remove it after successful use.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	dest, err := f.CachePath(rawURL)
	if err != nil {
		return "", err
	}

	total, err := f.probe(ctx, rawURL)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(f.cacheDir, 0755); err != nil {
		return "", errdefs.IO("create cache dir", f.cacheDir, err)
	}

	var offset int64
	if info, statErr := os.Stat(dest); statErr == nil && info.Size() > 0 {
		offset = info.Size() - 1
	}

	f.logger.Debug("fetching", "url", rawURL, "dest", dest, "total", total, "offset", offset)

	if err := f.download(ctx, rawURL, dest, offset, total); err != nil {
		return "", err
	}

	return dest, nil
}

// probe issues a HEAD request and returns the advertised size, or -1.
func (f *Fetcher) probe(ctx context.Context, rawURL string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, f.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return 0, errdefs.Network("create probe request", rawURL, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, errdefs.Network("probe", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, errdefs.Newf(errdefs.KindNetwork, "probe", rawURL, "unexpected status code: %d", resp.StatusCode)
	}

	return resp.ContentLength, nil
}

// download streams the body into dest, appending from offset.
func (f *Fetcher) download(ctx context.Context, rawURL, dest string, offset, total int64) error {
	ctx, cancel := context.WithTimeout(ctx, f.downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return errdefs.Network("create request", rawURL, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	resuming := offset > 0
	if resuming {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return errdefs.Network("request", rawURL, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusPartialContent && resuming:
		if start, ok := rangeStart(resp.Header.Get("Content-Range")); !ok || start != offset {
			f.logger.Warn("server answered a different range, restarting download",
				"url", rawURL, "requested", offset, "content_range", resp.Header.Get("Content-Range"))
			resp.Body.Close()
			if err := os.Truncate(dest, 0); err != nil {
				return errdefs.IO("truncate cache file", dest, err)
			}
			return f.download(ctx, rawURL, dest, 0, total)
		}
		// Drop the suspect trailing byte; the server sends it again.
		if err := os.Truncate(dest, offset); err != nil {
			return errdefs.IO("truncate cache file", dest, err)
		}
	case resp.StatusCode == http.StatusRequestedRangeNotSatisfiable && resuming:
		return f.checkComplete(rawURL, dest, total)
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		if resuming {
			f.logger.Warn("server ignored range request, restarting download", "url", rawURL)
			offset = 0
		}
		if err := os.Truncate(dest, 0); err != nil && !errors.Is(err, os.ErrNotExist) {
			return errdefs.IO("truncate cache file", dest, err)
		}
	default:
		return errdefs.Newf(errdefs.KindNetwork, "download", rawURL, "unexpected status code: %d", resp.StatusCode)
	}

	file, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return errdefs.IO("open cache file", dest, err)
	}
	defer file.Close()

	remaining := int64(-1)
	if total >= 0 {
		remaining = total - offset
	}
	f.progress.Start(filepath.Base(dest), remaining)
	defer f.progress.Done()

	written, err := f.stream(resp.Body, file, rawURL, dest)
	if err != nil {
		return err
	}
	if err := file.Sync(); err != nil {
		return errdefs.IO("sync cache file", dest, err)
	}

	if total >= 0 && offset+written != total {
		return errdefs.Newf(errdefs.KindNetwork, "download", rawURL,
			"short body: have %d of %d bytes", offset+written, total)
	}

	f.logger.Debug("fetched", "dest", dest, "bytes", written)
	return nil
}

// stream copies body into file chunk by chunk so progress can advance and
// read failures can be told apart from write failures.
func (f *Fetcher) stream(body io.Reader, file *os.File, rawURL, dest string) (int64, error) {
	buf := make([]byte, chunkSize)
	var written int64
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			if _, err := file.Write(buf[:n]); err != nil {
				return written, errdefs.IO("write cache file", dest, err)
			}
			written += int64(n)
			f.progress.Add(int64(n))
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, errdefs.Network("read body", rawURL, readErr)
		}
	}
}

// checkComplete handles a 416 reply: the cache file is complete only when
// its size is at least the advertised total.
func (f *Fetcher) checkComplete(rawURL, dest string, total int64) error {
	info, err := os.Stat(dest)
	if err != nil {
		return errdefs.IO("stat cache file", dest, err)
	}
	if total < 0 || info.Size() < total {
		return errdefs.Newf(errdefs.KindNetwork, "download", rawURL,
			"range not satisfiable at %d bytes", info.Size())
	}
	if info.Size() > total {
		if err := os.Truncate(dest, total); err != nil {
			return errdefs.IO("truncate cache file", dest, err)
		}
	}
	return nil
}

// Clean removes everything in the cache directory and returns the number of
// entries removed.
func (f *Fetcher) Clean() (int, error) {
	entries, err := os.ReadDir(f.cacheDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, errdefs.IO("read cache dir", f.cacheDir, err)
	}

	removed := 0
	for _, entry := range entries {
		p := filepath.Join(f.cacheDir, entry.Name())
		if err := os.RemoveAll(p); err != nil {
			return removed, errdefs.IO("remove cache entry", p, err)
		}
		removed++
	}
	return removed, nil
}

// rangeStart returns the first byte position of a Content-Range value such
// as "bytes 100-199/200".
func rangeStart(header string) (int64, bool) {
	spec, ok := strings.CutPrefix(strings.TrimSpace(header), "bytes ")
	if !ok {
		return 0, false
	}
	first, _, ok := strings.Cut(spec, "-")
	if !ok {
		return 0, false
	}
	start, err := strconv.ParseInt(strings.TrimSpace(first), 10, 64)
	if err != nil || start < 0 {
		return 0, false
	}
	return start, true
}
