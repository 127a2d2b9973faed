package fetcher

import (
	"context"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// HTTPOptions configures the HTTP downloader.
type HTTPOptions struct {
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
	Limiter    *rate.Limiter
}

// Downloader fetches remote files with retry, backoff and rate limiting.
type Downloader struct {
	client  *http.Client
	opts    HTTPOptions
	limiter *rate.Limiter
}

// NewDownloader creates a Downloader with the given options.
func NewDownloader(opts HTTPOptions) *Downloader {
	if opts.Timeout == 0 {
		opts.Timeout = 5 * time.Minute
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "radar-cli/1.0"
	}
	limiter := opts.Limiter
	if limiter == nil {
		limiter = rate.NewLimiter(2, 2)
	}
	return &Downloader{
		client:  &http.Client{Timeout: opts.Timeout},
		opts:    opts,
		limiter: limiter,
	}
}

// Download fetches url into destPath, creating parent directories as needed.
// Transient failures (network errors, 429, 5xx) are retried with exponential
// backoff. The file is written to a temp path and renamed on success so a
// failed download never leaves a partial file behind.
func (d *Downloader) Download(ctx context.Context, url, destPath string) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return eris.Wrap(err, "http: create download directory")
	}

	var lastErr error
	for attempt := 0; attempt <= d.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			zap.L().Warn("http: retrying download",
				zap.String("url", url),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
			)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return eris.Wrap(ctx.Err(), "http: context cancelled")
			}
		}

		if err := d.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "http: rate limiter")
		}

		if lastErr = d.fetchOnce(ctx, url, destPath); lastErr == nil {
			return nil
		}
	}

	return eris.Wrapf(lastErr, "http: download %s failed after %d attempts", url, d.opts.MaxRetries+1)
}

func (d *Downloader) fetchOnce(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return eris.Wrap(err, "http: build request")
	}
	req.Header.Set("User-Agent", d.opts.UserAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "http: get")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return eris.Errorf("http: server returned %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("http: unexpected status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".download-*")
	if err != nil {
		return eris.Wrap(err, "http: create temp file")
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()          //nolint:errcheck
		os.Remove(tmpName)   //nolint:errcheck
		return eris.Wrap(err, "http: write body")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName) //nolint:errcheck
		return eris.Wrap(err, "http: close temp file")
	}

	if err := os.Rename(tmpName, destPath); err != nil {
		os.Remove(tmpName) //nolint:errcheck
		return eris.Wrap(err, "http: move into place")
	}

	return nil
}
