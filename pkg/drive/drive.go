// Package drive fetches shared Google Drive files through the public
// download endpoint. Only link-shared files are supported; no OAuth.
package drive

import (
	"context"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/lead-radar/radar-cli/internal/fetcher"
)

const defaultBaseURL = "https://drive.google.com"

// ErrNotDriveURL is returned when a URL does not point at Google Drive or
// carries no recognizable file id.
var ErrNotDriveURL = eris.New("drive: not a google drive file url")

var fileIDPattern = regexp.MustCompile(`/file/d/([^/?#]+)`)

// ExtractFileID pulls the file id out of a Drive share link. Both the
// /file/d/<id> path form and the ?id=<id> query form are accepted.
func ExtractFileID(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", eris.Wrap(err, "drive: parse url")
	}
	if !strings.HasSuffix(u.Host, "drive.google.com") {
		return "", ErrNotDriveURL
	}
	if m := fileIDPattern.FindStringSubmatch(u.Path); m != nil {
		return m[1], nil
	}
	if id := u.Query().Get("id"); id != "" {
		return id, nil
	}
	return "", ErrNotDriveURL
}

// Client downloads Drive files via the uc?export=download endpoint.
type Client struct {
	baseURL    string
	downloader *fetcher.Downloader
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL overrides the Drive endpoint, used in tests.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(base, "/")
	}
}

// NewClient creates a Drive client on top of the given downloader.
func NewClient(downloader *fetcher.Downloader, opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		downloader: downloader,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DownloadURL builds the direct-download URL for a file id.
func (c *Client) DownloadURL(fileID string) string {
	return c.baseURL + "/uc?export=download&id=" + url.QueryEscape(fileID)
}

// FetchZIP downloads the Drive file behind rawURL into downloadDir and
// extracts the archive into a directory named after the file id. It returns
// the extraction directory.
func (c *Client) FetchZIP(ctx context.Context, rawURL, downloadDir string) (string, error) {
	fileID, err := ExtractFileID(rawURL)
	if err != nil {
		return "", err
	}

	zipPath := filepath.Join(downloadDir, fileID+".zip")
	zap.L().Info("drive: downloading archive",
		zap.String("file_id", fileID),
		zap.String("dest", zipPath),
	)
	if err := c.downloader.Download(ctx, c.DownloadURL(fileID), zipPath); err != nil {
		return "", eris.Wrap(err, "drive: download archive")
	}

	extractDir := filepath.Join(downloadDir, fileID)
	files, err := fetcher.ExtractZIP(zipPath, extractDir)
	if err != nil {
		return "", eris.Wrap(err, "drive: extract archive")
	}
	zap.L().Info("drive: archive extracted",
		zap.String("dir", extractDir),
		zap.Int("files", len(files)),
	)
	return extractDir, nil
}
