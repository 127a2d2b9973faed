// Package sheets pushes lead lists to a Google Sheets worksheet through the
// Sheets v4 values API.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const defaultBaseURL = "https://sheets.googleapis.com/v4/spreadsheets"

// ErrNotSheetURL is returned when a link does not carry a spreadsheet id.
var ErrNotSheetURL = eris.New("sheets: not a google sheet url")

var sheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([^/?#]+)`)

// ExtractSheetID pulls the spreadsheet id out of a docs.google.com link.
func ExtractSheetID(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", eris.Wrap(err, "sheets: parse url")
	}
	if !strings.HasSuffix(u.Host, "docs.google.com") {
		return "", ErrNotSheetURL
	}
	if m := sheetIDPattern.FindStringSubmatch(u.Path); m != nil {
		return m[1], nil
	}
	return "", ErrNotSheetURL
}

// Client uploads rows to a spreadsheet tab.
type Client interface {
	Upload(ctx context.Context, spreadsheetID, tab string, rows [][]string) error
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the Sheets API base URL.
func WithBaseURL(base string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(base, "/")
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	token   string
	baseURL string
	http    *http.Client
}

// NewClient creates a Sheets client authenticated with a bearer token.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:   token,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type valueRange struct {
	Range          string     `json:"range,omitempty"`
	MajorDimension string     `json:"majorDimension,omitempty"`
	Values         [][]string `json:"values"`
}

// Upload clears the tab and writes rows starting at A1. An empty row set is
// replaced with a single "no_data" marker row so the sheet never ends up
// silently blank.
func (c *httpClient) Upload(ctx context.Context, spreadsheetID, tab string, rows [][]string) error {
	if len(rows) == 0 {
		rows = [][]string{{"no_data"}}
	}

	if err := c.clear(ctx, spreadsheetID, tab); err != nil {
		return err
	}

	body := valueRange{
		Range:          tab + "!A1",
		MajorDimension: "ROWS",
		Values:         rows,
	}
	endpoint := c.baseURL + "/" + url.PathEscape(spreadsheetID) +
		"/values/" + url.PathEscape(tab+"!A1") + "?valueInputOption=RAW"
	if err := c.do(ctx, http.MethodPut, endpoint, body); err != nil {
		return eris.Wrap(err, "sheets: update values")
	}

	zap.L().Info("sheets: upload complete",
		zap.String("spreadsheet_id", spreadsheetID),
		zap.String("tab", tab),
		zap.Int("rows", len(rows)),
	)
	return nil
}

func (c *httpClient) clear(ctx context.Context, spreadsheetID, tab string) error {
	endpoint := c.baseURL + "/" + url.PathEscape(spreadsheetID) +
		"/values/" + url.PathEscape(tab) + ":clear"
	if err := c.do(ctx, http.MethodPost, endpoint, struct{}{}); err != nil {
		return eris.Wrap(err, "sheets: clear tab")
	}
	return nil
}

func (c *httpClient) do(ctx context.Context, method, endpoint string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return eris.Wrap(err, "sheets: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(raw))
	if err != nil {
		return eris.Wrap(err, "sheets: build request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "sheets: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return eris.Errorf("sheets: api returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return nil
}
