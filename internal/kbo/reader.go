package kbo

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/lead-radar/radar-cli/internal/fetcher"
)

// Row is one table row with normalized header keys.
type Row map[string]string

// Get returns the first non-empty value among the given keys.
func (r Row) Get(keys ...string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(r[key]); value != "" {
			return value
		}
	}
	return ""
}

// Find returns the first non-empty value whose key contains any of the given
// substrings. Used as a last resort when a dump renames a column beyond the
// alias table.
func (r Row) Find(substrings ...string) string {
	for key, value := range r {
		for _, sub := range substrings {
			if strings.Contains(key, sub) {
				if cleaned := strings.TrimSpace(value); cleaned != "" {
					return cleaned
				}
			}
		}
	}
	return ""
}

// Table reads one located registry file. Every ForEach call re-opens the
// file, so a table can be scanned twice (establishment lookup pass, then
// merge pass) without buffering it in memory.
type Table struct {
	Path    string
	Dataset Dataset
}

// NewTable wraps a located file path.
func NewTable(dataset Dataset, path string) *Table {
	return &Table{Path: path, Dataset: dataset}
}

// ForEach streams the table, invoking fn for every structurally valid row.
// Rows whose field count does not match the header are skipped and counted,
// never fatal; the skip count is returned. fn returning a non-nil error
// stops the scan; ErrStopScan stops it without failing the call.
func (t *Table) ForEach(ctx context.Context, fn func(Row) error) (skipped int, err error) {
	headerCh := make(chan []string, 1)
	rowCh, errCh, closer, err := fetcher.OpenCSV(ctx, t.Path, fetcher.CSVOptions{HeaderCh: headerCh})
	if err != nil {
		return 0, err
	}
	defer closer.Close() //nolint:errcheck

	var header []string
	stopped := false
	for raw := range rowCh {
		if header == nil {
			select {
			case h := <-headerCh:
				header = normalizeHeaderRow(h)
			default:
				// Header channel fires before the first data row; reaching
				// here means the file had no header at all.
				return skipped, eris.Errorf("kbo: %s has no header row", t.Path)
			}
		}

		if stopped {
			continue // drain so the reader goroutine can exit
		}

		if len(raw.Fields) != len(header) {
			skipped++
			zap.L().Debug("kbo: skipping malformed row",
				zap.String("table", string(t.Dataset)),
				zap.Int("line", raw.Line),
				zap.Int("want_columns", len(header)),
				zap.Int("got_columns", len(raw.Fields)),
			)
			continue
		}

		row := make(Row, len(header))
		for i, key := range header {
			row[key] = raw.Fields[i]
		}

		if fnErr := fn(row); fnErr != nil {
			if eris.Is(fnErr, ErrStopScan) {
				stopped = true
				continue
			}
			return skipped, fnErr
		}
	}

	for streamErr := range errCh {
		if streamErr != nil {
			return skipped, eris.Wrapf(streamErr, "kbo: stream %s", t.Path)
		}
	}

	if skipped > 0 {
		zap.L().Warn("kbo: malformed rows skipped",
			zap.String("table", string(t.Dataset)),
			zap.Int("skipped", skipped),
		)
	}

	return skipped, nil
}

// ErrStopScan stops a ForEach scan early without reporting failure.
var ErrStopScan = eris.New("stop scan")

func normalizeHeaderRow(header []string) []string {
	normalized := make([]string, len(header))
	for i, name := range header {
		normalized[i] = NormalizeHeader(name)
	}
	return normalized
}
