// Package fetcher provides the raw I/O plumbing for the pipeline: streaming
// CSV parsing, ZIP extraction and retrying HTTP downloads.
package fetcher

import (
	"bufio"
	"context"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
)

// Row is one parsed CSV line together with its 1-based line number.
type Row struct {
	Line   int
	Fields []string
}

// CSVOptions configures the streaming CSV parser.
type CSVOptions struct {
	Delimiter rune            // 0 = sniff from the first line
	HeaderCh  chan<- []string // optional: receives the header row
}

// SniffDelimiter picks the field delimiter from a header line. Registry dumps
// come with either ';' or ','; the one occurring more often in the header
// wins, with ';' preferred on ties involving at least one ';'.
func SniffDelimiter(header string) rune {
	semis := strings.Count(header, ";")
	commas := strings.Count(header, ",")
	if semis >= commas && semis > 0 {
		return ';'
	}
	return ','
}

// StreamCSV reads a CSV stream and sends data rows to a channel. The first
// row is treated as the header: it is sent to opts.HeaderCh when set and
// never appears on the row channel. Rows whose field count differs from the
// header are sent anyway; structural validation belongs to the consumer,
// which knows the table schema. Both channels are closed when processing
// completes.
func StreamCSV(ctx context.Context, r io.Reader, opts CSVOptions) (<-chan Row, <-chan error) {
	rowCh := make(chan Row, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		br := bufio.NewReader(r)
		stripBOM(br)

		delim := opts.Delimiter
		if delim == 0 {
			head, err := br.Peek(4096)
			if err != nil && err != io.EOF {
				errCh <- eris.Wrap(err, "csv: peek header")
				return
			}
			line, _, _ := strings.Cut(string(head), "\n")
			delim = SniffDelimiter(line)
		}

		reader := csv.NewReader(br)
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1 // column count checked by the consumer

		first := true
		line := 0
		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}

			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "csv: read row")
				return
			}
			line++

			if first {
				first = false
				if opts.HeaderCh != nil {
					select {
					case opts.HeaderCh <- record:
					case <-ctx.Done():
						errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled sending header")
						return
					}
				}
				continue
			}

			select {
			case rowCh <- Row{Line: line, Fields: record}:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}
		}
	}()

	return rowCh, errCh
}

// OpenCSV opens a file for streaming. The caller owns the returned closer and
// must keep it open until the row channel is drained.
func OpenCSV(ctx context.Context, path string, opts CSVOptions) (<-chan Row, <-chan error, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, eris.Wrapf(err, "csv: open %s", path)
	}
	rowCh, errCh := StreamCSV(ctx, f, opts)
	return rowCh, errCh, f, nil
}

// stripBOM discards a UTF-8 byte order mark if present.
func stripBOM(br *bufio.Reader) {
	head, err := br.Peek(3)
	if err == nil && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF {
		_, _ = br.Discard(3)
	}
}
