package pipeline

import (
	"encoding/csv"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/lead-radar/radar-cli/internal/model"
)

// Output formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Export writes the lead list to opts.Output in the configured format. The
// file is written next to its destination and renamed into place, so a
// failed run never leaves a partial file behind. Dry runs write nothing.
func Export(leads []model.Lead, opts *Options) error {
	if opts.DryRun {
		zap.L().Info("pipeline: dry run, skipping export",
			zap.Int("leads", len(leads)),
		)
		return nil
	}

	if dir := filepath.Dir(opts.Output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "pipeline: create output directory %s", dir)
		}
	}

	var err error
	switch opts.Format {
	case FormatXLSX:
		err = exportXLSX(leads, opts.Output)
	default:
		err = exportCSV(leads, opts.Output)
	}
	if err != nil {
		return err
	}

	zap.L().Info("pipeline: wrote leads",
		zap.String("path", opts.Output),
		zap.String("format", formatOrDefault(opts.Format)),
		zap.Int("leads", len(leads)),
	)
	return nil
}

func formatOrDefault(format string) string {
	if format == "" {
		return FormatCSV
	}
	return format
}

func exportCSV(leads []model.Lead, path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".radar-*.csv")
	if err != nil {
		return eris.Wrap(err, "pipeline: create temp output file")
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(model.OutputColumns); err != nil {
		tmp.Close()
		return eris.Wrap(err, "pipeline: write CSV header")
	}
	for i := range leads {
		if err := w.Write(leads[i].Row()); err != nil {
			tmp.Close()
			return eris.Wrap(err, "pipeline: write CSV row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return eris.Wrap(err, "pipeline: flush CSV output")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "pipeline: close temp output file")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return eris.Wrapf(err, "pipeline: move output into place at %s", path)
	}
	return nil
}

func exportXLSX(leads []model.Lead, path string) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Leads")
	if err != nil {
		return eris.Wrap(err, "pipeline: create XLSX sheet")
	}

	header := sheet.AddRow()
	for _, col := range model.OutputColumns {
		header.AddCell().SetString(col)
	}
	for i := range leads {
		row := sheet.AddRow()
		for _, value := range leads[i].Row() {
			row.AddCell().SetString(value)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".radar-*.xlsx")
	if err != nil {
		return eris.Wrap(err, "pipeline: create temp output file")
	}
	defer os.Remove(tmp.Name())

	if err := file.Write(tmp); err != nil {
		tmp.Close()
		return eris.Wrap(err, "pipeline: write XLSX output")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "pipeline: close temp output file")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return eris.Wrapf(err, "pipeline: move output into place at %s", path)
	}
	return nil
}
