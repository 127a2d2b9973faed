package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/lead-radar/radar-cli/internal/config"
	"github.com/lead-radar/radar-cli/internal/fetcher"
	"github.com/lead-radar/radar-cli/internal/kbo"
	"github.com/lead-radar/radar-cli/internal/model"
	"github.com/lead-radar/radar-cli/internal/pipeline"
	"github.com/lead-radar/radar-cli/internal/scorer"
	"github.com/lead-radar/radar-cli/pkg/drive"
	"github.com/lead-radar/radar-cli/pkg/sheets"
)

var (
	runInput       string
	runOutput      string
	runFormat      string
	runCountry     string
	runCity        string
	runQuery       string
	runPostcodes   string
	runMonths      int
	runMinScore    int
	runLimit       int
	runLite        bool
	runFast        bool
	runChunkSize   int
	runDryRun      bool
	runDebugStats  bool
	runDriveZip    string
	runDownloadDir string
	runSheetURL    string
	runSheetTab    string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Build and export the lead list",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if !config.SupportedCountry(runCountry) {
			return eris.Errorf("unsupported country %q (supported: BE)", runCountry)
		}

		inputDir, err := resolveInputDir(ctx)
		if err != nil {
			return err
		}

		minScore := runMinScore
		if runLite {
			// Lite dumps carry no activities, so sector points never
			// accrue and the default threshold would drop everything.
			minScore = 0
		}

		opts := pipeline.Options{
			InputDir:  inputDir,
			Output:    runOutput,
			Format:    runFormat,
			Postcodes: parsePostcodes(runPostcodes),
			City:      runCity,
			Query:     strings.ToLower(strings.TrimSpace(runQuery)),
			MinScore:  minScore,
			Limit:     runLimit,
			Months:    runMonths,
			Lite:      runLite,
			Fast:      runFast,
			ChunkSize: runChunkSize,
			DryRun:    runDryRun,
			Rules:     loadRules(runMonths),
		}

		p, err := pipeline.New(opts)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		record, err := st.CreateRun(ctx, runParams(&opts))
		if err != nil {
			return eris.Wrap(err, "record run start")
		}

		started := time.Now()
		leads, stats, err := p.Build(ctx)
		if err != nil {
			if failErr := st.FailRun(ctx, record.ID, err.Error()); failErr != nil {
				zap.L().Warn("could not record run failure", zap.Error(failErr))
			}
			return eris.Wrap(err, "build leads")
		}

		if runDebugStats {
			printDebugStats(os.Stdout, leads)
		}

		if err := pipeline.Export(leads, &opts); err != nil {
			if failErr := st.FailRun(ctx, record.ID, err.Error()); failErr != nil {
				zap.L().Warn("could not record run failure", zap.Error(failErr))
			}
			return eris.Wrap(err, "export leads")
		}

		if err := st.CompleteRun(ctx, record.ID, runStats(leads, stats, time.Since(started))); err != nil {
			zap.L().Warn("could not record run completion", zap.Error(err))
		}

		if runDryRun {
			fmt.Fprintf(os.Stdout, "Dry run complete: %d leads would be written to %s\n", len(leads), runOutput)
			return nil
		}

		fmt.Fprintf(os.Stdout, "Wrote %d leads to %s\n", len(leads), runOutput)

		if runSheetURL != "" {
			// Sheet publication is best effort; the exported file on disk
			// is the source of truth.
			if err := uploadToSheet(ctx, leads); err != nil {
				zap.L().Warn("sheet upload failed", zap.Error(err))
				fmt.Fprintf(os.Stderr, "WARNING: unable to upload to sheet: %v\n", err)
			} else {
				fmt.Fprintf(os.Stdout, "Uploaded leads to sheet tab %q\n", runSheetTab)
			}
		}

		return nil
	},
}

// resolveInputDir returns the local input directory, downloading and
// extracting the Drive archive first when one is configured. A Drive failure
// falls back to --input when that directory exists.
func resolveInputDir(ctx context.Context) (string, error) {
	if runDriveZip == "" {
		return runInput, nil
	}

	downloader := fetcher.NewDownloader(fetcher.HTTPOptions{
		UserAgent:  cfg.Drive.UserAgent,
		Timeout:    time.Duration(cfg.Drive.TimeoutSecs) * time.Second,
		MaxRetries: cfg.Drive.MaxRetries,
		Limiter:    rate.NewLimiter(rate.Limit(cfg.Drive.RatePerSec), 1),
	})
	client := drive.NewClient(downloader)

	downloadDir := runDownloadDir
	if downloadDir == "" {
		downloadDir = cfg.Drive.DownloadDir
	}

	dir, err := client.FetchZIP(ctx, runDriveZip, downloadDir)
	if err != nil {
		if _, statErr := os.Stat(runInput); statErr == nil {
			zap.L().Warn("drive archive failed, falling back to local input",
				zap.String("input", runInput),
				zap.Error(err),
			)
			return runInput, nil
		}
		return "", eris.Wrap(err, "resolve drive archive")
	}
	return dir, nil
}

// parsePostcodes splits a comma-separated flag value into a postcode set.
// An empty or unparseable value falls back to the configured target region.
func parsePostcodes(raw string) map[string]bool {
	set := map[string]bool{}
	for _, item := range strings.Split(raw, ",") {
		if code := kbo.NormalizePostalCode(item); code != "" {
			set[code] = true
		}
	}
	if len(set) == 0 {
		return cfg.Pipeline.PostcodeSet()
	}
	return set
}

// loadRules returns the scoring rules, applying weight overrides when a
// weights file is configured.
func loadRules(months int) []scorer.Rule {
	rules := scorer.DefaultRules(months)
	if cfg.Scoring.WeightsFile == "" {
		return rules
	}
	overrides, err := scorer.LoadWeights(cfg.Scoring.WeightsFile)
	if err != nil {
		zap.L().Warn("weights file ignored", zap.String("path", cfg.Scoring.WeightsFile), zap.Error(err))
		return rules
	}
	return overrides.Apply(rules)
}

func runParams(opts *pipeline.Options) model.RunParams {
	postcodes := make([]string, 0, len(opts.Postcodes))
	for code := range opts.Postcodes {
		postcodes = append(postcodes, code)
	}
	sort.Strings(postcodes)

	return model.RunParams{
		InputDir:  opts.InputDir,
		Output:    opts.Output,
		Format:    opts.Format,
		Postcodes: postcodes,
		City:      opts.City,
		Query:     opts.Query,
		Months:    opts.Months,
		MinScore:  opts.MinScore,
		Limit:     opts.Limit,
		Lite:      opts.Lite,
		Fast:      opts.Fast,
		DryRun:    opts.DryRun,
	}
}

func runStats(leads []model.Lead, stats *pipeline.Stats, elapsed time.Duration) *model.RunStats {
	sourceVersion := ""
	if len(leads) > 0 {
		sourceVersion = leads[0].SourceVersion
	}
	orphans := stats.Resolver.OrphanEstablishments +
		stats.Resolver.OrphanActivities +
		stats.Resolver.OrphanContacts

	return &model.RunStats{
		SourceVersion:     sourceVersion,
		Merged:            stats.Merged,
		Emitted:           stats.Emitted,
		MalformedRows:     stats.Resolver.MalformedRows,
		OrphanRows:        orphans,
		ValidationDropped: stats.ValidationDropped,
		DuplicatesDropped: stats.DuplicatesDropped,
		DurationMs:        elapsed.Milliseconds(),
	}
}

func uploadToSheet(ctx context.Context, leads []model.Lead) error {
	sheetID, err := sheets.ExtractSheetID(runSheetURL)
	if err != nil {
		return err
	}
	if cfg.Sheets.Token == "" {
		return eris.New("sheets token is not configured (RADAR_SHEETS_TOKEN)")
	}

	rows := make([][]string, 0, len(leads)+1)
	rows = append(rows, model.OutputColumns)
	for i := range leads {
		rows = append(rows, leads[i].Row())
	}

	client := sheets.NewClient(cfg.Sheets.Token, sheets.WithBaseURL(cfg.Sheets.BaseURL))
	return client.Upload(ctx, sheetID, runSheetTab, rows)
}

func init() {
	runCmd.Flags().StringVar(&runInput, "input", "data/kbo", "directory holding the registry CSV dump")
	runCmd.Flags().StringVar(&runOutput, "output", "out/leads.csv", "output file path")
	runCmd.Flags().StringVar(&runFormat, "format", "", "output format: csv or xlsx (default from file extension)")
	runCmd.Flags().StringVar(&runCountry, "country", "BE", "registry country code")
	runCmd.Flags().StringVar(&runCity, "city", "", "filter on city or municipality substring")
	runCmd.Flags().StringVar(&runQuery, "query", "", "keyword filter on business name or sector")
	runCmd.Flags().StringVar(&runPostcodes, "postcodes", "", "comma-separated postcode list (default: configured target region)")
	runCmd.Flags().IntVar(&runMonths, "months", 18, "maximum business age in months")
	runCmd.Flags().IntVar(&runMinScore, "min-score", 40, "minimum score for output")
	runCmd.Flags().IntVar(&runLimit, "limit", 200, "maximum records in output, 0 for unlimited")
	runCmd.Flags().BoolVar(&runLite, "lite", false, "lite mode for dumps without activity data")
	runCmd.Flags().BoolVar(&runFast, "fast", false, "postcode-prefiltered chunked pipeline")
	runCmd.Flags().IntVar(&runChunkSize, "chunksize", pipeline.DefaultChunkSize, "batch size for --fast table reads")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "validate input and report counts without writing output")
	runCmd.Flags().BoolVar(&runDebugStats, "debug-stats", false, "print start-date range and sample enterprise numbers")
	runCmd.Flags().StringVar(&runDriveZip, "input-drive-zip", "", "Google Drive link to a ZIP with the source CSVs")
	runCmd.Flags().StringVar(&runDownloadDir, "download-dir", "", "directory for downloaded archives (default from config)")
	runCmd.Flags().StringVar(&runSheetURL, "sheet-url", "", "Google Sheet URL to push the output to")
	runCmd.Flags().StringVar(&runSheetTab, "sheet-tab", "Leads", "worksheet name for the sheet upload")
	rootCmd.AddCommand(runCmd)
}
