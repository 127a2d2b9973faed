// Package config loads application configuration from config.yaml and
// RADAR_* environment variables, and owns the global logger setup.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Drive    DriveConfig    `yaml:"drive" mapstructure:"drive"`
	Sheets   SheetsConfig   `yaml:"sheets" mapstructure:"sheets"`
	Scoring  ScoringConfig  `yaml:"scoring" mapstructure:"scoring"`
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the run-history database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// DriveConfig configures source archive downloads.
type DriveConfig struct {
	DownloadDir string  `yaml:"download_dir" mapstructure:"download_dir"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int     `yaml:"max_retries" mapstructure:"max_retries"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
}

// SheetsConfig configures spreadsheet publication of the lead list. Token
// is an OAuth bearer token, usually injected via RADAR_SHEETS_TOKEN.
type SheetsConfig struct {
	Token   string `yaml:"token" mapstructure:"token"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Tab     string `yaml:"tab" mapstructure:"tab"`
}

// ScoringConfig points at an optional rule-weight override file.
type ScoringConfig struct {
	WeightsFile string `yaml:"weights_file" mapstructure:"weights_file"`
}

// PipelineConfig holds the lead-build defaults the CLI flags fall back to.
type PipelineConfig struct {
	Months    int      `yaml:"months" mapstructure:"months"`
	MinScore  int      `yaml:"min_score" mapstructure:"min_score"`
	Limit     int      `yaml:"limit" mapstructure:"limit"`
	ChunkSize int      `yaml:"chunk_size" mapstructure:"chunk_size"`
	Format    string   `yaml:"format" mapstructure:"format"`
	Country   string   `yaml:"country" mapstructure:"country"`
	Postcodes []string `yaml:"postcodes" mapstructure:"postcodes"`
	Cities    []string `yaml:"cities" mapstructure:"cities"`
}

// PostcodeSet returns the configured target postcodes as a lookup set.
func (p *PipelineConfig) PostcodeSet() map[string]bool {
	set := make(map[string]bool, len(p.Postcodes))
	for _, code := range p.Postcodes {
		if cleaned := strings.TrimSpace(code); cleaned != "" {
			set[cleaned] = true
		}
	}
	return set
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// defaultPostcodes is the Denderstreek target region used when no postcode
// list is configured or passed on the command line.
var defaultPostcodes = []string{
	"1540", "1700", "1750", "1760", "1770",
	"9300", "9400", "9402", "9406", "9500", "9620",
}

// defaultCities is the fallback city filter for dumps with poor postcode
// coverage.
var defaultCities = []string{
	"aalst", "affligem", "denderleeuw", "galmaarden", "geraardsbergen",
	"gooik", "herzele", "lennik", "lierde", "ninove",
	"roosdaal", "sint-lievens-houtem",
}

// supportedCountries limits the registry formats the pipeline understands.
var supportedCountries = map[string]bool{"BE": true}

// SupportedCountry reports whether a country code has a built-in pipeline.
func SupportedCountry(code string) bool {
	return supportedCountries[strings.ToUpper(strings.TrimSpace(code))]
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("RADAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "data/radar.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("drive.download_dir", "data/downloads")
	v.SetDefault("drive.timeout_secs", 120)
	v.SetDefault("drive.max_retries", 3)
	v.SetDefault("drive.rate_per_sec", 2.0)
	v.SetDefault("drive.user_agent", "radar-cli/1.0")
	v.SetDefault("sheets.token", "")
	v.SetDefault("sheets.base_url", "https://sheets.googleapis.com/v4/spreadsheets")
	v.SetDefault("sheets.tab", "Leads")
	v.SetDefault("pipeline.months", 18)
	v.SetDefault("pipeline.min_score", 40)
	v.SetDefault("pipeline.limit", 200)
	v.SetDefault("pipeline.chunk_size", 200_000)
	v.SetDefault("pipeline.format", "csv")
	v.SetDefault("pipeline.country", "BE")
	v.SetDefault("pipeline.postcodes", defaultPostcodes)
	v.SetDefault("pipeline.cities", defaultCities)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the configuration before any input is opened. Problems
// found here are configuration errors, reported in one batch.
func (c *Config) Validate() error {
	var problems []string

	country := strings.ToUpper(strings.TrimSpace(c.Pipeline.Country))
	if !supportedCountries[country] {
		problems = append(problems, "pipeline.country must be one of: BE")
	}
	if c.Pipeline.Months < 1 {
		problems = append(problems, "pipeline.months must be >= 1")
	}
	if c.Pipeline.MinScore < 0 || c.Pipeline.MinScore > 100 {
		problems = append(problems, "pipeline.min_score must be between 0 and 100")
	}
	if c.Pipeline.Limit < 0 {
		problems = append(problems, "pipeline.limit must be >= 0")
	}
	if c.Pipeline.ChunkSize < 1 {
		problems = append(problems, "pipeline.chunk_size must be >= 1")
	}
	switch c.Store.Driver {
	case "sqlite", "postgres", "none":
	default:
		problems = append(problems, "store.driver must be sqlite, postgres or none")
	}
	if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
		problems = append(problems, "store.database_url is required for the postgres driver")
	}

	if len(problems) > 0 {
		return eris.Errorf("config: invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
