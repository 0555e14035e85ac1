// Package config defines the newsradar application configuration.
package config

import (
	"fmt"
	"sort"
	"time"

	pkgcfg "github.com/caijingx/newsradar/pkg/config"
)

// SourceConfig controls one news source.
type SourceConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Config is the full pipeline configuration, loaded from YAML with
// environment overrides.
type Config struct {
	// Sources maps source IDs (sina, eastmoney) to their settings.
	// Disabled sources are skipped by the registry, not the adapter.
	Sources map[string]SourceConfig `yaml:"sources"`

	// RecencyWindowHours is the trailing window an item's publish time
	// must fall into to be retained.
	RecencyWindowHours int `yaml:"recency_window_hours" env:"RADAR_RECENCY_HOURS"`

	// FetchWorkers bounds concurrent source fetches. Zero means one
	// worker per enabled source.
	FetchWorkers int `yaml:"fetch_workers" env:"RADAR_FETCH_WORKERS"`

	// DetailConcurrency caps parallel detail-page fetches inside one
	// adapter, to keep load on the target site reasonable.
	DetailConcurrency int `yaml:"detail_concurrency" env:"RADAR_DETAIL_CONCURRENCY"`

	HTTPTimeout  pkgcfg.Duration `yaml:"http_timeout" env:"RADAR_HTTP_TIMEOUT"`
	FetchRetries int             `yaml:"fetch_retries" env:"RADAR_FETCH_RETRIES"`

	// PipelineTimeout bounds one whole pipeline run.
	PipelineTimeout pkgcfg.Duration `yaml:"pipeline_timeout" env:"RADAR_PIPELINE_TIMEOUT"`

	KeywordTopK int `yaml:"keyword_top_k" env:"RADAR_KEYWORD_TOP_K"`

	StockMappingPath string `yaml:"stock_mapping_path" env:"RADAR_STOCK_MAPPING"`
	DBPath           string `yaml:"db_path" env:"RADAR_DB"`

	// FetchInterval is the period between runs in serve mode.
	FetchInterval pkgcfg.Duration `yaml:"fetch_interval" env:"RADAR_INTERVAL"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Sources: map[string]SourceConfig{
			"sina":      {Enabled: true},
			"eastmoney": {Enabled: true},
		},
		RecencyWindowHours: 24,
		DetailConcurrency:  5,
		HTTPTimeout:        pkgcfg.Duration(10 * time.Second),
		FetchRetries:       3,
		PipelineTimeout:    pkgcfg.Duration(10 * time.Minute),
		KeywordTopK:        5,
		StockMappingPath:   "data/stock_mapping.json",
		DBPath:             "newsradar.db",
		FetchInterval:      pkgcfg.Duration(24 * time.Hour),
	}
}

// Load reads the config file at path on top of the defaults and validates
// the result. A missing file falls back to defaults plus env overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if err := pkgcfg.LoadOrDefault(path, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations that cannot produce a meaningful run.
func (c Config) Validate() error {
	if len(c.EnabledSources()) == 0 {
		return fmt.Errorf("no sources enabled")
	}
	if c.RecencyWindowHours <= 0 {
		return fmt.Errorf("recency_window_hours must be positive")
	}
	if c.FetchRetries <= 0 {
		return fmt.Errorf("fetch_retries must be positive")
	}
	if c.DetailConcurrency <= 0 {
		return fmt.Errorf("detail_concurrency must be positive")
	}
	if c.KeywordTopK <= 0 {
		return fmt.Errorf("keyword_top_k must be positive")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http_timeout must be positive")
	}
	return nil
}

// EnabledSources returns enabled source IDs in stable order.
func (c Config) EnabledSources() []string {
	var ids []string
	for id, sc := range c.Sources {
		if sc.Enabled {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// RecencyWindow returns the recency window as a duration.
func (c Config) RecencyWindow() time.Duration {
	return time.Duration(c.RecencyWindowHours) * time.Hour
}
