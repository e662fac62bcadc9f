package config

import (
	"fmt"
	"time"

	"depara/internal/diagnostic"
	"depara/internal/match"
)

// Version is reported by the health endpoint and in the summary sheet.
const Version = "1.0.0"

// Config is the complete configuration of one process. It is built once and
// passed explicitly to every component.
type Config struct {
	// Weights is the raw weight input: a list of four numbers or a
	// comma-separated string. nil means "use the default".
	Weights      any     `yaml:"weights,omitempty"`
	Threshold    float64 `yaml:"threshold"`
	TopN         int     `yaml:"top_n"`
	Workers      int     `yaml:"workers"`
	NoMatchLabel string  `yaml:"no_match_label"`

	Sheets Sheets `yaml:"sheets"`
	Crawl  Crawl  `yaml:"crawl"`
	Rerank Rerank `yaml:"rerank"`
	Server Server `yaml:"server"`

	LogLevel string `yaml:"log_level"`
}

// Sheets names the workbook sheets that are read and written.
type Sheets struct {
	Source     string `yaml:"source"`
	Candidates string `yaml:"candidates"`
	Result     string `yaml:"result"`
	Summary    string `yaml:"summary"`
}

// Crawl configures page metadata enrichment.
type Crawl struct {
	Enabled           bool          `yaml:"enabled"`
	Timeout           time.Duration `yaml:"timeout"`
	Retries           int           `yaml:"retries"`
	Concurrency       int           `yaml:"concurrency"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	UserAgents        []string      `yaml:"user_agents,omitempty"`
}

// Rerank configures the external re-ranking service.
type Rerank struct {
	Endpoint          string        `yaml:"endpoint"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	TopN              int           `yaml:"top_n"`
}

// Server configures the HTTP backend.
type Server struct {
	Addr         string `yaml:"addr"`
	MaxBodyBytes int64  `yaml:"max_body_bytes"`
}

// Defaults.
const (
	DefaultNoMatchLabel    = "NO_MATCH_AVAILABLE"
	DefaultSourceSheet     = "DE"
	DefaultCandidatesSheet = "RASTREIO"
	DefaultResultSheet     = "DE_x_PARA_Resultado"
	DefaultSummarySheet    = "Resumo"
	DefaultRerankTopN      = 5
	DefaultAddr            = ":8080"
	DefaultMaxBodyBytes    = 32 << 20
	DefaultLogLevel        = "info"
)

// Default returns the configuration used when no file is given.
func Default() Config {
	cfg := Config{
		Threshold: match.DefaultThreshold,
		Crawl:     Crawl{Retries: 2},
	}
	applyDefaults(&cfg)

	return cfg
}

// applyDefaults fills in default values for optional fields.
func applyDefaults(cfg *Config) {
	if cfg.TopN <= 0 {
		cfg.TopN = match.DefaultTopN
	}

	if cfg.Workers < 0 {
		cfg.Workers = 0
	}

	if cfg.NoMatchLabel == "" {
		cfg.NoMatchLabel = DefaultNoMatchLabel
	}

	if cfg.Sheets.Source == "" {
		cfg.Sheets.Source = DefaultSourceSheet
	}

	if cfg.Sheets.Candidates == "" {
		cfg.Sheets.Candidates = DefaultCandidatesSheet
	}

	if cfg.Sheets.Result == "" {
		cfg.Sheets.Result = DefaultResultSheet
	}

	if cfg.Sheets.Summary == "" {
		cfg.Sheets.Summary = DefaultSummarySheet
	}

	if cfg.Crawl.Timeout <= 0 {
		cfg.Crawl.Timeout = 20 * time.Second
	}

	if cfg.Crawl.Retries < 0 {
		cfg.Crawl.Retries = 0
	}

	if cfg.Crawl.Concurrency <= 0 {
		cfg.Crawl.Concurrency = 4
	}

	if cfg.Crawl.RequestsPerSecond <= 0 {
		cfg.Crawl.RequestsPerSecond = 5
	}

	if cfg.Rerank.Timeout <= 0 {
		cfg.Rerank.Timeout = 60 * time.Second
	}

	if cfg.Rerank.RequestsPerMinute <= 0 {
		cfg.Rerank.RequestsPerMinute = 30
	}

	if cfg.Rerank.TopN <= 0 {
		cfg.Rerank.TopN = DefaultRerankTopN
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = DefaultAddr
	}

	if cfg.Server.MaxBodyBytes <= 0 {
		cfg.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
}

// MatchWeights returns the normalized weight vector. An unusable configured
// value falls back to match.DefaultWeights and is reported to d.
func (c *Config) MatchWeights(d *diagnostic.Diagnostics) match.WeightVector {
	if c.Weights == nil {
		return match.DefaultWeights()
	}

	w, ok := match.WeightsFrom(c.Weights)
	if !ok && d != nil {
		d.AddWarning(diagnostic.CodeWeightsDefaulted,
			fmt.Sprintf("weights %v are invalid, using %s", c.Weights, w.Format()), "", "")
	}

	return w
}

// MatchThreshold returns the threshold clamped into [0,1], reporting a
// clamp to d.
func (c *Config) MatchThreshold(d *diagnostic.Diagnostics) float64 {
	t, ok := match.NormalizeThreshold(c.Threshold)
	if !ok && d != nil {
		d.AddWarning(diagnostic.CodeThresholdClamped,
			fmt.Sprintf("threshold %v is outside [0,1], using %v", c.Threshold, t), "", "")
	}

	return t
}
