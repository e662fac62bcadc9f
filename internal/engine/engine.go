// Package engine runs the matcher over whole lists: it normalizes and audits
// the input, optionally enriches it, ranks every DE record against the
// RASTREIO pool in parallel and aggregates the selections.
package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"depara/internal/config"
	"depara/internal/diagnostic"
	"depara/internal/match"
	"depara/internal/metrics"
	"depara/internal/record"
	"depara/internal/sheet"
)

// Enricher fills missing metadata of records before matching.
type Enricher interface {
	Enrich(ctx context.Context, recs []record.Record, sheet string) ([]record.Record, diagnostic.Diagnostics, error)
}

// Options controls one run.
type Options struct {
	Weights   match.WeightVector
	Threshold float64
	// TopN is how many ranked candidates are kept per DE record.
	TopN int
	// Workers bounds the parallel workers; 0 means GOMAXPROCS.
	Workers int
	// AmbiguityGap marks a selection ambiguous when the runner-up is this
	// close to the best score.
	AmbiguityGap float64

	SourceSheet     string
	CandidatesSheet string

	// Enricher is optional.
	Enricher Enricher
}

// OptionsFromConfig resolves weights and threshold from cfg, reporting any
// fallback to diags.
func OptionsFromConfig(cfg config.Config, diags *diagnostic.Diagnostics) Options {
	return Options{
		Weights:         cfg.MatchWeights(diags),
		Threshold:       cfg.MatchThreshold(diags),
		TopN:            cfg.TopN,
		Workers:         cfg.Workers,
		AmbiguityGap:    match.DefaultAmbiguityGap,
		SourceSheet:     cfg.Sheets.Source,
		CandidatesSheet: cfg.Sheets.Candidates,
	}
}

// Run is the outcome of one matching run. Results and Selections are in
// the order of the DE input.
type Run struct {
	ID          string                 `json:"runId"`
	Results     []match.MatchResult    `json:"results"`
	Selections  []match.Selection      `json:"selections"`
	Summary     match.RunSummary       `json:"summary"`
	Diagnostics diagnostic.Diagnostics `json:"diagnostics"`
	StartedAt   time.Time              `json:"startedAt"`
	Duration    time.Duration          `json:"duration"`
}

// Report builds the report written for this run.
func (r *Run) Report(noMatchLabel string) sheet.Report {
	return sheet.Report{
		Selections:   r.Selections,
		Summary:      r.Summary,
		RunID:        r.ID,
		GeneratedAt:  r.StartedAt,
		NoMatchLabel: noMatchLabel,
	}
}

// Engine executes runs with fixed options.
type Engine struct {
	opts   Options
	logger *zap.Logger
}

// New creates an Engine. Weights are normalized; a zero or malformed
// vector falls back to match.DefaultWeights. A nil logger discards logs.
func New(opts Options, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	// Weights set directly on Options bypass config parsing; rescale them
	// to sum to 1 so Combine never saturates.
	opts.Weights = match.NormalizeWeights(opts.Weights[:])

	if opts.TopN <= 0 {
		opts.TopN = match.DefaultTopN
	}

	if opts.SourceSheet == "" {
		opts.SourceSheet = config.DefaultSourceSheet
	}

	if opts.CandidatesSheet == "" {
		opts.CandidatesSheet = config.DefaultCandidatesSheet
	}

	return &Engine{opts: opts, logger: logger}
}

// Options returns the effective options.
func (e *Engine) Options() Options {
	return e.opts
}

// RunWorkbook normalizes and audits both lists of wb and runs the matcher.
func (e *Engine) RunWorkbook(ctx context.Context, wb sheet.Workbook) (*Run, error) {
	return e.Run(ctx, record.Normalize(wb.Source), record.Normalize(wb.Candidates))
}

// Run matches every source record against the candidate pool.
//
// Sources are processed by at most Workers goroutines; each worker checks
// the context before starting a record and always finishes a started one.
// A cancelled run returns the context's error.
func (e *Engine) Run(ctx context.Context, sources, candidates []record.Record) (*Run, error) {
	run := &Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
	}

	logger := e.logger.With(zap.String("run_id", run.ID))

	record.Audit(sources, e.opts.SourceSheet, &run.Diagnostics)
	record.Audit(candidates, e.opts.CandidatesSheet, &run.Diagnostics)

	if len(candidates) == 0 {
		run.Diagnostics.AddWarning(diagnostic.CodeNoCandidates,
			"candidate pool is empty, no DE record can be matched", e.opts.CandidatesSheet, "")
	}

	sources, candidates, err := e.enrich(ctx, sources, candidates, &run.Diagnostics)
	if err != nil {
		metrics.RunsTotal.WithLabelValues(statusOf(err)).Inc()

		return nil, err
	}

	workers := e.workers(len(sources))

	logger.Info("matching started",
		zap.Int("sources", len(sources)),
		zap.Int("candidates", len(candidates)),
		zap.Int("workers", workers),
		zap.String("weights", e.opts.Weights.Format()),
		zap.Float64("threshold", e.opts.Threshold),
	)

	run.Results = make([]match.MatchResult, len(sources))
	run.Selections = make([]match.Selection, len(sources))
	ambiguous := make([]bool, len(sources))

	g := new(errgroup.Group)
	g.SetLimit(workers)

	for i := range sources {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			res := match.Match(sources[i], candidates, e.opts.Weights, e.opts.TopN)
			sel := match.Select(sources[i], res.Candidates, e.opts.Threshold)

			run.Results[i] = res
			run.Selections[i] = sel
			ambiguous[i] = e.opts.AmbiguityGap > 0 && res.Candidates.IsAmbiguous(e.opts.AmbiguityGap)

			observe(sel)

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		metrics.RunsTotal.WithLabelValues(statusOf(err)).Inc()
		logger.Warn("matching stopped", zap.Error(err))

		return nil, err
	}

	for i, amb := range ambiguous {
		if !amb {
			continue
		}

		c := run.Results[i].Candidates
		run.Diagnostics.AddInfo(diagnostic.CodeAmbiguousMatch,
			fmt.Sprintf("best candidates %s and %s are within %.2f", c[0].URL, c[1].URL, e.opts.AmbiguityGap),
			e.opts.SourceSheet, sources[i].URL)
	}

	run.Summary = match.Summarize(run.Selections, e.opts.Threshold)
	run.Duration = time.Since(run.StartedAt)

	metrics.RunsTotal.WithLabelValues(metrics.StatusOK).Inc()
	metrics.RunDuration.Observe(run.Duration.Seconds())

	logger.Info("matching finished",
		zap.Int("above_threshold", run.Summary.AboveThresholdCount),
		zap.Int("matched", run.Summary.AnyMatchCount),
		zap.Float64("average_score", run.Summary.AverageScore),
		zap.Duration("duration", run.Duration),
	)
	run.Diagnostics.Log(logger)

	return run, nil
}

func (e *Engine) enrich(
	ctx context.Context,
	sources, candidates []record.Record,
	diags *diagnostic.Diagnostics,
) ([]record.Record, []record.Record, error) {
	if e.opts.Enricher == nil {
		return sources, candidates, nil
	}

	src, d, err := e.opts.Enricher.Enrich(ctx, sources, e.opts.SourceSheet)
	if err != nil {
		return nil, nil, err
	}

	diags.Merge(d)

	cand, d, err := e.opts.Enricher.Enrich(ctx, candidates, e.opts.CandidatesSheet)
	if err != nil {
		return nil, nil, err
	}

	diags.Merge(d)

	return src, cand, nil
}

func (e *Engine) workers(sources int) int {
	n := e.opts.Workers
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}

	return max(min(n, sources), 1)
}

func observe(sel match.Selection) {
	switch {
	case !sel.HasMatch():
		metrics.SourcesMatched.WithLabelValues(metrics.OutcomeNoCandidates).Inc()

		return
	case sel.AboveThreshold:
		metrics.SourcesMatched.WithLabelValues(metrics.OutcomeAboveThreshold).Inc()
	default:
		metrics.SourcesMatched.WithLabelValues(metrics.OutcomeBelowThreshold).Inc()
	}

	metrics.BestScore.Observe(sel.Score())
}

func statusOf(err error) string {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return metrics.StatusCancelled
	}

	return metrics.StatusError
}
