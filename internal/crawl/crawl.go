// Package crawl fills missing page metadata (title, description, H1) of
// records by fetching their URLs.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"depara/internal/config"
	"depara/internal/diagnostic"
	"depara/internal/metrics"
	"depara/internal/record"
)

// maxPageBytes bounds how much of a page is read.
const maxPageBytes = 4 << 20

// ErrNotHTML is returned for responses that are not HTML documents.
var ErrNotHTML = errors.New("response is not HTML")

// Crawler fetches pages with a bounded number of workers and a shared rate
// limit.
type Crawler struct {
	client      *http.Client
	limiter     *rate.Limiter
	concurrency int
	logger      *zap.Logger
}

// New builds a Crawler from the crawl configuration.
func New(cfg config.Crawl, logger *zap.Logger) *Crawler {
	client := &http.Client{
		Transport: NewTransport(nil, cfg.Retries, cfg.UserAgents),
		Timeout:   cfg.Timeout,
	}

	return NewWithClient(client, cfg, logger)
}

// NewWithClient builds a Crawler around an existing HTTP client.
func NewWithClient(client *http.Client, cfg config.Crawl, logger *zap.Logger) *Crawler {
	if logger == nil {
		logger = zap.NewNop()
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &Crawler{
		client:      client,
		limiter:     rate.NewLimiter(limit, 1),
		concurrency: max(cfg.Concurrency, 1),
		logger:      logger,
	}
}

// Fetch downloads one page and extracts its metadata. Non-2xx statuses and
// non-HTML content types are errors.
func (c *Crawler) Fetch(ctx context.Context, url string) (record.PageMeta, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return record.PageMeta{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return record.PageMeta{}, fmt.Errorf("failed to build request for %s: %w", url, err)
	}

	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.client.Do(req)
	if err != nil {
		return record.PageMeta{}, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return record.PageMeta{}, fmt.Errorf("failed to fetch %s: status %d", url, resp.StatusCode)
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil || (mt != "text/html" && mt != "application/xhtml+xml") {
			return record.PageMeta{}, fmt.Errorf("%w: %s (%s)", ErrNotHTML, url, ct)
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return record.PageMeta{}, fmt.Errorf("failed to read %s: %w", url, err)
	}

	return record.ExtractMeta(body)
}

// Enrich returns a copy of recs where every record with a URL and missing
// metadata has its empty fields filled from the fetched page. A failed fetch
// leaves the record as it was and adds a fetch_failed warning. The only
// error returned is the context's.
func (c *Crawler) Enrich(ctx context.Context, recs []record.Record, sheet string) ([]record.Record, diagnostic.Diagnostics, error) {
	out := make([]record.Record, len(recs))
	copy(out, recs)

	failures := make([]error, len(recs))
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for i := range out {
		if out[i].URL == "" || !out[i].MissingMeta() {
			continue
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			meta, err := c.Fetch(gctx, out[i].URL)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}

				failures[i] = err

				metrics.PageFetches.WithLabelValues(metrics.StatusError).Inc()

				return nil
			}

			out[i] = out[i].WithMeta(meta)

			metrics.PageFetches.WithLabelValues(metrics.StatusOK).Inc()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, diagnostic.Diagnostics{}, err
	}

	var diags diagnostic.Diagnostics

	for i, err := range failures {
		if err == nil {
			continue
		}

		diags.AddWarning(diagnostic.CodeFetchFailed, err.Error(), sheet, out[i].URL)
	}

	c.logger.Debug("enriched page metadata",
		zap.String("sheet", sheet),
		zap.Int("records", len(recs)),
		zap.Int("failures", len(diags.Warnings)),
		zap.Duration("duration", time.Since(start)),
	)

	return out, diags, nil
}
