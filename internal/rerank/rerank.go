// Package rerank is the client of an external re-ranking service. The
// service receives a DE record with its best candidates and answers with
// its own ordering and a reason per candidate. Re-ranking annotates a
// result; it never changes the matcher's selection.
package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"depara/internal/config"
	"depara/internal/match"
	"depara/internal/metrics"
	"depara/internal/record"
)

const maxResponseBytes = 1 << 20

var (
	// ErrDisabled is returned when no endpoint is configured.
	ErrDisabled = errors.New("re-ranking is disabled")
	// ErrInvalidResponse is returned when the service answers without a
	// results list.
	ErrInvalidResponse = errors.New("invalid response from re-ranking service")
)

// Request is the body sent to the service.
type Request struct {
	DERow      record.Record       `json:"deRow"`
	Candidates match.CandidateList `json:"candidates"`
}

// Result is one re-ranked candidate.
type Result struct {
	ID     string  `json:"id"`
	URL    string  `json:"url"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// Response is the body returned by the service.
type Response struct {
	Results []Result `json:"results"`
}

// Client talks to the re-ranking service.
type Client struct {
	endpoint string
	topN     int
	http     *http.Client
	limiter  *rate.Limiter
	logger   *zap.Logger
}

// New creates a Client. With an empty endpoint the client is disabled and
// every call returns ErrDisabled.
func New(cfg config.Rerank, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute))
	}

	topN := cfg.TopN
	if topN <= 0 {
		topN = config.DefaultRerankTopN
	}

	return &Client{
		endpoint: strings.TrimSpace(cfg.Endpoint),
		topN:     topN,
		http:     &http.Client{Timeout: cfg.Timeout},
		limiter:  rate.NewLimiter(limit, 1),
		logger:   logger,
	}
}

// Enabled reports whether an endpoint is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.endpoint != ""
}

// Rerank sends src and the first candidates of the ranked list to the
// service. The candidates are copied before encoding; the caller's list is
// never modified.
func (c *Client) Rerank(ctx context.Context, src record.Record, candidates match.CandidateList) ([]Result, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}

	start := time.Now()

	results, err := c.do(ctx, Request{
		DERow:      src,
		Candidates: candidates.Top(c.topN).Clone(),
	})

	metrics.RerankDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.RerankRequests.WithLabelValues(metrics.StatusError).Inc()
		c.logger.Warn("re-ranking failed", zap.String("url", src.URL), zap.Error(err))

		return nil, err
	}

	metrics.RerankRequests.WithLabelValues(metrics.StatusOK).Inc()
	c.logger.Debug("re-ranked candidates", zap.String("url", src.URL), zap.Int("results", len(results)))

	return results, nil
}

func (c *Client) do(ctx context.Context, body Request) ([]Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode re-ranking request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build re-ranking request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call re-ranking service: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read re-ranking response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("re-ranking service returned %d: %s", resp.StatusCode, snippet(data))
	}

	var out struct {
		Results *[]Result `json:"results"`
	}

	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	if out.Results == nil {
		return nil, ErrInvalidResponse
	}

	return *out.Results, nil
}

func snippet(data []byte) string {
	const limit = 200

	s := strings.TrimSpace(string(data))
	if len(s) <= limit {
		return s
	}

	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}

	return s[:cut] + "..."
}
