package rerank

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"depara/internal/config"
	"depara/internal/match"
	"depara/internal/record"
)

func ranked(n int) match.CandidateList {
	list := make(match.CandidateList, n)
	for i := range list {
		list[i] = match.ScoredCandidate{
			Record: record.Record{
				ID:  fmt.Sprintf("c%d", i),
				URL: fmt.Sprintf("https://new.example.com/%d", i),
			},
			Score: 1 - float64(i)/10,
		}
	}

	return list
}

func newClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(config.Rerank{
		Endpoint: srv.URL,
		Timeout:  5 * time.Second,
	}, nil)
}

func TestRerank(t *testing.T) {
	var got Request

	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		if assert.NoError(t, json.NewDecoder(r.Body).Decode(&got)) && len(got.Candidates) > 0 {
			// The service is free to modify what it received.
			got.Candidates[0].Score = 0
		}

		_ = json.NewEncoder(w).Encode(Response{Results: []Result{
			{ID: "c1", URL: "https://new.example.com/1", Score: 0.99, Reason: "same product"},
		}})
	})

	src := record.Record{ID: "s", URL: "https://old.example.com/x"}
	list := ranked(7)
	before := list.Clone()

	results, err := c.Rerank(context.Background(), src, list)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "same product", results[0].Reason)
	assert.Equal(t, src, got.DERow)
	assert.Len(t, got.Candidates, config.DefaultRerankTopN)
	assert.Equal(t, before, list, "caller's ranking is not modified")
}

func TestRerank_Disabled(t *testing.T) {
	c := New(config.Rerank{}, nil)
	assert.False(t, c.Enabled())

	_, err := c.Rerank(context.Background(), record.Record{}, ranked(1))
	assert.ErrorIs(t, err, ErrDisabled)

	var nilClient *Client
	assert.False(t, nilClient.Enabled())
}

func TestRerank_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantIs  error
		wantMsg string
	}{
		{name: "missing results", status: http.StatusOK, body: `{"other": []}`, wantIs: ErrInvalidResponse},
		{name: "not json", status: http.StatusOK, body: `<html>`, wantIs: ErrInvalidResponse},
		{name: "server error", status: http.StatusBadGateway, body: "upstream down", wantMsg: "returned 502: upstream down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			})

			_, err := c.Rerank(context.Background(), record.Record{}, ranked(2))
			require.Error(t, err)

			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
			}

			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestRerank_EmptyResults(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"results": []}`)
	})

	results, err := c.Rerank(context.Background(), record.Record{}, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRerank_Cancelled(t *testing.T) {
	c := newClient(t, func(http.ResponseWriter, *http.Request) {})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Rerank(ctx, record.Record{}, ranked(1))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "short", snippet([]byte("  short \n")))

	// 199 ASCII bytes put the 200th byte inside a two-byte rune.
	body := strings.Repeat("a", 199) + strings.Repeat("ã", 10)
	got := snippet([]byte(body))

	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("a", 199)+"...", got)

	long := strings.Repeat("é", 300)
	got = snippet([]byte(long))

	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("é", 100)+"...", got)
}
