package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"depara/internal/config"
	"depara/internal/diagnostic"
	"depara/internal/match"
	"depara/internal/record"
	"depara/internal/rerank"
)

func workbook(t *testing.T, sheets map[string][][]any) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	first := true

	for _, name := range []string{"DE", "RASTREIO"} {
		rows, ok := sheets[name]
		if !ok {
			continue
		}

		if first {
			require.NoError(t, f.SetSheetName(f.GetSheetName(0), name))

			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}

		for i, row := range rows {
			require.NoError(t, f.SetSheetRow(name, fmt.Sprintf("A%d", i+1), &row))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func sampleFile(t *testing.T) string {
	t.Helper()

	return workbook(t, map[string][][]any{
		"DE": {
			{"url", "meta_title"},
			{"https://old.example.com/camisa-azul", "Camisa Azul"},
			{"https://old.example.com/sapato", "Sapato"},
		},
		"RASTREIO": {
			{"url", "title"},
			{"https://new.example.com/camisa-azul", "Camisa Azul"},
			{"https://new.example.com/bota", "Bota"},
		},
	})
}

func newServer(reranker *rerank.Client) *Server {
	return New(config.Default(), nil, reranker, nil)
}

func post(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data)))

	return rec
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	return body["error"]
}

func TestHealth(t *testing.T) {
	h := newServer(nil).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, config.Version, body["version"])
	assert.Equal(t, false, body["reranker"])

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestValidate(t *testing.T) {
	h := newServer(nil).Handler()

	t.Run("valid", func(t *testing.T) {
		rec := post(t, h, "/api/validate", map[string]any{"fileData": sampleFile(t)})
		require.Equal(t, http.StatusOK, rec.Code)

		var v struct {
			Valid    bool `json:"valid"`
			DE       int  `json:"deCount"`
			Rastreio int  `json:"rastreioCount"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
		assert.True(t, v.Valid)
		assert.Equal(t, 2, v.DE)
		assert.Equal(t, 2, v.Rastreio)
	})

	t.Run("missing sheet", func(t *testing.T) {
		file := workbook(t, map[string][][]any{"DE": {{"url"}, {"https://a.com/x"}}})

		rec := post(t, h, "/api/validate", map[string]any{"fileData": file})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"valid":false`)
	})

	t.Run("no file", func(t *testing.T) {
		rec := post(t, h, "/api/validate", map[string]any{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "fileData is required", errorOf(t, rec))
	})

	t.Run("bad base64", func(t *testing.T) {
		rec := post(t, h, "/api/validate", map[string]any{"fileData": "%%%"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, errorOf(t, rec), "not valid base64")
	})
}

func TestProcess(t *testing.T) {
	h := newServer(nil).Handler()

	data := "data:" + xlsxContentType + ";base64," + sampleFile(t)
	rec := post(t, h, "/api/process", map[string]any{
		"fileData": data,
		"weights":  []float64{1, 0, 0, 0},
		"minScore": 0.9,
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="dexpara_resultado.xlsx"`, rec.Header().Get("Content-Disposition"))
	assert.NotEmpty(t, rec.Header().Get("X-Run-Id"))

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(config.DefaultResultSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"DE", "PARA", "SCORE_OVERALL"}, rows[0])
	assert.Equal(t, []string{"https://old.example.com/camisa-azul", "https://new.example.com/camisa-azul", "100.0%"}, rows[1])
	assert.Equal(t, "https://old.example.com/sapato", rows[2][0])

	summary, err := f.GetRows(config.DefaultSummarySheet)
	require.NoError(t, err)
	assert.Contains(t, summary, []string{"Configured minimum score", "90%"})
	assert.Contains(t, summary, []string{"Matches with score >= 90%", "1"})
}

func TestProcess_Errors(t *testing.T) {
	h := newServer(nil).Handler()

	rec := post(t, h, "/api/process", map[string]any{
		"fileData": workbook(t, map[string][][]any{"DE": {{"url"}, {"https://a.com/x"}}}),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorOf(t, rec), `workbook must contain sheets "DE" and "RASTREIO"`)

	rec = post(t, h, "/api/process", map[string]any{
		"fileData": workbook(t, map[string][][]any{
			"DE":       {{"url"}, {"https://a.com/x"}},
			"RASTREIO": {{"url"}},
		}),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorOf(t, rec), "must not be empty")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/process", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestProcess_BodyLimit(t *testing.T) {
	cfg := config.Default()
	cfg.Server.MaxBodyBytes = 64

	h := New(cfg, nil, nil, nil).Handler()
	rec := post(t, h, "/api/process", map[string]any{"fileData": strings.Repeat("A", 256)})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorOf(t, rec), "exceeds 64 bytes")
}

func TestMatch(t *testing.T) {
	h := newServer(nil).Handler()

	rec := post(t, h, "/api/match", map[string]any{
		"fileData": sampleFile(t),
		"weights":  "1,2",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp matchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	require.Len(t, resp.Results, 2)
	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, "https://old.example.com/camisa-azul", resp.Results[0].Source.URL)
	require.Len(t, resp.Results[0].Candidates, 2)
	require.NotNil(t, resp.Results[0].Best)
	assert.Equal(t, "https://new.example.com/camisa-azul", resp.Results[0].Best.URL)
	assert.True(t, resp.Results[0].AboveThreshold)
	assert.Equal(t, 2, resp.Summary.Total)
	assert.Equal(t, 1, resp.Diagnostics.Count(diagnostic.CodeWeightsDefaulted))
}

func TestRerank(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		rec := post(t, newServer(nil).Handler(), "/api/rerank", map[string]any{})
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	var received rerank.Request

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &received)

		fmt.Fprint(w, `{"results":[{"id":"c0","url":"https://new.example.com/0","score":0.9,"reason":"ok"}]}`)
	}))
	defer upstream.Close()

	client := rerank.New(config.Rerank{Endpoint: upstream.URL, Timeout: 5 * time.Second}, nil)
	h := newServer(client).Handler()

	t.Run("forwards", func(t *testing.T) {
		cands := make(match.CandidateList, 7)
		for i := range cands {
			cands[i] = match.ScoredCandidate{Record: record.Record{ID: fmt.Sprintf("c%d", i)}}
		}

		rec := post(t, h, "/api/rerank", map[string]any{
			"deRow":      record.Record{ID: "s", URL: "https://old.example.com/x"},
			"candidates": cands,
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp rerank.Response
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Results, 1)
		assert.Equal(t, "ok", resp.Results[0].Reason)
		assert.Len(t, received.Candidates, config.DefaultRerankTopN)
		assert.Equal(t, "s", received.DERow.ID)
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := post(t, h, "/api/rerank", map[string]any{"deRow": record.Record{}})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestMetrics(t *testing.T) {
	h := newServer(nil).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "depara_http_requests_total")
}

func TestRouteLabel(t *testing.T) {
	assert.Equal(t, "/api/match", routeLabel("/api/match"))
	assert.Equal(t, "other", routeLabel("/wp-admin"))
}
