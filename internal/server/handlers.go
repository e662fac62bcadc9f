package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"depara/internal/config"
	"depara/internal/diagnostic"
	"depara/internal/engine"
	"depara/internal/match"
	"depara/internal/record"
	"depara/internal/rerank"
	"depara/internal/sheet"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	reportFilename  = "dexpara_resultado.xlsx"
)

// fileRequest is the body of /api/validate, /api/process and /api/match.
type fileRequest struct {
	// FileData is the base64 workbook, optionally as a data URL.
	FileData string `json:"fileData"`
	// Weights is a list of four numbers or a comma-separated string.
	Weights any `json:"weights,omitempty"`
	// MinScore is the threshold in [0,1].
	MinScore *float64 `json:"minScore,omitempty"`
}

type matchResponse struct {
	RunID       string                 `json:"runId"`
	Results     []matchEntry           `json:"results"`
	Summary     match.RunSummary       `json:"summary"`
	Diagnostics diagnostic.Diagnostics `json:"diagnostics"`
}

type matchEntry struct {
	Source         record.Record          `json:"de"`
	Candidates     match.CandidateList    `json:"candidates"`
	Best           *match.ScoredCandidate `json:"best"`
	AboveThreshold bool                   `json:"aboveThreshold"`
}

type rerankRequest struct {
	DERow      *record.Record      `json:"deRow"`
	Candidates match.CandidateList `json:"candidates"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")

		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"version":   config.Version,
		"reranker":  s.reranker.Enabled(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	_, data, ok := s.readFileRequest(w, r)
	if !ok {
		return
	}

	s.writeJSON(w, http.StatusOK, sheet.Validate(bytes.NewReader(data), s.cfg.Sheets))
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	req, data, ok := s.readFileRequest(w, r)
	if !ok {
		return
	}

	run, status, err := s.run(r.Context(), req, data)
	if err != nil {
		s.writeError(w, status, err.Error())

		return
	}

	out, err := sheet.WorkbookBytes(run.Report(s.cfg.NoMatchLabel), s.cfg.Sheets)
	if err != nil {
		s.logger.Error("failed to render report", zap.String("run_id", run.ID), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to render report")

		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", reportFilename))
	w.Header().Set("X-Run-Id", run.ID)
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(out); err != nil {
		s.logger.Warn("failed to write report", zap.String("run_id", run.ID), zap.Error(err))
	}
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	req, data, ok := s.readFileRequest(w, r)
	if !ok {
		return
	}

	run, status, err := s.run(r.Context(), req, data)
	if err != nil {
		s.writeError(w, status, err.Error())

		return
	}

	resp := matchResponse{
		RunID:       run.ID,
		Results:     make([]matchEntry, len(run.Results)),
		Summary:     run.Summary,
		Diagnostics: run.Diagnostics,
	}

	for i, res := range run.Results {
		resp.Results[i] = matchEntry{
			Source:         res.Source,
			Candidates:     res.Candidates,
			Best:           run.Selections[i].Best,
			AboveThreshold: run.Selections[i].AboveThreshold,
		}
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRerank(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")

		return
	}

	if !s.reranker.Enabled() {
		s.writeError(w, http.StatusServiceUnavailable, rerank.ErrDisabled.Error())

		return
	}

	var req rerankRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())

		return
	}

	if req.DERow == nil || req.Candidates == nil {
		s.writeError(w, http.StatusBadRequest, "deRow and candidates are required")

		return
	}

	results, err := s.reranker.Rerank(r.Context(), *req.DERow, req.Candidates)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err.Error())

		return
	}

	s.writeJSON(w, http.StatusOK, rerank.Response{Results: results})
}

// run reads the workbook and executes the matcher with the request's
// weights and threshold layered over the server configuration.
func (s *Server) run(ctx context.Context, req fileRequest, data []byte) (*engine.Run, int, error) {
	wb, err := sheet.ReadWorkbook(bytes.NewReader(data), s.cfg.Sheets)
	if err != nil {
		return nil, http.StatusBadRequest, err
	}

	if len(wb.Source) == 0 || len(wb.Candidates) == 0 {
		return nil, http.StatusBadRequest,
			fmt.Errorf("sheets %q and %q must not be empty", s.cfg.Sheets.Source, s.cfg.Sheets.Candidates)
	}

	cfg := s.cfg
	if req.Weights != nil {
		cfg.Weights = req.Weights
	}

	if req.MinScore != nil {
		cfg.Threshold = *req.MinScore
	}

	var diags diagnostic.Diagnostics

	opts := engine.OptionsFromConfig(cfg, &diags)
	opts.Enricher = s.enricher

	run, err := engine.New(opts, s.logger).RunWorkbook(ctx, wb)
	if err != nil {
		if ctx.Err() != nil {
			return nil, http.StatusServiceUnavailable, err
		}

		return nil, http.StatusInternalServerError, err
	}

	diags.Merge(run.Diagnostics)
	run.Diagnostics = diags

	return run, http.StatusOK, nil
}

func (s *Server) readFileRequest(w http.ResponseWriter, r *http.Request) (fileRequest, []byte, bool) {
	var req fileRequest

	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")

		return req, nil, false
	}

	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())

		return req, nil, false
	}

	if strings.TrimSpace(req.FileData) == "" {
		s.writeError(w, http.StatusBadRequest, "fileData is required")

		return req, nil, false
	}

	data, err := decodeFileData(req.FileData)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())

		return req, nil, false
	}

	return req, data, true
}

// decodeFileData accepts plain base64 or a data URL.
func decodeFileData(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			s = s[i+1:]
		}
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("fileData is not valid base64: %w", err)
	}

	return data, nil
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxBodyBytes)

	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
		}

		return fmt.Errorf("invalid request body: %w", err)
	}

	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
