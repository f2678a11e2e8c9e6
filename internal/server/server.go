// Package server exposes the question pipeline and a gated SQL endpoint
// over HTTP for browser or script consumers.
package server

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sumoql/sumoql/internal/db"
	"github.com/sumoql/sumoql/internal/pipeline"
	"github.com/sumoql/sumoql/internal/schema"
	"github.com/sumoql/sumoql/internal/sqlexec"
)

const (
	defaultLimit = 200
	maxLimit     = 1000
	queryTimeout = 8 * time.Second
	askTimeout   = 180 * time.Second
)

type Server struct {
	conn   db.DB
	pipe   *pipeline.Pipeline
	logger *slog.Logger
}

func New(conn db.DB, pipe *pipeline.Pipeline, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{conn: conn, pipe: pipe, logger: logger}
}

// Router wires the HTTP surface.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Post("/ask", s.handleAsk)
	r.Post("/query", s.handleQuery)
	r.Post("/export", s.handleExportCSV)
	r.Get("/schema", s.handleSchema)
	return r
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Question   string   `json:"question"`
	SQL        string   `json:"sql,omitempty"`
	Answer     string   `json:"answer"`
	Columns    []string `json:"columns,omitempty"`
	Rows       [][]any  `json:"rows,omitempty"`
	Blocked    bool     `json:"blocked,omitempty"`
	Failed     bool     `json:"failed,omitempty"`
	DurationMs int64    `json:"durationMs"`
	Error      string   `json:"error,omitempty"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, askResponse{Error: "invalid JSON body"})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		respondJSON(w, http.StatusBadRequest, askResponse{Error: "question is required"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), askTimeout)
	defer cancel()

	answer, err := s.pipe.Ask(ctx, req.Question)
	if err != nil {
		respondJSON(w, http.StatusInternalServerError, askResponse{Error: err.Error()})
		return
	}

	resp := askResponse{
		Question:   answer.Question,
		SQL:        answer.SQL,
		Answer:     answer.Text,
		Blocked:    answer.Blocked,
		Failed:     answer.Failed,
		DurationMs: answer.Timings.Total.Milliseconds(),
	}
	if answer.Result != nil {
		resp.Columns = answer.Result.Columns
		for _, row := range answer.Result.Data {
			resp.Rows = append(resp.Rows, row)
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

type queryRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type queryResponse struct {
	Columns    []string `json:"columns"`
	Rows       [][]any  `json:"rows"`
	Count      int      `json:"count"`
	More       bool     `json:"more"`
	DurationMs int64    `json:"durationMs"`
	Error      string   `json:"error,omitempty"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, queryResponse{Error: "invalid JSON body"})
		return
	}

	query, err := validateReadOnlyQuery(req.Query)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, queryResponse{Error: err.Error()})
		return
	}

	limit := clampLimit(req.Limit)

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	start := time.Now()
	rows, err := sqlexec.Execute(ctx, s.conn, query)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, queryResponse{Error: err.Error()})
		return
	}

	resp := queryResponse{Columns: rows.Columns}
	for _, row := range rows.Data {
		if len(resp.Rows) >= limit {
			resp.More = true
			break
		}
		resp.Rows = append(resp.Rows, row)
	}
	resp.Count = len(resp.Rows)
	resp.DurationMs = time.Since(start).Milliseconds()

	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	query, err := validateReadOnlyQuery(req.Query)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	rows, err := sqlexec.Execute(ctx, s.conn, query)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=export.csv")

	csvWriter := csv.NewWriter(w)
	defer csvWriter.Flush()

	if err := csvWriter.Write(rows.Columns); err != nil {
		return
	}
	for _, row := range rows.Data {
		record := make([]string, len(row))
		for i, v := range row {
			record[i] = formatCSVValue(v)
		}
		if err := csvWriter.Write(record); err != nil {
			return
		}
	}
}

type schemaResponse struct {
	Dialect string `json:"dialect"`
	Schema  string `json:"schema"`
	Error   string `json:"error,omitempty"`
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	text, err := schema.Render(ctx, s.conn)
	if err != nil {
		respondJSON(w, http.StatusInternalServerError, schemaResponse{Error: err.Error()})
		return
	}
	respondJSON(w, http.StatusOK, schemaResponse{Dialect: s.conn.Dialect(), Schema: text})
}

var errEmptyQuery = fmt.Errorf("query is required")
var errNotReadOnly = fmt.Errorf("only read-only queries are allowed")

func validateReadOnlyQuery(raw string) (string, error) {
	query := strings.TrimSpace(raw)
	if query == "" {
		return "", errEmptyQuery
	}
	if !sqlexec.IsReadOnly(query) {
		return "", errNotReadOnly
	}
	return query, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

func formatCSVValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
