// Package httpadapter exposes the scan API over chi. The handlers are a thin
// shell: domain normalization, synchronization and scoring all live behind
// the services they call.
package httpadapter

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/krishanraja/adfixus-sales-sub001/internal/domain"
	"github.com/krishanraja/adfixus-sales-sub001/internal/impact"
	"github.com/krishanraja/adfixus-sales-sub001/internal/ports"
	"github.com/krishanraja/adfixus-sales-sub001/internal/scansync"
	"github.com/krishanraja/adfixus-sales-sub001/internal/services/scanner"
)

type Server struct {
	scanner  ports.Scanner
	sessions *scansync.Manager
}

func New(scanner ports.Scanner, sessions *scansync.Manager) *Server {
	return &Server{scanner: scanner, sessions: sessions}
}

func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Post("/scans", s.handleCreateScan)
	r.Route("/scans/{scanID}", func(r chi.Router) {
		r.Get("/", s.handleGetScan)
		r.Get("/results", s.handleGetResults)
		r.Get("/summary", s.handleGetSummary)
	})
	return r
}

type createScanRequest struct {
	Domains []string                 `json:"domains"`
	Context *domain.PublisherContext `json:"publisher_context,omitempty"`
}

type createScanResponse struct {
	ScanID string `json:"scan_id"`
}

func (s *Server) handleCreateScan(w http.ResponseWriter, r *http.Request) {
	var req createScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	scanID, err := s.scanner.CreateScan(r.Context(), req.Domains, req.Context)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, createScanResponse{ScanID: scanID})
}

func (s *Server) handleGetScan(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Open(r.Context(), chi.URLParam(r, "scanID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	scan, _ := sess.Sync.Snapshot()
	writeJSON(w, http.StatusOK, scan)
}

type resultsResponse struct {
	Scan    domain.Scan           `json:"scan"`
	Results []domain.DomainRecord `json:"results"`
}

func (s *Server) handleGetResults(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Open(r.Context(), chi.URLParam(r, "scanID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	scan, results, ok := sess.Summaries.Results()
	if !ok {
		scan, results = sess.Sync.Snapshot()
	}
	if results == nil {
		results = []domain.DomainRecord{}
	}
	writeJSON(w, http.StatusOK, resultsResponse{Scan: scan, Results: results})
}

func (s *Server) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Open(r.Context(), chi.URLParam(r, "scanID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	sum, ok := sess.Summaries.Current()
	if !ok {
		// No rebuild has run yet. Serve the empty-portfolio summary so
		// consumers always see every enumerated field, never nulls.
		sum = impact.BuildSummary(nil, nil)
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ports.ErrNotFound):
		writeError(w, http.StatusNotFound, "scan not found")
	case errors.Is(err, scanner.ErrNoDomains), errors.Is(err, scanner.ErrInvalidDomain):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ports.ErrTransport):
		writeError(w, http.StatusBadGateway, "scan backend unreachable, retry later")
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}
