package ui

import (
	"encoding/json"
	"log"
	"net/http"

	"gobias/adapters/io"
	"gobias/adapters/report"
	"gobias/app"
	"gobias/domain/core"
)

// AnalyzeRequest is the API envelope: where the table lives plus the
// analysis request itself.
type AnalyzeRequest struct {
	TablePath string      `json:"table_path"`
	Request   app.Request `json:"request"`
}

// SweepEnvelope is the sweep counterpart.
type SweepEnvelope struct {
	TablePath string           `json:"table_path"`
	Request   app.SweepRequest `json:"request"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	frame, err := io.ReadTable(req.TablePath)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	rep, err := s.analysis.Run(r.Context(), frame, req.Request)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	var req SweepEnvelope
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	frame, err := io.ReadTable(req.TablePath)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := s.sweep.Run(r.Context(), frame, req.Request)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleReport runs an analysis and returns it as an HTML report.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	frame, err := io.ReadTable(req.TablePath)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	rep, err := s.analysis.Run(r.Context(), frame, req.Request)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(report.RenderHTML(report.Markdown(rep))); err != nil {
		log.Printf("[Server] write report: %v", err)
	}
}

func statusFor(err error) int {
	if core.IsInputError(err) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[Server] encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
