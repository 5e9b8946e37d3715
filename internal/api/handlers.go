package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/headscore/headscore/internal/pkg/scanerrors"
	"github.com/headscore/headscore/internal/scanner"
)

// handleScan returns the persisted-row-shaped summary, honoring the
// cooldown: a row younger than the cooldown is served without probing.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	host, ok := s.hostParam(w, r)
	if !ok {
		return
	}
	result, err := s.scanner.Scan(r.Context(), host, scanner.Options{MaxAge: s.cfg.Cooldown})
	if err != nil {
		s.writeScanError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, scanResponse{Scan: s.summaryFromRow(result.Row)})
}

// handleScanFullDetails applies the same cooldown to the summary but always
// delivers fresh full details, since persistence holds only the summary.
func (s *Server) handleScanFullDetails(w http.ResponseWriter, r *http.Request) {
	host, ok := s.hostParam(w, r)
	if !ok {
		return
	}
	result, err := s.scanner.Scan(r.Context(), host, scanner.Options{MaxAge: s.cfg.Cooldown})
	if err != nil {
		s.writeScanError(w, err)
		return
	}

	details, err := s.detailsFor(r, result)
	if err != nil {
		s.writeScanError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, scanResponse{
		Scan:        s.summaryFromRow(result.Row),
		FullDetails: details,
	})
}

// handleAnalyzeGet serves the long-cache read path: a row younger than
// cacheTimeForGet plus history, scanning only on a miss.
func (s *Server) handleAnalyzeGet(w http.ResponseWriter, r *http.Request) {
	host, ok := s.hostParam(w, r)
	if !ok {
		return
	}
	result, err := s.scanner.Scan(r.Context(), host, scanner.Options{MaxAge: s.cfg.CacheTimeForGet})
	if err != nil {
		s.writeScanError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, scanResponse{
		Scan:    s.summaryFromRow(result.Row),
		History: s.historyFor(r, result.Row.SiteKey),
	})
}

// handleAnalyzePost behaves like /scan but adds history and fresh details.
func (s *Server) handleAnalyzePost(w http.ResponseWriter, r *http.Request) {
	host, ok := s.hostParam(w, r)
	if !ok {
		return
	}
	result, err := s.scanner.Scan(r.Context(), host, scanner.Options{MaxAge: s.cfg.Cooldown})
	if err != nil {
		s.writeScanError(w, err)
		return
	}
	details, err := s.detailsFor(r, result)
	if err != nil {
		s.writeScanError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, scanResponse{
		Scan:        s.summaryFromRow(result.Row),
		FullDetails: details,
		History:     s.historyFor(r, result.Row.SiteKey),
	})
}

type batchRequest struct {
	URLs []string `json:"urls"`
}

// handleScanBatch scans up to the batch cap concurrently, deduplicated by
// canonical form; one entry's failure never aborts the batch.
func (s *Server) handleScanBatch(w http.ResponseWriter, r *http.Request) {
	var body batchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, "invalid-request-body",
			"request body must be a JSON object with a urls array")
		return
	}
	if len(body.URLs) == 0 {
		s.writeError(w, http.StatusUnprocessableEntity, "invalid-request-body",
			"urls must contain at least one entry")
		return
	}

	entries, err := s.scanner.ScanBatch(r.Context(), body.URLs, scanner.Options{MaxAge: s.cfg.Cooldown})
	if err != nil {
		s.writeScanError(w, err)
		return
	}

	out := make(map[string]batchEntryResponse, len(entries))
	for key, entry := range entries {
		if !entry.Success {
			out[key] = batchEntryResponse{Success: false, Error: entry.Error, Message: entry.Message}
			continue
		}
		details, derr := s.detailsFor(r, entry.Result)
		if derr != nil {
			out[key] = batchEntryResponse{Success: false, Error: derr.Kind(), Message: derr.Error()}
			continue
		}
		summary := s.summaryFromRow(entry.Result.Row)
		out[key] = batchEntryResponse{Success: true, Scan: &summary, Details: details}
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	host, ok := s.hostParam(w, r)
	if !ok {
		return
	}
	target, serr := s.scanner.Canonicalize(host)
	if serr != nil {
		s.writeScanError(w, serr)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]historyEntry{
		"history": s.historyFor(r, target.Key()),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeJSON(w, http.StatusOK, statsResponse{GradeDistribution: map[string]int64{}})
		return
	}
	total, err := s.store.TotalScans(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "scan-failed", "failed to read statistics")
		return
	}
	recent, err := s.store.RecentScans(r.Context(), 24*time.Hour)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "scan-failed", "failed to read statistics")
		return
	}
	distribution, err := s.store.GradeDistribution(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "scan-failed", "failed to read statistics")
		return
	}
	grades := make(map[string]int64, len(distribution))
	for _, gc := range distribution {
		grades[gc.Grade] = gc.Count
	}
	s.writeJSON(w, http.StatusOK, statsResponse{
		TotalScans:        total,
		RecentScans:       recent,
		GradeDistribution: grades,
	})
}

// detailsFor extracts details from the scan result, re-scanning in memory
// when the cooldown served a summary-only row.
func (s *Server) detailsFor(r *http.Request, result scanner.Result) (*fullDetails, scanerrors.ScanError) {
	if details := detailsFromReport(result.Report); details != nil || result.Report.Error != "" {
		return details, nil
	}
	fresh, err := s.scanner.FreshDetails(r.Context(), result.Row.SiteKey)
	if err != nil {
		return nil, err
	}
	return detailsFromReport(fresh), nil
}

func (s *Server) historyFor(r *http.Request, siteKey string) []historyEntry {
	if s.store == nil {
		return nil
	}
	rows, err := s.store.History(r.Context(), siteKey)
	if err != nil {
		s.logger.Warn("failed to read history", "site", siteKey, "error", err)
		return nil
	}
	history := make([]historyEntry, 0, len(rows))
	for _, row := range rows {
		history = append(history, historyEntry{
			StartTime: row.StartTime.UTC().Format(time.RFC3339),
			Grade:     row.Grade,
			Score:     row.Score,
		})
	}
	return history
}

// hostParam reads and requires the host query parameter.
func (s *Server) hostParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	host := strings.TrimSpace(r.URL.Query().Get("host"))
	if host == "" {
		s.writeError(w, http.StatusUnprocessableEntity, "invalid-hostname", "host parameter is required")
		return "", false
	}
	return host, true
}

// writeScanError maps validation failures to 422 and everything else to
// the generic internal shape with the message withheld.
func (s *Server) writeScanError(w http.ResponseWriter, err scanerrors.ScanError) {
	if err.Validation() {
		s.writeError(w, http.StatusUnprocessableEntity, err.Kind(), err.Error())
		return
	}
	s.logger.Error("scan failed", "kind", err.Kind(), "error", err)
	s.writeError(w, http.StatusInternalServerError, err.Kind(), "")
}

func (s *Server) writeError(w http.ResponseWriter, status int, kind, message string) {
	s.writeJSON(w, status, errorResponse{Error: kind, Message: message})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}
