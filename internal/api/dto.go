package api

import (
	"fmt"
	"net/url"
	"time"

	"github.com/headscore/headscore/internal/scanner"
	"github.com/headscore/headscore/internal/scanner/battery"
	"github.com/headscore/headscore/internal/store"
)

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// scanSummary mirrors the persisted row shape.
type scanSummary struct {
	ID               int64   `json:"id,omitempty"`
	SiteKey          string  `json:"site_key"`
	StartTime        string  `json:"start_time"`
	AlgorithmVersion int     `json:"algorithm_version"`
	Grade            *string `json:"grade"`
	Score            *int    `json:"score"`
	StatusCode       int     `json:"status_code,omitempty"`
	Error            string  `json:"error,omitempty"`
	TestsPassed      int     `json:"tests_passed"`
	TestsFailed      int     `json:"tests_failed"`
	TestsQuantity    int     `json:"tests_quantity"`
	DetailsURL       string  `json:"details_url,omitempty"`
}

// fullDetails carries what persistence drops: per-test results and the
// observed response headers. Score descriptions are stripped.
type fullDetails struct {
	ResponseHeaders map[string]string         `json:"response_headers,omitempty"`
	Tests           map[string]battery.Result `json:"tests"`
}

type historyEntry struct {
	StartTime string  `json:"start_time"`
	Grade     *string `json:"grade"`
	Score     *int    `json:"score"`
}

// scanResponse is the envelope shared by the scan and analyze endpoints.
type scanResponse struct {
	Scan        scanSummary    `json:"scan"`
	FullDetails *fullDetails   `json:"fullDetails,omitempty"`
	History     []historyEntry `json:"history,omitempty"`
}

// batchEntryResponse is one entry of the batch response map.
type batchEntryResponse struct {
	Success bool         `json:"success"`
	Scan    *scanSummary `json:"scan,omitempty"`
	Details *fullDetails `json:"fullDetails,omitempty"`
	Error   string       `json:"error,omitempty"`
	Message string       `json:"message,omitempty"`
}

type statsResponse struct {
	TotalScans        int64            `json:"total_scans"`
	RecentScans       int64            `json:"recent_scans"`
	GradeDistribution map[string]int64 `json:"grade_distribution"`
}

func (s *Server) summaryFromRow(row store.ScanRow) scanSummary {
	return scanSummary{
		ID:               row.ID,
		SiteKey:          row.SiteKey,
		StartTime:        row.StartTime.UTC().Format(time.RFC3339),
		AlgorithmVersion: row.AlgorithmVersion,
		Grade:            row.Grade,
		Score:            row.Score,
		StatusCode:       row.StatusCode,
		Error:            row.Error,
		TestsPassed:      row.TestsPassed,
		TestsFailed:      row.TestsFailed,
		TestsQuantity:    row.TestsQuantity,
		DetailsURL:       s.detailsURL(row.SiteKey),
	}
}

func (s *Server) detailsURL(siteKey string) string {
	if s.cfg.BaseURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/analyze?host=%s", s.cfg.BaseURL, url.QueryEscape(siteKey))
}

// detailsFromReport extracts full details out of a report carrying tests.
// Score descriptions are stripped on a copy: the report may be shared with
// the scanner's cache.
func detailsFromReport(report *scanner.ScanReport) *fullDetails {
	if report == nil || len(report.Tests) == 0 {
		return nil
	}
	tests := make(map[string]battery.Result, len(report.Tests))
	for name, test := range report.Tests {
		test.ScoreDescription = ""
		tests[name] = test
	}
	return &fullDetails{
		ResponseHeaders: report.ResponseHeaders,
		Tests:           tests,
	}
}
