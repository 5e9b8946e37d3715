package scanner

import (
	"time"

	"github.com/headscore/headscore/internal/scanner/battery"
	"github.com/headscore/headscore/internal/scanner/grade"
)

// ScanReport is the complete outcome of one scan. Grade and Score are nil
// when retrieval failed; the tests map is empty in that case.
type ScanReport struct {
	AlgorithmVersion int               `json:"algorithm_version"`
	SiteKey          string            `json:"site_key"`
	StartTime        time.Time         `json:"start_time"`
	Grade            *string           `json:"grade"`
	Score            *int              `json:"score"`
	StatusCode       int               `json:"status_code,omitempty"`
	Error            string            `json:"error,omitempty"`
	TestsPassed      int               `json:"tests_passed"`
	TestsFailed      int               `json:"tests_failed"`
	TestsQuantity    int               `json:"tests_quantity"`
	ResponseHeaders  map[string]string `json:"response_headers,omitempty"`

	Tests map[string]battery.Result `json:"tests,omitempty"`
}

// newReport grades the battery results into a report.
func newReport(siteKey string, startTime time.Time, statusCode int, headers map[string]string, results []battery.Result) *ScanReport {
	score := grade.Score(results)
	letter := grade.Letter(score)
	passed, failed := grade.Counts(results)

	tests := make(map[string]battery.Result, len(results))
	for _, r := range results {
		tests[r.Name] = r
	}

	return &ScanReport{
		AlgorithmVersion: grade.AlgorithmVersion,
		SiteKey:          siteKey,
		StartTime:        startTime.UTC(),
		Grade:            &letter,
		Score:            &score,
		StatusCode:       statusCode,
		TestsPassed:      passed,
		TestsFailed:      failed,
		TestsQuantity:    len(results),
		ResponseHeaders:  headers,
		Tests:            tests,
	}
}

// newErrorReport builds the short-circuit report for a failed retrieval.
func newErrorReport(siteKey string, startTime time.Time, kind string) *ScanReport {
	return &ScanReport{
		AlgorithmVersion: grade.AlgorithmVersion,
		SiteKey:          siteKey,
		StartTime:        startTime.UTC(),
		Error:            kind,
		Tests:            map[string]battery.Result{},
	}
}
