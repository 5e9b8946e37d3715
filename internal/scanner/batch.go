package scanner

import (
	"context"
	"strings"
	"sync"

	"github.com/alitto/pond"

	"github.com/headscore/headscore/internal/pkg/scanerrors"
	"github.com/headscore/headscore/internal/scanner/site"
)

const (
	// MaxBatchSize caps the URLs accepted per batch request.
	MaxBatchSize = 10
	// DefaultConcurrency bounds in-flight scans within one batch.
	DefaultConcurrency = 5
)

// BatchEntry is the per-URL outcome of a batch scan. A failed entry never
// aborts the batch.
type BatchEntry struct {
	Success bool
	Result  Result
	Error   string
	Message string
}

// ScanBatch scans up to MaxBatchSize URLs, deduplicated by canonical form,
// with at most DefaultConcurrency scans in flight. The returned map is
// keyed by the normalized input; syntactically invalid inputs are keyed by
// their trimmed raw form.
func (s *Scanner) ScanBatch(ctx context.Context, urls []string, opts Options) (map[string]BatchEntry, scanerrors.ScanError) {
	if len(urls) == 0 {
		return map[string]BatchEntry{}, nil
	}
	if len(urls) > MaxBatchSize {
		return nil, scanerrors.NewInvalidHostname(
			"", "batch exceeds the maximum of 10 URLs")
	}

	entries := map[string]BatchEntry{}
	targets := map[string]string{} // siteKey -> raw input that claimed it
	for _, raw := range urls {
		trimmed := strings.TrimSpace(raw)
		target, err := site.FromString(trimmed)
		if err != nil {
			entries[trimmed] = BatchEntry{Success: false, Error: err.Kind(), Message: err.Error()}
			continue
		}
		if _, seen := targets[target.Key()]; !seen {
			targets[target.Key()] = trimmed
		}
	}

	var mu sync.Mutex
	pool := pond.New(DefaultConcurrency, len(targets))
	for key := range targets {
		pool.Submit(func() {
			result, err := s.Scan(ctx, key, opts)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				entries[key] = BatchEntry{Success: false, Error: err.Kind(), Message: err.Error()}
			case result.Report.Error != "":
				entries[key] = BatchEntry{
					Success: false,
					Error:   result.Report.Error,
					Message: "the site could not be retrieved",
					Result:  result,
				}
			default:
				entries[key] = BatchEntry{Success: true, Result: result}
			}
		})
	}
	pool.StopAndWait()

	return entries, nil
}
