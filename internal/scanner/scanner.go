// Package scanner orchestrates one scan: canonicalize, enforce the
// cooldown and single-flight disciplines, retrieve, evaluate, grade and
// write through to the persistence collaborator.
package scanner

import (
	"context"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/headscore/headscore/internal/pkg/scanerrors"
	"github.com/headscore/headscore/internal/scanner/battery"
	"github.com/headscore/headscore/internal/scanner/grade"
	"github.com/headscore/headscore/internal/scanner/retriever"
	"github.com/headscore/headscore/internal/scanner/site"
	"github.com/headscore/headscore/internal/store"
)

const (
	// DefaultCooldown is the minimum interval between two retrievals for
	// the same site key.
	DefaultCooldown = 60 * time.Second
	// DefaultGetCacheAge is the cache window applied to GET analyze calls.
	DefaultGetCacheAge = 24 * time.Hour

	cacheSize = 1024
)

// Retriever produces the observation snapshot for one site.
// *retriever.Retriever implements it; tests substitute canned snapshots.
type Retriever interface {
	Retrieve(ctx context.Context, s site.Site) (*retriever.Requests, scanerrors.ScanError)
}

// Config tunes the orchestration policies.
type Config struct {
	// Cooldown is the POST-path cache window.
	Cooldown time.Duration
	// ScanTimeout is the hard wall-clock cap for one scan's probes;
	// zero disables the cap.
	ScanTimeout time.Duration
	// AllowPrivate permits targets resolving to loopback/private ranges.
	AllowPrivate bool
	// CORPExpectation overrides the cross-origin-resource-policy default.
	CORPExpectation string
	// SkipResolveCheck disables the DNS pre-flight; tests targeting
	// httptest servers use it together with AllowPrivate.
	SkipResolveCheck bool
	// Resolver overrides DNS resolution in the pre-flight check.
	Resolver site.Resolver
	// Clock substitutes time in cooldown decisions.
	Clock clock.Clock
}

// Options select per-call cache behavior.
type Options struct {
	// MaxAge is the cache window for this call; zero means the
	// configured cooldown.
	MaxAge time.Duration
}

// Result is what one Scan call yields. Cached reports carry no tests map
// when they were reconstructed from a persisted summary row.
type Result struct {
	Report *ScanReport
	Row    store.ScanRow
	Cached bool
}

type cacheEntry struct {
	report *ScanReport
	row    store.ScanRow
	at     time.Time
}

// Scanner enforces at-most-one active retrieval per canonical site key.
type Scanner struct {
	cfg       Config
	retriever Retriever
	store     store.Store
	registry  []battery.Spec
	clock     clock.Clock
	logger    *slog.Logger

	flight singleflight.Group
	cache  *lru.LRU[string, cacheEntry]
}

// New builds a Scanner. The store may be nil for one-shot CLI use; the
// in-process cache still enforces the cooldown then.
func New(cfg Config, r Retriever, st store.Store, logger *slog.Logger) *Scanner {
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}
	cl := cfg.Clock
	if cl == nil {
		cl = clock.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{
		cfg:       cfg,
		retriever: r,
		store:     st,
		registry:  battery.Registry(cfg.CORPExpectation),
		clock:     cl,
		logger:    logger,
		cache:     lru.NewLRU[string, cacheEntry](cacheSize, nil, DefaultGetCacheAge),
	}
}

// Canonicalize validates and canonicalizes a raw host string.
func (s *Scanner) Canonicalize(raw string) (site.Site, scanerrors.ScanError) {
	return site.FromString(raw)
}

// Scan runs (or serves from cache) one scan for the raw host string.
func (s *Scanner) Scan(ctx context.Context, rawHost string, opts Options) (Result, scanerrors.ScanError) {
	target, serr := site.FromString(rawHost)
	if serr != nil {
		return Result{}, serr
	}

	maxAge := opts.MaxAge
	if maxAge <= 0 {
		maxAge = s.cfg.Cooldown
	}

	key := target.Key()
	if cached, ok := s.lookupCached(ctx, key, maxAge); ok {
		return cached, nil
	}

	// Concurrent callers for the same key share the winner's result.
	value, err, _ := s.flight.Do(key, func() (any, error) {
		// the winner re-checks the cache: a caller may have queued
		// behind a completed flight
		if cached, ok := s.lookupCached(ctx, key, maxAge); ok {
			return cached, nil
		}
		return s.scanFresh(ctx, target)
	})
	if err != nil {
		return Result{}, scanerrors.New(err)
	}
	return value.(Result), nil
}

// lookupCached serves a scan younger than maxAge from the in-process cache
// or the persisted corpus.
func (s *Scanner) lookupCached(ctx context.Context, key string, maxAge time.Duration) (Result, bool) {
	if entry, ok := s.cache.Get(key); ok {
		if s.clock.Now().Sub(entry.at) < maxAge {
			return Result{Report: entry.report, Row: entry.row, Cached: true}, true
		}
	}
	if s.store == nil {
		return Result{}, false
	}
	latest, err := s.store.LatestScan(ctx, key)
	if err != nil {
		s.logger.Warn("failed to read cached scan row", "site", key, "error", err)
		return Result{}, false
	}
	row, ok := latest.Get()
	if !ok || s.clock.Now().Sub(row.StartTime) >= maxAge {
		return Result{}, false
	}
	return Result{Report: reportFromRow(row), Row: row, Cached: true}, true
}

// scanFresh performs the retrieval and evaluation for one site.
func (s *Scanner) scanFresh(ctx context.Context, target site.Site) (Result, error) {
	key := target.Key()
	startTime := s.clock.Now()

	if s.cfg.ScanTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ScanTimeout)
		defer cancel()
	}

	if !s.cfg.SkipResolveCheck {
		if err := target.CheckResolvable(ctx, s.cfg.Resolver, s.cfg.AllowPrivate); err != nil {
			return Result{}, err
		}
	}

	req, retrErr := s.retriever.Retrieve(ctx, target)
	if retrErr != nil {
		if retrErr.Kind() == "scan-cancelled" {
			// no cached row is written for a cancelled scan
			return Result{}, retrErr
		}
		report := newErrorReport(key, startTime, retrErr.Kind())
		row := s.persist(ctx, report)
		s.cache.Add(key, cacheEntry{report: report, row: row, at: startTime})
		return Result{Report: report, Row: row}, nil
	}

	overrides := s.loadOverrides(ctx, key)
	results := battery.RunAll(s.registry, req, overrides)
	report := newReport(key, startTime, req.StatusCode, req.HeaderMap(), results)

	row := s.persist(ctx, report)
	s.cache.Add(key, cacheEntry{report: report, row: row, at: startTime})
	return Result{Report: report, Row: row}, nil
}

func (s *Scanner) loadOverrides(ctx context.Context, key string) map[string]string {
	if s.store == nil {
		return nil
	}
	overrides, err := s.store.Expectations(ctx, key)
	if err != nil {
		s.logger.Warn("failed to load expectation overrides", "site", key, "error", err)
		return nil
	}
	return overrides
}

func (s *Scanner) persist(ctx context.Context, report *ScanReport) store.ScanRow {
	row := rowFromReport(report)
	if s.store == nil {
		return row
	}
	saved, err := s.store.SaveScan(ctx, row)
	if err != nil {
		s.logger.Warn("failed to persist scan row", "site", report.SiteKey, "error", err)
		return row
	}
	return saved
}

// rowFromReport projects the persisted summary out of a report.
func rowFromReport(report *ScanReport) store.ScanRow {
	return store.ScanRow{
		SiteKey:          report.SiteKey,
		StartTime:        report.StartTime,
		AlgorithmVersion: report.AlgorithmVersion,
		Grade:            report.Grade,
		Score:            report.Score,
		StatusCode:       report.StatusCode,
		Error:            report.Error,
		TestsPassed:      report.TestsPassed,
		TestsFailed:      report.TestsFailed,
		TestsQuantity:    report.TestsQuantity,
	}
}

// reportFromRow reconstructs the summary view of a persisted scan. Tests
// and response headers are not persisted, so the map is empty.
func reportFromRow(row store.ScanRow) *ScanReport {
	return &ScanReport{
		AlgorithmVersion: row.AlgorithmVersion,
		SiteKey:          row.SiteKey,
		StartTime:        row.StartTime,
		Grade:            row.Grade,
		Score:            row.Score,
		StatusCode:       row.StatusCode,
		Error:            row.Error,
		TestsPassed:      row.TestsPassed,
		TestsFailed:      row.TestsFailed,
		TestsQuantity:    row.TestsQuantity,
		Tests:            map[string]battery.Result{},
	}
}

// FreshDetails runs an uncached, unpersisted scan to produce the full test
// results. Detail endpoints use it when the cooldown served a summary row:
// persistence holds no per-test data, so details always come from a fresh
// in-memory evaluation.
func (s *Scanner) FreshDetails(ctx context.Context, rawHost string) (*ScanReport, scanerrors.ScanError) {
	target, serr := site.FromString(rawHost)
	if serr != nil {
		return nil, serr
	}
	key := target.Key()
	startTime := s.clock.Now()

	req, retrErr := s.retriever.Retrieve(ctx, target)
	if retrErr != nil {
		return newErrorReport(key, startTime, retrErr.Kind()), nil
	}
	results := battery.RunAll(s.registry, req, s.loadOverrides(ctx, key))
	return newReport(key, startTime, req.StatusCode, req.HeaderMap(), results), nil
}

// AlgorithmVersion exposes the grader's version for API payloads.
func (s *Scanner) AlgorithmVersion() int { return grade.AlgorithmVersion }
