package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/samber/mo"
)

// ScanRow is the persisted summary of one scan. Full test results are not
// persisted; detail endpoints re-scan to produce them.
type ScanRow struct {
	ID               int64
	SiteKey          string
	StartTime        time.Time
	AlgorithmVersion int
	Grade            *string
	Score            *int
	StatusCode       int
	Error            string
	TestsPassed      int
	TestsFailed      int
	TestsQuantity    int
}

// GradeCount is one bucket of the grade distribution.
type GradeCount struct {
	Grade string
	Count int64
}

type ScansStore interface {
	// SaveScan inserts a new scan row and returns it with its id set.
	SaveScan(ctx context.Context, row ScanRow) (ScanRow, error)
	// LatestScan returns the most recent row for a site key, if any.
	LatestScan(ctx context.Context, siteKey string) (mo.Option[ScanRow], error)
	// History returns all rows for a site key, oldest first.
	History(ctx context.Context, siteKey string) ([]ScanRow, error)
	// GradeDistribution buckets the latest row per site by grade.
	GradeDistribution(ctx context.Context) ([]GradeCount, error)
	// TotalScans counts all persisted rows.
	TotalScans(ctx context.Context) (int64, error)
	// RecentScans counts rows younger than the given age.
	RecentScans(ctx context.Context, age time.Duration) (int64, error)
}

type scansStore struct {
	*dataStore
}

var _ ScansStore = &scansStore{}

func newScansStore(ds *dataStore) (*scansStore, error) {
	return &scansStore{dataStore: ds}, nil
}

func (s *scansStore) SaveScan(ctx context.Context, row ScanRow) (ScanRow, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO scans (
			site_key, start_time, algorithm_version, grade, score,
			status_code, error, tests_passed, tests_failed, tests_quantity
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.SiteKey, toZulu(row.StartTime), row.AlgorithmVersion, row.Grade, row.Score,
		row.StatusCode, row.Error, row.TestsPassed, row.TestsFailed, row.TestsQuantity,
	)
	if err != nil {
		return ScanRow{}, fmt.Errorf("failed to insert scan: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return ScanRow{}, fmt.Errorf("failed to read scan id: %w", err)
	}
	row.ID = id
	return row, nil
}

const scanColumns = `
	id, site_key, start_time, algorithm_version, grade, score,
	status_code, error, tests_passed, tests_failed, tests_quantity`

func (s *scansStore) LatestScan(ctx context.Context, siteKey string) (mo.Option[ScanRow], error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+scanColumns+`
		FROM scans WHERE site_key = ?
		ORDER BY start_time DESC, id DESC LIMIT 1`, siteKey)

	scan, err := scanFromRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return mo.None[ScanRow](), nil
		}
		return mo.None[ScanRow](), fmt.Errorf("failed to get latest scan: %w", err)
	}
	return mo.Some(scan), nil
}

func (s *scansStore) History(ctx context.Context, siteKey string) ([]ScanRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+scanColumns+`
		FROM scans WHERE site_key = ?
		ORDER BY start_time ASC, id ASC`, siteKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get scan history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var history []ScanRow
	for rows.Next() {
		scan, err := scanFromRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to read scan history row: %w", err)
		}
		history = append(history, scan)
	}
	return history, rows.Err()
}

func (s *scansStore) GradeDistribution(ctx context.Context) ([]GradeCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT grade, COUNT(*) FROM (
			SELECT site_key, grade,
				ROW_NUMBER() OVER (PARTITION BY site_key ORDER BY start_time DESC, id DESC) AS rn
			FROM scans WHERE grade IS NOT NULL
		) WHERE rn = 1
		GROUP BY grade ORDER BY COUNT(*) DESC, grade ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to get grade distribution: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var counts []GradeCount
	for rows.Next() {
		var gc GradeCount
		if err := rows.Scan(&gc.Grade, &gc.Count); err != nil {
			return nil, fmt.Errorf("failed to read grade distribution row: %w", err)
		}
		counts = append(counts, gc)
	}
	return counts, rows.Err()
}

func (s *scansStore) TotalScans(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scans`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count scans: %w", err)
	}
	return count, nil
}

func (s *scansStore) RecentScans(ctx context.Context, age time.Duration) (int64, error) {
	var count int64
	cutoff := toZulu(time.Now().Add(-age))
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scans WHERE start_time >= ?`, cutoff).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count recent scans: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFromRow(r rowScanner) (ScanRow, error) {
	var (
		row       ScanRow
		startTime string
		grade     sql.NullString
		score     sql.NullInt64
	)
	err := r.Scan(
		&row.ID, &row.SiteKey, &startTime, &row.AlgorithmVersion, &grade, &score,
		&row.StatusCode, &row.Error, &row.TestsPassed, &row.TestsFailed, &row.TestsQuantity,
	)
	if err != nil {
		return ScanRow{}, err
	}
	row.StartTime = fromZulu(startTime)
	if grade.Valid {
		row.Grade = &grade.String
	}
	if score.Valid {
		v := int(score.Int64)
		row.Score = &v
	}
	return row, nil
}
