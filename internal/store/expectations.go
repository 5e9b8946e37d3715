package store

import (
	"context"
	"fmt"
)

// ExpectationsStore holds per-site expectation overrides: absent entries
// mean the per-test default applies.
type ExpectationsStore interface {
	// SetExpectation upserts the expected outcome for one test on one site.
	SetExpectation(ctx context.Context, siteKey, testName, expectation string) error
	// Expectations returns all overrides for a site, keyed by test name.
	Expectations(ctx context.Context, siteKey string) (map[string]string, error)
	// DeleteExpectation removes one override.
	DeleteExpectation(ctx context.Context, siteKey, testName string) error
}

type expectationsStore struct {
	*dataStore
}

var _ ExpectationsStore = &expectationsStore{}

func newExpectationsStore(ds *dataStore) (*expectationsStore, error) {
	return &expectationsStore{dataStore: ds}, nil
}

func (s *expectationsStore) SetExpectation(ctx context.Context, siteKey, testName, expectation string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO expectations (site_key, test_name, expectation)
		VALUES (?, ?, ?)
		ON CONFLICT (site_key, test_name) DO UPDATE SET expectation = excluded.expectation`,
		siteKey, testName, expectation)
	if err != nil {
		return fmt.Errorf("failed to set expectation: %w", err)
	}
	return nil
}

func (s *expectationsStore) Expectations(ctx context.Context, siteKey string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT test_name, expectation FROM expectations WHERE site_key = ?`, siteKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get expectations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	overrides := map[string]string{}
	for rows.Next() {
		var testName, expectation string
		if err := rows.Scan(&testName, &expectation); err != nil {
			return nil, fmt.Errorf("failed to read expectation row: %w", err)
		}
		overrides[testName] = expectation
	}
	return overrides, rows.Err()
}

func (s *expectationsStore) DeleteExpectation(ctx context.Context, siteKey, testName string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM expectations WHERE site_key = ? AND test_name = ?`, siteKey, testName)
	if err != nil {
		return fmt.Errorf("failed to delete expectation: %w", err)
	}
	return nil
}
