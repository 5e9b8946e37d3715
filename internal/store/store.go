package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	storedb "github.com/headscore/headscore/internal/store/db"
)

const (
	// the name of the database file
	dbName = "headscore.db"
)

// Store is the persistence surface for scan rows and per-site expectation
// overrides.
type Store interface {
	ScansStore
	ExpectationsStore
}

type dataStore struct {
	db *sql.DB
}

// New opens (creating if needed) the SQLite database under dataDir and
// applies the schema.
func New(dataDir string) (Store, error) {
	ds := &dataStore{}

	_, err := os.Stat(dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("directory %s does not exist", dataDir)
		}
		return nil, fmt.Errorf("failed to check if data directory exists: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbName)
	ds.db, err = sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Apply pragmatic defaults for concurrent API usage
	if _, err := ds.db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		return nil, fmt.Errorf("failed to set journal_mode WAL: %w", err)
	}
	if _, err := ds.db.Exec(`PRAGMA busy_timeout = 5000;`); err != nil {
		return nil, fmt.Errorf("failed to set busy_timeout: %w", err)
	}
	if _, err := ds.db.Exec(`PRAGMA synchronous = NORMAL;`); err != nil {
		return nil, fmt.Errorf("failed to set synchronous NORMAL: %w", err)
	}
	if _, err := ds.db.Exec(string(storedb.Schema)); err != nil {
		return nil, fmt.Errorf("failed to execute schema: %w", err)
	}

	scansStore, err := newScansStore(ds)
	if err != nil {
		return nil, fmt.Errorf("failed to create scans store: %w", err)
	}

	expectationsStore, err := newExpectationsStore(ds)
	if err != nil {
		return nil, fmt.Errorf("failed to create expectations store: %w", err)
	}

	return &struct {
		ScansStore
		ExpectationsStore
	}{
		ScansStore:        scansStore,
		ExpectationsStore: expectationsStore,
	}, nil
}

// toZulu stores timestamps as RFC-3339 UTC.
func toZulu(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func fromZulu(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
