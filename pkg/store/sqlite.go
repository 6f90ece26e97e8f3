package store

import (
	"database/sql"
	"fmt"

	"github.com/praetorian-inc/streamscan/pkg/types"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite (pure-Go driver).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a SQLite-based store.
// Use ":memory:" for an in-memory database (useful for testing).
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Each pooled connection would otherwise get its own empty :memory:
	// database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// AddSource records a scanned stream.
func (s *SQLiteStore) AddSource(name string, size int64) error {
	_, err := s.db.Exec("INSERT OR REPLACE INTO sources (name, size) VALUES (?, ?)", name, size)
	if err != nil {
		return fmt.Errorf("inserting source: %w", err)
	}
	return nil
}

// AddMatch stores a match record.
func (s *SQLiteStore) AddMatch(source string, m types.MatchResult) error {
	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO matches (source, pattern_id, offset_start, length)
		VALUES (?, ?, ?, ?)
	`, source, m.PatternID, m.Start, m.Length)
	if err != nil {
		return fmt.Errorf("inserting match: %w", err)
	}
	return nil
}

// Matches retrieves matches for one stream, ordered by completion.
func (s *SQLiteStore) Matches(source string) ([]types.MatchResult, error) {
	rows, err := s.db.Query(`
		SELECT pattern_id, offset_start, length FROM matches
		WHERE source = ? ORDER BY offset_start + length, offset_start
	`, source)
	if err != nil {
		return nil, fmt.Errorf("querying matches: %w", err)
	}
	defer rows.Close()

	var matches []types.MatchResult
	for rows.Next() {
		var m types.MatchResult
		if err := rows.Scan(&m.PatternID, &m.Start, &m.Length); err != nil {
			return nil, fmt.Errorf("scanning match row: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// AllRecords retrieves every stored match.
func (s *SQLiteStore) AllRecords() ([]Record, error) {
	rows, err := s.db.Query(`
		SELECT source, pattern_id, offset_start, length FROM matches
		ORDER BY source, offset_start + length, offset_start
	`)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Source, &r.Match.PatternID, &r.Match.Start, &r.Match.Length); err != nil {
			return nil, fmt.Errorf("scanning record row: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// MatchCount returns the total number of stored matches.
func (s *SQLiteStore) MatchCount() (int, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM matches").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting matches: %w", err)
	}
	return count, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
