// Package store persists match results produced by scan runs.
package store

import (
	"fmt"
	"strings"

	"github.com/praetorian-inc/streamscan/pkg/types"
)

// Record is one persisted match, tagged with the stream it came from.
type Record struct {
	Source string            `json:"source"`
	Match  types.MatchResult `json:"match"`
}

// Store provides persistence for scan results. The interface abstracts
// the backend so scans can write to SQLite or stay in memory.
type Store interface {
	// AddSource records a scanned stream and its size in bytes.
	AddSource(name string, size int64) error

	// AddMatch stores one match from the named stream.
	AddMatch(source string, m types.MatchResult) error

	// Matches retrieves matches for one stream, in completion order.
	Matches(source string) ([]types.MatchResult, error)

	// AllRecords retrieves every stored match (for reporting/export).
	AllRecords() ([]Record, error)

	// MatchCount returns the total number of stored matches.
	MatchCount() (int, error)

	// Close releases the backend.
	Close() error
}

// Config for store creation.
type Config struct {
	// Path selects the backend: empty for the pure in-memory store, a
	// postgres:// or postgresql:// DSN for PostgreSQL, anything else is
	// a SQLite database file (":memory:" keeps it in RAM).
	Path string
}

// New creates a store from config.
func New(cfg Config) (Store, error) {
	switch {
	case cfg.Path == "":
		return NewMemory(), nil
	case strings.HasPrefix(cfg.Path, "postgres://") || strings.HasPrefix(cfg.Path, "postgresql://"):
		s, err := NewPostgres(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("creating postgres store: %w", err)
		}
		return s, nil
	default:
		s, err := NewSQLite(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("creating sqlite store: %w", err)
		}
		return s, nil
	}
}
