package store

import (
	"sort"
	"sync"

	"github.com/praetorian-inc/streamscan/pkg/types"
)

// MemoryStore implements Store with in-process maps. Useful for tests and
// one-shot scans that only report.
type MemoryStore struct {
	mu      sync.Mutex
	sources map[string]int64
	matches map[string][]types.MatchResult
	seen    map[Record]bool
}

// NewMemory creates an in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		sources: make(map[string]int64),
		matches: make(map[string][]types.MatchResult),
		seen:    make(map[Record]bool),
	}
}

// AddSource records a scanned stream.
func (s *MemoryStore) AddSource(name string, size int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources[name] = size
	return nil
}

// AddMatch stores a match record, ignoring exact duplicates.
func (s *MemoryStore) AddMatch(source string, m types.MatchResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := Record{Source: source, Match: m}
	if s.seen[rec] {
		return nil
	}
	s.seen[rec] = true
	s.matches[source] = append(s.matches[source], m)
	return nil
}

// Matches retrieves matches for one stream, in insertion (completion) order.
func (s *MemoryStore) Matches(source string) ([]types.MatchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]types.MatchResult, len(s.matches[source]))
	copy(out, s.matches[source])
	return out, nil
}

// AllRecords retrieves every stored match, grouped by source name.
func (s *MemoryStore) AllRecords() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.matches))
	for name := range s.matches {
		names = append(names, name)
	}
	sort.Strings(names)

	var records []Record
	for _, name := range names {
		for _, m := range s.matches[name] {
			records = append(records, Record{Source: name, Match: m})
		}
	}
	return records, nil
}

// MatchCount returns the total number of stored matches.
func (s *MemoryStore) MatchCount() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, ms := range s.matches {
		total += len(ms)
	}
	return total, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
