package store

import (
	"path/filepath"
	"testing"

	"github.com/praetorian-inc/streamscan/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Both backends must satisfy the same contract.
func backends(t *testing.T) map[string]Store {
	t.Helper()

	sqlite, err := NewSQLite(":memory:")
	require.NoError(t, err)

	stores := map[string]Store{
		"memory": NewMemory(),
		"sqlite": sqlite,
	}
	t.Cleanup(func() {
		for _, s := range stores {
			s.Close()
		}
	})
	return stores
}

func TestStore_RoundTrip(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.AddSource("access.log", 4096))
			require.NoError(t, s.AddMatch("access.log", types.MatchResult{PatternID: "sqli", Start: 10, Length: 12}))
			require.NoError(t, s.AddMatch("access.log", types.MatchResult{PatternID: "xss", Start: 40, Length: 8}))
			require.NoError(t, s.AddMatch("other.log", types.MatchResult{PatternID: "sqli", Start: 0, Length: 5}))

			matches, err := s.Matches("access.log")
			require.NoError(t, err)
			require.Len(t, matches, 2)
			assert.Equal(t, "sqli", matches[0].PatternID)
			assert.Equal(t, int64(10), matches[0].Start)
			assert.Equal(t, "xss", matches[1].PatternID)

			count, err := s.MatchCount()
			require.NoError(t, err)
			assert.Equal(t, 3, count)

			records, err := s.AllRecords()
			require.NoError(t, err)
			require.Len(t, records, 3)
			assert.Equal(t, "access.log", records[0].Source)
			assert.Equal(t, "other.log", records[2].Source)
		})
	}
}

func TestStore_DuplicateMatchesIgnored(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			m := types.MatchResult{PatternID: "p", Start: 7, Length: 3}
			require.NoError(t, s.AddMatch("src", m))
			require.NoError(t, s.AddMatch("src", m))

			count, err := s.MatchCount()
			require.NoError(t, err)
			assert.Equal(t, 1, count, "re-persisting the same match is idempotent")
		})
	}
}

func TestStore_UnknownSource(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			matches, err := s.Matches("never-scanned")
			require.NoError(t, err)
			assert.Empty(t, matches)
		})
	}
}

func TestNew_SelectsBackend(t *testing.T) {
	s, err := New(Config{})
	require.NoError(t, err)
	defer s.Close()
	_, ok := s.(*MemoryStore)
	assert.True(t, ok)

	path := filepath.Join(t.TempDir(), "scan.db")
	s2, err := New(Config{Path: path})
	require.NoError(t, err)
	defer s2.Close()
	_, ok = s2.(*SQLiteStore)
	assert.True(t, ok)
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.db")

	s, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.AddMatch("src", types.MatchResult{PatternID: "p", Start: 1, Length: 2}))
	require.NoError(t, s.Close())

	s, err = NewSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	count, err := s.MatchCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSQLite_MatchesOrderedByCompletion(t *testing.T) {
	s, err := NewSQLite(":memory:")
	require.NoError(t, err)
	defer s.Close()

	// Inserted out of order; completion offset (start+length) sorts them.
	require.NoError(t, s.AddMatch("src", types.MatchResult{PatternID: "b", Start: 20, Length: 5}))
	require.NoError(t, s.AddMatch("src", types.MatchResult{PatternID: "a", Start: 0, Length: 4}))

	matches, err := s.Matches("src")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "a", matches[0].PatternID)
	assert.Equal(t, "b", matches[1].PatternID)
}
