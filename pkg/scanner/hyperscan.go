//go:build hyperscan

package scanner

import (
	"fmt"

	"github.com/flier/gohs/hyperscan"
	"github.com/praetorian-inc/streamscan/pkg/types"
)

// HyperscanAvailable reports whether this binary was built with the
// Hyperscan backend.
func HyperscanAvailable() bool {
	return true
}

// HyperscanScanner is a stream-mode Hyperscan backend. It offers the same
// surface as Scanner for a fixed pattern set: Hyperscan stream databases
// cannot grow after compilation, so mid-stream registration is not
// supported here.
//
// Hyperscan reports end-of-data matches when the stream is closed, which
// maps onto Flush.
type HyperscanScanner struct {
	db      hyperscan.StreamDatabase
	scratch *hyperscan.Scratch
	stream  hyperscan.Stream
	ids     []string
	cursor  int64
	pending []types.MatchResult
}

// NewHyperscan compiles the patterns into a stream database and opens a
// stream. Pattern index order defines the reported identifiers.
func NewHyperscan(patterns []*types.Pattern) (*HyperscanScanner, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("no patterns provided")
	}

	hsPatterns := make([]*hyperscan.Pattern, len(patterns))
	ids := make([]string, len(patterns))
	for i, p := range patterns {
		flags := hyperscan.SomLeftMost
		if p.CaseInsensitive {
			flags |= hyperscan.Caseless
		}
		hp := hyperscan.NewPattern(p.Source, flags)
		hp.Id = i
		hsPatterns[i] = hp
		ids[i] = p.ID
	}

	db, err := hyperscan.NewStreamDatabase(hsPatterns...)
	if err != nil {
		return nil, fmt.Errorf("compiling stream database: %w", err)
	}

	scratch, err := hyperscan.NewScratch(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("allocating scratch: %w", err)
	}

	s := &HyperscanScanner{db: db, scratch: scratch, ids: ids}
	stream, err := db.Open(0, scratch, s.onMatch, nil)
	if err != nil {
		scratch.Free()
		db.Close()
		return nil, fmt.Errorf("opening stream: %w", err)
	}
	s.stream = stream

	return s, nil
}

func (s *HyperscanScanner) onMatch(id uint, from, to uint64, flags uint, context interface{}) error {
	if int(id) >= len(s.ids) {
		return fmt.Errorf("invalid pattern id from hyperscan: %d", id)
	}
	s.pending = append(s.pending, types.MatchResult{
		PatternID: s.ids[id],
		Start:     int64(from),
		Length:    int(to - from),
	})
	return nil
}

// Cursor returns the absolute byte offset consumed so far.
func (s *HyperscanScanner) Cursor() int64 {
	return s.cursor
}

// ProcessChunk scans one chunk and returns matches completed within it.
func (s *HyperscanScanner) ProcessChunk(chunk []byte) ([]types.MatchResult, error) {
	if len(chunk) == 0 {
		return nil, nil
	}
	if err := s.stream.Scan(chunk); err != nil {
		return nil, fmt.Errorf("hyperscan stream scan: %w", err)
	}
	s.cursor += int64(len(chunk))
	return s.drain(), nil
}

// Flush closes the current stream, surfacing end-anchored matches, and
// opens a fresh stream at the same cursor.
func (s *HyperscanScanner) Flush() ([]types.MatchResult, error) {
	if err := s.stream.Close(); err != nil {
		return nil, fmt.Errorf("closing hyperscan stream: %w", err)
	}
	stream, err := s.db.Open(0, s.scratch, s.onMatch, nil)
	if err != nil {
		return nil, fmt.Errorf("reopening hyperscan stream: %w", err)
	}
	s.stream = stream
	return s.drain(), nil
}

func (s *HyperscanScanner) drain() []types.MatchResult {
	out := s.pending
	s.pending = nil
	return out
}

// Close releases the stream, scratch space, and database.
func (s *HyperscanScanner) Close() error {
	if s.stream != nil {
		s.stream.Close()
		s.stream = nil
	}
	if s.scratch != nil {
		if err := s.scratch.Free(); err != nil {
			return fmt.Errorf("freeing scratch: %w", err)
		}
		s.scratch = nil
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return fmt.Errorf("closing database: %w", err)
		}
		s.db = nil
	}
	return nil
}
