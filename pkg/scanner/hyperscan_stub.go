//go:build !hyperscan

package scanner

import (
	"fmt"

	"github.com/praetorian-inc/streamscan/pkg/types"
)

// HyperscanAvailable reports whether this binary was built with the
// Hyperscan backend.
func HyperscanAvailable() bool {
	return false
}

// HyperscanScanner is unavailable without the hyperscan build tag.
type HyperscanScanner struct{}

// NewHyperscan always fails in builds without the hyperscan tag.
func NewHyperscan(patterns []*types.Pattern) (*HyperscanScanner, error) {
	return nil, fmt.Errorf("hyperscan support not compiled in (build with -tags hyperscan)")
}

// ProcessChunk is unavailable without the hyperscan build tag.
func (s *HyperscanScanner) ProcessChunk(chunk []byte) ([]types.MatchResult, error) {
	return nil, fmt.Errorf("hyperscan support not compiled in")
}

// Flush is unavailable without the hyperscan build tag.
func (s *HyperscanScanner) Flush() ([]types.MatchResult, error) {
	return nil, fmt.Errorf("hyperscan support not compiled in")
}

// Cursor always reports zero without the hyperscan build tag.
func (s *HyperscanScanner) Cursor() int64 { return 0 }

// Close is a no-op without the hyperscan build tag.
func (s *HyperscanScanner) Close() error { return nil }
