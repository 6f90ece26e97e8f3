package types

import "fmt"

// MatchResult is a single completed match. Value type, immutable once
// produced. Offsets are absolute byte positions since the matcher was
// created, not chunk-relative.
type MatchResult struct {
	PatternID string `json:"pattern_id"`
	Start     int64  `json:"start"`
	Length    int    `json:"length"`
}

// End returns the absolute offset one past the last matched byte.
func (m MatchResult) End() int64 {
	return m.Start + int64(m.Length)
}

// String renders the match for human output.
func (m MatchResult) String() string {
	return fmt.Sprintf("%s@%d+%d", m.PatternID, m.Start, m.Length)
}
