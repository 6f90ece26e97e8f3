// Package scanner feeds byte chunks through a merged automaton, carrying
// exactly the live thread set and the stream cursor between calls. Memory
// is bounded by program size, independent of how many bytes have been
// processed.
package scanner

import (
	"github.com/praetorian-inc/streamscan/pkg/automaton"
	"github.com/praetorian-inc/streamscan/pkg/types"
)

// Scanner is a pure incremental transformation of automaton state. It
// never blocks and holds no buffered input; callers serialize access.
type Scanner struct {
	prog   *automaton.Program
	curr   *automaton.ThreadList
	next   *automaton.ThreadList
	cursor int64
}

// New creates a scanner over the given program. The program may keep
// growing (mid-stream registration); existing thread state stays valid
// because programs are append-only.
func New(prog *automaton.Program) *Scanner {
	return &Scanner{
		prog: prog,
		curr: automaton.NewThreadList(prog.Size()),
		next: automaton.NewThreadList(prog.Size()),
	}
}

// Cursor returns the absolute byte offset consumed so far. Monotonic for
// the scanner's lifetime.
func (s *Scanner) Cursor() int64 {
	return s.cursor
}

// ProcessChunk advances the automaton over chunk and returns completed
// matches in ascending completion order. A zero-length chunk is a no-op.
//
// At most one completion is reported per (pattern, end offset), with the
// leftmost start. This keeps the thread set bounded: tracking every
// overlapping start of the same pattern would grow state with stream
// length for self-overlapping patterns.
func (s *Scanner) ProcessChunk(chunk []byte) []types.MatchResult {
	if len(chunk) == 0 {
		return nil
	}

	var results []types.MatchResult

	for _, c := range chunk {
		pos := s.cursor
		spawnCond := automaton.Cond{AtStart: pos == 0}

		// Fresh match attempts begin at every position. Patterns that
		// match the empty string complete immediately with length zero.
		for _, entry := range s.prog.Entries() {
			s.prog.AddThread(s.curr, entry, pos, spawnCond, func(pattern int, start int64) {
				results = append(results, types.MatchResult{
					PatternID: s.prog.PatternID(pattern),
					Start:     start,
					Length:    int(pos - start),
				})
			})
		}

		// Step every live thread over the byte. Completions fired here
		// consumed c, so they end at pos+1.
		s.next.Clear()
		end := pos + 1
		for _, th := range s.curr.Dense() {
			in := s.prog.Inst(th.PC)
			if in.Op != automaton.OpByte || c < in.Lo || c > in.Hi {
				continue
			}
			s.prog.AddThread(s.next, in.X, th.Start, automaton.Cond{}, func(pattern int, start int64) {
				results = append(results, types.MatchResult{
					PatternID: s.prog.PatternID(pattern),
					Start:     start,
					Length:    int(end - start),
				})
			})
		}

		s.curr, s.next = s.next, s.curr
		s.cursor++
	}

	return results
}

// Flush resolves end-of-stream assertions ($) and final-position empty
// matches, then drops all live threads. The cursor is preserved; a
// subsequent ProcessChunk starts a fresh thread set at the same offset.
func (s *Scanner) Flush() []types.MatchResult {
	var results []types.MatchResult
	end := s.cursor
	emit := func(pattern int, start int64) {
		results = append(results, types.MatchResult{
			PatternID: s.prog.PatternID(pattern),
			Start:     start,
			Length:    int(end - start),
		})
	}

	final := automaton.NewThreadList(s.prog.Size())
	cond := automaton.Cond{AtStart: end == 0, AtEnd: true}

	// Threads parked on an end-of-stream assertion resume here.
	for _, th := range s.curr.Dense() {
		if s.prog.Inst(th.PC).Op == automaton.OpAssertEnd {
			s.prog.AddThread(final, s.prog.Inst(th.PC).X, th.Start, cond, emit)
		}
	}

	// End-anchored attempts spawned at the final position.
	for _, entry := range s.prog.Entries() {
		s.prog.AddThread(final, entry, end, cond, emit)
	}

	s.curr.Clear()
	s.next.Clear()
	return results
}

// MemoryEstimate reports resident state size in bytes. It is a function
// of program size and thread-set capacity only; cumulative bytes
// processed do not appear in it.
func (s *Scanner) MemoryEstimate() int {
	return s.prog.MemoryBytes() + s.curr.MemoryBytes() + s.next.MemoryBytes()
}
