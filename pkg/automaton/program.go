// Package automaton implements a merged multi-pattern byte NFA.
//
// Each registered pattern compiles to a Fragment (a Thompson-construction
// instruction sequence). Fragments are appended to a single Program and
// evaluated in lock-step, one byte at a time, so scan cost is bounded by the
// number of live threads rather than by re-running each pattern. Appending
// never renumbers existing instructions, which means in-flight thread state
// survives mid-stream pattern registration.
package automaton

import "fmt"

// OpKind identifies an instruction type.
type OpKind uint8

const (
	// OpByte consumes one byte in [Lo, Hi] and continues at X.
	OpByte OpKind = iota
	// OpSplit forks epsilon edges to X and Y.
	OpSplit
	// OpJmp is an epsilon edge to X.
	OpJmp
	// OpAssertStart passes to X only at stream offset zero.
	OpAssertStart
	// OpAssertEnd passes to X only at end of stream (resolved on flush).
	OpAssertEnd
	// OpMatch accepts for the pattern indexed by X.
	OpMatch
)

// Inst is a single NFA instruction.
type Inst struct {
	Op     OpKind
	Lo, Hi byte   // byte range for OpByte
	X, Y   uint32 // successor addresses; pattern index for OpMatch
}

// instBytes approximates the in-memory footprint of one instruction,
// used for the memory estimate surface.
const instBytes = 12

// Fragment is one compiled pattern, with instruction addresses local to
// the fragment. The accept instruction carries a zero pattern index until
// the fragment is merged.
type Fragment struct {
	Insts []Inst
	Start uint32
}

// Cond carries the stream-position assertions available to an epsilon
// closure: whether the closure is being computed at the very start of the
// stream, and whether the stream has ended.
type Cond struct {
	AtStart bool
	AtEnd   bool
}

// EmitFunc receives a completion: the pattern index whose accept state was
// reached, and the start offset of the thread that reached it.
type EmitFunc func(pattern int, start int64)

// Program is the merged automaton for all registered patterns.
// Append-only: AddFragment extends the instruction stream and the entry
// list without touching prior addresses.
type Program struct {
	insts    []Inst
	entries  []uint32 // one spawn point per pattern, in registration order
	patterns []string // pattern id per index
}

// NewProgram returns an empty program.
func NewProgram() *Program {
	return &Program{}
}

// AddFragment merges a compiled fragment under the given pattern id and
// returns the pattern index assigned to it.
func (p *Program) AddFragment(f *Fragment, patternID string) int {
	base := uint32(len(p.insts))
	idx := len(p.patterns)

	for _, in := range f.Insts {
		switch in.Op {
		case OpMatch:
			in.X = uint32(idx)
		case OpByte, OpJmp, OpAssertStart, OpAssertEnd:
			in.X += base
		case OpSplit:
			in.X += base
			in.Y += base
		}
		p.insts = append(p.insts, in)
	}

	p.entries = append(p.entries, f.Start+base)
	p.patterns = append(p.patterns, patternID)
	return idx
}

// Size returns the number of instructions in the merged program.
func (p *Program) Size() int {
	return len(p.insts)
}

// NumPatterns returns the number of merged fragments.
func (p *Program) NumPatterns() int {
	return len(p.patterns)
}

// PatternID returns the id of the pattern at the given index.
func (p *Program) PatternID(idx int) string {
	return p.patterns[idx]
}

// Entries returns the spawn points of all merged fragments. The returned
// slice is owned by the program and must not be modified.
func (p *Program) Entries() []uint32 {
	return p.entries
}

// MemoryBytes estimates the resident size of the instruction stream.
func (p *Program) MemoryBytes() int {
	return len(p.insts)*instBytes + len(p.entries)*4
}

// AddThread inserts pc and its epsilon closure into l. Threads reaching an
// accept instruction fire emit; threads blocked on an end-of-stream
// assertion are parked in l and resolved by a later closure with
// cond.AtEnd set. Insertion order gives leftmost-start priority: earlier
// additions (older thread starts) win when closures collide on the same
// address.
func (p *Program) AddThread(l *ThreadList, pc uint32, start int64, cond Cond, emit EmitFunc) {
	if !l.add(pc, start) {
		return
	}

	in := &p.insts[pc]
	switch in.Op {
	case OpByte:
		// Parked until the next byte is consumed.
	case OpJmp:
		p.AddThread(l, in.X, start, cond, emit)
	case OpSplit:
		p.AddThread(l, in.X, start, cond, emit)
		p.AddThread(l, in.Y, start, cond, emit)
	case OpAssertStart:
		if cond.AtStart {
			p.AddThread(l, in.X, start, cond, emit)
		}
	case OpAssertEnd:
		if cond.AtEnd {
			p.AddThread(l, in.X, start, cond, emit)
		}
		// Otherwise the thread stays parked in l; a flush closure with
		// AtEnd set picks it up again.
	case OpMatch:
		if emit != nil {
			emit(int(in.X), start)
		}
	default:
		panic(fmt.Sprintf("automaton: corrupt instruction %d at pc %d", in.Op, pc))
	}
}

// Inst returns the instruction at pc.
func (p *Program) Inst(pc uint32) *Inst {
	return &p.insts[pc]
}
