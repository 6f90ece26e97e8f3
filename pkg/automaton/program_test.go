package automaton

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// literalFragment builds a fragment matching the given bytes, the way the
// compiler lays out simple literals: one OpByte per byte, then OpMatch.
func literalFragment(s string) *Fragment {
	insts := make([]Inst, 0, len(s)+1)
	for i := 0; i < len(s); i++ {
		insts = append(insts, Inst{Op: OpByte, Lo: s[i], Hi: s[i], X: uint32(i + 1)})
	}
	insts = append(insts, Inst{Op: OpMatch})
	return &Fragment{Insts: insts, Start: 0}
}

func TestProgram_AddFragment(t *testing.T) {
	p := NewProgram()

	idx := p.AddFragment(literalFragment("abc"), "first")
	assert.Equal(t, 0, idx)
	assert.Equal(t, 4, p.Size())
	assert.Equal(t, 1, p.NumPatterns())
	assert.Equal(t, "first", p.PatternID(0))

	idx = p.AddFragment(literalFragment("xy"), "second")
	assert.Equal(t, 1, idx)
	assert.Equal(t, 7, p.Size())
	assert.Equal(t, "second", p.PatternID(1))

	// Entry points reflect the base offsets of each fragment.
	require.Equal(t, []uint32{0, 4}, p.Entries())
}

func TestProgram_AddFragmentRelocatesTargets(t *testing.T) {
	p := NewProgram()
	p.AddFragment(literalFragment("abc"), "first")
	p.AddFragment(literalFragment("xy"), "second")

	// The second fragment's first byte instruction must point past the
	// first fragment's instructions.
	in := p.Inst(4)
	assert.Equal(t, OpByte, in.Op)
	assert.Equal(t, uint32(5), in.X)

	// Accept instructions carry the pattern index, not an address.
	assert.Equal(t, OpMatch, p.Inst(6).Op)
	assert.Equal(t, uint32(1), p.Inst(6).X)
}

func TestProgram_AppendOnlyPreservesAddresses(t *testing.T) {
	p := NewProgram()
	p.AddFragment(literalFragment("abc"), "first")

	before := *p.Inst(0)
	p.AddFragment(literalFragment("mnop"), "second")

	// Existing instructions are untouched, so in-flight thread PCs
	// survive mid-stream registration.
	assert.Equal(t, before, *p.Inst(0))
	assert.Equal(t, []uint32{0, 4}, p.Entries())
}

func TestAddThread_EpsilonClosure(t *testing.T) {
	// split -> (byte 'a' | jmp -> byte 'b')
	f := &Fragment{
		Insts: []Inst{
			{Op: OpSplit, X: 1, Y: 2},
			{Op: OpByte, Lo: 'a', Hi: 'a', X: 4},
			{Op: OpJmp, X: 3},
			{Op: OpByte, Lo: 'b', Hi: 'b', X: 4},
			{Op: OpMatch},
		},
		Start: 0,
	}
	p := NewProgram()
	p.AddFragment(f, "alt")

	l := NewThreadList(p.Size())
	p.AddThread(l, 0, 0, Cond{}, nil)

	// The closure walks through split and jmp to both byte instructions.
	assert.True(t, l.Has(1))
	assert.True(t, l.Has(3))
	assert.Equal(t, 4, l.Len())
}

func TestAddThread_EmitsOnMatch(t *testing.T) {
	p := NewProgram()
	p.AddFragment(literalFragment(""), "empty")

	var gotPattern int = -1
	var gotStart int64 = -1
	l := NewThreadList(p.Size())
	p.AddThread(l, 0, 7, Cond{}, func(pattern int, start int64) {
		gotPattern = pattern
		gotStart = start
	})

	assert.Equal(t, 0, gotPattern)
	assert.Equal(t, int64(7), gotStart)
}

func TestAddThread_Assertions(t *testing.T) {
	f := &Fragment{
		Insts: []Inst{
			{Op: OpAssertStart, X: 1},
			{Op: OpMatch},
		},
		Start: 0,
	}
	p := NewProgram()
	p.AddFragment(f, "anchored")

	fired := 0
	emit := func(int, int64) { fired++ }

	l := NewThreadList(p.Size())
	p.AddThread(l, 0, 0, Cond{}, emit)
	assert.Equal(t, 0, fired, "assertion must block away from stream start")

	l = NewThreadList(p.Size())
	p.AddThread(l, 0, 0, Cond{AtStart: true}, emit)
	assert.Equal(t, 1, fired)
}

func TestAddThread_EpsilonLoopTerminates(t *testing.T) {
	// split -> itself on both edges; the sparse set breaks the cycle.
	f := &Fragment{
		Insts: []Inst{
			{Op: OpSplit, X: 0, Y: 0},
		},
		Start: 0,
	}
	p := NewProgram()
	p.AddFragment(f, "loop")

	l := NewThreadList(p.Size())
	p.AddThread(l, 0, 0, Cond{}, nil)
	assert.Equal(t, 1, l.Len())
}

func TestThreadList_LeftmostStartWins(t *testing.T) {
	p := NewProgram()
	p.AddFragment(literalFragment("a"), "p")

	l := NewThreadList(p.Size())
	p.AddThread(l, 0, 3, Cond{}, nil)
	p.AddThread(l, 0, 9, Cond{}, nil)

	require.Equal(t, 1, l.Len())
	assert.Equal(t, int64(3), l.Dense()[0].Start)
}

func TestThreadList_GrowsWithProgram(t *testing.T) {
	l := NewThreadList(2)

	// A pc beyond the original size appears after mid-stream merges.
	assert.False(t, l.Has(10))
	assert.True(t, l.add(10, 0))
	assert.True(t, l.Has(10))
	assert.False(t, l.add(10, 5), "duplicate pc must be rejected")

	l.Clear()
	assert.False(t, l.Has(10))
	assert.Equal(t, 0, l.Len())
}
