package automaton

// Thread is one partial-match hypothesis: an instruction address plus the
// absolute offset at which the attempt began.
type Thread struct {
	PC    uint32
	Start int64
}

// ThreadList is a sparse set of live threads, keyed by instruction
// address. Capacity is bounded by program size, never by stream length.
// The sparse/dense pairing gives O(1) membership checks without clearing
// between generations.
type ThreadList struct {
	dense  []Thread
	sparse []uint32
}

// NewThreadList returns a list sized for a program of n instructions.
func NewThreadList(n int) *ThreadList {
	return &ThreadList{sparse: make([]uint32, n)}
}

// Clear empties the list without releasing capacity.
func (l *ThreadList) Clear() {
	l.dense = l.dense[:0]
}

// Len returns the number of live threads.
func (l *ThreadList) Len() int {
	return len(l.dense)
}

// Dense returns the live threads in insertion order. The returned slice is
// owned by the list and is invalidated by Add or Clear.
func (l *ThreadList) Dense() []Thread {
	return l.dense
}

// Has reports whether pc is already present.
func (l *ThreadList) Has(pc uint32) bool {
	if int(pc) >= len(l.sparse) {
		return false
	}
	i := l.sparse[pc]
	return int(i) < len(l.dense) && l.dense[i].PC == pc
}

// add inserts pc with the given start offset, growing the sparse index if
// the program has grown since the list was created. Returns false if pc was
// already present; the existing (older, leftmost) start is kept.
func (l *ThreadList) add(pc uint32, start int64) bool {
	if int(pc) >= len(l.sparse) {
		grown := make([]uint32, int(pc)+1)
		copy(grown, l.sparse)
		l.sparse = grown
	}
	if l.Has(pc) {
		return false
	}
	l.sparse[pc] = uint32(len(l.dense))
	l.dense = append(l.dense, Thread{PC: pc, Start: start})
	return true
}

// MemoryBytes estimates the resident size of the list.
func (l *ThreadList) MemoryBytes() int {
	return cap(l.dense)*16 + cap(l.sparse)*4
}
