// Package pattern compiles regex source text into automaton fragments and
// manages the builtin pattern catalogue.
//
// The supported syntax is the RE2-style subset: literals, character
// classes, anchors, alternation, bounded and unbounded repetition, and the
// case-insensitivity flag. Matching is byte-oriented: offsets and lengths
// are byte counts, and case folding is resolved into byte alternatives at
// compile time.
package pattern

import (
	"errors"
	"fmt"
	"regexp/syntax"
	"unicode/utf8"

	"github.com/praetorian-inc/streamscan/pkg/automaton"
)

// maxFragmentInsts caps the compiled size of a single pattern. Bounded
// repetitions expand to instruction sequences; a cap keeps per-pattern
// state (and therefore scanner memory) proportional to pattern length.
const maxFragmentInsts = 4096

// ErrTooComplex is returned when a pattern expands past maxFragmentInsts.
var ErrTooComplex = errors.New("pattern too complex")

// SyntaxError reports invalid or unsupported pattern text.
type SyntaxError struct {
	Source    string // the offending pattern text
	Construct string // the unsupported construct, when known
	Err       error  // underlying parse error, if any
}

func (e *SyntaxError) Error() string {
	if e.Construct != "" {
		return fmt.Sprintf("pattern %q: unsupported construct: %s", e.Source, e.Construct)
	}
	return fmt.Sprintf("pattern %q: %v", e.Source, e.Err)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// Compile parses source and builds an automaton fragment ready for
// merging. It has no side effects; registering the fragment into a live
// program is the caller's responsibility.
func Compile(source string, caseInsensitive bool) (*automaton.Fragment, error) {
	flags := syntax.Perl
	if caseInsensitive {
		flags |= syntax.FoldCase
	}

	re, err := syntax.Parse(source, flags)
	if err != nil {
		var serr *syntax.Error
		if errors.As(err, &serr) {
			return nil, &SyntaxError{Source: source, Construct: string(serr.Code), Err: err}
		}
		return nil, &SyntaxError{Source: source, Err: err}
	}

	b := &builder{source: source}
	f, err := b.compile(re.Simplify())
	if err != nil {
		return nil, err
	}

	match, err := b.emit(automaton.Inst{Op: automaton.OpMatch})
	if err != nil {
		return nil, err
	}
	b.patch(f.out, match)

	return &automaton.Fragment{Insts: b.insts, Start: f.start}, nil
}

// hole is a successor slot awaiting its target address.
type hole struct {
	pc uint32
	y  bool
}

// frag is a partially built fragment: an entry address and the dangling
// successor slots that the following construct must fill in.
type frag struct {
	start uint32
	out   []hole
}

type builder struct {
	source string
	insts  []automaton.Inst
}

func (b *builder) emit(in automaton.Inst) (uint32, error) {
	if len(b.insts) >= maxFragmentInsts {
		return 0, fmt.Errorf("pattern %q: %w", b.source, ErrTooComplex)
	}
	b.insts = append(b.insts, in)
	return uint32(len(b.insts) - 1), nil
}

func (b *builder) patch(out []hole, target uint32) {
	for _, h := range out {
		if h.y {
			b.insts[h.pc].Y = target
		} else {
			b.insts[h.pc].X = target
		}
	}
}

func (b *builder) compile(re *syntax.Regexp) (frag, error) {
	switch re.Op {
	case syntax.OpEmptyMatch:
		return b.emptyFrag()

	case syntax.OpLiteral:
		return b.literal(re.Rune, re.Flags&syntax.FoldCase != 0)

	case syntax.OpCharClass:
		ranges, err := byteRanges(b.source, re.Rune)
		if err != nil {
			return frag{}, err
		}
		return b.byteAlt(ranges)

	case syntax.OpAnyChar:
		return b.byteAlt([][2]byte{{0x00, 0xFF}})

	case syntax.OpAnyCharNotNL:
		return b.byteAlt([][2]byte{{0x00, '\n' - 1}, {'\n' + 1, 0xFF}})

	case syntax.OpConcat:
		return b.concat(re.Sub)

	case syntax.OpAlternate:
		return b.alternate(re.Sub)

	case syntax.OpStar:
		return b.star(re.Sub[0])

	case syntax.OpPlus:
		return b.plus(re.Sub[0])

	case syntax.OpQuest:
		return b.quest(re.Sub[0])

	case syntax.OpCapture:
		// Group structure only; captures are not tracked.
		return b.compile(re.Sub[0])

	case syntax.OpBeginText:
		return b.assert(automaton.OpAssertStart)

	case syntax.OpEndText:
		return b.assert(automaton.OpAssertEnd)

	case syntax.OpBeginLine, syntax.OpEndLine:
		return frag{}, &SyntaxError{Source: b.source, Construct: "multiline anchor (?m)"}

	case syntax.OpWordBoundary, syntax.OpNoWordBoundary:
		return frag{}, &SyntaxError{Source: b.source, Construct: "word boundary"}

	case syntax.OpNoMatch:
		// A byte range that can never be satisfied.
		pc, err := b.emit(automaton.Inst{Op: automaton.OpByte, Lo: 1, Hi: 0})
		if err != nil {
			return frag{}, err
		}
		return frag{start: pc, out: []hole{{pc: pc}}}, nil

	case syntax.OpRepeat:
		// Simplify rewrites counted repetition into basic operators; a
		// leftover OpRepeat means the expansion was abandoned as too large.
		return frag{}, fmt.Errorf("pattern %q: %w", b.source, ErrTooComplex)

	default:
		return frag{}, &SyntaxError{Source: b.source, Construct: re.Op.String()}
	}
}

func (b *builder) emptyFrag() (frag, error) {
	pc, err := b.emit(automaton.Inst{Op: automaton.OpJmp})
	if err != nil {
		return frag{}, err
	}
	return frag{start: pc, out: []hole{{pc: pc}}}, nil
}

func (b *builder) assert(op automaton.OpKind) (frag, error) {
	pc, err := b.emit(automaton.Inst{Op: op})
	if err != nil {
		return frag{}, err
	}
	return frag{start: pc, out: []hole{{pc: pc}}}, nil
}

// literal compiles a rune sequence. ASCII letters under case folding
// become two-byte alternatives; runes above ASCII are matched by their
// UTF-8 byte sequence, without folding.
func (b *builder) literal(runes []rune, fold bool) (frag, error) {
	frags := make([]frag, 0, len(runes))
	for _, r := range runes {
		f, err := b.rune(r, fold)
		if err != nil {
			return frag{}, err
		}
		frags = append(frags, f)
	}
	return b.join(frags)
}

func (b *builder) rune(r rune, fold bool) (frag, error) {
	if r < utf8.RuneSelf {
		c := byte(r)
		if fold {
			switch {
			case c >= 'a' && c <= 'z':
				return b.byteAlt([][2]byte{{c - 32, c - 32}, {c, c}})
			case c >= 'A' && c <= 'Z':
				return b.byteAlt([][2]byte{{c, c}, {c + 32, c + 32}})
			}
		}
		return b.byteAlt([][2]byte{{c, c}})
	}

	var buf [utf8.UTFMax]byte
	n := utf8.EncodeRune(buf[:], r)
	frags := make([]frag, 0, n)
	for i := 0; i < n; i++ {
		f, err := b.byteAlt([][2]byte{{buf[i], buf[i]}})
		if err != nil {
			return frag{}, err
		}
		frags = append(frags, f)
	}
	return b.join(frags)
}

// byteAlt emits one OpByte per range, chained with splits, all sharing a
// common dangling successor.
func (b *builder) byteAlt(ranges [][2]byte) (frag, error) {
	var out frag
	for i, r := range ranges {
		pc, err := b.emit(automaton.Inst{Op: automaton.OpByte, Lo: r[0], Hi: r[1]})
		if err != nil {
			return frag{}, err
		}
		f := frag{start: pc, out: []hole{{pc: pc}}}
		if i == 0 {
			out = f
			continue
		}
		out, err = b.split(out, f)
		if err != nil {
			return frag{}, err
		}
	}
	return out, nil
}

// split combines two fragments as alternatives.
func (b *builder) split(a, c frag) (frag, error) {
	pc, err := b.emit(automaton.Inst{Op: automaton.OpSplit, X: a.start, Y: c.start})
	if err != nil {
		return frag{}, err
	}
	return frag{start: pc, out: append(a.out, c.out...)}, nil
}

// join sequences fragments, patching each one's exits to the next entry.
func (b *builder) join(frags []frag) (frag, error) {
	if len(frags) == 0 {
		return b.emptyFrag()
	}
	for i := 0; i < len(frags)-1; i++ {
		b.patch(frags[i].out, frags[i+1].start)
	}
	return frag{start: frags[0].start, out: frags[len(frags)-1].out}, nil
}

func (b *builder) concat(subs []*syntax.Regexp) (frag, error) {
	frags := make([]frag, 0, len(subs))
	for _, sub := range subs {
		f, err := b.compile(sub)
		if err != nil {
			return frag{}, err
		}
		frags = append(frags, f)
	}
	return b.join(frags)
}

func (b *builder) alternate(subs []*syntax.Regexp) (frag, error) {
	var out frag
	for i, sub := range subs {
		f, err := b.compile(sub)
		if err != nil {
			return frag{}, err
		}
		if i == 0 {
			out = f
			continue
		}
		out, err = b.split(out, f)
		if err != nil {
			return frag{}, err
		}
	}
	if len(subs) == 0 {
		return b.emptyFrag()
	}
	return out, nil
}

func (b *builder) star(sub *syntax.Regexp) (frag, error) {
	f, err := b.compile(sub)
	if err != nil {
		return frag{}, err
	}
	pc, err := b.emit(automaton.Inst{Op: automaton.OpSplit, X: f.start})
	if err != nil {
		return frag{}, err
	}
	b.patch(f.out, pc)
	return frag{start: pc, out: []hole{{pc: pc, y: true}}}, nil
}

func (b *builder) plus(sub *syntax.Regexp) (frag, error) {
	f, err := b.compile(sub)
	if err != nil {
		return frag{}, err
	}
	pc, err := b.emit(automaton.Inst{Op: automaton.OpSplit, X: f.start})
	if err != nil {
		return frag{}, err
	}
	b.patch(f.out, pc)
	return frag{start: f.start, out: []hole{{pc: pc, y: true}}}, nil
}

func (b *builder) quest(sub *syntax.Regexp) (frag, error) {
	f, err := b.compile(sub)
	if err != nil {
		return frag{}, err
	}
	pc, err := b.emit(automaton.Inst{Op: automaton.OpSplit, X: f.start})
	if err != nil {
		return frag{}, err
	}
	return frag{start: pc, out: append(f.out, hole{pc: pc, y: true})}, nil
}

// byteRanges projects parser rune ranges onto byte values. Ranges entirely
// above 0xFF are dropped; ranges straddling the boundary are clipped. A
// class with no byte-representable range is rejected.
func byteRanges(source string, runes []rune) ([][2]byte, error) {
	var ranges [][2]byte
	for i := 0; i+1 < len(runes); i += 2 {
		lo, hi := runes[i], runes[i+1]
		if lo > 0xFF {
			continue
		}
		if hi > 0xFF {
			hi = 0xFF
		}
		ranges = append(ranges, [2]byte{byte(lo), byte(hi)})
	}
	if len(ranges) == 0 {
		return nil, &SyntaxError{Source: source, Construct: "non-ASCII character class"}
	}
	return ranges, nil
}
