// Package streamscan provides streaming multi-pattern matching over
// unbounded byte streams.
//
// A Matcher holds a set of registered regular-expression patterns merged
// into a single automaton. Callers submit a stream in chunks of any size;
// every match is reported exactly once with its absolute byte offset and
// length, including matches that straddle chunk boundaries. State carried
// between chunks is bounded by pattern count and pattern length, never by
// how many bytes have been processed.
//
// # Basic Usage
//
// Create a matcher, register patterns, subscribe an observer, and submit
// chunks:
//
//	m, err := streamscan.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer m.Close()
//
//	id, err := m.Register("stream")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	m.Subscribe(func(match streamscan.Match) {
//	    fmt.Printf("%s at offset %d\n", match.PatternID, match.Start)
//	})
//
//	m.Submit([]byte("testing str"))
//	m.Submit([]byte("eam processing")) // match reported despite the split
//
// # With the Builtin Catalogue
//
// Load the curated security patterns and stream a file through them:
//
//	patterns, err := streamscan.LoadBuiltinPatterns()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	m, err := streamscan.New(streamscan.WithCatalogue(patterns))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer m.Close()
//
//	f, _ := os.Open("access.log")
//	defer f.Close()
//	m.SubmitReader(f, 64*1024)
package streamscan

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/praetorian-inc/streamscan/pkg/automaton"
	"github.com/praetorian-inc/streamscan/pkg/pattern"
	"github.com/praetorian-inc/streamscan/pkg/scanner"
	"github.com/praetorian-inc/streamscan/pkg/types"
)

// Re-export commonly used types for convenience. Users can import just
// "github.com/praetorian-inc/streamscan" without subpackages.
type (
	// Match is a single completed match with absolute offsets.
	Match = types.MatchResult

	// Pattern is a registered detection pattern with metadata.
	Pattern = types.Pattern
)

var (
	// ErrDuplicateID is returned when registering a pattern under an
	// identifier that is already taken.
	ErrDuplicateID = errors.New("duplicate pattern id")

	// ErrInvalidInput is returned for malformed submissions or
	// registration arguments. The rejection is atomic: no state changes.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidObserver is returned when subscribing a nil observer.
	ErrInvalidObserver = errors.New("observer must not be nil")

	// ErrClosed is returned for operations on a closed matcher.
	ErrClosed = errors.New("matcher is closed")
)

// ObserverFunc receives each completed match, in completion order.
type ObserverFunc func(Match)

// DefaultChunkSize is the read size used by SubmitReader when the caller
// passes a non-positive chunk size.
const DefaultChunkSize = 64 * 1024

// Matcher owns the pattern registry, the merged automaton, the stream
// cursor, and the observer list. All mutation is serialized through one
// mutex: at most one Submit (and no concurrent Register) advances state
// at a time, so the match multiset is independent of how callers chunk
// the stream. Concurrent submissions interleave as one logical stream in
// lock-acquisition order; callers needing independent streams use
// independent Matchers.
type Matcher struct {
	mu        sync.Mutex
	prog      *automaton.Program
	sc        *scanner.Scanner
	patterns  map[string]*types.Pattern
	order     []string
	observers []ObserverFunc
	nextAuto  int
	closed    bool
}

// Option configures a Matcher.
type Option func(*config)

type config struct {
	catalogue []*types.Pattern
	observers []ObserverFunc
}

// WithCatalogue registers the given patterns at construction time.
func WithCatalogue(patterns []*types.Pattern) Option {
	return func(c *config) {
		c.catalogue = patterns
	}
}

// WithObserver subscribes an observer at construction time.
func WithObserver(fn ObserverFunc) Option {
	return func(c *config) {
		c.observers = append(c.observers, fn)
	}
}

// New creates a Matcher. Catalogue registration errors (syntax,
// duplicate ids) surface here.
func New(opts ...Option) (*Matcher, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	prog := automaton.NewProgram()
	m := &Matcher{
		prog:     prog,
		sc:       scanner.New(prog),
		patterns: make(map[string]*types.Pattern),
	}

	for _, fn := range cfg.observers {
		if err := m.Subscribe(fn); err != nil {
			return nil, err
		}
	}
	for _, p := range cfg.catalogue {
		if _, err := m.RegisterPattern(p); err != nil {
			return nil, fmt.Errorf("registering catalogue pattern: %w", err)
		}
	}

	return m, nil
}

// Register registers a pattern under a generated identifier and returns
// it. Generated identifiers are sequential and never collide with
// caller-supplied ones.
func (m *Matcher) Register(source string) (string, error) {
	return m.RegisterPattern(&types.Pattern{Source: source})
}

// RegisterAs registers a pattern under an explicit identifier. The
// identifier must be non-empty and unused.
func (m *Matcher) RegisterAs(id, source string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("pattern id must be non-empty: %w", ErrInvalidInput)
	}
	return m.RegisterPattern(&types.Pattern{ID: id, Source: source})
}

// RegisterPattern registers a full catalogue entry. An empty ID gets a
// generated one. The pattern is compiled before any state is touched, so
// a rejected registration leaves the automaton, cursor, and registry
// unchanged. Patterns registered mid-stream begin matching at the
// current cursor; they never apply retroactively to consumed bytes.
func (m *Matcher) RegisterPattern(p *types.Pattern) (string, error) {
	if p == nil {
		return "", fmt.Errorf("pattern must not be nil: %w", ErrInvalidInput)
	}

	frag, err := pattern.Compile(p.Source, p.CaseInsensitive)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", ErrClosed
	}

	id := p.ID
	if id == "" {
		id = m.generateID()
	}
	if _, exists := m.patterns[id]; exists {
		return "", fmt.Errorf("pattern %q: %w", id, ErrDuplicateID)
	}

	registered := *p
	registered.ID = id
	if registered.StructuralID == "" {
		registered.StructuralID = registered.ComputeStructuralID()
	}

	m.prog.AddFragment(frag, id)
	m.patterns[id] = &registered
	m.order = append(m.order, id)
	return id, nil
}

// generateID returns the next unused sequential identifier.
// Caller must hold m.mu.
func (m *Matcher) generateID() string {
	for {
		m.nextAuto++
		id := fmt.Sprintf("pattern-%d", m.nextAuto)
		if _, taken := m.patterns[id]; !taken {
			return id
		}
	}
}

// Subscribe adds an observer. Observers are invoked synchronously during
// Submit and Flush, once per match, in completion order.
func (m *Matcher) Subscribe(fn ObserverFunc) error {
	if fn == nil {
		return ErrInvalidObserver
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.observers = append(m.observers, fn)
	return nil
}

// Submit advances the stream by one chunk and notifies observers of every
// completed match before returning. A nil slice is rejected with
// ErrInvalidInput and no state change; an empty non-nil chunk is a no-op.
// Submissions serialize with each other and with registration.
func (m *Matcher) Submit(chunk []byte) error {
	if chunk == nil {
		return fmt.Errorf("chunk must be a byte slice: %w", ErrInvalidInput)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}

	m.dispatch(m.sc.ProcessChunk(chunk))
	return nil
}

// SubmitReader drains r in chunkSize reads, submitting each chunk, and
// terminates on EOF. A non-positive chunkSize selects DefaultChunkSize.
func (m *Matcher) SubmitReader(r io.Reader, chunkSize int) error {
	if r == nil {
		return fmt.Errorf("reader must not be nil: %w", ErrInvalidInput)
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	buf := make([]byte, chunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if serr := m.Submit(buf[:n]); serr != nil {
				return serr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading stream: %w", err)
		}
	}
}

// Flush marks end of stream: end-anchored matches are completed and
// delivered, and live partial-match state is dropped. The cursor keeps
// its value, so a later Submit continues at the same absolute offset.
func (m *Matcher) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}

	m.dispatch(m.sc.Flush())
	return nil
}

// Close flushes pending end-of-stream matches and shuts the matcher down.
func (m *Matcher) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}

	m.dispatch(m.sc.Flush())
	m.closed = true
	return nil
}

// dispatch notifies every observer once per match, in completion order.
// Caller must hold m.mu.
func (m *Matcher) dispatch(results []Match) {
	for _, r := range results {
		for _, fn := range m.observers {
			fn(r)
		}
	}
}

// MemoryEstimate reports resident engine state in bytes. It varies with
// pattern count and thread-set capacity, not with cumulative bytes
// processed.
func (m *Matcher) MemoryEstimate() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	est := m.sc.MemoryEstimate()
	for _, p := range m.patterns {
		est += len(p.ID) + len(p.Source)
	}
	return est
}

// Cursor returns the absolute byte offset consumed since creation.
func (m *Matcher) Cursor() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sc.Cursor()
}

// PatternCount returns the number of registered patterns.
func (m *Matcher) PatternCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.order)
}

// Patterns returns the registered patterns in registration order.
func (m *Matcher) Patterns() []*Pattern {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*Pattern, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.patterns[id])
	}
	return out
}

// LoadBuiltinPatterns returns the curated builtin security catalogue.
func LoadBuiltinPatterns() ([]*Pattern, error) {
	loader := pattern.NewLoader()
	return loader.LoadBuiltinPatterns()
}

// LoadPatternsFromFile loads catalogue patterns from a YAML file.
// Use with WithCatalogue to create a matcher over custom patterns.
func LoadPatternsFromFile(path string) ([]*Pattern, error) {
	loader := pattern.NewLoader()
	return loader.LoadPatternFile(path)
}
