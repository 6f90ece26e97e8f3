package types

import (
	"crypto/sha1"
	"encoding/hex"
)

// Pattern is a registered detection pattern with metadata.
// Immutable after registration; the registry is append-only.
type Pattern struct {
	ID               string   // unique identifier, caller-supplied or generated
	Name             string   // human-readable name
	Source           string   // original regex text (kept for diagnostics)
	StructuralID     string   // SHA-1 of source (computed)
	CaseInsensitive  bool     // byte-level case folding, resolved at compile time
	Description      string   // optional
	Examples         []string // inputs the pattern must match
	NegativeExamples []string // inputs the pattern must not match
	References       []string // documentation URLs
	Categories       []string // classification tags
	Keywords         []string // literal keywords for Aho-Corasick prefiltering
}

// ComputeStructuralID computes the SHA-1 fingerprint of the pattern source.
// Case-insensitive patterns hash differently from their case-sensitive twins.
func (p *Pattern) ComputeStructuralID() string {
	h := sha1.New()
	if p.CaseInsensitive {
		h.Write([]byte("(?i)"))
	}
	h.Write([]byte(p.Source))
	return hex.EncodeToString(h.Sum(nil))
}

// Catalogue groups patterns together.
type Catalogue struct {
	ID          string
	Name        string
	Description string
	PatternIDs  []string
}
