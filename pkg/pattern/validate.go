package pattern

import (
	"fmt"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/praetorian-inc/streamscan/pkg/types"
)

// exampleTimeout bounds example verification so a pathological pattern
// cannot hang catalogue validation.
const exampleTimeout = 5 * time.Second

// Validate checks catalogue pattern consistency: required fields, engine
// compilability, structural fingerprint, and example behavior.
func Validate(p *types.Pattern) error {
	if p == nil {
		return fmt.Errorf("pattern is nil")
	}

	if p.ID == "" {
		return fmt.Errorf("pattern ID is required")
	}
	if p.Source == "" {
		return fmt.Errorf("pattern source is required")
	}

	// The streaming engine must accept the pattern.
	if _, err := Compile(p.Source, p.CaseInsensitive); err != nil {
		return fmt.Errorf("pattern %s does not compile: %w", p.ID, err)
	}

	// Validate StructuralID matches computed value.
	expected := p.ComputeStructuralID()
	if p.StructuralID != "" && p.StructuralID != expected {
		return fmt.Errorf("pattern %s has inconsistent StructuralID: got %s, expected %s",
			p.ID, p.StructuralID, expected)
	}

	if len(p.Examples) == 0 && len(p.NegativeExamples) == 0 {
		return nil
	}

	// Examples are verified with regexp2 in RE2 mode, which covers the
	// engine's supported subset and enforces a match timeout.
	opts := regexp2.RegexOptions(regexp2.RE2)
	if p.CaseInsensitive {
		opts |= regexp2.IgnoreCase
	}
	re, err := regexp2.Compile(p.Source, opts)
	if err != nil {
		return fmt.Errorf("pattern %s failed reference compilation: %w", p.ID, err)
	}
	re.MatchTimeout = exampleTimeout

	for _, example := range p.Examples {
		ok, err := re.MatchString(example)
		if err != nil {
			return fmt.Errorf("pattern %s example check failed: %w", p.ID, err)
		}
		if !ok {
			return fmt.Errorf("pattern %s does not match example %q", p.ID, example)
		}
	}

	for _, example := range p.NegativeExamples {
		ok, err := re.MatchString(example)
		if err != nil {
			return fmt.Errorf("pattern %s negative example check failed: %w", p.ID, err)
		}
		if ok {
			return fmt.Errorf("pattern %s unexpectedly matches negative example %q", p.ID, example)
		}
	}

	return nil
}

// ValidateCatalogue checks catalogue grouping consistency against a set of
// known pattern IDs.
func ValidateCatalogue(c *types.Catalogue, knownIDs map[string]bool) error {
	if c == nil {
		return fmt.Errorf("catalogue is nil")
	}
	if c.ID == "" {
		return fmt.Errorf("catalogue ID is required")
	}
	if len(c.PatternIDs) == 0 {
		return fmt.Errorf("catalogue %s must reference at least one pattern", c.ID)
	}

	seen := make(map[string]bool)
	for _, id := range c.PatternIDs {
		if knownIDs != nil && !knownIDs[id] {
			return fmt.Errorf("catalogue %s references unknown pattern ID: %s", c.ID, id)
		}
		if seen[id] {
			return fmt.Errorf("catalogue %s contains duplicate pattern ID: %s", c.ID, id)
		}
		seen[id] = true
	}

	return nil
}
