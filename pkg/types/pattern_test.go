package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeStructuralID(t *testing.T) {
	p := &Pattern{ID: "test", Source: `AKIA[0-9A-Z]{16}`}
	id := p.ComputeStructuralID()

	assert.Len(t, id, 40, "SHA-1 hex digest")

	// Same source produces the same fingerprint
	p2 := &Pattern{ID: "other", Source: `AKIA[0-9A-Z]{16}`}
	assert.Equal(t, id, p2.ComputeStructuralID())

	// Different source produces a different fingerprint
	p3 := &Pattern{ID: "test", Source: `ghp_[A-Za-z0-9]{36}`}
	assert.NotEqual(t, id, p3.ComputeStructuralID())
}

func TestComputeStructuralID_CaseFoldDistinct(t *testing.T) {
	sensitive := &Pattern{Source: `select`}
	insensitive := &Pattern{Source: `select`, CaseInsensitive: true}

	assert.NotEqual(t, sensitive.ComputeStructuralID(), insensitive.ComputeStructuralID())
}

func TestMatchResult(t *testing.T) {
	m := MatchResult{PatternID: "sqli", Start: 10, Length: 4}

	assert.Equal(t, int64(14), m.End())
	assert.Equal(t, "sqli@10+4", m.String())
}
