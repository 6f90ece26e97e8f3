package pattern

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile_SupportedSyntax(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"literal", `test`},
		{"character class", `[0-9A-Za-z_]+`},
		{"alternation", `cat|dog|bird`},
		{"unbounded repetition", `a+b*c?`},
		{"bounded repetition", `AKIA[0-9A-Z]{16}`},
		{"anchors", `^begin.*end$`},
		{"dot", `a.c`},
		{"negated class", `[^ \t\r\n]+`},
		{"groups", `(abc)+(def)?`},
		{"inline case flag", `(?i)select`},
		{"escaped metachars", `\.\./`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frag, err := Compile(tt.source, false)
			require.NoError(t, err)
			require.NotNil(t, frag)
			assert.NotEmpty(t, frag.Insts)
		})
	}
}

func TestCompile_CaseInsensitiveFlag(t *testing.T) {
	frag, err := Compile(`select`, true)
	require.NoError(t, err)

	// Folding happens at compile time: the fragment grows byte
	// alternatives instead of deferring to scan time.
	plain, err := Compile(`select`, false)
	require.NoError(t, err)
	assert.Greater(t, len(frag.Insts), len(plain.Insts))
}

func TestCompile_SyntaxErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"unbalanced paren", `(abc`},
		{"backreference", `(a)\1`},
		{"lookahead", `a(?=b)`},
		{"invalid repeat count", `a{2,5000}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.source, false)
			require.Error(t, err)

			var serr *SyntaxError
			assert.ErrorAs(t, err, &serr)
		})
	}
}

func TestCompile_UnsupportedConstructs(t *testing.T) {
	tests := []struct {
		name      string
		source    string
		construct string
	}{
		{"word boundary", `\bword\b`, "word boundary"},
		{"multiline anchor", `(?m)^line`, "multiline anchor (?m)"},
		{"non-ascii class", `[\x{1F600}-\x{1F64F}]`, "non-ASCII character class"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.source, false)
			require.Error(t, err)

			var serr *SyntaxError
			require.ErrorAs(t, err, &serr)
			assert.Equal(t, tt.construct, serr.Construct)
		})
	}
}

func TestCompile_TooComplex(t *testing.T) {
	// The repeat count stays within the parser's limit but the
	// expansion crosses the fragment instruction cap.
	_, err := Compile(`(abcde){1000}`, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooComplex), "expected ErrTooComplex, got %v", err)
}

func TestCompile_NoSideEffects(t *testing.T) {
	// Compiling the same source twice yields structurally equal fragments.
	a, err := Compile(`a+b`, false)
	require.NoError(t, err)
	b, err := Compile(`a+b`, false)
	require.NoError(t, err)

	assert.Equal(t, a.Insts, b.Insts)
	assert.Equal(t, a.Start, b.Start)
}
