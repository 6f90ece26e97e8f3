package pattern

import (
	"testing"

	"github.com/praetorian-inc/streamscan/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPattern() *types.Pattern {
	return &types.Pattern{
		ID:               "test.key",
		Name:             "Test Key",
		Source:           `key-[0-9a-f]{8}`,
		Examples:         []string{"found key-deadbeef in config"},
		NegativeExamples: []string{"key-nothex", "keydeadbeef"},
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(validPattern()))
}

func TestValidate_RequiredFields(t *testing.T) {
	assert.ErrorContains(t, Validate(nil), "nil")

	p := validPattern()
	p.ID = ""
	assert.ErrorContains(t, Validate(p), "ID is required")

	p = validPattern()
	p.Source = ""
	assert.ErrorContains(t, Validate(p), "source is required")
}

func TestValidate_EngineRejection(t *testing.T) {
	p := validPattern()
	p.Source = `\bkey\b`
	p.Examples = nil
	p.NegativeExamples = nil

	err := Validate(p)
	require.Error(t, err)
	assert.ErrorContains(t, err, "does not compile")
}

func TestValidate_StructuralIDMismatch(t *testing.T) {
	p := validPattern()
	p.StructuralID = "bogus"

	err := Validate(p)
	require.Error(t, err)
	assert.ErrorContains(t, err, "inconsistent StructuralID")
}

func TestValidate_ExampleMismatch(t *testing.T) {
	p := validPattern()
	p.Examples = append(p.Examples, "no key here")

	err := Validate(p)
	require.Error(t, err)
	assert.ErrorContains(t, err, "does not match example")
}

func TestValidate_NegativeExampleMatch(t *testing.T) {
	p := validPattern()
	p.NegativeExamples = append(p.NegativeExamples, "key-cafebabe")

	err := Validate(p)
	require.Error(t, err)
	assert.ErrorContains(t, err, "unexpectedly matches")
}

func TestValidate_CaseInsensitiveExamples(t *testing.T) {
	p := &types.Pattern{
		ID:               "test.ci",
		Source:           `select`,
		CaseInsensitive:  true,
		Examples:         []string{"UNION SELECT", "Select *"},
		NegativeExamples: []string{"chosen"},
	}
	assert.NoError(t, Validate(p))
}

// Every shipped pattern must pass its own examples.
func TestValidate_BuiltinCatalogue(t *testing.T) {
	patterns, err := NewLoader().LoadBuiltinPatterns()
	require.NoError(t, err)
	require.NotEmpty(t, patterns)

	for _, p := range patterns {
		assert.NoError(t, Validate(p), "builtin pattern %s", p.ID)
	}
}

func TestValidateCatalogue(t *testing.T) {
	known := map[string]bool{"a": true, "b": true}

	ok := &types.Catalogue{ID: "set", PatternIDs: []string{"a", "b"}}
	assert.NoError(t, ValidateCatalogue(ok, known))

	assert.ErrorContains(t, ValidateCatalogue(nil, known), "nil")

	noID := &types.Catalogue{PatternIDs: []string{"a"}}
	assert.ErrorContains(t, ValidateCatalogue(noID, known), "ID is required")

	empty := &types.Catalogue{ID: "set"}
	assert.ErrorContains(t, ValidateCatalogue(empty, known), "at least one")

	unknown := &types.Catalogue{ID: "set", PatternIDs: []string{"c"}}
	assert.ErrorContains(t, ValidateCatalogue(unknown, known), "unknown pattern ID")

	dup := &types.Catalogue{ID: "set", PatternIDs: []string{"a", "a"}}
	assert.ErrorContains(t, ValidateCatalogue(dup, known), "duplicate")
}
