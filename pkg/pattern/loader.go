package pattern

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/praetorian-inc/streamscan/pkg/types"
	"gopkg.in/yaml.v3"
)

// Loader handles loading pattern catalogues from YAML files.
type Loader struct {
	fs fs.FS // embedded filesystem for builtin patterns
}

// NewLoader creates a loader backed by the builtin embedded catalogue.
func NewLoader() *Loader {
	return &Loader{fs: builtinFS}
}

// NewLoaderWithFS creates a loader with a custom filesystem.
func NewLoaderWithFS(fsys fs.FS) *Loader {
	return &Loader{fs: fsys}
}

// LoadPatterns parses all patterns from YAML bytes.
func (l *Loader) LoadPatterns(data []byte) ([]*types.Pattern, error) {
	var yamlFile yamlPatternsFile
	if err := yaml.Unmarshal(data, &yamlFile); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if len(yamlFile.Patterns) == 0 {
		return nil, fmt.Errorf("no patterns found in YAML")
	}

	patterns := make([]*types.Pattern, 0, len(yamlFile.Patterns))
	for _, yp := range yamlFile.Patterns {
		patterns = append(patterns, convertYAMLPattern(yp))
	}
	return patterns, nil
}

// LoadPatternFile loads patterns from a YAML file path.
func (l *Loader) LoadPatternFile(path string) ([]*types.Pattern, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return l.LoadPatterns(data)
}

// LoadBuiltinPatterns loads all builtin patterns from the embedded
// filesystem.
func (l *Loader) LoadBuiltinPatterns() ([]*types.Pattern, error) {
	var patterns []*types.Pattern

	err := fs.WalkDir(l.fs, "patterns", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".yml" {
			return nil
		}

		data, err := fs.ReadFile(l.fs, path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		var yamlFile yamlPatternsFile
		if err := yaml.Unmarshal(data, &yamlFile); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}

		for _, yp := range yamlFile.Patterns {
			patterns = append(patterns, convertYAMLPattern(yp))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return patterns, nil
}

// LoadCatalogues parses catalogue groupings from YAML bytes.
func (l *Loader) LoadCatalogues(data []byte) ([]*types.Catalogue, error) {
	var yamlFile yamlCataloguesFile
	if err := yaml.Unmarshal(data, &yamlFile); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if len(yamlFile.Catalogues) == 0 {
		return nil, fmt.Errorf("no catalogues found in YAML")
	}

	catalogues := make([]*types.Catalogue, 0, len(yamlFile.Catalogues))
	for _, yc := range yamlFile.Catalogues {
		catalogues = append(catalogues, &types.Catalogue{
			ID:          yc.ID,
			Name:        yc.Name,
			Description: yc.Description,
			PatternIDs:  yc.PatternIDs,
		})
	}
	return catalogues, nil
}

// convertYAMLPattern converts yamlPattern to types.Pattern and computes
// the structural fingerprint.
func convertYAMLPattern(yp yamlPattern) *types.Pattern {
	p := &types.Pattern{
		ID:               yp.ID,
		Name:             yp.Name,
		Source:           yp.Pattern,
		CaseInsensitive:  yp.CaseInsensitive,
		Description:      yp.Description,
		Examples:         yp.Examples,
		NegativeExamples: yp.NegativeExamples,
		References:       yp.References,
		Categories:       yp.Categories,
		Keywords:         yp.Keywords,
	}
	p.StructuralID = p.ComputeStructuralID()
	return p
}
