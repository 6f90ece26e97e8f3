package pattern

// yamlPattern is the intermediate struct for parsing catalogue YAML files.
type yamlPattern struct {
	ID               string   `yaml:"id"`
	Name             string   `yaml:"name"`
	Pattern          string   `yaml:"pattern"`
	CaseInsensitive  bool     `yaml:"case_insensitive,omitempty"`
	Description      string   `yaml:"description,omitempty"`
	Examples         []string `yaml:"examples,omitempty"`
	NegativeExamples []string `yaml:"negative_examples,omitempty"`
	References       []string `yaml:"references,omitempty"`
	Categories       []string `yaml:"categories,omitempty"`
	Keywords         []string `yaml:"keywords,omitempty"`
}

// yamlPatternsFile is the top-level structure of a patterns YAML file.
type yamlPatternsFile struct {
	Patterns []yamlPattern `yaml:"patterns"`
}

// yamlCatalogue is the intermediate struct for parsing catalogue groupings.
type yamlCatalogue struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	PatternIDs  []string `yaml:"include_pattern_ids"`
}

// yamlCataloguesFile is the top-level structure of a catalogues YAML file.
type yamlCataloguesFile struct {
	Catalogues []yamlCatalogue `yaml:"catalogues"`
}
